package main

import (
	"comment-service/logging"
	"os"
)

func main() {
	logging.Setup(os.Getenv("LOG_LEVEL"), "console", os.Stderr)

	if err := newRootCmd(os.Stdout, defaultFetcherFactory).Execute(); err != nil {
		os.Exit(1)
	}
}
