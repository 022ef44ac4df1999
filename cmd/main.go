package main

import (
	"comment-service/config"
	"comment-service/fetcher"
	"comment-service/handler"
	"comment-service/logging"
	"comment-service/metrics"
	"comment-service/router"
	"comment-service/store"
	"comment-service/worker"
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
)

var version = "dev"

func main() {
	logging.Setup(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"), os.Stderr)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	metrics.Init("comment-service", version, os.Getenv("ENVIRONMENT"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	lister, err := fetcher.NewYouTubeLister(ctx, cfg.YouTubeAPIKey, cfg.YouTubeBaseURL, cfg.UpstreamTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create YouTube client")
	}
	commentFetcher := fetcher.NewFetcher(lister)

	var snapshots store.SnapshotStore
	if cfg.StorageEnabled() {
		connectCtx, connectCancel := context.WithTimeout(ctx, 10*time.Second)
		mongoClient, err := store.Connect(connectCtx, cfg.MongoURI)
		connectCancel()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to MongoDB")
		}
		defer mongoClient.Disconnect(context.Background())

		mongoStore := store.NewMongoStore(mongoClient.Database(cfg.MongoDatabase))
		indexCtx, indexCancel := context.WithTimeout(ctx, 10*time.Second)
		mongoStore.EnsureIndexes(indexCtx)
		indexCancel()
		snapshots = mongoStore
		log.Info().Str("database", cfg.MongoDatabase).Msg("Snapshot storage enabled")
	}

	var (
		commentWorker *worker.Worker
		requester     handler.FetchRequester
	)
	if cfg.WorkerEnabled() {
		nc, err := worker.Connect(cfg.NATSUrl)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to NATS")
		}
		commentWorker = worker.NewWorker(cfg, nc, commentFetcher, snapshots)
		if err := commentWorker.Start(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to start worker")
		}
		requester = commentWorker
	}

	r := router.Setup(cfg, handler.NewCommentsHandler(cfg, commentFetcher, snapshots, requester))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Comment service starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down comment service...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if commentWorker != nil {
		commentWorker.Stop()
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Comment service stopped")
}
