package main

import (
	"comment-service/config"
	"comment-service/fetcher"
	"comment-service/model"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

type commentFetcher interface {
	FetchComments(ctx context.Context, videoID string, goal int) model.FetchResult
}

type fetcherFactory func(ctx context.Context, cfg *config.Config) (commentFetcher, error)

func defaultFetcherFactory(ctx context.Context, cfg *config.Config) (commentFetcher, error) {
	lister, err := fetcher.NewYouTubeLister(ctx, cfg.YouTubeAPIKey, cfg.YouTubeBaseURL, cfg.UpstreamTimeout)
	if err != nil {
		return nil, err
	}
	return fetcher.NewFetcher(lister), nil
}

var errFetchFailed = errors.New("fetch returned an error envelope")

func newRootCmd(out io.Writer, factory fetcherFactory) *cobra.Command {
	root := &cobra.Command{
		Use:           "commentctl",
		Short:         "Fetch normalized YouTube comments from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newFetchCmd(out, factory))
	return root
}

func newFetchCmd(out io.Writer, factory fetcherFactory) *cobra.Command {
	var (
		videoID string
		goal    int
		pretty  bool
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch comment threads for a video and print the result envelope",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if videoID == "" {
				videoID = cfg.DefaultVideoID
			}
			if !cmd.Flags().Changed("goal") {
				goal = cfg.DefaultGoalMaxResults
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RequestTimeout)
			defer cancel()

			f, err := factory(ctx, cfg)
			if err != nil {
				return err
			}
			result := f.FetchComments(ctx, videoID, goal)

			enc := json.NewEncoder(out)
			if pretty {
				enc.SetIndent("", "  ")
			}
			if err := enc.Encode(result); err != nil {
				return fmt.Errorf("encode result: %w", err)
			}
			if !result.OK() {
				return errFetchFailed
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&videoID, "video-id", "", "YouTube video ID (defaults to DEFAULT_VIDEO_ID)")
	cmd.Flags().IntVar(&goal, "goal", 0, "maximum number of top-level comments (defaults to DEFAULT_GOAL_MAX_RESULTS)")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "indent JSON output")

	return cmd
}
