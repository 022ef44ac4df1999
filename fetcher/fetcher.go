package fetcher

import (
	"comment-service/metrics"
	"comment-service/model"
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Fetcher pages through a video's comment threads. It keeps no state between
// calls, so one Fetcher may serve concurrent fetches.
type Fetcher struct {
	lister   CommentThreadLister
	pageSize int64
}

func NewFetcher(lister CommentThreadLister) *Fetcher {
	return &Fetcher{
		lister:   lister,
		pageSize: PageSize,
	}
}

// FetchComments collects top-level comments until goal comments are held or
// YouTube reports no further pages. Every failure is returned as an error
// envelope; nothing escapes as a panic.
func (f *Fetcher) FetchComments(ctx context.Context, videoID string, goal int) (result model.FetchResult) {
	logger := log.With().Str("video_id", videoID).Int("goal", goal).Logger()
	logger.Info().Msg("Fetching comments")

	defer func() {
		if r := recover(); r != nil {
			err := &FetchError{Kind: model.KindInternalFailure, Err: fmt.Errorf("panic: %v", r)}
			logger.Error().Err(err).Msg("Comment fetch panicked")
			result = model.Failure(err.Failure())
		}
		recordOutcome(result)
	}()

	page, err := f.collect(ctx, videoID, goal)
	if err != nil {
		fe := classify(err)
		logger.Error().Err(err).Str("kind", string(fe.Kind)).Msg("Comment fetch failed")
		return model.Failure(fe.Failure())
	}

	logger.Info().
		Int("fetched", page.TotalCommentsFetched).
		Int("returned", len(page.Comments)).
		Msg("Successfully fetched comments")
	return model.Success(*page)
}

func (f *Fetcher) collect(ctx context.Context, videoID string, goal int) (*model.CommentsPage, error) {
	var (
		comments     []model.Comment
		pageToken    string
		totalOnVideo *int64
		pages        int
	)

	for len(comments) < goal {
		resp, err := f.lister.ListCommentThreads(ctx, PageRequest{
			VideoID:    videoID,
			PageToken:  pageToken,
			MaxResults: f.pageSize,
		})
		metrics.CommentPagesRequested.Inc()
		if err != nil {
			return nil, err
		}
		if resp == nil {
			return nil, fmt.Errorf("empty response for page %d", pages+1)
		}
		pages++

		if pages == 1 && resp.PageInfo != nil {
			total := resp.PageInfo.TotalResults
			totalOnVideo = &total
		}

		for _, thread := range resp.Items {
			comments = append(comments, FormatThread(thread))
		}

		log.Debug().
			Str("video_id", videoID).
			Int("page", pages).
			Int("items", len(resp.Items)).
			Int("accumulated", len(comments)).
			Msg("Fetched comment page")

		pageToken = resp.NextPageToken
		if pageToken == "" {
			log.Debug().Str("video_id", videoID).Msg("No more pages left")
			break
		}
	}

	fetched := len(comments)
	if fetched > goal {
		comments = comments[:max(goal, 0)]
	}

	return &model.CommentsPage{
		VideoID:              videoID,
		TotalCommentsOnVideo: totalOnVideo,
		TotalCommentsFetched: fetched,
		Comments:             comments,
	}, nil
}

func recordOutcome(result model.FetchResult) {
	if result.OK() {
		metrics.CommentFetchesTotal.WithLabelValues(string(result.Status), "").Inc()
		metrics.CommentsFetched.Observe(float64(result.TotalCommentsFetched))
		return
	}
	kind := ""
	if result.FetchFailure != nil {
		kind = string(result.Kind)
	}
	metrics.CommentFetchesTotal.WithLabelValues(string(result.Status), kind).Inc()
}
