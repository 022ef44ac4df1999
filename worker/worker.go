package worker

import (
	"comment-service/config"
	"comment-service/metrics"
	"comment-service/model"
	"comment-service/store"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	SubjectFetch       = "comments.fetch"
	SubjectFetchResult = "comments.fetch.result"
	queueGroup         = "comment-workers"
)

var ErrMissingVideoID = errors.New("videoId is required")

type CommentFetcher interface {
	FetchComments(ctx context.Context, videoID string, goal int) model.FetchResult
}

type Publisher interface {
	Publish(subject string, data []byte) error
}

type Worker struct {
	config     *config.Config
	natsConn   *nats.Conn
	publisher  Publisher
	fetcher    CommentFetcher
	store      store.SnapshotStore
	limiter    *rate.Limiter
	cancelFunc context.CancelFunc
	now        func() time.Time
}

// Connect dials NATS with reconnects enabled.
func Connect(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("comment-service"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	)
}

// NewWorker wires a worker to a NATS connection. snapshots may be nil, in
// which case results are published but not stored.
func NewWorker(cfg *config.Config, nc *nats.Conn, f CommentFetcher, snapshots store.SnapshotStore) *Worker {
	w := newWorker(cfg, nc, f, snapshots)
	w.natsConn = nc
	return w
}

func newWorker(cfg *config.Config, publisher Publisher, f CommentFetcher, snapshots store.SnapshotStore) *Worker {
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Every(cfg.RateLimit)
	}
	return &Worker{
		config:    cfg,
		publisher: publisher,
		fetcher:   f,
		store:     snapshots,
		limiter:   rate.NewLimiter(limit, 1),
		now:       time.Now,
	}
}

func (w *Worker) Start(ctx context.Context) error {
	log.Info().Msg("Starting comment worker...")

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancelFunc = cancel

	_, err := w.natsConn.QueueSubscribe(SubjectFetch, queueGroup, func(msg *nats.Msg) {
		w.handleFetchRequest(workerCtx, msg.Data, msg.Reply)
	})
	if err != nil {
		cancel()
		return fmt.Errorf("subscribe %s: %w", SubjectFetch, err)
	}
	log.Info().Str("subject", SubjectFetch).Str("queue", queueGroup).Msg("Subscribed")

	if len(w.config.WatchVideoIDs) > 0 && w.config.FetchInterval > 0 {
		go w.startScheduler(workerCtx)
	}

	return nil
}

func (w *Worker) Stop() {
	log.Info().Msg("Stopping comment worker...")
	if w.cancelFunc != nil {
		w.cancelFunc()
	}
	if w.natsConn != nil {
		if err := w.natsConn.Drain(); err != nil {
			log.Warn().Err(err).Msg("NATS drain failed")
			w.natsConn.Close()
		}
	}
}

// RequestFetch publishes a fetch request and returns its request ID.
func (w *Worker) RequestFetch(videoID string, goal int) (string, error) {
	if videoID == "" {
		return "", ErrMissingVideoID
	}
	req := model.FetchRequest{
		VideoID:        videoID,
		GoalMaxResults: goal,
		RequestID:      uuid.NewString(),
	}
	data, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	if err := w.publish(SubjectFetch, data); err != nil {
		return "", err
	}
	return req.RequestID, nil
}

func (w *Worker) handleFetchRequest(ctx context.Context, data []byte, reply string) {
	var req model.FetchRequest
	if err := json.Unmarshal(data, &req); err != nil {
		metrics.NatsMessagesReceived.WithLabelValues(SubjectFetch, "invalid").Inc()
		log.Error().Err(err).Msg("Failed to unmarshal fetch request")
		return
	}
	metrics.NatsMessagesReceived.WithLabelValues(SubjectFetch, "success").Inc()

	if req.GoalMaxResults <= 0 {
		req.GoalMaxResults = w.config.DefaultGoalMaxResults
	}
	logger := log.With().Str("request_id", req.RequestID).Str("video_id", req.VideoID).Logger()

	report := model.FetchReport{
		RequestID: req.RequestID,
		VideoID:   req.VideoID,
	}

	var result model.FetchResult
	if req.VideoID == "" {
		result = model.Failure(model.FetchFailure{
			Kind:    model.KindInternalFailure,
			Message: "Invalid fetch request.",
			Detail:  ErrMissingVideoID.Error(),
		})
	} else {
		logger.Info().Int("goal", req.GoalMaxResults).Msg("Processing fetch request")
		result = w.fetcher.FetchComments(ctx, req.VideoID, req.GoalMaxResults)
	}

	report.Status = result.Status
	report.ProcessedAt = w.now()
	if result.OK() {
		report.CommentsCount = len(result.Comments)
		w.saveSnapshot(ctx, result.CommentsPage, req.RequestID)
	} else {
		report.Error = result.Detail
	}

	if reply != "" {
		if body, err := json.Marshal(result); err == nil {
			if err := w.publish(reply, body); err != nil {
				logger.Error().Err(err).Msg("Failed to reply to fetch request")
			}
		}
	}

	body, _ := json.Marshal(report)
	if err := w.publish(SubjectFetchResult, body); err != nil {
		logger.Error().Err(err).Msg("Failed to publish fetch report")
	}

	logger.Info().Str("status", string(report.Status)).Int("comments", report.CommentsCount).
		Msg("Completed fetch request")
}

func (w *Worker) saveSnapshot(ctx context.Context, page *model.CommentsPage, requestID string) {
	if w.store == nil {
		return
	}
	snapshot := model.NewSnapshot(page, requestID, w.now().UTC())
	if err := w.store.Save(ctx, snapshot); err != nil {
		log.Error().Err(err).Str("video_id", page.VideoID).Msg("Failed to store snapshot")
	}
}

func (w *Worker) publish(subject string, data []byte) error {
	err := w.publisher.Publish(subject, data)
	metrics.NatsMessagesPublished.WithLabelValues(subject, metrics.StatusLabel(err)).Inc()
	return err
}

func (w *Worker) startScheduler(ctx context.Context) {
	log.Info().Dur("interval", w.config.FetchInterval).Strs("videos", w.config.WatchVideoIDs).
		Msg("Scheduler started")

	ticker := time.NewTicker(w.config.FetchInterval)
	defer ticker.Stop()

	w.scheduleFetches(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Scheduler stopped")
			return
		case <-ticker.C:
			log.Info().Msg("Triggering scheduled comment refresh")
			w.scheduleFetches(ctx)
		}
	}
}

func (w *Worker) scheduleFetches(ctx context.Context) {
	for _, videoID := range w.config.WatchVideoIDs {
		if err := w.limiter.Wait(ctx); err != nil {
			return
		}
		requestID, err := w.RequestFetch(videoID, w.config.DefaultGoalMaxResults)
		if err != nil {
			log.Error().Err(err).Str("video_id", videoID).Msg("Failed to schedule fetch")
			continue
		}
		log.Info().Str("video_id", videoID).Str("request_id", requestID).Msg("Scheduled fetch")
	}
}
