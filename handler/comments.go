package handler

import (
	"comment-service/config"
	"comment-service/model"
	"comment-service/store"
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type CommentFetcher interface {
	FetchComments(ctx context.Context, videoID string, goal int) model.FetchResult
}

type FetchRequester interface {
	RequestFetch(videoID string, goal int) (string, error)
}

type CommentsHandler struct {
	config    *config.Config
	fetcher   CommentFetcher
	snapshots store.SnapshotStore
	requester FetchRequester
}

// NewCommentsHandler builds the comment endpoints. snapshots and requester are
// optional; their endpoints answer 503 when nil.
func NewCommentsHandler(cfg *config.Config, f CommentFetcher, snapshots store.SnapshotStore, requester FetchRequester) *CommentsHandler {
	return &CommentsHandler{
		config:    cfg,
		fetcher:   f,
		snapshots: snapshots,
		requester: requester,
	}
}

// GetComments serves GET /api/comments.
func (h *CommentsHandler) GetComments(c *gin.Context) {
	videoID := h.videoID(c)
	goal, err := h.goal(c)
	if err != nil {
		log.Warn().Str("goal_max_results", c.Query("goal_max_results")).Msg("Invalid goal_max_results")
		c.JSON(http.StatusBadRequest, gin.H{"error": "goal_max_results must be an integer"})
		return
	}

	log.Info().Str("video_id", videoID).Int("goal", goal).Msg("GetComments called")
	h.respond(c, videoID, goal)
}

// GetHello serves GET /api/hello, the comments for the configured defaults.
func (h *CommentsHandler) GetHello(c *gin.Context) {
	log.Info().Msg("GetHello called")
	h.respond(c, h.config.DefaultVideoID, h.config.DefaultGoalMaxResults)
}

func (h *CommentsHandler) respond(c *gin.Context, videoID string, goal int) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.config.RequestTimeout)
	defer cancel()

	result := h.fetcher.FetchComments(ctx, videoID, goal)
	c.JSON(statusFor(result), result)
}

// GetSnapshot serves GET /api/comments/snapshot.
func (h *CommentsHandler) GetSnapshot(c *gin.Context) {
	if h.snapshots == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "snapshot storage is not configured"})
		return
	}

	videoID := h.videoID(c)
	snapshot, err := h.snapshots.Latest(c.Request.Context(), videoID)
	if errors.Is(err, store.ErrSnapshotNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no snapshot for video", "video_id": videoID})
		return
	}
	if err != nil {
		log.Error().Err(err).Str("video_id", videoID).Msg("Loading snapshot failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// RefreshComments serves POST /api/comments/refresh by queueing a fetch.
func (h *CommentsHandler) RefreshComments(c *gin.Context) {
	if h.requester == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "fetch worker is not configured"})
		return
	}

	videoID := h.videoID(c)
	goal, err := h.goal(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "goal_max_results must be an integer"})
		return
	}

	requestID, err := h.requester.RequestFetch(videoID, goal)
	if err != nil {
		log.Error().Err(err).Str("video_id", videoID).Msg("Queueing refresh failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	log.Info().Str("video_id", videoID).Str("request_id", requestID).Msg("Refresh queued")
	c.JSON(http.StatusAccepted, model.RefreshResponse{
		RequestID: requestID,
		VideoID:   videoID,
		Status:    "queued",
	})
}

func (h *CommentsHandler) videoID(c *gin.Context) string {
	if v := c.Query("video_id"); v != "" {
		return v
	}
	if v := c.Query("videoId"); v != "" {
		return v
	}
	return h.config.DefaultVideoID
}

func (h *CommentsHandler) goal(c *gin.Context) (int, error) {
	raw := c.Query("goal_max_results")
	if raw == "" {
		return h.config.DefaultGoalMaxResults, nil
	}
	return strconv.Atoi(raw)
}

func statusFor(result model.FetchResult) int {
	if result.OK() {
		return http.StatusOK
	}
	if result.FetchFailure == nil {
		return http.StatusInternalServerError
	}
	switch result.Kind {
	case model.KindUpstreamRejected:
		return http.StatusBadGateway
	case model.KindTransportFailure:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
