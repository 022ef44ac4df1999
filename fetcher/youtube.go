package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/api/googleapi/transport"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// PageSize is the largest maxResults commentThreads.list accepts.
const PageSize int64 = 100

// PageRequest describes one commentThreads.list call.
type PageRequest struct {
	VideoID    string
	PageToken  string
	MaxResults int64
}

// CommentThreadLister fetches one page of comment threads.
type CommentThreadLister interface {
	ListCommentThreads(ctx context.Context, req PageRequest) (*youtube.CommentThreadListResponse, error)
}

type youTubeLister struct {
	service *youtube.Service
}

// NewYouTubeLister builds a lister backed by the YouTube Data API. A non-empty
// baseURL replaces the service base path.
func NewYouTubeLister(ctx context.Context, apiKey, baseURL string, timeout time.Duration) (CommentThreadLister, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("YouTube API key is required")
	}

	httpClient := &http.Client{
		Timeout:   timeout,
		Transport: &transport.APIKey{Key: apiKey},
	}
	return newLister(ctx, baseURL, httpClient)
}

func newLister(ctx context.Context, baseURL string, httpClient *http.Client) (CommentThreadLister, error) {
	service, err := youtube.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}
	if baseURL != "" {
		service.BasePath = strings.TrimSuffix(baseURL, "/") + "/"
	}
	return &youTubeLister{service: service}, nil
}

func (l *youTubeLister) ListCommentThreads(ctx context.Context, req PageRequest) (*youtube.CommentThreadListResponse, error) {
	call := l.service.CommentThreads.List([]string{"snippet", "replies"}).
		VideoId(req.VideoID).
		Order("time").
		TextFormat("plainText").
		MaxResults(req.MaxResults)
	if req.PageToken != "" {
		call = call.PageToken(req.PageToken)
	}
	return call.Context(ctx).Do()
}
