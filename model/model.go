package model

import "time"

// FetchRequest represents a comment fetch request via NATS
type FetchRequest struct {
	VideoID        string `json:"videoId"`
	GoalMaxResults int    `json:"goalMaxResults"`
	RequestID      string `json:"requestId"`
}

// FetchReport is published after a worker finishes a FetchRequest
type FetchReport struct {
	RequestID     string    `json:"requestId"`
	VideoID       string    `json:"videoId"`
	Status        Status    `json:"status"`
	CommentsCount int       `json:"commentsCount"`
	Error         string    `json:"error,omitempty"`
	ProcessedAt   time.Time `json:"processedAt"`
}

// Snapshot is the latest successful fetch stored for a video
type Snapshot struct {
	VideoID              string    `bson:"videoId" json:"videoId"`
	TotalCommentsOnVideo *int64    `bson:"totalCommentsOnVideo" json:"totalCommentsOnVideo"`
	TotalCommentsFetched int       `bson:"totalCommentsFetched" json:"totalCommentsFetched"`
	Comments             []Comment `bson:"comments" json:"comments"`
	RequestID            string    `bson:"requestId,omitempty" json:"requestId,omitempty"`
	FetchedAt            time.Time `bson:"fetchedAt" json:"fetchedAt"`
}

// NewSnapshot builds a snapshot from a successful result.
func NewSnapshot(page *CommentsPage, requestID string, fetchedAt time.Time) Snapshot {
	return Snapshot{
		VideoID:              page.VideoID,
		TotalCommentsOnVideo: page.TotalCommentsOnVideo,
		TotalCommentsFetched: page.TotalCommentsFetched,
		Comments:             page.Comments,
		RequestID:            requestID,
		FetchedAt:            fetchedAt,
	}
}

// Response structures for API
type RefreshResponse struct {
	RequestID string `json:"requestId"`
	VideoID   string `json:"videoId"`
	Status    string `json:"status"`
}
