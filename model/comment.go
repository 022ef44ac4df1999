package model

// Comment is a normalized comment or reply. Replies is always non-nil so it
// serializes as an array; reply entries keep it empty.
type Comment struct {
	Author       *string   `json:"author" bson:"author"`
	Date         string    `json:"date" bson:"date"`
	Text         *string   `json:"text" bson:"text"`
	Likes        int64     `json:"likes" bson:"likes"`
	TotalReplies int64     `json:"totalReplies" bson:"totalReplies"`
	Replies      []Comment `json:"replies" bson:"replies"`
}

type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

type ErrorKind string

const (
	KindUpstreamRejected ErrorKind = "upstream_rejected"
	KindTransportFailure ErrorKind = "transport_failure"
	KindInternalFailure  ErrorKind = "internal_failure"
)

// FetchResult is the envelope returned by a fetch. Exactly one of the embedded
// parts is set, matching Status.
type FetchResult struct {
	Status Status `json:"status"`
	*CommentsPage
	*FetchFailure
}

type CommentsPage struct {
	VideoID              string    `json:"video_id"`
	TotalCommentsOnVideo *int64    `json:"total_comments_on_video"`
	TotalCommentsFetched int       `json:"total_comments_fetched"`
	Comments             []Comment `json:"comments"`
}

type FetchFailure struct {
	Kind         ErrorKind      `json:"kind"`
	Message      string         `json:"message"`
	Detail       string         `json:"detail"`
	ResponseBody map[string]any `json:"response_body"`
}

func Success(page CommentsPage) FetchResult {
	if page.Comments == nil {
		page.Comments = []Comment{}
	}
	return FetchResult{Status: StatusSuccess, CommentsPage: &page}
}

func Failure(f FetchFailure) FetchResult {
	return FetchResult{Status: StatusError, FetchFailure: &f}
}

func (r FetchResult) OK() bool { return r.Status == StatusSuccess }
