package fetcher

import (
	"comment-service/model"
	"context"
	"errors"
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/youtube/v3"
)

type mockLister struct {
	mock.Mock
}

func (m *mockLister) ListCommentThreads(ctx context.Context, req PageRequest) (*youtube.CommentThreadListResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*youtube.CommentThreadListResponse)
	return resp, args.Error(1)
}

func threadPage(n int, offset int, next string, total *int64) *youtube.CommentThreadListResponse {
	resp := &youtube.CommentThreadListResponse{NextPageToken: next}
	if total != nil {
		resp.PageInfo = &youtube.PageInfo{TotalResults: *total}
	}
	for i := 0; i < n; i++ {
		resp.Items = append(resp.Items, &youtube.CommentThread{
			Snippet: &youtube.CommentThreadSnippet{
				TopLevelComment: &youtube.Comment{
					Snippet: &youtube.CommentSnippet{
						AuthorDisplayName: fmt.Sprintf("user-%d", offset+i),
						PublishedAt:       "2023-05-01T10:20:30Z",
						TextDisplay:       fmt.Sprintf("comment %d", offset+i),
					},
				},
			},
		})
	}
	return resp
}

func req(token string) PageRequest {
	return PageRequest{VideoID: "vid", PageToken: token, MaxResults: PageSize}
}

func TestFetcher_FetchComments(t *testing.T) {
	tests := []struct {
		name         string
		goal         int
		mockSetup    func(*mockLister)
		wantReturned int
		wantFetched  int
		wantTotal    *int64
	}{
		{
			name: "goal truncates second page",
			goal: 5,
			mockSetup: func(m *mockLister) {
				m.On("ListCommentThreads", mock.Anything, req("")).Return(threadPage(3, 0, "p2", int64Ptr(40)), nil).Once()
				m.On("ListCommentThreads", mock.Anything, req("p2")).Return(threadPage(3, 3, "", int64Ptr(99)), nil).Once()
			},
			wantReturned: 5,
			wantFetched:  6,
			wantTotal:    int64Ptr(40),
		},
		{
			name: "goal reached stops before cursor runs out",
			goal: 3,
			mockSetup: func(m *mockLister) {
				m.On("ListCommentThreads", mock.Anything, req("")).Return(threadPage(3, 0, "p2", int64Ptr(10)), nil).Once()
			},
			wantReturned: 3,
			wantFetched:  3,
			wantTotal:    int64Ptr(10),
		},
		{
			name: "single page without cursor",
			goal: 1000,
			mockSetup: func(m *mockLister) {
				m.On("ListCommentThreads", mock.Anything, req("")).Return(threadPage(2, 0, "", int64Ptr(2)), nil).Once()
			},
			wantReturned: 2,
			wantFetched:  2,
			wantTotal:    int64Ptr(2),
		},
		{
			name: "missing page info leaves total null",
			goal: 10,
			mockSetup: func(m *mockLister) {
				m.On("ListCommentThreads", mock.Anything, req("")).Return(threadPage(1, 0, "", nil), nil).Once()
			},
			wantReturned: 1,
			wantFetched:  1,
		},
		{
			name: "empty pages are followed until exhausted",
			goal: 4,
			mockSetup: func(m *mockLister) {
				m.On("ListCommentThreads", mock.Anything, req("")).Return(threadPage(0, 0, "p2", int64Ptr(1)), nil).Once()
				m.On("ListCommentThreads", mock.Anything, req("p2")).Return(threadPage(1, 0, "", nil), nil).Once()
			},
			wantReturned: 1,
			wantFetched:  1,
			wantTotal:    int64Ptr(1),
		},
		{
			name:      "zero goal issues no request",
			goal:      0,
			mockSetup: func(m *mockLister) {},
		},
		{
			name:      "negative goal issues no request",
			goal:      -3,
			mockSetup: func(m *mockLister) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lister := new(mockLister)
			tt.mockSetup(lister)

			result := NewFetcher(lister).FetchComments(context.Background(), "vid", tt.goal)

			require.True(t, result.OK())
			assert.Equal(t, "vid", result.VideoID)
			assert.Len(t, result.Comments, tt.wantReturned)
			assert.Equal(t, tt.wantFetched, result.TotalCommentsFetched)
			assert.Equal(t, tt.wantTotal, result.TotalCommentsOnVideo)
			assert.LessOrEqual(t, len(result.Comments), max(tt.goal, 0))
			assert.GreaterOrEqual(t, result.TotalCommentsFetched, len(result.Comments))
			lister.AssertExpectations(t)
		})
	}
}

func TestFetcher_PreservesOrder(t *testing.T) {
	lister := new(mockLister)
	lister.On("ListCommentThreads", mock.Anything, req("")).Return(threadPage(2, 0, "p2", nil), nil).Once()
	lister.On("ListCommentThreads", mock.Anything, req("p2")).Return(threadPage(2, 2, "", nil), nil).Once()

	result := NewFetcher(lister).FetchComments(context.Background(), "vid", 3)

	require.True(t, result.OK())
	require.Len(t, result.Comments, 3)
	for i, c := range result.Comments {
		assert.Equal(t, fmt.Sprintf("user-%d", i), *c.Author)
	}
}

func TestFetcher_Errors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantKind model.ErrorKind
		wantBody map[string]any
	}{
		{
			name: "upstream rejection carries parsed body",
			err: &googleapi.Error{
				Code:    403,
				Message: "quotaExceeded",
				Body:    `{"error":{"code":403,"message":"quotaExceeded"}}`,
			},
			wantKind: model.KindUpstreamRejected,
			wantBody: map[string]any{"error": map[string]any{"code": float64(403), "message": "quotaExceeded"}},
		},
		{
			name:     "upstream rejection with unparseable body",
			err:      &googleapi.Error{Code: 400, Body: "<html>bad request</html>"},
			wantKind: model.KindUpstreamRejected,
		},
		{
			name:     "transport failure",
			err:      &url.Error{Op: "Get", URL: "https://youtube.googleapis.com", Err: errors.New("connection refused")},
			wantKind: model.KindTransportFailure,
		},
		{
			name:     "deadline exceeded",
			err:      context.DeadlineExceeded,
			wantKind: model.KindTransportFailure,
		},
		{
			name:     "anything else is internal",
			err:      errors.New("invalid character '<' looking for beginning of value"),
			wantKind: model.KindInternalFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lister := new(mockLister)
			lister.On("ListCommentThreads", mock.Anything, req("")).Return(nil, tt.err).Once()

			result := NewFetcher(lister).FetchComments(context.Background(), "vid", 10)

			require.False(t, result.OK())
			require.NotNil(t, result.FetchFailure)
			assert.Nil(t, result.CommentsPage)
			assert.Equal(t, model.StatusError, result.Status)
			assert.Equal(t, tt.wantKind, result.Kind)
			assert.Equal(t, messageFor(tt.wantKind), result.Message)
			assert.Equal(t, tt.err.Error(), result.Detail)
			assert.Equal(t, tt.wantBody, result.ResponseBody)
			lister.AssertExpectations(t)
		})
	}
}

func TestFetcher_FailureOnLaterPageAborts(t *testing.T) {
	lister := new(mockLister)
	lister.On("ListCommentThreads", mock.Anything, req("")).Return(threadPage(3, 0, "p2", nil), nil).Once()
	lister.On("ListCommentThreads", mock.Anything, req("p2")).Return(nil, &googleapi.Error{Code: 500}).Once()

	result := NewFetcher(lister).FetchComments(context.Background(), "vid", 10)

	require.False(t, result.OK())
	assert.Equal(t, model.KindUpstreamRejected, result.Kind)
	lister.AssertExpectations(t)
}

func TestFetcher_NilResponseIsInternal(t *testing.T) {
	lister := new(mockLister)
	lister.On("ListCommentThreads", mock.Anything, req("")).Return(nil, nil).Once()

	result := NewFetcher(lister).FetchComments(context.Background(), "vid", 10)

	require.False(t, result.OK())
	assert.Equal(t, model.KindInternalFailure, result.Kind)
}

type panickingLister struct{}

func (panickingLister) ListCommentThreads(context.Context, PageRequest) (*youtube.CommentThreadListResponse, error) {
	panic("boom")
}

func TestFetcher_PanicBecomesInternalFailure(t *testing.T) {
	result := NewFetcher(panickingLister{}).FetchComments(context.Background(), "vid", 10)

	require.False(t, result.OK())
	assert.Equal(t, model.KindInternalFailure, result.Kind)
	assert.Contains(t, result.Detail, "boom")
	assert.Nil(t, result.ResponseBody)
}

func int64Ptr(v int64) *int64 { return &v }
