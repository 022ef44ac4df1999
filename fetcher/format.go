package fetcher

import (
	"comment-service/model"
	"time"

	"google.golang.org/api/youtube/v3"
)

const (
	publishedAtLayout = "2006-01-02T15:04:05Z"
	displayDateLayout = "2006/01/02 15:04:05"
)

// FormatThread normalizes a commentThreads item together with the replies
// embedded in its first page.
func FormatThread(thread *youtube.CommentThread) model.Comment {
	var (
		snippet      *youtube.CommentSnippet
		totalReplies int64
	)
	if thread != nil && thread.Snippet != nil {
		totalReplies = thread.Snippet.TotalReplyCount
		if top := thread.Snippet.TopLevelComment; top != nil {
			snippet = top.Snippet
		}
	}

	comment := FormatComment(snippet, totalReplies, false)
	if thread != nil && thread.Replies != nil {
		for _, reply := range thread.Replies.Comments {
			comment.Replies = append(comment.Replies, FormatReply(reply))
		}
	}
	return comment
}

// FormatReply normalizes one reply. Replies never carry nested replies.
func FormatReply(reply *youtube.Comment) model.Comment {
	var snippet *youtube.CommentSnippet
	if reply != nil {
		snippet = reply.Snippet
	}
	return FormatComment(snippet, 0, true)
}

// FormatComment builds a normalized comment from a snippet. Missing values
// become null or zero; an unparseable publishedAt is passed through as-is.
func FormatComment(snippet *youtube.CommentSnippet, totalReplies int64, isReply bool) model.Comment {
	if isReply {
		totalReplies = 0
	}
	comment := model.Comment{
		TotalReplies: totalReplies,
		Replies:      []model.Comment{},
	}
	if snippet == nil {
		return comment
	}

	comment.Author = optional(snippet.AuthorDisplayName)
	comment.Text = optional(snippet.TextDisplay)
	comment.Likes = snippet.LikeCount
	comment.Date = formatDate(snippet.PublishedAt)
	return comment
}

func formatDate(raw string) string {
	published, err := time.Parse(publishedAtLayout, raw)
	if err != nil {
		return raw
	}
	return published.Format(displayDateLayout)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
