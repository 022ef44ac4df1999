package fetcher

import (
	"comment-service/model"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"

	"google.golang.org/api/googleapi"
)

const (
	msgUpstreamRejected = "YouTube API returned an error. Check the API key and its permissions."
	msgTransportFailure = "Could not reach the YouTube API. Check the network connection."
	msgInternalFailure  = "An unexpected error occurred on the server."
)

// FetchError is a fetch failure classified by kind.
type FetchError struct {
	Kind         model.ErrorKind
	ResponseBody map[string]any
	Err          error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Failure converts the error into the envelope returned to callers.
func (e *FetchError) Failure() model.FetchFailure {
	return model.FetchFailure{
		Kind:         e.Kind,
		Message:      messageFor(e.Kind),
		Detail:       e.Err.Error(),
		ResponseBody: e.ResponseBody,
	}
}

// classify sorts an upstream call error into rejection, transport or
// internal failure.
func classify(err error) *FetchError {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return &FetchError{
			Kind:         model.KindUpstreamRejected,
			ResponseBody: parseBody(apiErr.Body),
			Err:          err,
		}
	}

	var urlErr *url.Error
	var netErr net.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) ||
		errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &FetchError{Kind: model.KindTransportFailure, Err: err}
	}

	return &FetchError{Kind: model.KindInternalFailure, Err: err}
}

func parseBody(body string) map[string]any {
	if body == "" {
		return nil
	}
	var parsed map[string]any
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		return nil
	}
	return parsed
}

func messageFor(kind model.ErrorKind) string {
	switch kind {
	case model.KindUpstreamRejected:
		return msgUpstreamRejected
	case model.KindTransportFailure:
		return msgTransportFailure
	default:
		return msgInternalFailure
	}
}
