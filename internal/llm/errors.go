package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"

	openai "github.com/sashabaranov/go-openai"
)

// TransportError means the completion endpoint could not be reached: DNS, connect,
// TLS, or the call deadline expiring.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("llm: %s: transport: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// UpstreamError means the endpoint answered but with an error status or a body that
// carries no usable reply.
type UpstreamError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("llm: %s: upstream status %d: %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("llm: %s: upstream: %s", e.Op, e.Message)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Class names the error family for metrics labels.
func Class(err error) string {
	var transportErr *TransportError
	var upstreamErr *UpstreamError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &transportErr):
		return "transport"
	case errors.As(err, &upstreamErr):
		return "upstream"
	default:
		return "unknown"
	}
}

// classify maps a go-openai client error onto the two error types.
func classify(op string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &UpstreamError{Op: op, StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message, Err: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &UpstreamError{Op: op, StatusCode: reqErr.HTTPStatusCode, Message: reqErr.Error(), Err: err}
	}
	if isTransport(err) {
		return &TransportError{Op: op, Err: err}
	}
	return &UpstreamError{Op: op, Message: err.Error(), Err: err}
}

func isTransport(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
