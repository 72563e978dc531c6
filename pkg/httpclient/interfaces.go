package httpclient

import "context"

// Response is a minimal HTTP response contract.
type Response interface {
	Body() []byte
	StatusCode() int
	// Status is the full status line, e.g. "404 Not Found".
	Status() string
}

// Request describes a single outgoing call. Body is sent as-is when non-nil.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

// Client abstracts HTTP calls so callers can inject mocks or different transports.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (Response, error)
	Do(ctx context.Context, req Request) (Response, error)
}
