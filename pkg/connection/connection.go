// Package connection carries requests to the search engine.
package connection

import (
	"context"
	"net/http"
	"net/url"
)

// Request is one call to the engine's REST API.
type Request struct {
	Method string
	// Path is relative to the configured base URL, e.g. "/skills/skill/11".
	Path        string
	Query       url.Values
	Body        []byte
	ContentType string
}

type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Transport sends a request and returns the engine's answer whatever its
// status. Only failures below HTTP (dial, TLS, timeouts, cancellation) are
// returned as errors.
type Transport interface {
	Send(ctx context.Context, req *Request) (*Response, error)
}

type Connection interface {
	Transport
	Connect(ctx context.Context) error
	Close(ctx context.Context) error
}
