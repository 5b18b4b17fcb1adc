package escrud

import (
	"net/url"
	"strconv"

	"github.com/escrud/escrud.go/pkg/connection"
)

// RequestOption adjusts a single document or search request.
type RequestOption func(*connection.Request)

func setQuery(r *connection.Request, key, value string) {
	if r.Query == nil {
		r.Query = url.Values{}
	}
	r.Query.Set(key, value)
}

// WithRouting addresses a child document through its parent.
func WithRouting(routing *Routing) RequestOption {
	return func(r *connection.Request) {
		if routing == nil {
			return
		}
		if routing.Parent != "" {
			setQuery(r, "parent", routing.Parent)
		}
		if routing.Routing != "" {
			setQuery(r, "routing", routing.Routing)
		}
	}
}

// WithRefresh makes a write visible to searches before the request returns.
func WithRefresh() RequestOption {
	return func(r *connection.Request) {
		setQuery(r, "refresh", "true")
	}
}

// WithSize limits the number of hits of a search.
func WithSize(n int) RequestOption {
	return func(r *connection.Request) {
		setQuery(r, "size", strconv.Itoa(n))
	}
}

// WithScroll opens a scroll context kept alive for keepAlive, e.g. "1m".
func WithScroll(keepAlive string) RequestOption {
	return func(r *connection.Request) {
		setQuery(r, "scroll", keepAlive)
	}
}

func docPath(index, docType, id string) string {
	return "/" + url.PathEscape(index) + "/" + url.PathEscape(docType) + "/" + url.PathEscape(id)
}

func newRequest(method, path string, opts []RequestOption) *connection.Request {
	r := &connection.Request{Method: method, Path: path}
	for _, opt := range opts {
		opt(r)
	}
	return r
}
