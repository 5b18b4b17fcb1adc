package escrud

import (
	"context"
	"fmt"
	"net/http"
	"slices"

	"github.com/goccy/go-json"

	"github.com/escrud/escrud.go/pkg/bulk"
	"github.com/escrud/escrud.go/pkg/connection"
	"github.com/escrud/escrud.go/pkg/constants"
	"github.com/escrud/escrud.go/pkg/metrics"
	"github.com/escrud/escrud.go/pkg/result"
)

// Hit is one search result.
type Hit[T any] struct {
	Index  string
	Type   string
	ID     string
	Score  float64
	Source *T
}

type SearchResult[T any] struct {
	Took     int64
	Total    int64
	ScrollID string
	Hits     []Hit[T]
}

// Entities returns the hit sources in order.
func (r *SearchResult[T]) Entities() []*T {
	out := make([]*T, 0, len(r.Hits))
	for _, h := range r.Hits {
		out = append(out, h.Source)
	}
	return out
}

func (c *Client) query(ctx context.Context, method, path, query string, opts []RequestOption) (int, []byte, error) {
	req := newRequest(method, path, opts)
	if query != "" {
		req.Body = []byte(query)
		req.ContentType = constants.ContentTypeJSON
	}
	res, err := c.send(ctx, req)
	if err != nil {
		return 0, nil, err
	}
	return res.StatusCode, res.Body, nil
}

// Search runs query, a JSON search body, against the T index and type. An
// empty query matches every document.
func Search[T any](ctx context.Context, c *Client, query string, opts ...RequestOption) (*SearchResult[T], error) {
	t := typeOf[T]()
	s, index, docType := c.names(t)

	status, body, err := c.query(ctx, http.MethodPost, "/"+index+"/"+docType+"/_search", query, opts)
	if err != nil {
		return nil, err
	}
	parsed, err := result.Search(status, body, s, t)
	if err != nil {
		c.logger.Warn("search failed", "index", index, "type", docType, "error", err)
		return nil, err
	}
	return searchResult[T](c, index, parsed)
}

func searchResult[T any](c *Client, index string, parsed *result.SearchResult) (*SearchResult[T], error) {
	res := &SearchResult[T]{
		Took:     parsed.Took,
		Total:    parsed.Total,
		ScrollID: parsed.ScrollID,
		Hits:     make([]Hit[T], 0, len(parsed.Hits)),
	}
	for _, doc := range parsed.Hits {
		entity, ok := doc.Source.(*T)
		if !ok {
			return nil, fmt.Errorf("%w: strategy for %s returned %T", constants.ErrInvalidResponse, typeOf[T](), doc.Source)
		}
		res.Hits = append(res.Hits, Hit[T]{
			Index:  doc.Index,
			Type:   doc.Type,
			ID:     doc.ID,
			Score:  doc.Score,
			Source: entity,
		})
	}
	c.metrics.Add(metrics.SearchHits, float64(len(res.Hits)), "index", index)
	return res, nil
}

// Scroll fetches the next page of a search opened with WithScroll and keeps
// the scroll alive for keepAlive. The last page has no hits.
func Scroll[T any](ctx context.Context, c *Client, scrollID, keepAlive string, opts ...RequestOption) (*SearchResult[T], error) {
	t := typeOf[T]()
	s, index, _ := c.names(t)

	body, err := json.Marshal(map[string]string{"scroll": keepAlive, "scroll_id": scrollID})
	if err != nil {
		return nil, err
	}
	status, raw, err := c.query(ctx, http.MethodPost, "/_search/scroll", string(body), opts)
	if err != nil {
		return nil, err
	}
	parsed, err := result.Search(status, raw, s, t)
	if err != nil {
		c.logger.Warn("scroll failed", "index", index, "error", err)
		return nil, err
	}
	return searchResult[T](c, index, parsed)
}

// ClearScroll releases a scroll context before it expires. Clearing a scroll
// the engine no longer knows is not an error.
func (c *Client) ClearScroll(ctx context.Context, scrollID string) error {
	body, err := json.Marshal(map[string][]string{"scroll_id": {scrollID}})
	if err != nil {
		return err
	}
	status, raw, err := c.query(ctx, http.MethodDelete, "/_search/scroll", string(body), nil)
	if err != nil {
		return err
	}
	return result.ClearScroll(status, raw)
}

// SearchByID finds the T document with id through the search endpoint, which
// unlike Get does not need the parent of a child document.
func SearchByID[T any](ctx context.Context, c *Client, id string, opts ...RequestOption) (*T, error) {
	ids, err := json.Marshal(map[string]any{
		"query": map[string]any{
			"ids": map[string]any{"values": []string{id}},
		},
	})
	if err != nil {
		return nil, err
	}

	res, err := Search[T](ctx, c, string(ids), opts...)
	if err != nil {
		return nil, err
	}
	if len(res.Hits) == 0 {
		_, index, docType := c.names(typeOf[T]())
		return nil, &constants.NotFoundError{Index: index, Type: docType, ID: id}
	}
	return res.Hits[0].Source, nil
}

// Count returns the number of T documents matching query. An empty query
// counts every document.
func Count[T any](ctx context.Context, c *Client, query string, opts ...RequestOption) (int64, error) {
	_, index, docType := c.names(typeOf[T]())

	status, body, err := c.query(ctx, http.MethodPost, "/"+index+"/"+docType+"/_count", query, opts)
	if err != nil {
		return 0, err
	}
	return result.Count(status, body)
}

// SearchExists reports whether any T document matches query. The engine stops
// at the first match and no hits are fetched.
func SearchExists[T any](ctx context.Context, c *Client, query string, opts ...RequestOption) (bool, error) {
	opts = append(slices.Clip(opts), WithSize(0), func(r *connection.Request) {
		setQuery(r, "terminate_after", "1")
	})
	res, err := Search[T](ctx, c, query, opts...)
	if err != nil {
		return false, err
	}
	return res.Total > 0, nil
}

type DeleteByQueryResult = result.DeleteByQueryResult

// DeleteByQuery removes every T document matching query. An empty query
// deletes all of them.
func DeleteByQuery[T any](ctx context.Context, c *Client, query string, opts ...RequestOption) (*DeleteByQueryResult, error) {
	_, index, docType := c.names(typeOf[T]())
	if err := bulk.CheckIndexName(index, docType); err != nil {
		return nil, err
	}
	if query == "" {
		query = `{"query":{"match_all":{}}}`
	}

	status, body, err := c.query(ctx, http.MethodPost, "/"+index+"/"+docType+"/_delete_by_query", query, opts)
	if err != nil {
		return nil, err
	}
	res, err := result.DeleteByQuery(status, body)
	if err != nil {
		c.logger.Warn("delete by query failed", "index", index, "type", docType, "error", err)
		return nil, err
	}
	c.logger.Debug("deleted by query", "index", index, "type", docType, "deleted", res.Deleted, "failed", len(res.Failures))
	return res, nil
}
