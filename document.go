package escrud

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/escrud/escrud.go/pkg/async"
	"github.com/escrud/escrud.go/pkg/bulk"
	"github.com/escrud/escrud.go/pkg/constants"
	"github.com/escrud/escrud.go/pkg/docwriter"
	"github.com/escrud/escrud.go/pkg/mapping"
	"github.com/escrud/escrud.go/pkg/metrics"
	"github.com/escrud/escrud.go/pkg/result"
)

// Get reads the T document with id.
func Get[T any](ctx context.Context, c *Client, id string, opts ...RequestOption) (*T, error) {
	t := typeOf[T]()
	s, index, docType := c.names(t)

	res, err := c.send(ctx, newRequest(http.MethodGet, docPath(index, docType, id), opts))
	if err != nil {
		return nil, err
	}

	doc, err := result.Get(res.StatusCode, res.Body, s, t, result.Key{Index: index, Type: docType, ID: id})
	if err != nil {
		if result.IsNotFound(err) {
			c.metrics.Increment(metrics.GetMiss, "index", index)
		}
		c.logger.Debug("get failed", "index", index, "type", docType, "id", id, "error", err)
		return nil, err
	}
	c.metrics.Increment(metrics.GetHit, "index", index)

	entity, ok := doc.Source.(*T)
	if !ok {
		return nil, fmt.Errorf("%w: strategy for %s returned %T", constants.ErrInvalidResponse, t, doc.Source)
	}
	return entity, nil
}

// GetAsync runs Get in the background.
func GetAsync[T any](ctx context.Context, c *Client, id string, opts ...RequestOption) *async.Future[*T] {
	return async.Go(ctx, func(ctx context.Context) (*T, error) {
		return Get[T](ctx, c, id, opts...)
	})
}

// Exists reports whether the T document with id is stored.
func Exists[T any](ctx context.Context, c *Client, id string, opts ...RequestOption) (bool, error) {
	_, index, docType := c.names(typeOf[T]())

	res, err := c.send(ctx, newRequest(http.MethodHead, docPath(index, docType, id), opts))
	if err != nil {
		return false, err
	}
	return result.Exists(res.StatusCode, res.Body)
}

// Index writes entity as the T document with id, replacing any previous
// version. The body is encoded with the client's marshaler.
func Index[T any](ctx context.Context, c *Client, entity *T, id string, opts ...RequestOption) error {
	if entity == nil {
		return constants.ErrNilEntity
	}
	s, index, docType := c.names(typeOf[T]())
	if err := bulk.CheckIndexName(index, docType); err != nil {
		return err
	}

	body, err := c.encode(s, entity)
	if err != nil {
		return err
	}

	req := newRequest(http.MethodPut, docPath(index, docType, id), opts)
	req.Body = body
	req.ContentType = c.marshaler.ContentType()

	res, err := c.send(ctx, req)
	if err != nil {
		return err
	}
	if err := result.CheckStatus(res.StatusCode, res.Body); err != nil {
		c.logger.Warn("index failed", "index", index, "type", docType, "id", id, "error", err)
		return err
	}
	c.logger.Debug("indexed", "index", index, "type", docType, "id", id, "status", res.StatusCode)
	return nil
}

// encode writes entity with s. JSON bodies are streamed directly; any other
// encoding goes through a generic tree handed to the marshaler.
func (c *Client) encode(s mapping.Strategy, entity any) ([]byte, error) {
	if c.marshaler.ContentType() == constants.ContentTypeJSON {
		w := docwriter.NewJSONWriter()
		if err := s.WriteEntity(w, entity, mapping.Guard{}); err != nil {
			return nil, err
		}
		return w.Bytes()
	}

	w := docwriter.NewTreeWriter()
	if err := s.WriteEntity(w, entity, mapping.Guard{}); err != nil {
		return nil, err
	}
	tree, err := w.Tree()
	if err != nil {
		return nil, err
	}
	return c.marshaler.Marshal(tree)
}

// Delete removes the T document with id. A missing document is reported as
// *NotFoundError.
func Delete[T any](ctx context.Context, c *Client, id string, opts ...RequestOption) error {
	_, index, docType := c.names(typeOf[T]())

	res, err := c.send(ctx, newRequest(http.MethodDelete, docPath(index, docType, id), opts))
	if err != nil {
		return err
	}
	if res.StatusCode == http.StatusNotFound {
		return &constants.NotFoundError{Index: index, Type: docType, ID: id}
	}
	return result.CheckStatus(res.StatusCode, res.Body)
}

// IsNotFound reports whether err means the document does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, constants.ErrNotFound)
}
