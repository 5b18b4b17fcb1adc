package escrud

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"slices"
	"strconv"
	"time"

	"github.com/escrud/escrud.go/pkg/async"
	"github.com/escrud/escrud.go/pkg/bulk"
	"github.com/escrud/escrud.go/pkg/connection"
	"github.com/escrud/escrud.go/pkg/constants"
	"github.com/escrud/escrud.go/pkg/metrics"
	"github.com/escrud/escrud.go/pkg/result"
)

type BulkItem = result.BulkItem

// BatchResult is the engine's answer to a flush.
type BatchResult struct {
	Status int
	// Description is the raw response body.
	Description string
	Took        int64
	// Errors is true when at least one item failed.
	Errors bool
	Items  []BulkItem
}

// Failed returns the items the engine did not apply.
func (r *BatchResult) Failed() []BulkItem {
	var failed []BulkItem
	for _, item := range r.Items {
		if item.Failed() {
			failed = append(failed, item)
		}
	}
	return failed
}

// Enqueue queues entity to be indexed under id on the next Flush. routing may
// be nil.
func (c *Client) Enqueue(entity any, id string, routing *Routing) error {
	if entity == nil {
		return constants.ErrNilEntity
	}
	if v := reflect.ValueOf(entity); v.Kind() == reflect.Pointer && v.IsNil() {
		return constants.ErrNilEntity
	}
	item := bulk.NewIndexItem(entity, id, routing)
	c.push(item)
	c.logger.Debug("enqueued", "op", item.Op.String(), "type", item.Type.String(), "id", id)
	return nil
}

// EnqueueDelete queues the deletion of the T document with id.
func EnqueueDelete[T any](c *Client, id string, routing *Routing) {
	item := bulk.NewDeleteItem(typeOf[T](), id, routing)
	c.push(item)
	c.logger.Debug("enqueued", "op", item.Op.String(), "type", item.Type.String(), "id", id)
}

func (c *Client) push(item bulk.Item) {
	c.mu.Lock()
	c.pending = append(c.pending, item)
	n := len(c.pending)
	c.mu.Unlock()

	c.metrics.Gauge(metrics.PendingItems, float64(n))
}

// Pending is the number of queued operations.
func (c *Client) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// ClearPending drops every queued operation.
func (c *Client) ClearPending() {
	c.mu.Lock()
	c.pending = nil
	c.mu.Unlock()

	c.metrics.Gauge(metrics.PendingItems, 0)
}

// dropFlushed removes the first n queued operations, the ones a flush sent.
func (c *Client) dropFlushed(n int) {
	c.mu.Lock()
	n = min(n, len(c.pending))
	c.pending = slices.Clone(c.pending[n:])
	left := len(c.pending)
	c.mu.Unlock()

	c.metrics.Gauge(metrics.PendingItems, float64(left))
}

// Flush sends every queued operation as one bulk request.
//
// The queue is kept when the request could not be built or sent, so a flush
// can be retried after fixing the cause. Once the engine has answered, the
// sent operations leave the queue whatever the answer was.
func (c *Client) Flush(ctx context.Context) (*BatchResult, error) {
	c.flushMu.Lock()
	defer c.flushMu.Unlock()

	start := time.Now()
	defer func() {
		c.metrics.Timing(metrics.FlushDuration, time.Since(start))
	}()

	c.mu.Lock()
	items := slices.Clone(c.pending)
	c.mu.Unlock()

	if len(items) == 0 {
		return &BatchResult{Status: http.StatusOK}, nil
	}

	body, err := c.builder.Build(ctx, items)
	if err != nil {
		reason := "build"
		switch {
		case errors.Is(err, constants.ErrInvalidIndexName):
			reason = "invalid_index"
		case ctx.Err() != nil:
			reason = "canceled"
		}
		c.metrics.Increment(metrics.FlushError, "reason", reason)
		c.logger.Error("flush aborted", "items", len(items), "error", err)
		return nil, err
	}

	res, err := c.send(ctx, &connection.Request{
		Method:      http.MethodPost,
		Path:        "/_bulk",
		Body:        body,
		ContentType: constants.ContentTypeNDJSON,
	})
	if err != nil {
		c.metrics.Increment(metrics.FlushError, "reason", "transport")
		c.logger.Error("flush failed", "items", len(items), "error", err)
		return nil, err
	}
	c.dropFlushed(len(items))

	for _, item := range items {
		c.metrics.Increment(metrics.BulkItems, "operation", item.Op.String())
	}

	parsed, err := result.Bulk(res.StatusCode, res.Body)
	if err != nil {
		c.metrics.Increment(metrics.FlushError, "reason", "status")
		c.logger.Error("flush rejected", "status", res.StatusCode, "error", err)
		return nil, err
	}

	batch := &BatchResult{
		Status:      res.StatusCode,
		Description: string(res.Body),
		Took:        parsed.Took,
		Errors:      parsed.Errors,
		Items:       parsed.Items,
	}

	failed := batch.Failed()
	for _, item := range failed {
		c.metrics.Increment(metrics.BulkItemErrors, "operation", item.Op)
		c.logger.Warn("bulk item failed", "op", item.Op, "index", item.Index, "id", item.ID, "status", item.Status, "error", item.Error)
	}
	c.metrics.Increment(metrics.FlushSuccess, "item_errors", strconv.FormatBool(len(failed) > 0))
	c.logger.Info("flushed", "items", len(items), "failed", len(failed), "took", parsed.Took)

	return batch, nil
}

// FlushAsync runs Flush in the background.
func (c *Client) FlushAsync(ctx context.Context) *async.Future[*BatchResult] {
	return async.Go(ctx, c.Flush)
}
