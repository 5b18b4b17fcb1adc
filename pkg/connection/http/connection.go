// Package http is the net/http implementation of connection.Transport.
package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gofrs/uuid"

	"github.com/escrud/escrud.go/pkg/connection"
	"github.com/escrud/escrud.go/pkg/constants"
	"github.com/escrud/escrud.go/pkg/logger"
	"github.com/escrud/escrud.go/pkg/metrics"
)

type Connection struct {
	BaseURL  string
	Username string
	Password string

	httpClient *http.Client
	logger     logger.Logger
	metrics    metrics.Metrics
}

func New(p *connection.Config) *Connection {
	con := Connection{
		BaseURL:    p.BaseURL,
		Username:   p.Username,
		Password:   p.Password,
		httpClient: p.HTTPClient,
		logger:     p.Logger,
		metrics:    p.Metrics,
	}

	if con.httpClient == nil {
		timeout := p.Timeout
		if timeout <= 0 {
			timeout = constants.DefaultHTTPTimeout
		}
		con.httpClient = &http.Client{Timeout: timeout}
	}
	if con.logger == nil {
		con.logger = logger.Nop{}
	}
	if con.metrics == nil {
		con.metrics = metrics.NoOp{}
	}

	return &con
}

// Connect checks that the engine answers on its root endpoint.
func (c *Connection) Connect(ctx context.Context) error {
	res, err := c.Send(ctx, &connection.Request{Method: http.MethodGet, Path: "/"})
	if err != nil {
		return err
	}
	if res.StatusCode >= 300 {
		return &constants.StatusError{StatusCode: res.StatusCode, Description: string(res.Body)}
	}
	return nil
}

func (c *Connection) Close(ctx context.Context) error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *Connection) SetTimeout(timeout time.Duration) *Connection {
	c.httpClient.Timeout = timeout
	return c
}

func (c *Connection) SetHTTPClient(client *http.Client) *Connection {
	c.httpClient = client
	return c
}

func (c *Connection) Send(ctx context.Context, r *connection.Request) (*connection.Response, error) {
	if c.BaseURL == "" {
		return nil, constants.ErrNoBaseURL
	}

	target := c.BaseURL + r.Path
	if len(r.Query) > 0 {
		target += "?" + r.Query.Encode()
	}

	var body io.Reader = http.NoBody
	if r.Body != nil {
		body = bytes.NewReader(r.Body)
	}
	req, err := http.NewRequestWithContext(ctx, r.Method, target, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", constants.ContentTypeJSON)
	if r.Body != nil {
		contentType := r.ContentType
		if contentType == "" {
			contentType = constants.ContentTypeJSON
		}
		req.Header.Set("Content-Type", contentType)
	}
	if c.Username != "" {
		req.SetBasicAuth(c.Username, c.Password)
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	req.Header.Set(constants.OpaqueIDHeader, id.String())

	return c.MakeRequest(req)
}

// MakeRequest runs req and reads the whole answer.
func (c *Connection) MakeRequest(req *http.Request) (*connection.Response, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.Increment(metrics.RequestTotal, "method", req.Method, "status", "error")
		c.logger.Warn("request failed", "method", req.Method, "url", req.URL.Redacted(), "error", err)
		return nil, &constants.TransportError{Method: req.Method, URL: req.URL.Redacted(), Err: err}
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.Increment(metrics.RequestTotal, "method", req.Method, "status", "error")
		c.logger.Warn("reading response failed", "method", req.Method, "url", req.URL.Redacted(), "status", resp.StatusCode, "error", err)
		return nil, &constants.TransportError{Method: req.Method, URL: req.URL.Redacted(), Err: fmt.Errorf("reading body: %w", err)}
	}

	elapsed := time.Since(start)
	c.metrics.Increment(metrics.RequestTotal, "method", req.Method, "status", strconv.Itoa(resp.StatusCode))
	c.metrics.Timing(metrics.RequestLatency, elapsed, "method", req.Method)
	c.logger.Debug("request",
		"method", req.Method,
		"url", req.URL.Redacted(),
		"status", resp.StatusCode,
		"opaque_id", req.Header.Get(constants.OpaqueIDHeader),
		"elapsed", elapsed,
	)

	return &connection.Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       respBytes,
	}, nil
}
