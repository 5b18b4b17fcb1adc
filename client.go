package escrud

import (
	"context"
	"fmt"
	"net/url"
	"reflect"
	"sync"

	"github.com/escrud/escrud.go/internal/codec"
	"github.com/escrud/escrud.go/pkg/bulk"
	"github.com/escrud/escrud.go/pkg/connection"
	httpcon "github.com/escrud/escrud.go/pkg/connection/http"
	"github.com/escrud/escrud.go/pkg/constants"
	"github.com/escrud/escrud.go/pkg/logger"
	"github.com/escrud/escrud.go/pkg/mapping"
	"github.com/escrud/escrud.go/pkg/metrics"
)

type Routing = bulk.Routing

// Client queues bulk operations and runs single document requests against one
// engine. It is safe for concurrent use.
type Client struct {
	transport connection.Transport
	registry  *mapping.Registry
	builder   *bulk.Builder
	marshaler codec.Marshaler
	logger    logger.Logger
	metrics   metrics.Metrics

	mu      sync.Mutex
	pending []bulk.Item

	// flushMu keeps flushes from sending the same queued items twice.
	flushMu sync.Mutex
}

type Option func(*Client)

func WithRegistry(r *mapping.Registry) Option {
	return func(c *Client) {
		c.registry = r
	}
}

func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

func WithMetrics(m metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithMarshaler sets the body encoding of Index requests.
func WithMarshaler(m codec.Marshaler) Option {
	return func(c *Client) {
		c.marshaler = m
	}
}

// FromTransport creates a client on an existing transport without checking
// that the engine is reachable.
func FromTransport(t connection.Transport, opts ...Option) *Client {
	c := &Client{
		transport: t,
		registry:  mapping.NewRegistry(),
		marshaler: codec.NewJSON(),
		logger:    logger.Nop{},
		metrics:   metrics.NoOp{},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.builder = bulk.NewBuilder(c.registry, c.logger)
	return c
}

// New creates a client over HTTP from conf.
func New(conf *connection.Config, opts ...Option) (*Client, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	base := []Option{WithMarshaler(conf.Marshaler)}
	if conf.Logger != nil {
		base = append(base, WithLogger(conf.Logger))
	}
	if conf.Metrics != nil {
		base = append(base, WithMetrics(conf.Metrics))
	}
	return FromTransport(httpcon.New(conf), append(base, opts...)...), nil
}

// FromConnection creates a client on con after connecting it.
func FromConnection(ctx context.Context, con connection.Connection, opts ...Option) (*Client, error) {
	if err := con.Connect(ctx); err != nil {
		return nil, err
	}
	return FromTransport(con, opts...), nil
}

// FromEndpointURLString creates a client for an endpoint such as
// "http://localhost:9200" and checks that the engine answers.
func FromEndpointURLString(ctx context.Context, connectionURL string, opts ...Option) (*Client, error) {
	u, err := url.ParseRequestURI(connectionURL)
	if err != nil {
		return nil, err
	}

	scheme := u.Scheme
	if scheme != constants.HTTPScheme && scheme != constants.HTTPSecureScheme {
		return nil, fmt.Errorf("invalid connection url scheme %q, expected http or https", scheme)
	}

	conf := connection.NewConfig(u)
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return FromConnection(ctx, httpcon.New(conf), append([]Option{
		WithMarshaler(conf.Marshaler),
		WithLogger(conf.Logger),
		WithMetrics(conf.Metrics),
	}, opts...)...)
}

// Close releases the transport when it holds resources.
func (c *Client) Close(ctx context.Context) error {
	if con, ok := c.transport.(connection.Connection); ok {
		return con.Close(ctx)
	}
	return nil
}

// Registry returns the strategies used by this client. Registrations take
// effect for the next write or read.
func (c *Client) Registry() *mapping.Registry {
	return c.registry
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// names resolves the strategy and names of t.
func (c *Client) names(t reflect.Type) (s mapping.Strategy, index, docType string) {
	s = c.registry.Resolve(t)
	return s, s.IndexName(t), s.DocumentType(t)
}

func (c *Client) send(ctx context.Context, req *connection.Request) (*connection.Response, error) {
	return c.transport.Send(ctx, req)
}
