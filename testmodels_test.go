package escrud_test

import (
	"context"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	escrud "github.com/escrud/escrud.go"
	"github.com/escrud/escrud.go/internal/fakees"
	"github.com/escrud/escrud.go/pkg/connection"
	"github.com/escrud/escrud.go/pkg/logger"
	"github.com/escrud/escrud.go/pkg/metrics"
)

type Skill struct {
	ID          int64
	Name        string
	Description string
	Created     time.Time
}

type Parent struct {
	ID       int64
	Name     string
	Children []*Child
}

type Child struct {
	ID     int64
	Desc   string
	Parent *Parent
}

func newParent() *Parent {
	p := &Parent{ID: 7, Name: "cool"}
	p.Children = []*Child{{ID: 1, Desc: "rr", Parent: p}, {ID: 3, Desc: "eee", Parent: p}}
	return p
}

// newTestClient starts a fake engine and a client talking to it over HTTP.
func newTestClient(t *testing.T, opts ...escrud.Option) (*escrud.Client, *fakees.Server, *metrics.InMemory) {
	t.Helper()

	srv := fakees.NewServer().Start()
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL())
	require.NoError(t, err)

	m := metrics.NewInMemory()
	conf := connection.NewConfig(u)
	conf.Logger = logger.Nop{}
	conf.Metrics = m

	c, err := escrud.New(conf, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close(context.Background()) })
	return c, srv, m
}

// recordingTransport answers every request with the same response and keeps
// what was sent.
type recordingTransport struct {
	mu       sync.Mutex
	requests []*connection.Request
	status   int
	body     string
	err      error
}

func (r *recordingTransport) Send(_ context.Context, req *connection.Request) (*connection.Response, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, req)
	if r.err != nil {
		return nil, r.err
	}
	return &connection.Response{StatusCode: r.status, Body: []byte(r.body)}, nil
}

func (r *recordingTransport) sent() []*connection.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*connection.Request(nil), r.requests...)
}
