// Package testenv sets up clients for tests and examples.
//
// When ESCRUD_URL is set the client talks to that engine. Otherwise an
// in-process fake engine is started for the lifetime of the client.
package testenv

import (
	"context"
	"fmt"
	"os"

	escrud "github.com/escrud/escrud.go"
	"github.com/escrud/escrud.go/internal/fakees"
	"github.com/escrud/escrud.go/pkg/connection"
	httpcon "github.com/escrud/escrud.go/pkg/connection/http"
)

// Env is a client together with whatever it needs torn down.
type Env struct {
	Client *escrud.Client

	// Fake is nil when the client talks to a real engine.
	Fake *fakees.Server
}

// New connects a client using the ESCRUD_* variables, falling back to a fake
// engine when ESCRUD_URL is empty.
func New(ctx context.Context, opts ...escrud.Option) (*Env, error) {
	if os.Getenv(connection.EnvURL) != "" {
		conf, err := connection.ConfigFromEnv()
		if err != nil {
			return nil, err
		}
		c, err := escrud.FromConnection(ctx, httpcon.New(conf), withConfig(conf, opts)...)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to %s: %w", conf.BaseURL, err)
		}
		return &Env{Client: c}, nil
	}

	srv := fakees.NewServer().Start()
	c, err := escrud.FromEndpointURLString(ctx, srv.URL(), opts...)
	if err != nil {
		srv.Close()
		return nil, err
	}
	return &Env{Client: c, Fake: srv}, nil
}

// MustNew is New that panics.
func MustNew(opts ...escrud.Option) *Env {
	env, err := New(context.Background(), opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to set up test environment: %v", err))
	}
	return env
}

// Close closes the client and stops the fake engine if one was started.
func (e *Env) Close() {
	_ = e.Client.Close(context.Background())
	if e.Fake != nil {
		e.Fake.Close()
	}
}

func withConfig(conf *connection.Config, opts []escrud.Option) []escrud.Option {
	return append([]escrud.Option{
		escrud.WithMarshaler(conf.Marshaler),
		escrud.WithLogger(conf.Logger),
		escrud.WithMetrics(conf.Metrics),
	}, opts...)
}
