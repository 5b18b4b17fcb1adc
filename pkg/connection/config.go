package connection

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/escrud/escrud.go/internal/codec"
	"github.com/escrud/escrud.go/pkg/constants"
	"github.com/escrud/escrud.go/pkg/logger"
	"github.com/escrud/escrud.go/pkg/metrics"
)

const (
	EnvURL         = "ESCRUD_URL"
	EnvUsername    = "ESCRUD_USERNAME"
	EnvPassword    = "ESCRUD_PASSWORD"
	EnvTimeout     = "ESCRUD_TIMEOUT"
	EnvContentType = "ESCRUD_CONTENT_TYPE"
)

type Config struct {
	URL     url.URL
	BaseURL string

	Username string
	Password string

	Timeout    time.Duration
	HTTPClient *http.Client

	// Marshaler and Unmarshaler encode single-document bodies. Bulk bodies are
	// always newline-delimited JSON.
	Marshaler           codec.Marshaler
	Unmarshaler         codec.Unmarshaler
	DocumentContentType string

	Logger  logger.Logger
	Metrics metrics.Metrics
}

// NewConfig creates a new Config for the engine endpoint specified by the URL,
// such as "http://localhost:9200". Credentials in the URL become the basic
// auth user and password.
// It is not absolutely necessary to create a Config using this function,
// but it is recommended to use this function to ensure that everything needed
// for the connection is set up correctly.
func NewConfig(u *url.URL) *Config {
	c := codec.NewJSON()
	conf := &Config{
		URL:                 *u,
		BaseURL:             fmt.Sprintf("%s://%s%s", u.Scheme, u.Host, strings.TrimSuffix(u.Path, "/")),
		Timeout:             constants.DefaultHTTPTimeout,
		Marshaler:           c,
		Unmarshaler:         c,
		DocumentContentType: c.ContentType(),
		Logger:              logger.New(slog.NewTextHandler(os.Stdout, nil)),
		Metrics:             metrics.NoOp{},
	}
	if u.User != nil {
		conf.Username = u.User.Username()
		conf.Password, _ = u.User.Password()
	}
	return conf
}

// ConfigFromEnv builds a Config from the ESCRUD_* environment variables.
func ConfigFromEnv() (*Config, error) {
	u, err := url.ParseRequestURI(GetEnvOrDefault(EnvURL, constants.DefaultBaseURL))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", EnvURL, err)
	}
	conf := NewConfig(u)

	conf.Username = GetEnvOrDefault(EnvUsername, conf.Username)
	conf.Password = GetEnvOrDefault(EnvPassword, conf.Password)

	if v := GetEnvOrDefault(EnvTimeout, ""); v != "" {
		if conf.Timeout, err = time.ParseDuration(v); err != nil {
			return nil, fmt.Errorf("%s: %w", EnvTimeout, err)
		}
	}

	if err := conf.UseContentType(GetEnvOrDefault(EnvContentType, constants.ContentTypeJSON)); err != nil {
		return nil, fmt.Errorf("%s: %w", EnvContentType, err)
	}
	return conf, nil
}

// UseContentType switches the single-document codec.
func (c *Config) UseContentType(contentType string) error {
	cd, err := codec.ForContentType(contentType)
	if err != nil {
		return fmt.Errorf("%w: %q", err, contentType)
	}
	c.Marshaler = cd
	c.Unmarshaler = cd
	c.DocumentContentType = cd.ContentType()
	return nil
}

// Validate reports the first missing setting a connection needs.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return constants.ErrNoBaseURL
	}
	if c.Marshaler == nil {
		return constants.ErrNoMarshaler
	}
	if c.Unmarshaler == nil {
		return constants.ErrNoUnmarshaler
	}
	return nil
}

func GetEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	return value
}
