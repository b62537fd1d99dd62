// Package config loads shopcli settings from the environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is prepended to every variable name, e.g. SHOPCLI_API_URL.
const EnvPrefix = "SHOPCLI"

const (
	EnvAPIURL      = "SHOPCLI_API_URL"
	EnvAPIToken    = "SHOPCLI_API_TOKEN"
	EnvUserID      = "SHOPCLI_USER_ID"
	EnvHTTPTimeout = "SHOPCLI_HTTP_TIMEOUT"
	EnvLogLevel    = "SHOPCLI_LOG_LEVEL"
	EnvLogFormat   = "SHOPCLI_LOG_FORMAT"
	EnvPageSize    = "SHOPCLI_PAGE_SIZE"
	EnvTokenFile   = "SHOPCLI_TOKEN_FILE"
)

// Config holds settings shared by every command. Flags override it.
type Config struct {
	APIURL    string `envconfig:"API_URL" default:"http://localhost:8080"`
	APIToken  string `envconfig:"API_TOKEN"`
	UserID    string `envconfig:"USER_ID"`
	TokenFile string `envconfig:"TOKEN_FILE"`

	// HTTPTimeout of zero leaves requests bounded only by the context.
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"0s"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"warn"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"console"`

	PageSize int `envconfig:"PAGE_SIZE" default:"12"`
}

// LoadDotEnv reads .env files into the environment without overriding
// variables that are already set. Missing files are ignored.
func LoadDotEnv(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		_ = godotenv.Load(p)
	}
}

// Load parses and validates the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values envconfig cannot.
func (c *Config) Validate() error {
	c.APIURL = strings.TrimRight(strings.TrimSpace(c.APIURL), "/")
	u, err := url.Parse(c.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s must be an absolute URL, got %q", EnvAPIURL, c.APIURL)
	}
	if c.HTTPTimeout < 0 {
		return errors.New(EnvHTTPTimeout + " must not be negative")
	}
	if c.PageSize < 0 {
		return errors.New(EnvPageSize + " must not be negative")
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "console":
	default:
		return fmt.Errorf("%s must be json or console, got %q", EnvLogFormat, c.LogFormat)
	}
	c.APIToken = strings.TrimSpace(c.APIToken)
	c.UserID = strings.TrimSpace(c.UserID)
	return nil
}
