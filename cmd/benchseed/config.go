package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// envPrefix is the prefix of every environment variable the CLI reads.
const envPrefix = "BENCHSEED"

// settings is the process configuration, read from BENCHSEED_* variables.
type settings struct {
	// Store selects where the status label and run cursors live:
	// memory, sqlite, postgres, redis or mongo.
	Store string `envconfig:"STORE" default:"sqlite"`

	// DSN is the PostgreSQL connection string for Store=postgres.
	DSN string `envconfig:"DSN"`

	RedisAddr   string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPrefix string `envconfig:"REDIS_PREFIX" default:"benchseed:"`

	MongoURI string `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
	MongoDB  string `envconfig:"MONGO_DB" default:"benchseed"`

	// SiteDSN is the SQLite database holding the site. With Store=sqlite
	// it also holds the status label and cursors.
	SiteDSN  string `envconfig:"SITE_DSN" default:"file:benchseed.db"`
	HashCost int    `envconfig:"HASH_COST"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`

	CallRate      float64       `envconfig:"CALL_RATE"`
	RetryAttempts int           `envconfig:"RETRY_ATTEMPTS" default:"3"`
	RetryBackoff  time.Duration `envconfig:"RETRY_BACKOFF" default:"1s"`

	// MetricsAddr, when set, serves Prometheus metrics on /metrics.
	MetricsAddr string `envconfig:"METRICS_ADDR"`
}

func loadSettings() (settings, error) {
	var s settings
	if err := envconfig.Process(envPrefix, &s); err != nil {
		return s, fmt.Errorf("failed to load config from env: %w", err)
	}

	s.Store = strings.ToLower(s.Store)
	switch s.Store {
	case "memory", "sqlite", "postgres", "redis", "mongo":
	default:
		return s, fmt.Errorf("unknown store %q", s.Store)
	}
	if s.Store == "postgres" && s.DSN == "" {
		return s, fmt.Errorf("%s_DSN is required for the postgres store", envPrefix)
	}
	return s, nil
}

// newLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func newLogger(s settings, w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s.LogLevel)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", s.LogLevel, err)
	}
	opts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(s.LogFormat) {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	}
	return nil, fmt.Errorf("invalid log format %q", s.LogFormat)
}
