package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/tendant/cultural-index/pkg/culturalindex"
	"github.com/tendant/cultural-index/pkg/culturalindex/metrics"
	"github.com/tendant/cultural-index/pkg/culturalindex/seed"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:               "8080",
		Environment:        "development",
		EnableEventLogging: true,
		EnableMetrics:      true,
		LogLevel:           "info",
		LogFormat:          "json",
	}
}

// ServerConfig represents configuration for a cultural index host.
// The env-default tags mirror defaults().
type ServerConfig struct {
	Port        string `yaml:"port" env:"PORT" env-default:"8080"`
	Environment string `yaml:"environment" env:"ENVIRONMENT" env-default:"development"` // development, production, testing

	// APIKeySHA256 guards mutating routes when non-empty
	APIKeySHA256 string `yaml:"api_key_sha256" env:"API_KEY_SHA256"`

	// Notifications
	EnableEventLogging bool `yaml:"enable_event_logging" env:"ENABLE_EVENT_LOGGING" env-default:"true"`
	EnableMetrics      bool `yaml:"enable_metrics" env:"ENABLE_METRICS" env-default:"true"`
	EventBufferSize    int  `yaml:"event_buffer_size" env:"EVENT_BUFFER_SIZE"` // 0 delivers events synchronously

	// SeedFile is a YAML file of pieces and votes applied at startup
	SeedFile string `yaml:"seed_file" env:"SEED_FILE"`

	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`   // debug, info, warn, error
	LogFormat string `yaml:"log_format" env:"LOG_FORMAT" env-default:"json"` // json, text
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	if c.EventBufferSize < 0 {
		return errors.New("event_buffer_size cannot be negative")
	}

	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}

	if c.LogFormat != "json" && c.LogFormat != "text" {
		return fmt.Errorf("log_format must be 'json' or 'text', got: %s", c.LogFormat)
	}

	return nil
}

// IsDevelopment reports whether the host runs in development mode
func (c *ServerConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// Logger creates a structured logger writing to w according to LogLevel and LogFormat.
func (c *ServerConfig) Logger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}
	if c.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// Runtime holds an index built from configuration together with the
// resources that must be released on shutdown.
type Runtime struct {
	Index culturalindex.Index
	Async *culturalindex.AsyncEventSink // nil when events are delivered synchronously
}

// Close flushes pending asynchronous events.
func (r *Runtime) Close() error {
	if r.Async == nil {
		return nil
	}
	return r.Async.Close()
}

// BuildIndex creates an Index from the server configuration. Metrics are
// registered with registry when enabled and registry is non-nil. The seed
// file, if configured, is applied before BuildIndex returns.
func (c *ServerConfig) BuildIndex(ctx context.Context, logger *slog.Logger, registry prometheus.Registerer) (*Runtime, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var sinks culturalindex.MultiSink
	if c.EnableEventLogging {
		sinks = append(sinks, culturalindex.NewLoggingEventSink(logger))
	}
	if c.EnableMetrics && registry != nil {
		sinks = append(sinks, metrics.New(registry))
	}

	rt := &Runtime{}
	var sink culturalindex.EventSink = sinks
	if c.EventBufferSize > 0 {
		rt.Async = culturalindex.NewAsyncEventSink(sinks, c.EventBufferSize, logger)
		sink = rt.Async
	}

	rt.Index = culturalindex.New(
		culturalindex.WithEventSink(sink),
		culturalindex.WithLogger(logger),
	)

	if c.EnableMetrics && registry != nil {
		metrics.PieceCountGauge(registry, rt.Index)
	}

	if c.SeedFile != "" {
		s, err := seed.Load(c.SeedFile)
		if err != nil {
			_ = rt.Close()
			return nil, fmt.Errorf("failed to load seed: %w", err)
		}
		res := s.Apply(ctx, rt.Index)
		logger.Info("Seed applied",
			"file", c.SeedFile,
			"pieces", len(res.PieceIDs),
			"votes_accepted", res.VotesAccepted,
			"votes_rejected", res.VotesRejected)
	}

	return rt, nil
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("log_level must be one of debug, info, warn, error, got: %s", s)
	}
}
