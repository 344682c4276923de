package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

// WithEnv reads the configuration from environment variables (see the env
// tags on ServerConfig). An unset variable leaves a non-zero field alone and
// resets a zero field to its env-default, so apply WithEnv before
// programmatic overrides.
func WithEnv() Option {
	return func(c *ServerConfig) error {
		if err := cleanenv.ReadEnv(c); err != nil {
			return fmt.Errorf("failed to read environment: %w", err)
		}
		return nil
	}
}

// WithFile reads a YAML configuration file, then environment overrides.
// Like WithEnv, it should precede programmatic overrides.
func WithFile(path string) Option {
	return func(c *ServerConfig) error {
		if path == "" {
			return fmt.Errorf("config file path cannot be empty")
		}
		if err := cleanenv.ReadConfig(path, c); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		return nil
	}
}

// WithPort sets the server port
func WithPort(port string) Option {
	return func(c *ServerConfig) error {
		if port == "" {
			return fmt.Errorf("port cannot be empty")
		}
		c.Port = port
		return nil
	}
}

// WithEnvironment sets the environment (development, production, testing)
func WithEnvironment(env string) Option {
	return func(c *ServerConfig) error {
		if env == "" {
			return fmt.Errorf("environment cannot be empty")
		}
		c.Environment = env
		return nil
	}
}

// WithAPIKeySHA256 requires the API key with the given SHA-256 hex digest on mutating routes
func WithAPIKeySHA256(digest string) Option {
	return func(c *ServerConfig) error {
		c.APIKeySHA256 = digest
		return nil
	}
}

// WithEventLogging enables or disables the logging event sink
func WithEventLogging(enabled bool) Option {
	return func(c *ServerConfig) error {
		c.EnableEventLogging = enabled
		return nil
	}
}

// WithMetrics enables or disables Prometheus metrics
func WithMetrics(enabled bool) Option {
	return func(c *ServerConfig) error {
		c.EnableMetrics = enabled
		return nil
	}
}

// WithEventBuffer delivers events asynchronously through a buffer of the given size.
// Zero restores synchronous delivery.
func WithEventBuffer(size int) Option {
	return func(c *ServerConfig) error {
		if size < 0 {
			return fmt.Errorf("event buffer size cannot be negative, got: %d", size)
		}
		c.EventBufferSize = size
		return nil
	}
}

// WithSeedFile applies the given YAML seed file when the index is built
func WithSeedFile(path string) Option {
	return func(c *ServerConfig) error {
		c.SeedFile = path
		return nil
	}
}

// WithLogLevel sets the log level (debug, info, warn, error)
func WithLogLevel(level string) Option {
	return func(c *ServerConfig) error {
		if _, err := parseLevel(level); err != nil {
			return err
		}
		c.LogLevel = level
		return nil
	}
}

// WithLogFormat sets the log format (json, text)
func WithLogFormat(format string) Option {
	return func(c *ServerConfig) error {
		if format != "json" && format != "text" {
			return fmt.Errorf("log format must be 'json' or 'text', got: %s", format)
		}
		c.LogFormat = format
		return nil
	}
}
