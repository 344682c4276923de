package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/tendant/cultural-index/pkg/culturalindex/config"
)

const (
	programName = "culturalindex"
)

var (
	globalFlags = struct {
		debug bool
	}{}
	configFile string
)

// loadConfig reads the config file when one is given, otherwise the environment.
func loadConfig() (*config.ServerConfig, error) {
	opts := []config.Option{config.WithEnv()}
	if configFile != "" {
		opts = []config.Option{config.WithFile(configFile)}
	}
	if globalFlags.debug {
		opts = append(opts, config.WithLogLevel("debug"))
	}
	return config.Load(opts...)
}

// commonRun installs the configured logger as the default.
func commonRun(cfg *config.ServerConfig) *slog.Logger {
	logger := cfg.Logger(os.Stdout).With("component", programName)
	slog.SetDefault(logger)
	return logger
}

func main() {
	rootCmd := &cobra.Command{
		Use:   programName,
		Short: "Registry of content pieces with weighted voting",
	}

	// Global flags
	rootCmd.PersistentFlags().
		BoolVarP(&globalFlags.debug, "debug", "D", false, "enable debug logging")
	rootCmd.PersistentFlags().
		StringVar(&configFile, "config", "", "path to config file")

	// Subcommands
	rootCmd.AddCommand(serveCommand())
	rootCmd.AddCommand(demoCommand())

	if err := rootCmd.Execute(); err != nil {
		// cobra has already printed the error
		os.Exit(1)
	}
}
