package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/tendant/cultural-index/pkg/culturalindex"
	"github.com/tendant/cultural-index/pkg/culturalindex/seed"
)

func demoCommand() *cobra.Command {
	var seedFile string
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Upload sample pieces, cast votes and print the resulting weights",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			logger := commonRun(cfg)

			s := seed.Default()
			if seedFile != "" {
				if s, err = seed.Load(seedFile); err != nil {
					return err
				}
			}

			idx := culturalindex.New(
				culturalindex.WithLogger(logger),
				culturalindex.WithHooks(culturalindex.LoggingHook(logger)),
			)
			return runDemo(cmd.Context(), idx, s, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	cmd.Flags().StringVarP(&seedFile, "seed", "s", "", "YAML seed file, defaults to the built-in sample")
	return cmd
}

func runDemo(ctx context.Context, idx culturalindex.Index, s *seed.Seed, out, errOut io.Writer) error {
	res := s.Apply(ctx, idx)
	for _, err := range res.Rejections {
		fmt.Fprintln(errOut, "rejected:", err)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(idx.ListPieces())
}
