// Package cmd provides the oraclectl commands.
package cmd

import (
	"context"
	"fmt"

	"distance-oracle/internal/app"
	"distance-oracle/internal/config"
	"distance-oracle/internal/platform/obs"

	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "oraclectl",
	Short: "Query the distance oracle from the command line",
	Long: `oraclectl resolves distances through the same cache and routing provider
the server uses. Configuration is read from .env and the environment.

Examples:
  oraclectl resolve --from 13.405,52.52 --to 13.7373,51.0504
  oraclectl resolve --from 13.405,52.52 --to 13.7373,51.0504 --rate 0.4
  oraclectl prewarm --point 13.405,52.52 --point 13.7373,51.0504`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(prewarmCmd)
}

// newApp loads configuration and wires the oracle. Logs go to stderr.
func newApp(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	level := "warn"
	if verbose {
		level = "debug"
	}
	logger, err := obs.NewLogger(level, "console")
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	return app.New(ctx, cfg, logger, nil)
}
