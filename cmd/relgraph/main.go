// Package main provides the entry point for the relgraph CLI application.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	version      = "0.1.0-dev"
	globalGraph  string
	logLevel     string
	metricsFile  string
	globalLogger = slog.Default()
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	rootCmd := &cobra.Command{
		Use:           "relgraph",
		Short:         "Manage typed links between content entities",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(logLevel)
			if err != nil {
				return err
			}
			globalLogger = logger
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&globalGraph, "graph", "g", "", "Named graph to write to (default: store.graph)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics to this file on exit")

	rootCmd.AddCommand(
		newInitCmd(),
		newLinkCmd(),
		newUnlinkCmd(),
		newLinksCmd(),
		newLinkedCmd(),
		newAncestorsCmd(),
		newImportCmd(),
		newExportCmd(),
		newTypesCmd(),
		newRelationCmd(),
		newGraphsCmd(),
	)

	return rootCmd.ExecuteContext(ctx)
}

// newLogger builds the stderr text logger for the given level name.
func newLogger(level string) (*slog.Logger, error) {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "info":
		l = slog.LevelInfo
	case "warn", "":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		return nil, fmt.Errorf("invalid --log-level %q (valid: debug, info, warn, error)", level)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})), nil
}
