// Package main provides the fairgate binary entry point. FairGate is a
// submission gateway that validates and enriches metadata records and
// semantic-graph documents before relaying them to the registry, the
// versioned store and the graph-search index.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/c360studio/fairgate/config"
)

const (
	Version = "0.1.0"
	appName = "fairgate"
)

var flagAddr string

func main() {
	rootCmd := &cobra.Command{
		Use:           appName,
		Short:         "Submission gateway for FAIR metadata registries",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	rootCmd.Flags().StringVar(&flagAddr, "addr", "", "listen address (overrides FAIRGATE_ADDR)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s %s\n", appName, Version)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	slog.SetDefault(logger)

	// Local development convenience; production relies on real env vars.
	if err := godotenv.Load(); err == nil {
		logger.Debug("Loaded environment from .env file")
	}

	cfg := config.FromEnv(logger)
	if flagAddr != "" {
		cfg.Server.Addr = flagAddr
	}

	// An incomplete configuration does not stop the server: every request
	// answers with the configuration error until the environment is fixed.
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration incomplete, requests will fail until fixed",
			slog.String("error", err.Error()))
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := NewApp(cfg, logger)
	return app.Run(ctx)
}

// newLogger builds the process logger from FAIRGATE_LOG_LEVEL.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(os.Getenv("FAIRGATE_LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
