package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"tracerank/internal/config"
	"tracerank/internal/logging"
	"tracerank/internal/version"
)

var (
	rootDir   string
	logFormat string
	logLevel  string
	debugFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "tracerank",
	Short: "tracerank - statistical fault localization from execution traces",
	Long: `tracerank ranks candidate program locations by how well they explain a set of
failing executions, using best-first search over the nodes (or edges) recorded in
labeled traces, and scores the ranking against the known faulty lines.`,
	Version:       version.Info(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate(version.Full() + "\n")
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", ".", "Directory holding .tracerank/ (config and run history)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: human or json (default: from config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error, silent (default: from config)")
	rootCmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false, "Print every terminal candidate (same as --log-level=debug)")
}

// loadConfig loads and validates the configuration under --root.
func loadConfig() *config.Config {
	cfg, err := config.LoadConfig(rootDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// mustValidate exits when the effective configuration is invalid.
func mustValidate(cfg *config.Config) {
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newLogger builds the logger from config, overridden by the log flags.
// Logs go to stderr so stdout stays parseable.
func newLogger(cfg *config.Config) *logging.Logger {
	format, err := logging.ParseFormat(firstNonEmpty(logFormat, cfg.Logging.Format))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	level, err := logging.ParseLevel(firstNonEmpty(logLevel, cfg.Logging.Level))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if debugFlag {
		level = logging.DebugLevel
	}
	return logging.NewLogger(logging.Config{
		Format: format,
		Level:  level,
		Output: os.Stderr,
	})
}

// newContext returns a context cancelled on SIGINT or SIGTERM.
func newContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
