package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/railguard-ai/railguard/internal/config"
	"github.com/railguard-ai/railguard/internal/guardrail/builtin"
	"github.com/railguard-ai/railguard/internal/observability"
)

var (
	configFile string
	logLevel   string
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:   "railguard",
	Short: "Railguard - Guardrail evaluation pipeline for LLM traffic",
	Long: `Railguard evaluates configurable guardrail pipelines against LLM
requests and responses, and intercepts realtime voice sessions to apply
the same guardrails to live transcripts.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command with signal handling.
func Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "railguard.yaml", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: text, json (overrides config)")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(realtimeCmd)
	rootCmd.AddCommand(policiesCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadRuntime loads the configuration, builds the guardrail runtime, and
// constructs the process logger. Flag overrides win over the config file.
func loadRuntime() (*config.Runtime, *slog.Logger, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, err
	}

	level := cfg.Logging.Level
	if logLevel != "" {
		level = logLevel
	}
	format := cfg.Logging.Format
	if logFormat != "" {
		format = logFormat
	}
	logger := observability.NewLogger(os.Stderr, level, format)

	rt, err := config.Build(cfg, builtin.Options{})
	if err != nil {
		return nil, nil, err
	}
	return rt, logger, nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println("railguard v0.1.0")
	},
}
