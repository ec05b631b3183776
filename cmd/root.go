// Package cmd implements the ticket-improver CLI using Cobra.
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"ticket_content_improver/config"
	"ticket_content_improver/logging"
)

var (
	flagConfig   string
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:   "ticket-improver",
	Short: "Rewrite ticket descriptions and acceptance criteria with an LLM",
	Long: `ticket-improver sends a ticket's description and acceptance criteria to a
chat-completion model and returns the improved text with every original
image preserved exactly once.

Usage:
  ticket-improver serve [flags]
  ticket-improver improve --file ticket.yaml [flags]`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file (json or yaml)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
}

// loadConfig reads config and applies the log level before anything logs.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	level := cfg.Log.Level
	if flagLogLevel != "" {
		level = flagLogLevel
	}
	logging.Setup(os.Stderr, logging.Level(level))
	return cfg, nil
}
