// Copyright (c) 2025 Lakechat
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package cmd provides the command-line interface for the Lakechat CLI.
// It implements subcommands for asking questions, managing the API token,
// conversation history and configuration using the Cobra CLI framework.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"lakechat/cli/internal/config"
	"lakechat/cli/internal/logging"
)

var (
	showVersion bool
	logLevel    string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "lakechat",
	Short: "Ask questions about your data lake from the terminal",
	Long: `Lakechat sends natural-language questions to the Lakechat data service and
streams back progress while it plans and runs SQL, then prints the answer.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			fmt.Fprintf(cmd.OutOrStdout(), "lakechat %s\n", Version)
			return nil
		}
		return cmd.Help()
	},
}

// Execute runs the CLI application. Interrupts cancel the running command's
// context so in-flight requests stop promptly.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		if !isReported(err) {
			fmt.Fprintln(os.Stderr, logging.PresentError("error", err))
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "Show CLI version information")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (trace, debug, info, warn, error, off)")
}

// env bundles what most commands need.
type env struct {
	cfg config.Config
	log *pterm.Logger
}

// loadEnv reads config and builds the logger. --log-level wins over config
// and LAKECHAT_LOG_LEVEL.
func loadEnv() (env, error) {
	cfg, err := config.Load()
	if err != nil {
		return env{}, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return env{}, fmt.Errorf("invalid config: %w", err)
	}
	return env{cfg: cfg, log: logging.New(cfg.LogLevel, os.Stderr)}, nil
}

// reportedError marks an error that has already been shown to the user.
type reportedError struct{ err error }

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

func isReported(err error) bool {
	_, ok := err.(reportedError)
	return ok
}
