// Copyright (c) 2025 Lakechat
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"lakechat/cli/internal/backend"
	"lakechat/cli/internal/chat"
	"lakechat/cli/internal/history"
	"lakechat/cli/internal/httperrors"
	"lakechat/cli/internal/keychain"
	"lakechat/cli/internal/render"
	"lakechat/cli/internal/terminal"
)

var (
	askSession     string
	askFormat      string
	askNoHistory   bool
	askShowQueries bool
	askTimeout     time.Duration
)

// askCmd sends one question and renders streamed progress and the answer.
var askCmd = &cobra.Command{
	Use:   "ask <question...>",
	Short: "Ask a question about your data",
	Long: `The ask command sends a question to the data service and shows live progress
while the service classifies it, runs SQL and writes the answer.

Pass --session with the id printed after an answer to ask a follow-up; prior
turns of that session are sent as context unless --no-history is set.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		question := strings.TrimSpace(strings.Join(args, " "))
		if question == "" {
			return errors.New("empty question")
		}

		token, err := keychain.ResolveToken()
		if err != nil {
			e.log.Warn("could not read API token", e.log.Args("error", err))
		}

		callTimeout := e.cfg.Backend.CallTimeout
		if askTimeout > 0 {
			callTimeout = askTimeout
		}
		format := e.cfg.Backend.Format
		if askFormat != "" {
			format = askFormat
		}

		req := chat.ChatRequest{Message: question, SessionID: askSession, OutputFormat: format}.Normalize()

		var store history.Store
		if !askNoHistory {
			store, err = history.Open(cmd.Context(), e.cfg.History.DSN, e.log)
			if err != nil {
				e.log.Warn("history unavailable, continuing without it", e.log.Args("error", err))
			} else {
				defer store.Close()
				if askSession != "" {
					req.History, err = store.Load(cmd.Context(), req.SessionID, e.cfg.History.Limit)
					if err != nil {
						e.log.Warn("could not load history", e.log.Args("session", req.SessionID, "error", err))
					}
				}
			}
		}

		client := backend.New(backend.Options{
			BaseURL:     e.cfg.Backend.BaseURL,
			Token:       token,
			UserAgent:   userAgent(),
			CallTimeout: callTimeout,
			Transport: backend.TransportConfig{
				ConnectTimeout:        e.cfg.Backend.ConnectTimeout,
				TLSHandshakeTimeout:   e.cfg.Backend.TLSHandshakeTimeout,
				ResponseHeaderTimeout: e.cfg.Backend.ResponseHeaderTimeout,
			},
			Retry: backend.RetryPolicy{
				MaxAttempts: e.cfg.Backend.MaxAttempts,
				BaseBackoff: e.cfg.Backend.BaseBackoff,
				MaxBackoff:  e.cfg.Backend.MaxBackoff,
			},
			Logger: e.log,
		})

		res, err := runAsk(cmd.Context(), client, req, os.Stderr)
		if err != nil {
			httperrors.Present(os.Stderr, "asking "+httperrors.ExtractHostFromURL(e.cfg.Backend.BaseURL), err)
			return reportedError{err}
		}

		render.Result(cmd.OutOrStdout(), res, askShowQueries)

		if store != nil {
			if err := store.Append(cmd.Context(), res.SessionID, history.Turn(question, res)...); err != nil {
				e.log.Warn("could not save history", e.log.Args("session", res.SessionID, "error", err))
			}
		}
		return nil
	},
}

// runAsk streams one request while the progress renderer is live on out.
// The spinner is only drawn when out itself is a terminal.
func runAsk(ctx context.Context, api backend.API, req chat.ChatRequest, out *os.File) (*chat.ChatStreamResult, error) {
	progress := render.NewProgress(out, terminal.IsTerminal(out))
	progress.Start()
	defer progress.Stop()
	return api.StreamChat(ctx, req, progress.Update)
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askSession, "session", "s", "", "Continue an existing session")
	askCmd.Flags().StringVar(&askFormat, "format", "", "Answer format requested from the service (default from config)")
	askCmd.Flags().BoolVar(&askNoHistory, "no-history", false, "Neither send nor record conversation history")
	askCmd.Flags().BoolVarP(&askShowQueries, "show-queries", "q", false, "Print executed SQL and result rows")
	askCmd.Flags().DurationVar(&askTimeout, "timeout", 0, "Overall time limit for the question (default from config)")
}
