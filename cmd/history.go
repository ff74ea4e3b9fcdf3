// Copyright (c) 2025 Lakechat
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"lakechat/cli/internal/chat"
	"lakechat/cli/internal/history"
	"lakechat/cli/internal/terminal"
)

var historySession string

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show or clear conversation history of a session",
}

var historyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the recorded turns of a session",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		store, err := openHistory(cmd.Context(), e)
		if err != nil {
			return err
		}
		defer store.Close()

		msgs, err := store.Load(cmd.Context(), historySession, 0)
		if err != nil {
			return err
		}
		if len(msgs) == 0 {
			pterm.Info.Printfln("No history for session %s", historySession)
			return nil
		}
		printHistory(msgs)
		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the recorded turns of a session",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		store, err := openHistory(cmd.Context(), e)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Clear(cmd.Context(), historySession); err != nil {
			return err
		}
		pterm.Success.Printfln("Cleared history for session %s", historySession)
		return nil
	},
}

// openHistory opens the configured store, with a spinner while a remote
// database is being reached.
func openHistory(ctx context.Context, e env) (history.Store, error) {
	if e.cfg.History.DSN == "" || !terminal.IsTerminal(os.Stderr) {
		return history.Open(ctx, e.cfg.History.DSN, e.log)
	}
	stop := startInlineSpinner(os.Stderr, "connecting to history database", spinnerFrames, 120*time.Millisecond)
	defer stop()
	return history.Open(ctx, e.cfg.History.DSN, e.log)
}

func printHistory(msgs []chat.ConversationMessage) {
	user := pterm.NewStyle(pterm.FgLightCyan, pterm.Bold)
	assistant := pterm.NewStyle(pterm.FgLightGreen, pterm.Bold)
	for _, m := range msgs {
		switch m.Role {
		case chat.RoleUser:
			pterm.Println(user.Sprint("you: ") + m.Content)
		default:
			pterm.Println(assistant.Sprint("lakechat: ") + strings.TrimSpace(m.Content))
			for _, q := range m.ExecutedQueries {
				pterm.Println(pterm.Gray("  " + q))
			}
		}
		pterm.Println()
	}
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyShowCmd, historyClearCmd)
	historyCmd.PersistentFlags().StringVarP(&historySession, "session", "s", "", "Session id")
	_ = historyCmd.MarkPersistentFlagRequired("session")
}
