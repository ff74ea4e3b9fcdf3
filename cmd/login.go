// Copyright (c) 2025 Lakechat
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"lakechat/cli/internal/keychain"
	"lakechat/cli/internal/terminal"
)

var loginToken string

// loginCmd stores an API token in the OS keychain.
var loginCmd = &cobra.Command{
	Use:     "login",
	Aliases: []string{"auth"},
	Short:   "Store an API token for the data service",
	Long: `The login command saves an API token in the OS keychain so later commands
can authenticate. Without --token the token is read from a hidden prompt.

Set LAKECHAT_API_TOKEN instead when no keychain is available.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		token := strings.TrimSpace(loginToken)
		if token == "" {
			if !terminal.IsTerminal(os.Stdin) {
				return errors.New("no terminal to prompt on; pass --token")
			}
			prompt := "API token: "
			var err error
			token, err = terminal.ReadSecret(os.Stdout, os.Stdin, prompt)
			if err != nil {
				return err
			}
			terminal.ClearPreviousLines(os.Stdout, len(prompt), terminal.Width(os.Stdout))
			token = strings.TrimSpace(token)
		}
		if token == "" {
			return errors.New("empty API token")
		}

		km, err := keychain.GetManager()
		if err != nil {
			fmt.Println("❌ Secure storage is not available on this system.")
			fmt.Printf("   Set %s instead.\n", keychain.EnvAPIToken)
			return reportedError{err}
		}
		if err := km.SaveToken(token); err != nil {
			fmt.Println("❌ Failed to save the API token securely.")
			return reportedError{err}
		}

		fmt.Println("✅ API token saved")
		if os.Getenv(keychain.EnvAPIToken) != "" {
			fmt.Printf("   Note: %s is set and takes precedence.\n", keychain.EnvAPIToken)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	loginCmd.Flags().StringVar(&loginToken, "token", "", "API token to store (prompted when omitted)")
}
