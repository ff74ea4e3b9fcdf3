// Copyright (c) 2025 Lakechat
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"lakechat/cli/internal/keychain"
)

// logoutCmd removes the stored API token.
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the saved API token",
	RunE: func(cmd *cobra.Command, args []string) error {
		km, err := keychain.GetManager()
		if err != nil {
			return err
		}
		if err := km.ClearToken(); err != nil {
			return err
		}
		fmt.Println("✅ API token removed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}
