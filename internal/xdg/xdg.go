// Package xdg resolves XDG Base Directory paths for lakechat.
// Directories fall back to the traditional ~/.config and ~/.local/state
// locations when the XDG variables are unset, and are created private.
package xdg

import (
	"os"
	"path/filepath"
)

const appName = "lakechat"

// ConfigDir returns the XDG config directory for lakechat, creating it with
// 0700 permissions if missing.
func ConfigDir() (string, error) {
	return appDir("XDG_CONFIG_HOME", ".config")
}

// StateDir returns the XDG state directory for lakechat, creating it with
// 0700 permissions if missing. Conversation history lives here.
func StateDir() (string, error) {
	return appDir("XDG_STATE_HOME", filepath.Join(".local", "state"))
}

func appDir(env, fallback string) (string, error) {
	base := os.Getenv(env)
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, fallback)
	}
	dir := filepath.Join(base, appName)
	if err := os.MkdirAll(dir, 0o700); err != nil { // private dir
		return "", err
	}
	return dir, nil
}
