package config

import (
	"os"
	"path/filepath"
)

const appDir = "stundenplan"

// XDGConfigHome returns $XDG_CONFIG_HOME or ~/.config.
func XDGConfigHome() string {
	return xdgHome("XDG_CONFIG_HOME", ".config")
}

// XDGDataHome returns $XDG_DATA_HOME or ~/.local/share.
func XDGDataHome() string {
	return xdgHome("XDG_DATA_HOME", ".local", "share")
}

// xdgHome falls back to the working directory when no home is known.
func xdgHome(env string, fallback ...string) string {
	if v := os.Getenv(env); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(append([]string{home}, fallback...)...)
}

// DefaultDBPath returns the sqlite database used by `stundenplan serve`.
func DefaultDBPath() string {
	return filepath.Join(XDGDataHome(), appDir, "stundenplan.db")
}

// DefaultSessionPath returns where the client keeps its bearer token.
func DefaultSessionPath() string {
	return filepath.Join(XDGDataHome(), appDir, "session.json")
}

// DefaultConfigPath returns the TOML config path.
func DefaultConfigPath() string {
	return filepath.Join(XDGConfigHome(), appDir, "config.toml")
}
