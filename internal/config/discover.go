package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EnvConfig names the variable that pins the config file location.
const EnvConfig = "TRACKARR_CONFIG"

// DefaultPath is the per-user config location under $XDG_CONFIG_HOME,
// or ~/.config when that is unset.
func DefaultPath() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "config.toml"
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "trackarr", "config.toml")
}

// SearchPaths lists the locations Discover tries, in order.
func SearchPaths() []string {
	return []string{"config.toml", DefaultPath(), "/etc/trackarr/config.toml"}
}

// Discover returns the config file to use. $TRACKARR_CONFIG wins and must
// exist; otherwise the first existing entry of SearchPaths is used.
func Discover() (string, error) {
	if p := os.Getenv(EnvConfig); p != "" {
		if _, err := os.Stat(p); err != nil {
			return "", fmt.Errorf("%s=%s: %w", EnvConfig, p, err)
		}
		return p, nil
	}

	paths := SearchPaths()
	for _, p := range paths {
		_, err := os.Stat(p)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("check %s: %w", p, err)
		}
	}
	return "", fmt.Errorf("no config file found (tried %s); run `trackarr init`", strings.Join(paths, ", "))
}
