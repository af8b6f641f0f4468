package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetDefaults returns telcd's default paths, checking environment variables first.
// The base directory holds the exam database (db/telcd.db) and the server log
// (log/telcd.log).
// Environment variables:
//   - TELC_CONFIG_PATH: telcd.toml location (default: ~/.config/telcd.toml)
//   - TELC_HOME: base directory for the database and logs (default: ~/.local/share/telcd)
func GetDefaults() (map[string]string, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"log_dir":     filepath.Join(baseDir, "log"),
	}, nil
}

// getConfigPath returns the config file path, checking TELC_CONFIG_PATH env var first,
// then falling back to the default ~/.config/telcd.toml.
func getConfigPath() (string, error) {
	if path := os.Getenv("TELC_CONFIG_PATH"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "telcd.toml"), nil
}

// getBaseDir returns the directory holding the exam database and logs, checking
// TELC_HOME first, then falling back to the XDG default ~/.local/share/telcd.
func getBaseDir() (string, error) {
	if path := os.Getenv("TELC_HOME"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "telcd"), nil
}
