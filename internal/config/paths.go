package config

import (
	"os"
	"path/filepath"
)

const (
	// EnvConfigPath is the environment variable for explicit config path
	EnvConfigPath = "REMOTETODOS_CONFIG"
	// EnvDatabaseURL overrides the configured backend URL
	EnvDatabaseURL = "DATABASE_URL"
	// ConfigFileName is the default config file name
	ConfigFileName = "remotetodos.yaml"
	// ConfigDirName is the config directory name under XDG
	ConfigDirName = "remotetodos"
)

// FindConfigPath searches for config file in priority order:
// 1. $REMOTETODOS_CONFIG (explicit path)
// 2. ./remotetodos.yaml (working directory)
// 3. $XDG_CONFIG_HOME/remotetodos/config.yaml
// 4. ~/.config/remotetodos/config.yaml
// 5. /etc/remotetodos/config.yaml
//
// Returns empty string if no config file found
func FindConfigPath() string {
	if path := os.Getenv(EnvConfigPath); path != "" && fileExists(path) {
		return path
	}

	if fileExists(ConfigFileName) {
		if abs, err := filepath.Abs(ConfigFileName); err == nil {
			return abs
		}
		return ConfigFileName
	}

	for _, path := range searchPaths() {
		if fileExists(path) {
			return path
		}
	}
	return ""
}

// searchPaths lists the per-user and system locations after the working
// directory
func searchPaths() []string {
	var paths []string
	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		paths = append(paths, filepath.Join(xdgHome, ConfigDirName, "config.yaml"))
	}
	if home := os.Getenv("HOME"); home != "" {
		paths = append(paths, filepath.Join(home, ".config", ConfigDirName, "config.yaml"))
	}
	return append(paths, filepath.Join("/etc", ConfigDirName, "config.yaml"))
}

// EnsureConfigDir creates the config directory if it doesn't exist
func EnsureConfigDir(configPath string) error {
	return os.MkdirAll(filepath.Dir(configPath), 0755)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
