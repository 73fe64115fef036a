// Package config loads the optional per-user configuration file consumed by
// the sintel CLI.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/sintelhq/go-sintel/pkg/logging"
)

// FileName is the configuration file looked up in the user's home directory.
const FileName = ".sintel"

// Config mirrors the configuration file. Every field is optional; CLI flags
// take precedence over file values.
type Config struct {
	APIKey     string `json:"api_key"`
	Scheme     string `json:"scheme"`
	Host       string `json:"host"`
	Port       int    `json:"port"`
	APIVersion string `json:"version"`

	ProxyScheme   string            `json:"proxy_scheme"`
	ProxyHost     string            `json:"proxy_host"`
	ProxyPort     int               `json:"proxy_port"`
	ProxyUsername string            `json:"proxy_username"`
	ProxyPassword string            `json:"proxy_password"`
	ProxyHeaders  map[string]string `json:"proxy_headers"`

	// Timeouts in seconds, matching the connection profile phases.
	TimeoutTotal   int `json:"total"`
	TimeoutConnect int `json:"connect"`
	TimeoutHeader  int `json:"header"`
}

// Path returns the configuration file location.
func Path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, FileName), nil
}

// Load reads the configuration file. A missing file yields an empty config;
// a malformed one is logged and also yields an empty config, so a broken
// file never blocks the CLI.
func Load() Config {
	path, err := Path()
	if err != nil {
		return Config{}
	}
	return LoadFile(path)
}

// LoadFile reads a configuration file from an explicit path.
func LoadFile(path string) Config {
	logger := logging.NewLogger("config")

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Error().Err(err).Str("path", path).Msg("failed to read configuration file")
		}
		return Config{}
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		logger.Error().Err(err).Str("path", path).Msg("failed to parse configuration file")
		return Config{}
	}
	return cfg
}
