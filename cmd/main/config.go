package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/CTAG07/Runesmith/pkg/runesmith"
	"github.com/natefinch/atomic"
)

// ServerConfig holds the settings of the binary itself: the preview API, the
// output directory and the compile history database.
type ServerConfig struct {
	ApiAddr               string `json:"api_addr"`
	LogLevel              string `json:"log_level"`
	DataDir               string `json:"data_dir"`
	OutDir                string `json:"out_dir"`
	HistoryDatabasePath   string `json:"history_database_path"`
	HistoryRetentionHours int    `json:"history_retention_hours"`
}

// Config is the top-level configuration struct that aggregates all other configs.
type Config struct {
	Server   *ServerConfig     `json:"server_config"`
	Compiler *runesmith.Config `json:"compiler_config"`
}

// DefaultServerConfig creates a server configuration with default values.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		ApiAddr:               "127.0.0.1:7280",
		LogLevel:              "info",
		DataDir:               "./data",
		OutDir:                "./out",
		HistoryDatabasePath:   "./data/runesmith_history.db?_journal_mode=WAL&_busy_timeout=5000",
		HistoryRetentionHours: 24 * 7,
	}
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Server:   DefaultServerConfig(),
		Compiler: runesmith.DefaultConfig(),
	}
}

// LoadConfig reads the configuration from a JSON file at the given path.
// If the file doesn't exist, it creates one with default values. Sections or
// fields missing from the file keep their defaults.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	file, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			var data []byte
			data, err = json.MarshalIndent(config, "", "  ")
			if err != nil {
				return nil, fmt.Errorf("failed to marshal default config: %w", err)
			}
			if err = atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
				// The defaults are still usable without the file.
				fmt.Fprintf(os.Stderr, "warning: failed to write default config file: %v\n", err)
			}
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err = json.Unmarshal(file, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if config.Server == nil {
		config.Server = DefaultServerConfig()
	}
	if config.Compiler == nil {
		config.Compiler = runesmith.DefaultConfig()
	}
	return config, nil
}
