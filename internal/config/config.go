// Package config provides configuration loading and structs for the bunka client.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file settings.
const (
	EnvAPIURL       = "BUNKA_API_URL"
	EnvLegacyAPIURL = "VITE_API_URL"
	EnvHistoryLimit = "BUNKA_HISTORY_LIMIT"
	EnvDebug        = "BUNKA_DEBUG"
)

// Config holds all configuration for the application.
type Config struct {
	Debug   bool          `yaml:"debug"`
	API     APIConfig     `yaml:"api"`
	History HistoryConfig `yaml:"history"`
	UI      UIConfig      `yaml:"ui"`
	Analyze AnalyzeConfig `yaml:"analyze"`
}

// APIConfig holds settings for the remote analysis service.
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// HistoryConfig holds history panel settings.
type HistoryConfig struct {
	// Limit is the page size requested from GET /api/history.
	Limit int `yaml:"limit"`
	// SnapshotPath is the sqlite file holding the last fetched history list.
	SnapshotPath string `yaml:"snapshot_path"`
}

// UIConfig holds settings for the local browser UI.
type UIConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr returns host:port.
func (u UIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", u.Host, u.Port)
}

// AnalyzeConfig holds form defaults.
type AnalyzeConfig struct {
	DefaultLanguage string `yaml:"default_language"`
}

// Load reads and parses the config file at path, applies environment
// overrides and defaults, and expands paths.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := ApplyEnv(&cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.History.SnapshotPath = expandPath(cfg.History.SnapshotPath, configDir)

	return &cfg, nil
}

// FromEnv builds a config from defaults and environment only, for when no
// config file exists.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := ApplyEnv(&cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(&cfg)
	cfg.History.SnapshotPath = expandPath(cfg.History.SnapshotPath, ".")
	return &cfg, nil
}

// LoadDotEnv loads .env from the working directory if present. Variables
// already set in the process environment win.
func LoadDotEnv() {
	_ = godotenv.Load()
}

// ApplyEnv overrides cfg with environment variables.
func ApplyEnv(cfg *Config) error {
	if v := os.Getenv(EnvAPIURL); v != "" {
		cfg.API.BaseURL = v
	} else if v := os.Getenv(EnvLegacyAPIURL); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv(EnvHistoryLimit); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvHistoryLimit, v, err)
		}
		cfg.History.Limit = n
	}
	if v := os.Getenv(EnvDebug); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvDebug, v, err)
		}
		cfg.Debug = b
	}
	return nil
}

// Save writes the config to path, creating parent directories.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
