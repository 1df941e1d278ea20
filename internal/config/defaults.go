package config

import (
	"strings"
	"time"
)

// DefaultHistoryLimit is the history page size used by the history panel.
const DefaultHistoryLimit = 10

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = "http://localhost:8000"
	}
	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")
	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = 120 * time.Second
	}
	if cfg.History.Limit <= 0 {
		cfg.History.Limit = DefaultHistoryLimit
	}
	if cfg.History.SnapshotPath == "" {
		cfg.History.SnapshotPath = ".local/share/bunka/history.db"
	}
	if cfg.UI.Host == "" {
		cfg.UI.Host = "localhost"
	}
	if cfg.UI.Port == 0 {
		cfg.UI.Port = 8090
	}
	if cfg.Analyze.DefaultLanguage == "" {
		cfg.Analyze.DefaultLanguage = "en"
	}
}
