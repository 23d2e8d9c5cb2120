package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/strata/strata/internal/engine"
)

// persistedConfig is the JSON structure stored in ~/.strata/config.json.
type persistedConfig struct {
	Engine string `json:"engine,omitempty"` // "leveldb", "sqlite", "memory"
	Dir    string `json:"dir,omitempty"`    // Data directory override
}

// configFilePath returns the path to config.json.
func configFilePath() string {
	base := os.Getenv("STRATA_DATA")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		base = filepath.Join(home, ".strata")
	}
	return filepath.Join(base, "config.json")
}

// loadConfig reads config.json if it exists. A missing file is not an
// error; a malformed one is.
func loadConfig() (*persistedConfig, error) {
	path := configFilePath()
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}

	var cfg persistedConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %q: %w", path, err)
	}
	return &cfg, nil
}

// engineKind resolves the backend: STRATA_ENGINE beats config.json beats
// the leveldb default.
func engineKind(cfg *persistedConfig) string {
	if kind := os.Getenv("STRATA_ENGINE"); kind != "" {
		return kind
	}
	if cfg != nil && cfg.Engine != "" {
		return cfg.Engine
	}
	return engine.KindLevelDB
}

// dataDir resolves the data directory: explicit argument beats config.json
// beats ~/.strata/data.
func dataDir(args []string, cfg *persistedConfig) string {
	if len(args) > 0 {
		return args[0]
	}
	if cfg != nil && cfg.Dir != "" {
		return cfg.Dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "strata-data"
	}
	return filepath.Join(home, ".strata", "data")
}
