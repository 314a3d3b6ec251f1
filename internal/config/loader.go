package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"ravend/pkg/types"
)

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and will be replaced by defaults in main.
type Config struct {
	Addr      string `json:"addr" yaml:"addr" toml:"addr"`
	ModelsDir string `json:"models_dir" yaml:"models_dir" toml:"models_dir"`

	// Ledger retention cap (total records kept; oldest pruned first).
	LedgerCap int `json:"ledger_cap" yaml:"ledger_cap" toml:"ledger_cap"`
	// Scoring window over the most recent records per model.
	HistoryWindow int `json:"history_window" yaml:"history_window" toml:"history_window"`
	// Optional path for ledger snapshot persistence.
	LedgerPath string `json:"ledger_path" yaml:"ledger_path" toml:"ledger_path"`

	// Scoring weights; zero values fall back to selector defaults.
	StaticFitWeight  float64 `json:"static_fit_weight" yaml:"static_fit_weight" toml:"static_fit_weight"`
	HistoryWeight    float64 `json:"history_weight" yaml:"history_weight" toml:"history_weight"`
	PreferenceWeight float64 `json:"preference_weight" yaml:"preference_weight" toml:"preference_weight"`

	// Initial user preferences; zero value means package defaults.
	Preferences types.Preferences `json:"preferences" yaml:"preferences" toml:"preferences"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}
