package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"github.com/tidwall/jsonc"
)

// UserConfigPath returns the location of the user-level config file.
func UserConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "prwright", "prwright.jsonc"), nil
}

// Load reads and merges configuration.
// Resolution order: defaults → user config (~/.config/prwright/prwright.jsonc)
// → optional override file → environment variables.
func Load(overridePath string) (*Config, error) {
	cfg := DefaultConfig()

	if userPath, err := UserConfigPath(); err == nil {
		if userMap, err := loadJSONC(userPath); err == nil {
			if err := mergeIntoConfig(&cfg, userMap); err != nil {
				return nil, fmt.Errorf("merging user config: %w", err)
			}
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}

	if overridePath != "" {
		overrideMap, err := loadJSONC(overridePath)
		if err != nil {
			return nil, fmt.Errorf("loading config %s: %w", overridePath, err)
		}
		if err := mergeIntoConfig(&cfg, overrideMap); err != nil {
			return nil, fmt.Errorf("merging override config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// loadJSONC reads a JSONC file and returns it as a map.
func loadJSONC(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	jsonData := jsonc.ToJSON(data)
	var m map[string]any
	if err := json.Unmarshal(jsonData, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return m, nil
}

// mergeIntoConfig marshals the config to a map, deep-merges the source map over it,
// then unmarshals back to the Config struct.
func mergeIntoConfig(cfg *Config, src map[string]any) error {
	cfgBytes, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	var dst map[string]any
	if err := json.Unmarshal(cfgBytes, &dst); err != nil {
		return err
	}

	if err := mergo.Merge(&dst, src, mergo.WithOverride); err != nil {
		return err
	}

	merged, err := json.Marshal(dst)
	if err != nil {
		return err
	}
	return json.Unmarshal(merged, cfg)
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) {
	if pat := os.Getenv("PRWRIGHT_ADO_PAT"); pat != "" {
		cfg.ADO.PAT = pat
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		cfg.Gemini.APIKey = key
	}
	// The tool-specific key wins over the generic one.
	if key := os.Getenv("PRWRIGHT_GEMINI_KEY"); key != "" {
		cfg.Gemini.APIKey = key
	}
	if model := os.Getenv("PRWRIGHT_MODEL"); model != "" {
		cfg.Models.Primary = model
	}
}

// Validate reports missing settings required to run a change request.
func (c *Config) Validate() error {
	if c.Gemini.APIKey == "" {
		return fmt.Errorf("no Gemini API key configured (set gemini.api_key or PRWRIGHT_GEMINI_KEY)")
	}
	if c.Models.Primary == "" {
		return fmt.Errorf("no Gemini model selected (set models.primary)")
	}
	if c.Agent.CallThreshold <= 0 {
		return fmt.Errorf("agent.call_threshold must be positive, got %d", c.Agent.CallThreshold)
	}
	return nil
}

// HistoryDir returns the directory holding history entries.
func (c *Config) HistoryDir() string {
	if c.History.Dir != "" {
		return c.History.Dir
	}
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), "prwright", "history")
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "prwright", "history")
}
