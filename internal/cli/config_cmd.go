package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/alanmeadows/prwright/internal/config"
	"github.com/spf13/cobra"
	"github.com/tidwall/jsonc"
	"github.com/tidwall/sjson"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage prwright configuration",
	Long:  `Show and modify prwright configuration values.`,
}

var configJSONFlag bool

func init() {
	configShowCmd.Flags().BoolVar(&configJSONFlag, "json", false, "Output raw JSON without formatting")
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show merged configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := appConfig
		if cfg == nil {
			var err error
			cfg, err = config.Load(configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
		}

		redacted := redactConfig(cfg)

		var data []byte
		var err error
		if configJSONFlag {
			data, err = json.Marshal(redacted)
		} else {
			data, err = json.MarshalIndent(redacted, "", "  ")
		}
		if err != nil {
			return fmt.Errorf("marshaling config: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

// redactConfig returns a copy of the config with secret fields masked.
func redactConfig(cfg *config.Config) *config.Config {
	c := *cfg
	if c.ADO.PAT != "" {
		c.ADO.PAT = "***"
	}
	if c.Gemini.APIKey != "" {
		c.Gemini.APIKey = "***"
	}
	return &c
}

// parseValue types a command-line value: bool, then integer, then float,
// then string.
func parseValue(raw string) any {
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}

// setConfigValue writes key=value into the JSONC file at path, creating it
// when missing. Comments are not preserved.
func setConfigValue(path, key string, value any) error {
	existing := []byte("{}")
	if data, err := os.ReadFile(path); err == nil {
		existing = jsonc.ToJSON(data)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("reading config: %w", err)
	}

	updated, err := sjson.SetBytes(existing, key, value)
	if err != nil {
		return fmt.Errorf("setting key %q: %w", key, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, updated, 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value",
	Long: `Set a configuration value using a dotted key path.

The value is written to the file named by --config, or to the user config
(~/.config/prwright/prwright.jsonc) when --config is not set. The file is
created if it does not exist.

Note: JSONC comments are not preserved on write.`,
	Example: `  prwright config set models.primary gemini-2.5-pro
  prwright config set agent.call_threshold 8
  prwright config set ado.pat <token>`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]
		value := parseValue(args[1])

		path := configPath
		if path == "" {
			var err error
			if path, err = config.UserConfigPath(); err != nil {
				return fmt.Errorf("locating user config: %w", err)
			}
		}
		if err := setConfigValue(path, key, value); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Set %s in %s\n", key, path)
		return nil
	},
}
