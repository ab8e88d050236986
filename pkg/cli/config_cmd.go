package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/getmockd/ramlmock/pkg/cli/internal/output"
	"github.com/getmockd/ramlmock/pkg/config"
)

var (
	configCmdFlags configFlags
	configJSON     bool
)

var configCmd = &cobra.Command{
	Use:   "config [description]",
	Short: "Show the effective configuration",
	Long: `Show the configuration serve would run with and where each value came
from: default, file, env or flag. Takes the same flags as serve.`,
	Example: `  ramlmock config
  RAMLMOCK_PORT=9000 ramlmock config ./api --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)

	addDescriptionFlags(configCmd, &configCmdFlags)
	addServerFlags(configCmd, &configCmdFlags)
	configCmd.Flags().BoolVar(&configJSON, "json", false, "Output in JSON format")
}

// configEntry is one row of the config command.
type configEntry struct {
	Key    string `json:"key"`
	Value  any    `json:"value"`
	Source string `json:"source"`
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args, &configCmdFlags)
	if err != nil {
		return err
	}
	entries, err := configEntries(cfg)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if configJSON {
		if err := output.JSON(out, map[string]any{"configFile": cfg.ConfigFile, "values": entries}); err != nil {
			return err
		}
	} else {
		if cfg.ConfigFile != "" {
			fmt.Fprintf(out, "Config file: %s\n\n", cfg.ConfigFile)
		}
		tw := output.Table(out)
		fmt.Fprintln(tw, "KEY\tVALUE\tSOURCE")
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Key, displayValue(e.Value), e.Source)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration:\n%w", err)
	}
	return nil
}

// configEntries lists every configuration value in declaration order,
// rendered the way a config file would spell it.
func configEntries(cfg *config.Config) ([]configEntry, error) {
	var doc yaml.Node
	if err := doc.Encode(cfg); err != nil {
		return nil, err
	}
	entries := make([]configEntry, 0, len(doc.Content)/2)
	for i := 0; i+1 < len(doc.Content); i += 2 {
		key := doc.Content[i].Value
		var value any
		if err := doc.Content[i+1].Decode(&value); err != nil {
			return nil, err
		}
		entries = append(entries, configEntry{Key: key, Value: value, Source: cfg.Source(key)})
	}
	return entries, nil
}

func displayValue(v any) string {
	switch v := v.(type) {
	case nil:
		return "-"
	case string:
		if v == "" {
			return `""`
		}
		return v
	case []any:
		parts := make([]string, len(v))
		for i, p := range v {
			parts[i] = displayValue(p)
		}
		return strings.Join(parts, ", ")
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}
