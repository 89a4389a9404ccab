package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rshade/footprint/internal/config"
)

// editableConfig loads the config file a set would write to, without env
// overrides, so that FOOTPRINT_* values are never persisted. Inside a project
// with a config.yaml that file is used unless global is set.
func editableConfig(global bool) (*config.Config, error) {
	path, err := config.ConfigFilePath()
	if err != nil {
		return nil, err
	}
	if projectDir := config.GetResolvedProjectDir(); projectDir != "" && !global {
		projectPath := filepath.Join(projectDir, "config.yaml")
		if _, statErr := os.Stat(projectPath); statErr == nil {
			path = projectPath
		}
	}

	cfg := config.Default()
	cfg.SetPath(path)
	if err = cfg.Load(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewConfigSetCmd creates the config set command.
func NewConfigSetCmd() *cobra.Command {
	var global bool

	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Sets a dotted configuration key and saves the file. Values are validated
before saving. Per-mode transport factors use factors.transport.<mode>.
Run 'footprint config list' to see every key.`,
		Example: `  footprint config set budget.daily_kg 20
  footprint config set storage.backend sqlite
  footprint config set factors.transport.car_petrol 0.19
  footprint config set output.default_format json --global`,
		Args: cobra.ExactArgs(2), //nolint:mnd // key and value
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := editableConfig(global)
			if err != nil {
				return err
			}
			if err = cfg.Set(args[0], args[1]); err != nil {
				return err
			}
			if err = cfg.Validate(); err != nil {
				return fmt.Errorf("not saved: %w", err)
			}
			if err = cfg.Save(); err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}
			cmd.Printf("Set %s = %s (%s)\n", args[0], args[1], cfg.Path())
			return nil
		},
	}
	cmd.Flags().BoolVar(&global, "global", false, "write the global config even inside a project")
	return cmd
}

// NewConfigGetCmd creates the config get command. It reports the effective
// value, including project and environment overrides.
func NewConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "get <key>",
		Short:   "Print the effective value of a configuration key",
		Example: `  footprint config get budget.daily_kg`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := config.GetGlobalConfig().Get(args[0])
			if err != nil {
				return err
			}
			cmd.Println(v)
			return nil
		},
	}
}

// NewConfigListCmd creates the config list command.
func NewConfigListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every configuration key with its effective value",
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			cfg := config.GetGlobalConfig()
			if format != config.OutputFormatTable {
				return writeJSON(cmd.OutOrStdout(), cfg)
			}

			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "KEY\tVALUE")
			for _, k := range cfg.Keys() {
				v, getErr := cfg.Get(k)
				if getErr != nil {
					return getErr
				}
				fmt.Fprintf(tw, "%s\t%s\n", k, v)
			}
			return tw.Flush()
		},
	}
	registerOutputFlag(cmd)
	return cmd
}
