package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rshade/footprint/internal/config"
)

// NewConfigValidateCmd creates the config validate command for validating configuration.
func NewConfigValidateCmd() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		Long: `Validates the effective configuration: the global file, any project
overlay and FOOTPRINT_* environment overrides.

This includes:
- Output format and precision
- Storage backend name
- Cache TTL
- Budget amount, alert thresholds and exit code
- Emission factor overrides (non-negative, known modes)`,
		Example: `  # Validate current configuration
  footprint config validate

  # Validate and show detailed information
  footprint config validate --verbose`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigValidate(cmd, verbose)
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show detailed validation information")

	return cmd
}

// runConfigValidate executes the configuration validation logic.
func runConfigValidate(cmd *cobra.Command, verbose bool) error {
	cfg := config.GetGlobalConfig()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	if _, err := cfg.EmissionFactors(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	cmd.Printf("Configuration is valid\n")

	if verbose {
		printVerboseDetails(cmd, cfg)
	}

	return nil
}

// printVerboseDetails prints detailed configuration information.
func printVerboseDetails(cmd *cobra.Command, cfg *config.Config) {
	cmd.Println()
	cmd.Println("Configuration details:")
	cmd.Printf("  Config file: %s\n", cfg.Path())
	if dir := config.GetResolvedProjectDir(); dir != "" {
		cmd.Printf("  Project directory: %s\n", dir)
	}
	cmd.Printf("  User: %s\n", cfg.User)
	cmd.Printf("  Output format: %s\n", cfg.Output.DefaultFormat)
	cmd.Printf("  Output precision: %d\n", cfg.Output.Precision)
	cmd.Printf("  Logging level: %s\n", cfg.Logging.Level)
	cmd.Printf("  Log file: %s\n", cfg.Logging.File)

	printStorageDetails(cmd, cfg)
	printBudgetDetails(cmd, cfg)
	printFactorDetails(cmd, cfg)
}

func printStorageDetails(cmd *cobra.Command, cfg *config.Config) {
	path, err := cfg.StoragePath()
	if err != nil {
		path = "unresolved: " + err.Error()
	}
	cmd.Printf("  Storage: %s (%s)\n", cfg.Storage.Backend, path)

	if !cfg.Cache.Enabled {
		cmd.Println("  Report cache: disabled")
		return
	}
	dir, err := cfg.CacheDir()
	if err != nil {
		dir = "unresolved: " + err.Error()
	}
	cmd.Printf("  Report cache: %s, ttl %ds\n", dir, cfg.Cache.TTLSeconds)
}

func printBudgetDetails(cmd *cobra.Command, cfg *config.Config) {
	if !cfg.Budget.IsEnabled() {
		cmd.Println("  No carbon budget configured")
		return
	}
	cmd.Printf("  Budget: %.2f kg/day", cfg.Budget.DailyKg)
	if len(cfg.Budget.Alerts) > 0 {
		cmd.Printf(", alerts:")
		for _, a := range cfg.Budget.Alerts {
			cmd.Printf(" %.0f%% (%s)", a.Threshold, a.GetType())
		}
	}
	cmd.Println()
}

func printFactorDetails(cmd *cobra.Command, cfg *config.Config) {
	n := len(cfg.Factors.Transport)
	if cfg.Factors.ElectricityPerKwh != nil {
		n++
	}
	if cfg.Factors.FoodPerServing != nil {
		n++
	}
	if n == 0 {
		cmd.Println("  Emission factors: built-in defaults")
		return
	}
	cmd.Printf("  Emission factors: %d override(s)\n", n)
}
