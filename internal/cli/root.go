// Package cli implements the footprint command line.
package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rshade/footprint/internal/config"
	"github.com/rshade/footprint/internal/logging"
)

// isTerminal checks if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// logger is the package-level logger for CLI operations.
var logger zerolog.Logger //nolint:gochecknoglobals // Required for zerolog context integration

// NewRootCmd creates the root command. It resolves the project directory,
// loads configuration, wires logging and audit logging, and registers every
// subcommand.
func NewRootCmd(ver string) *cobra.Command {
	var logResult *logging.LogPathResult

	cmd := &cobra.Command{
		Use:           "footprint",
		Short:         "Track and estimate your daily carbon footprint",
		Long:          "footprint: log daily travel, energy and meals, and estimate their CO2e emissions",
		Version:       ver,
		Example:       rootCmdExample,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cacheTTL, _ := cmd.Flags().GetInt("cache-ttl")
			if cacheTTL < 0 {
				return fmt.Errorf("cache-ttl must be >= 0, got %d", cacheTTL)
			}

			projectFlag, _ := cmd.Flags().GetString("project-dir")
			wd, err := os.Getwd()
			if err != nil {
				wd = "."
			}
			projectDir := config.ResolveProjectDir(cmd.Context(), projectFlag, wd)
			config.SetResolvedProjectDir(projectDir)
			config.InitGlobalConfigWithProject(cmd.Context(), projectDir)

			result := setupLogging(cmd)
			logResult = result
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return cleanupLogging(cmd, logResult)
		},
	}

	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	cmd.PersistentFlags().StringP("user", "u", "", "user id (default from config, then \"default\")")
	cmd.PersistentFlags().
		Int("cache-ttl", 0, "report cache TTL in seconds (0 = use config default, overrides config file and env var)")
	cmd.PersistentFlags().String("project-dir", "", "project .footprint directory (overrides discovery)")

	cmd.AddCommand(
		newLogCmd(),
		NewEstimateCmd(),
		NewHistoryCmd(),
		NewDashboardCmd(),
		NewRecommendCmd(),
		NewFactorsCmd(),
		NewImportCmd(),
		newBudgetCmd(),
		newConfigCmd(),
		NewMigrateCmd(),
		NewServeCmd(),
		NewSetupCmd(),
	)

	return cmd
}

const rootCmdExample = `  # Log today's activities
  footprint log add --trip "Car (Gasoline)=100" --electricity 15 --meal "Non-Vegetarian=2"

  # Preview emissions without saving
  footprint estimate --trip "Flight=1000"

  # Show a month of history as JSON
  footprint history --from 2024-01-01 --to 2024-01-31 --output json

  # Get reduction tips for a day
  footprint recommend --date 2024-01-15

  # Check the monthly carbon budget
  footprint budget status

  # Serve the HTTP API
  footprint serve --addr 127.0.0.1:8080

  # Set configuration values
  footprint config set budget.daily_kg 20`

// newLogCmd creates the log command group.
func newLogCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "log", Short: "Daily activity log commands"}
	cmd.AddCommand(NewLogAddCmd(), NewLogShowCmd(), NewLogListCmd(), NewLogDeleteCmd())
	return cmd
}

// newBudgetCmd creates the budget command group.
func newBudgetCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "budget", Short: "Carbon budget commands"}
	cmd.AddCommand(NewBudgetStatusCmd())
	return cmd
}

// newConfigCmd creates the config command group with configuration subcommands.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Configuration management commands"}
	cmd.AddCommand(
		NewConfigInitCmd(), NewConfigSetCmd(), NewConfigGetCmd(),
		NewConfigListCmd(), NewConfigValidateCmd(),
	)
	return cmd
}
