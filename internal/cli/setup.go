package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/rshade/footprint/internal/config"
	"github.com/rshade/footprint/internal/logging"
	"github.com/rshade/footprint/pkg/version"
)

// StepStatus represents the outcome of a single setup step.
type StepStatus int

const (
	// StepSuccess indicates the step completed successfully.
	StepSuccess StepStatus = iota
	// StepWarning indicates the step completed with a non-fatal issue.
	StepWarning
	// StepSkipped indicates the step was intentionally skipped via flag.
	StepSkipped
	// StepError indicates the step failed.
	StepError
)

// StepResult describes the outcome of executing a single setup step.
type StepResult struct {
	Name     string
	Status   StepStatus
	Message  string
	Critical bool
	Err      error
}

// SetupOptions holds the configuration for the setup command, derived from CLI flags.
type SetupOptions struct {
	SkipStoreCheck bool
	NonInteractive bool
}

// SetupResult is the aggregate outcome of all setup steps.
type SetupResult struct {
	Steps       []StepResult
	HasErrors   bool
	HasWarnings bool
}

// dirPermBase is the permission mode for the base and standard directories.
const dirPermBase = 0o700

// formatStatus returns a status marker appropriate for the output mode.
func formatStatus(status StepStatus, nonInteractive bool) string {
	if nonInteractive {
		switch status {
		case StepSuccess:
			return "[OK]"
		case StepWarning:
			return "[WARN]"
		case StepSkipped:
			return "[SKIP]"
		case StepError:
			return "[ERR]"
		default:
			return "[??]"
		}
	}

	switch status {
	case StepSuccess:
		return "✓"
	case StepWarning:
		return "!"
	case StepSkipped:
		return "-"
	case StepError:
		return "✗"
	default:
		return "?"
	}
}

// NewSetupCmd creates the top-level setup command that bootstraps the footprint environment.
func NewSetupCmd() *cobra.Command {
	var opts SetupOptions

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Bootstrap the footprint environment",
		Long: `Sets up footprint by creating its directories, initializing the
configuration and checking that the configured log store opens.

This command is idempotent. Existing configuration files are preserved.`,
		Example: `  # Full setup
  footprint setup

  # CI/CD setup (no TTY-dependent output)
  footprint setup --non-interactive`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSetup(cmd, &opts)
		},
	}

	cmd.Flags().BoolVar(&opts.NonInteractive, "non-interactive", false,
		"Disable TTY-dependent output (status symbols, color)")
	cmd.Flags().BoolVar(&opts.SkipStoreCheck, "skip-store-check", false,
		"Skip opening the configured log store")

	return cmd
}

// runSetup runs every step even when an earlier one fails, and returns an
// error only if a critical step failed.
func runSetup(cmd *cobra.Command, opts *SetupOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	log := logging.FromContext(ctx)

	if !opts.NonInteractive && !isTerminal(os.Stdin) {
		opts.NonInteractive = true
	}

	result := &SetupResult{}
	add := func(s StepResult) {
		printStep(cmd, s, opts.NonInteractive)
		result.Steps = append(result.Steps, s)
	}

	add(stepDisplayVersion())
	for _, s := range stepCreateDirectories() {
		add(s)
	}
	add(stepInitConfig())
	if opts.SkipStoreCheck {
		add(StepResult{Name: "Store check", Status: StepSkipped, Message: "Skipped store check"})
	} else {
		add(stepCheckStore(ctx))
	}

	for _, s := range result.Steps {
		if s.Status == StepError && s.Critical {
			result.HasErrors = true
		}
		if s.Status == StepWarning {
			result.HasWarnings = true
		}
	}

	printSummary(cmd, result)

	if result.HasErrors {
		log.Error().
			Ctx(ctx).
			Str("component", "setup").
			Msg("setup completed with critical errors")
		return errors.New("setup failed: one or more critical steps failed")
	}

	return nil
}

// printStep outputs a single step's status line.
func printStep(cmd *cobra.Command, step StepResult, nonInteractive bool) {
	marker := formatStatus(step.Status, nonInteractive)
	cmd.Printf("%s %s\n", marker, step.Message)
}

// printSummary outputs the final completion message.
func printSummary(cmd *cobra.Command, result *SetupResult) {
	cmd.Println()
	if result.HasErrors {
		cmd.Println("Setup completed with errors. Review the messages above for remediation steps.")
	} else {
		cmd.Println(`Setup complete! Run 'footprint log add --trip "Bus=10" --meal "Vegan=1"' to log your first day.`)
	}
}

// stepDisplayVersion reports the footprint version and Go runtime.
func stepDisplayVersion() StepResult {
	return StepResult{
		Name:    "Version display",
		Status:  StepSuccess,
		Message: fmt.Sprintf("footprint v%s (%s)", version.GetVersion(), runtime.Version()),
	}
}

// stepCreateDirectories creates the config, cache and log directories.
// Returns one StepResult per directory.
func stepCreateDirectories() []StepResult {
	baseDir, err := config.GetConfigDir()
	if err != nil {
		return []StepResult{{
			Name:     "Directory creation",
			Status:   StepError,
			Message:  fmt.Sprintf("Cannot resolve config directory: %v", err),
			Critical: true,
			Err:      err,
		}}
	}
	cacheDir, err := config.GetGlobalConfig().CacheDir()
	if err != nil {
		cacheDir = filepath.Join(baseDir, "cache")
	}

	var results []StepResult
	for _, dir := range []string{baseDir, cacheDir, filepath.Join(baseDir, "logs")} {
		info, statErr := os.Stat(dir)
		if statErr == nil && info.IsDir() {
			results = append(results, StepResult{
				Name:     "Directory creation",
				Status:   StepSuccess,
				Message:  fmt.Sprintf("Directory exists: %s", dir),
				Critical: true,
			})
			continue
		}

		if mkErr := os.MkdirAll(dir, dirPermBase); mkErr != nil {
			results = append(results, StepResult{
				Name:   "Directory creation",
				Status: StepError,
				Message: fmt.Sprintf(
					"Failed to create %s: %v\n  Try: export FOOTPRINT_HOME=/path/to/writable/directory",
					dir,
					mkErr,
				),
				Critical: true,
				Err:      mkErr,
			})
			continue
		}

		results = append(results, StepResult{
			Name:     "Directory creation",
			Status:   StepSuccess,
			Message:  fmt.Sprintf("Created %s", dir),
			Critical: true,
		})
	}

	return results
}

// stepInitConfig writes the default global config file if none exists.
func stepInitConfig() StepResult {
	configPath, err := config.ConfigFilePath()
	if err != nil {
		return StepResult{
			Name:     "Config initialization",
			Status:   StepError,
			Message:  fmt.Sprintf("Cannot resolve config path: %v", err),
			Critical: true,
			Err:      err,
		}
	}

	if _, statErr := os.Stat(configPath); statErr == nil {
		return StepResult{
			Name:     "Config initialization",
			Status:   StepSuccess,
			Message:  fmt.Sprintf("Config already exists (%s)", configPath),
			Critical: true,
		}
	}

	cfg := config.Default()
	cfg.SetPath(configPath)
	if err = cfg.Save(); err != nil {
		return StepResult{
			Name:     "Config initialization",
			Status:   StepError,
			Message:  fmt.Sprintf("Failed to initialize config: %v", err),
			Critical: true,
			Err:      err,
		}
	}

	return StepResult{
		Name:     "Config initialization",
		Status:   StepSuccess,
		Message:  fmt.Sprintf("Initialized config (%s)", configPath),
		Critical: true,
	}
}

// stepCheckStore opens and closes the configured store, which also creates
// the SQLite schema on first use.
func stepCheckStore(ctx context.Context) StepResult {
	cfg := config.GetGlobalConfig()
	store, path, err := openStore(ctx, cfg)
	if err != nil {
		return StepResult{
			Name:   "Store check",
			Status: StepWarning,
			Message: fmt.Sprintf(
				"Could not open %s store: %v\n  Try: footprint config set storage.path <file>",
				cfg.Storage.Backend, err,
			),
			Err: err,
		}
	}
	defer store.Close()

	users, err := store.Users(ctx)
	if err != nil {
		return StepResult{
			Name:    "Store check",
			Status:  StepWarning,
			Message: fmt.Sprintf("Opened %s store at %s but could not read it: %v", cfg.Storage.Backend, path, err),
			Err:     err,
		}
	}
	return StepResult{
		Name:    "Store check",
		Status:  StepSuccess,
		Message: fmt.Sprintf("%s store ready at %s (%d users)", cfg.Storage.Backend, path, len(users)),
	}
}
