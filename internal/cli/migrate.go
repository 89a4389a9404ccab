package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rshade/footprint/internal/config"
	"github.com/rshade/footprint/internal/logging"
	"github.com/rshade/footprint/internal/migration"
	"github.com/rshade/footprint/internal/storage"
)

// ErrSameBackend is returned when migrate targets the configured backend
// without a different path.
var ErrSameBackend = errors.New("destination is the configured store")

// migrateOptions holds migrate's flags.
type migrateOptions struct {
	to        string
	toPath    string
	overwrite bool
	yes       bool
	switchTo  bool
	noBackup  bool
}

// NewMigrateCmd creates the migrate command, which copies every user's logs
// from the configured store into another backend.
func NewMigrateCmd() *cobra.Command {
	var opts migrateOptions

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Copy all logs into another storage backend",
		Long: `Copies every stored log, for every user, from the configured store into a
JSON document or SQLite database. Log IDs and creation times are kept. Days
that already exist in the destination are skipped unless --overwrite is set.

Before writing, an existing destination file is backed up next to itself.
With --switch the config is updated to use the destination afterwards.`,
		Example: `  # Move to SQLite and start using it
  footprint migrate --to sqlite --switch

  # Export to a JSON document without prompting
  footprint migrate --to json --to-path ./export.json --yes`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.to, "to", "", "destination backend: json or sqlite (required)")
	cmd.Flags().StringVar(&opts.toPath, "to-path", "", "destination file (default: the backend's default path)")
	cmd.Flags().BoolVar(&opts.overwrite, "overwrite", false, "replace days that already exist in the destination")
	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "do not ask for confirmation")
	cmd.Flags().BoolVar(&opts.switchTo, "switch", false, "update storage.backend and storage.path to the destination")
	cmd.Flags().BoolVar(&opts.noBackup, "no-backup", false, "skip backing up an existing destination file")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func runMigrate(cmd *cobra.Command, opts migrateOptions) error {
	ctx := cmd.Context()
	log := logging.FromContext(ctx)
	cfg := config.GetGlobalConfig()

	dstCfg := *cfg
	dstCfg.Storage = config.StorageConfig{Backend: strings.ToLower(opts.to), Path: opts.toPath}
	if err := dstCfg.Validate(); err != nil {
		return err
	}
	dstPath, err := dstCfg.StoragePath()
	if err != nil {
		return err
	}
	srcPath, err := cfg.StoragePath()
	if err != nil {
		return err
	}
	if err = migration.CheckDistinct(srcPath, dstPath); err != nil {
		return fmt.Errorf("%w: %s", ErrSameBackend, dstPath)
	}

	if err = confirmAction(cmd, opts.yes, fmt.Sprintf("Copy %s store %s into %s store %s?",
		cfg.Storage.Backend, srcPath, dstCfg.Storage.Backend, dstPath)); err != nil {
		return err
	}

	audit := newAuditContext(ctx, "migrate", map[string]string{
		"from":      cfg.Storage.Backend,
		"to":        dstCfg.Storage.Backend,
		"to_path":   dstPath,
		"overwrite": strconv.FormatBool(opts.overwrite),
	})

	if !opts.noBackup {
		backup, backupErr := migration.Backup(ctx, dstCfg.Storage.Backend, dstPath, time.Now())
		if backupErr != nil {
			audit.logFailure(ctx, backupErr)
			return backupErr
		}
		if backup != "" {
			cmd.Printf("Backed up %s to %s\n", dstPath, backup)
		}
	}

	src, _, err := openStore(ctx, cfg)
	if err != nil {
		audit.logFailure(ctx, err)
		return err
	}
	defer src.Close()

	dst, err := storage.Open(ctx, storage.Config{Backend: dstCfg.Storage.Backend, Path: dstPath})
	if err != nil {
		audit.logFailure(ctx, err)
		return fmt.Errorf("opening destination: %w", err)
	}
	defer dst.Close()

	res, err := migration.Copy(ctx, src, dst, migration.Options{Overwrite: opts.overwrite})
	if err != nil {
		audit.logFailure(ctx, err)
		return err
	}
	audit.logSuccess(ctx, res.Logs, 0)
	log.Info().Ctx(ctx).
		Int("users", res.Users).
		Int("logs", res.Logs).
		Int("skipped", res.Skipped).
		Dur("duration", res.Duration).
		Msg("migration complete")

	cmd.Printf("Copied %d logs for %d users into %s (%d already present, skipped)\n",
		res.Logs, res.Users, dstPath, res.Skipped)

	if opts.switchTo {
		return switchStorage(cmd, dstCfg.Storage.Backend, opts.toPath)
	}
	return nil
}

// switchStorage points the editable config at the new store.
func switchStorage(cmd *cobra.Command, backend, path string) error {
	editable, err := editableConfig(false)
	if err != nil {
		return err
	}
	editable.Storage = config.StorageConfig{Backend: backend, Path: path}
	if err = editable.Save(); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}
	cmd.Printf("Now using %s storage (%s)\n", backend, editable.Path())
	return nil
}
