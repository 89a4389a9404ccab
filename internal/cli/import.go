package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/rshade/footprint/internal/activity"
	"github.com/rshade/footprint/internal/config"
	"github.com/rshade/footprint/internal/engine"
	"github.com/rshade/footprint/internal/engine/batch"
)

var (
	// ErrNoImportFile is returned when import is run without --file.
	ErrNoImportFile = errors.New("--file is required")
	// ErrInvalidConcurrency is returned for a negative --concurrency.
	ErrInvalidConcurrency = errors.New("--concurrency must not be negative")
)

type importOptions struct {
	file        string
	quiet       bool
	batchSize   int
	concurrency int
}

func (o importOptions) validate() error {
	if o.file == "" {
		return ErrNoImportFile
	}
	if o.batchSize != 0 && (o.batchSize < batch.MinBatchSize || o.batchSize > batch.MaxBatchSize) {
		return fmt.Errorf("--batch-size: %w: got %d", batch.ErrInvalidBatchSize, o.batchSize)
	}
	if o.concurrency < 0 {
		return ErrInvalidConcurrency
	}
	return nil
}

// NewImportCmd creates the import command.
func NewImportCmd() *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Save many days from a JSON file",
		Long: `Reads a JSON array of {"date": "YYYY-MM-DD", "activities": {...}} objects,
the same form 'log show --editable' prints, and saves each day, replacing any
existing log for that date. Days that are empty or have a bad date are skipped
and listed; the rest are still saved.`,
		Example: `  # Import a month of days
  footprint import --file january.json

  # Import from a pipe
  cat days.json | footprint import --file -

  # Smaller batches, more of them prepared at once
  footprint import --file year.json --batch-size 20 --concurrency 8`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.validate(); err != nil {
				return err
			}
			return runImport(cmd, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "JSON file to import ('-' for stdin)")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "suppress progress output")
	cmd.Flags().IntVar(&opts.batchSize, "batch-size", 0,
		fmt.Sprintf("days per batch, %d-%d (default %d)", batch.MinBatchSize, batch.MaxBatchSize, batch.DefaultBatchSize))
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 0, "batches prepared at once (default 4)")
	registerOutputFlag(cmd)
	return cmd
}

func runImport(cmd *cobra.Command, opts importOptions) error {
	file := opts.file
	ctx := cmd.Context()
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}

	data, err := readInput(file, cmd.InOrStdin())
	if err != nil {
		return err
	}
	var days []activity.DatedActivities
	if err = json.Unmarshal(data, &days); err != nil {
		return fmt.Errorf("parsing %s: %w", file, err)
	}

	eng, cleanup, err := openEngine(cmd, func(o *engine.Options) {
		o.BatchSize = opts.batchSize
		o.Concurrency = opts.concurrency
	})
	if err != nil {
		return err
	}
	defer cleanup()

	var progress batch.ProgressCallback
	if !opts.quiet && format == config.OutputFormatTable {
		progress = func(s batch.ProgressSnapshot) {
			cmd.PrintErrf("Imported batch %d/%d (%d/%d days, %.0f%%)\n",
				s.ProcessedBatches, s.TotalBatches, s.ProcessedItems, s.TotalItems, s.PercentComplete)
		}
	}

	user := resolveUser(cmd)
	audit := newAuditContext(ctx, "import", map[string]string{
		"user": user,
		"file": file,
		"days": strconv.Itoa(len(days)),
	})
	res, err := eng.Import(ctx, user, days, progress)
	if err != nil {
		audit.logFailure(ctx, err)
		return err
	}
	audit.logSuccess(ctx, res.Imported, res.TotalKg)

	switch format {
	case config.OutputFormatJSON:
		return writeJSON(cmd.OutOrStdout(), res)
	case config.OutputFormatNDJSON:
		return writeNDJSON(cmd.OutOrStdout(), res.Skipped)
	}

	cmd.Printf("Imported %d days for %s (%d replaced), %s kg CO2e in %s\n",
		res.Imported, user, res.Replaced, kg(res.TotalKg), res.Duration.Round(time.Millisecond))
	if len(res.Skipped) > 0 {
		cmd.Printf("\nSkipped %d days:\n", len(res.Skipped))
		tw := newTable(cmd.OutOrStdout())
		fmt.Fprintln(tw, "INDEX\tDATE\tREASON")
		for _, s := range res.Skipped {
			fmt.Fprintf(tw, "%d\t%s\t%s\n", s.Index, s.Date, s.Error)
		}
		return tw.Flush()
	}
	return nil
}
