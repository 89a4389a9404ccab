package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rshade/footprint/internal/activity"
	"github.com/rshade/footprint/internal/engine/batch"
	"github.com/rshade/footprint/internal/estimator"
	"github.com/rshade/footprint/internal/logging"
	"github.com/rshade/footprint/internal/normalizer"
	"github.com/rshade/footprint/internal/storage"
)

const defaultImportConcurrency = 4

// ErrNothingToImport is returned when Import receives no days.
var ErrNothingToImport = errors.New("nothing to import")

// ImportSkip records a day that was not stored.
type ImportSkip struct {
	Index int    `json:"index"`
	Date  string `json:"date"`
	Error string `json:"error"`
}

// ImportResult summarizes an Import.
type ImportResult struct {
	Imported int           `json:"imported"`
	Replaced int           `json:"replaced"`
	Skipped  []ImportSkip  `json:"skipped,omitempty"`
	TotalKg  float64       `json:"total_kg"`
	Duration time.Duration `json:"duration_ns"`
}

type preparedDay struct {
	log    activity.ActivityLog
	stored activity.StoredLog
	total  float64
	err    error
}

// Import stores many days for one user in two passes. Normalization and
// estimation run first, with up to the engine's concurrency batches in
// flight. Writes then happen batch by batch in input order, so when a date
// appears twice the later entry wins; onProgress follows the writes. Days
// that are empty or carry a bad date are skipped and reported, not fatal.
//
// Imported counts every write. TotalKg is the total of the logs left stored
// by the import, so a date repeated in the input counts once.
func (e *Engine) Import(
	ctx context.Context,
	userID string,
	days []activity.DatedActivities,
	onProgress batch.ProgressCallback,
) (ImportResult, error) {
	start := time.Now()
	if len(days) == 0 {
		return ImportResult{}, ErrNothingToImport
	}
	size := batch.DefaultBatchSize
	if e.batchSize > 0 {
		size = e.batchSize
	}

	prepared, err := e.prepareAll(ctx, days, size)
	if err != nil {
		return ImportResult{}, err
	}

	writer, err := batch.NewProcessor[int](size)
	if err != nil {
		return ImportResult{}, err
	}
	writer.WithProgressCallback(onProgress)

	indexes := make([]int, len(days))
	for i := range indexes {
		indexes[i] = i
	}

	var res ImportResult
	// written holds the total stored so far by this import, per date.
	written := make(map[string]float64)

	err = writer.Process(ctx, indexes, func(ctx context.Context, idxs []int, _ int) error {
		for _, i := range idxs {
			p := prepared[i]
			if p.err != nil {
				res.Skipped = append(res.Skipped, ImportSkip{Index: i, Date: days[i].Date, Error: p.err.Error()})
				continue
			}
			prev, existed := written[p.log.Date]
			if !existed {
				if _, getErr := e.store.Get(ctx, userID, p.log.Date); getErr == nil {
					existed = true
				} else if !errors.Is(getErr, storage.ErrLogNotFound) {
					return getErr
				}
			}
			if _, upErr := e.store.Upsert(ctx, userID, p.stored); upErr != nil {
				return fmt.Errorf("storing %s: %w", p.log.Date, upErr)
			}
			res.Imported++
			res.TotalKg += p.total - prev
			written[p.log.Date] = p.total
			if existed {
				res.Replaced++
			}
		}
		return nil
	})
	res.Duration = time.Since(start)

	logging.FromContext(ctx).Info().Ctx(ctx).
		Str("component", "engine").
		Str("operation", "import").
		Str("user_id", userID).
		Int("imported", res.Imported).
		Int("replaced", res.Replaced).
		Int("skipped", len(res.Skipped)).
		Int("batch_size", size).
		Int("concurrency", e.concurrency).
		Dur("duration", res.Duration).
		Err(err).
		Msg("import finished")

	return res, err
}

// prepareAll normalizes and estimates every day, running up to e.concurrency
// batches at once. The result is in input order.
func (e *Engine) prepareAll(
	ctx context.Context,
	days []activity.DatedActivities,
	size int,
) ([]preparedDay, error) {
	proc, err := batch.NewProcessor[activity.DatedActivities](size)
	if err != nil {
		return nil, err
	}
	out := make([]preparedDay, len(days))
	err = proc.ProcessConcurrent(ctx, days, func(ctx context.Context, items []activity.DatedActivities, idx int) error {
		offset := idx * size
		for i, item := range items {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			out[offset+i] = e.prepareDay(item)
		}
		return nil
	}, e.concurrency)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Engine) prepareDay(item activity.DatedActivities) preparedDay {
	log := normalizer.ToCanonical(item.Activities, item.Date)
	if err := log.Validate(); err != nil {
		return preparedDay{err: err}
	}
	b := estimator.Estimate(log, e.factors)
	return preparedDay{log: log, stored: toStored(log, b), total: b.Total}
}
