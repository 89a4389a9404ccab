// Package engine ties the normalizer, estimator and storage together into the
// operations a user performs: preview, submit, load, history and import.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rshade/footprint/internal/activity"
	"github.com/rshade/footprint/internal/engine/cache"
	"github.com/rshade/footprint/internal/estimator"
	"github.com/rshade/footprint/internal/logging"
	"github.com/rshade/footprint/internal/normalizer"
	"github.com/rshade/footprint/internal/recommend"
	"github.com/rshade/footprint/internal/storage"
)

// ErrNilStore is returned by New when no store is supplied.
var ErrNilStore = errors.New("engine requires a store")

// Options configures an Engine. Zero values select defaults.
type Options struct {
	Store   storage.Store
	Factors *estimator.Factors
	// Cache holds history reports. Nil disables report caching.
	Cache *cache.FileStore
	// BatchSize and Concurrency tune Import.
	BatchSize   int
	Concurrency int
	Now         func() time.Time
}

// Engine is safe for concurrent use when its store is.
type Engine struct {
	store       storage.Store
	factors     estimator.Factors
	cache       *cache.FileStore
	batchSize   int
	concurrency int
	now         func() time.Time
}

// New validates opts and builds an Engine.
func New(opts Options) (*Engine, error) {
	if opts.Store == nil {
		return nil, ErrNilStore
	}
	factors := estimator.DefaultFactors()
	if opts.Factors != nil {
		if err := opts.Factors.Validate(); err != nil {
			return nil, err
		}
		factors = opts.Factors.Clone()
	}
	e := &Engine{
		store:       opts.Store,
		factors:     factors,
		cache:       opts.Cache,
		batchSize:   opts.BatchSize,
		concurrency: opts.Concurrency,
		now:         opts.Now,
	}
	if e.concurrency < 1 {
		e.concurrency = defaultImportConcurrency
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e, nil
}

// Factors returns a copy of the factor table in use.
func (e *Engine) Factors() estimator.Factors {
	return e.factors.Clone()
}

// Today returns the current calendar date.
func (e *Engine) Today() string {
	return activity.Today(e.now())
}

// SubmitResult is the outcome of storing one day.
type SubmitResult struct {
	Log       activity.StoredLog  `json:"log"`
	Breakdown estimator.Breakdown `json:"breakdown"`
	// Replaced is true when the date already had a stored log.
	Replaced bool `json:"replaced"`
}

// Preview normalizes ea for date and estimates it without touching storage.
func (e *Engine) Preview(ea activity.EditableActivities, date string) (activity.ActivityLog, estimator.Breakdown, error) {
	return Preview(ea, date, e.factors)
}

// Preview is the storage-free estimate behind Engine.Preview. Empty days are
// rejected with activity.ErrEmptyLog.
func Preview(
	ea activity.EditableActivities,
	date string,
	factors estimator.Factors,
) (activity.ActivityLog, estimator.Breakdown, error) {
	log := normalizer.ToCanonical(ea, date)
	if err := log.Validate(); err != nil {
		return log, estimator.Breakdown{}, err
	}
	return log, estimator.Estimate(log, factors), nil
}

// Submit normalizes ea, estimates it and replaces whatever was stored for
// the user and date.
func (e *Engine) Submit(
	ctx context.Context,
	userID, date string,
	ea activity.EditableActivities,
) (SubmitResult, error) {
	return e.persist(ctx, userID, normalizer.ToCanonical(ea, date), "submit")
}

// SubmitPayload stores an already-canonical payload. Values are cleaned
// first: negatives are clamped, servings raised to 1 and legacy diets mapped.
func (e *Engine) SubmitPayload(
	ctx context.Context,
	userID string,
	p activity.SubmissionPayload,
) (SubmitResult, error) {
	return e.persist(ctx, userID, normalizer.Sanitize(p.ToLog()), "submit_payload")
}

func (e *Engine) persist(ctx context.Context, userID string, log activity.ActivityLog, op string) (SubmitResult, error) {
	logger := logging.FromContext(ctx)
	if err := log.Validate(); err != nil {
		logger.Debug().Ctx(ctx).
			Str("component", "engine").
			Str("operation", op).
			Str("user_id", userID).
			Str("date", log.Date).
			Err(err).
			Msg("submission rejected")
		return SubmitResult{}, err
	}

	b := estimator.Estimate(log, e.factors)

	replaced := true
	if _, err := e.store.Get(ctx, userID, log.Date); err != nil {
		if !errors.Is(err, storage.ErrLogNotFound) {
			return SubmitResult{}, fmt.Errorf("checking existing log: %w", err)
		}
		replaced = false
	}

	stored, err := e.store.Upsert(ctx, userID, toStored(log, b))
	if err != nil {
		return SubmitResult{}, fmt.Errorf("storing daily log: %w", err)
	}

	logger.Info().Ctx(ctx).
		Str("component", "engine").
		Str("operation", op).
		Str("user_id", userID).
		Str("date", log.Date).
		Float64("total_kg", b.Total).
		Bool("replaced", replaced).
		Msg("daily log stored")

	return SubmitResult{Log: stored, Breakdown: b, Replaced: replaced}, nil
}

// toStored builds the record written for log.
func toStored(log activity.ActivityLog, b estimator.Breakdown) activity.StoredLog {
	p := activity.NewSubmission(log)
	return activity.StoredLog{
		Date:                 log.Date,
		TotalEmissions:       b.Total,
		TransportEmissions:   b.Transport,
		ElectricityEmissions: b.Electricity,
		FoodEmissions:        b.Food,
		Transportation:       p.Transportation,
		ElectricityKwh:       log.ElectricityKwh,
		Food:                 p.Food,
	}
}

// Load returns the stored day and its editable form.
func (e *Engine) Load(ctx context.Context, userID, date string) (activity.EditableActivities, activity.StoredLog, error) {
	if _, err := activity.ParseDate(date); err != nil {
		return activity.EditableActivities{}, activity.StoredLog{}, err
	}
	stored, err := e.store.Get(ctx, userID, date)
	if err != nil {
		return activity.EditableActivities{}, activity.StoredLog{}, err
	}
	return normalizer.ToEditable(stored.ToLog()), stored, nil
}

// Delete always fails: a day can only be replaced, never removed.
func (e *Engine) Delete(ctx context.Context, userID, date string) error {
	err := e.store.Delete(ctx, userID, date)
	logging.FromContext(ctx).Warn().Ctx(ctx).
		Str("component", "engine").
		Str("operation", "delete").
		Str("user_id", userID).
		Str("date", date).
		Err(err).
		Msg("delete requested")
	if err == nil {
		return activity.ErrDeleteUnsupported
	}
	return err
}

// Recommend returns tips for a stored day, computed from its stored totals.
func (e *Engine) Recommend(ctx context.Context, userID, date string) ([]recommend.Recommendation, activity.StoredLog, error) {
	stored, err := e.store.Get(ctx, userID, date)
	if err != nil {
		return nil, activity.StoredLog{}, err
	}
	return recommend.Generate(storedBreakdown(stored)), stored, nil
}

func storedBreakdown(s activity.StoredLog) estimator.Breakdown {
	return estimator.Breakdown{
		Transport:   s.TransportEmissions,
		Electricity: s.ElectricityEmissions,
		Food:        s.FoodEmissions,
		Total:       s.TotalEmissions,
	}
}

// List returns the stored days in [from, to] in date order. Empty bounds are
// open.
func (e *Engine) List(ctx context.Context, userID, from, to string) ([]activity.StoredLog, error) {
	rng := storage.Range{From: from, To: to}
	if err := rng.Validate(); err != nil {
		return nil, err
	}
	return e.store.List(ctx, userID, rng)
}
