package engine

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rshade/footprint/internal/activity"
	"github.com/rshade/footprint/internal/engine/cache"
	"github.com/rshade/footprint/internal/estimator"
	"github.com/rshade/footprint/internal/logging"
	"github.com/rshade/footprint/internal/storage"
)

const operationHistory = "history"

// DayRow summarizes one stored day.
type DayRow struct {
	Date        string             `json:"date"`
	Transport   float64            `json:"transport_emissions"`
	Electricity float64            `json:"electricity_emissions"`
	Food        float64            `json:"food_emissions"`
	Total       float64            `json:"total_emissions"`
	Trips       int                `json:"trips"`
	Meals       int                `json:"meals"`
	Highest     estimator.Category `json:"highest_category"`
}

// Report aggregates a user's days over a date range.
type Report struct {
	UserID          string             `json:"user_id"`
	From            string             `json:"from,omitempty"`
	To              string             `json:"to,omitempty"`
	Days            []DayRow           `json:"days"`
	DaysLogged      int                `json:"days_logged"`
	Transport       float64            `json:"transport_emissions"`
	Electricity     float64            `json:"electricity_emissions"`
	Food            float64            `json:"food_emissions"`
	Total           float64            `json:"total_emissions"`
	AverageDailyKg  float64            `json:"average_daily_emissions"`
	Trips           int                `json:"total_trips"`
	Meals           int                `json:"total_meals"`
	HighestCategory estimator.Category `json:"highest_category,omitempty"`
	GeneratedAt     time.Time          `json:"generated_at"`
	// Cached is true when the report was served from the report cache.
	Cached bool `json:"-"`
}

// Breakdown returns the report's category totals.
func (r Report) Breakdown() estimator.Breakdown {
	return estimator.Breakdown{
		Transport:   r.Transport,
		Electricity: r.Electricity,
		Food:        r.Food,
		Total:       r.Total,
	}
}

// History builds the report for [from, to]. Empty bounds are open.
func (e *Engine) History(ctx context.Context, userID, from, to string) (Report, error) {
	rng := storage.Range{From: from, To: to}
	if err := rng.Validate(); err != nil {
		return Report{}, err
	}
	log := logging.FromContext(ctx)

	key, keyErr := e.reportKey(ctx, userID, rng)
	if keyErr != nil {
		return Report{}, keyErr
	}
	if key != "" {
		if report, ok := e.cachedReport(ctx, key); ok {
			log.Debug().Ctx(ctx).
				Str("component", "engine").
				Str("operation", operationHistory).
				Str("user_id", userID).
				Msg("report served from cache")
			return report, nil
		}
	}

	logs, err := e.store.List(ctx, userID, rng)
	if err != nil {
		return Report{}, err
	}
	report := BuildReport(userID, rng, logs, e.now())

	if key != "" {
		if data, marshalErr := json.Marshal(report); marshalErr == nil {
			if setErr := e.cache.Set(key, data); setErr != nil {
				log.Warn().Ctx(ctx).Err(setErr).Str("component", "engine").Msg("caching report failed")
			}
		}
	}
	return report, nil
}

// reportKey returns "" when caching is off.
func (e *Engine) reportKey(ctx context.Context, userID string, rng storage.Range) (string, error) {
	if e.cache == nil || !e.cache.IsEnabled() {
		return "", nil
	}
	rev, err := e.store.Revision(ctx, userID)
	if err != nil {
		return "", err
	}
	factors := make(map[string]float64, len(e.factors.Transport)+2)
	for mode, f := range e.factors.Transport {
		factors[string(mode)] = f
	}
	factors["electricity"] = e.factors.ElectricityPerKwh
	factors["food"] = e.factors.FoodPerServing

	return cache.GenerateKey(cache.KeyParams{
		Operation: operationHistory,
		UserID:    userID,
		From:      rng.From,
		To:        rng.To,
		Revision:  rev,
		Factors:   factors,
	})
}

func (e *Engine) cachedReport(ctx context.Context, key string) (Report, bool) {
	entry, err := e.cache.Get(key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheNotFound) && !errors.Is(err, cache.ErrCacheExpired) {
			logging.FromContext(ctx).Debug().Ctx(ctx).Err(err).Msg("report cache read failed")
		}
		return Report{}, false
	}
	var report Report
	if err = json.Unmarshal(entry.Data, &report); err != nil {
		return Report{}, false
	}
	report.Cached = true
	return report, true
}

// BuildReport aggregates logs, which must be in ascending date order.
func BuildReport(userID string, rng storage.Range, logs []activity.StoredLog, now time.Time) Report {
	r := Report{
		UserID:      userID,
		From:        rng.From,
		To:          rng.To,
		Days:        make([]DayRow, 0, len(logs)),
		GeneratedAt: now.UTC(),
	}
	for _, l := range logs {
		b := storedBreakdown(l)
		row := DayRow{
			Date:        l.Date,
			Transport:   l.TransportEmissions,
			Electricity: l.ElectricityEmissions,
			Food:        l.FoodEmissions,
			Total:       l.TotalEmissions,
			Trips:       len(l.Transportation),
			Meals:       len(l.Food),
			Highest:     b.Highest(),
		}
		r.Days = append(r.Days, row)
		r.Transport += row.Transport
		r.Electricity += row.Electricity
		r.Food += row.Food
		r.Total += row.Total
		r.Trips += row.Trips
		r.Meals += row.Meals
	}
	r.DaysLogged = len(r.Days)
	if r.DaysLogged > 0 {
		r.AverageDailyKg = r.Total / float64(r.DaysLogged)
		r.HighestCategory = r.Breakdown().Highest()
	}
	return r
}
