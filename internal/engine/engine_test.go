package engine_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/footprint/internal/activity"
	"github.com/rshade/footprint/internal/config"
	"github.com/rshade/footprint/internal/engine"
	"github.com/rshade/footprint/internal/engine/batch"
	"github.com/rshade/footprint/internal/engine/cache"
	"github.com/rshade/footprint/internal/estimator"
	"github.com/rshade/footprint/internal/storage"
)

var fixedNow = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

func mixedDay() activity.EditableActivities {
	return activity.EditableActivities{
		Transport: []activity.EditableTrip{{Mode: "Car (Gasoline)", Distance: "100"}},
		Energy:    activity.EditableEnergy{Electricity: "10", Heating: "5"},
		Meals:     []activity.EditableMeal{{Type: "Lunch", Description: "Chicken salad", Servings: "2"}},
	}
}

func flightDay() activity.EditableActivities {
	return activity.EditableActivities{
		Transport: []activity.EditableTrip{{Mode: "Flight", Distance: "1000"}},
	}
}

type fixture struct {
	eng   *engine.Engine
	store storage.Store
	cache *cache.FileStore
}

func newFixture(t *testing.T, withCache bool) fixture {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.OpenJSONStore(context.Background(), filepath.Join(dir, "logs.json"))
	require.NoError(t, err)

	var fc *cache.FileStore
	if withCache {
		fc, err = cache.NewFileStore(filepath.Join(dir, "cache"), true, cache.DefaultTTLSeconds)
		require.NoError(t, err)
	}

	eng, err := engine.New(engine.Options{
		Store:     store,
		Cache:     fc,
		BatchSize: 2,
		Now:       func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	return fixture{eng: eng, store: store, cache: fc}
}

func TestNew(t *testing.T) {
	_, err := engine.New(engine.Options{})
	require.ErrorIs(t, err, engine.ErrNilStore)

	bad := estimator.DefaultFactors()
	bad.ElectricityPerKwh = -1
	store, err := storage.OpenJSONStore(context.Background(), filepath.Join(t.TempDir(), "logs.json"))
	require.NoError(t, err)
	_, err = engine.New(engine.Options{Store: store, Factors: &bad})
	require.ErrorIs(t, err, estimator.ErrInvalidFactor)
}

func TestPreview(t *testing.T) {
	f := newFixture(t, false)

	log, b, err := f.eng.Preview(mixedDay(), "2024-01-15")
	require.NoError(t, err)
	assert.InDelta(t, 21.0, b.Transport, 1e-9)
	assert.InDelta(t, 7.5, b.Electricity, 1e-9)
	assert.InDelta(t, 4.0, b.Food, 1e-9)
	assert.InDelta(t, 32.5, b.Total, 1e-9)
	assert.Equal(t, activity.ModeCarPetrol, log.Transportation[0].Mode)

	_, b, err = f.eng.Preview(flightDay(), "2024-01-15")
	require.NoError(t, err)
	assert.InDelta(t, 250.0, b.Total, 1e-9)

	_, _, err = f.eng.Preview(activity.EditableActivities{Energy: activity.EditableEnergy{Electricity: ""}}, "2024-01-15")
	require.ErrorIs(t, err, activity.ErrEmptyLog)

	// Preview never writes.
	users, err := f.store.Users(context.Background())
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestSubmitAndLoad(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)

	res, err := f.eng.Submit(ctx, "alice", "2024-01-15", mixedDay())
	require.NoError(t, err)
	assert.False(t, res.Replaced)
	assert.InDelta(t, 32.5, res.Log.TotalEmissions, 1e-9)
	assert.InDelta(t, 15.0, res.Log.ElectricityKwh, 1e-9)

	ea, stored, err := f.eng.Load(ctx, "alice", "2024-01-15")
	require.NoError(t, err)
	assert.Equal(t, res.Log.ID, stored.ID)
	require.Len(t, ea.Transport, 1)
	assert.Equal(t, "Car (Gasoline)", ea.Transport[0].Mode)
	assert.Equal(t, activity.Field("15"), ea.Energy.Electricity)
	assert.Equal(t, activity.Field("0"), ea.Energy.Heating)
	require.Len(t, ea.Meals, 1)
	assert.Equal(t, activity.Field("2"), ea.Meals[0].Servings)

	// Second submission replaces the day.
	res2, err := f.eng.Submit(ctx, "alice", "2024-01-15", flightDay())
	require.NoError(t, err)
	assert.True(t, res2.Replaced)
	assert.Equal(t, res.Log.ID, res2.Log.ID)

	_, stored, err = f.eng.Load(ctx, "alice", "2024-01-15")
	require.NoError(t, err)
	assert.InDelta(t, 250.0, stored.TotalEmissions, 1e-9)
	assert.Empty(t, stored.Food)
	assert.Zero(t, stored.ElectricityKwh)
}

func TestSubmit_RejectsEmptyAndBadDate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)

	_, err := f.eng.Submit(ctx, "alice", "2024-01-15", activity.EditableActivities{})
	require.ErrorIs(t, err, activity.ErrEmptyLog)

	_, err = f.eng.Submit(ctx, "alice", "Jan 15", mixedDay())
	require.ErrorIs(t, err, activity.ErrInvalidDate)

	_, _, err = f.eng.Load(ctx, "alice", "2024-01-15")
	require.ErrorIs(t, err, storage.ErrLogNotFound)
}

func TestSubmitPayload_Sanitizes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)

	res, err := f.eng.SubmitPayload(ctx, "alice", activity.SubmissionPayload{
		Date: "2024-01-15",
		Transportation: []activity.TripPayload{
			{Mode: activity.ModeBus, DistanceKm: -5},
			{Mode: "hovercraft", DistanceKm: 10},
		},
		ElectricityKwh: 2,
		Food:           []activity.MealPayload{{MealType: "veg", MealsCount: 0}},
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, res.Breakdown.Transport, 1e-9)
	assert.InDelta(t, 1.0, res.Breakdown.Electricity, 1e-9)
	assert.InDelta(t, 2.0, res.Breakdown.Food, 1e-9)
	assert.Equal(t, activity.DietVegetarian, res.Log.Food[0].MealType)
	assert.Equal(t, 1, res.Log.Food[0].MealsCount)

	_, err = f.eng.SubmitPayload(ctx, "alice", activity.SubmissionPayload{Date: "2024-01-16"})
	require.ErrorIs(t, err, activity.ErrEmptyLog)
}

func TestDelete_AlwaysFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	_, err := f.eng.Submit(ctx, "alice", "2024-01-15", mixedDay())
	require.NoError(t, err)

	require.ErrorIs(t, f.eng.Delete(ctx, "alice", "2024-01-15"), activity.ErrDeleteUnsupported)
	require.ErrorIs(t, f.eng.Delete(ctx, "alice", "2024-01-01"), activity.ErrDeleteUnsupported)

	_, _, err = f.eng.Load(ctx, "alice", "2024-01-15")
	require.NoError(t, err)
}

func TestRecommend(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	_, err := f.eng.Submit(ctx, "alice", "2024-01-15", flightDay())
	require.NoError(t, err)

	recs, stored, err := f.eng.Recommend(ctx, "alice", "2024-01-15")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-15", stored.Date)
	require.NotEmpty(t, recs)
	assert.Equal(t, estimator.CategoryTransport, recs[0].Category)

	_, _, err = f.eng.Recommend(ctx, "alice", "2024-01-16")
	require.ErrorIs(t, err, storage.ErrLogNotFound)
}

func TestHistory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)

	_, err := f.eng.Submit(ctx, "alice", "2024-01-14", mixedDay())
	require.NoError(t, err)
	_, err = f.eng.Submit(ctx, "alice", "2024-01-15", flightDay())
	require.NoError(t, err)
	_, err = f.eng.Submit(ctx, "alice", "2024-02-01", flightDay())
	require.NoError(t, err)

	report, err := f.eng.History(ctx, "alice", "2024-01-01", "2024-01-31")
	require.NoError(t, err)
	assert.False(t, report.Cached)
	require.Len(t, report.Days, 2)
	assert.Equal(t, "2024-01-14", report.Days[0].Date)
	assert.Equal(t, 2, report.DaysLogged)
	assert.InDelta(t, 282.5, report.Total, 1e-9)
	assert.InDelta(t, 141.25, report.AverageDailyKg, 1e-9)
	assert.Equal(t, 2, report.Trips)
	assert.Equal(t, 1, report.Meals)
	assert.Equal(t, estimator.CategoryTransport, report.HighestCategory)

	again, err := f.eng.History(ctx, "alice", "2024-01-01", "2024-01-31")
	require.NoError(t, err)
	assert.True(t, again.Cached)
	assert.InDelta(t, report.Total, again.Total, 1e-9)

	// A write bumps the revision, so the cached report is not reused.
	_, err = f.eng.Submit(ctx, "alice", "2024-01-20", mixedDay())
	require.NoError(t, err)
	fresh, err := f.eng.History(ctx, "alice", "2024-01-01", "2024-01-31")
	require.NoError(t, err)
	assert.False(t, fresh.Cached)
	assert.Equal(t, 3, fresh.DaysLogged)

	_, err = f.eng.History(ctx, "alice", "2024-02-01", "2024-01-01")
	require.ErrorIs(t, err, activity.ErrInvalidDate)

	empty, err := f.eng.History(ctx, "nobody", "", "")
	require.NoError(t, err)
	assert.Zero(t, empty.DaysLogged)
	assert.Zero(t, empty.AverageDailyKg)
	assert.NotNil(t, empty.Days)
}

func TestDashboard(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)

	for date, day := range map[string]activity.EditableActivities{
		"2024-01-15": flightDay(),
		"2024-01-10": mixedDay(),
		"2023-12-17": flightDay(),
		"2023-12-16": flightDay(),
		"2024-01-16": flightDay(),
	} {
		_, err := f.eng.Submit(ctx, "alice", date, day)
		require.NoError(t, err)
	}

	d, err := f.eng.Dashboard(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-15", d.Date)

	assert.Equal(t, engine.PeriodToday, d.Today.Period)
	assert.Equal(t, "2024-01-15", d.Today.From)
	assert.Equal(t, 1, d.Today.DaysLogged)
	assert.InDelta(t, 250.0, d.Today.Total, 1e-9)

	assert.Equal(t, "2024-01-09", d.Weekly.From)
	assert.Equal(t, 2, d.Weekly.DaysLogged)
	assert.InDelta(t, 282.5, d.Weekly.Total, 1e-9)
	assert.InDelta(t, 141.25, d.Weekly.AverageDailyKg, 1e-9)
	assert.Equal(t, estimator.CategoryTransport, d.Weekly.HighestCategory)

	// 2023-12-17 is the 30th day back; 2023-12-16 and the future day are out.
	assert.Equal(t, "2023-12-17", d.Monthly.From)
	assert.Equal(t, 3, d.Monthly.DaysLogged)
	assert.InDelta(t, 532.5, d.Monthly.Total, 1e-9)
	assert.InDelta(t, 177.5, d.Monthly.AverageDailyKg, 1e-9)

	empty, err := f.eng.Dashboard(ctx, "nobody")
	require.NoError(t, err)
	for _, p := range empty.Periods() {
		assert.Zero(t, p.DaysLogged, p.Period)
		assert.Zero(t, p.Total, p.Period)
		assert.Zero(t, p.AverageDailyKg, p.Period)
		assert.Equal(t, engine.CategoryNone, p.HighestCategory, p.Period)
	}
}

func TestSummarizePeriod_ZeroDay(t *testing.T) {
	logs := []activity.StoredLog{{Date: "2024-01-15"}}
	s := engine.SummarizePeriod(engine.PeriodToday, "2024-01-15", "2024-01-15", logs)
	assert.Equal(t, 1, s.DaysLogged)
	assert.Equal(t, engine.CategoryNone, s.HighestCategory)
}

func TestImport(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)

	_, err := f.eng.Submit(ctx, "alice", "2024-01-10", flightDay())
	require.NoError(t, err)

	days := []activity.DatedActivities{
		{Date: "2024-01-10", Activities: mixedDay()},
		{Date: "2024-01-11", Activities: flightDay()},
		{Date: "2024-01-12", Activities: activity.EditableActivities{}},
		{Date: "not-a-date", Activities: mixedDay()},
		{Date: "2024-01-11", Activities: mixedDay()},
	}

	var snaps []batch.ProgressSnapshot
	res, err := f.eng.Import(ctx, "alice", days, func(s batch.ProgressSnapshot) { snaps = append(snaps, s) })
	require.NoError(t, err)
	assert.Equal(t, 3, res.Imported)
	assert.Equal(t, 2, res.Replaced)
	require.Len(t, res.Skipped, 2)
	assert.Equal(t, 2, res.Skipped[0].Index)
	assert.Equal(t, 3, res.Skipped[1].Index)
	assert.Len(t, snaps, 3)
	assert.True(t, snaps[len(snaps)-1].IsComplete())
	// 2024-01-10 and the final 2024-01-11, each a 32.5 kg day.
	assert.InDelta(t, 65.0, res.TotalKg, 1e-9)

	// The later entry for 2024-01-11 wins.
	_, stored, err := f.eng.Load(ctx, "alice", "2024-01-11")
	require.NoError(t, err)
	assert.InDelta(t, 32.5, stored.TotalEmissions, 1e-9)

	_, err = f.eng.Import(ctx, "alice", nil, nil)
	require.ErrorIs(t, err, engine.ErrNothingToImport)
}

func TestImportConcurrentPreparation(t *testing.T) {
	ctx := context.Background()
	store, err := storage.OpenJSONStore(ctx, filepath.Join(t.TempDir(), "logs.json"))
	require.NoError(t, err)
	eng, err := engine.New(engine.Options{Store: store, BatchSize: 3, Concurrency: 8})
	require.NoError(t, err)

	days := make([]activity.DatedActivities, 0, 40)
	for i := range 20 {
		date := time.Date(2024, 2, 1+i, 0, 0, 0, 0, time.UTC).Format(time.DateOnly)
		days = append(days, activity.DatedActivities{Date: date, Activities: flightDay()})
	}
	// The same twenty dates again; these writes replace the flights.
	for i := range 20 {
		date := time.Date(2024, 2, 1+i, 0, 0, 0, 0, time.UTC).Format(time.DateOnly)
		days = append(days, activity.DatedActivities{Date: date, Activities: mixedDay()})
	}

	var snaps []batch.ProgressSnapshot
	res, err := eng.Import(ctx, "bob", days, func(s batch.ProgressSnapshot) { snaps = append(snaps, s) })
	require.NoError(t, err)
	assert.Equal(t, 40, res.Imported)
	assert.Equal(t, 20, res.Replaced)
	assert.Empty(t, res.Skipped)
	assert.InDelta(t, 20*32.5, res.TotalKg, 1e-9)

	require.Len(t, snaps, 14)
	for i := 1; i < len(snaps); i++ {
		assert.Greater(t, snaps[i].ProcessedItems, snaps[i-1].ProcessedItems)
	}

	_, stored, err := eng.Load(ctx, "bob", "2024-02-20")
	require.NoError(t, err)
	assert.InDelta(t, 32.5, stored.TotalEmissions, 1e-9)
}

func TestImportRejectsOversizedBatch(t *testing.T) {
	ctx := context.Background()
	store, err := storage.OpenJSONStore(ctx, filepath.Join(t.TempDir(), "logs.json"))
	require.NoError(t, err)
	eng, err := engine.New(engine.Options{Store: store, BatchSize: batch.MaxBatchSize + 1})
	require.NoError(t, err)

	_, err = eng.Import(ctx, "bob", []activity.DatedActivities{{Date: "2024-02-01", Activities: flightDay()}}, nil)
	require.ErrorIs(t, err, batch.ErrInvalidBatchSize)
}

func TestEvaluateBudget(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)

	_, err := f.eng.EvaluateBudget(ctx, "alice", config.BudgetConfig{})
	require.ErrorIs(t, err, engine.ErrBudgetDisabled)

	// Two flights in January: 500 kg against 31 * 10 = 310 kg.
	for _, d := range []string{"2024-01-02", "2024-01-03"} {
		_, err = f.eng.Submit(ctx, "alice", d, flightDay())
		require.NoError(t, err)
	}
	_, err = f.eng.Submit(ctx, "alice", "2023-12-31", flightDay())
	require.NoError(t, err)

	budget := config.BudgetConfig{
		DailyKg: 10,
		Alerts: []config.AlertConfig{
			{Threshold: 50},
			{Threshold: 200, Type: config.AlertTypeForecasted},
		},
		ExitOnThreshold: true,
		ExitCode:        3,
	}
	status, err := f.eng.EvaluateBudget(ctx, "alice", budget)
	require.NoError(t, err)
	assert.Equal(t, 2, status.DaysLogged)
	assert.InDelta(t, 310.0, status.BudgetKg, 1e-9)
	assert.InDelta(t, 500.0, status.CurrentKg, 1e-9)
	assert.Equal(t, engine.HealthExceeded, status.Health)
	assert.True(t, status.IsOverBudget())
	assert.InDelta(t, 100.0, status.CappedPercentage(), 1e-9)
	require.Len(t, status.Alerts, 2)
	assert.Equal(t, engine.ThresholdStatusExceeded, status.Alerts[0].Status)
	assert.Equal(t, engine.ThresholdStatusExceeded, status.Alerts[1].Status)
	assert.InDelta(t, 200.0, status.HighestExceededThreshold(), 1e-9)
	assert.Equal(t, 3, status.ExitCode())
	assert.Equal(t, "2024-01-01", status.PeriodStart)
	assert.Equal(t, "2024-01-31", status.PeriodEnd)
}

func TestEvaluateBudgetAt(t *testing.T) {
	now := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	budget := config.BudgetConfig{
		DailyKg: 10,
		Alerts: []config.AlertConfig{
			{Threshold: 30},
			{Threshold: 80, Type: config.AlertTypeForecasted},
			{Threshold: 90, Type: config.AlertTypeForecasted},
		},
	}

	// February 2024 has 29 days: budget 290 kg. 75 kg by day 10 forecasts 217.5 kg (75%).
	status, err := engine.EvaluateBudgetAt(budget, 75, now)
	require.NoError(t, err)
	assert.InDelta(t, 290.0, status.BudgetKg, 1e-9)
	assert.InDelta(t, 217.5, status.ForecastedKg, 1e-9)
	assert.InDelta(t, 75.0, status.ForecastPercentage, 1e-9)
	assert.Equal(t, engine.HealthOK, status.Health)

	assert.Equal(t, engine.ThresholdStatusApproaching, status.Alerts[0].Status)
	assert.Equal(t, engine.ThresholdStatusApproaching, status.Alerts[1].Status)
	assert.Equal(t, engine.ThresholdStatusOK, status.Alerts[2].Status)
	assert.True(t, status.HasApproachingAlerts())
	assert.False(t, status.HasExceededAlerts())
	assert.Equal(t, 0, status.ExitCode())

	_, err = engine.EvaluateBudgetAt(budget, -1, now)
	require.Error(t, err)
}

func TestHealthFromPercentage(t *testing.T) {
	tests := []struct {
		pct  float64
		want engine.HealthStatus
	}{
		{-5, engine.HealthOK},
		{79.9, engine.HealthOK},
		{80, engine.HealthWarning},
		{90, engine.HealthCritical},
		{99.9, engine.HealthCritical},
		{100, engine.HealthExceeded},
		{250, engine.HealthExceeded},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, engine.HealthFromPercentage(tt.pct), "%.1f", tt.pct)
	}
}
