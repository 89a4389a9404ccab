package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rshade/footprint/internal/activity"
	"github.com/rshade/footprint/internal/config"
	"github.com/rshade/footprint/internal/logging"
	"github.com/rshade/footprint/internal/storage"
)

// ThresholdStatusValue is the result of evaluating one alert threshold.
type ThresholdStatusValue string

// Threshold statuses.
const (
	ThresholdStatusOK          ThresholdStatusValue = "OK"
	ThresholdStatusApproaching ThresholdStatusValue = "APPROACHING"
	ThresholdStatusExceeded    ThresholdStatusValue = "EXCEEDED"
)

// HealthStatus summarizes budget utilization.
type HealthStatus string

// Health levels.
const (
	HealthOK       HealthStatus = "OK"
	HealthWarning  HealthStatus = "WARNING"
	HealthCritical HealthStatus = "CRITICAL"
	HealthExceeded HealthStatus = "EXCEEDED"
)

// Health thresholds in percent of the period budget.
const (
	HealthThresholdWarning  = 80.0
	HealthThresholdCritical = 90.0
	HealthThresholdExceeded = 100.0
)

// ApproachingThresholdBuffer is how many percentage points below a threshold
// counts as approaching it.
const ApproachingThresholdBuffer = 5.0

const percentFull = 100

// ErrBudgetDisabled is returned when budget.daily_kg is 0.
var ErrBudgetDisabled = errors.New("budget is disabled (daily_kg is 0)")

// ThresholdStatus is one evaluated alert.
type ThresholdStatus struct {
	Threshold float64              `json:"threshold"`
	Type      config.AlertType     `json:"type"`
	Status    ThresholdStatusValue `json:"status"`
}

// BudgetStatus compares month-to-date emissions against the monthly budget
// derived from the daily allowance.
type BudgetStatus struct {
	Budget      config.BudgetConfig `json:"budget"`
	PeriodStart string              `json:"period_start"`
	PeriodEnd   string              `json:"period_end"`
	// BudgetKg is DailyKg times the number of days in the month.
	BudgetKg           float64           `json:"budget_kg"`
	CurrentKg          float64           `json:"current_kg"`
	Percentage         float64           `json:"percentage"`
	ForecastedKg       float64           `json:"forecasted_kg"`
	ForecastPercentage float64           `json:"forecast_percentage"`
	DaysLogged         int               `json:"days_logged"`
	Health             HealthStatus      `json:"health"`
	Alerts             []ThresholdStatus `json:"alerts"`
}

// EvaluateBudget loads the user's logs for the current month and evaluates
// them against budget.
func (e *Engine) EvaluateBudget(ctx context.Context, userID string, budget config.BudgetConfig) (*BudgetStatus, error) {
	if !budget.IsEnabled() {
		return nil, ErrBudgetDisabled
	}
	now := e.now()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	last := first.AddDate(0, 1, -1)

	logs, err := e.store.List(ctx, userID, storage.Range{
		From: first.Format(activity.DateLayout),
		To:   last.Format(activity.DateLayout),
	})
	if err != nil {
		return nil, err
	}
	var current float64
	for _, l := range logs {
		current += l.TotalEmissions
	}

	status, err := EvaluateBudgetAt(budget, current, now)
	if err != nil {
		return nil, err
	}
	status.DaysLogged = len(logs)

	logging.FromContext(ctx).Debug().Ctx(ctx).
		Str("component", "engine").
		Str("operation", "budget").
		Str("user_id", userID).
		Float64("current_kg", status.CurrentKg).
		Float64("budget_kg", status.BudgetKg).
		Str("health", string(status.Health)).
		Msg("budget evaluated")
	return status, nil
}

// EvaluateBudgetAt evaluates currentKg, the emissions logged so far in now's
// month, against budget. The forecast extrapolates linearly by day of month.
func EvaluateBudgetAt(budget config.BudgetConfig, currentKg float64, now time.Time) (*BudgetStatus, error) {
	if !budget.IsEnabled() {
		return nil, ErrBudgetDisabled
	}
	if currentKg < 0 {
		return nil, fmt.Errorf("negative emissions not allowed: %.2f", currentKg)
	}

	days := daysInMonth(now)
	budgetKg := budget.DailyKg * float64(days)
	percentage := currentKg / budgetKg * percentFull

	day := max(now.Day(), 1)
	forecast := currentKg / float64(day) * float64(days)
	forecastPercentage := forecast / budgetKg * percentFull

	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return &BudgetStatus{
		Budget:             budget,
		PeriodStart:        first.Format(activity.DateLayout),
		PeriodEnd:          first.AddDate(0, 1, -1).Format(activity.DateLayout),
		BudgetKg:           budgetKg,
		CurrentKg:          currentKg,
		Percentage:         percentage,
		ForecastedKg:       forecast,
		ForecastPercentage: forecastPercentage,
		Health:             HealthFromPercentage(percentage),
		Alerts:             evaluateAlerts(budget.Alerts, percentage, forecastPercentage),
	}, nil
}

func evaluateAlerts(alerts []config.AlertConfig, actualPercentage, forecastPercentage float64) []ThresholdStatus {
	results := make([]ThresholdStatus, 0, len(alerts))
	for _, alert := range alerts {
		percentage := actualPercentage
		if alert.GetType() == config.AlertTypeForecasted {
			percentage = forecastPercentage
		}
		results = append(results, ThresholdStatus{
			Threshold: alert.Threshold,
			Type:      alert.GetType(),
			Status:    evaluateThreshold(alert.Threshold, percentage),
		})
	}
	return results
}

func evaluateThreshold(threshold, percentage float64) ThresholdStatusValue {
	if percentage >= threshold {
		return ThresholdStatusExceeded
	}
	if percentage >= threshold-ApproachingThresholdBuffer {
		return ThresholdStatusApproaching
	}
	return ThresholdStatusOK
}

// HealthFromPercentage maps utilization to a health level:
// OK below 80, WARNING below 90, CRITICAL below 100, EXCEEDED otherwise.
func HealthFromPercentage(p float64) HealthStatus {
	switch {
	case p >= HealthThresholdExceeded:
		return HealthExceeded
	case p >= HealthThresholdCritical:
		return HealthCritical
	case p >= HealthThresholdWarning:
		return HealthWarning
	default:
		return HealthOK
	}
}

func daysInMonth(t time.Time) int {
	year, month, _ := t.Date()
	return time.Date(year, month+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

// HasExceededAlerts reports whether any alert is EXCEEDED.
func (s *BudgetStatus) HasExceededAlerts() bool {
	for _, alert := range s.Alerts {
		if alert.Status == ThresholdStatusExceeded {
			return true
		}
	}
	return false
}

// HasApproachingAlerts reports whether any alert is APPROACHING.
func (s *BudgetStatus) HasApproachingAlerts() bool {
	for _, alert := range s.Alerts {
		if alert.Status == ThresholdStatusApproaching {
			return true
		}
	}
	return false
}

// HighestExceededThreshold returns the largest exceeded threshold, or 0.
func (s *BudgetStatus) HighestExceededThreshold() float64 {
	highest := 0.0
	for _, alert := range s.Alerts {
		if alert.Status == ThresholdStatusExceeded && alert.Threshold > highest {
			highest = alert.Threshold
		}
	}
	return highest
}

// CappedPercentage caps Percentage at 100 for progress bars.
func (s *BudgetStatus) CappedPercentage() float64 {
	return min(s.Percentage, percentFull)
}

// IsOverBudget reports whether month-to-date emissions exceed the budget.
func (s *BudgetStatus) IsOverBudget() bool {
	return s.Percentage > percentFull
}

// ExitCode returns the process exit code for s under budget's exit settings:
// 0 unless exit_on_threshold is set and an alert is exceeded.
func (s *BudgetStatus) ExitCode() int {
	if !s.Budget.ExitOnThreshold || !s.HasExceededAlerts() {
		return 0
	}
	return s.Budget.GetExitCode()
}
