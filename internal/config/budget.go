package config

import (
	"errors"
	"fmt"
	"math"
)

// AlertType represents the type of budget alert evaluation.
type AlertType string

// Valid alert types for budget threshold evaluation.
const (
	// AlertTypeActual triggers when logged emissions exceed the threshold.
	AlertTypeActual AlertType = "actual"
	// AlertTypeForecasted triggers when the month's projected emissions exceed the threshold.
	AlertTypeForecasted AlertType = "forecasted"
)

// Budget validation limits.
const (
	MaxThresholdPercent = 1000.0 // Allow alerts up to 1000% for heavy overshoot
	MinThresholdPercent = 0.0
)

// Exit code limits (Unix standard).
const (
	MinExitCode = 0
	MaxExitCode = 255
)

// Budget validation errors.
var (
	ErrBudgetAmountNegative     = errors.New("budget daily_kg cannot be negative")
	ErrAlertThresholdOutOfRange = errors.New("alert threshold must be between 0 and 1000")
	ErrAlertTypeInvalid         = errors.New("alert type must be 'actual' or 'forecasted'")
	ErrExitCodeOutOfRange       = errors.New("exit code must be between 0 and 255")
)

// AlertConfig defines a percentage of the carbon budget that triggers a warning.
type AlertConfig struct {
	// Threshold is the percentage of budget consumed (e.g., 80.0 for 80%).
	Threshold float64 `yaml:"threshold" json:"threshold"`
	// Type is the evaluation type: "actual" or "forecasted". Empty means actual.
	Type AlertType `yaml:"type,omitempty" json:"type,omitempty"`
}

// GetType returns the alert type, defaulting to actual.
func (a AlertConfig) GetType() AlertType {
	if a.Type == "" {
		return AlertTypeActual
	}
	return a.Type
}

// Validate checks if the alert configuration is valid.
func (a AlertConfig) Validate() error {
	if math.IsNaN(a.Threshold) || a.Threshold < MinThresholdPercent || a.Threshold > MaxThresholdPercent {
		return fmt.Errorf("%w: got %.2f", ErrAlertThresholdOutOfRange, a.Threshold)
	}
	if t := a.GetType(); t != AlertTypeActual && t != AlertTypeForecasted {
		return fmt.Errorf("%w: got %q", ErrAlertTypeInvalid, a.Type)
	}
	return nil
}

// BudgetConfig is a personal carbon budget expressed in kg CO2e per day.
type BudgetConfig struct {
	// DailyKg is the allowance per logged day. Use 0 to disable the budget.
	DailyKg float64 `yaml:"daily_kg" json:"daily_kg"`
	// Alerts is a list of thresholds that trigger warnings.
	Alerts []AlertConfig `yaml:"alerts,omitempty" json:"alerts,omitempty"`

	// ExitOnThreshold enables non-zero exit codes when a threshold is exceeded.
	ExitOnThreshold bool `yaml:"exit_on_threshold,omitempty" json:"exit_on_threshold,omitempty"`
	// ExitCode is the exit code used when a threshold is exceeded. Defaults to 1.
	ExitCode int `yaml:"exit_code,omitempty" json:"exit_code,omitempty"`
}

// IsEnabled returns true if the budget is configured (DailyKg > 0).
func (b BudgetConfig) IsEnabled() bool {
	return b.DailyKg > 0
}

// GetExitCode returns the configured exit code, defaulting to 1 if not set.
//
// Exit code 0 with ExitOnThreshold set means warning-only mode.
func (b BudgetConfig) GetExitCode() int {
	if b.ExitOnThreshold && b.ExitCode == 0 {
		return 0
	}
	if b.ExitCode != 0 {
		return b.ExitCode
	}
	return 1
}

// Validate checks if the budget configuration is valid.
func (b BudgetConfig) Validate() error {
	if b.DailyKg < 0 || math.IsNaN(b.DailyKg) || math.IsInf(b.DailyKg, 0) {
		return fmt.Errorf("%w: got %v", ErrBudgetAmountNegative, b.DailyKg)
	}
	if !b.IsEnabled() {
		return nil
	}
	for i, alert := range b.Alerts {
		if err := alert.Validate(); err != nil {
			return fmt.Errorf("budget alert %d: %w", i, err)
		}
	}
	if b.ExitOnThreshold && (b.ExitCode < MinExitCode || b.ExitCode > MaxExitCode) {
		return fmt.Errorf("%w: got %d", ErrExitCodeOutOfRange, b.ExitCode)
	}
	return nil
}
