package engine

import (
	"context"
	"time"

	"github.com/rshade/footprint/internal/activity"
	"github.com/rshade/footprint/internal/estimator"
	"github.com/rshade/footprint/internal/logging"
	"github.com/rshade/footprint/internal/storage"
)

// Dashboard periods, counted back from today inclusive.
const (
	PeriodToday   = "today"
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"

	weeklyDays  = 7
	monthlyDays = 30
)

// CategoryNone is reported as the highest category of a period with no
// emissions.
const CategoryNone estimator.Category = "none"

// PeriodSummary totals one dashboard period.
type PeriodSummary struct {
	Period          string             `json:"period"`
	From            string             `json:"from"`
	To              string             `json:"to"`
	DaysLogged      int                `json:"days_logged"`
	Transport       float64            `json:"transport_emissions"`
	Electricity     float64            `json:"electricity_emissions"`
	Food            float64            `json:"food_emissions"`
	Total           float64            `json:"total_emissions"`
	AverageDailyKg  float64            `json:"average_daily_emissions"`
	HighestCategory estimator.Category `json:"highest_category"`
}

// Dashboard holds the today, last 7 days and last 30 days summaries.
type Dashboard struct {
	UserID      string        `json:"user_id"`
	Date        string        `json:"date"`
	Today       PeriodSummary `json:"today"`
	Weekly      PeriodSummary `json:"weekly"`
	Monthly     PeriodSummary `json:"monthly"`
	GeneratedAt time.Time     `json:"generated_at"`
}

// Periods returns the summaries from shortest to longest.
func (d Dashboard) Periods() []PeriodSummary {
	return []PeriodSummary{d.Today, d.Weekly, d.Monthly}
}

// Dashboard summarizes the user's last 30 days with a single store read.
// The average divides by days logged, not days in the period.
func (e *Engine) Dashboard(ctx context.Context, userID string) (Dashboard, error) {
	now := e.now()
	today := activity.Today(now)
	day, err := activity.ParseDate(today)
	if err != nil {
		return Dashboard{}, err
	}
	from := func(days int) string {
		return activity.Today(day.AddDate(0, 0, -(days - 1)))
	}

	logs, err := e.store.List(ctx, userID, storage.Range{From: from(monthlyDays), To: today})
	if err != nil {
		return Dashboard{}, err
	}

	d := Dashboard{
		UserID:      userID,
		Date:        today,
		Today:       SummarizePeriod(PeriodToday, today, today, logs),
		Weekly:      SummarizePeriod(PeriodWeekly, from(weeklyDays), today, logs),
		Monthly:     SummarizePeriod(PeriodMonthly, from(monthlyDays), today, logs),
		GeneratedAt: now.UTC(),
	}

	logging.FromContext(ctx).Debug().Ctx(ctx).
		Str("component", "engine").
		Str("operation", "dashboard").
		Str("user_id", userID).
		Int("days_logged", d.Monthly.DaysLogged).
		Msg("dashboard built")
	return d, nil
}

// SummarizePeriod totals the logs dated within [from, to].
func SummarizePeriod(period, from, to string, logs []activity.StoredLog) PeriodSummary {
	s := PeriodSummary{Period: period, From: from, To: to, HighestCategory: CategoryNone}
	var b estimator.Breakdown
	for _, l := range logs {
		if l.Date < from || l.Date > to {
			continue
		}
		b = b.Add(storedBreakdown(l))
		s.DaysLogged++
	}
	s.Transport = b.Transport
	s.Electricity = b.Electricity
	s.Food = b.Food
	s.Total = b.Total
	if s.DaysLogged > 0 {
		s.AverageDailyKg = s.Total / float64(s.DaysLogged)
	}
	if s.Total > 0 {
		s.HighestCategory = b.Highest()
	}
	return s
}
