package activity

import (
	"encoding/json"
	"time"
)

// TripPayload is a canonical trip on the wire.
type TripPayload struct {
	Mode        Mode    `json:"mode"`
	DistanceKm  float64 `json:"distance_km"`
	Description string  `json:"description,omitempty"`
}

// MealPayload is a canonical meal on the wire.
type MealPayload struct {
	MealType    Diet   `json:"meal_type"`
	MealsCount  int    `json:"meals_count"`
	Description string `json:"description,omitempty"`
}

// SubmissionPayload is the body sent to the log store for one day.
type SubmissionPayload struct {
	Date           string        `json:"date"`
	Transportation []TripPayload `json:"transportation"`
	ElectricityKwh float64       `json:"electricity_kwh"`
	Food           []MealPayload `json:"food"`
	Lifestyle      []any         `json:"lifestyle"`
}

// MarshalJSON always writes empty arrays rather than null.
func (p SubmissionPayload) MarshalJSON() ([]byte, error) {
	type alias SubmissionPayload
	out := alias(p)
	if out.Transportation == nil {
		out.Transportation = []TripPayload{}
	}
	if out.Food == nil {
		out.Food = []MealPayload{}
	}
	// Lifestyle is reserved and always empty.
	out.Lifestyle = []any{}
	return json.Marshal(out)
}

// NewSubmission builds the wire payload for a canonical log.
func NewSubmission(l ActivityLog) SubmissionPayload {
	p := SubmissionPayload{
		Date:           l.Date,
		Transportation: make([]TripPayload, 0, len(l.Transportation)),
		ElectricityKwh: l.ElectricityKwh,
		Food:           make([]MealPayload, 0, len(l.Food)),
		Lifestyle:      []any{},
	}
	for _, t := range l.Transportation {
		p.Transportation = append(p.Transportation, TripPayload{
			Mode:        t.Mode,
			DistanceKm:  t.DistanceKm,
			Description: t.Description,
		})
	}
	for _, m := range l.Food {
		p.Food = append(p.Food, MealPayload{
			MealType:    m.MealType,
			MealsCount:  m.ServingsCount,
			Description: m.Description,
		})
	}
	return p
}

// ToLog converts the payload to a canonical log without cleaning any values.
func (p SubmissionPayload) ToLog() ActivityLog {
	return logFrom(p.Date, p.Transportation, p.ElectricityKwh, p.Food)
}

// StoredLog is a persisted day, including the emissions computed when it was
// stored.
type StoredLog struct {
	ID                   string        `json:"id"`
	UserID               string        `json:"user_id"`
	Date                 string        `json:"date"`
	TotalEmissions       float64       `json:"total_emissions"`
	TransportEmissions   float64       `json:"transport_emissions"`
	ElectricityEmissions float64       `json:"electricity_emissions"`
	FoodEmissions        float64       `json:"food_emissions"`
	Transportation       []TripPayload `json:"transportation"`
	ElectricityKwh       float64       `json:"electricity_kwh"`
	Food                 []MealPayload `json:"food"`
	CreatedAt            time.Time     `json:"created_at"`
	UpdatedAt            time.Time     `json:"updated_at"`
}

// ToLog converts the stored record back to a canonical log.
func (s StoredLog) ToLog() ActivityLog {
	return logFrom(s.Date, s.Transportation, s.ElectricityKwh, s.Food)
}

// Clone returns a deep copy of the record.
func (s StoredLog) Clone() StoredLog {
	c := s
	if s.Transportation != nil {
		c.Transportation = append([]TripPayload(nil), s.Transportation...)
	}
	if s.Food != nil {
		c.Food = append([]MealPayload(nil), s.Food...)
	}
	return c
}

func logFrom(date string, trips []TripPayload, kwh float64, meals []MealPayload) ActivityLog {
	l := ActivityLog{
		Date:           date,
		ElectricityKwh: kwh,
	}
	for _, t := range trips {
		l.Transportation = append(l.Transportation, TransportTrip{
			Mode:        t.Mode,
			DistanceKm:  t.DistanceKm,
			Description: t.Description,
		})
	}
	for _, m := range meals {
		l.Food = append(l.Food, MealEntry{
			MealType:      m.MealType,
			ServingsCount: m.MealsCount,
			Description:   m.Description,
		})
	}
	return l
}
