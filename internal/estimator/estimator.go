// Package estimator computes daily carbon emissions from a canonical activity
// log.
//
// Estimate is a pure function of the log and the factor table: it performs
// no I/O, holds no state and returns identical results for identical input,
// so the same code serves offline previews and the stored totals.
package estimator

import (
	"math"

	"github.com/rshade/footprint/internal/activity"
)

// Category names an emission category.
type Category string

// Emission categories.
const (
	CategoryTransport   Category = "transportation"
	CategoryElectricity Category = "electricity"
	CategoryFood        Category = "food"
)

// Categories returns the categories in their canonical order.
func Categories() []Category {
	return []Category{CategoryTransport, CategoryElectricity, CategoryFood}
}

// TripEmission is the contribution of a single trip.
type TripEmission struct {
	Mode       activity.Mode `json:"mode"`
	DistanceKm float64       `json:"distance_km"`
	Factor     float64       `json:"emission_factor"`
	Emissions  float64       `json:"emissions"`
}

// MealEmission is the contribution of a single meal entry.
type MealEmission struct {
	MealType  activity.Diet `json:"meal_type"`
	Servings  int           `json:"meals_count"`
	Factor    float64       `json:"emission_factor"`
	Emissions float64       `json:"emissions"`
}

// Breakdown holds emissions in kg CO2 at full precision.
type Breakdown struct {
	Transport   float64        `json:"transport_emissions"`
	Electricity float64        `json:"electricity_emissions"`
	Food        float64        `json:"food_emissions"`
	Total       float64        `json:"total_emissions"`
	Trips       []TripEmission `json:"transport_details,omitempty"`
	Meals       []MealEmission `json:"food_details,omitempty"`
}

// Estimate computes the emission breakdown for log using factors.
// Unknown modes contribute nothing. Negative quantities are treated as zero.
func Estimate(log activity.ActivityLog, factors Factors) Breakdown {
	var b Breakdown

	for _, trip := range log.Transportation {
		factor := factors.TransportFactor(trip.Mode)
		distance := nonNegative(trip.DistanceKm)
		e := distance * factor
		b.Transport += e
		b.Trips = append(b.Trips, TripEmission{
			Mode:       trip.Mode,
			DistanceKm: distance,
			Factor:     factor,
			Emissions:  e,
		})
	}

	b.Electricity = nonNegative(log.ElectricityKwh) * factors.ElectricityPerKwh

	for _, meal := range log.Food {
		servings := max(meal.ServingsCount, 0)
		e := float64(servings) * factors.FoodPerServing
		b.Food += e
		b.Meals = append(b.Meals, MealEmission{
			MealType:  meal.MealType,
			Servings:  servings,
			Factor:    factors.FoodPerServing,
			Emissions: e,
		})
	}

	b.Total = b.Transport + b.Electricity + b.Food
	return b
}

// ByCategory returns the emissions for c.
func (b Breakdown) ByCategory(c Category) float64 {
	switch c {
	case CategoryTransport:
		return b.Transport
	case CategoryElectricity:
		return b.Electricity
	case CategoryFood:
		return b.Food
	default:
		return 0
	}
}

// Highest returns the category with the largest emissions. Ties resolve in
// Categories order.
func (b Breakdown) Highest() Category {
	best := CategoryTransport
	for _, c := range Categories()[1:] {
		if b.ByCategory(c) > b.ByCategory(best) {
			best = c
		}
	}
	return best
}

// Add returns the element-wise sum of the category totals. Per-entry details
// are not carried over.
func (b Breakdown) Add(o Breakdown) Breakdown {
	return Breakdown{
		Transport:   b.Transport + o.Transport,
		Electricity: b.Electricity + o.Electricity,
		Food:        b.Food + o.Food,
		Total:       b.Total + o.Total,
	}
}

// Round rounds v to the given number of decimal places. It is a display
// helper; Estimate never rounds.
func Round(v float64, places int) float64 {
	const base = 10
	p := math.Pow(base, float64(places))
	return math.Round(v*p) / p
}

func nonNegative(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	return v
}
