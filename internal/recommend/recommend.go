// Package recommend turns a day's emission breakdown into reduction tips.
package recommend

import (
	"sort"

	"github.com/rshade/footprint/internal/estimator"
)

// MaxRecommendations caps the list returned by Generate.
const MaxRecommendations = 5

// CategoryGeneral marks tips that apply regardless of category.
const CategoryGeneral estimator.Category = "general"

// Category thresholds in kg CO2e above which a category's tips are offered
// even when it is not the highest.
const (
	TransportThresholdKg   = 10.0
	ElectricityThresholdKg = 8.0
	FoodThresholdKg        = 15.0
)

// Recommendation is one suggested action.
type Recommendation struct {
	Category           estimator.Category `json:"category"`
	Title              string             `json:"title"`
	Description        string             `json:"description"`
	PotentialSavingsKg float64            `json:"potential_savings_kg"`
}

// tip is a catalog entry; SavingsRatio is applied to the category's emissions.
type tip struct {
	Title        string
	Description  string
	SavingsRatio float64
}

type rule struct {
	Category    estimator.Category
	ThresholdKg float64
	Tips        []tip
}

func rules() []rule {
	return []rule{
		{
			Category:    estimator.CategoryTransport,
			ThresholdKg: TransportThresholdKg,
			Tips: []tip{
				{"Switch to Public Transport", "Use buses or trains instead of private vehicles. Public transport can reduce your carbon footprint by up to 45% per km.", 0.45},
				{"Carpool or Bike", "Share rides with colleagues or use a bicycle for short distances. Carpooling can cut emissions by 50%.", 0.50},
				{"Work from Home", "If possible, work remotely 1-2 days a week to reduce commute emissions significantly.", 0.30},
			},
		},
		{
			Category:    estimator.CategoryElectricity,
			ThresholdKg: ElectricityThresholdKg,
			Tips: []tip{
				{"Optimize AC Usage", "Set AC to 24°C instead of 18°C and use fans. This can reduce electricity consumption by 30-40%.", 0.35},
				{"LED Lighting", "Replace all bulbs with LED lights. LEDs use 75% less energy than traditional bulbs.", 0.15},
				{"Unplug Devices", "Unplug chargers and devices when not in use. Phantom power can account for 10% of electricity bills.", 0.10},
				{"Energy-Efficient Appliances", "Use 5-star rated appliances and maintain them regularly for optimal efficiency.", 0.20},
			},
		},
		{
			Category:    estimator.CategoryFood,
			ThresholdKg: FoodThresholdKg,
			Tips: []tip{
				{"Adopt Plant-Based Meals", "Try Meatless Mondays or replace 2-3 non-veg meals per week with vegetarian options. Can reduce food emissions by 60%.", 0.60},
				{"Choose Local and Seasonal", "Buy locally grown, seasonal produce to reduce transportation and storage emissions.", 0.25},
				{"Reduce Food Waste", "Plan meals, store food properly, and compost scraps. Food waste contributes 8% of global emissions.", 0.15},
			},
		},
	}
}

func generalTips() []Recommendation {
	return []Recommendation{
		{CategoryGeneral, "Great Job!", "You're already maintaining a low carbon footprint. Keep up the good work!", 0},
		{CategoryGeneral, "Spread Awareness", "Share your eco-friendly habits with friends and family to multiply your impact.", 0},
		{CategoryGeneral, "Track Consistently", "Continue logging daily to maintain your sustainable lifestyle and identify areas for improvement.", 0},
	}
}

// Generate returns at most MaxRecommendations tips for b.
//
// A category's tips are offered when it is the highest non-zero category or
// its emissions exceed its threshold. Tips for the highest category come
// first, then larger savings. A day with nothing to improve gets general tips.
func Generate(b estimator.Breakdown) []Recommendation {
	highest := b.Highest()
	if b.ByCategory(highest) <= 0 {
		highest = ""
	}

	var recs []Recommendation
	for _, r := range rules() {
		emissions := b.ByCategory(r.Category)
		if r.Category != highest && emissions <= r.ThresholdKg {
			continue
		}
		for _, t := range r.Tips {
			recs = append(recs, Recommendation{
				Category:           r.Category,
				Title:              t.Title,
				Description:        t.Description,
				PotentialSavingsKg: estimator.Round(emissions*t.SavingsRatio, 2),
			})
		}
	}
	if len(recs) == 0 {
		return generalTips()
	}

	sort.SliceStable(recs, func(i, j int) bool {
		hi, hj := recs[i].Category == highest, recs[j].Category == highest
		if hi != hj {
			return hi
		}
		return recs[i].PotentialSavingsKg > recs[j].PotentialSavingsKg
	})
	if len(recs) > MaxRecommendations {
		recs = recs[:MaxRecommendations]
	}
	return recs
}

// TotalSavings sums PotentialSavingsKg, rounded to two places.
func TotalSavings(recs []Recommendation) float64 {
	var total float64
	for _, r := range recs {
		total += r.PotentialSavingsKg
	}
	return estimator.Round(total, 2)
}
