package normalizer

import (
	"strings"

	"github.com/rshade/footprint/internal/activity"
)

// Canonical UI labels.
const (
	LabelCarGasoline = "Car (Gasoline)"
	LabelCarDiesel   = "Car (Diesel)"
	LabelCarElectric = "Car (Electric)"
	LabelCarHybrid   = "Car (Hybrid)"
	LabelBus         = "Bus"
	LabelTrain       = "Train"
	LabelSubway      = "Subway/Metro"
	LabelBicycle     = "Bicycle"
	LabelWalking     = "Walking"
	LabelMotorcycle  = "Motorcycle"
	LabelFlight      = "Flight"

	LabelVeganMeal  = "Vegan Meal"
	LabelVegMeal    = "Veg Meal"
	LabelNonVegMeal = "Non-Veg Meal"
	LabelBreakfast  = "Breakfast"
	LabelLunch      = "Lunch"
	LabelDinner     = "Dinner"
	LabelSnack      = "Snack"
)

// Fallbacks used when nothing in a rule table matches.
const (
	DefaultMode      = activity.ModeCarPetrol
	DefaultDiet      = activity.DietVegetarian
	DefaultModeLabel = LabelCarGasoline
	DefaultDietLabel = LabelVegMeal
)

// ModeRule maps a transport label to a canonical mode when the label contains
// any of Keywords (case-sensitive).
type ModeRule struct {
	Keywords []string
	Mode     activity.Mode
}

// Matches reports whether label contains one of the rule's keywords.
func (r ModeRule) Matches(label string) bool {
	for _, kw := range r.Keywords {
		if strings.Contains(label, kw) {
			return true
		}
	}
	return false
}

// DietRule maps meal text to a canonical diet when the lower-cased text
// contains any of Keywords.
type DietRule struct {
	Keywords []string
	Diet     activity.Diet
}

// Matches reports whether text contains one of the rule's keywords, ignoring case.
func (r DietRule) Matches(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range r.Keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// ModeRules returns the transport classification table. Rules are evaluated
// top to bottom and the first match wins; a label matching nothing maps to
// DefaultMode. The first five rules are the base set; the remainder add the
// electric, hybrid and active modes without changing how base labels fold.
func ModeRules() []ModeRule {
	return []ModeRule{
		{Keywords: []string{"Diesel"}, Mode: activity.ModeCarDiesel},
		{Keywords: []string{"Gasoline", "Petrol"}, Mode: activity.ModeCarPetrol},
		{Keywords: []string{"Bus"}, Mode: activity.ModeBus},
		{Keywords: []string{"Train", "Metro", "Subway"}, Mode: activity.ModeTrain},
		{Keywords: []string{"Flight"}, Mode: activity.ModeFlight},
		{Keywords: []string{"Electric"}, Mode: activity.ModeCarElectric},
		{Keywords: []string{"Hybrid"}, Mode: activity.ModeCarHybrid},
		{Keywords: []string{"Motorcycle", "Motorbike"}, Mode: activity.ModeMotorcycle},
		{Keywords: []string{"Bicycle", "Bike"}, Mode: activity.ModeBicycle},
		{Keywords: []string{"Walking", "Walk"}, Mode: activity.ModeWalking},
	}
}

// DietRules returns the meal classification table, first match wins,
// DefaultDiet otherwise.
func DietRules() []DietRule {
	return []DietRule{
		{Keywords: []string{"vegan"}, Diet: activity.DietVegan},
		{Keywords: []string{"non-veg", "meat", "chicken", "fish"}, Diet: activity.DietNonVegetarian},
	}
}

// ClassifyMode folds a UI transport label onto a canonical mode.
func ClassifyMode(label string) activity.Mode {
	for _, r := range ModeRules() {
		if r.Matches(label) {
			return r.Mode
		}
	}
	return DefaultMode
}

// ClassifyDiet folds meal text onto a canonical diet category.
func ClassifyDiet(text string) activity.Diet {
	for _, r := range DietRules() {
		if r.Matches(text) {
			return r.Diet
		}
	}
	return DefaultDiet
}

// ModeLabel returns the UI label for a canonical mode. Unknown modes map to
// DefaultModeLabel so the UI never receives an unrenderable value.
func ModeLabel(m activity.Mode) string {
	switch m {
	case activity.ModeCarPetrol:
		return LabelCarGasoline
	case activity.ModeCarDiesel:
		return LabelCarDiesel
	case activity.ModeCarElectric:
		return LabelCarElectric
	case activity.ModeCarHybrid:
		return LabelCarHybrid
	case activity.ModeBus:
		return LabelBus
	case activity.ModeTrain:
		return LabelTrain
	case activity.ModeSubway:
		return LabelSubway
	case activity.ModeBicycle:
		return LabelBicycle
	case activity.ModeWalking:
		return LabelWalking
	case activity.ModeMotorcycle:
		return LabelMotorcycle
	case activity.ModeFlight:
		return LabelFlight
	default:
		return DefaultModeLabel
	}
}

// DietLabel returns the UI label for a canonical diet category.
func DietLabel(d activity.Diet) string {
	switch d {
	case activity.DietVegan:
		return LabelVeganMeal
	case activity.DietNonVegetarian:
		return LabelNonVegMeal
	default:
		return DefaultDietLabel
	}
}

// TransportLabels lists the transport options offered to users.
func TransportLabels() []string {
	modes := activity.Modes()
	labels := make([]string, 0, len(modes))
	for _, m := range modes {
		labels = append(labels, ModeLabel(m))
	}
	return labels
}

// MealLabels lists the meal type options offered to users.
func MealLabels() []string {
	return []string{
		LabelBreakfast,
		LabelLunch,
		LabelDinner,
		LabelSnack,
		LabelVeganMeal,
		LabelVegMeal,
		LabelNonVegMeal,
	}
}
