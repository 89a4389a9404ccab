package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/footprint/internal/activity"
)

func TestToCanonical_Scenario(t *testing.T) {
	ea := activity.EditableActivities{
		Transport: []activity.EditableTrip{{Mode: "Car (Gasoline)", Distance: "100"}},
		Energy:    activity.EditableEnergy{Electricity: "10", Heating: "5"},
		Meals:     []activity.EditableMeal{{Type: "Lunch", Description: "Chicken salad", Servings: "2"}},
	}

	log := ToCanonical(ea, "2026-04-01")

	assert.Equal(t, "2026-04-01", log.Date)
	require.Len(t, log.Transportation, 1)
	assert.Equal(t, activity.ModeCarPetrol, log.Transportation[0].Mode)
	assert.InDelta(t, 100.0, log.Transportation[0].DistanceKm, 1e-12)
	assert.InDelta(t, 15.0, log.ElectricityKwh, 1e-12)
	require.Len(t, log.Food, 1)
	assert.Equal(t, activity.DietNonVegetarian, log.Food[0].MealType)
	assert.Equal(t, 2, log.Food[0].ServingsCount)
	assert.Equal(t, "Chicken salad", log.Food[0].Description)
}

func TestToCanonical_MalformedNumbersNeverFail(t *testing.T) {
	ea := activity.EditableActivities{
		Transport: []activity.EditableTrip{{Mode: "Bus", Distance: "abc"}},
		Energy:    activity.EditableEnergy{Electricity: "", Heating: "lots"},
		Meals:     []activity.EditableMeal{{Type: "Snack", Servings: "many"}},
	}

	log := ToCanonical(ea, "2026-04-01")

	require.Len(t, log.Transportation, 1)
	assert.Equal(t, activity.ModeBus, log.Transportation[0].Mode)
	assert.InDelta(t, 0.0, log.Transportation[0].DistanceKm, 1e-12)
	assert.InDelta(t, 0.0, log.ElectricityKwh, 1e-12)
	assert.Equal(t, 1, log.Food[0].ServingsCount)
}

func TestToCanonical_EmptyEditable(t *testing.T) {
	log := ToCanonical(activity.EditableActivities{}, "2026-04-01")
	assert.True(t, log.IsEmpty())
	assert.ErrorIs(t, log.Validate(), activity.ErrEmptyLog)
}

func TestToEditable(t *testing.T) {
	stored := activity.StoredLog{
		Date: "2026-04-02",
		Transportation: []activity.TripPayload{
			{Mode: activity.ModeCarDiesel, DistanceKm: 40, Description: "office"},
			{Mode: "spaceship", DistanceKm: 3},
		},
		ElectricityKwh: 12.5,
		Food: []activity.MealPayload{
			{MealType: "non_veg", MealsCount: 0},
			{MealType: activity.DietVegan, MealsCount: 2, Description: "Tofu bowl"},
			{MealType: "mystery", MealsCount: 1},
		},
	}

	ea := ToEditable(stored.ToLog())

	require.Len(t, ea.Transport, 2)
	assert.Equal(t, LabelCarDiesel, ea.Transport[0].Mode)
	assert.Equal(t, activity.Field("40"), ea.Transport[0].Distance)
	assert.Equal(t, "office", ea.Transport[0].Description)
	assert.Equal(t, LabelCarGasoline, ea.Transport[1].Mode)

	assert.Equal(t, activity.Field("12.5"), ea.Energy.Electricity)
	assert.Equal(t, activity.Field("0"), ea.Energy.Heating)

	require.Len(t, ea.Meals, 3)
	assert.Equal(t, LabelNonVegMeal, ea.Meals[0].Type)
	assert.Equal(t, LabelNonVegMeal, ea.Meals[0].Description)
	assert.Equal(t, activity.Field("1"), ea.Meals[0].Servings)
	assert.Equal(t, LabelVeganMeal, ea.Meals[1].Type)
	assert.Equal(t, "Tofu bowl", ea.Meals[1].Description)
	assert.Equal(t, LabelVegMeal, ea.Meals[2].Type)
}

func TestRoundTrip_BaseLabels(t *testing.T) {
	modes := []string{LabelCarGasoline, LabelCarDiesel, LabelBus, LabelTrain, LabelFlight}
	diets := []string{LabelVeganMeal, LabelNonVegMeal, LabelVegMeal}

	for _, label := range modes {
		t.Run(label, func(t *testing.T) {
			ea := activity.EditableActivities{
				Transport: []activity.EditableTrip{{Mode: label, Distance: "5"}},
			}
			back := ToEditable(ToCanonical(ea, "2026-04-03"))
			require.Len(t, back.Transport, 1)
			assert.Equal(t, label, back.Transport[0].Mode)

			again := ToEditable(ToCanonical(back, "2026-04-03"))
			assert.Equal(t, back, again)
		})
	}

	for _, label := range diets {
		t.Run(label, func(t *testing.T) {
			ea := activity.EditableActivities{
				Meals: []activity.EditableMeal{{Type: label, Servings: "1"}},
			}
			back := ToEditable(ToCanonical(ea, "2026-04-03"))
			require.Len(t, back.Meals, 1)
			assert.Equal(t, label, back.Meals[0].Type)
		})
	}
}

func TestToEditable_HeatingFoldedIntoElectricity(t *testing.T) {
	ea := activity.EditableActivities{
		Energy: activity.EditableEnergy{Electricity: "3", Heating: "4"},
	}
	back := ToEditable(ToCanonical(ea, "2026-04-03"))
	assert.Equal(t, activity.Field("7"), back.Energy.Electricity)
	assert.Equal(t, activity.Field("0"), back.Energy.Heating)
}

func TestSanitize(t *testing.T) {
	in := activity.ActivityLog{
		Date:           "2026-04-04",
		Transportation: []activity.TransportTrip{{Mode: "rocket", DistanceKm: -3}},
		ElectricityKwh: -1,
		Food: []activity.MealEntry{
			{MealType: "veg", ServingsCount: 0},
			{MealType: "meat lovers", ServingsCount: 2},
		},
	}

	out := Sanitize(in)

	assert.Equal(t, activity.Mode("rocket"), out.Transportation[0].Mode)
	assert.InDelta(t, 0.0, out.Transportation[0].DistanceKm, 1e-12)
	assert.InDelta(t, 0.0, out.ElectricityKwh, 1e-12)
	assert.Equal(t, activity.DietVegetarian, out.Food[0].MealType)
	assert.Equal(t, 1, out.Food[0].ServingsCount)
	assert.Equal(t, activity.DietNonVegetarian, out.Food[1].MealType)

	// Input untouched.
	assert.InDelta(t, -3.0, in.Transportation[0].DistanceKm, 1e-12)
}
