package estimator

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/footprint/internal/activity"
	"github.com/rshade/footprint/internal/normalizer"
)

const epsilon = 1e-9

func TestEstimate_MixedDay(t *testing.T) {
	ea := activity.EditableActivities{
		Transport: []activity.EditableTrip{{Mode: "Car (Gasoline)", Distance: "100"}},
		Energy:    activity.EditableEnergy{Electricity: "10", Heating: "5"},
		Meals:     []activity.EditableMeal{{Type: "Lunch", Description: "Chicken salad", Servings: "2"}},
	}

	b := Estimate(normalizer.ToCanonical(ea, "2026-05-01"), DefaultFactors())

	assert.InDelta(t, 21.0, b.Transport, epsilon)
	assert.InDelta(t, 7.5, b.Electricity, epsilon)
	assert.InDelta(t, 4.0, b.Food, epsilon)
	assert.InDelta(t, 32.5, b.Total, epsilon)
	assert.Equal(t, CategoryTransport, b.Highest())

	require.Len(t, b.Trips, 1)
	assert.InDelta(t, 0.21, b.Trips[0].Factor, epsilon)
	require.Len(t, b.Meals, 1)
	assert.Equal(t, activity.DietNonVegetarian, b.Meals[0].MealType)
}

func TestEstimate_Flight(t *testing.T) {
	ea := activity.EditableActivities{
		Transport: []activity.EditableTrip{{Mode: "Flight", Distance: "1000"}},
	}
	b := Estimate(normalizer.ToCanonical(ea, "2026-05-01"), DefaultFactors())
	assert.InDelta(t, 250.0, b.Transport, epsilon)
	assert.InDelta(t, 250.0, b.Total, epsilon)
}

func TestEstimate_PerModeFactors(t *testing.T) {
	want := map[activity.Mode]float64{
		activity.ModeCarPetrol:   0.21,
		activity.ModeCarDiesel:   0.17,
		activity.ModeCarElectric: 0.05,
		activity.ModeCarHybrid:   0.11,
		activity.ModeBus:         0.08,
		activity.ModeTrain:       0.04,
		activity.ModeSubway:      0.03,
		activity.ModeMotorcycle:  0.12,
		activity.ModeFlight:      0.25,
		activity.ModeBicycle:     0,
		activity.ModeWalking:     0,
	}

	for mode, factor := range want {
		t.Run(string(mode), func(t *testing.T) {
			log := activity.ActivityLog{Transportation: []activity.TransportTrip{{Mode: mode, DistanceKm: 10}}}
			assert.InDelta(t, 10*factor, Estimate(log, DefaultFactors()).Transport, epsilon)
		})
	}
}

func TestEstimate_UnknownModeIsZero(t *testing.T) {
	log := activity.ActivityLog{Transportation: []activity.TransportTrip{{Mode: "teleport", DistanceKm: 500}}}
	b := Estimate(log, DefaultFactors())
	assert.InDelta(t, 0.0, b.Transport, epsilon)
	require.Len(t, b.Trips, 1)
	assert.InDelta(t, 0.0, b.Trips[0].Factor, epsilon)
}

func TestEstimate_TransportLinearInDistance(t *testing.T) {
	for _, mode := range activity.Modes() {
		for _, x := range []float64{0, 0.3, 1, 17.25, 12345} {
			single := activity.ActivityLog{Transportation: []activity.TransportTrip{{Mode: mode, DistanceKm: x}}}
			double := activity.ActivityLog{Transportation: []activity.TransportTrip{{Mode: mode, DistanceKm: 2 * x}}}
			assert.InDelta(t,
				2*Estimate(single, DefaultFactors()).Transport,
				Estimate(double, DefaultFactors()).Transport,
				epsilon, "mode %s distance %v", mode, x)
		}
	}
}

func TestEstimate_TotalIsSumOfCategories(t *testing.T) {
	logs := []activity.ActivityLog{
		{},
		{ElectricityKwh: 3.3},
		{Food: []activity.MealEntry{{MealType: activity.DietVegan, ServingsCount: 3}}},
		{
			Transportation: []activity.TransportTrip{
				{Mode: activity.ModeBus, DistanceKm: 0.1},
				{Mode: activity.ModeTrain, DistanceKm: 0.2},
				{Mode: activity.ModeFlight, DistanceKm: 0.3},
			},
			ElectricityKwh: 0.7,
			Food:           []activity.MealEntry{{ServingsCount: 1}, {ServingsCount: 4}},
		},
	}

	for _, l := range logs {
		b := Estimate(l, DefaultFactors())
		assert.Equal(t, b.Transport+b.Electricity+b.Food, b.Total)
	}
}

func TestEstimate_FoodIgnoresDiet(t *testing.T) {
	for _, d := range activity.Diets() {
		log := activity.ActivityLog{Food: []activity.MealEntry{{MealType: d, ServingsCount: 3}}}
		assert.InDelta(t, 6.0, Estimate(log, DefaultFactors()).Food, epsilon)
	}
}

func TestEstimate_NegativeInputsClampToZero(t *testing.T) {
	log := activity.ActivityLog{
		Transportation: []activity.TransportTrip{{Mode: activity.ModeCarPetrol, DistanceKm: -10}},
		ElectricityKwh: -5,
		Food:           []activity.MealEntry{{ServingsCount: -2}},
	}
	b := Estimate(log, DefaultFactors())
	assert.InDelta(t, 0.0, b.Total, epsilon)
}

func TestEstimate_DeterministicAndConcurrent(t *testing.T) {
	log := activity.ActivityLog{
		Transportation: []activity.TransportTrip{{Mode: activity.ModeCarDiesel, DistanceKm: 33.3}},
		ElectricityKwh: 9.1,
		Food:           []activity.MealEntry{{MealType: activity.DietVegan, ServingsCount: 2}},
	}
	factors := DefaultFactors()
	want := Estimate(log, factors)

	var wg sync.WaitGroup
	results := make([]Breakdown, 32)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = Estimate(log, factors)
		}()
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want, got)
	}
}

func TestBreakdown_HighestAndAdd(t *testing.T) {
	assert.Equal(t, CategoryTransport, Breakdown{}.Highest())
	assert.Equal(t, CategoryElectricity, Breakdown{Transport: 1, Electricity: 2, Food: 2}.Highest())
	assert.Equal(t, CategoryFood, Breakdown{Transport: 1, Electricity: 2, Food: 3}.Highest())

	sum := Breakdown{Transport: 1, Electricity: 2, Food: 3, Total: 6}.
		Add(Breakdown{Transport: 1, Electricity: 1, Food: 1, Total: 3})
	assert.InDelta(t, 9.0, sum.Total, epsilon)
	assert.InDelta(t, 0.0, sum.ByCategory("lifestyle"), epsilon)
}

func TestRound(t *testing.T) {
	assert.InDelta(t, 32.5, Round(32.4999999, 2), epsilon)
	assert.InDelta(t, 1.23, Round(1.2345, 2), epsilon)
	assert.InDelta(t, 2.0, Round(1.5, 0), epsilon)
}
