package greenops

import (
	"fmt"
	"math"

	"github.com/rs/zerolog/log"

	"github.com/rshade/footprint/internal/estimator"
)

// Calculate normalizes input to kilograms and computes the miles-driven and
// smartphones-charged equivalencies. Quantities of at least
// MinSeedlingThresholdKg also list the tree seedlings needed to absorb them.
//
// Quantities below MinEquivalencyThresholdKg return an empty output with
// InputKg set and no error.
func Calculate(input CarbonInput) (EquivalencyOutput, error) {
	kg, err := NormalizeToKg(input.Value, input.Unit)
	if err != nil {
		return EquivalencyOutput{IsEmpty: true}, err
	}

	if kg < MinEquivalencyThresholdKg {
		return EquivalencyOutput{InputKg: kg, IsEmpty: true}, nil
	}

	miles := kg / EPAMilesDrivenFactor
	phones := kg / EPASmartphoneChargeFactor
	if math.IsInf(miles, 0) || math.IsNaN(miles) ||
		math.IsInf(phones, 0) || math.IsNaN(phones) {
		return EquivalencyOutput{IsEmpty: true}, ErrCalculationOverflow
	}

	milesFormatted := formatEquivalencyValue(miles)
	phonesFormatted := formatEquivalencyValue(phones)

	results := []EquivalencyResult{
		{
			Type:           EquivalencyMilesDriven,
			Value:          miles,
			FormattedValue: milesFormatted,
			Label:          "miles driven",
		},
		{
			Type:           EquivalencySmartphonesCharged,
			Value:          phones,
			FormattedValue: phonesFormatted,
			Label:          "smartphones charged",
		},
	}

	if kg >= MinSeedlingThresholdKg {
		seedlings := kg / EPATreeSeedlingFactor
		results = append(results, EquivalencyResult{
			Type:           EquivalencyTreeSeedlings,
			Value:          seedlings,
			FormattedValue: FormatFloat(seedlings, 1),
			Label:          "tree seedlings grown for 10 years",
		})
	}

	return EquivalencyOutput{
		InputKg: kg,
		Results: results,
		DisplayText: fmt.Sprintf("Equivalent to driving ~%s miles or charging ~%s smartphones",
			milesFormatted, phonesFormatted),
		CompactText: fmt.Sprintf("(≈ %s mi, %s phones)", milesFormatted, phonesFormatted),
	}, nil
}

// ForBreakdown computes equivalencies for a breakdown's total.
// Failures are logged and produce an empty output.
func ForBreakdown(b estimator.Breakdown) EquivalencyOutput {
	out, err := Calculate(CarbonInput{Value: b.Total, Unit: "kg"})
	if err != nil {
		log.Warn().Err(err).Float64("total_kg", b.Total).Msg("equivalency calculation failed")
		return EquivalencyOutput{IsEmpty: true}
	}
	return out
}

// formatEquivalencyValue uses large-number scaling at or above a million and
// a rounded, comma-separated integer otherwise.
func formatEquivalencyValue(v float64) string {
	if v >= LargeNumberThreshold {
		return FormatLarge(v)
	}
	return FormatNumber(int64(math.Round(v)))
}
