package greenops

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/footprint/internal/estimator"
)

func TestNormalizeToKg(t *testing.T) {
	tests := []struct {
		name    string
		value   float64
		unit    string
		wantKg  float64
		wantErr error
	}{
		{name: "grams", value: 1000, unit: "g", wantKg: 1},
		{name: "kilograms", value: 32.5, unit: "kg", wantKg: 32.5},
		{name: "tons", value: 0.25, unit: "t", wantKg: 250},
		{name: "pounds", value: 100, unit: "lb", wantKg: 45.3592},
		{name: "co2e suffix", value: 1500, unit: "gCO2e", wantKg: 1.5},
		{name: "case insensitive", value: 2, unit: "KG", wantKg: 2},
		{name: "zero", value: 0, unit: "kg", wantKg: 0},
		{name: "invalid unit", value: 1, unit: "stone", wantErr: ErrInvalidUnit},
		{name: "negative", value: -1, unit: "kg", wantErr: ErrNegativeValue},
		{name: "nan", value: math.NaN(), unit: "kg", wantErr: ErrCalculationOverflow},
		{name: "overflow", value: math.MaxFloat64, unit: "t", wantErr: ErrCalculationOverflow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeToKg(tt.value, tt.unit)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.wantKg, got, 1e-9)
		})
	}
}

func TestConvertFromKg(t *testing.T) {
	v, err := ConvertFromKg(250, "t")
	require.NoError(t, err)
	assert.InDelta(t, 0.25, v, 1e-12)

	v, err = ConvertFromKg(1.5, "g")
	require.NoError(t, err)
	assert.InDelta(t, 1500, v, 1e-9)

	_, err = ConvertFromKg(1, "oz")
	require.ErrorIs(t, err, ErrInvalidUnit)
	assert.True(t, IsRecognizedUnit("lbCO2e"))
	assert.False(t, IsRecognizedUnit(""))
}

func TestCalculate(t *testing.T) {
	t.Run("below threshold is empty", func(t *testing.T) {
		out, err := Calculate(CarbonInput{Value: 0.5, Unit: "kg"})
		require.NoError(t, err)
		assert.True(t, out.IsEmpty)
		assert.InDelta(t, 0.5, out.InputKg, 1e-12)
	})

	t.Run("typical day", func(t *testing.T) {
		out, err := Calculate(CarbonInput{Value: 32.5, Unit: "kg"})
		require.NoError(t, err)
		assert.False(t, out.IsEmpty)
		require.Len(t, out.Results, 3)
		assert.Equal(t, EquivalencyMilesDriven, out.Results[0].Type)
		assert.Equal(t, "169", out.Results[0].FormattedValue) // 32.5 / 0.192
		assert.Equal(t, "3,954", out.Results[1].FormattedValue)
		assert.Equal(t, EquivalencyTreeSeedlings, out.Results[2].Type)
		assert.Contains(t, out.DisplayText, "driving ~169 miles")
		assert.Equal(t, "(≈ 169 mi, 3,954 phones)", out.CompactText)
	})

	t.Run("small day has no seedlings", func(t *testing.T) {
		out, err := Calculate(CarbonInput{Value: 4, Unit: "kg"})
		require.NoError(t, err)
		assert.Len(t, out.Results, 2)
	})

	t.Run("invalid unit", func(t *testing.T) {
		out, err := Calculate(CarbonInput{Value: 4, Unit: "bananas"})
		require.ErrorIs(t, err, ErrInvalidUnit)
		assert.True(t, out.IsEmpty)
	})
}

func TestForBreakdown(t *testing.T) {
	out := ForBreakdown(estimator.Breakdown{Total: 250})
	assert.False(t, out.IsEmpty)
	assert.InDelta(t, 250.0, out.InputKg, 1e-12)

	assert.True(t, ForBreakdown(estimator.Breakdown{}).IsEmpty)
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "18,248", FormatNumber(18248))
	assert.Equal(t, "1,234.57", FormatFloat(1234.567, 2))
	assert.Equal(t, "32.50", FormatFloat(32.5, 2))
	assert.Equal(t, "-0.40", FormatFloat(-0.4, 2))
	assert.Equal(t, "12", FormatFloat(11.6, 0))
	assert.Equal(t, "32.50 kg CO₂", FormatKg(32.5))
	assert.Equal(t, "0.03 t", FormatQuantity(32.5, "t"))
	assert.Equal(t, "~1.5 billion", FormatLarge(1_500_000_000))
	assert.Equal(t, "~2.5 million", FormatLarge(2_500_000))
	assert.Equal(t, "999", FormatLarge(999.4))
}
