package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rshade/footprint/internal/activity"
)

func TestParseFloat(t *testing.T) {
	tests := []struct {
		name  string
		input activity.Field
		def   float64
		want  float64
	}{
		{name: "integer text", input: "100", want: 100},
		{name: "decimal text", input: "12.5", want: 12.5},
		{name: "surrounding spaces", input: "  7 ", want: 7},
		{name: "empty uses default", input: "", def: 0, want: 0},
		{name: "non-numeric uses default", input: "abc", want: 0},
		{name: "non-numeric custom default", input: "abc", def: 3, want: 3},
		{name: "numeric prefix", input: "12km", want: 12},
		{name: "leading dot", input: ".5", want: 0.5},
		{name: "negative clamped", input: "-4", want: 0},
		{name: "negative prefix clamped", input: "-4kWh", want: 0},
		{name: "NaN uses default", input: "NaN", want: 0},
		{name: "infinity uses default", input: "Inf", want: 0},
		{name: "exponent", input: "1e3", want: 1000},
		{name: "second dot ends number", input: "1.2.3", want: 1.2},
		{name: "exponent with unit", input: "2.5e3 kWh", want: 2500},
		{name: "exponent prefix", input: "1e5km", want: 100000},
		{name: "signed exponent prefix", input: "4E-1 km", want: 0.4},
		{name: "dangling exponent ignored", input: "3e km", want: 3},
		{name: "dangling signed exponent ignored", input: "3e+x", want: 3},
		{name: "overflow uses default", input: "1e400", want: 0},
		{name: "overflow custom default", input: "1e400", def: 5, want: 5},
		{name: "overflow prefix uses default", input: "1e400 km", def: 2, want: 2},
		{name: "underflow reads as zero", input: "1e-400", def: 7, want: 0},
		{name: "sign only uses default", input: "-", def: 2, want: 2},
		{name: "dot only uses default", input: ".", def: 2, want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ParseFloat(tt.input, tt.def), 1e-12)
		})
	}
}

func TestParseServings(t *testing.T) {
	tests := []struct {
		input activity.Field
		want  int
	}{
		{"2", 2},
		{"", 1},
		{"abc", 1},
		{"0", 1},
		{"-3", 1},
		{"2.7", 2},
		{"3 plates", 3},
		{" 4", 4},
		{"99999999999999999999", 1 << 30},
	}

	for _, tt := range tests {
		t.Run(string(tt.input), func(t *testing.T) {
			assert.Equal(t, tt.want, ParseServings(tt.input))
		})
	}
}

func TestClampHelpers(t *testing.T) {
	assert.Equal(t, 1, ClampServings(0))
	assert.Equal(t, 5, ClampServings(5))
	assert.InDelta(t, 0.0, ClampDistance(-1), 1e-12)
	assert.InDelta(t, 2.5, ClampDistance(2.5), 1e-12)
}
