package estimator

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/rshade/footprint/internal/activity"
)

// Default emission factors.
const (
	// ElectricityFactorKgPerKwh is kg CO2 per kWh of electricity (heating included).
	ElectricityFactorKgPerKwh = 0.5

	// FoodFactorKgPerServing is kg CO2 per serving, independent of diet.
	FoodFactorKgPerServing = 2.0
)

// ErrInvalidFactor is returned by Validate for negative or non-finite factors.
var ErrInvalidFactor = errors.New("invalid emission factor")

// Factors is the emission factor table used by Estimate.
type Factors struct {
	// Transport maps a canonical mode to kg CO2 per km.
	Transport map[activity.Mode]float64 `json:"transport" yaml:"transport"`

	// ElectricityPerKwh is kg CO2 per kWh.
	ElectricityPerKwh float64 `json:"electricity_per_kwh" yaml:"electricity_per_kwh"`

	// FoodPerServing is kg CO2 per meal serving.
	FoodPerServing float64 `json:"food_per_serving" yaml:"food_per_serving"`
}

// DefaultFactors returns a fresh copy of the reference factor table.
func DefaultFactors() Factors {
	return Factors{
		Transport: map[activity.Mode]float64{
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
		},
		ElectricityPerKwh: ElectricityFactorKgPerKwh,
		FoodPerServing:    FoodFactorKgPerServing,
	}
}

// TransportFactor returns the per-km factor for mode, or 0 when the mode is unknown.
func (f Factors) TransportFactor(mode activity.Mode) float64 {
	return f.Transport[mode]
}

// Clone returns a deep copy.
func (f Factors) Clone() Factors {
	c := f
	c.Transport = make(map[activity.Mode]float64, len(f.Transport))
	for k, v := range f.Transport {
		c.Transport[k] = v
	}
	return c
}

// WithOverrides returns a copy of f with the given values replaced.
// Transport keys must be canonical mode names. Nil pointers leave the
// electricity and food factors unchanged.
func (f Factors) WithOverrides(transport map[string]float64, electricity, food *float64) (Factors, error) {
	out := f.Clone()
	for key, v := range transport {
		mode := activity.Mode(key)
		if !mode.Valid() {
			return Factors{}, fmt.Errorf("%w: unknown transport mode %q", ErrInvalidFactor, key)
		}
		out.Transport[mode] = v
	}
	if electricity != nil {
		out.ElectricityPerKwh = *electricity
	}
	if food != nil {
		out.FoodPerServing = *food
	}
	return out, out.Validate()
}

// Validate rejects negative, NaN and infinite factors.
func (f Factors) Validate() error {
	if err := checkFactor("electricity_per_kwh", f.ElectricityPerKwh); err != nil {
		return err
	}
	if err := checkFactor("food_per_serving", f.FoodPerServing); err != nil {
		return err
	}
	for _, mode := range f.SortedModes() {
		if err := checkFactor("transport."+string(mode), f.Transport[mode]); err != nil {
			return err
		}
	}
	return nil
}

// SortedModes returns the modes present in the transport table, sorted by name.
func (f Factors) SortedModes() []activity.Mode {
	modes := make([]activity.Mode, 0, len(f.Transport))
	for m := range f.Transport {
		modes = append(modes, m)
	}
	sort.Slice(modes, func(i, j int) bool { return modes[i] < modes[j] })
	return modes
}

func checkFactor(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return fmt.Errorf("%w: %s = %v", ErrInvalidFactor, name, v)
	}
	return nil
}
