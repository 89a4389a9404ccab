// Package activity defines the canonical daily activity log, the editable
// activity set entered by a user, and the JSON contracts exchanged with the
// log store.
//
// Canonical values (Mode, Diet) are what the estimator consumes. Editable
// values carry free-form UI labels and unparsed numeric text; converting
// between the two is the normalizer's job.
package activity

// Mode is a canonical transport mode.
type Mode string

// Canonical transport modes.
const (
	ModeCarPetrol   Mode = "car_petrol"
	ModeCarDiesel   Mode = "car_diesel"
	ModeCarElectric Mode = "car_electric"
	ModeCarHybrid   Mode = "car_hybrid"
	ModeBus         Mode = "bus"
	ModeTrain       Mode = "train"
	ModeSubway      Mode = "subway"
	ModeBicycle     Mode = "bicycle"
	ModeWalking     Mode = "walking"
	ModeMotorcycle  Mode = "motorcycle"
	ModeFlight      Mode = "flight"
)

// Modes returns every canonical transport mode in declaration order.
func Modes() []Mode {
	return []Mode{
		ModeCarPetrol,
		ModeCarDiesel,
		ModeCarElectric,
		ModeCarHybrid,
		ModeBus,
		ModeTrain,
		ModeSubway,
		ModeBicycle,
		ModeWalking,
		ModeMotorcycle,
		ModeFlight,
	}
}

// Valid reports whether m is one of the canonical modes.
func (m Mode) Valid() bool {
	for _, known := range Modes() {
		if m == known {
			return true
		}
	}
	return false
}

// Diet is a canonical meal diet category.
type Diet string

// Canonical diet categories.
const (
	DietVegan         Diet = "vegan"
	DietVegetarian    Diet = "vegetarian"
	DietNonVegetarian Diet = "non_vegetarian"
)

// Diets returns every canonical diet category.
func Diets() []Diet {
	return []Diet{DietVegan, DietVegetarian, DietNonVegetarian}
}

// Valid reports whether d is one of the canonical diet categories.
func (d Diet) Valid() bool {
	switch d {
	case DietVegan, DietVegetarian, DietNonVegetarian:
		return true
	default:
		return false
	}
}

// ParseDiet maps a stored diet value to its canonical category.
// The legacy values "veg" and "non_veg" written by older clients are accepted.
// Unknown values return false.
func ParseDiet(s string) (Diet, bool) {
	switch s {
	case string(DietVegan):
		return DietVegan, true
	case string(DietVegetarian), "veg":
		return DietVegetarian, true
	case string(DietNonVegetarian), "non_veg":
		return DietNonVegetarian, true
	default:
		return "", false
	}
}

// TransportTrip is a single canonical trip.
type TransportTrip struct {
	Mode        Mode
	DistanceKm  float64
	Description string
}

// MealEntry is a canonical meal record.
type MealEntry struct {
	MealType      Diet
	ServingsCount int
	Description   string
}

// ActivityLog is one user's canonical activity set for one calendar date.
// Electricity already includes heating; the two are not tracked separately.
type ActivityLog struct {
	Date           string
	Transportation []TransportTrip
	ElectricityKwh float64
	Food           []MealEntry
}

// IsEmpty reports whether the log records no activity at all.
func (l ActivityLog) IsEmpty() bool {
	return len(l.Transportation) == 0 && l.ElectricityKwh == 0 && len(l.Food) == 0
}

// Validate checks the submission preconditions: a well-formed date and at
// least one activity.
func (l ActivityLog) Validate() error {
	if _, err := ParseDate(l.Date); err != nil {
		return err
	}
	if l.IsEmpty() {
		return ErrEmptyLog
	}
	return nil
}

// Clone returns a deep copy of the log.
func (l ActivityLog) Clone() ActivityLog {
	c := l
	if l.Transportation != nil {
		c.Transportation = append([]TransportTrip(nil), l.Transportation...)
	}
	if l.Food != nil {
		c.Food = append([]MealEntry(nil), l.Food...)
	}
	return c
}
