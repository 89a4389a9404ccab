package activity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Field is a user-entered value that may arrive as a JSON string, a JSON
// number or null. It keeps the raw text; interpretation happens in the
// normalizer so that malformed input can fall back to a default.
type Field string

// FieldFromFloat formats f as a Field.
func FieldFromFloat(f float64) Field {
	return Field(strconv.FormatFloat(f, 'f', -1, 64))
}

// FieldFromInt formats n as a Field.
func FieldFromInt(n int) Field {
	return Field(strconv.Itoa(n))
}

// String returns the raw text.
func (f Field) String() string {
	return string(f)
}

// UnmarshalJSON accepts strings, numbers, booleans and null.
// Objects and arrays are rejected.
func (f *Field) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = Field(s)
		return nil
	case '{', '[':
		return fmt.Errorf("field must be a string or number, got %s", data)
	default:
		// Numbers and literals keep their JSON text.
		*f = Field(data)
		return nil
	}
}

// MarshalJSON writes the raw text as a JSON string.
func (f Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(f))
}

// EditableTrip is a trip as entered in the UI.
type EditableTrip struct {
	Mode        string `json:"mode"`
	Distance    Field  `json:"distance"`
	Description string `json:"description,omitempty"`
}

// EditableEnergy holds the UI energy fields. Heating is folded into
// electricity when normalized.
type EditableEnergy struct {
	Electricity Field `json:"electricity"`
	Heating     Field `json:"heating"`
}

// EditableMeal is a meal as entered in the UI.
type EditableMeal struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Servings    Field  `json:"servings"`
}

// EditableActivities is the editable activity set for one day.
type EditableActivities struct {
	Transport []EditableTrip `json:"transport"`
	Energy    EditableEnergy `json:"energy"`
	Meals     []EditableMeal `json:"meals"`
}

// DatedActivities pairs an editable activity set with the date it belongs to.
// It is the unit of bulk import.
type DatedActivities struct {
	Date       string             `json:"date"`
	Activities EditableActivities `json:"activities"`
}
