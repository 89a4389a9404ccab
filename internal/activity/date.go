package activity

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date format used for log keys.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// Today returns now's calendar date in now's location.
func Today(now time.Time) string {
	return now.Format(DateLayout)
}
