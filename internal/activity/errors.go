package activity

import "errors"

var (
	// ErrEmptyLog is returned when a day has no trips, no energy use and no meals.
	// Empty days are never persisted.
	ErrEmptyLog = errors.New("activity log is empty: add at least one trip, energy reading or meal")

	// ErrInvalidDate is returned for dates that are not in YYYY-MM-DD form.
	ErrInvalidDate = errors.New("invalid date, expected YYYY-MM-DD")

	// ErrDeleteUnsupported is returned by every delete-by-date path.
	// Daily logs are only ever replaced, never removed.
	ErrDeleteUnsupported = errors.New("deleting a daily log is not supported; submit a replacement instead")
)
