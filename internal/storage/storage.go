// Package storage persists one computed daily log per user and date.
//
// Both backends implement full-replacement upserts: submitting a date that
// already exists discards the previous trips and meals, keeps the record's
// ID and CreatedAt, and refreshes UpdatedAt. Deleting by date is never
// supported.
package storage

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/rshade/footprint/internal/activity"
)

// Backend names accepted by Open.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

var (
	// ErrLogNotFound is returned when no log exists for the user and date.
	ErrLogNotFound = errors.New("daily log not found")
	// ErrStoreCorrupted indicates the store file exists but cannot be used.
	ErrStoreCorrupted = errors.New("log store corrupted")
	// ErrUnknownBackend is returned by Open for unsupported backends.
	ErrUnknownBackend = errors.New("unknown storage backend")
	// ErrUserRequired is returned when the user id is blank.
	ErrUserRequired = errors.New("user id is required")
)

// Range bounds a List query by date, inclusive. Empty bounds are open.
type Range struct {
	From string
	To   string
}

// Contains reports whether date falls inside the range.
func (r Range) Contains(date string) bool {
	if r.From != "" && date < r.From {
		return false
	}
	if r.To != "" && date > r.To {
		return false
	}
	return true
}

// Validate checks that both bounds are dates and From is not after To.
func (r Range) Validate() error {
	for _, d := range []string{r.From, r.To} {
		if d == "" {
			continue
		}
		if _, err := activity.ParseDate(d); err != nil {
			return err
		}
	}
	if r.From != "" && r.To != "" && r.From > r.To {
		return fmt.Errorf("%w: from %s is after to %s", activity.ErrInvalidDate, r.From, r.To)
	}
	return nil
}

// Store persists daily logs.
type Store interface {
	// Upsert stores rec for userID and rec.Date, replacing any existing day.
	Upsert(ctx context.Context, userID string, rec activity.StoredLog) (activity.StoredLog, error)
	// Get returns the day or ErrLogNotFound.
	Get(ctx context.Context, userID, date string) (activity.StoredLog, error)
	// List returns days in the range in ascending date order.
	List(ctx context.Context, userID string, r Range) ([]activity.StoredLog, error)
	// Delete always fails with activity.ErrDeleteUnsupported.
	Delete(ctx context.Context, userID, date string) error
	// Users lists every user with at least one stored day.
	Users(ctx context.Context) ([]string, error)
	// Revision changes whenever the user's logs change.
	Revision(ctx context.Context, userID string) (int64, error)
	Close() error
}

// Config selects and locates a backend.
type Config struct {
	Backend string
	Path    string
}

// Open returns the backend named by cfg.Backend.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case BackendJSON, "":
		s, err := OpenJSONStore(ctx, cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendSQLite:
		s, err := OpenSQLiteStore(ctx, cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}

// NewID returns a new log id.
func NewID(now time.Time) string {
	return ulid.MustNew(ulid.Timestamp(now), rand.Reader).String()
}

// prepare fills the bookkeeping fields of rec before it is written. existing
// is the record currently stored for the same date, if any.
func prepare(userID string, rec activity.StoredLog, existing *activity.StoredLog, now time.Time) activity.StoredLog {
	out := rec.Clone()
	out.UserID = userID
	out.UpdatedAt = now
	if out.Transportation == nil {
		out.Transportation = []activity.TripPayload{}
	}
	if out.Food == nil {
		out.Food = []activity.MealPayload{}
	}
	if existing != nil {
		out.ID = existing.ID
		out.CreatedAt = existing.CreatedAt
		return out
	}
	if out.ID == "" {
		out.ID = NewID(now)
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = now
	}
	return out
}

func checkUpsert(userID string, rec activity.StoredLog) error {
	if strings.TrimSpace(userID) == "" {
		return ErrUserRequired
	}
	if _, err := activity.ParseDate(rec.Date); err != nil {
		return err
	}
	if rec.ToLog().IsEmpty() {
		return activity.ErrEmptyLog
	}
	return nil
}
