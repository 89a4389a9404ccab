package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/rshade/footprint/internal/activity"
	"github.com/rshade/footprint/internal/logging"
)

const sqliteTimeLayout = time.RFC3339Nano

// SQLiteStore keeps logs in a SQLite database with one row per day and child
// rows for trips and meals.
type SQLiteStore struct {
	path string
	db   *sql.DB
	now  func() time.Time
}

// OpenSQLiteStore opens or creates the database at path and applies pending
// schema migrations.
func OpenSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("sqlite store path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One connection keeps the pragmas below in effect for every query.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
	} {
		if _, err = db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("configuring database (%s): %w", pragma, err)
		}
	}

	applied, err := applyMigrations(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	logging.FromContext(ctx).Debug().
		Str("component", "storage").
		Str("backend", BackendSQLite).
		Str("path", path).
		Int("migrations_applied", applied).
		Msg("sqlite store opened")

	return &SQLiteStore{
		path: path,
		db:   db,
		now:  func() time.Time { return time.Now().UTC() },
	}, nil
}

// Path returns the database file.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Upsert implements Store.
func (s *SQLiteStore) Upsert(ctx context.Context, userID string, rec activity.StoredLog) (activity.StoredLog, error) {
	if err := checkUpsert(userID, rec); err != nil {
		return activity.StoredLog{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return activity.StoredLog{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var existing *activity.StoredLog
	var id, createdAt string
	err = tx.QueryRowContext(ctx,
		`SELECT id, created_at FROM daily_logs WHERE user_id = ? AND date = ?`,
		userID, rec.Date,
	).Scan(&id, &createdAt)
	switch {
	case err == nil:
		created, parseErr := time.Parse(sqliteTimeLayout, createdAt)
		if parseErr != nil {
			return activity.StoredLog{}, fmt.Errorf("%w: created_at %q", ErrStoreCorrupted, createdAt)
		}
		existing = &activity.StoredLog{ID: id, CreatedAt: created}
	case !errors.Is(err, sql.ErrNoRows):
		return activity.StoredLog{}, fmt.Errorf("checking existing log: %w", err)
	}

	stored := prepare(userID, rec, existing, s.now())

	_, err = tx.ExecContext(ctx, `
		INSERT INTO daily_logs (
			id, user_id, date, total_emissions, transport_emissions, electricity_emissions,
			food_emissions, electricity_kwh, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, date) DO UPDATE SET
			total_emissions = excluded.total_emissions,
			transport_emissions = excluded.transport_emissions,
			electricity_emissions = excluded.electricity_emissions,
			food_emissions = excluded.food_emissions,
			electricity_kwh = excluded.electricity_kwh,
			updated_at = excluded.updated_at`,
		stored.ID, userID, stored.Date, stored.TotalEmissions, stored.TransportEmissions,
		stored.ElectricityEmissions, stored.FoodEmissions, stored.ElectricityKwh,
		stored.CreatedAt.Format(sqliteTimeLayout), stored.UpdatedAt.Format(sqliteTimeLayout),
	)
	if err != nil {
		return activity.StoredLog{}, fmt.Errorf("upserting daily log: %w", err)
	}

	if err = replaceChildren(ctx, tx, stored); err != nil {
		return activity.StoredLog{}, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO user_revisions (user_id, revision) VALUES (?, 1)
		ON CONFLICT(user_id) DO UPDATE SET revision = revision + 1`, userID)
	if err != nil {
		return activity.StoredLog{}, fmt.Errorf("bumping revision: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return activity.StoredLog{}, fmt.Errorf("committing daily log: %w", err)
	}
	return stored, nil
}

// replaceChildren discards the day's previous trips and meals and writes the
// new ones in order.
func replaceChildren(ctx context.Context, tx *sql.Tx, rec activity.StoredLog) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM transport_trips WHERE log_id = ?`, rec.ID); err != nil {
		return fmt.Errorf("clearing trips: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM meal_entries WHERE log_id = ?`, rec.ID); err != nil {
		return fmt.Errorf("clearing meals: %w", err)
	}

	tripStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO transport_trips (log_id, position, mode, distance_km, description) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer tripStmt.Close()
	for i, t := range rec.Transportation {
		if _, err = tripStmt.ExecContext(ctx, rec.ID, i, string(t.Mode), t.DistanceKm, t.Description); err != nil {
			return fmt.Errorf("inserting trip %d: %w", i, err)
		}
	}

	mealStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO meal_entries (log_id, position, meal_type, meals_count, description) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer mealStmt.Close()
	for i, m := range rec.Food {
		if _, err = mealStmt.ExecContext(ctx, rec.ID, i, string(m.MealType), m.MealsCount, m.Description); err != nil {
			return fmt.Errorf("inserting meal %d: %w", i, err)
		}
	}
	return nil
}

const selectLogColumns = `SELECT id, user_id, date, total_emissions, transport_emissions,
	electricity_emissions, food_emissions, electricity_kwh, created_at, updated_at FROM daily_logs`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLog(row rowScanner) (activity.StoredLog, error) {
	var rec activity.StoredLog
	var createdAt, updatedAt string
	if err := row.Scan(&rec.ID, &rec.UserID, &rec.Date, &rec.TotalEmissions, &rec.TransportEmissions,
		&rec.ElectricityEmissions, &rec.FoodEmissions, &rec.ElectricityKwh, &createdAt, &updatedAt); err != nil {
		return activity.StoredLog{}, err
	}
	var err error
	if rec.CreatedAt, err = time.Parse(sqliteTimeLayout, createdAt); err != nil {
		return activity.StoredLog{}, fmt.Errorf("%w: created_at %q", ErrStoreCorrupted, createdAt)
	}
	if rec.UpdatedAt, err = time.Parse(sqliteTimeLayout, updatedAt); err != nil {
		return activity.StoredLog{}, fmt.Errorf("%w: updated_at %q", ErrStoreCorrupted, updatedAt)
	}
	return rec, nil
}

func (s *SQLiteStore) loadChildren(ctx context.Context, rec *activity.StoredLog) error {
	rec.Transportation = []activity.TripPayload{}
	rec.Food = []activity.MealPayload{}

	rows, err := s.db.QueryContext(ctx,
		`SELECT mode, distance_km, description FROM transport_trips WHERE log_id = ? ORDER BY position`, rec.ID)
	if err != nil {
		return fmt.Errorf("loading trips: %w", err)
	}
	for rows.Next() {
		var t activity.TripPayload
		var mode string
		if err = rows.Scan(&mode, &t.DistanceKm, &t.Description); err != nil {
			_ = rows.Close()
			return err
		}
		t.Mode = activity.Mode(mode)
		rec.Transportation = append(rec.Transportation, t)
	}
	if err = rows.Close(); err != nil {
		return err
	}
	if err = rows.Err(); err != nil {
		return err
	}

	rows, err = s.db.QueryContext(ctx,
		`SELECT meal_type, meals_count, description FROM meal_entries WHERE log_id = ? ORDER BY position`, rec.ID)
	if err != nil {
		return fmt.Errorf("loading meals: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var m activity.MealPayload
		var diet string
		if err = rows.Scan(&diet, &m.MealsCount, &m.Description); err != nil {
			return err
		}
		m.MealType = activity.Diet(diet)
		rec.Food = append(rec.Food, m)
	}
	return rows.Err()
}

// Get implements Store.
func (s *SQLiteStore) Get(ctx context.Context, userID, date string) (activity.StoredLog, error) {
	rec, err := scanLog(s.db.QueryRowContext(ctx, selectLogColumns+` WHERE user_id = ? AND date = ?`, userID, date))
	if errors.Is(err, sql.ErrNoRows) {
		return activity.StoredLog{}, fmt.Errorf("%w: %s %s", ErrLogNotFound, userID, date)
	}
	if err != nil {
		return activity.StoredLog{}, fmt.Errorf("loading daily log: %w", err)
	}
	if err = s.loadChildren(ctx, &rec); err != nil {
		return activity.StoredLog{}, err
	}
	return rec, nil
}

// List implements Store.
func (s *SQLiteStore) List(ctx context.Context, userID string, r Range) ([]activity.StoredLog, error) {
	query := selectLogColumns + ` WHERE user_id = ?`
	args := []any{userID}
	if r.From != "" {
		query += ` AND date >= ?`
		args = append(args, r.From)
	}
	if r.To != "" {
		query += ` AND date <= ?`
		args = append(args, r.To)
	}
	query += ` ORDER BY date`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing daily logs: %w", err)
	}
	out := []activity.StoredLog{}
	for rows.Next() {
		rec, scanErr := scanLog(rows)
		if scanErr != nil {
			_ = rows.Close()
			return nil, scanErr
		}
		out = append(out, rec)
	}
	if err = rows.Close(); err != nil {
		return nil, err
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	// Children are loaded after the cursor closes; the pool has one connection.
	for i := range out {
		if err = s.loadChildren(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Delete implements Store.
func (s *SQLiteStore) Delete(context.Context, string, string) error {
	return activity.ErrDeleteUnsupported
}

// Users implements Store.
func (s *SQLiteStore) Users(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT user_id FROM daily_logs ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()
	users := []string{}
	for rows.Next() {
		var id string
		if err = rows.Scan(&id); err != nil {
			return nil, err
		}
		users = append(users, id)
	}
	return users, rows.Err()
}

// Revision implements Store.
func (s *SQLiteStore) Revision(ctx context.Context, userID string) (int64, error) {
	var rev int64
	err := s.db.QueryRowContext(ctx, `SELECT revision FROM user_revisions WHERE user_id = ?`, userID).Scan(&rev)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading revision: %w", err)
	}
	return rev, nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SnapshotSQLite writes a consistent copy of the database at path to dst,
// including changes still held in its write-ahead log. dst must not exist.
func SnapshotSQLite(ctx context.Context, path, dst string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	if _, err = db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		return fmt.Errorf("configuring database: %w", err)
	}
	if _, err = db.ExecContext(ctx, "VACUUM INTO ?", dst); err != nil {
		return fmt.Errorf("snapshotting database: %w", err)
	}
	return nil
}
