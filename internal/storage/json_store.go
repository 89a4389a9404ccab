package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"syscall"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/rshade/footprint/internal/activity"
	"github.com/rshade/footprint/internal/logging"
)

// JSONSchemaVersion is written to new documents. Documents with a different
// major version are rejected.
const JSONSchemaVersion = "1.0.0"

// jsonDocument is the serialized form of the store.
type jsonDocument struct {
	SchemaVersion string               `json:"schema_version"`
	Users         map[string]*jsonUser `json:"users"`
}

type jsonUser struct {
	Revision int64                         `json:"revision"`
	Logs     map[string]activity.StoredLog `json:"logs"`
}

// JSONStore keeps every user's logs in one JSON document. Every operation
// reads the file under a cross-process lockfile; writes replace it atomically.
type JSONStore struct {
	mu       sync.Mutex
	filePath string
	schema   *semver.Version
	now      func() time.Time
}

// OpenJSONStore opens (without creating) the document at path and checks its
// schema version.
func OpenJSONStore(ctx context.Context, path string) (*JSONStore, error) {
	if path == "" {
		return nil, errors.New("json store path is required")
	}
	s := &JSONStore{
		filePath: path,
		schema:   semver.MustParse(JSONSchemaVersion),
		now:      func() time.Time { return time.Now().UTC() },
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	unlock, err := s.acquireFileLock()
	if err != nil {
		return nil, fmt.Errorf("acquiring file lock: %w", err)
	}
	defer unlock()
	if _, err = s.readLocked(); err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Debug().
		Str("component", "storage").
		Str("backend", BackendJSON).
		Str("path", path).
		Msg("json store opened")
	return s, nil
}

// FilePath returns the document location.
func (s *JSONStore) FilePath() string {
	return s.filePath
}

// Upsert implements Store.
func (s *JSONStore) Upsert(ctx context.Context, userID string, rec activity.StoredLog) (activity.StoredLog, error) {
	if err := checkUpsert(userID, rec); err != nil {
		return activity.StoredLog{}, err
	}
	if err := ctx.Err(); err != nil {
		return activity.StoredLog{}, err
	}

	var stored activity.StoredLog
	err := s.update(func(doc *jsonDocument) error {
		u := doc.Users[userID]
		if u == nil {
			u = &jsonUser{Logs: make(map[string]activity.StoredLog)}
			doc.Users[userID] = u
		}
		var existing *activity.StoredLog
		if prev, ok := u.Logs[rec.Date]; ok {
			existing = &prev
		}
		stored = prepare(userID, rec, existing, s.now())
		u.Logs[rec.Date] = stored
		u.Revision++
		return nil
	})
	if err != nil {
		return activity.StoredLog{}, err
	}
	return stored.Clone(), nil
}

// Get implements Store.
func (s *JSONStore) Get(ctx context.Context, userID, date string) (activity.StoredLog, error) {
	if err := ctx.Err(); err != nil {
		return activity.StoredLog{}, err
	}
	doc, err := s.read()
	if err != nil {
		return activity.StoredLog{}, err
	}
	u := doc.Users[userID]
	if u == nil {
		return activity.StoredLog{}, fmt.Errorf("%w: %s %s", ErrLogNotFound, userID, date)
	}
	rec, ok := u.Logs[date]
	if !ok {
		return activity.StoredLog{}, fmt.Errorf("%w: %s %s", ErrLogNotFound, userID, date)
	}
	return rec.Clone(), nil
}

// List implements Store.
func (s *JSONStore) List(ctx context.Context, userID string, r Range) ([]activity.StoredLog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	out := []activity.StoredLog{}
	u := doc.Users[userID]
	if u == nil {
		return out, nil
	}
	for date, rec := range u.Logs {
		if r.Contains(date) {
			out = append(out, rec.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// Delete implements Store.
func (s *JSONStore) Delete(context.Context, string, string) error {
	return activity.ErrDeleteUnsupported
}

// Users implements Store.
func (s *JSONStore) Users(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	users := make([]string, 0, len(doc.Users))
	for id, u := range doc.Users {
		if len(u.Logs) > 0 {
			users = append(users, id)
		}
	}
	sort.Strings(users)
	return users, nil
}

// Revision implements Store.
func (s *JSONStore) Revision(ctx context.Context, userID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	doc, err := s.read()
	if err != nil {
		return 0, err
	}
	if u := doc.Users[userID]; u != nil {
		return u.Revision, nil
	}
	return 0, nil
}

// Close implements Store.
func (s *JSONStore) Close() error {
	return nil
}

func (s *JSONStore) read() (*jsonDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	unlock, err := s.acquireFileLock()
	if err != nil {
		return nil, fmt.Errorf("acquiring file lock: %w", err)
	}
	defer unlock()
	return s.readLocked()
}

func (s *JSONStore) update(fn func(*jsonDocument) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	unlock, err := s.acquireFileLock()
	if err != nil {
		return fmt.Errorf("acquiring file lock: %w", err)
	}
	defer unlock()

	doc, err := s.readLocked()
	if err != nil {
		return err
	}
	if err = fn(doc); err != nil {
		return err
	}
	return s.writeLocked(doc)
}

// readLocked loads the document. A missing file is an empty store; an
// unreadable one is ErrStoreCorrupted and is never silently reset.
func (s *JSONStore) readLocked() (*jsonDocument, error) {
	empty := &jsonDocument{
		SchemaVersion: s.schema.String(),
		Users:         make(map[string]*jsonUser),
	}

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return empty, nil
		}
		return nil, fmt.Errorf("reading log store: %w", err)
	}

	var doc jsonDocument
	if err = json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreCorrupted, err)
	}

	version, err := semver.NewVersion(doc.SchemaVersion)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid schema_version %q", ErrStoreCorrupted, doc.SchemaVersion)
	}
	if version.Major() != s.schema.Major() {
		return nil, fmt.Errorf("%w: unsupported schema_version %s (expected %d.x)",
			ErrStoreCorrupted, version, s.schema.Major())
	}

	if doc.Users == nil {
		doc.Users = make(map[string]*jsonUser)
	}
	for id, u := range doc.Users {
		if u == nil {
			doc.Users[id] = &jsonUser{Logs: make(map[string]activity.StoredLog)}
			continue
		}
		if u.Logs == nil {
			u.Logs = make(map[string]activity.StoredLog)
		}
	}
	doc.SchemaVersion = s.schema.String()
	return &doc, nil
}

func (s *JSONStore) writeLocked(doc *jsonDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling log store: %w", err)
	}

	if mkdirErr := os.MkdirAll(filepath.Dir(s.filePath), 0o750); mkdirErr != nil {
		return fmt.Errorf("creating log store directory: %w", mkdirErr)
	}

	tmpPath := s.filePath + ".tmp"
	if writeErr := os.WriteFile(tmpPath, data, 0o600); writeErr != nil {
		return fmt.Errorf("writing log store temp file: %w", writeErr)
	}
	if renameErr := os.Rename(tmpPath, s.filePath); renameErr != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("renaming log store temp file: %w", renameErr)
	}
	return nil
}

func (s *JSONStore) lockFilePath() string {
	return s.filePath + ".lock"
}

// acquireFileLock acquires a cross-process advisory lockfile.
// Returns a cleanup function that releases the lock.
func (s *JSONStore) acquireFileLock() (func(), error) {
	lockPath := s.lockFilePath()

	if err := os.MkdirAll(filepath.Dir(lockPath), 0o750); err != nil {
		return nil, fmt.Errorf("creating lock directory: %w", err)
	}

	const maxRetries = 50
	const retryDelay = 20 * time.Millisecond
	const staleLockAge = 30 * time.Second

	for range maxRetries {
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			_, _ = fmt.Fprintf(f, "%d", os.Getpid())
			_ = f.Close()
			return func() { _ = os.Remove(lockPath) }, nil
		}

		if removeStaleLock(lockPath, staleLockAge) {
			continue
		}
		time.Sleep(retryDelay)
	}

	return nil, fmt.Errorf("could not acquire lock on %s after retries", lockPath)
}

// removeStaleLock removes a lock older than staleLockAge whose owner is gone.
// Returns true if the lock was removed.
func removeStaleLock(lockPath string, staleLockAge time.Duration) bool {
	info, statErr := os.Stat(lockPath)
	if statErr != nil || time.Since(info.ModTime()) <= staleLockAge {
		return false
	}
	if isLockHeldByLiveProcess(lockPath) {
		return false
	}
	_ = os.Remove(lockPath)
	return true
}

func isLockHeldByLiveProcess(lockPath string) bool {
	pidData, readErr := os.ReadFile(lockPath)
	if readErr != nil || len(pidData) == 0 {
		return false
	}
	var pid int
	if _, scanErr := fmt.Sscanf(string(pidData), "%d", &pid); scanErr != nil || pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// Signal 0 tests process existence without delivering a signal.
	return proc.Signal(syscall.Signal(0)) == nil
}
