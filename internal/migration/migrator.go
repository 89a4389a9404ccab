// Package migration copies stored logs between storage backends.
//
// Migration never removes anything from the source: logs are copied into the
// destination and the source file is optionally backed up first.
package migration

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rshade/footprint/internal/logging"
	"github.com/rshade/footprint/internal/storage"
)

// ErrSameStore is returned when source and destination are the same file.
var ErrSameStore = errors.New("source and destination are the same store")

// Result summarizes a copy.
type Result struct {
	Users    int
	Logs     int
	Skipped  int
	Duration time.Duration
}

// Options controls Copy.
type Options struct {
	// Overwrite replaces days that already exist in the destination.
	Overwrite bool
}

// Copy writes every user's logs from src into dst. Each day keeps its ID and
// CreatedAt. Days already present in dst are skipped unless Overwrite is set.
func Copy(ctx context.Context, src, dst storage.Store, opts Options) (Result, error) {
	start := time.Now()
	log := logging.FromContext(ctx).With().Str("component", "migration").Logger()

	var res Result
	users, err := src.Users(ctx)
	if err != nil {
		return res, fmt.Errorf("listing source users: %w", err)
	}

	for _, user := range users {
		logs, listErr := src.List(ctx, user, storage.Range{})
		if listErr != nil {
			return res, fmt.Errorf("listing logs for %s: %w", user, listErr)
		}
		res.Users++
		for _, rec := range logs {
			if err = ctx.Err(); err != nil {
				return res, err
			}
			if !opts.Overwrite {
				_, getErr := dst.Get(ctx, user, rec.Date)
				if getErr == nil {
					res.Skipped++
					continue
				}
				if !errors.Is(getErr, storage.ErrLogNotFound) {
					return res, fmt.Errorf("checking %s %s: %w", user, rec.Date, getErr)
				}
			}
			if _, err = dst.Upsert(ctx, user, rec); err != nil {
				return res, fmt.Errorf("copying %s %s: %w", user, rec.Date, err)
			}
			res.Logs++
		}
		log.Debug().Str("user", user).Int("logs", len(logs)).Msg("user migrated")
	}

	res.Duration = time.Since(start)
	log.Info().
		Int("users", res.Users).
		Int("logs", res.Logs).
		Int("skipped", res.Skipped).
		Dur("duration", res.Duration).
		Msg("migration complete")
	return res, nil
}

// CheckDistinct fails when both paths resolve to the same file.
func CheckDistinct(srcPath, dstPath string) error {
	a, errA := filepath.Abs(srcPath)
	b, errB := filepath.Abs(dstPath)
	if errA != nil || errB != nil {
		return nil
	}
	if a == b {
		return fmt.Errorf("%w: %s", ErrSameStore, a)
	}
	return nil
}

// Confirm prints prompt and reads a yes/no answer. Anything other than "y" or
// "yes" is a no, including unreadable input.
func Confirm(out io.Writer, in io.Reader, prompt string) bool {
	fmt.Fprintf(out, "%s [y/N] ", prompt)

	var response string
	if _, scanErr := fmt.Fscanln(in, &response); scanErr != nil {
		response = ""
	}
	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes"
}

// Backup copies the store file at path to path.bak.<timestamp> and returns
// the backup location. A SQLite store is snapshotted so that writes still in
// its write-ahead log are included. A missing source file is not an error and
// returns "".
func Backup(ctx context.Context, backend, path string, now time.Time) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	dst := fmt.Sprintf("%s.bak.%s", path, now.UTC().Format("20060102T150405Z"))

	if backend == storage.BackendSQLite {
		err = storage.SnapshotSQLite(ctx, path, dst)
		if err == nil {
			err = os.Chmod(dst, info.Mode())
		}
	} else {
		err = copyFile(path, dst)
	}
	if err != nil {
		return "", fmt.Errorf("backing up %s: %w", path, err)
	}
	return dst, nil
}

func copyFile(src, dst string) (err error) {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	if mkdirErr := os.MkdirAll(filepath.Dir(dst), 0o700); mkdirErr != nil {
		return mkdirErr
	}

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := destFile.Close(); err == nil {
			err = closeErr
		}
	}()

	if _, err = io.Copy(destFile, sourceFile); err != nil {
		return err
	}
	if err = destFile.Sync(); err != nil {
		return err
	}

	sourceInfo, err := os.Stat(src)
	if err != nil {
		return err
	}
	return os.Chmod(dst, sourceInfo.Mode())
}
