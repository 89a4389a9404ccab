package config

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/rshade/footprint/internal/logging"
)

// bootstrap logs problems found while the configuration itself is loading,
// before the configured logger exists.
//
//nolint:gochecknoglobals // config loading happens before any logger is configured
var (
	bootstrapMu sync.RWMutex
	bootstrap   = newBootstrapLogger(os.Stderr)
)

func newBootstrapLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: true}).
		Level(zerolog.WarnLevel).
		With().
		Timestamp().
		Str("component", "config").
		Logger()
}

// SetBootstrapOutput redirects config-loading warnings to w and returns a
// function restoring the previous logger.
func SetBootstrapOutput(w io.Writer) func() {
	bootstrapMu.Lock()
	defer bootstrapMu.Unlock()
	prev := bootstrap
	bootstrap = newBootstrapLogger(w)
	return func() {
		bootstrapMu.Lock()
		bootstrap = prev
		bootstrapMu.Unlock()
	}
}

func bootstrapLogger() *zerolog.Logger {
	bootstrapMu.RLock()
	defer bootstrapMu.RUnlock()
	l := bootstrap
	return &l
}

// ToLoggingConfig converts the logging section into a logging.Config.
// A relative file is placed under the footprint logs directory; debug and
// trace levels also record the caller.
func (lc *LoggingConfig) ToLoggingConfig() logging.Config {
	out := logging.Config{
		Level:  lc.Level,
		Format: lc.Format,
		Output: "stderr",
	}
	if lc.File != "" {
		out.Output = outputTypeFile
		out.File = resolveLogFile(lc.File)
	}
	if lvl, err := zerolog.ParseLevel(lc.Level); err == nil && lvl <= zerolog.DebugLevel {
		out.Caller = true
	}
	return out
}

func resolveLogFile(file string) string {
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(filepath.Dir(DefaultLogFile()), file)
}

// GetLoggingConfig returns a copy of the global logging section. Flag and
// environment overrides are applied by the caller.
func GetLoggingConfig() LoggingConfig {
	return GetGlobalConfig().Logging
}
