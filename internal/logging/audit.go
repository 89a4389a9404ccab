package logging

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// AuditEntry records one data-changing command.
type AuditEntry struct {
	Timestamp  time.Time         `json:"timestamp"`
	Command    string            `json:"command"`
	TraceID    string            `json:"trace_id"`
	Parameters map[string]string `json:"parameters,omitempty"`
	Success    bool              `json:"success"`
	Error      string            `json:"error,omitempty"`
	Count      int               `json:"count"`
	TotalKg    float64           `json:"total_kg"`
	DurationMs int64             `json:"duration_ms"`
}

// NewAuditEntry starts an entry for command.
func NewAuditEntry(command, traceID string) *AuditEntry {
	return &AuditEntry{
		Timestamp: time.Now().UTC(),
		Command:   command,
		TraceID:   traceID,
	}
}

// WithParameters attaches the command parameters.
func (e *AuditEntry) WithParameters(params map[string]string) *AuditEntry {
	e.Parameters = params
	return e
}

// WithError marks the entry failed.
func (e *AuditEntry) WithError(msg string) *AuditEntry {
	e.Success = false
	e.Error = msg
	return e
}

// WithSuccess marks the entry successful with the number of days touched and
// their total emissions.
func (e *AuditEntry) WithSuccess(count int, totalKg float64) *AuditEntry {
	e.Success = true
	e.Count = count
	e.TotalKg = totalKg
	return e
}

// WithDuration sets the elapsed time since start.
func (e *AuditEntry) WithDuration(start time.Time) *AuditEntry {
	e.DurationMs = time.Since(start).Milliseconds()
	return e
}

// AuditLogger writes audit entries.
type AuditLogger interface {
	Log(ctx context.Context, entry AuditEntry)
	Close() error
}

// AuditLoggerConfig configures NewAuditLogger.
type AuditLoggerConfig struct {
	Enabled bool
	File    string
}

// NewAuditLogger returns a JSON-lines audit logger, or a no-op logger when
// disabled or when the file cannot be opened.
func NewAuditLogger(cfg AuditLoggerConfig) AuditLogger {
	if !cfg.Enabled || cfg.File == "" {
		return nopAuditLogger{}
	}
	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o700); err != nil {
		return nopAuditLogger{}
	}
	f, err := os.OpenFile(cfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nopAuditLogger{}
	}
	return &fileAuditLogger{
		file:   f,
		logger: zerolog.New(f),
	}
}

type fileAuditLogger struct {
	mu     sync.Mutex
	file   *os.File
	logger zerolog.Logger
}

func (l *fileAuditLogger) Log(_ context.Context, entry AuditEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return
	}
	ev := l.logger.Log().
		Time("timestamp", entry.Timestamp).
		Str("command", entry.Command).
		Str("trace_id", entry.TraceID).
		Bool("success", entry.Success).
		Int("count", entry.Count).
		Float64("total_kg", entry.TotalKg).
		Int64("duration_ms", entry.DurationMs)
	if len(entry.Parameters) > 0 {
		params := zerolog.Dict()
		for k, v := range entry.Parameters {
			params.Str(k, v)
		}
		ev = ev.Dict("parameters", params)
	}
	if entry.Error != "" {
		ev = ev.Str("error", entry.Error)
	}
	ev.Send()
}

func (l *fileAuditLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

type nopAuditLogger struct{}

func (nopAuditLogger) Log(context.Context, AuditEntry) {}
func (nopAuditLogger) Close() error                    { return nil }

type auditLoggerKey struct{}

// ContextWithAuditLogger stores l on ctx.
func ContextWithAuditLogger(ctx context.Context, l AuditLogger) context.Context {
	return context.WithValue(ctx, auditLoggerKey{}, l)
}

// AuditLoggerFromContext returns the audit logger on ctx, or a no-op logger.
func AuditLoggerFromContext(ctx context.Context) AuditLogger {
	if ctx != nil {
		if l, ok := ctx.Value(auditLoggerKey{}).(AuditLogger); ok {
			return l
		}
	}
	return nopAuditLogger{}
}
