package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rshade/footprint/internal/activity"
	"github.com/rshade/footprint/internal/config"
	"github.com/rshade/footprint/internal/engine"
	"github.com/rshade/footprint/internal/engine/cache"
	"github.com/rshade/footprint/internal/logging"
	"github.com/rshade/footprint/internal/storage"
)

// ErrBadActivityFlag is returned for --trip and --meal values that are not
// label=value pairs.
var ErrBadActivityFlag = errors.New("expected label=value")

// auditContext holds common context for audit logging within a data-changing command.
type auditContext struct {
	logger  logging.AuditLogger
	traceID string
	params  map[string]string
	start   time.Time
	command string
}

// newAuditContext creates a new audit context.
func newAuditContext(ctx context.Context, command string, params map[string]string) *auditContext {
	return &auditContext{
		logger:  logging.AuditLoggerFromContext(ctx),
		traceID: logging.TraceIDFromContext(ctx),
		params:  params,
		start:   time.Now(),
		command: command,
	}
}

// logFailure logs an audit entry for a failed operation.
func (a *auditContext) logFailure(ctx context.Context, err error) {
	entry := logging.NewAuditEntry(a.command, a.traceID).
		WithParameters(a.params).
		WithError(err.Error()).
		WithDuration(a.start)
	a.logger.Log(ctx, *entry)
}

// logSuccess logs an audit entry for a successful operation.
func (a *auditContext) logSuccess(ctx context.Context, count int, totalKg float64) {
	entry := logging.NewAuditEntry(a.command, a.traceID).
		WithParameters(a.params).
		WithSuccess(count, totalKg).
		WithDuration(a.start)
	a.logger.Log(ctx, *entry)
}

// resolveUser returns --user, or the configured default user.
func resolveUser(cmd *cobra.Command) string {
	if u, _ := cmd.Flags().GetString("user"); strings.TrimSpace(u) != "" {
		return strings.TrimSpace(u)
	}
	return config.GetUser()
}

// openStore opens the configured log store.
func openStore(ctx context.Context, cfg *config.Config) (storage.Store, string, error) {
	path, err := cfg.StoragePath()
	if err != nil {
		return nil, "", fmt.Errorf("resolving storage path: %w", err)
	}
	store, err := storage.Open(ctx, storage.Config{Backend: cfg.Storage.Backend, Path: path})
	if err != nil {
		return nil, "", fmt.Errorf("opening %s store at %s: %w", cfg.Storage.Backend, path, err)
	}
	return store, path, nil
}

// openReportCache builds the history report cache from config, the
// FOOTPRINT_CACHE_* environment and --cache-ttl, in increasing precedence.
func openReportCache(cmd *cobra.Command, cfg *config.Config) (*cache.FileStore, error) {
	enabled := cache.GetCacheEnabledFromEnv(cfg.Cache.Enabled)
	ttl := cache.GetTTLFromEnv(cfg.Cache.TTLSeconds)
	if flagTTL, _ := cmd.Flags().GetInt("cache-ttl"); flagTTL > 0 {
		ttl = flagTTL
	}
	if ttl == 0 {
		ttl = cache.DefaultTTLSeconds
	}
	if enabled {
		if err := cache.ValidateTTL(ttl); err != nil {
			return nil, err
		}
	}

	dir := cache.GetCacheDirFromEnv()
	if dir == "" {
		var err error
		if dir, err = cfg.CacheDir(); err != nil {
			return nil, err
		}
	}
	return cache.NewFileStore(dir, enabled, ttl)
}

// openEngine wires the configured store, factor table and report cache into
// an engine. The returned cleanup closes the store.
func openEngine(cmd *cobra.Command, tune ...func(*engine.Options)) (*engine.Engine, func(), error) {
	ctx := cmd.Context()
	log := logging.FromContext(ctx)
	cfg := config.GetGlobalConfig()

	factors, err := cfg.EmissionFactors()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid emission factors: %w", err)
	}

	reportCache, err := openReportCache(cmd, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("opening report cache: %w", err)
	}

	store, path, err := openStore(ctx, cfg)
	if err != nil {
		log.Error().Ctx(ctx).Err(err).Str("backend", cfg.Storage.Backend).Msg("failed to open store")
		return nil, nil, err
	}
	log.Debug().Ctx(ctx).Str("backend", cfg.Storage.Backend).Str("path", path).Msg("store opened")

	opts := engine.Options{
		Store:   store,
		Factors: &factors,
		Cache:   reportCache,
	}
	for _, fn := range tune {
		fn(&opts)
	}
	eng, err := engine.New(opts)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	cleanup := func() {
		if closeErr := store.Close(); closeErr != nil {
			log.Warn().Ctx(ctx).Err(closeErr).Msg("closing store")
		}
	}
	return eng, cleanup, nil
}

// activityFlags are the flags shared by log add and estimate.
type activityFlags struct {
	date        string
	file        string
	trips       []string
	electricity string
	heating     string
	meals       []string
}

func (f *activityFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.date, "date", "", "date as YYYY-MM-DD (default today)")
	cmd.Flags().StringVarP(&f.file, "file", "f", "",
		"read activities from a JSON file ('-' for stdin) instead of flags")
	cmd.Flags().StringArrayVar(&f.trips, "trip", nil,
		`trip as "Mode=km[=description]", e.g. "Car (Gasoline)=100=to work" (repeatable)`)
	cmd.Flags().StringVar(&f.electricity, "electricity", "", "electricity used in kWh")
	cmd.Flags().StringVar(&f.heating, "heating", "", "heating energy in kWh, added to electricity")
	cmd.Flags().StringArrayVar(&f.meals, "meal", nil,
		`meal as "Type=servings[=description]", e.g. "Vegan=2" (repeatable)`)
}

// activities returns the editable activity set and the date it is for.
// A file may hold either a bare activity set or {"date": ..., "activities": ...}.
func (f *activityFlags) activities(in io.Reader, today string) (activity.EditableActivities, string, error) {
	date := f.date
	if f.file != "" {
		data, err := readInput(f.file, in)
		if err != nil {
			return activity.EditableActivities{}, "", err
		}
		var dated activity.DatedActivities
		if err = json.Unmarshal(data, &dated); err == nil && dated.Date != "" {
			if date == "" {
				date = dated.Date
			}
			return dated.Activities, orToday(date, today), nil
		}
		var ea activity.EditableActivities
		if err = json.Unmarshal(data, &ea); err != nil {
			return activity.EditableActivities{}, "", fmt.Errorf("parsing %s: %w", f.file, err)
		}
		return ea, orToday(date, today), nil
	}

	ea := activity.EditableActivities{
		Energy: activity.EditableEnergy{
			Electricity: activity.Field(f.electricity),
			Heating:     activity.Field(f.heating),
		},
	}
	for _, t := range f.trips {
		label, km, desc, ok := splitActivityFlag(t)
		if !ok {
			return ea, "", fmt.Errorf("--trip %q: %w", t, ErrBadActivityFlag)
		}
		ea.Transport = append(ea.Transport, activity.EditableTrip{
			Mode:        label,
			Distance:    activity.Field(km),
			Description: desc,
		})
	}
	for _, m := range f.meals {
		label, servings, desc, ok := splitActivityFlag(m)
		if !ok {
			return ea, "", fmt.Errorf("--meal %q: %w", m, ErrBadActivityFlag)
		}
		ea.Meals = append(ea.Meals, activity.EditableMeal{
			Type:        label,
			Servings:    activity.Field(servings),
			Description: desc,
		})
	}
	return ea, orToday(date, today), nil
}

// splitActivityFlag splits "Label=amount[=description]". The description may
// itself contain '='.
func splitActivityFlag(v string) (label, amount, desc string, ok bool) {
	parts := strings.SplitN(v, "=", 3) //nolint:mnd // label, amount, description
	if len(parts) < 2 {               //nolint:mnd // label and amount are required
		return "", "", "", false
	}
	label = strings.TrimSpace(parts[0])
	amount = strings.TrimSpace(parts[1])
	if len(parts) == 3 { //nolint:mnd // description present
		desc = strings.TrimSpace(parts[2])
	}
	return label, amount, desc, true
}

func orToday(date, today string) string {
	if date == "" {
		return today
	}
	return date
}

// readInput reads path, or in when path is "-".
func readInput(path string, in io.Reader) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(in)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}
