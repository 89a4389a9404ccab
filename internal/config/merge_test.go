package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/footprint/internal/config"
)

// newDefaultTarget returns a Config with known non-zero values so tests can
// verify that absent overlay keys leave the original values intact.
func newDefaultTarget() *config.Config {
	electricity := 0.4
	return &config.Config{
		Output: config.OutputConfig{
			DefaultFormat: "table",
			Precision:     2,
		},
		Logging: config.LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Storage: config.StorageConfig{
			Backend: "json",
			Path:    "/data/logs.json",
		},
		Cache: config.CacheConfig{
			Enabled:    true,
			TTLSeconds: 3600,
		},
		Factors: config.FactorsConfig{
			Transport:         map[string]float64{"car_petrol": 0.2, "bus": 0.09},
			ElectricityPerKwh: &electricity,
		},
		Server: config.ServerConfig{Addr: "127.0.0.1:8080"},
		User:   "alice",
	}
}

// writeOverlay is a test helper that writes YAML content to a temp file
// and returns its path.
func writeOverlay(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "overlay.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestShallowMergeYAML_SingleKeyOverride(t *testing.T) {
	target := newDefaultTarget()
	overlay := writeOverlay(t, `
output:
  default_format: json
  precision: 4
`)

	err := config.ShallowMergeYAML(target, overlay)
	require.NoError(t, err)

	assert.Equal(t, "json", target.Output.DefaultFormat)
	assert.Equal(t, 4, target.Output.Precision)

	// Other sections should be unchanged.
	assert.Equal(t, "info", target.Logging.Level)
	assert.Equal(t, "json", target.Storage.Backend)
	assert.True(t, target.Cache.Enabled)
	assert.Equal(t, "alice", target.User)
}

func TestShallowMergeYAML_MultipleKeyOverride(t *testing.T) {
	target := newDefaultTarget()
	overlay := writeOverlay(t, `
storage:
  backend: sqlite
cache:
  enabled: false
  ttl_seconds: 600
user: bob
`)

	err := config.ShallowMergeYAML(target, overlay)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", target.Storage.Backend)
	assert.Empty(t, target.Storage.Path, "section is replaced, not merged")
	assert.False(t, target.Cache.Enabled)
	assert.Equal(t, 600, target.Cache.TTLSeconds)
	assert.Equal(t, "bob", target.User)
}

func TestShallowMergeYAML_FactorsReplaceWholeSection(t *testing.T) {
	target := newDefaultTarget()
	overlay := writeOverlay(t, `
factors:
  transport:
    flight: 0.3
`)

	err := config.ShallowMergeYAML(target, overlay)
	require.NoError(t, err)

	assert.Equal(t, map[string]float64{"flight": 0.3}, target.Factors.Transport)
	assert.Nil(t, target.Factors.ElectricityPerKwh)
}

func TestShallowMergeYAML_Budget(t *testing.T) {
	target := newDefaultTarget()
	overlay := writeOverlay(t, `
budget:
  daily_kg: 20
  alerts:
    - threshold: 80
    - threshold: 100
      type: forecasted
`)

	err := config.ShallowMergeYAML(target, overlay)
	require.NoError(t, err)

	assert.InDelta(t, 20.0, target.Budget.DailyKg, 1e-9)
	require.Len(t, target.Budget.Alerts, 2)
	assert.Equal(t, config.AlertTypeActual, target.Budget.Alerts[0].GetType())
	assert.Equal(t, config.AlertTypeForecasted, target.Budget.Alerts[1].GetType())
}

func TestShallowMergeYAML_UnknownKeysIgnored(t *testing.T) {
	target := newDefaultTarget()
	overlay := writeOverlay(t, `
dashboard:
  theme: dark
server:
  addr: 0.0.0.0:9000
`)

	err := config.ShallowMergeYAML(target, overlay)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", target.Server.Addr)
}

func TestShallowMergeYAML_EmptyOverlayFile(t *testing.T) {
	target := newDefaultTarget()
	original := *target
	overlay := writeOverlay(t, "")

	err := config.ShallowMergeYAML(target, overlay)
	require.NoError(t, err)

	assert.Equal(t, original.Output, target.Output)
	assert.Equal(t, original.Logging, target.Logging)
	assert.Equal(t, original.Storage, target.Storage)
	assert.Equal(t, original.Factors, target.Factors)
}

func TestShallowMergeYAML_CommentOnlyFile(t *testing.T) {
	target := newDefaultTarget()
	original := *target
	overlay := writeOverlay(t, "# this file is intentionally empty\n# just comments\n")

	err := config.ShallowMergeYAML(target, overlay)
	require.NoError(t, err)

	assert.Equal(t, original.Output, target.Output)
	assert.Equal(t, original.Logging, target.Logging)
}

func TestShallowMergeYAML_CorruptedYAMLReturnsError(t *testing.T) {
	target := newDefaultTarget()
	overlay := writeOverlay(t, "{{{{not valid yaml at all")

	err := config.ShallowMergeYAML(target, overlay)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing overlay YAML")
}

func TestShallowMergeYAML_WrongSectionTypeReturnsError(t *testing.T) {
	target := newDefaultTarget()
	overlay := writeOverlay(t, `
cache:
  ttl_seconds: [1, 2]
`)

	err := config.ShallowMergeYAML(target, overlay)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `applying overlay section "cache"`)
}

func TestShallowMergeYAML_MissingFileReturnsError(t *testing.T) {
	target := newDefaultTarget()

	err := config.ShallowMergeYAML(target, "/nonexistent/path/overlay.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading overlay file")
}

func TestShallowMergeYAML_NilTarget(t *testing.T) {
	err := config.ShallowMergeYAML(nil, "whatever.yaml")
	require.Error(t, err)
}

func TestShallowMergeYAML_TopLevelListReturnsError(t *testing.T) {
	target := newDefaultTarget()
	overlay := writeOverlay(t, "- output\n- storage\n")

	err := config.ShallowMergeYAML(target, overlay)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "top level must be a mapping")
}

func TestShallowMergeYAML_NullSectionResetsToZero(t *testing.T) {
	target := newDefaultTarget()
	target.User = "alice"
	overlay := writeOverlay(t, "user:\n")

	require.NoError(t, config.ShallowMergeYAML(target, overlay))
	assert.Empty(t, target.User)
}
