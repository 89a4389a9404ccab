package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/footprint/internal/config"
)

// writeProjectConfig creates .footprint/config.yaml under root.
func writeProjectConfig(t *testing.T, root, content string) string {
	t.Helper()
	dir := filepath.Join(root, config.ProjectDirName)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644))
	return dir
}

// isolateHome points the global config at an empty temp dir.
func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("FOOTPRINT_HOME", home)
	t.Setenv("FOOTPRINT_PROJECT_DIR", "")
	t.Setenv("FOOTPRINT_LOG_LEVEL", "")
	t.Setenv("FOOTPRINT_STORAGE_BACKEND", "")
	t.Setenv("FOOTPRINT_STORAGE_PATH", "")
	t.Setenv("FOOTPRINT_CACHE_TTL_SECONDS", "")
	t.Setenv("FOOTPRINT_CACHE_ENABLED", "")
	t.Setenv("FOOTPRINT_USER", "")
	return home
}

func TestResolveProjectDir_FlagOverride(t *testing.T) {
	isolateHome(t)
	flagDir := t.TempDir()

	got := config.ResolveProjectDir(context.Background(), flagDir, "/does/not/matter")

	assert.Equal(t, filepath.Join(flagDir, ".footprint"), got)
	assert.True(t, filepath.IsAbs(got), "returned path must be absolute")
}

func TestResolveProjectDir_FlagOverridesEnv(t *testing.T) {
	isolateHome(t)
	envDir := t.TempDir()
	flagDir := t.TempDir()
	t.Setenv("FOOTPRINT_PROJECT_DIR", envDir)

	got := config.ResolveProjectDir(context.Background(), flagDir, "/does/not/matter")

	assert.Equal(t, filepath.Join(flagDir, ".footprint"), got)
}

func TestResolveProjectDir_EnvVarOverride(t *testing.T) {
	isolateHome(t)
	envDir := t.TempDir()
	t.Setenv("FOOTPRINT_PROJECT_DIR", envDir)

	got := config.ResolveProjectDir(context.Background(), "", "/does/not/matter")

	assert.Equal(t, filepath.Join(envDir, ".footprint"), got)
}

func TestResolveProjectDir_WalkUp(t *testing.T) {
	isolateHome(t)
	root := t.TempDir()
	writeProjectConfig(t, root, "user: team\n")

	subDir := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(subDir, 0o755))

	got := config.ResolveProjectDir(context.Background(), "", subDir)

	assert.Equal(t, filepath.Join(root, ".footprint"), got)
}

func TestResolveProjectDir_NearestProjectWins(t *testing.T) {
	isolateHome(t)
	outer := t.TempDir()
	writeProjectConfig(t, outer, "user: outer\n")
	inner := filepath.Join(outer, "nested")
	writeProjectConfig(t, inner, "user: inner\n")

	got := config.ResolveProjectDir(context.Background(), "", inner)

	assert.Equal(t, filepath.Join(inner, ".footprint"), got)
}

func TestResolveProjectDir_DirectoryWithoutConfigIgnored(t *testing.T) {
	isolateHome(t)
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".footprint"), 0o755))

	got := config.ResolveProjectDir(context.Background(), "", root)

	assert.NotEqual(t, filepath.Join(root, ".footprint"), got)
}

func TestResolveProjectDir_GlobalDirIsNotAProject(t *testing.T) {
	t.Setenv("FOOTPRINT_PROJECT_DIR", "")
	root := t.TempDir()
	globalDir := writeProjectConfig(t, root, "user: me\n")
	t.Setenv("FOOTPRINT_HOME", globalDir)

	_, err := config.FindProject(root)
	require.ErrorIs(t, err, config.ErrNoProject)
}

func TestResolveProjectDir_FlagWithSuffix(t *testing.T) {
	isolateHome(t)

	got := config.ResolveProjectDir(context.Background(), "/my/project/.footprint", "")

	assert.Equal(t, "/my/project/.footprint", got)
}

func TestSetResolvedProjectDir_RoundTrip(t *testing.T) {
	t.Cleanup(func() { config.SetResolvedProjectDir("") })

	config.SetResolvedProjectDir("/some/project/.footprint")
	assert.Equal(t, "/some/project/.footprint", config.GetResolvedProjectDir())

	config.SetResolvedProjectDir("")
	assert.Empty(t, config.GetResolvedProjectDir())
}

func TestNewWithProjectDir_EmptyMatchesNew(t *testing.T) {
	isolateHome(t)

	cfgNew := config.New()
	cfgProject := config.NewWithProjectDir(context.Background(), "")

	assert.Equal(t, cfgNew.Output, cfgProject.Output)
	assert.Equal(t, cfgNew.Logging, cfgProject.Logging)
	assert.Equal(t, cfgNew.Storage, cfgProject.Storage)
	assert.Equal(t, cfgNew.Cache, cfgProject.Cache)
	assert.Equal(t, cfgNew.User, cfgProject.User)
}

func TestNewWithProjectDir_OverlayOnGlobal(t *testing.T) {
	home := isolateHome(t)
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.yaml"), []byte(`output:
  default_format: ndjson
user: alice
`), 0o644))

	projectDir := writeProjectConfig(t, t.TempDir(), `logging:
  level: debug
  format: json
user: team
`)

	cfg := config.NewWithProjectDir(context.Background(), projectDir)

	assert.Equal(t, "ndjson", cfg.Output.DefaultFormat, "output comes from global config")
	assert.Equal(t, "debug", cfg.Logging.Level, "logging comes from project overlay")
	assert.Equal(t, "team", cfg.User)
}

func TestNewWithProjectDir_EnvBeatsProject(t *testing.T) {
	isolateHome(t)
	projectDir := writeProjectConfig(t, t.TempDir(), "user: team\n")
	t.Setenv("FOOTPRINT_USER", "carol")

	cfg := config.NewWithProjectDir(context.Background(), projectDir)

	assert.Equal(t, "carol", cfg.User)
}

func TestNewWithProjectDir_CorruptedYAML(t *testing.T) {
	isolateHome(t)
	projectDir := writeProjectConfig(t, t.TempDir(), "{{{invalid yaml")

	cfg := config.NewWithProjectDir(context.Background(), projectDir)
	require.NotNil(t, cfg)
	assert.Equal(t, "table", cfg.Output.DefaultFormat)
}

func TestNewWithProjectDir_MissingConfigYAML(t *testing.T) {
	isolateHome(t)
	projectDir := filepath.Join(t.TempDir(), "project", ".footprint")
	require.NoError(t, os.MkdirAll(projectDir, 0o755))

	cfg := config.NewWithProjectDir(context.Background(), projectDir)
	require.NotNil(t, cfg)
	assert.Equal(t, "table", cfg.Output.DefaultFormat)
}
