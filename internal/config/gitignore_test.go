package config_test

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/footprint/internal/config"
)

func TestGitignoreContent(t *testing.T) {
	t.Parallel()

	lines := strings.Split(strings.TrimSpace(config.GitignoreContent()), "\n")

	for _, p := range []string{
		"logs.json", "logs.json.lock", "logs.json.tmp",
		"footprint.db", "footprint.db-*", "cache/", "logs/", "*.log",
	} {
		assert.Contains(t, lines, p)
	}
	assert.NotContains(t, lines, "config.yaml", "project config is meant to be committed")
}

func TestEnsureGitignore(t *testing.T) {
	t.Parallel()

	t.Run("writes once", func(t *testing.T) {
		t.Parallel()
		dir := filepath.Join(t.TempDir(), "proj", ".footprint")

		created, err := config.EnsureGitignore(dir)
		require.NoError(t, err)
		assert.True(t, created)

		data, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
		require.NoError(t, err)
		assert.Equal(t, config.GitignoreContent(), string(data))

		created, err = config.EnsureGitignore(dir)
		require.NoError(t, err)
		assert.False(t, created)
	})

	t.Run("keeps existing file", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		path := filepath.Join(dir, ".gitignore")
		require.NoError(t, os.WriteFile(path, []byte("scratch/\n"), 0o644))

		created, err := config.EnsureGitignore(dir)
		require.NoError(t, err)
		assert.False(t, created)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "scratch/\n", string(data))
	})

	t.Run("read-only directory", func(t *testing.T) {
		t.Parallel()
		if runtime.GOOS == "windows" || os.Geteuid() == 0 {
			t.Skip("needs POSIX permissions and a non-root user")
		}
		dir := filepath.Join(t.TempDir(), "ro")
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.Chmod(dir, 0o555))
		t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })

		created, err := config.EnsureGitignore(dir)
		require.Error(t, err)
		assert.False(t, created)
	})
}
