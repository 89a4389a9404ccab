package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheEntry(t *testing.T) {
	data := json.RawMessage(`{"total":32.5}`)
	entry := NewCacheEntry("k", data, 60)

	assert.Equal(t, "k", entry.Key)
	assert.False(t, entry.IsExpired())
	assert.Greater(t, entry.TimeUntilExpiration(), time.Duration(0))
	assert.LessOrEqual(t, entry.Age(), time.Second)

	t.Run("Expiration", func(t *testing.T) {
		expired := NewCacheEntry("k", data, 60)
		expired.ExpiresAt = time.Now().Add(-time.Second)
		assert.True(t, expired.IsExpired())
		assert.Equal(t, time.Duration(0), expired.TimeUntilExpiration())
	})

	t.Run("JSON", func(t *testing.T) {
		encoded, err := json.Marshal(entry)
		require.NoError(t, err)

		var decoded CacheEntry
		require.NoError(t, json.Unmarshal(encoded, &decoded))
		assert.Equal(t, entry.Key, decoded.Key)
		assert.Equal(t, entry.TTLSeconds, decoded.TTLSeconds)
		assert.Equal(t, entry.ExpiresAt.Format(time.RFC3339), decoded.ExpiresAt.Format(time.RFC3339))
	})
}

func TestGenerateKey(t *testing.T) {
	base := KeyParams{
		Operation: "history",
		UserID:    "alice",
		From:      "2024-01-01",
		To:        "2024-01-31",
		Revision:  3,
		Factors:   map[string]float64{"bus": 0.089, "train": 0.041},
	}
	key1, err := GenerateKey(base)
	require.NoError(t, err)
	assert.Len(t, key1, 64)

	same := base
	same.Operation = " HISTORY "
	same.Factors = map[string]float64{"train": 0.041, "bus": 0.089}
	key2, err := GenerateKey(same)
	require.NoError(t, err)
	assert.Equal(t, key1, key2)

	bumped := base
	bumped.Revision = 4
	key3, err := GenerateKey(bumped)
	require.NoError(t, err)
	assert.NotEqual(t, key1, key3, "a new revision must produce a new key")

	other := base
	other.UserID = "bob"
	key4, err := GenerateKey(other)
	require.NoError(t, err)
	assert.NotEqual(t, key1, key4)
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, true, 60)
	require.NoError(t, err)
	assert.True(t, store.IsEnabled())
	assert.Equal(t, dir, store.Directory())
	assert.Equal(t, 60, store.TTL())

	data := json.RawMessage(`{"days":2}`)

	t.Run("SetAndGet", func(t *testing.T) {
		require.NoError(t, store.Set("report", data))

		entry, err := store.Get("report")
		require.NoError(t, err)
		assert.JSONEq(t, string(data), string(entry.Data))

		count, err := store.Count()
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := store.Get("nope")
		assert.ErrorIs(t, err, ErrCacheNotFound)
		_, err = store.Get("")
		assert.ErrorIs(t, err, ErrInvalidCacheKey)
	})

	t.Run("CorruptEntryIsAMiss", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{"), 0o600))
		_, err := store.Get("bad")
		assert.ErrorIs(t, err, ErrCacheNotFound)
	})

	t.Run("Clear", func(t *testing.T) {
		require.NoError(t, store.Set("k1", data))
		require.NoError(t, store.Set("k2", data))
		require.NoError(t, store.Clear())
		count, err := store.Count()
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})

	t.Run("Expired", func(t *testing.T) {
		short, err := NewFileStore(dir, true, -1)
		require.NoError(t, err)
		require.NoError(t, short.Set("old", data))
		require.NoError(t, short.Set("older", data))

		_, err = short.Get("old")
		assert.ErrorIs(t, err, ErrCacheExpired)

		require.NoError(t, short.CleanupExpired())
		count, err := short.Count()
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})

	t.Run("Disabled", func(t *testing.T) {
		disabled, err := NewFileStore("", false, 60)
		require.NoError(t, err)
		assert.False(t, disabled.IsEnabled())
		assert.ErrorIs(t, disabled.Set("k", data), ErrCacheDisabled)
		_, err = disabled.Get("k")
		assert.ErrorIs(t, err, ErrCacheDisabled)
	})
}

func TestTTL(t *testing.T) {
	t.Run("Validate", func(t *testing.T) {
		require.NoError(t, ValidateTTL(120))
		require.ErrorIs(t, ValidateTTL(10), ErrInvalidTTL)
	})

	t.Run("Env", func(t *testing.T) {
		t.Setenv(EnvTTLSeconds, "500")
		assert.Equal(t, 500, GetTTLFromEnv(DefaultTTLSeconds))
		t.Setenv(EnvTTLSeconds, "5")
		assert.Equal(t, DefaultTTLSeconds, GetTTLFromEnv(DefaultTTLSeconds))

		t.Setenv(EnvCacheEnabled, "false")
		assert.False(t, GetCacheEnabledFromEnv(true))
		t.Setenv(EnvCacheEnabled, "maybe")
		assert.True(t, GetCacheEnabledFromEnv(true))

		t.Setenv(EnvCacheDir, "/tmp/fp-cache")
		assert.Equal(t, "/tmp/fp-cache", GetCacheDirFromEnv())
	})

	t.Run("FormatDuration", func(t *testing.T) {
		assert.Equal(t, "30s", FormatDuration(30*time.Second))
		assert.Equal(t, "5m", FormatDuration(5*time.Minute))
		assert.Equal(t, "2h", FormatDuration(2*time.Hour))
		assert.Equal(t, "2h30m", FormatDuration(2*time.Hour+30*time.Minute))
		assert.Equal(t, "3d", FormatDuration(72*time.Hour))
		assert.Equal(t, "3d2h", FormatDuration(74*time.Hour))
	})

	t.Run("ParseTTL", func(t *testing.T) {
		ttl, err := ParseTTL("3600")
		require.NoError(t, err)
		assert.Equal(t, 3600, ttl)

		ttl, err = ParseTTL("1h")
		require.NoError(t, err)
		assert.Equal(t, 3600, ttl)

		_, err = ParseTTL("invalid")
		assert.Error(t, err)
		_, err = ParseTTL("10s")
		assert.ErrorIs(t, err, ErrInvalidTTL)
	})
}
