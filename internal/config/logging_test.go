package config_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/footprint/internal/config"
)

func TestToLoggingConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("FOOTPRINT_HOME", home)

	tests := []struct {
		name   string
		in     config.LoggingConfig
		output string
		file   string
		caller bool
	}{
		{"stderr", config.LoggingConfig{Level: "info", Format: "json"}, "stderr", "", false},
		{"absolute file", config.LoggingConfig{Level: "warn", File: "/var/log/fp.log"}, "file", "/var/log/fp.log", false},
		{"relative file", config.LoggingConfig{Level: "info", File: "fp.log"}, "file",
			filepath.Join(home, "logs", "fp.log"), false},
		{"debug records caller", config.LoggingConfig{Level: "debug"}, "stderr", "", true},
		{"bad level", config.LoggingConfig{Level: "loud"}, "stderr", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.ToLoggingConfig()
			assert.Equal(t, tt.in.Level, got.Level)
			assert.Equal(t, tt.output, got.Output)
			assert.Equal(t, tt.file, got.File)
			assert.Equal(t, tt.caller, got.Caller)
		})
	}
}

func TestNew_WarnsOnCorruptFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("FOOTPRINT_HOME", home)
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.yaml"), []byte("output: [\n"), 0o600))

	var buf bytes.Buffer
	restore := config.SetBootstrapOutput(&buf)
	defer restore()

	cfg := config.New()
	assert.Equal(t, config.Default().Output, cfg.Output)
	assert.Contains(t, buf.String(), "failed to load config file")
	assert.Contains(t, buf.String(), "component=config")
}
