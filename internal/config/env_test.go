package config

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLogLevel(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseLogLevel("verbose")
	assert.Error(t, err)
}

func TestLoadEnv_Overrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvHome, dir)
	t.Setenv(EnvAPIURL, "http://localhost:9999")
	t.Setenv(EnvLogLevel, "debug")

	env := LoadEnv()
	assert.Equal(t, dir, env.DataDir())
	assert.Equal(t, "http://localhost:9999", env.APIURL)
	assert.Equal(t, "debug", env.LogLevel)
}

func TestPaths(t *testing.T) {
	p := NewPaths("/data")
	assert.Equal(t, filepath.Join("/data", "collection.json"), p.CollectionPath())
	assert.Equal(t, filepath.Join("/data", "pending_reveal.json"), p.PendingRevealPath())
	assert.Equal(t, filepath.Join("/data", "cache", "sets", "dmu.json"), p.SetCachePath("DMU"))
}
