package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "monitor.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const minimalConfig = `
spotify:
  client_id: "test-client-id"
  client_secret: "test-client-secret"
  refresh_token: "test-refresh-token"
`

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, minimalConfig)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, time.Second, cfg.PollInterval())
	assert.Equal(t, 5*time.Second, cfg.PositionSampleInterval())
	assert.Equal(t, 30*time.Second, cfg.SessionGap())
	assert.Equal(t, 10*time.Second, cfg.MinSessionDuration())
	assert.Equal(t, 0.8, cfg.Tracking.SkipThreshold)
	assert.Equal(t, time.Hour, cfg.StatsProcessInterval())
	assert.Equal(t, 24*time.Hour, cfg.CleanupInterval())
	assert.Equal(t, 10, cfg.Stats.TopCount)
	assert.Equal(t, 90*24*time.Hour, cfg.HistoryRetention())
	assert.Equal(t, "data/listening.db", cfg.Storage.Path)
}

func TestLoad_ExplicitValues(t *testing.T) {
	path := writeConfig(t, `
monitor:
  poll_interval_ms: 2000
  position_sample_interval_ms: 10000
session:
  gap_seconds: 60
  min_duration_seconds: 5
tracking:
  skip_threshold: 0.9
stats:
  top_count: 5
storage:
  path: "/tmp/test.db"
spotify:
  client_id: "id"
  client_secret: "secret"
  refresh_token: "token"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, cfg.PollInterval())
	assert.Equal(t, 10*time.Second, cfg.PositionSampleInterval())
	assert.Equal(t, time.Minute, cfg.SessionGap())
	assert.Equal(t, 5*time.Second, cfg.MinSessionDuration())
	assert.Equal(t, 0.9, cfg.Tracking.SkipThreshold)
	assert.Equal(t, 5, cfg.Stats.TopCount)
	assert.Equal(t, "/tmp/test.db", cfg.Storage.Path)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, minimalConfig)

	t.Setenv("SPOTIFY_CLIENT_ID", "env-client-id")
	t.Setenv("SPOTIFY_REFRESH_TOKEN", "env-refresh-token")
	t.Setenv("STORAGE_PATH", "/tmp/env.db")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "env-client-id", cfg.Spotify.ClientID)
	assert.Equal(t, "test-client-secret", cfg.Spotify.ClientSecret)
	assert.Equal(t, "env-refresh-token", cfg.Spotify.RefreshToken)
	assert.Equal(t, "/tmp/env.db", cfg.Storage.Path)
}

func TestLoad_ValidationFailures(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{
			name: "missing credentials",
			content: `
spotify:
  client_id: "id"
`,
			errMsg: "ClientSecret",
		},
		{
			name: "skip threshold above one",
			content: minimalConfig + `
tracking:
  skip_threshold: 1.5
`,
			errMsg: "SkipThreshold",
		},
		{
			name: "poll interval too small",
			content: minimalConfig + `
monitor:
  poll_interval_ms: 10
`,
			errMsg: "PollIntervalMs",
		},
		{
			name: "zero gap",
			content: minimalConfig + `
session:
  gap_seconds: -5
`,
			errMsg: "GapSeconds",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
