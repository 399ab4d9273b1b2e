package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/dealdesk/internal/availability"
	"github.com/teemow/dealdesk/internal/google"
)

// isolateConfig keeps loadSettings from picking up a developer's config file.
func isolateConfig(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dealdesk.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadSettings_Defaults(t *testing.T) {
	isolateConfig(t)

	settings, err := loadSettings(nil, "")
	require.NoError(t, err)

	assert.Equal(t, availability.DefaultConfig(), settings.Engine)
	assert.Equal(t, "info", settings.Log.Level)
	assert.Equal(t, "text", settings.Log.Format)
	assert.Equal(t, transportStdio, settings.Transport)
	assert.Equal(t, ":8080", settings.HTTPAddr)
	assert.True(t, settings.AccessLog)
	assert.Empty(t, settings.Database.DSN)
	assert.Equal(t, 15*time.Minute, settings.Database.StaleAfter)
	assert.Empty(t, settings.Redis.Addr)
	assert.Equal(t, 60, settings.Redis.RateLimit)
	assert.Equal(t, time.Minute, settings.Redis.RateWindow)
	assert.True(t, settings.Metrics.Enabled)
	assert.Equal(t, ":9090", settings.Metrics.Addr)
}

func TestLoadSettings_Environment(t *testing.T) {
	isolateConfig(t)
	t.Setenv("DEALDESK_ENGINE_DEFAULT_TIMEZONE", "Europe/Berlin")
	t.Setenv("DEALDESK_ENGINE_MAX_SLOTS", "10")
	t.Setenv("DEALDESK_ENGINE_WORKING_HOURS_START", "08:30")
	t.Setenv("DEALDESK_DATABASE_DSN", "postgres://localhost/crm")
	t.Setenv("DEALDESK_REDIS_RATE_WINDOW", "30s")

	settings, err := loadSettings(nil, "")
	require.NoError(t, err)

	assert.Equal(t, "Europe/Berlin", settings.Engine.DefaultTimezone)
	assert.Equal(t, 10, settings.Engine.MaxSlots)
	assert.Equal(t, "08:30", settings.Engine.WorkingHours.Start)
	assert.Equal(t, "postgres://localhost/crm", settings.Database.DSN)
	assert.Equal(t, 30*time.Second, settings.Redis.RateWindow)
}

func TestLoadSettings_Precedence(t *testing.T) {
	isolateConfig(t)
	path := writeConfig(t, `
transport: streamable-http
http_addr: ":7000"
redis:
  addr: file:6379
  rate_limit: 5
engine:
  max_range_days: 7
  default_window_days: 3
`)
	t.Setenv("DEALDESK_REDIS_ADDR", "env:6379")

	cmd := newServeCmd()
	require.NoError(t, cmd.Flags().Set("http-addr", ":9000"))

	settings, err := loadSettings(cmd.Flags(), path)
	require.NoError(t, err)

	// Flag beats file, env beats file, file beats defaults.
	assert.Equal(t, ":9000", settings.HTTPAddr)
	assert.Equal(t, "env:6379", settings.Redis.Addr)
	assert.Equal(t, transportStreamableHTTP, settings.Transport)
	assert.Equal(t, 5, settings.Redis.RateLimit)
	assert.Equal(t, 7, settings.Engine.MaxRangeDays)
	assert.Equal(t, 3, settings.Engine.DefaultWindowDays)

	// Unset flags keep the configured value rather than the flag default.
	assert.Equal(t, availability.DefaultMaxSlots, settings.Engine.MaxSlots)
}

func TestLoadSettings_Errors(t *testing.T) {
	tests := []struct {
		name        string
		config      string
		missingFile bool
		errContains string
	}{
		{
			name:        "explicit file missing",
			missingFile: true,
			errContains: "failed to read config file",
		},
		{
			name:        "malformed yaml",
			config:      "engine: [",
			errContains: "failed to read config file",
		},
		{
			name:        "unknown default timezone",
			config:      "engine:\n  default_timezone: Mars/Olympus_Mons\n",
			errContains: "invalid engine configuration",
		},
		{
			name:        "zero max slots",
			config:      "engine:\n  max_slots: 0\n",
			errContains: "max slots",
		},
		{
			name:        "bad working hours",
			config:      "engine:\n  working_hours:\n    end: \"25:00\"\n",
			errContains: "working hours end",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateConfig(t)

			path := filepath.Join(t.TempDir(), "missing.yaml")
			if !tt.missingFile {
				path = writeConfig(t, tt.config)
			}

			_, err := loadSettings(nil, path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestNewLogger(t *testing.T) {
	var settings Settings
	settings.Log.Level = "verbose"
	settings.Log.Format = "text"

	_, err := newLogger(settings, os.Stderr)
	assert.Error(t, err)

	settings.Log.Level = "debug"
	settings.Log.Format = "json"
	logger, err := newLogger(settings, os.Stderr)
	require.NoError(t, err)
	assert.NotNil(t, logger)
}

func TestNewTokenProvider(t *testing.T) {
	isolateConfig(t)
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	settings, err := loadSettings(nil, "")
	require.NoError(t, err)
	_, isFile := newTokenProvider(settings).(*google.FileTokenProvider)
	assert.True(t, isFile, "tokens on disk are used when none are configured")

	path := writeConfig(t, "google:\n  refresh_tokens:\n    sales: rt-sales\n")
	settings, err = loadSettings(nil, path)
	require.NoError(t, err)

	provider := newTokenProvider(settings)
	_, isRefresh := provider.(*google.RefreshTokenProvider)
	require.True(t, isRefresh)
	assert.True(t, provider.HasTokenForAccount("sales"))
	assert.False(t, provider.HasTokenForAccount("support"))
}
