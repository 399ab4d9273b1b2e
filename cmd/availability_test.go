package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/dealdesk/internal/availability"
)

const busyJSON = `[
  {"start": "2025-03-10T10:00:00Z", "end": "2025-03-10T11:00:00Z", "id": "evt-1", "title": "Demo"}
]`

func testSettings(t *testing.T) Settings {
	t.Helper()
	isolateConfig(t)
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	settings, err := loadSettings(nil, "")
	require.NoError(t, err)
	settings.Log.Level = "error"
	return settings
}

func TestRunAvailability_BusyFile(t *testing.T) {
	settings := testSettings(t)

	path := filepath.Join(t.TempDir(), "busy.json")
	require.NoError(t, os.WriteFile(path, []byte(busyJSON), 0600))

	opts := availabilityOptions{
		timezone: "UTC",
		now:      "2025-03-10T08:00:00Z",
		start:    "2025-03-10T09:00:00Z",
		end:      "2025-03-10T17:00:00Z",
		duration: 60,
		busyFile: path,
	}

	var out bytes.Buffer
	require.NoError(t, runAvailability(context.Background(), settings, opts, nil, &out))

	var report availability.Report
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Equal(t, 2, report.TotalAvailableSlots)
	assert.Equal(t, 60, report.DurationMinutes)
	assert.Equal(t, 420, report.Summary.TotalFreeMinutes)
	require.Len(t, report.BusySlots, 1)
	assert.Equal(t, "evt-1", report.BusySlots[0].ID)
}

func TestRunAvailability_Stdin(t *testing.T) {
	settings := testSettings(t)

	opts := availabilityOptions{
		timezone: "UTC",
		start:    "2025-03-10T09:00:00Z",
		end:      "2025-03-10T17:00:00Z",
		busyFile: "-",
	}

	var out bytes.Buffer
	// An empty stdin means no busy time, not "read the calendar".
	require.NoError(t, runAvailability(context.Background(), settings, opts, strings.NewReader(""), &out))

	var report availability.Report
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Equal(t, 480, report.Summary.TotalFreeMinutes)
	assert.Equal(t, 0, report.Summary.MeetingCount)
	assert.Empty(t, report.BusySlots)
}

func TestRunAvailability_Errors(t *testing.T) {
	tests := []struct {
		name        string
		opts        availabilityOptions
		stdin       string
		errContains string
	}{
		{
			name:        "malformed start",
			opts:        availabilityOptions{start: "tomorrow", busyFile: "-"},
			stdin:       "[]",
			errContains: "invalid --start",
		},
		{
			name:        "malformed busy json",
			opts:        availabilityOptions{busyFile: "-"},
			stdin:       "{",
			errContains: "failed to decode busy intervals",
		},
		{
			name:        "missing busy file",
			opts:        availabilityOptions{busyFile: "/nonexistent/busy.json"},
			errContains: "failed to open busy intervals",
		},
		{
			name:        "unknown timezone",
			opts:        availabilityOptions{timezone: "Mars/Olympus_Mons", busyFile: "-"},
			stdin:       "[]",
			errContains: "timezone",
		},
		{
			name:        "calendar not authorized",
			opts:        availabilityOptions{query: "tomorrow", account: "nobody"},
			errContains: "google_save_auth_code",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := testSettings(t)

			var out bytes.Buffer
			err := runAvailability(context.Background(), settings, tt.opts, strings.NewReader(tt.stdin), &out)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
			assert.Empty(t, out.String())
		})
	}
}

func TestAvailabilityOptions_Input(t *testing.T) {
	excludeWeekends := false
	opts := availabilityOptions{
		query:             "next week for 45 minutes",
		timezone:          "America/New_York",
		now:               "2025-03-10T08:00:00-05:00",
		workingHoursStart: "08:00",
		excludeWeekends:   &excludeWeekends,
	}

	in, err := opts.input(nil)
	require.NoError(t, err)

	assert.Equal(t, "next week for 45 minutes", in.Query)
	require.NotNil(t, in.Now)
	assert.Equal(t, "2025-03-10T13:00:00Z", in.Now.UTC().Format("2006-01-02T15:04:05Z07:00"))
	assert.Nil(t, in.ExplicitStart)
	assert.Nil(t, in.DurationMinutes, "the duration is left to the query")
	assert.Nil(t, in.BusyIntervals, "no --busy means the calendar is read")
	require.NotNil(t, in.ExcludeWeekends)
	assert.False(t, *in.ExcludeWeekends)
}
