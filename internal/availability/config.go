package availability

import (
	"fmt"
	"time"
)

// Engine defaults.
const (
	DefaultTimezone          = "UTC"
	DefaultDurationMinutes   = 60
	MinDurationMinutes       = 15
	MaxDurationMinutes       = 240
	DefaultWorkingHoursStart = "09:00"
	DefaultWorkingHoursEnd   = "17:00"
	DefaultMaxRangeDays      = 30
	DefaultMaxSlots          = 25
	DefaultWindowDays        = 7

	DefaultPrimaryGranularity   = 60 * time.Minute
	DefaultSecondaryGranularity = 30 * time.Minute
)

// WorkingHours is the civil clock range ("HH:MM", 24h) within which slots are offered.
type WorkingHours struct {
	Start string `json:"start" mapstructure:"start"`
	End   string `json:"end" mapstructure:"end"`
}

// Config carries every tunable of the engine. It is read once by the caller and passed
// down explicitly; nothing in this package reads the environment.
type Config struct {
	// DefaultTimezone is used when a request does not name a timezone.
	DefaultTimezone string `mapstructure:"default_timezone"`

	DefaultDurationMinutes int `mapstructure:"default_duration_minutes"`
	MinDurationMinutes     int `mapstructure:"min_duration_minutes"`
	MaxDurationMinutes     int `mapstructure:"max_duration_minutes"`

	WorkingHours WorkingHours `mapstructure:"working_hours"`

	// MaxRangeDays caps the requested window, in civil days.
	MaxRangeDays int `mapstructure:"max_range_days"`

	// MaxSlots caps the slots listed in a result. Totals still cover every slot.
	MaxSlots int `mapstructure:"max_slots"`

	// DefaultWindowDays is the window length used when a query names no day.
	DefaultWindowDays int `mapstructure:"default_window_days"`

	PrimaryGranularity   time.Duration `mapstructure:"primary_granularity"`
	SecondaryGranularity time.Duration `mapstructure:"secondary_granularity"`
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		DefaultTimezone:        DefaultTimezone,
		DefaultDurationMinutes: DefaultDurationMinutes,
		MinDurationMinutes:     MinDurationMinutes,
		MaxDurationMinutes:     MaxDurationMinutes,
		WorkingHours: WorkingHours{
			Start: DefaultWorkingHoursStart,
			End:   DefaultWorkingHoursEnd,
		},
		MaxRangeDays:         DefaultMaxRangeDays,
		MaxSlots:             DefaultMaxSlots,
		DefaultWindowDays:    DefaultWindowDays,
		PrimaryGranularity:   DefaultPrimaryGranularity,
		SecondaryGranularity: DefaultSecondaryGranularity,
	}
}

// Validate checks the configuration for consistency.
func (c Config) Validate() error {
	if _, err := LoadLocation(c.DefaultTimezone); err != nil {
		return fmt.Errorf("invalid default timezone: %w", err)
	}
	if c.MinDurationMinutes <= 0 {
		return fmt.Errorf("min duration must be positive, got %d", c.MinDurationMinutes)
	}
	if c.MaxDurationMinutes < c.MinDurationMinutes {
		return fmt.Errorf("max duration %d is below min duration %d", c.MaxDurationMinutes, c.MinDurationMinutes)
	}
	if c.DefaultDurationMinutes < c.MinDurationMinutes || c.DefaultDurationMinutes > c.MaxDurationMinutes {
		return fmt.Errorf("default duration %d outside [%d, %d]", c.DefaultDurationMinutes, c.MinDurationMinutes, c.MaxDurationMinutes)
	}
	if _, _, ok := ParseClock(c.WorkingHours.Start); !ok {
		return fmt.Errorf("invalid working hours start %q", c.WorkingHours.Start)
	}
	if _, _, ok := ParseClock(c.WorkingHours.End); !ok {
		return fmt.Errorf("invalid working hours end %q", c.WorkingHours.End)
	}
	if c.MaxRangeDays <= 0 {
		return fmt.Errorf("max range days must be positive, got %d", c.MaxRangeDays)
	}
	if c.MaxSlots <= 0 {
		return fmt.Errorf("max slots must be positive, got %d", c.MaxSlots)
	}
	if c.DefaultWindowDays <= 0 || c.DefaultWindowDays > c.MaxRangeDays {
		return fmt.Errorf("default window days %d outside [1, %d]", c.DefaultWindowDays, c.MaxRangeDays)
	}
	if c.SecondaryGranularity <= 0 {
		return fmt.Errorf("secondary granularity must be positive, got %s", c.SecondaryGranularity)
	}
	if c.SecondaryGranularity >= c.PrimaryGranularity {
		return fmt.Errorf("secondary granularity %s must be shorter than primary %s", c.SecondaryGranularity, c.PrimaryGranularity)
	}
	return nil
}

// ClampDuration bounds a meeting duration to the configured range.
func (c Config) ClampDuration(minutes int) int {
	return min(max(minutes, c.MinDurationMinutes), c.MaxDurationMinutes)
}
