package availability

import (
	"fmt"
	"strings"
	"time"
)

// Input is an availability request as received from a transport adapter. Pointer
// fields distinguish "not supplied" from zero values.
type Input struct {
	Query             string         `json:"naturalLanguageQuery,omitempty"`
	Timezone          string         `json:"timezone,omitempty"`
	Now               *time.Time     `json:"nowInstant,omitempty"`
	ExplicitStart     *time.Time     `json:"explicitStart,omitempty"`
	ExplicitEnd       *time.Time     `json:"explicitEnd,omitempty"`
	DurationMinutes   *int           `json:"durationMinutes,omitempty"`
	WorkingHoursStart string         `json:"workingHoursStart,omitempty"`
	WorkingHoursEnd   string         `json:"workingHoursEnd,omitempty"`
	ExcludeWeekends   *bool          `json:"excludeWeekends,omitempty"`
	BusyIntervals     []BusyInterval `json:"busyIntervals,omitempty"`
}

// Location resolves the input timezone, falling back to the configured default.
func (in Input) Location(cfg Config) (*time.Location, error) {
	name := strings.TrimSpace(in.Timezone)
	if name == "" {
		name = cfg.DefaultTimezone
	}
	return LoadLocation(name)
}

// ReferenceTime returns the input's reference instant, or now when none was supplied.
func (in Input) ReferenceTime(now time.Time) time.Time {
	if in.Now != nil && !in.Now.IsZero() {
		return *in.Now
	}
	return now
}

// Normalize turns an input into a bounded request. An explicit start or end skips
// query inference; a missing explicit end becomes the end of the start's day and a
// missing explicit start becomes now. Explicit duration, working hours and weekend
// settings override inferred ones.
func Normalize(in Input, loc *time.Location, now time.Time, cfg Config) TimeWindowRequest {
	now = in.ReferenceTime(now)

	var req TimeWindowRequest
	if in.ExplicitStart != nil || in.ExplicitEnd != nil {
		start := now
		if in.ExplicitStart != nil {
			start = *in.ExplicitStart
		}
		end := EndOfDay(start, loc)
		if in.ExplicitEnd != nil {
			end = *in.ExplicitEnd
		}
		req = TimeWindowRequest{
			Start:           start,
			End:             end,
			DurationMinutes: cfg.DefaultDurationMinutes,
			WorkingHours:    cfg.WorkingHours,
			ExcludeWeekends: true,
			Location:        loc,
		}
	} else {
		req = InferWindow(in.Query, loc, now, cfg)
	}

	if in.DurationMinutes != nil {
		req.DurationMinutes = cfg.ClampDuration(*in.DurationMinutes)
	}
	if in.WorkingHoursStart != "" {
		req.WorkingHours.Start = clockOr(in.WorkingHoursStart, cfg.WorkingHours.Start)
	}
	if in.WorkingHoursEnd != "" {
		req.WorkingHours.End = clockOr(in.WorkingHoursEnd, cfg.WorkingHours.End)
	}
	if in.ExcludeWeekends != nil {
		req.ExcludeWeekends = *in.ExcludeWeekends
	}

	req.Start, req.End = cfg.boundWindow(req.Start, req.End, loc)
	return req
}

// BusySource supplies the busy intervals for a normalized window.
type BusySource func(req TimeWindowRequest) ([]BusyInterval, error)

// Check resolves an input end to end. The only possible error is an unknown timezone.
func Check(in Input, now time.Time, cfg Config) (Report, error) {
	return CheckWith(in, now, cfg, nil)
}

// CheckWith is Check with busy intervals read from source when the input carries
// none. A nil source treats the window as free. Errors from source are returned as is.
func CheckWith(in Input, now time.Time, cfg Config, source BusySource) (Report, error) {
	loc, err := in.Location(cfg)
	if err != nil {
		return Report{}, fmt.Errorf("failed to resolve timezone: %w", err)
	}
	req := Normalize(in, loc, now, cfg)

	busy := in.BusyIntervals
	if busy == nil && source != nil {
		busy, err = source(req)
		if err != nil {
			return Report{}, err
		}
	}
	return NewReport(Resolve(req, busy, cfg)), nil
}
