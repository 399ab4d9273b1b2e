package availability

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	halfHourPattern    = regexp.MustCompile(`\bhalf(?:\s+an)?[\s-]+hour\b`)
	quarterHourPattern = regexp.MustCompile(`\bquarter(?:\s+of\s+an)?[\s-]+hour\b`)
	hoursPattern       = regexp.MustCompile(`\b(\d+(?:\.\d+)?)[\s-]*(?:hours?|hrs?|h)\b`)
	minutesPattern     = regexp.MustCompile(`\b(\d+)[\s-]*(?:minutes?|mins?)\b`)

	nextWeekPattern = regexp.MustCompile(`\bnext week\b`)
	thisWeekPattern = regexp.MustCompile(`\bthis week\b`)
	nextPattern     = regexp.MustCompile(`\bnext\b|\bthis coming\b`)
	weekendPattern  = regexp.MustCompile(`\bweekends?\b`)
	weekdayPattern  = regexp.MustCompile(`\b(sunday|monday|tuesday|wednesday|thursday|friday|saturday)\b`)
)

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// InferWindow maps a free-text availability query to a request relative to now.
// The result depends only on its arguments.
func InferWindow(query string, loc *time.Location, now time.Time, cfg Config) TimeWindowRequest {
	q := strings.ToLower(query)

	req := TimeWindowRequest{
		DurationMinutes: inferDuration(q, cfg),
		WorkingHours:    cfg.WorkingHours,
		ExcludeWeekends: !weekendPattern.MatchString(q),
		Location:        loc,
	}

	today := CivilPartsOf(now, loc)
	switch {
	case strings.Contains(q, "today"):
		req.Start, req.End = StartOfDay(now, loc), EndOfDay(now, loc)

	case strings.Contains(q, "tomorrow"):
		tomorrow := AddCivilDays(now, 1, loc)
		req.Start, req.End = StartOfDay(tomorrow, loc), EndOfDay(tomorrow, loc)

	case nextWeekPattern.MatchString(q):
		req.Start, req.End = weekOf(today, 7, loc)

	case thisWeekPattern.MatchString(q):
		req.Start, req.End = weekOf(today, 0, loc)

	case weekdayPattern.MatchString(q):
		target := weekdayNames[weekdayPattern.FindStringSubmatch(q)[1]]
		ahead := (int(target) - int(today.Weekday) + 7) % 7
		if nextPattern.MatchString(q) {
			ahead += 7
		}
		day := CivilToInstant(today.Year, today.Month, today.Day+ahead, 0, 0, 0, loc)
		req.Start, req.End = StartOfDay(day, loc), EndOfDay(day, loc)

	default:
		req.Start, req.End = now, AddCivilDays(now, cfg.DefaultWindowDays, loc)
	}

	if strings.Contains(q, "early morning") {
		req.WorkingHours.Start = "08:00"
	}
	if strings.Contains(q, "evening") {
		req.WorkingHours.End = "19:00"
	}

	req.Start, req.End = cfg.boundWindow(req.Start, req.End, loc)
	return req
}

// weekOf returns Monday 00:00 through Sunday 23:59:59 of the week containing d,
// shifted by offsetDays.
func weekOf(d CivilDate, offsetDays int, loc *time.Location) (time.Time, time.Time) {
	sinceMonday := (int(d.Weekday) + 6) % 7
	monday := d.Day - sinceMonday + offsetDays
	start := CivilToInstant(d.Year, d.Month, monday, 0, 0, 0, loc)
	end := CivilToInstant(d.Year, d.Month, monday+6, 23, 59, 59, loc)
	return start, end
}

func inferDuration(q string, cfg Config) int {
	switch {
	case halfHourPattern.MatchString(q):
		return cfg.ClampDuration(30)
	case quarterHourPattern.MatchString(q):
		return cfg.ClampDuration(15)
	}

	total, found := 0.0, false
	if m := hoursPattern.FindStringSubmatch(q); m != nil {
		if h, err := strconv.ParseFloat(m[1], 64); err == nil {
			total += h * 60
			found = true
		}
	}
	if m := minutesPattern.FindStringSubmatch(q); m != nil {
		if mins, err := strconv.Atoi(m[1]); err == nil {
			total += float64(mins)
			found = true
		}
	}
	if !found {
		return cfg.DefaultDurationMinutes
	}
	return cfg.ClampDuration(int(math.Round(total)))
}

// boundWindow widens a collapsed window to the start of the next civil day and clamps
// it to MaxRangeDays.
func (c Config) boundWindow(start, end time.Time, loc *time.Location) (time.Time, time.Time) {
	if !end.After(start) {
		end = StartOfDay(AddCivilDays(start, 1, loc), loc)
	}
	if limit := AddCivilDays(start, c.MaxRangeDays, loc); end.After(limit) {
		end = limit
	}
	return start, end
}
