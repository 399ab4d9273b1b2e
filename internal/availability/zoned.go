package availability

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrUnknownTimezone is returned when a timezone identifier cannot be resolved.
var ErrUnknownTimezone = errors.New("unknown timezone")

var clockPattern = regexp.MustCompile(`^([01]?\d|2[0-3]):([0-5]\d)$`)

// LoadLocation resolves an IANA timezone identifier.
func LoadLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: empty identifier", ErrUnknownTimezone)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrUnknownTimezone, name, err)
	}
	return loc, nil
}

// CivilPartsOf returns the civil date of instant t in loc.
func CivilPartsOf(t time.Time, loc *time.Location) CivilDate {
	lt := t.In(loc)
	return CivilDate{
		Year:    lt.Year(),
		Month:   lt.Month(),
		Day:     lt.Day(),
		Weekday: lt.Weekday(),
	}
}

// CivilToInstant resolves a wall-clock time in loc to an absolute instant, using the
// UTC offset in effect at that date.
func CivilToInstant(year int, month time.Month, day, hour, minute, second int, loc *time.Location) time.Time {
	return time.Date(year, month, day, hour, minute, second, 0, loc)
}

// StartOfDay returns civil midnight of the day containing t.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	return CivilPartsOf(t, loc).Start(loc)
}

// EndOfDay returns 23:59:59 of the day containing t.
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	d := CivilPartsOf(t, loc)
	return CivilToInstant(d.Year, d.Month, d.Day, 23, 59, 59, loc)
}

// AddCivilDays moves t by n calendar days in loc, keeping its wall-clock time.
func AddCivilDays(t time.Time, n int, loc *time.Location) time.Time {
	return t.In(loc).AddDate(0, 0, n)
}

// OffsetAt returns the UTC offset of loc at instant t.
func OffsetAt(t time.Time, loc *time.Location) time.Duration {
	_, offset := t.In(loc).Zone()
	return time.Duration(offset) * time.Second
}

// ParseClock parses a 24h "HH:MM" clock string.
func ParseClock(s string) (hour, minute int, ok bool) {
	m := clockPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, 0, false
	}
	hour, _ = strconv.Atoi(m[1])
	minute, _ = strconv.Atoi(m[2])
	return hour, minute, true
}

// TimeOnDate combines the civil date of t with a wall-clock time. A malformed clock
// falls back to fallback; a malformed fallback yields midnight.
func TimeOnDate(t time.Time, clock string, loc *time.Location, fallback string) time.Time {
	hour, minute, ok := ParseClock(clock)
	if !ok {
		hour, minute, _ = ParseClock(fallback)
	}
	d := CivilPartsOf(t, loc)
	return CivilToInstant(d.Year, d.Month, d.Day, hour, minute, 0, loc)
}

// IsWorkday reports whether d falls Monday through Friday.
func IsWorkday(d CivilDate) bool {
	return d.Weekday != time.Saturday && d.Weekday != time.Sunday
}

func clockOr(clock, fallback string) string {
	if _, _, ok := ParseClock(clock); ok {
		return strings.TrimSpace(clock)
	}
	return fallback
}
