package dsl

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var weekdayNames = map[string]time.Weekday{
	"mon":   time.Monday,
	"tue":   time.Tuesday,
	"tues":  time.Tuesday,
	"wed":   time.Wednesday,
	"thu":   time.Thursday,
	"thur":  time.Thursday,
	"thurs": time.Thursday,
	"fri":   time.Friday,
	"sat":   time.Saturday,
	"sun":   time.Sunday,
}

// absoluteLayouts are tried in order for self-contained due timestamps.
// Layouts without an offset are interpreted in the caller's zone.
var absoluteLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseDue resolves the text after '>' into an instant:
// an absolute date/date-time, then "<weekday>[+<time>]" (next occurrence,
// default 17:00 local), then a bare time-of-day (today, or tomorrow if
// already past).
func parseDue(token string, loc *time.Location, now time.Time) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, token); err == nil {
		return ts, nil
	}
	for _, layout := range absoluteLayouts {
		if ts, err := time.ParseInLocation(layout, token, loc); err == nil {
			return ts, nil
		}
	}

	localNow := now.In(loc)

	segs := splitNonEmpty(token, "+", 2)
	if len(segs) >= 1 {
		if target, ok := weekdayNames[strings.ToLower(segs[0])]; ok {
			// Today counts only when the local clock still reads midnight.
			inclusive := localNow.Hour() == 0 && localNow.Minute() == 0 &&
				localNow.Second() == 0 && localNow.Nanosecond() == 0
			date := nextOrSameDate(localNow, target, inclusive)
			tod := ClockTime{Hour: 17}
			if len(segs) == 2 {
				var err error
				tod, err = parseTimeToken(segs[1])
				if err != nil {
					return time.Time{}, err
				}
			}
			local := time.Date(date.Year(), date.Month(), date.Day(), tod.Hour, tod.Minute, 0, 0, loc)
			return local.UTC(), nil
		}
	}

	tod, err := parseTimeToken(token)
	if err != nil {
		return time.Time{}, err
	}
	local := time.Date(localNow.Year(), localNow.Month(), localNow.Day(), tod.Hour, tod.Minute, 0, 0, loc)
	if !local.After(localNow) {
		local = local.AddDate(0, 0, 1)
	}
	return local.UTC(), nil
}

func nextOrSameDate(localNow time.Time, target time.Weekday, inclusive bool) time.Time {
	delta := (int(target) - int(localNow.Weekday()) + 7) % 7
	if delta == 0 && !inclusive {
		delta = 7
	}
	return localNow.AddDate(0, 0, delta)
}

var bareMinuteRE = regexp.MustCompile(`^\d{1,2}$`)

// parseTimeToken parses a time-of-day token: a bare 1-2 digit number is
// minutes past the hour, a trailing 'a'/'p' selects the 12-hour clock, and
// anything else must be H:mm or HH:mm.
func parseTimeToken(s string) (ClockTime, error) {
	s = strings.ToLower(strings.TrimSpace(s))

	if bareMinuteRE.MatchString(s) {
		m, _ := strconv.Atoi(s)
		if m > 59 {
			return ClockTime{}, fmt.Errorf("%w: minute token must be 0..59, got %q", ErrValue, s)
		}
		return ClockTime{Minute: m}, nil
	}

	if strings.HasSuffix(s, "a") || strings.HasSuffix(s, "p") {
		pm := strings.HasSuffix(s, "p")
		bits := strings.Split(s[:len(s)-1], ":")
		h, err := strconv.Atoi(bits[0])
		if err != nil {
			return ClockTime{}, fmt.Errorf("%w: bad time token %q", ErrValue, s)
		}
		m := 0
		if len(bits) > 1 {
			if m, err = strconv.Atoi(bits[1]); err != nil {
				return ClockTime{}, fmt.Errorf("%w: bad time token %q", ErrValue, s)
			}
		}
		if h == 12 {
			h = 0
		}
		if pm {
			h += 12
		}
		if h < 0 || h > 23 || m < 0 || m > 59 {
			return ClockTime{}, fmt.Errorf("%w: time %q out of range", ErrValue, s)
		}
		return ClockTime{Hour: h, Minute: m}, nil
	}

	bits := strings.Split(s, ":")
	if len(bits) != 2 {
		return ClockTime{}, fmt.Errorf("%w: bad time token %q", ErrValue, s)
	}
	h, err1 := strconv.Atoi(bits[0])
	m, err2 := strconv.Atoi(bits[1])
	if err1 != nil || err2 != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return ClockTime{}, fmt.Errorf("%w: bad time token %q", ErrValue, s)
	}
	return ClockTime{Hour: h, Minute: m}, nil
}

// splitNonEmpty splits on sep into at most n pieces and drops empty ones.
func splitNonEmpty(s, sep string, n int) []string {
	var out []string
	for _, p := range strings.SplitN(s, sep, n) {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
