package dsl

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

var cronDow = map[string]string{
	"sun": "0", "mon": "1", "tue": "2", "wed": "3",
	"thu": "4", "fri": "5", "sat": "6",
}

// CronString projects a recurrence onto a five-field POSIX cron expression.
// Nth/last-weekday frequencies and the empty recurrence cannot be expressed
// and error.
func CronString(r Recurrence) (string, error) {
	if r.IsEmpty() {
		return "", fmt.Errorf("%w: empty recurrence, cannot produce cron string", ErrUnsupported)
	}

	dayOfMonth, month, dayOfWeek := "*", "*", "*"

	// Minutes default to 0 when no times are given; hours default to the
	// wildcard. The asymmetry is deliberate.
	minutes := []int{0}
	var hours []int
	if len(r.Times) > 0 {
		minutes = distinctSortedInts(r.Times, func(t ClockTime) int { return t.Minute })
		hours = distinctSortedInts(r.Times, func(t ClockTime) int { return t.Hour })
	}
	minute := joinInts(minutes)
	hour := "*"
	if len(hours) > 0 {
		hour = joinInts(hours)
	}

	switch r.Freq {
	case "min":
		minute = "*/" + strconv.Itoa(r.Interval)
		hour = "*"
	case "hour":
		hour = "*/" + strconv.Itoa(r.Interval)
	case "day":
		dayOfMonth = "*/" + strconv.Itoa(r.Interval)
	case "week":
		// Plain cron cannot express "every N weeks"; leave dow="*".
	case "month":
		month = "*/" + strconv.Itoa(r.Interval)
	case "year":
		// Cron cannot do */N years; pin to Jan 1 at the given time(s).
		dayOfMonth = "1"
		month = "1"
	default:
		if dow, ok := cronDow[r.Freq]; ok {
			dayOfWeek = dow
		} else if nthWeekdayRE.MatchString(r.Freq) {
			return "", fmt.Errorf("%w: cron cannot express nth/last weekday %q", ErrUnsupported, r.Freq)
		} else {
			return "", fmt.Errorf("%w: unknown recurrence freq %q", ErrUnsupported, r.Freq)
		}
	}

	return strings.Join([]string{minute, hour, dayOfMonth, month, dayOfWeek}, " "), nil
}

func distinctSortedInts(times []ClockTime, pick func(ClockTime) int) []int {
	seen := make(map[int]bool, len(times))
	var out []int
	for _, t := range times {
		v := pick(t)
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

func joinInts(vals []int) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}
