package dsl

import (
	"fmt"
	"strconv"
	"strings"
)

var icalDays = map[string]string{
	"mon": "MO", "tue": "TU", "wed": "WE", "thu": "TH",
	"fri": "FR", "sat": "SA", "sun": "SU",
}

var rruleFreqs = map[string]string{
	"min":   "MINUTELY",
	"hour":  "HOURLY",
	"day":   "DAILY",
	"week":  "WEEKLY",
	"month": "MONTHLY",
	"year":  "YEARLY",
}

// ToRRule projects a recurrence onto a partial iCalendar RRULE field map
// (FREQ, INTERVAL, COUNT, UNTIL, BYDAY, BYSETPOS, BYHOUR, BYMINUTE). Fields
// appear only when applicable. UNTIL is pinned to end-of-day Z without zone
// conversion.
func ToRRule(r Recurrence) (map[string]string, error) {
	if r.IsEmpty() {
		return nil, fmt.Errorf("%w: empty recurrence", ErrUnsupported)
	}
	m := make(map[string]string)

	if freq, ok := rruleFreqs[r.Freq]; ok {
		m["FREQ"] = freq
	}
	if r.Interval != 1 {
		m["INTERVAL"] = strconv.Itoa(r.Interval)
	}
	if r.Count > 0 {
		m["COUNT"] = strconv.Itoa(r.Count)
	}
	if r.End != nil {
		m["UNTIL"] = r.End.Format("20060102") + "T235959Z"
	}

	if weekdaySet[r.Freq] {
		m["FREQ"] = "WEEKLY"
		m["BYDAY"] = icalDays[r.Freq]
	} else if g := nthWeekdayRE.FindStringSubmatch(r.Freq); g != nil {
		m["FREQ"] = "MONTHLY"
		pos := g[1]
		if strings.EqualFold(pos, "last") {
			pos = "-1"
		}
		m["BYDAY"] = icalDays[strings.ToLower(g[2])]
		m["BYSETPOS"] = pos
	}

	if len(r.Times) > 0 {
		// Parse order, not deduplicated; the cron projector sorts instead.
		hours := make([]string, len(r.Times))
		minutes := make([]string, len(r.Times))
		for i, t := range r.Times {
			hours[i] = strconv.Itoa(t.Hour)
			minutes[i] = strconv.Itoa(t.Minute)
		}
		m["BYHOUR"] = strings.Join(hours, ",")
		m["BYMINUTE"] = strings.Join(minutes, ",")
	}

	return m, nil
}
