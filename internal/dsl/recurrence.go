package dsl

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ClockTime is a time of day with minute granularity.
type ClockTime struct {
	Hour   int
	Minute int
}

// Recurrence is the parsed form of *<freq>[/<interval>][+<time>]*[@<start>][~<end>|~count:N].
// Copies are value-equal; a Recurrence is not owned by any one task.
type Recurrence struct {
	Freq     string      // unit word, weekday, or nth/last weekday; lower case
	Interval int         // >= 1
	Times    []ClockTime // parse order, unsorted
	Start    *time.Time  // inclusive start date
	End      *time.Time  // inclusive end date
	Count    int         // occurrence cap, 0 = none
}

// EmptyRecurrence is the "no recurrence" sentinel.
func EmptyRecurrence() Recurrence {
	return Recurrence{Freq: "none", Interval: 1}
}

// IsEmpty reports the sentinel. The zero value counts as empty too.
func (r Recurrence) IsEmpty() bool {
	return r.Freq == "" || r.Freq == "none"
}

var (
	weekdaySet = map[string]bool{
		"mon": true, "tue": true, "wed": true, "thu": true,
		"fri": true, "sat": true, "sun": true,
	}
	nthWeekdayRE = regexp.MustCompile(`(?i)^([1-5]|last)(mon|tue|wed|thu|fri|sat|sun)$`)
)

func validFreq(f string) error {
	switch f {
	case "min", "hour", "day", "week", "month", "year":
		return nil
	}
	if weekdaySet[f] || nthWeekdayRE.MatchString(f) {
		return nil
	}
	return fmt.Errorf("%w: bad recurrence freq %q", ErrValue, f)
}

// ParseRecurrence parses the text after '*'. The '@' marker is located first
// and truncates the freq/interval/time head; '~' then applies to the segment
// after '@' when present, else to the whole remaining string.
func ParseRecurrence(text string) (Recurrence, error) {
	head := text
	var start, end string
	count := 0

	hasAt := false
	if at := strings.IndexByte(text, '@'); at >= 0 {
		hasAt = true
		start = text[at+1:]
		head = text[:at]
	}

	src := text
	if hasAt {
		src = start
	}
	if til := strings.IndexByte(src, '~'); til >= 0 {
		before, after := src[:til], src[til+1:]
		if hasAt {
			start = before
		} else {
			head = before
		}
		if len(after) >= 6 && strings.EqualFold(after[:6], "count:") {
			n, err := strconv.Atoi(after[6:])
			if err != nil {
				return Recurrence{}, fmt.Errorf("%w: bad recurrence count %q", ErrValue, after)
			}
			count = n
		} else {
			end = after
		}
	}

	segs := splitNonEmpty(head, "+", -1)
	if len(segs) == 0 {
		return Recurrence{}, fmt.Errorf("%w: bad recurrence freq %q", ErrValue, head)
	}
	var times []ClockTime
	for _, ts := range segs[1:] {
		ct, err := parseTimeToken(ts)
		if err != nil {
			return Recurrence{}, err
		}
		times = append(times, ct)
	}

	bits := splitNonEmpty(segs[0], "/", 2)
	if len(bits) == 0 {
		return Recurrence{}, fmt.Errorf("%w: bad recurrence freq %q", ErrValue, segs[0])
	}
	freq := strings.ToLower(bits[0])
	interval := 1
	if len(bits) == 2 {
		n, err := strconv.Atoi(bits[1])
		if err != nil {
			return Recurrence{}, fmt.Errorf("%w: bad recurrence interval %q", ErrValue, bits[1])
		}
		interval = n
	}
	if interval < 1 {
		return Recurrence{}, fmt.Errorf("%w: recurrence interval must be >= 1", ErrValue)
	}
	if err := validFreq(freq); err != nil {
		return Recurrence{}, err
	}

	startDate, err := parseDateOnly(start)
	if err != nil {
		return Recurrence{}, err
	}
	endDate, err := parseDateOnly(end)
	if err != nil {
		return Recurrence{}, err
	}

	return Recurrence{
		Freq:     freq,
		Interval: interval,
		Times:    times,
		Start:    startDate,
		End:      endDate,
		Count:    count,
	}, nil
}

func parseDateOnly(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("%w: bad date %q, use yyyy-mm-dd", ErrValue, s)
	}
	return &d, nil
}

// String renders the canonical form; parsing it back yields an equal value
// up to time ordering.
func (r Recurrence) String() string { return r.Display(false) }

// Display renders the recurrence, optionally with friendly 12-hour time
// tokens. Empty recurrence renders as the empty string.
func (r Recurrence) Display(friendly bool) string {
	if r.IsEmpty() {
		return ""
	}
	var b strings.Builder
	b.WriteString(r.Freq)
	if r.Interval != 1 {
		fmt.Fprintf(&b, "/%d", r.Interval)
	}
	for _, t := range distinctSortedTimes(r.Times) {
		b.WriteByte('+')
		b.WriteString(formatTimeToken(t, friendly, r.Freq))
	}
	if r.Start != nil {
		b.WriteString("@" + r.Start.Format("2006-01-02"))
	}
	if r.End != nil {
		b.WriteString("~" + r.End.Format("2006-01-02"))
	} else if r.Count > 0 {
		fmt.Fprintf(&b, "~count:%d", r.Count)
	}
	return b.String()
}

func distinctSortedTimes(times []ClockTime) []ClockTime {
	out := append([]ClockTime(nil), times...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Hour != out[j].Hour {
			return out[i].Hour < out[j].Hour
		}
		return out[i].Minute < out[j].Minute
	})
	dedup := out[:0]
	for i, t := range out {
		if i > 0 && t == out[i-1] {
			continue
		}
		dedup = append(dedup, t)
	}
	return dedup
}

// formatTimeToken keeps minute-only tokens minute-only under hourly
// frequency so canonical strings round-trip unchanged.
func formatTimeToken(t ClockTime, friendly bool, freq string) string {
	if !friendly {
		if freq == "hour" && t.Hour == 0 {
			return strconv.Itoa(t.Minute)
		}
		return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
	}
	h12 := t.Hour % 12
	if h12 == 0 {
		h12 = 12
	}
	suffix := "a"
	if t.Hour >= 12 {
		suffix = "p"
	}
	if t.Minute == 0 {
		return fmt.Sprintf("%d%s", h12, suffix)
	}
	return fmt.Sprintf("%d:%02d%s", h12, t.Minute, suffix)
}
