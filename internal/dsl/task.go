package dsl

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

type Status int

const (
	StatusOpen Status = iota
	StatusDone
)

func (s Status) String() string {
	if s == StatusDone {
		return "done"
	}
	return "open"
}

// Set holds case-insensitively unique strings, keeping first-seen casing and
// insertion order.
type Set struct {
	values []string
}

func (s *Set) Add(v string) {
	if s.Has(v) {
		return
	}
	s.values = append(s.values, v)
}

func (s *Set) Has(v string) bool {
	for _, x := range s.values {
		if strings.EqualFold(x, v) {
			return true
		}
	}
	return false
}

func (s *Set) Len() int { return len(s.values) }

// Values returns the members in insertion order.
func (s *Set) Values() []string {
	return append([]string(nil), s.values...)
}

// Sorted returns the members sorted case-insensitively.
func (s *Set) Sorted() []string {
	out := s.Values()
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i]) < strings.ToLower(out[j])
	})
	return out
}

// Task is one parsed line of the DSL.
type Task struct {
	Status Status
	ID     string
	Title  string

	Priority        bool // '!' token
	BlockedExplicit bool // '?' token

	Assignees     Set
	Tags          Set
	Contexts      Set
	Dependencies  []string // stored order, duplicates allowed
	Recurrence    Recurrence
	Due           *time.Time
	Estimate      *time.Duration
	PriorityLevel *int
	Meta          map[string]string // keys folded to lower case
}

func needsQuoting(s string) bool {
	return strings.ContainsAny(s, " \t\"")
}

func sigilToken(sigil byte, v string) string {
	if needsQuoting(v) {
		return fmt.Sprintf("%c%q", sigil, v)
	}
	return string(sigil) + v
}

func escapeTitle(title string) string {
	return strings.ReplaceAll(title, "--", `\--`)
}

// FormatEstimate renders a duration in its largest whole unit of d, h, or m.
func FormatEstimate(d time.Duration) string {
	switch {
	case d >= 24*time.Hour:
		return fmt.Sprintf("%dd", int(d.Hours())/24)
	case d >= time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
}

func (t *Task) sortedMetaKeys() []string {
	keys := make([]string, 0, len(t.Meta))
	for k := range t.Meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String renders the canonical DSL form. Parsing it back yields an equal task.
func (t *Task) String() string {
	status := "O"
	if t.Status == StatusDone {
		status = "X"
	}
	parts := []string{status, "[" + t.ID + "]"}

	if t.Priority {
		parts = append(parts, "!")
	}
	if t.BlockedExplicit {
		parts = append(parts, "?")
	}
	for _, a := range t.Assignees.Sorted() {
		parts = append(parts, sigilToken('^', a))
	}
	for _, tag := range t.Tags.Sorted() {
		parts = append(parts, sigilToken('#', tag))
	}
	for _, dep := range t.Dependencies {
		parts = append(parts, "+["+dep+"]")
	}
	if !t.Recurrence.IsEmpty() {
		parts = append(parts, "*"+t.Recurrence.String())
	}
	if t.Due != nil {
		parts = append(parts, ">"+t.Due.Format("2006-01-02"))
	}
	if t.Estimate != nil {
		parts = append(parts, "="+FormatEstimate(*t.Estimate))
	}
	if t.PriorityLevel != nil {
		parts = append(parts, fmt.Sprintf("p:%d", *t.PriorityLevel))
	}
	for _, ctx := range t.Contexts.Sorted() {
		parts = append(parts, sigilToken('@', ctx))
	}
	for _, k := range t.sortedMetaKeys() {
		parts = append(parts, "meta:"+k+"="+t.Meta[k])
	}

	out := strings.Join(parts, " ")
	if strings.TrimSpace(t.Title) != "" {
		out += " -- " + escapeTitle(t.Title)
	}
	return out
}

func prefixEach(values []string, prefix string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = prefix + v
	}
	return out
}

// BulletString renders the loose bullet form when the task carries only
// title, tags, assignees, and dependencies; otherwise it falls back to the
// canonical form.
func (t *Task) BulletString() string {
	simple := t.Recurrence.IsEmpty() &&
		t.Due == nil &&
		t.Estimate == nil &&
		!t.Priority &&
		!t.BlockedExplicit &&
		t.PriorityLevel == nil &&
		t.Contexts.Len() == 0 &&
		len(t.Meta) == 0
	if !simple {
		return t.String()
	}

	prefix := "-"
	if t.Status == StatusDone {
		prefix = "~~"
	}
	text := t.Title
	if t.Assignees.Len() > 0 {
		text += " " + strings.Join(prefixEach(t.Assignees.Values(), "@"), " ")
	}
	if t.Tags.Len() > 0 {
		text += " " + strings.Join(prefixEach(t.Tags.Values(), "#"), " ")
	}
	if len(t.Dependencies) > 0 {
		deps := make([]string, len(t.Dependencies))
		for i, d := range t.Dependencies {
			deps[i] = "+[" + d + "]"
		}
		text += " " + strings.Join(deps, " ")
	}
	return strings.TrimRight(prefix+" "+text, " \t")
}

// PrettyString renders a human display: a status line plus an indented,
// pipe-joined detail line when any detail exists.
func (t *Task) PrettyString() string {
	icon := "[ ]"
	if t.Status == StatusDone {
		icon = "[✓]"
	}
	if t.BlockedExplicit {
		icon = "[✗]"
	}
	if t.Priority {
		icon += "★"
	}

	var pills []string
	if t.Tags.Len() > 0 {
		pills = append(pills, "Tags: "+strings.Join(prefixEach(t.Tags.Sorted(), "#"), ", "))
	}
	if t.Assignees.Len() > 0 {
		pills = append(pills, strings.Join(prefixEach(t.Assignees.Sorted(), "@"), ", "))
	}
	if t.Contexts.Len() > 0 {
		pills = append(pills, strings.Join(prefixEach(t.Contexts.Sorted(), "@"), ", "))
	}
	if t.Due != nil {
		pills = append(pills, "Due: "+t.Due.Format("2006-01-02"))
	}
	if !t.Recurrence.IsEmpty() {
		pills = append(pills, "Repeat: "+t.Recurrence.Display(true))
	}
	if len(t.Dependencies) > 0 {
		pills = append(pills, "After: "+strings.Join(t.Dependencies, ", "))
	}
	if t.Estimate != nil {
		pills = append(pills, "Est: "+FormatEstimate(*t.Estimate))
	}
	if t.PriorityLevel != nil {
		pills = append(pills, fmt.Sprintf("P%d", *t.PriorityLevel))
	}
	if len(t.Meta) > 0 {
		kvs := make([]string, 0, len(t.Meta))
		for _, k := range t.sortedMetaKeys() {
			kvs = append(kvs, k+"="+t.Meta[k])
		}
		pills = append(pills, "Meta: "+strings.Join(kvs, ", "))
	}

	details := ""
	if len(pills) > 0 {
		details = "\n    " + strings.Join(pills, " | ")
	}
	return fmt.Sprintf("%s %s (%s)%s", icon, t.Title, t.ID, details)
}
