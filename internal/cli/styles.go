package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/amirbrooks/taskline/internal/dsl"
	"github.com/amirbrooks/taskline/internal/todofile"
)

var (
	styleDone    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	styleBlocked = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	styleStar    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	styleDim     = lipgloss.NewStyle().Faint(true)
)

func renderListLine(t *dsl.Task, f *todofile.File) string {
	blocked, reason := f.BlockState(t)

	icon := "[ ]"
	switch {
	case t.Status == dsl.StatusDone:
		icon = styleDone.Render("[✓]")
	case blocked:
		icon = styleBlocked.Render("[✗]")
	}
	if t.Priority {
		icon += styleStar.Render("★")
	}

	title := t.Title
	if strings.TrimSpace(title) == "" {
		title = "(untitled)"
	}
	line := icon + " " + title + " " + styleDim.Render("("+t.ID+")")
	if blocked && t.Status != dsl.StatusDone {
		line += " " + styleBlocked.Render("blocked: "+reason)
	}
	return line
}

func renderPretty(t *dsl.Task, f *todofile.File, friendly bool) string {
	out := t.PrettyString()
	if !friendly && !t.Recurrence.IsEmpty() {
		out = strings.Replace(out, "Repeat: "+t.Recurrence.Display(true), "Repeat: "+t.Recurrence.Display(false), 1)
	}
	if blocked, reason := f.BlockState(t); blocked && t.Status != dsl.StatusDone {
		out += "\n    " + styleBlocked.Render("blocked: "+reason)
	}
	return out
}
