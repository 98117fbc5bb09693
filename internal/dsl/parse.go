// Package dsl parses, formats, and projects the single-line task description
// language used in plain-text todo files.
//
// A structured line looks like:
//
//	O [deploy] ! ^jd #infra +[build] *day/2+08:00 >fri+5p =2h -- Ship the release
//
// Loose bullet lines ("- buy milk #errand @jd") are also accepted. The parser
// is stateless; the caller supplies the time zone and reference instant used
// to resolve relative dates.
package dsl

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var idRE = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

func requireValidID(id, errPrefix string) (string, error) {
	if !idRE.MatchString(id) {
		return "", fmt.Errorf("%w: %s: %q", ErrSyntax, errPrefix, id)
	}
	return id, nil
}

// ParseLine parses one line into a Task. Bullet lines ("- ", "~~ ") take the
// loose path; everything else is the structured DSL. Parsing is
// all-or-nothing: any malformed token fails the whole line.
func ParseLine(line string, loc *time.Location, now time.Time) (*Task, error) {
	if strings.TrimSpace(line) == "" {
		return nil, fmt.Errorf("%w: blank line", ErrEmpty)
	}
	trimmed := strings.TrimLeft(line, " \t")
	if strings.HasPrefix(trimmed, "- ") {
		return parseBullet(trimmed[2:], false), nil
	}
	if strings.HasPrefix(trimmed, "~~ ") {
		return parseBullet(trimmed[3:], true), nil
	}

	left, title := line, ""
	if cut := strings.Index(line, " -- "); cut >= 0 {
		left = line[:cut]
		title = strings.TrimSpace(line[cut+4:])
	}
	title = strings.ReplaceAll(title, `\--`, "--")

	tokens := tokenize(left)
	if len(tokens) < 2 {
		return nil, fmt.Errorf("%w: expected at least <status> and <[id]>", ErrSyntax)
	}
	id, err := parseID(tokens[1])
	if err != nil {
		return nil, err
	}
	status, err := parseStatus(tokens[0])
	if err != nil {
		return nil, err
	}

	task := &Task{Status: status, ID: id, Title: title}
	// Back-compat: "O!" is Open plus the priority flag.
	if strings.EqualFold(tokens[0], "O!") {
		task.Priority = true
	}

	for _, tok := range tokens[2:] {
		if err := applyToken(task, tok, loc, now); err != nil {
			return nil, err
		}
	}
	return task, nil
}

// applyToken folds one attribute token into the task. Scalar fields are
// last-write-wins; sets and the dependency list accumulate.
func applyToken(t *Task, tok string, loc *time.Location, now time.Time) error {
	switch tok {
	case "":
		return fmt.Errorf("%w: unknown token %q", ErrSyntax, tok)
	case "!":
		t.Priority = true
		return nil
	case "?":
		t.BlockedExplicit = true
		return nil
	}

	switch tok[0] {
	case '^':
		t.Assignees.Add(valueAfterSigil(tok))
	case '#', '-': // '-' is the legacy tag sigil
		t.Tags.Add(valueAfterSigil(tok))
	case '@':
		t.Contexts.Add(valueAfterSigil(tok))
	case '+':
		if len(tok) < 4 || tok[1] != '[' || tok[len(tok)-1] != ']' {
			return fmt.Errorf("%w: bad dependency token %q, use +[id]", ErrSyntax, tok)
		}
		dep, err := requireValidID(tok[2:len(tok)-1], "dependency id invalid")
		if err != nil {
			return err
		}
		t.Dependencies = append(t.Dependencies, dep)
	case '*':
		r, err := ParseRecurrence(tok[1:])
		if err != nil {
			return err
		}
		t.Recurrence = r
	case '>':
		due, err := parseDue(tok[1:], loc, now)
		if err != nil {
			return err
		}
		t.Due = &due
	case '=':
		d, err := parseDuration(tok[1:])
		if err != nil {
			return err
		}
		t.Estimate = &d
	default:
		lower := strings.ToLower(tok)
		switch {
		case strings.HasPrefix(lower, "p:"):
			n, err := strconv.Atoi(tok[2:])
			if err != nil {
				return fmt.Errorf("%w: bad priority level %q", ErrValue, tok)
			}
			t.PriorityLevel = &n
		case strings.HasPrefix(lower, "meta:"):
			return t.setMetaToken(tok[5:])
		default:
			return fmt.Errorf("%w: unknown token %q", ErrSyntax, tok)
		}
	}
	return nil
}

func parseStatus(s string) (Status, error) {
	switch strings.ToUpper(s) {
	case "O", "O!":
		return StatusOpen, nil
	case "X":
		return StatusDone, nil
	default:
		return 0, fmt.Errorf("%w: invalid status %q, use 'O' or 'X'", ErrSyntax, s)
	}
}

func parseID(tok string) (string, error) {
	if !strings.HasPrefix(tok, "[") || !strings.HasSuffix(tok, "]") {
		return "", fmt.Errorf("%w: id must be [slug], got %q", ErrSyntax, tok)
	}
	return requireValidID(tok[1:len(tok)-1], "id may contain only A-Z a-z 0-9 _ -")
}

// setMetaToken parses "<key>=<value>". Keys fold to lower case and repeat
// keys overwrite.
func (t *Task) setMetaToken(kv string) error {
	idx := strings.IndexByte(kv, '=')
	if idx <= 0 || idx == len(kv)-1 {
		return fmt.Errorf("%w: bad meta token %q", ErrValue, "meta:"+kv)
	}
	if t.Meta == nil {
		t.Meta = make(map[string]string)
	}
	t.Meta[strings.ToLower(kv[:idx])] = kv[idx+1:]
	return nil
}

var durationRE = regexp.MustCompile(`(?i)^(\d+)([mhd])$`)

func parseDuration(s string) (time.Duration, error) {
	m := durationRE.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("%w: bad duration %q, use 30m|2h|3d", ErrValue, s)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("%w: bad duration %q", ErrValue, s)
	}
	switch strings.ToLower(m[2]) {
	case "m":
		return time.Duration(n) * time.Minute, nil
	case "h":
		return time.Duration(n) * time.Hour, nil
	default:
		return time.Duration(n) * 24 * time.Hour, nil
	}
}
