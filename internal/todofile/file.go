// Package todofile loads, parses, and rewrites plain-text todo files where
// each non-blank line is one task in the DSL handled by internal/dsl.
package todofile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/amirbrooks/taskline/internal/dsl"
)

var ErrDuplicateID = errors.New("duplicate id")

// LineError records one failing line. Line numbers are 1-based and count
// every line of the original file, front matter included.
type LineError struct {
	Line int
	Text string
	Err  error
}

func (e LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e LineError) Unwrap() error { return e.Err }

type frontMatter struct {
	Title string `yaml:"title"`
	Zone  string `yaml:"zone"`
}

// bodyLine keeps the original text so failed and blank lines survive a
// canonical rewrite verbatim.
type bodyLine struct {
	text string
	task *dsl.Task
}

// File is one parsed todo file.
type File struct {
	Title  string
	Zone   string
	Loc    *time.Location
	Tasks  []*dsl.Task
	Errors []LineError

	header []string
	lines  []bodyLine
	byID   map[string]*dsl.Task
}

// Parse parses every line of data. Failing lines never fail the file; they
// are collected in Errors and kept verbatim on rewrite. A `zone:` front
// matter key overrides loc for the whole file.
func Parse(data []byte, loc *time.Location, now time.Time) *File {
	s := strings.ReplaceAll(string(data), "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	lines := strings.Split(s, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}

	f := &File{Loc: loc}
	body := 0
	if len(lines) > 0 && strings.TrimSpace(lines[0]) == "---" {
		for i := 1; i < len(lines); i++ {
			if strings.TrimSpace(lines[i]) != "---" {
				continue
			}
			f.header = lines[:i+1]
			body = i + 1
			f.applyFrontMatter(strings.Join(lines[1:i], "\n"))
			break
		}
	}
	if f.Loc == nil {
		f.Loc = time.Local
	}

	firstSeen := map[string]int{}
	for i := body; i < len(lines); i++ {
		text := lines[i]
		num := i + 1
		if strings.TrimSpace(text) == "" {
			f.lines = append(f.lines, bodyLine{text: text})
			continue
		}
		task, err := dsl.ParseLine(text, f.Loc, now)
		if err != nil {
			f.Errors = append(f.Errors, LineError{Line: num, Text: text, Err: err})
			f.lines = append(f.lines, bodyLine{text: text})
			continue
		}
		f.Tasks = append(f.Tasks, task)
		f.lines = append(f.lines, bodyLine{text: text, task: task})
		if task.ID == "" {
			continue
		}
		if first, dup := firstSeen[task.ID]; dup {
			f.Errors = append(f.Errors, LineError{
				Line: num,
				Text: text,
				Err:  fmt.Errorf("%w [%s], first defined on line %d", ErrDuplicateID, task.ID, first),
			})
			continue
		}
		firstSeen[task.ID] = num
	}

	f.byID = make(map[string]*dsl.Task, len(f.Tasks))
	for _, t := range f.Tasks {
		if t.ID == "" {
			continue
		}
		if _, ok := f.byID[t.ID]; ok {
			continue
		}
		f.byID[t.ID] = t
	}
	return f
}

func (f *File) applyFrontMatter(raw string) {
	var fm frontMatter
	if err := yaml.Unmarshal([]byte(raw), &fm); err != nil {
		f.Errors = append(f.Errors, LineError{Line: 1, Text: "---", Err: fmt.Errorf("front matter: %w", err)})
		return
	}
	f.Title = fm.Title
	f.Zone = fm.Zone
	if fm.Zone == "" {
		return
	}
	loc, err := time.LoadLocation(fm.Zone)
	if err != nil {
		f.Errors = append(f.Errors, LineError{Line: 1, Text: "---", Err: fmt.Errorf("front matter: unknown zone %q", fm.Zone)})
		return
	}
	f.Loc = loc
}

// ByID maps task ids to tasks. The first occurrence of a duplicated id wins.
func (f *File) ByID() map[string]*dsl.Task {
	return f.byID
}

// Get looks a task up by id.
func (f *File) Get(id string) (*dsl.Task, bool) {
	t, ok := f.byID[id]
	return t, ok
}

// BlockState reports whether t is blocked within this file and why.
func (f *File) BlockState(t *dsl.Task) (bool, string) {
	return dsl.ComputeBlockState(t, f.byID)
}

// Render rewrites the file: front matter re-emitted as read, every parsed
// task in canonical form, failed and blank lines verbatim.
func (f *File) Render() []byte {
	var b strings.Builder
	for _, h := range f.header {
		b.WriteString(h)
		b.WriteString("\n")
	}
	for _, ln := range f.lines {
		if ln.task != nil {
			b.WriteString(ln.task.String())
		} else {
			b.WriteString(ln.text)
		}
		b.WriteString("\n")
	}
	return []byte(b.String())
}

// Load reads and parses the todo file at path. "~/..." paths expand to the
// user's home directory.
func Load(path string, loc *time.Location, now time.Time) (*File, error) {
	data, err := os.ReadFile(expandHome(path))
	if err != nil {
		return nil, err
	}
	return Parse(data, loc, now), nil
}

// AppendLine appends one task line to the file at path, creating the file
// when missing. The write is atomic.
func AppendLine(path, line string) error {
	full := expandHome(path)
	data, err := os.ReadFile(full)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if len(data) > 0 && data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}
	data = append(data, line...)
	data = append(data, '\n')
	return atomicWriteFile(full, data, 0o644)
}

// Save writes the canonical rewrite to path atomically.
func (f *File) Save(path string) error {
	return atomicWriteFile(expandHome(path), f.Render(), 0o644)
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~"+string(os.PathSeparator)) || path == "~" {
		home, _ := os.UserHomeDir()
		if home != "" {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

func atomicWriteFile(path string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp := filepath.Join(dir, fmt.Sprintf(".tmp-%d", time.Now().UnixNano()))
	if err := os.WriteFile(tmp, data, perm); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	// Rename is atomic on same filesystem.
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
