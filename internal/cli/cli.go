package cli

import (
	"crypto/rand"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/amirbrooks/taskline/internal/config"
	"github.com/amirbrooks/taskline/internal/dsl"
	"github.com/amirbrooks/taskline/internal/todofile"
)

// Exit codes
const (
	ExitOK       = 0
	ExitUsage    = 2
	ExitParse    = 3
	ExitNotFound = 4
	ExitInternal = 10
)

type GlobalFlags struct {
	File     string
	Zone     string
	Config   string
	Friendly bool
	Quiet    bool
}

// env carries the resolved settings every command runs under.
type env struct {
	file     string
	loc      *time.Location
	now      time.Time
	friendly bool
	quiet    bool
}

func Run(args []string) int {
	gf, rest, err := extractGlobalFlags(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return ExitUsage
	}

	if len(rest) == 0 {
		printHelp()
		return ExitUsage
	}

	cmd := rest[0]
	cmdArgs := rest[1:]

	cfgPath := gf.Config
	if cfgPath == "" {
		cfgPath = config.Path()
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "taskline:", err)
		return ExitInternal
	}

	e := env{
		file:     gf.File,
		now:      time.Now(),
		friendly: gf.Friendly || cfg.FriendlyTimes,
		quiet:    gf.Quiet,
	}
	if e.file == "" {
		e.file = cfg.File
	}
	zone := gf.Zone
	if zone == "" {
		zone = cfg.Zone
	}
	if zone != "" {
		loc, err := time.LoadLocation(zone)
		if err != nil {
			fmt.Fprintf(os.Stderr, "taskline: unknown zone %q\n", zone)
			return ExitUsage
		}
		e.loc = loc
	}

	switch cmd {
	case "help", "--help", "-h":
		printHelp()
		return ExitOK
	case "check":
		return cmdCheck(e, cmdArgs)
	case "fmt":
		return cmdFmt(e, cmdArgs)
	case "ls", "list":
		return cmdList(e, cmdArgs)
	case "show":
		return cmdShow(e, cmdArgs)
	case "add":
		return cmdAdd(e, cmdArgs)
	case "cron":
		return cmdCron(e, cmdArgs)
	case "rrule":
		return cmdRRule(e, cmdArgs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printHelp()
		return ExitUsage
	}
}

func printHelp() {
	fmt.Print(`taskline — plain-text tasks, one line each

Usage:
  taskline [global flags] <command> [args]

Global flags:
  --file <path>    Todo file (default: from config, then todo.txt)
  --zone <iana>    Time zone for dates (default: config, file front matter, local)
  --config <path>  Config file (default: ~/.taskline.toml or TASKLINE_CONFIG)
  --friendly       12-hour time tokens in pretty output
  --quiet          Suppress non-error output

Commands:
  check [--schema <path>]   Parse the file, report every bad line
  fmt [--write]             Canonical rewrite to stdout, or in place
  ls                        One line per task
  show <id>                 Pretty-print one task
  add <line...>             Append a task line (bare titles get an id)
  cron <id|expr>            Project a recurrence to a cron expression
  rrule <id|expr>           Project a recurrence to RFC 5545 parts

Line format:
  O [deploy] ! ^jd #infra +[build] *day/2+08:00 >fri+5p =2h -- Ship the release
  - buy milk #errand @jd
`)
}

func extractGlobalFlags(args []string) (GlobalFlags, []string, error) {
	// Allow flags anywhere by scanning and stripping known globals.
	gf := GlobalFlags{}

	out := make([]string, 0, len(args))
	skip := 0

	for i := 0; i < len(args); i++ {
		if skip > 0 {
			skip--
			continue
		}
		a := args[i]
		switch a {
		case "--file":
			if i+1 >= len(args) {
				return gf, nil, errors.New("--file requires a value")
			}
			gf.File = args[i+1]
			skip = 1
		case "--zone":
			if i+1 >= len(args) {
				return gf, nil, errors.New("--zone requires a value")
			}
			gf.Zone = args[i+1]
			skip = 1
		case "--config":
			if i+1 >= len(args) {
				return gf, nil, errors.New("--config requires a value")
			}
			gf.Config = args[i+1]
			skip = 1
		case "--friendly":
			gf.Friendly = true
		case "--quiet":
			gf.Quiet = true
		default:
			out = append(out, a)
		}
	}
	return gf, out, nil
}

func (e env) load() (*todofile.File, error) {
	return todofile.Load(e.file, e.loc, e.now)
}

func cmdCheck(e env, args []string) int {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	schema := fs.String("schema", "", "JSON schema to validate the export against")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}

	f, err := e.load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "check:", err)
		return ExitInternal
	}
	for _, le := range f.Errors {
		fmt.Fprintln(os.Stderr, le.Error())
	}

	failed := len(f.Errors) > 0
	if *schema != "" {
		data, err := f.Export()
		if err != nil {
			fmt.Fprintln(os.Stderr, "check:", err)
			return ExitInternal
		}
		if err := todofile.ValidateExport(data, *schema); err != nil {
			fmt.Fprintln(os.Stderr, "check: export:", err)
			failed = true
		}
	}
	if failed {
		return ExitParse
	}
	if !e.quiet {
		fmt.Printf("ok: %d tasks\n", len(f.Tasks))
	}
	return ExitOK
}

func cmdFmt(e env, args []string) int {
	fs := flag.NewFlagSet("fmt", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	write := fs.Bool("write", false, "Rewrite the file in place")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}

	f, err := e.load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "fmt:", err)
		return ExitInternal
	}
	for _, le := range f.Errors {
		fmt.Fprintln(os.Stderr, le.Error())
	}
	if *write {
		if err := f.Save(e.file); err != nil {
			fmt.Fprintln(os.Stderr, "fmt:", err)
			return ExitInternal
		}
		if !e.quiet {
			fmt.Println("Rewrote", e.file)
		}
		return ExitOK
	}
	os.Stdout.Write(f.Render())
	return ExitOK
}

func cmdList(e env, args []string) int {
	f, err := e.load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "ls:", err)
		return ExitInternal
	}
	for _, t := range f.Tasks {
		fmt.Println(renderListLine(t, f))
	}
	return ExitOK
}

func cmdShow(e env, args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: taskline show <id>")
		return ExitUsage
	}
	f, err := e.load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "show:", err)
		return ExitInternal
	}
	t, ok := f.Get(args[0])
	if !ok {
		fmt.Fprintf(os.Stderr, "show: no task with id %q\n", args[0])
		return ExitNotFound
	}
	fmt.Println(renderPretty(t, f, e.friendly))
	return ExitOK
}

func cmdAdd(e env, args []string) int {
	line := strings.TrimSpace(strings.Join(args, " "))
	if line == "" {
		fmt.Fprintln(os.Stderr, "Usage: taskline add <line...>")
		return ExitUsage
	}

	task, err := dsl.ParseLine(line, e.locOrLocal(), e.now)
	if err != nil {
		if looksStructured(line) {
			fmt.Fprintln(os.Stderr, "add:", err)
			return ExitParse
		}
		// Bare title; mint an id so the line round-trips.
		task = &dsl.Task{Status: dsl.StatusOpen, ID: "tsk_" + newULID(), Title: line}
	}

	if err := todofile.AppendLine(e.file, task.String()); err != nil {
		fmt.Fprintln(os.Stderr, "add:", err)
		return ExitInternal
	}
	if !e.quiet {
		fmt.Println(task.String())
	}
	return ExitOK
}

// looksStructured reports whether the first token is a status, meaning a
// parse failure is a real error rather than a bare title.
func looksStructured(line string) bool {
	first, _, _ := strings.Cut(strings.TrimLeft(line, " \t"), " ")
	switch strings.ToUpper(first) {
	case "O", "O!", "X":
		return true
	}
	return strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "~~ ")
}

func cmdCron(e env, args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: taskline cron <id|expr>")
		return ExitUsage
	}
	r, code := e.recurrenceFor(args[0])
	if code != ExitOK {
		return code
	}
	expr, err := dsl.CronString(r)
	if err != nil {
		fmt.Fprintln(os.Stderr, "cron:", err)
		return ExitParse
	}
	fmt.Println(expr)
	return ExitOK
}

func cmdRRule(e env, args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: taskline rrule <id|expr>")
		return ExitUsage
	}
	r, code := e.recurrenceFor(args[0])
	if code != ExitOK {
		return code
	}
	parts, err := dsl.ToRRule(r)
	if err != nil {
		fmt.Fprintln(os.Stderr, "rrule:", err)
		return ExitParse
	}
	keys := make([]string, 0, len(parts))
	for k := range parts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("%s=%s\n", k, parts[k])
	}
	return ExitOK
}

// recurrenceFor resolves the argument as a task id in the todo file first,
// then as a literal recurrence expression.
func (e env) recurrenceFor(arg string) (dsl.Recurrence, int) {
	if f, err := e.load(); err == nil {
		if t, ok := f.Get(arg); ok {
			if t.Recurrence.IsEmpty() {
				fmt.Fprintf(os.Stderr, "task [%s] has no recurrence\n", arg)
				return dsl.Recurrence{}, ExitNotFound
			}
			return t.Recurrence, ExitOK
		}
	}
	r, err := dsl.ParseRecurrence(arg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "taskline:", err)
		return dsl.Recurrence{}, ExitParse
	}
	return r, ExitOK
}

func (e env) locOrLocal() *time.Location {
	if e.loc != nil {
		return e.loc
	}
	return time.Local
}

type randReader struct{}

func (randReader) Read(p []byte) (int, error) { return rand.Read(p) }

func newULID() string {
	t := ulid.Timestamp(time.Now().UTC())
	entropy := ulid.Monotonic(randReader{}, 0)
	id, err := ulid.New(t, entropy)
	if err != nil {
		// fallback
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return strings.ToUpper(id.String())
}
