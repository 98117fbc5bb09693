package todofile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirbrooks/taskline/internal/dsl"
)

const sampleFile = `---
title: Work
zone: America/New_York
---

O [build] #infra -- Build artifacts
X [qa] -- QA signoff
O [ship] +[build] +[qa] >2025-12-25 -- Ship
bogus line
- buy milk #errand
O [build] -- duplicate
`

func parseSample(t *testing.T) *File {
	t.Helper()
	now := time.Date(2025, 8, 20, 12, 0, 0, 0, time.UTC)
	return Parse([]byte(sampleFile), time.UTC, now)
}

func TestParseFrontMatter(t *testing.T) {
	f := parseSample(t)
	assert.Equal(t, "Work", f.Title)
	assert.Equal(t, "America/New_York", f.Zone)
	assert.Equal(t, "America/New_York", f.Loc.String())
}

func TestParseCollectsLineErrors(t *testing.T) {
	f := parseSample(t)
	require.Len(t, f.Errors, 2)

	assert.Equal(t, 9, f.Errors[0].Line)
	assert.Equal(t, "bogus line", f.Errors[0].Text)
	assert.ErrorIs(t, f.Errors[0].Err, dsl.ErrSyntax)

	assert.Equal(t, 11, f.Errors[1].Line)
	assert.ErrorIs(t, f.Errors[1].Err, ErrDuplicateID)
	assert.Contains(t, f.Errors[1].Error(), "line 11")
}

func TestParseTasksAndByID(t *testing.T) {
	f := parseSample(t)
	require.Len(t, f.Tasks, 5)

	build, ok := f.Get("build")
	require.True(t, ok)
	assert.Equal(t, "Build artifacts", build.Title)

	// First occurrence wins over the duplicate on line 11.
	assert.Equal(t, build, f.ByID()["build"])
}

func TestParseUnknownZone(t *testing.T) {
	data := []byte("---\nzone: Mars/Olympus\n---\nO [a] -- x\n")
	f := Parse(data, time.UTC, time.Now())
	require.NotEmpty(t, f.Errors)
	assert.Contains(t, f.Errors[0].Err.Error(), "unknown zone")
	assert.Equal(t, time.UTC, f.Loc)
	require.Len(t, f.Tasks, 1)
}

func TestBlockState(t *testing.T) {
	f := parseSample(t)
	ship, ok := f.Get("ship")
	require.True(t, ok)

	blocked, reason := f.BlockState(ship)
	assert.True(t, blocked)
	assert.Equal(t, "waiting on [build]", reason)

	qa, ok := f.Get("qa")
	require.True(t, ok)
	blocked, _ = f.BlockState(qa)
	assert.False(t, blocked)
}

func TestRenderKeepsFailedLinesVerbatim(t *testing.T) {
	f := parseSample(t)
	lines := strings.Split(string(f.Render()), "\n")

	assert.Equal(t, "---", lines[0])
	assert.Equal(t, "zone: America/New_York", lines[2])
	assert.Equal(t, "", lines[4])
	assert.Equal(t, f.Tasks[0].String(), lines[5])
	assert.Equal(t, "O [build] #infra -- Build artifacts", lines[5])
	assert.Equal(t, "bogus line", lines[8])
	assert.Equal(t, f.Tasks[3].String(), lines[9])
}

func TestRenderIdempotent(t *testing.T) {
	f := parseSample(t)
	first := f.Render()

	now := time.Date(2025, 8, 20, 12, 0, 0, 0, time.UTC)
	again := Parse(first, time.UTC, now)
	assert.Equal(t, string(first), string(again.Render()))
}

func TestLoadSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "todo.txt")
	require.NoError(t, os.WriteFile(path, []byte(sampleFile), 0o644))

	now := time.Date(2025, 8, 20, 12, 0, 0, 0, time.UTC)
	f, err := Load(path, time.UTC, now)
	require.NoError(t, err)
	require.Len(t, f.Tasks, 5)

	out := filepath.Join(dir, "out.txt")
	require.NoError(t, f.Save(out))

	written, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, string(f.Render()), string(written))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.txt"), time.UTC, time.Now())
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}

func TestParseNoFrontMatter(t *testing.T) {
	f := Parse([]byte("O [a] -- first\nO [b] -- second\n"), time.UTC, time.Now())
	require.Empty(t, f.Errors)
	require.Len(t, f.Tasks, 2)
	assert.Empty(t, f.Title)
	assert.Equal(t, time.UTC, f.Loc)
}
