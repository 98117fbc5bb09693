package dsl

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBulletLine(t *testing.T) {
	loc, now := testClock(t)
	task, err := ParseLine("- buy milk #errand @jd", loc, now)
	require.NoError(t, err)

	assert.Equal(t, StatusOpen, task.Status)
	assert.Equal(t, "buy milk", task.Title)
	assert.Equal(t, []string{"errand"}, task.Tags.Values())
	assert.Equal(t, []string{"jd"}, task.Assignees.Values())
	assert.Regexp(t, regexp.MustCompile(`^buy-milk-[0-9a-f]{6}$`), task.ID)
}

func TestParseBulletDone(t *testing.T) {
	loc, now := testClock(t)
	task, err := ParseLine("~~ call dentist", loc, now)
	require.NoError(t, err)
	assert.Equal(t, StatusDone, task.Status)
	assert.Equal(t, "call dentist", task.Title)
}

func TestParseBulletDependencies(t *testing.T) {
	loc, now := testClock(t)
	task, err := ParseLine("- ship release +[build] + [qa]", loc, now)
	require.NoError(t, err)
	assert.Equal(t, []string{"build", "qa"}, task.Dependencies)
	assert.Equal(t, "ship release", task.Title)
}

func TestParseBulletLeadingWhitespace(t *testing.T) {
	loc, now := testClock(t)
	task, err := ParseLine("   - indented item", loc, now)
	require.NoError(t, err)
	assert.Equal(t, "indented item", task.Title)
}

func TestBulletIDStable(t *testing.T) {
	loc, now := testClock(t)
	a, err := ParseLine("- buy milk #errand", loc, now)
	require.NoError(t, err)
	b, err := ParseLine("- buy milk #errand", loc, now)
	require.NoError(t, err)
	assert.Equal(t, a.ID, b.ID)

	// Different markers hash differently even with the same clean title.
	c, err := ParseLine("- buy milk #grocery", loc, now)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, c.ID)
}

func TestBulletIDEmptyTitleFallback(t *testing.T) {
	loc, now := testClock(t)
	task, err := ParseLine("- #tag-only", loc, now)
	require.NoError(t, err)
	assert.Empty(t, task.Title)
	assert.Regexp(t, regexp.MustCompile(`^note-[0-9a-f]{6}$`), task.ID)
}

func TestBulletIDSlugCap(t *testing.T) {
	loc, now := testClock(t)
	task, err := ParseLine("- this is a very long bullet title that keeps going on and on", loc, now)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^[a-z0-9-]{1,32}-[0-9a-f]{6}$`), task.ID)
}

func TestCleanBulletTitleCollapsesSpaces(t *testing.T) {
	assert.Equal(t, "alpha beta", cleanBulletTitle("alpha #x beta @y"))
	assert.Equal(t, "alpha beta", cleanBulletTitle("alpha    beta"))
}
