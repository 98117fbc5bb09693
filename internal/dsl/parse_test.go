package dsl

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClock(t *testing.T) (*time.Location, time.Time) {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	// Wednesday, noon local.
	return loc, time.Date(2025, 8, 20, 12, 0, 0, 0, loc)
}

func TestParseLineAttributes(t *testing.T) {
	loc, now := testClock(t)
	task, err := ParseLine("O [t] ^jd ^sam -work -bgis +[a] +[b] -- Title", loc, now)
	require.NoError(t, err)

	assert.Equal(t, StatusOpen, task.Status)
	assert.Equal(t, "t", task.ID)
	assert.Equal(t, "Title", task.Title)
	assert.ElementsMatch(t, []string{"jd", "sam"}, task.Assignees.Values())
	assert.ElementsMatch(t, []string{"work", "bgis"}, task.Tags.Values())
	assert.Equal(t, []string{"a", "b"}, task.Dependencies)
}

func TestParseLineScalarsAndFlags(t *testing.T) {
	loc, now := testClock(t)
	task, err := ParseLine("x [done-1] ! ? =2h p:3 meta:env=prod @office -- cleanup", loc, now)
	require.NoError(t, err)

	assert.Equal(t, StatusDone, task.Status)
	assert.True(t, task.Priority)
	assert.True(t, task.BlockedExplicit)
	require.NotNil(t, task.Estimate)
	assert.Equal(t, 2*time.Hour, *task.Estimate)
	require.NotNil(t, task.PriorityLevel)
	assert.Equal(t, 3, *task.PriorityLevel)
	assert.Equal(t, map[string]string{"env": "prod"}, task.Meta)
	assert.Equal(t, []string{"office"}, task.Contexts.Values())
}

func TestParseLineLegacyPriorityStatus(t *testing.T) {
	loc, now := testClock(t)
	task, err := ParseLine("O! [t] -- urgent", loc, now)
	require.NoError(t, err)
	assert.Equal(t, StatusOpen, task.Status)
	assert.True(t, task.Priority)
}

func TestParseLineQuotedAssignee(t *testing.T) {
	loc, now := testClock(t)
	task, err := ParseLine(`O [t] ^"sam j" #"multi word" -- x`, loc, now)
	require.NoError(t, err)
	assert.Equal(t, []string{"sam j"}, task.Assignees.Values())
	assert.Equal(t, []string{"multi word"}, task.Tags.Values())
}

func TestParseLineCaseInsensitiveSets(t *testing.T) {
	loc, now := testClock(t)
	task, err := ParseLine("O [t] #Work #work ^JD ^jd", loc, now)
	require.NoError(t, err)
	assert.Equal(t, 1, task.Tags.Len())
	assert.Equal(t, 1, task.Assignees.Len())
}

func TestParseLineLastWriteWins(t *testing.T) {
	loc, now := testClock(t)
	task, err := ParseLine("O [t] =30m =2h p:1 p:9 meta:k=a meta:K=b", loc, now)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, *task.Estimate)
	assert.Equal(t, 9, *task.PriorityLevel)
	assert.Equal(t, map[string]string{"k": "b"}, task.Meta)
}

func TestParseLineTitleEscape(t *testing.T) {
	loc, now := testClock(t)
	task, err := ParseLine(`O [t] -- before \-- after`, loc, now)
	require.NoError(t, err)
	assert.Equal(t, "before -- after", task.Title)
	assert.Contains(t, task.String(), `\--`)
}

func TestParseLineErrors(t *testing.T) {
	loc, now := testClock(t)
	cases := []struct {
		name string
		line string
		want error
	}{
		{"blank", "   ", ErrEmpty},
		{"missing id", "O", ErrSyntax},
		{"bad status", "Q [t]", ErrSyntax},
		{"bare id", "O t", ErrSyntax},
		{"bad id charset", "O [t.1]", ErrSyntax},
		{"bad dependency", "O [t] +a", ErrSyntax},
		{"bad dependency id", "O [t] +[a.b]", ErrSyntax},
		{"unknown token", "O [t] %wat", ErrSyntax},
		{"meta without equals", "O [t] meta:x -- x", ErrValue},
		{"meta trailing equals", "O [t] meta:x=", ErrValue},
		{"meta empty key", "O [t] meta:=v", ErrValue},
		{"bad duration", "O [t] =2w", ErrValue},
		{"bad priority level", "O [t] p:high", ErrValue},
		{"bad recurrence", "O [t] *fortnight", ErrValue},
		{"bad due", "O [t] >someday", ErrValue},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseLine(tc.line, loc, now)
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestCanonicalRoundTrip(t *testing.T) {
	loc, now := testClock(t)
	line := `O [rel] ! ^jd ^"sam j" #infra +[build] +[qa] *day/2+08:00+20:00@2025-01-01~count:5 >2025-09-01 =3h p:2 @office meta:env=prod -- Ship \-- carefully`
	task, err := ParseLine(line, loc, now)
	require.NoError(t, err)

	again, err := ParseLine(task.String(), loc, now)
	require.NoError(t, err)

	assert.Equal(t, task.Status, again.Status)
	assert.Equal(t, task.ID, again.ID)
	assert.Equal(t, task.Title, again.Title)
	assert.Equal(t, task.Priority, again.Priority)
	assert.Equal(t, task.BlockedExplicit, again.BlockedExplicit)
	assert.ElementsMatch(t, task.Assignees.Values(), again.Assignees.Values())
	assert.ElementsMatch(t, task.Tags.Values(), again.Tags.Values())
	assert.ElementsMatch(t, task.Contexts.Values(), again.Contexts.Values())
	assert.Equal(t, task.Dependencies, again.Dependencies)
	assert.Equal(t, task.Meta, again.Meta)
	assert.Equal(t, *task.Estimate, *again.Estimate)
	assert.Equal(t, *task.PriorityLevel, *again.PriorityLevel)
	assert.Equal(t, task.Due.Format("2006-01-02"), again.Due.Format("2006-01-02"))
	assert.Equal(t, task.Recurrence.String(), again.Recurrence.String())
	assert.Equal(t, task.String(), again.String())
}

func TestPrettyString(t *testing.T) {
	loc, now := testClock(t)
	task, err := ParseLine("O [rel] ! #infra +[build] *week+8a =2h p:1 -- Ship it", loc, now)
	require.NoError(t, err)

	pretty := task.PrettyString()
	assert.Contains(t, pretty, "[ ]★ Ship it (rel)")
	assert.Contains(t, pretty, "Tags: #infra")
	assert.Contains(t, pretty, "Repeat: week+8a")
	assert.Contains(t, pretty, "After: build")
	assert.Contains(t, pretty, "Est: 2h")
	assert.Contains(t, pretty, "P1")
}

func TestPrettyStringBlockedIcon(t *testing.T) {
	loc, now := testClock(t)
	task, err := ParseLine("O [t] ? -- stuck", loc, now)
	require.NoError(t, err)
	assert.Contains(t, task.PrettyString(), "[✗] stuck (t)")
}

func TestBulletStringSimpleShape(t *testing.T) {
	loc, now := testClock(t)
	task, err := ParseLine("O [t] ^jd #errand -- buy milk", loc, now)
	require.NoError(t, err)
	assert.Equal(t, "- buy milk @jd #errand", task.BulletString())

	task.Status = StatusDone
	assert.Equal(t, "~~ buy milk @jd #errand", task.BulletString())
}

func TestBulletStringFallsBackToCanonical(t *testing.T) {
	loc, now := testClock(t)
	task, err := ParseLine("O [t] ! #errand -- buy milk", loc, now)
	require.NoError(t, err)
	// Priority flag disqualifies the bullet shape.
	assert.Equal(t, task.String(), task.BulletString())
}

func TestFormatEstimate(t *testing.T) {
	assert.Equal(t, "45m", FormatEstimate(45*time.Minute))
	assert.Equal(t, "2h", FormatEstimate(2*time.Hour))
	assert.Equal(t, "1h", FormatEstimate(90*time.Minute))
	assert.Equal(t, "3d", FormatEstimate(72*time.Hour))
}
