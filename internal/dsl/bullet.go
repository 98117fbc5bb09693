package dsl

import (
	"crypto/rand"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	hashTagRE      = regexp.MustCompile(`(^|\s)#([A-Za-z0-9_-]+)`)
	mentionRE      = regexp.MustCompile(`(^|\s)@([A-Za-z0-9_-]+)`)
	bulletDepRE    = regexp.MustCompile(`\+\s*\[([A-Za-z0-9_-]+)\]`)
	bulletMarkerRE = regexp.MustCompile(`(^|\s)(#[A-Za-z0-9_-]+|@[A-Za-z0-9_-]+|\+\s*\[[A-Za-z0-9_-]+\])`)
	multiSpaceRE   = regexp.MustCompile(`\s{2,}`)
	nonAlnumRE     = regexp.MustCompile(`[^a-z0-9]+`)
)

// parseBullet handles the loose "- free text #tag @assignee +[dep]" input
// path. It cannot fail: anything that is not a marker belongs to the title.
func parseBullet(text string, done bool) *Task {
	status := StatusOpen
	if done {
		status = StatusDone
	}
	title := cleanBulletTitle(text)

	t := &Task{Status: status, ID: bulletID(title, text), Title: title}
	for _, tag := range captures(hashTagRE, text, 2) {
		t.Tags.Add(tag)
	}
	for _, a := range captures(mentionRE, text, 2) {
		t.Assignees.Add(a)
	}
	t.Dependencies = captures(bulletDepRE, text, 1)
	return t
}

func captures(re *regexp.Regexp, s string, group int) []string {
	var out []string
	for _, m := range re.FindAllStringSubmatch(s, -1) {
		out = append(out, m[group])
	}
	return out
}

// cleanBulletTitle strips inline markers and collapses leftover runs of
// whitespace, keeping the readable text.
func cleanBulletTitle(s string) string {
	cleaned := strings.TrimSpace(bulletMarkerRE.ReplaceAllString(s, "$1"))
	return multiSpaceRE.ReplaceAllString(cleaned, " ")
}

// bulletID derives a stable id: a slug of the cleaned title joined with a
// short content hash of the original marker-bearing text. Empty titles fall
// back to a random note id. Uniqueness is the caller's concern.
func bulletID(title, source string) string {
	if strings.TrimSpace(title) == "" {
		return "note-" + randomHex6()
	}
	slug := nonAlnumRE.ReplaceAllString(strings.ToLower(title), "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > 32 {
		slug = strings.Trim(slug[:32], "-")
	}
	sum := sha1.Sum([]byte(source))
	return slug + "-" + hex.EncodeToString(sum[:3])
}

func randomHex6() string {
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		// fallback
		return fmt.Sprintf("%012x", time.Now().UnixNano())[:6]
	}
	return hex.EncodeToString(b)
}
