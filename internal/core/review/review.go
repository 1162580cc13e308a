// Package review tracks per-session code review progress: which diff
// hunks a reviewer has seen, keyed by content rather than position, so
// marks survive diff regeneration, rebases onto moved bases, and
// session re-entry.
package review

import (
	"errors"
	"fmt"
	"strings"

	"github.com/reviewkit/revq/internal/core/diff"
	"github.com/reviewkit/revq/internal/core/git"
)

var (
	// ErrNoChanges indicates the branch has no changes against its base.
	// It is informational: the session stays usable with zero entries.
	ErrNoChanges = errors.New("no changes against base")
	// ErrEntryNotFound indicates an entry ID no longer resolves, usually
	// because a mutation rebuilt the listing underneath the caller.
	ErrEntryNotFound = errors.New("entry not found")
	// ErrHunkOutOfRange indicates a hunk index outside the entry's diff.
	ErrHunkOutOfRange = errors.New("hunk index out of range")
	// ErrUnknownMode indicates an unrecognized review mode.
	ErrUnknownMode = errors.New("unknown review mode")
)

// Mode selects how the change set is sliced into entries.
type Mode string

const (
	// ModeFile reviews the branch's cumulative change set, one entry
	// per file.
	ModeFile Mode = "by-file"
	// ModeCommit reviews commit by commit, one entry per (commit, file).
	ModeCommit Mode = "by-commit"
)

// ParseMode validates a mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeFile, ModeCommit:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// MarkKey identifies one reviewed hunk: the mark-sharing entry key plus
// the hunk's content identifier. The entry key is the file path in both
// modes, so marks are shared across commits touching the same file.
type MarkKey struct {
	EntryKey string
	ID       diff.ContentID
}

// String serializes the key for persistence as "<entryKey>:<contentID>".
func (k MarkKey) String() string {
	return k.EntryKey + ":" + string(k.ID)
}

// ParseMarkKey splits a serialized mark key on its last colon, so entry
// keys containing colons keep round-tripping.
func ParseMarkKey(s string) (MarkKey, error) {
	idx := strings.LastIndex(s, ":")
	if idx <= 0 || idx == len(s)-1 {
		return MarkKey{}, fmt.Errorf("malformed mark key: %q", s)
	}
	return MarkKey{EntryKey: s[:idx], ID: diff.ContentID(s[idx+1:])}, nil
}

// Entry is one visible row of a review session listing. A partially
// reviewed file yields two rows, one per section, each exposing the
// matching slice of its hunks.
type Entry struct {
	Section diff.Section
	// Key is the mark-sharing identity: the file path.
	Key string
	// Path is the display path; equals Key today, but renames keep the
	// distinction useful.
	Path string
	// Commit is set in by-commit mode and zero otherwise.
	Commit git.Commit
	Status git.Status
}

// ID uniquely identifies the row within the session listing.
func (e Entry) ID() string {
	var b strings.Builder
	b.WriteString(string(e.Section))
	b.WriteByte(':')
	if e.Commit.Hash != "" {
		b.WriteString(e.Commit.Hash)
		b.WriteByte(':')
	}
	b.WriteString(e.Path)
	return b.String()
}

// cacheKey is the section-independent identity used for diff and
// identifier caches. Commit-qualified in by-commit mode so the same
// file in two commits caches separately.
func (e Entry) cacheKey() string {
	if e.Commit.Hash != "" {
		return e.Commit.Hash + ":" + e.Path
	}
	return e.Path
}
