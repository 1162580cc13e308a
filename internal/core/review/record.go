package review

import (
	"time"

	"github.com/reviewkit/revq/internal/core/diff"
	"github.com/reviewkit/revq/pkg/kv"
)

// Record is the review state for one (repository, branch, mode)
// session: the durable mark set plus derived caches rebuilt from git
// data whenever the head may have moved.
type Record struct {
	Marks *MarkSet

	// HunkCounts caches per-entry hunk totals for list display,
	// keyed by entry cache key.
	HunkCounts *kv.Store[string, int]
	// ContentIDs caches per-entry identifier lists in hunk order,
	// keyed by entry cache key.
	ContentIDs *kv.Store[string, []diff.ContentID]

	Branch string
	// LastUsed is a unix timestamp updated on open and close; eviction
	// ranks session files by it.
	LastUsed int64

	// Ephemeral marks a session whose state must not be written back,
	// chosen when a reviewer continues over a corrupted state file.
	Ephemeral bool

	// Transient cursor hint: survives rebuilds, not restarts.
	lastSection diff.Section
	lastEntry   string
}

// NewRecord creates an empty record for a branch.
func NewRecord(branch string) *Record {
	return &Record{
		Marks:      NewMarkSet(),
		HunkCounts: kv.New[string, int](),
		ContentIDs: kv.New[string, []diff.ContentID](),
		Branch:     branch,
	}
}

// ClearDerived drops the hunk-count and identifier caches while
// retaining marks. Called when the head may have changed: stale
// identifiers would mis-categorize, stale marks merely stay dormant
// until their content reappears.
func (r *Record) ClearDerived() {
	r.HunkCounts.Clear()
	r.ContentIDs.Clear()
}

// Touch updates the last-used timestamp.
func (r *Record) Touch(now time.Time) {
	r.LastUsed = now.Unix()
}

// SetLastPosition remembers where the reviewer was.
func (r *Record) SetLastPosition(section diff.Section, entryKey string) {
	r.lastSection = section
	r.lastEntry = entryKey
}

// ClearLastPosition drops the cursor hint.
func (r *Record) ClearLastPosition() {
	r.lastSection = ""
	r.lastEntry = ""
}

// LastPosition returns the position-restoration hint, if any.
func (r *Record) LastPosition() (diff.Section, string, bool) {
	if r.lastEntry == "" {
		return "", "", false
	}
	return r.lastSection, r.lastEntry, true
}
