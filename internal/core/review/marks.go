package review

import (
	"github.com/reviewkit/revq/internal/core/diff"
	"github.com/reviewkit/revq/pkg/kv"
)

// MarkSet tracks which hunks of a session have been reviewed. All
// operations are idempotent and cannot fail; mark state only toggles.
//
// The aggregate queries lean conservative in opposite directions:
// HasSeen answers false and HasUnseen answers true when a file's
// identifiers are not known yet. Nothing is reported reviewed without
// proof, and pending work is never hidden.
type MarkSet struct {
	marks *kv.Store[MarkKey, struct{}]
}

// NewMarkSet creates an empty mark set.
func NewMarkSet() *MarkSet {
	return &MarkSet{marks: kv.New[MarkKey, struct{}]()}
}

// IsSeen reports whether the key has been marked.
func (m *MarkSet) IsSeen(key MarkKey) bool {
	_, ok := m.marks.Get(key)
	return ok
}

// Mark records the key as reviewed.
func (m *MarkSet) Mark(key MarkKey) {
	m.marks.Set(key, struct{}{})
}

// Unmark clears the key.
func (m *MarkSet) Unmark(key MarkKey) {
	m.marks.Delete(key)
}

// MarkAll marks every identifier for the entry key.
func (m *MarkSet) MarkAll(entryKey string, ids []diff.ContentID) {
	for _, id := range ids {
		m.Mark(MarkKey{EntryKey: entryKey, ID: id})
	}
}

// UnmarkAll clears every identifier for the entry key.
func (m *MarkSet) UnmarkAll(entryKey string, ids []diff.ContentID) {
	for _, id := range ids {
		m.Unmark(MarkKey{EntryKey: entryKey, ID: id})
	}
}

// HasSeen reports whether at least one of ids is marked for entryKey.
// An empty id list answers false: nothing is confirmed reviewed.
func (m *MarkSet) HasSeen(entryKey string, ids []diff.ContentID) bool {
	for _, id := range ids {
		if m.IsSeen(MarkKey{EntryKey: entryKey, ID: id}) {
			return true
		}
	}
	return false
}

// HasUnseen reports whether at least one of ids is unmarked for
// entryKey. An empty id list answers true: unknown hunks are pending
// review until proven otherwise.
func (m *MarkSet) HasUnseen(entryKey string, ids []diff.ContentID) bool {
	if len(ids) == 0 {
		return true
	}
	for _, id := range ids {
		if !m.IsSeen(MarkKey{EntryKey: entryKey, ID: id}) {
			return true
		}
	}
	return false
}

// Reset clears every mark.
func (m *MarkSet) Reset() {
	m.marks.Clear()
}

// Len returns the number of marks.
func (m *MarkSet) Len() int {
	return m.marks.Len()
}

// Serialize snapshots the set in its persisted shape.
func (m *MarkSet) Serialize() map[string]bool {
	items := m.marks.Items()
	out := make(map[string]bool, len(items))
	for key := range items {
		out[key.String()] = true
	}
	return out
}

// RestoreMarkSet rebuilds a set from its persisted shape. Malformed or
// false entries are skipped: a dropped mark only means the hunk shows
// as unseen again, which is the safe direction.
func RestoreMarkSet(raw map[string]bool) *MarkSet {
	m := NewMarkSet()
	for s, marked := range raw {
		if !marked {
			continue
		}
		key, err := ParseMarkKey(s)
		if err != nil {
			continue
		}
		m.Mark(key)
	}
	return m
}
