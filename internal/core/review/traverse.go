package review

import (
	"context"
	"math"

	"github.com/reviewkit/revq/internal/core/diff"
)

// Position locates a hunk within the session listing: a row ID plus a
// 1-based index into the row's full diff. Key keeps fallback near the
// same file after a mark makes the row disappear; when left empty it
// is resolved from the row ID.
type Position struct {
	EntryID string
	Key     string
	Hunk    int
}

// Traverser finds the next or previous hunk in a target state against
// live session state, so it stays correct while marks shift entries
// between sections underneath the cursor.
type Traverser struct {
	model Model
}

func NewTraverser(m Model) *Traverser {
	return &Traverser{model: m}
}

// Next locates the first hunk strictly after pos whose state matches
// target. Resolution order: the rest of the current row, later rows of
// the target section wrapping around to the listing start, and finally
// the nearest surviving row of the opposite section, same file
// preferred. A zero pos starts from the beginning. found is false only
// when the listing is empty.
func (t *Traverser) Next(ctx context.Context, pos Position, target diff.Section) (Position, bool, error) {
	entries := t.model.Entries()
	if len(entries) == 0 {
		return Position{}, false, nil
	}

	pos = t.seedKey(pos)
	cur := indexOf(entries, pos.EntryID)

	if cur >= 0 {
		p, ok, err := t.scan(ctx, entries, entries[cur], pos.Hunk+1, +1, target)
		if err != nil || ok {
			return p, ok, err
		}
	}

	for _, i := range orderAfter(len(entries), cur) {
		e := entries[i]
		if e.Section != target {
			continue
		}
		p, ok, err := t.scan(ctx, entries, e, 1, +1, target)
		if err != nil || ok {
			return p, ok, err
		}
	}

	return t.fallback(ctx, entries, pos, target)
}

// Prev mirrors Next, walking backwards from pos.
func (t *Traverser) Prev(ctx context.Context, pos Position, target diff.Section) (Position, bool, error) {
	entries := t.model.Entries()
	if len(entries) == 0 {
		return Position{}, false, nil
	}

	pos = t.seedKey(pos)
	cur := indexOf(entries, pos.EntryID)

	if cur >= 0 {
		p, ok, err := t.scan(ctx, entries, entries[cur], pos.Hunk-1, -1, target)
		if err != nil || ok {
			return p, ok, err
		}
	}

	for _, i := range orderBefore(len(entries), cur) {
		e := entries[i]
		if e.Section != target {
			continue
		}
		p, ok, err := t.scan(ctx, entries, e, math.MaxInt, -1, target)
		if err != nil || ok {
			return p, ok, err
		}
	}

	return t.fallback(ctx, entries, pos, target)
}

// scan walks one row's identifier list from a 1-based index in the
// given direction and returns the first hunk matching target, anchored
// to the row of the target section when the file has a twin row there.
func (t *Traverser) scan(ctx context.Context, entries []Entry, e Entry, from, dir int, target diff.Section) (Position, bool, error) {
	ids, err := t.model.IDs(ctx, e.ID())
	if err != nil {
		return Position{}, false, err
	}
	if dir < 0 && from > len(ids) {
		from = len(ids)
	}
	for n := from; n >= 1 && n <= len(ids); n += dir {
		if sectionOf(t.model.Seen(e.Key, ids[n-1])) != target {
			continue
		}
		row := displayRow(entries, e, target)
		return Position{EntryID: row.ID(), Key: row.Key, Hunk: n}, true, nil
	}
	return Position{}, false, nil
}

// fallback lands on the nearest row of the opposite section once no
// hunk in the target state exists anywhere, preferring the row of the
// file the cursor was on.
func (t *Traverser) fallback(ctx context.Context, entries []Entry, pos Position, target diff.Section) (Position, bool, error) {
	opposite := diff.SectionSeen
	if target == diff.SectionSeen {
		opposite = diff.SectionUnseen
	}

	sameFile := -1
	first := -1
	for i, e := range entries {
		if e.Section != opposite {
			continue
		}
		if first == -1 {
			first = i
		}
		if sameFile == -1 && pos.Key != "" && e.Key == pos.Key {
			sameFile = i
		}
	}

	pick := sameFile
	if pick == -1 {
		pick = first
	}
	if pick == -1 {
		return Position{}, false, nil
	}

	e := entries[pick]
	p, ok, err := t.scan(ctx, entries, e, 1, +1, e.Section)
	if err != nil || ok {
		return p, ok, err
	}
	return Position{EntryID: e.ID(), Key: e.Key, Hunk: 1}, true, nil
}

// seedKey fills in the mark key for a position carrying only a row ID.
// A stale ID resolves to nothing and the key stays empty.
func (t *Traverser) seedKey(pos Position) Position {
	if pos.Key == "" && pos.EntryID != "" {
		if key, err := t.model.EntryKey(pos.EntryID); err == nil {
			pos.Key = key
		}
	}
	return pos
}

func sectionOf(seen bool) diff.Section {
	if seen {
		return diff.SectionSeen
	}
	return diff.SectionUnseen
}

func displayRow(entries []Entry, e Entry, target diff.Section) Entry {
	if e.Section == target {
		return e
	}
	for _, cand := range entries {
		if cand.Section == target && cand.cacheKey() == e.cacheKey() {
			return cand
		}
	}
	return e
}

func indexOf(entries []Entry, id string) int {
	if id == "" {
		return -1
	}
	for i, e := range entries {
		if e.ID() == id {
			return i
		}
	}
	return -1
}

// orderAfter yields indices after cur in display order, wrapping to
// the start and ending on cur itself. cur may be -1 for "no row".
func orderAfter(n, cur int) []int {
	out := make([]int, 0, n)
	for i := cur + 1; i < n; i++ {
		out = append(out, i)
	}
	for i := 0; i <= cur && i < n; i++ {
		out = append(out, i)
	}
	return out
}

// orderBefore yields indices before cur in reverse display order,
// wrapping to the end and ending on cur itself.
func orderBefore(n, cur int) []int {
	out := make([]int, 0, n)
	for i := cur - 1; i >= 0; i-- {
		out = append(out, i)
	}
	for i := n - 1; i >= cur && i >= 0; i-- {
		out = append(out, i)
	}
	return out
}
