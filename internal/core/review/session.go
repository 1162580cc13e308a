package review

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"

	"github.com/reviewkit/revq/internal/core/diff"
	"github.com/reviewkit/revq/internal/core/git"
	"github.com/reviewkit/revq/pkg/kv"
)

// variant supplies the mode-specific behaviors of a session.
type variant interface {
	// load gathers the change set for the resolved range.
	load(ctx context.Context, s *session) error
	// seeds lists the section-independent entry candidates in display order.
	seeds(s *session) []Entry
	// patch returns the raw patch text for one candidate.
	patch(ctx context.Context, s *session, e Entry) (string, error)
	// contentRef is the ref current file content is read at for
	// identity context; empty when no content exists (deletions).
	contentRef(e Entry) string
	// diffArgs are git arguments a host could use to reproduce the
	// entry's diff.
	diffArgs(s *session, e Entry) []string
}

// session is the engine shared by both model variants. Mutations pass
// through a try-lock so only one runs at a time; a mutation arriving
// while another is in flight is dropped, not queued. Readers take the
// read side and always observe fully rebuilt state.
type session struct {
	id      string
	gitc    git.Git
	dir     string
	repo    string
	branch  string
	mode    Mode
	variant variant

	contextLines    int
	identityContext int
	ignore          []string
	renderer        diff.Renderer
	log             zerolog.Logger

	record *Record

	base      string
	mergeBase string
	head      string
	revRange  string

	files     []git.Status
	commits   []git.Commit
	perCommit map[string][]git.Status

	entries []Entry

	// hunkCache and fileCache live for the session: git data is pinned
	// at fetch time, so entries inside one session never go stale.
	hunkCache *kv.Store[string, []diff.Hunk]
	fileCache *kv.Store[string, []string]

	rw sync.RWMutex
}

// Fetch resolves the review range, loads the change set, restores
// derived state, eagerly computes content identifiers, and builds the
// entry listing. An empty change set returns ErrNoChanges; the session
// stays usable with zero entries.
func (s *session) Fetch(ctx context.Context, baseOverride string) error {
	if !s.rw.TryLock() {
		s.log.Debug().Str("op", "fetch").Msg("mutation dropped, another in flight")
		return nil
	}
	defer s.rw.Unlock()

	base := baseOverride
	if base == "" {
		detected, err := git.DetectBase(ctx, s.gitc, s.dir)
		if err != nil {
			return err
		}
		base = detected
	} else if !s.gitc.RefExists(ctx, s.dir, base) {
		return fmt.Errorf("%w: %q does not resolve", git.ErrNoBase, base)
	}
	s.base = base

	head, err := s.gitc.Head(ctx, s.dir)
	if err != nil {
		return err
	}

	mergeBase, err := s.gitc.MergeBase(ctx, s.dir, base, "HEAD")
	if err != nil {
		return fmt.Errorf("resolve merge base: %w", err)
	}

	s.head = head
	s.mergeBase = mergeBase
	s.revRange = mergeBase + "..HEAD"

	// The head may have moved since the record was written. Derived
	// caches cannot be trusted; marks can, their content either
	// reappears or stays dormant.
	s.record.ClearDerived()
	s.hunkCache.Clear()
	s.fileCache.Clear()
	s.files = nil
	s.commits = nil
	s.perCommit = nil

	if err := s.variant.load(ctx, s); err != nil {
		return err
	}

	if err := s.computeIdentities(ctx); err != nil {
		return err
	}

	s.rebuildLocked()

	s.log.Debug().
		Str("base", s.base).
		Str("range", s.revRange).
		Int("entries", len(s.entries)).
		Msg("session fetched")

	if len(s.entries) == 0 {
		return ErrNoChanges
	}
	return nil
}

// computeIdentities runs the eager identity pass so categorization and
// traversal never have to block on git afterwards.
func (s *session) computeIdentities(ctx context.Context) error {
	for _, e := range s.variant.seeds(s) {
		if _, err := s.ensureIDs(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// ensureIDs returns the entry's content identifiers, computing and
// persisting them into the record on first use.
func (s *session) ensureIDs(ctx context.Context, e Entry) ([]diff.ContentID, error) {
	key := e.cacheKey()
	if ids, ok := s.record.ContentIDs.Get(key); ok {
		return ids, nil
	}

	hunks, err := s.hunksFor(ctx, e)
	if err != nil {
		return nil, err
	}

	lines := s.fileLines(ctx, s.variant.contentRef(e), e.Path)
	ids := diff.IDs(hunks, lines, s.identityContext)

	s.record.ContentIDs.Set(key, ids)
	s.record.HunkCounts.Set(key, len(hunks))
	return ids, nil
}

// hunksFor returns the entry's hunks, parsing its patch on first use.
func (s *session) hunksFor(ctx context.Context, e Entry) ([]diff.Hunk, error) {
	key := e.cacheKey()
	if hunks, ok := s.hunkCache.Get(key); ok {
		return hunks, nil
	}

	raw, err := s.variant.patch(ctx, s, e)
	if err != nil {
		return nil, err
	}

	patches, err := diff.ParsePatch(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse diff for %s: %w", e.Path, err)
	}

	var hunks []diff.Hunk
	for _, p := range patches {
		if p.Path == e.Path {
			hunks = p.Hunks
			break
		}
	}
	s.hunkCache.Set(key, hunks)
	return hunks, nil
}

// fileLines returns the file content at ref split into lines, or nil
// when no content exists there.
func (s *session) fileLines(ctx context.Context, ref, path string) []string {
	if ref == "" || path == "" {
		return nil
	}
	key := ref + ":" + path
	if lines, ok := s.fileCache.Get(key); ok {
		return lines
	}

	content, err := s.gitc.ShowFile(ctx, s.dir, ref, path)
	if err != nil {
		// No content at that ref; identity degrades to diff lines alone.
		s.fileCache.Set(key, nil)
		return nil
	}

	lines := strings.Split(strings.TrimSuffix(content, "\n"), "\n")
	s.fileCache.Set(key, lines)
	return lines
}

func (s *session) ignored(path string) bool {
	for _, pattern := range s.ignore {
		if ok, err := doublestar.Match(pattern, path); err == nil && ok {
			return true
		}
	}
	return false
}

// rebuildLocked recomputes the entry listing from loaded seeds and the
// current mark state. Callers must hold the write lock. No git calls.
func (s *session) rebuildLocked() {
	seeds := s.variant.seeds(s)
	entries := make([]Entry, 0, len(seeds)*2)

	for _, section := range []diff.Section{diff.SectionSeen, diff.SectionUnseen} {
		for _, e := range seeds {
			ids, _ := s.record.ContentIDs.Get(e.cacheKey())

			var inSection bool
			if section == diff.SectionSeen {
				inSection = s.record.Marks.HasSeen(e.Key, ids)
			} else {
				inSection = s.record.Marks.HasUnseen(e.Key, ids)
			}
			if !inSection {
				continue
			}

			row := e
			row.Section = section
			entries = append(entries, row)
		}
	}
	s.entries = entries
}

// RebuildEntries recomputes the listing without touching diff caches.
func (s *session) RebuildEntries() {
	s.rw.Lock()
	defer s.rw.Unlock()
	s.rebuildLocked()
}

// mutate is the single-writer gate for all mark operations. A mutation
// arriving while another runs is dropped with a debug log rather than
// queued; the caller sees a no-op. Successful mutations rebuild the
// listing before returning, so readers never observe stale sections.
func (s *session) mutate(op string, fn func() error) error {
	if !s.rw.TryLock() {
		s.log.Debug().Str("op", op).Msg("mutation dropped, another in flight")
		return nil
	}
	defer s.rw.Unlock()

	if err := fn(); err != nil {
		return err
	}
	s.rebuildLocked()
	return nil
}

// MarkHunk marks one hunk of an entry as reviewed. hunk is the 1-based
// index into the entry's full diff; hosts translate filtered indices
// through OriginalIndices first.
func (s *session) MarkHunk(ctx context.Context, id string, hunk int) error {
	return s.mutate("mark-hunk", func() error {
		e, cid, err := s.resolveHunk(ctx, id, hunk)
		if err != nil {
			return err
		}
		s.record.Marks.Mark(MarkKey{EntryKey: e.Key, ID: cid})
		s.record.SetLastPosition(e.Section, e.Key)
		return nil
	})
}

// UnmarkHunk clears one hunk's mark.
func (s *session) UnmarkHunk(ctx context.Context, id string, hunk int) error {
	return s.mutate("unmark-hunk", func() error {
		e, cid, err := s.resolveHunk(ctx, id, hunk)
		if err != nil {
			return err
		}
		s.record.Marks.Unmark(MarkKey{EntryKey: e.Key, ID: cid})
		s.record.SetLastPosition(e.Section, e.Key)
		return nil
	})
}

func (s *session) resolveHunk(ctx context.Context, id string, hunk int) (Entry, diff.ContentID, error) {
	e, ok := s.findEntry(id)
	if !ok {
		return Entry{}, "", fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}
	ids, err := s.ensureIDs(ctx, e)
	if err != nil {
		return Entry{}, "", err
	}
	if hunk < 1 || hunk > len(ids) {
		return Entry{}, "", fmt.Errorf("%w: %d of %d", ErrHunkOutOfRange, hunk, len(ids))
	}
	return e, ids[hunk-1], nil
}

// MarkEntry marks every hunk of an entry as reviewed.
func (s *session) MarkEntry(ctx context.Context, id string) error {
	return s.mutate("mark-entry", func() error {
		e, ok := s.findEntry(id)
		if !ok {
			return fmt.Errorf("%w: %s", ErrEntryNotFound, id)
		}
		ids, err := s.ensureIDs(ctx, e)
		if err != nil {
			return err
		}
		s.record.Marks.MarkAll(e.Key, ids)
		s.record.SetLastPosition(e.Section, e.Key)
		return nil
	})
}

// UnmarkEntry clears every hunk mark of an entry.
func (s *session) UnmarkEntry(ctx context.Context, id string) error {
	return s.mutate("unmark-entry", func() error {
		e, ok := s.findEntry(id)
		if !ok {
			return fmt.Errorf("%w: %s", ErrEntryNotFound, id)
		}
		ids, err := s.ensureIDs(ctx, e)
		if err != nil {
			return err
		}
		s.record.Marks.UnmarkAll(e.Key, ids)
		s.record.SetLastPosition(e.Section, e.Key)
		return nil
	})
}

// ResetMarks clears the whole session's marks and the cursor hint.
func (s *session) ResetMarks(ctx context.Context) error {
	return s.mutate("reset", func() error {
		s.record.Marks.Reset()
		s.record.ClearLastPosition()
		return nil
	})
}

func (s *session) findEntry(id string) (Entry, bool) {
	for _, e := range s.entries {
		if e.ID() == id {
			return e, true
		}
	}
	return Entry{}, false
}

// Entries returns the current listing in display order.
func (s *session) Entries() []Entry {
	s.rw.RLock()
	defer s.rw.RUnlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Entry resolves a row by its ID.
func (s *session) Entry(id string) (Entry, bool) {
	s.rw.RLock()
	defer s.rw.RUnlock()
	return s.findEntry(id)
}

// EntryKey returns the key a row's marks are shared under.
func (s *session) EntryKey(id string) (string, error) {
	s.rw.RLock()
	defer s.rw.RUnlock()
	e, ok := s.findEntry(id)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}
	return e.Key, nil
}

// FullDiff returns the complete diff for an entry with mark spans.
func (s *session) FullDiff(ctx context.Context, id string) (diff.Diff, error) {
	s.rw.RLock()
	defer s.rw.RUnlock()

	e, ok := s.findEntry(id)
	if !ok {
		return diff.Diff{}, fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}
	return s.buildDiff(ctx, e)
}

func (s *session) buildDiff(ctx context.Context, e Entry) (diff.Diff, error) {
	hunks, err := s.hunksFor(ctx, e)
	if err != nil {
		return diff.Diff{}, err
	}
	ids, err := s.ensureIDs(ctx, e)
	if err != nil {
		return diff.Diff{}, err
	}
	return diff.Build(s.renderer, e.Path, hunks, ids, s.seenFunc(e.Key)), nil
}

func (s *session) seenFunc(entryKey string) func(diff.ContentID) bool {
	return func(id diff.ContentID) bool {
		return s.record.Marks.IsSeen(MarkKey{EntryKey: entryKey, ID: id})
	}
}

// FilteredDiff returns the entry's diff narrowed to its section, with
// OriginalIndices mapping each kept hunk back to its 1-based position
// in the full diff. No matching hunks yields an empty placeholder with
// a non-nil empty index map.
func (s *session) FilteredDiff(ctx context.Context, id string) (diff.Diff, error) {
	s.rw.RLock()
	defer s.rw.RUnlock()

	e, ok := s.findEntry(id)
	if !ok {
		return diff.Diff{}, fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}

	hunks, err := s.hunksFor(ctx, e)
	if err != nil {
		return diff.Diff{}, err
	}
	ids, err := s.ensureIDs(ctx, e)
	if err != nil {
		return diff.Diff{}, err
	}

	wantSeen := e.Section == diff.SectionSeen
	keep := make([]int, 0, len(hunks))
	for i := range hunks {
		var marked bool
		if i < len(ids) {
			marked = s.record.Marks.IsSeen(MarkKey{EntryKey: e.Key, ID: ids[i]})
		}
		if marked == wantSeen {
			keep = append(keep, i+1)
		}
	}

	switch {
	case len(keep) == 0:
		return diff.Diff{Path: e.Path, OriginalIndices: []int{}, Section: e.Section}, nil
	case len(keep) == len(hunks):
		d := diff.Build(s.renderer, e.Path, hunks, ids, s.seenFunc(e.Key))
		d.OriginalIndices = keep
		d.Section = e.Section
		return d, nil
	default:
		subHunks := make([]diff.Hunk, 0, len(keep))
		subIDs := make([]diff.ContentID, 0, len(keep))
		for _, n := range keep {
			subHunks = append(subHunks, hunks[n-1])
			subIDs = append(subIDs, ids[n-1])
		}
		d := diff.Build(s.renderer, e.Path, subHunks, subIDs, s.seenFunc(e.Key))
		d.OriginalIndices = keep
		d.Section = e.Section
		return d, nil
	}
}

// IDs returns the entry's content identifiers, computing them on demand.
func (s *session) IDs(ctx context.Context, id string) ([]diff.ContentID, error) {
	s.rw.RLock()
	defer s.rw.RUnlock()

	e, ok := s.findEntry(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}
	return s.ensureIDs(ctx, e)
}

// Seen reports whether one identifier is marked under an entry key.
func (s *session) Seen(entryKey string, id diff.ContentID) bool {
	return s.record.Marks.IsSeen(MarkKey{EntryKey: entryKey, ID: id})
}

// DiffArgs returns git arguments a host could run to reproduce the
// entry's diff in an external viewer.
func (s *session) DiffArgs(id string) ([]string, error) {
	s.rw.RLock()
	defer s.rw.RUnlock()

	e, ok := s.findEntry(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}
	return s.variant.diffArgs(s, e), nil
}

// Record exposes the session's state record for persistence.
func (s *session) Record() *Record { return s.record }

// SessionID returns the correlation id used in logs.
func (s *session) SessionID() string { return s.id }

func (s *session) Mode() Mode     { return s.mode }
func (s *session) Repo() string   { return s.repo }
func (s *session) Branch() string { return s.branch }

// Base returns the resolved base ref; empty before the first fetch.
func (s *session) Base() string {
	s.rw.RLock()
	defer s.rw.RUnlock()
	return s.base
}

// Head returns the head hash pinned at fetch time.
func (s *session) Head() string {
	s.rw.RLock()
	defer s.rw.RUnlock()
	return s.head
}
