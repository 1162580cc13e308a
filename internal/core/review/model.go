package review

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/reviewkit/revq/internal/core/diff"
	"github.com/reviewkit/revq/internal/core/git"
	"github.com/reviewkit/revq/pkg/kv"
)

// Model is the capability surface a review session exposes to hosts.
// Mutations are serialized through a single-writer gate; a call that
// loses the race is dropped and returns nil.
type Model interface {
	Fetch(ctx context.Context, baseOverride string) error
	RebuildEntries()

	Entries() []Entry
	Entry(id string) (Entry, bool)
	EntryKey(id string) (string, error)

	FullDiff(ctx context.Context, id string) (diff.Diff, error)
	FilteredDiff(ctx context.Context, id string) (diff.Diff, error)
	IDs(ctx context.Context, id string) ([]diff.ContentID, error)
	Seen(entryKey string, id diff.ContentID) bool
	DiffArgs(id string) ([]string, error)

	MarkHunk(ctx context.Context, id string, hunk int) error
	UnmarkHunk(ctx context.Context, id string, hunk int) error
	MarkEntry(ctx context.Context, id string) error
	UnmarkEntry(ctx context.Context, id string) error
	ResetMarks(ctx context.Context) error

	Record() *Record
	Mode() Mode
	Base() string
	Head() string
	Branch() string
	Repo() string
	SessionID() string
}

const (
	DefaultContextLines    = 3
	DefaultIdentityContext = 3
)

// Options configures a review model. Zero values fall back to
// defaults; Record may be nil for a fresh session.
type Options struct {
	Git    git.Git
	Dir    string
	Repo   string
	Branch string

	Record   *Record
	Renderer diff.Renderer
	Logger   zerolog.Logger

	ContextLines    int
	IdentityContext int
	Ignore          []string
}

// NewModel builds the model for the given mode.
func NewModel(mode Mode, opts Options) (Model, error) {
	switch mode {
	case ModeFile:
		return NewFileModel(opts), nil
	case ModeCommit:
		return NewCommitModel(opts), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
}

// FileModel reviews the flattened base..HEAD diff, one entry per file.
type FileModel struct {
	*session
}

func NewFileModel(opts Options) *FileModel {
	return &FileModel{newSession(ModeFile, fileVariant{}, opts)}
}

// CommitModel reviews commit by commit, one entry per file per commit.
type CommitModel struct {
	*session
}

func NewCommitModel(opts Options) *CommitModel {
	return &CommitModel{newSession(ModeCommit, commitVariant{}, opts)}
}

// Commits returns the loaded commits in range order, oldest first.
func (m *CommitModel) Commits() []git.Commit {
	m.rw.RLock()
	defer m.rw.RUnlock()
	out := make([]git.Commit, len(m.commits))
	copy(out, m.commits)
	return out
}

func newSession(mode Mode, v variant, opts Options) *session {
	if opts.Renderer == nil {
		opts.Renderer = diff.UnifiedRenderer{}
	}
	if opts.ContextLines <= 0 {
		opts.ContextLines = DefaultContextLines
	}
	if opts.IdentityContext <= 0 {
		opts.IdentityContext = DefaultIdentityContext
	}
	if opts.Record == nil {
		opts.Record = NewRecord(opts.Branch)
	}

	id := uuid.NewString()
	return &session{
		id:              id,
		gitc:            opts.Git,
		dir:             opts.Dir,
		repo:            opts.Repo,
		branch:          opts.Branch,
		mode:            mode,
		variant:         v,
		contextLines:    opts.ContextLines,
		identityContext: opts.IdentityContext,
		ignore:          opts.Ignore,
		renderer:        opts.Renderer,
		log: opts.Logger.With().
			Str("component", "review").
			Str("session_id", id).
			Str("mode", string(mode)).
			Logger(),
		record:    opts.Record,
		hunkCache: kv.New[string, []diff.Hunk](),
		fileCache: kv.New[string, []string](),
	}
}

// fileVariant flattens the whole range into per-file entries.
type fileVariant struct{}

func (fileVariant) load(ctx context.Context, s *session) error {
	statuses, err := s.gitc.ChangedFiles(ctx, s.dir, s.revRange)
	if err != nil {
		return err
	}

	files := make([]git.Status, 0, len(statuses))
	for _, st := range statuses {
		if s.ignored(st.Path) {
			continue
		}
		files = append(files, st)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	s.files = files

	// One whole-range parse warms the hunk cache for every file, so
	// the identity pass costs a single git invocation.
	raw, err := s.gitc.Patch(ctx, s.dir, s.revRange, s.contextLines)
	if err != nil {
		return err
	}
	patches, err := diff.ParsePatch(strings.NewReader(raw))
	if err != nil {
		return fmt.Errorf("parse range diff: %w", err)
	}
	for _, p := range patches {
		s.hunkCache.Set(p.Path, p.Hunks)
	}
	return nil
}

func (fileVariant) seeds(s *session) []Entry {
	entries := make([]Entry, 0, len(s.files))
	for _, st := range s.files {
		entries = append(entries, Entry{Key: st.Path, Path: st.Path, Status: st})
	}
	return entries
}

func (fileVariant) patch(ctx context.Context, s *session, e Entry) (string, error) {
	return s.gitc.Patch(ctx, s.dir, s.revRange, s.contextLines, e.Path)
}

func (fileVariant) contentRef(e Entry) string {
	if e.Status.HasCode('D') {
		return ""
	}
	return "HEAD"
}

func (fileVariant) diffArgs(s *session, e Entry) []string {
	return []string{"diff", "-U" + strconv.Itoa(s.contextLines), s.revRange, "--", e.Path}
}

// commitVariant walks the range commit by commit.
type commitVariant struct{}

func (commitVariant) load(ctx context.Context, s *session) error {
	commits, err := s.gitc.Commits(ctx, s.dir, s.revRange)
	if err != nil {
		return err
	}
	perCommit, err := s.gitc.CommitFiles(ctx, s.dir, s.revRange)
	if err != nil {
		return err
	}

	kept := make([]git.Commit, 0, len(commits))
	files := make(map[string][]git.Status, len(perCommit))
	for _, c := range commits {
		var sts []git.Status
		for _, st := range perCommit[c.Hash] {
			if s.ignored(st.Path) {
				continue
			}
			sts = append(sts, st)
		}
		if len(sts) == 0 {
			continue
		}
		sort.Slice(sts, func(i, j int) bool { return sts[i].Path < sts[j].Path })
		kept = append(kept, c)
		files[c.Hash] = sts
	}
	s.commits = kept
	s.perCommit = files
	return nil
}

func (commitVariant) seeds(s *session) []Entry {
	var entries []Entry
	for _, c := range s.commits {
		for _, st := range s.perCommit[c.Hash] {
			entries = append(entries, Entry{Key: st.Path, Path: st.Path, Commit: c, Status: st})
		}
	}
	return entries
}

func (commitVariant) patch(ctx context.Context, s *session, e Entry) (string, error) {
	return s.gitc.CommitPatch(ctx, s.dir, e.Commit.Hash, e.Path, s.contextLines)
}

func (commitVariant) contentRef(e Entry) string {
	if e.Status.HasCode('D') {
		return ""
	}
	return e.Commit.Hash
}

func (commitVariant) diffArgs(s *session, e Entry) []string {
	return []string{"show", "--format=", "-U" + strconv.Itoa(s.contextLines), e.Commit.Hash, "--", e.Path}
}
