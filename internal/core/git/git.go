// Package git provides the version-control collaborator for review
// sessions: ref resolution, commit listing, change sets, per-file
// patches, and file content at a ref.
package git

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNoRepository indicates a directory is not inside a git work tree.
	ErrNoRepository = errors.New("not inside a git repository")
	// ErrNoBase indicates no plausible review base could be resolved.
	ErrNoBase = errors.New("unable to determine base branch")
)

// Commit identifies one commit in a review range.
type Commit struct {
	Hash    string
	Short   string
	Subject string
}

// Status is one parsed name-status change entry.
type Status struct {
	// Code is the raw change tag: 'A', 'M', 'D', 'R', 'C', 'T', ...
	Code byte
	// Score is the similarity score for renames and copies, 0 otherwise.
	Score int
	// OldPath is set for renames and copies.
	OldPath string
	Path    string
}

// HasCode reports whether the status carries any of the given tags.
func (s Status) HasCode(codes ...byte) bool {
	for _, c := range codes {
		if s.Code == c {
			return true
		}
	}
	return false
}

// IsRename reports whether the entry is a rename or copy.
func (s Status) IsRename() bool {
	return s.Code == 'R' || s.Code == 'C'
}

// RenamedFrom returns the pre-rename path, or empty for non-renames.
func (s Status) RenamedFrom() string {
	if s.IsRename() {
		return s.OldPath
	}
	return ""
}

// String renders the status the way name-status output does.
func (s Status) String() string {
	if s.IsRename() {
		return fmt.Sprintf("%c%d %s -> %s", s.Code, s.Score, s.OldPath, s.Path)
	}
	return fmt.Sprintf("%c %s", s.Code, s.Path)
}

// Git defines the repository operations review sessions need. All
// methods take the working directory so one executor serves any repo.
type Git interface {
	// Root returns the repository top-level directory containing dir.
	Root(ctx context.Context, dir string) (string, error)
	// Branch returns the current branch name, or short commit SHA if in detached HEAD state.
	Branch(ctx context.Context, dir string) (string, error)
	// Head returns the full hash of HEAD.
	Head(ctx context.Context, dir string) (string, error)
	// RemoteURL returns the origin remote URL for dir.
	RemoteURL(ctx context.Context, dir string) (string, error)
	// IsClean returns true if there are no uncommitted changes in dir.
	IsClean(ctx context.Context, dir string) (bool, error)
	// RefExists reports whether name resolves to a commit.
	RefExists(ctx context.Context, dir, name string) bool
	// SymbolicRef resolves a symbolic ref such as refs/remotes/origin/HEAD
	// to a short ref name.
	SymbolicRef(ctx context.Context, dir, name string) (string, error)
	// MergeBase returns the best common ancestor of two commits.
	MergeBase(ctx context.Context, dir, a, b string) (string, error)
	// Commits lists the commits in revRange, oldest first.
	Commits(ctx context.Context, dir, revRange string) ([]Commit, error)
	// ChangedFiles returns the name-status change set for revRange.
	ChangedFiles(ctx context.Context, dir, revRange string) ([]Status, error)
	// CommitFiles returns per-commit change sets for the whole range
	// in a single invocation, keyed by full commit hash.
	CommitFiles(ctx context.Context, dir, revRange string) (map[string][]Status, error)
	// Patch returns the unified diff for revRange, optionally narrowed
	// to paths, with contextLines of context.
	Patch(ctx context.Context, dir, revRange string, contextLines int, paths ...string) (string, error)
	// CommitPatch returns the diff a single commit introduced for one path.
	CommitPatch(ctx context.Context, dir, hash, path string, contextLines int) (string, error)
	// ShowFile returns the content of path at ref.
	ShowFile(ctx context.Context, dir, ref, path string) (string, error)
	// Fetch updates refs from the origin remote.
	Fetch(ctx context.Context, dir string) error
}
