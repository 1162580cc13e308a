package git

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/reviewkit/revq/pkg/executil"
)

// Executor implements Git using the git command-line tool.
type Executor struct {
	gitPath string
	exec    executil.Executor
}

// NewExecutor creates a new git executor with the specified git binary path.
func NewExecutor(gitPath string, exec executil.Executor) *Executor {
	return &Executor{gitPath: gitPath, exec: exec}
}

func (e *Executor) Root(ctx context.Context, dir string) (string, error) {
	out, err := e.exec.RunDir(ctx, dir, e.gitPath, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoRepository, err)
	}
	return strings.TrimSpace(string(out)), nil
}

func (e *Executor) Branch(ctx context.Context, dir string) (string, error) {
	// Try to get branch name first
	out, err := e.exec.RunDir(ctx, dir, e.gitPath, "branch", "--show-current")
	if err != nil {
		return "", fmt.Errorf("git branch: %w", err)
	}

	branch := strings.TrimSpace(string(out))
	if branch != "" {
		return branch, nil
	}

	// Empty branch name means detached HEAD - get short commit SHA
	out, err = e.exec.RunDir(ctx, dir, e.gitPath, "rev-parse", "--short", "HEAD")
	if err != nil {
		return "", fmt.Errorf("git rev-parse: %w", err)
	}

	return strings.TrimSpace(string(out)), nil
}

func (e *Executor) Head(ctx context.Context, dir string) (string, error) {
	out, err := e.exec.RunDir(ctx, dir, e.gitPath, "rev-parse", "HEAD")
	if err != nil {
		return "", fmt.Errorf("git rev-parse HEAD: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

func (e *Executor) RemoteURL(ctx context.Context, dir string) (string, error) {
	out, err := e.exec.RunDir(ctx, dir, e.gitPath, "remote", "get-url", "origin")
	if err != nil {
		return "", fmt.Errorf("get remote url: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

func (e *Executor) IsClean(ctx context.Context, dir string) (bool, error) {
	out, err := e.exec.RunDir(ctx, dir, e.gitPath, "status", "--porcelain")
	if err != nil {
		return false, fmt.Errorf("git status: %w", err)
	}
	return len(strings.TrimSpace(string(out))) == 0, nil
}

func (e *Executor) RefExists(ctx context.Context, dir, name string) bool {
	_, err := e.exec.RunDir(ctx, dir, e.gitPath, "rev-parse", "--verify", "--quiet", name+"^{commit}")
	return err == nil
}

func (e *Executor) SymbolicRef(ctx context.Context, dir, name string) (string, error) {
	out, err := e.exec.RunDir(ctx, dir, e.gitPath, "symbolic-ref", "--quiet", "--short", name)
	if err != nil {
		return "", fmt.Errorf("git symbolic-ref %s: %w", name, err)
	}
	return strings.TrimSpace(string(out)), nil
}

func (e *Executor) MergeBase(ctx context.Context, dir, a, b string) (string, error) {
	out, err := e.exec.RunDir(ctx, dir, e.gitPath, "merge-base", a, b)
	if err != nil {
		return "", fmt.Errorf("git merge-base %s %s: %w", a, b, err)
	}
	return strings.TrimSpace(string(out)), nil
}

func (e *Executor) Commits(ctx context.Context, dir, revRange string) ([]Commit, error) {
	out, err := e.exec.RunDir(ctx, dir, e.gitPath, "rev-list", "--reverse", "--format=%h%x09%s", revRange)
	if err != nil {
		return nil, fmt.Errorf("git rev-list %s: %w", revRange, err)
	}
	return parseCommits(string(out)), nil
}

func (e *Executor) ChangedFiles(ctx context.Context, dir, revRange string) ([]Status, error) {
	out, err := e.exec.RunDir(ctx, dir, e.gitPath, "diff", "--name-status", revRange)
	if err != nil {
		return nil, fmt.Errorf("git diff --name-status %s: %w", revRange, err)
	}
	return parseNameStatus(string(out)), nil
}

func (e *Executor) CommitFiles(ctx context.Context, dir, revRange string) (map[string][]Status, error) {
	out, err := e.exec.RunDir(ctx, dir, e.gitPath, "log", "--reverse", "--format=%H", "--name-status", revRange)
	if err != nil {
		return nil, fmt.Errorf("git log --name-status %s: %w", revRange, err)
	}
	return parseCommitFiles(string(out)), nil
}

func (e *Executor) Patch(ctx context.Context, dir, revRange string, contextLines int, paths ...string) (string, error) {
	args := []string{"diff", "-U" + strconv.Itoa(contextLines), revRange}
	if len(paths) > 0 {
		args = append(args, "--")
		args = append(args, paths...)
	}

	out, err := e.exec.RunDir(ctx, dir, e.gitPath, args...)
	if err != nil {
		return "", fmt.Errorf("git diff %s: %w", revRange, err)
	}
	return string(out), nil
}

func (e *Executor) CommitPatch(ctx context.Context, dir, hash, path string, contextLines int) (string, error) {
	out, err := e.exec.RunDir(ctx, dir, e.gitPath, "show", "--format=", "-U"+strconv.Itoa(contextLines), hash, "--", path)
	if err != nil {
		return "", fmt.Errorf("git show %s -- %s: %w", hash, path, err)
	}
	return string(out), nil
}

func (e *Executor) ShowFile(ctx context.Context, dir, ref, path string) (string, error) {
	out, err := e.exec.RunDir(ctx, dir, e.gitPath, "show", ref+":"+path)
	if err != nil {
		return "", fmt.Errorf("git show %s:%s: %w", ref, path, err)
	}
	return string(out), nil
}

func (e *Executor) Fetch(ctx context.Context, dir string) error {
	if _, err := e.exec.RunDir(ctx, dir, e.gitPath, "fetch", "--quiet", "origin"); err != nil {
		return fmt.Errorf("git fetch origin: %w", err)
	}
	return nil
}
