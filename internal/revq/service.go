package revq

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/reviewkit/revq/internal/core/config"
	"github.com/reviewkit/revq/internal/core/git"
	"github.com/reviewkit/revq/internal/core/review"
	"github.com/reviewkit/revq/internal/data/statefile"
)

// fetchThrottle bounds how often auto-fetch hits the origin remote.
const fetchThrottle = time.Hour

// OpenOptions configures session opening.
type OpenOptions struct {
	// Dir is the working directory; the repository root is resolved
	// from it.
	Dir string
	// Mode overrides the configured review mode when set.
	Mode review.Mode
	// Base overrides base detection when set.
	Base string
	// Ephemeral opens the session without ever writing state back.
	Ephemeral bool
	// NoFetch suppresses the origin auto-fetch for this open.
	NoFetch bool
	// ResetState discards any persisted state before opening.
	ResetState bool
	// Recover decides what to do with an unreadable state file: true
	// deletes it and starts fresh, false continues without
	// persistence. Nil behaves like false.
	Recover func(ctx context.Context, cause error) (bool, error)
}

// Session is an open review session rooted at a repository.
type Session struct {
	review.Model

	// Root is the repository top-level directory.
	Root string
}

// ReviewService opens, persists, and closes review sessions.
type ReviewService struct {
	git    git.Git
	store  *statefile.Store
	config *config.Config
	log    zerolog.Logger

	// fetched throttles auto-fetch per repository within one process,
	// on top of the on-disk stamp.
	mu      sync.Mutex
	fetched map[string]time.Time
}

// NewReviewService creates a new ReviewService.
func NewReviewService(gitClient git.Git, store *statefile.Store, cfg *config.Config, log zerolog.Logger) *ReviewService {
	return &ReviewService{
		git:     gitClient,
		store:   store,
		config:  cfg,
		log:     log,
		fetched: make(map[string]time.Time),
	}
}

// OpenSession resolves the repository, restores persisted state, and
// loads the model. ErrNoChanges from the load passes through so
// callers can report an empty range.
func (s *ReviewService) OpenSession(ctx context.Context, opts OpenOptions) (*Session, error) {
	root, err := s.git.Root(ctx, opts.Dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", git.ErrNoRepository, opts.Dir)
	}

	branch, err := s.git.Branch(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("resolve branch: %w", err)
	}

	repo := s.repoSlug(ctx, root)
	mode := opts.Mode
	if mode == "" {
		mode = s.config.ReviewMode()
	}

	if !opts.NoFetch {
		s.MaybeFetchOrigin(ctx, root, repo)
	}

	record, err := s.resolveRecord(ctx, repo, branch, mode, opts)
	if err != nil {
		return nil, err
	}
	if opts.Ephemeral {
		record.Ephemeral = true
	}

	model, err := review.NewModel(mode, review.Options{
		Git:             s.git,
		Dir:             root,
		Repo:            repo,
		Branch:          branch,
		Record:          record,
		Logger:          s.log,
		ContextLines:    s.config.ContextLines,
		IdentityContext: s.config.IdentityContext,
		Ignore:          s.config.Ignore,
	})
	if err != nil {
		return nil, err
	}

	if err := model.Fetch(ctx, opts.Base); err != nil {
		return nil, err
	}

	s.log.Debug().
		Str("repo", repo).
		Str("branch", branch).
		Str("mode", string(mode)).
		Bool("ephemeral", record.Ephemeral).
		Msg("session opened")

	return &Session{Model: model, Root: root}, nil
}

// resolveRecord loads persisted state, honoring reset and recovery
// choices. The returned record is never nil.
func (s *ReviewService) resolveRecord(ctx context.Context, repo, branch string, mode review.Mode, opts OpenOptions) (*review.Record, error) {
	if opts.ResetState {
		if err := s.store.Delete(ctx, repo, branch, mode); err != nil {
			return nil, fmt.Errorf("reset state: %w", err)
		}
		return review.NewRecord(branch), nil
	}

	record, ok, err := s.store.Load(ctx, repo, branch, mode)
	switch {
	case err != nil:
		wipe := false
		if opts.Recover != nil {
			wipe, err = opts.Recover(ctx, err)
			if err != nil {
				return nil, err
			}
		}
		if wipe {
			if err := s.store.Delete(ctx, repo, branch, mode); err != nil {
				return nil, fmt.Errorf("discard state: %w", err)
			}
			s.log.Info().Str("repo", repo).Str("branch", branch).Msg("discarded unreadable state")
			return review.NewRecord(branch), nil
		}

		s.log.Warn().Str("repo", repo).Str("branch", branch).
			Msg("state unreadable, continuing without persistence")
		record = review.NewRecord(branch)
		record.Ephemeral = true
		return record, nil
	case ok:
		return record, nil
	default:
		return review.NewRecord(branch), nil
	}
}

// CloseSession writes the session state back unless the record is
// ephemeral.
func (s *ReviewService) CloseSession(ctx context.Context, sess *Session) error {
	record := sess.Record()
	if record.Ephemeral {
		s.log.Debug().Str("repo", sess.Repo()).Msg("ephemeral session, skipping save")
		return nil
	}
	return s.store.Save(ctx, sess.Repo(), sess.Branch(), sess.Mode(), record, time.Now())
}

// MaybeFetchOrigin fetches the origin remote at most once per
// fetchThrottle per repository, and only when auto_fetch is enabled.
// Failures are logged, never fatal.
func (s *ReviewService) MaybeFetchOrigin(ctx context.Context, dir, repo string) {
	if !s.config.AutoFetch {
		return
	}

	s.mu.Lock()
	last := s.fetched[repo]
	s.mu.Unlock()
	if stamp := s.store.FetchStamp(repo); stamp.After(last) {
		last = stamp
	}
	if time.Since(last) < fetchThrottle {
		return
	}

	if err := s.git.Fetch(ctx, dir); err != nil {
		s.log.Warn().Err(err).Str("repo", repo).Msg("auto fetch failed")
		return
	}

	now := time.Now()
	s.mu.Lock()
	s.fetched[repo] = now
	s.mu.Unlock()
	if err := s.store.TouchFetchStamp(repo, now); err != nil {
		s.log.Warn().Err(err).Str("repo", repo).Msg("write fetch stamp failed")
	}
	s.log.Debug().Str("repo", repo).Msg("fetched origin")
}

// repoSlug derives the state key for a repository: owner/name from the
// origin remote when parseable, the root directory name otherwise.
func (s *ReviewService) repoSlug(ctx context.Context, root string) string {
	if remote, err := s.git.RemoteURL(ctx, root); err == nil {
		if owner, name := git.ExtractOwnerRepo(remote); owner != "" {
			return owner + "/" + name
		}
	}
	return filepath.Base(root)
}
