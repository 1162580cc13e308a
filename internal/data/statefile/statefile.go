// Package statefile persists review state records as versioned JSON
// files, one per (repository, branch, mode) session.
package statefile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/reviewkit/revq/internal/core/diff"
	"github.com/reviewkit/revq/internal/core/logging"
	"github.com/reviewkit/revq/internal/core/review"
)

const (
	// Version is the on-disk schema version.
	Version = 1
	// MaxFiles bounds the session files kept per repository.
	MaxFiles = 16
)

var (
	// ErrVersionMismatch indicates a file written by a different schema.
	ErrVersionMismatch = errors.New("state file version mismatch")
	// ErrCorrupt indicates a file that exists but cannot be parsed.
	ErrCorrupt = errors.New("state file corrupt")
)

// File is the on-disk schema, version 1.
type File struct {
	Version    int                         `json:"version"`
	Marks      map[string]bool             `json:"marks"`
	HunkCounts map[string]int              `json:"hunkCounts"`
	ContentIDs map[string][]diff.ContentID `json:"contentIds"`
	LastUsed   int64                       `json:"lastUsed"`
	BranchName string                      `json:"branchName"`
}

// Info describes one stored session file as found on disk. Err is set
// when the file could not be parsed; such files still list and rank
// oldest for eviction.
type Info struct {
	Path     string
	Repo     string
	Branch   string
	Mode     string
	LastUsed int64
	Err      error
}

// Store reads and writes session state files under a data root.
type Store struct {
	root string
	mu   sync.Mutex
	log  zerolog.Logger
}

// New creates a store rooted at dir, typically the XDG data dir.
func New(root string) *Store {
	return &Store{
		root: root,
		log:  logging.Component("statefile"),
	}
}

// Root returns the data root the store operates under.
func (s *Store) Root() string { return s.root }

// Path returns the file location for one session tuple. Branch slashes
// are flattened so each branch maps to a single directory level.
func (s *Store) Path(repo, branch string, mode review.Mode) string {
	return filepath.Join(s.root, repo, strings.ReplaceAll(branch, "/", "--"), string(mode)+".json")
}

// Load reads the record for a session tuple. A missing file is not an
// error and returns ok=false; unparseable content returns ErrCorrupt
// and a foreign schema version ErrVersionMismatch, both typed so the
// caller can offer recovery instead of silently discarding marks.
func (s *Store) Load(ctx context.Context, repo, branch string, mode review.Mode) (*review.Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.Path(repo, branch, mode)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	var file File
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if file.Version != Version {
		return nil, false, fmt.Errorf("%w: have %d, want %d", ErrVersionMismatch, file.Version, Version)
	}

	s.log.Debug().Str("path", path).Int("marks", len(file.Marks)).Msg("state loaded")
	return toRecord(file, branch), true, nil
}

// Save writes the record atomically. Saving a new session file in a
// repository already holding MaxFiles evicts least-recently-used files
// first; overwriting an existing file never evicts.
func (s *Store) Save(ctx context.Context, repo, branch string, mode review.Mode, r *review.Record, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.Path(repo, branch, mode)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		s.evict(repo)
	}

	r.Touch(now)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(fromRecord(r), "", "  ")
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		return err
	}

	s.log.Debug().Str("path", path).Int("marks", r.Marks.Len()).Msg("state saved")
	return nil
}

// Delete removes one stored session file and prunes empty parents.
func (s *Store) Delete(ctx context.Context, repo, branch string, mode review.Mode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.Path(repo, branch, mode)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}

	// Best effort; Remove refuses non-empty directories.
	_ = os.Remove(filepath.Dir(path))
	_ = os.Remove(filepath.Join(s.root, repo))
	return nil
}

// List returns all stored session files, most recently used first.
func (s *Store) List(ctx context.Context) ([]Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	infos := s.scanDir(s.root)
	sort.Slice(infos, func(i, j int) bool { return infos[i].LastUsed > infos[j].LastUsed })
	return infos, nil
}

// evict deletes least-recently-used files within one repository until
// a new file can be added without exceeding MaxFiles.
func (s *Store) evict(repo string) {
	infos := s.scanDir(filepath.Join(s.root, repo))
	if len(infos) < MaxFiles {
		return
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].LastUsed < infos[j].LastUsed })
	for _, info := range infos[:len(infos)-MaxFiles+1] {
		if err := os.Remove(info.Path); err != nil {
			s.log.Warn().Err(err).Str("path", info.Path).Msg("failed to evict state file")
			continue
		}
		s.log.Debug().Str("path", info.Path).Int64("last_used", info.LastUsed).Msg("evicted state file")
	}
}

func (s *Store) scanDir(dir string) []Info {
	var infos []Info
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		infos = append(infos, s.stat(path))
		return nil
	})
	return infos
}

// stat parses one file into an Info without failing the scan.
func (s *Store) stat(path string) Info {
	info := Info{Path: path}
	if rel, err := filepath.Rel(s.root, path); err == nil {
		// Repositories are stored as owner/name, so the repo segment
		// may itself span directories. Anchor parsing at the end.
		parts := strings.Split(rel, string(filepath.Separator))
		if n := len(parts); n >= 3 {
			info.Repo = strings.Join(parts[:n-2], "/")
			info.Branch = strings.ReplaceAll(parts[n-2], "--", "/")
			info.Mode = strings.TrimSuffix(parts[n-1], ".json")
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		info.Err = fmt.Errorf("%w: %v", ErrCorrupt, err)
		return info
	}

	var file File
	if err := json.Unmarshal(data, &file); err != nil {
		info.Err = fmt.Errorf("%w: %v", ErrCorrupt, err)
		return info
	}

	info.LastUsed = file.LastUsed
	if file.Version != Version {
		info.Err = fmt.Errorf("%w: have %d, want %d", ErrVersionMismatch, file.Version, Version)
		return info
	}
	if file.BranchName != "" {
		info.Branch = file.BranchName
	}
	return info
}

// FetchStamp returns the last recorded successful origin fetch for a
// repository, or the zero time when none is recorded.
func (s *Store) FetchStamp(repo string) time.Time {
	data, err := os.ReadFile(s.stampPath(repo))
	if err != nil {
		return time.Time{}
	}
	sec, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(sec, 0)
}

// TouchFetchStamp records a successful origin fetch for a repository.
func (s *Store) TouchFetchStamp(repo string, now time.Time) error {
	path := s.stampPath(repo)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.FormatInt(now.Unix(), 10)+"\n"), 0o644)
}

func (s *Store) stampPath(repo string) string {
	return filepath.Join(s.root, repo, "fetch-stamp")
}

func fromRecord(r *review.Record) File {
	return File{
		Version:    Version,
		Marks:      r.Marks.Serialize(),
		HunkCounts: r.HunkCounts.Items(),
		ContentIDs: r.ContentIDs.Items(),
		LastUsed:   r.LastUsed,
		BranchName: r.Branch,
	}
}

func toRecord(f File, branch string) *review.Record {
	r := review.NewRecord(branch)
	r.Marks = review.RestoreMarkSet(f.Marks)
	r.HunkCounts.SetBatch(f.HunkCounts)
	r.ContentIDs.SetBatch(f.ContentIDs)
	r.LastUsed = f.LastUsed
	return r
}
