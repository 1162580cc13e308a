package statefile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewkit/revq/internal/core/diff"
	"github.com/reviewkit/revq/internal/core/review"
)

var baseTime = time.Unix(1700000000, 0)

func TestStore_Path(t *testing.T) {
	s := New("/data/revq")
	got := s.Path("widgets", "feat/login", review.ModeFile)
	assert.Equal(t, filepath.Join("/data/revq", "widgets", "feat--login", "by-file.json"), got)
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New(t.TempDir())

	r := review.NewRecord("feat/login")
	r.Marks.Mark(review.MarkKey{EntryKey: "pkg/a.go", ID: "h1"})
	r.Marks.Mark(review.MarkKey{EntryKey: "pkg/b.go", ID: "h2"})
	r.HunkCounts.Set("pkg/a.go", 2)
	r.ContentIDs.Set("pkg/a.go", []diff.ContentID{"h1", "h3"})

	require.NoError(t, s.Save(ctx, "widgets", "feat/login", review.ModeFile, r, baseTime))

	loaded, ok, err := s.Load(ctx, "widgets", "feat/login", review.ModeFile)
	require.NoError(t, err)
	require.True(t, ok)

	assert.True(t, loaded.Marks.IsSeen(review.MarkKey{EntryKey: "pkg/a.go", ID: "h1"}))
	assert.True(t, loaded.Marks.IsSeen(review.MarkKey{EntryKey: "pkg/b.go", ID: "h2"}))
	assert.Equal(t, 2, loaded.Marks.Len())

	count, ok := loaded.HunkCounts.Get("pkg/a.go")
	require.True(t, ok)
	assert.Equal(t, 2, count)

	ids, ok := loaded.ContentIDs.Get("pkg/a.go")
	require.True(t, ok)
	assert.Equal(t, []diff.ContentID{"h1", "h3"}, ids)

	assert.Equal(t, baseTime.Unix(), loaded.LastUsed)
	assert.Equal(t, "feat/login", loaded.Branch)
}

func TestStore_LoadMissing(t *testing.T) {
	s := New(t.TempDir())

	r, ok, err := s.Load(context.Background(), "widgets", "main", review.ModeFile)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, r)
}

func TestStore_LoadCorrupt(t *testing.T) {
	s := New(t.TempDir())
	path := s.Path("widgets", "main", review.ModeFile)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, ok, err := s.Load(context.Background(), "widgets", "main", review.ModeFile)
	require.ErrorIs(t, err, ErrCorrupt)
	assert.False(t, ok)
}

func TestStore_LoadVersionMismatch(t *testing.T) {
	s := New(t.TempDir())
	path := s.Path("widgets", "main", review.ModeFile)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(`{"version": 99, "marks": {}}`), 0o644))

	_, ok, err := s.Load(context.Background(), "widgets", "main", review.ModeFile)
	require.ErrorIs(t, err, ErrVersionMismatch)
	assert.False(t, ok)
}

// fillRepo saves n session files with strictly increasing lastUsed.
func fillRepo(t *testing.T, s *Store, repo string, n int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < n; i++ {
		branch := fmt.Sprintf("branch-%02d", i)
		r := review.NewRecord(branch)
		when := baseTime.Add(time.Duration(i) * time.Minute)
		require.NoError(t, s.Save(ctx, repo, branch, review.ModeFile, r, when))
	}
}

func TestStore_EvictsOldestAtCapacity(t *testing.T) {
	ctx := context.Background()
	s := New(t.TempDir())
	fillRepo(t, s, "widgets", MaxFiles)

	r := review.NewRecord("fresh")
	when := baseTime.Add(time.Duration(MaxFiles) * time.Minute)
	require.NoError(t, s.Save(ctx, "widgets", "fresh", review.ModeFile, r, when))

	infos, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, infos, MaxFiles)

	// The least recently used file made room for the new one.
	_, ok, err := s.Load(ctx, "widgets", "branch-00", review.ModeFile)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = s.Load(ctx, "widgets", "fresh", review.ModeFile)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStore_OverwriteNeverEvicts(t *testing.T) {
	ctx := context.Background()
	s := New(t.TempDir())
	fillRepo(t, s, "widgets", MaxFiles)

	r := review.NewRecord("branch-07")
	when := baseTime.Add(time.Hour)
	require.NoError(t, s.Save(ctx, "widgets", "branch-07", review.ModeFile, r, when))

	infos, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, infos, MaxFiles)

	_, ok, err := s.Load(ctx, "widgets", "branch-00", review.ModeFile)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStore_EvictsUnparseableFirst(t *testing.T) {
	ctx := context.Background()
	s := New(t.TempDir())
	fillRepo(t, s, "widgets", MaxFiles-1)

	junk := s.Path("widgets", "junk", review.ModeFile)
	require.NoError(t, os.MkdirAll(filepath.Dir(junk), 0o755))
	require.NoError(t, os.WriteFile(junk, []byte("garbage"), 0o644))

	r := review.NewRecord("fresh")
	require.NoError(t, s.Save(ctx, "widgets", "fresh", review.ModeFile, r, baseTime.Add(time.Hour)))

	// The unparseable file ranks oldest and goes first.
	_, statErr := os.Stat(junk)
	assert.True(t, os.IsNotExist(statErr))

	_, ok, err := s.Load(ctx, "widgets", "branch-00", review.ModeFile)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStore_List(t *testing.T) {
	ctx := context.Background()
	s := New(t.TempDir())
	fillRepo(t, s, "widgets", 3)
	fillRepo(t, s, "gadgets", 1)

	junk := s.Path("widgets", "junk", review.ModeFile)
	require.NoError(t, os.MkdirAll(filepath.Dir(junk), 0o755))
	require.NoError(t, os.WriteFile(junk, []byte("garbage"), 0o644))

	infos, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 5)

	// Newest first; the unparseable file ranks last with Err set.
	assert.Equal(t, "branch-02", infos[0].Branch)
	assert.Equal(t, "widgets", infos[0].Repo)
	assert.Equal(t, "by-file", infos[0].Mode)

	last := infos[len(infos)-1]
	assert.Equal(t, junk, last.Path)
	require.Error(t, last.Err)
	assert.ErrorIs(t, last.Err, ErrCorrupt)
}

func TestStore_ListEmptyRoot(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "never-created"))
	infos, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, infos)
}

func TestStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := New(t.TempDir())
	fillRepo(t, s, "widgets", 1)

	require.NoError(t, s.Delete(ctx, "widgets", "branch-00", review.ModeFile))

	_, ok, err := s.Load(ctx, "widgets", "branch-00", review.ModeFile)
	require.NoError(t, err)
	assert.False(t, ok)

	// Empty parents are pruned along with the file.
	_, statErr := os.Stat(filepath.Join(s.Root(), "widgets"))
	assert.True(t, os.IsNotExist(statErr))

	// Deleting what is already gone is not an error.
	require.NoError(t, s.Delete(ctx, "widgets", "branch-00", review.ModeFile))
}

func TestStore_FetchStamp(t *testing.T) {
	s := New(t.TempDir())

	assert.True(t, s.FetchStamp("widgets").IsZero())

	require.NoError(t, s.TouchFetchStamp("widgets", baseTime))
	assert.Equal(t, baseTime.Unix(), s.FetchStamp("widgets").Unix())
}

func TestStore_OwnerRepoList(t *testing.T) {
	ctx := context.Background()
	s := New(t.TempDir())

	r := review.NewRecord("main")
	require.NoError(t, s.Save(ctx, "acme/widgets", "main", review.ModeFile, r, baseTime))

	infos, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "acme/widgets", infos[0].Repo)
	assert.Equal(t, "main", infos[0].Branch)
}

func TestStore_BranchSlashRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New(t.TempDir())

	r := review.NewRecord("feat/deep/nesting")
	require.NoError(t, s.Save(ctx, "widgets", "feat/deep/nesting", review.ModeCommit, r, baseTime))

	infos, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "feat/deep/nesting", infos[0].Branch)
	assert.Equal(t, "by-commit", infos[0].Mode)
}
