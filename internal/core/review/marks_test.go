package review

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewkit/revq/internal/core/diff"
)

func TestMarkSet_MarkUnmark(t *testing.T) {
	m := NewMarkSet()
	key := MarkKey{EntryKey: "pkg/a.go", ID: "aaaa"}

	assert.False(t, m.IsSeen(key))

	m.Mark(key)
	assert.True(t, m.IsSeen(key))
	assert.Equal(t, 1, m.Len())

	m.Unmark(key)
	assert.False(t, m.IsSeen(key))
	assert.Equal(t, 0, m.Len())
}

func TestMarkSet_Categorize(t *testing.T) {
	ids := []diff.ContentID{"h1", "h2", "h3"}
	m := NewMarkSet()

	// Untouched file lives in unseen only.
	assert.False(t, m.HasSeen("pkg/a.go", ids))
	assert.True(t, m.HasUnseen("pkg/a.go", ids))

	// One mark puts it in both sections.
	m.Mark(MarkKey{EntryKey: "pkg/a.go", ID: "h2"})
	assert.True(t, m.HasSeen("pkg/a.go", ids))
	assert.True(t, m.HasUnseen("pkg/a.go", ids))

	// Fully marked leaves seen only.
	m.MarkAll("pkg/a.go", ids)
	assert.True(t, m.HasSeen("pkg/a.go", ids))
	assert.False(t, m.HasUnseen("pkg/a.go", ids))

	m.UnmarkAll("pkg/a.go", ids)
	assert.False(t, m.HasSeen("pkg/a.go", ids))
	assert.True(t, m.HasUnseen("pkg/a.go", ids))
}

func TestMarkSet_EmptyIDs(t *testing.T) {
	m := NewMarkSet()

	// Without identity data nothing can be proven reviewed, so the
	// entry must still surface as unseen.
	assert.False(t, m.HasSeen("pkg/a.go", nil))
	assert.True(t, m.HasUnseen("pkg/a.go", nil))
}

func TestMarkSet_KeysAreScoped(t *testing.T) {
	m := NewMarkSet()
	m.Mark(MarkKey{EntryKey: "pkg/a.go", ID: "h1"})

	assert.True(t, m.IsSeen(MarkKey{EntryKey: "pkg/a.go", ID: "h1"}))
	assert.False(t, m.IsSeen(MarkKey{EntryKey: "pkg/b.go", ID: "h1"}))
}

func TestMarkSet_Reset(t *testing.T) {
	m := NewMarkSet()
	m.MarkAll("pkg/a.go", []diff.ContentID{"h1", "h2"})
	m.Mark(MarkKey{EntryKey: "pkg/b.go", ID: "h3"})
	require.Equal(t, 3, m.Len())

	m.Reset()
	assert.Equal(t, 0, m.Len())
	assert.False(t, m.IsSeen(MarkKey{EntryKey: "pkg/a.go", ID: "h1"}))
}

func TestMarkSet_SerializeRestore(t *testing.T) {
	m := NewMarkSet()
	m.Mark(MarkKey{EntryKey: "pkg/a.go", ID: "h1"})
	m.Mark(MarkKey{EntryKey: "pkg/b.go", ID: "h2"})

	raw := m.Serialize()
	require.Len(t, raw, 2)
	assert.True(t, raw["pkg/a.go:h1"])
	assert.True(t, raw["pkg/b.go:h2"])

	restored := RestoreMarkSet(raw)
	assert.Equal(t, 2, restored.Len())
	assert.True(t, restored.IsSeen(MarkKey{EntryKey: "pkg/a.go", ID: "h1"}))
	assert.True(t, restored.IsSeen(MarkKey{EntryKey: "pkg/b.go", ID: "h2"}))
}

func TestRestoreMarkSet_SkipsBadKeys(t *testing.T) {
	restored := RestoreMarkSet(map[string]bool{
		"pkg/a.go:h1": true,
		"nodelim":     true,
		":leading":    true,
		"trailing:":   true,
		"pkg/b.go:h2": false,
	})

	assert.Equal(t, 1, restored.Len())
	assert.True(t, restored.IsSeen(MarkKey{EntryKey: "pkg/a.go", ID: "h1"}))
}
