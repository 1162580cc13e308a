package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnifiedRenderer_LineNumbers(t *testing.T) {
	h, err := Parse("@@ -1,3 +1,4 @@", []string{
		" package main",
		"-func old() {}",
		"+func new() {}",
		"+func extra() {}",
		" var x = 1",
	})
	require.NoError(t, err)

	lines := UnifiedRenderer{}.Render([]Hunk{h})
	require.Len(t, lines, 5)

	assert.Equal(t, OpContext, lines[0].Op)
	assert.Equal(t, "package main", lines[0].Text)
	assert.Equal(t, 1, lines[0].OldLine)
	assert.Equal(t, 1, lines[0].NewLine)

	assert.Equal(t, OpRemove, lines[1].Op)
	assert.Equal(t, "func old() {}", lines[1].Text)
	assert.Equal(t, 2, lines[1].OldLine)
	assert.Equal(t, 0, lines[1].NewLine)

	assert.Equal(t, OpAdd, lines[2].Op)
	assert.Equal(t, 0, lines[2].OldLine)
	assert.Equal(t, 2, lines[2].NewLine)

	assert.Equal(t, OpAdd, lines[3].Op)
	assert.Equal(t, 3, lines[3].NewLine)

	assert.Equal(t, OpContext, lines[4].Op)
	assert.Equal(t, 3, lines[4].OldLine)
	assert.Equal(t, 4, lines[4].NewLine)
}

func TestUnifiedRenderer_MultipleHunks(t *testing.T) {
	h1, err := Parse("@@ -1,1 +1,1 @@", []string{"-a", "+A"})
	require.NoError(t, err)
	h2, err := Parse("@@ -10,1 +10,1 @@", []string{"-z", "+Z"})
	require.NoError(t, err)

	lines := UnifiedRenderer{}.Render([]Hunk{h1, h2})
	require.Len(t, lines, 4)

	// Second hunk restarts numbering at its own header position.
	assert.Equal(t, 10, lines[2].OldLine)
	assert.Equal(t, 10, lines[3].NewLine)
}

func TestBuild(t *testing.T) {
	file := fileOf("a", "b", "c", "d", "e")
	h1 := New(Range{Start: 1, Count: 1}, Range{Start: 1, Count: 1}, []string{"-a", "+A"})
	h2 := New(Range{Start: 4, Count: 1}, Range{Start: 4, Count: 2}, []string{"-d", "+D", "+DD"})
	hunks := []Hunk{h1, h2}
	ids := IDs(hunks, file, 1)

	seen := map[ContentID]bool{ids[1]: true}
	d := Build(UnifiedRenderer{}, "pkg/thing.go", hunks, ids, func(id ContentID) bool { return seen[id] })

	assert.Equal(t, "pkg/thing.go", d.Path)
	assert.Equal(t, 2, d.Stat.Hunks)
	assert.Equal(t, 3, d.Stat.Added)
	assert.Equal(t, 2, d.Stat.Removed)

	require.Len(t, d.Marks, 1)
	assert.Equal(t, Span{Top: 4, Bottom: 5}, d.Marks[0])

	assert.Empty(t, d.OriginalIndices, "unfiltered view carries no index map")
	assert.Len(t, d.Lines, 5)
}

func TestBuild_NilSeen(t *testing.T) {
	h := New(Range{Start: 1, Count: 1}, Range{Start: 1, Count: 1}, []string{"-a", "+A"})

	d := Build(UnifiedRenderer{}, "x.go", []Hunk{h}, IDs([]Hunk{h}, nil, 0), nil)
	assert.Empty(t, d.Marks)
	assert.Equal(t, 1, d.Stat.Hunks)
}
