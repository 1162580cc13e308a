package diff

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHeader(t *testing.T) {
	tests := []struct {
		name         string
		line         string
		wantPrevious Range
		wantCurrent  Range
	}{
		{
			name:         "full ranges",
			line:         "@@ -1,7 +1,8 @@",
			wantPrevious: Range{Start: 1, Count: 7},
			wantCurrent:  Range{Start: 1, Count: 8},
		},
		{
			name:         "missing counts default to one",
			line:         "@@ -3 +4 @@",
			wantPrevious: Range{Start: 3, Count: 1},
			wantCurrent:  Range{Start: 4, Count: 1},
		},
		{
			name:         "mixed counts",
			line:         "@@ -10,0 +11 @@",
			wantPrevious: Range{Start: 10, Count: 0},
			wantCurrent:  Range{Start: 11, Count: 1},
		},
		{
			name:         "trailing function comment",
			line:         "@@ -42,5 +42,6 @@ func main() {",
			wantPrevious: Range{Start: 42, Count: 5},
			wantCurrent:  Range{Start: 42, Count: 6},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			previous, current, err := ParseHeader(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPrevious, previous)
			assert.Equal(t, tt.wantCurrent, current)
		})
	}
}

func TestParseHeader_Malformed(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{name: "missing prefix", line: "-1,7 +1,8 @@"},
		{name: "missing closing markers", line: "@@ -1,7 +1,8"},
		{name: "missing new range", line: "@@ -1,7 @@"},
		{name: "swapped signs", line: "@@ +1,7 -1,8 @@"},
		{name: "non numeric start", line: "@@ -a,7 +1,8 @@"},
		{name: "non numeric count", line: "@@ -1,b +1,8 @@"},
		{name: "empty", line: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseHeader(tt.line)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedHeader)
		})
	}
}

func TestNew_Kinds(t *testing.T) {
	t.Run("change", func(t *testing.T) {
		h := New(Range{Start: 5, Count: 2}, Range{Start: 5, Count: 3}, []string{"-old", "+new", "+more", " ctx"})
		assert.Equal(t, KindChange, h.Kind)
		assert.Equal(t, 5, h.Top)
		assert.Equal(t, 7, h.Bottom)
		assert.Equal(t, 2, h.Added)
		assert.Equal(t, 1, h.Removed)
	})

	t.Run("pure addition", func(t *testing.T) {
		h := New(Range{Start: 4, Count: 0}, Range{Start: 5, Count: 2}, []string{"+a", "+b"})
		assert.Equal(t, KindAdd, h.Kind)
		assert.Equal(t, 5, h.Top)
		assert.Equal(t, 6, h.Bottom)
	})

	t.Run("pure removal collapses bottom", func(t *testing.T) {
		h := New(Range{Start: 5, Count: 2}, Range{Start: 4, Count: 0}, []string{"-a", "-b"})
		assert.Equal(t, KindRemove, h.Kind)
		assert.Equal(t, 4, h.Top)
		assert.Equal(t, 4, h.Bottom)
		assert.Equal(t, 2, h.Removed)
	})
}

func TestParse(t *testing.T) {
	h, err := Parse("@@ -1,3 +1,4 @@", []string{" package main", " ", "+import \"fmt\"", " func main() {}"})
	require.NoError(t, err)

	assert.Equal(t, Range{Start: 1, Count: 3}, h.Previous)
	assert.Equal(t, Range{Start: 1, Count: 4}, h.Current)
	assert.Equal(t, 1, h.Added)
	assert.Equal(t, 0, h.Removed)
	assert.Equal(t, KindChange, h.Kind)
}

func TestHunk_Header(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{name: "full", line: "@@ -1,7 +1,8 @@"},
		{name: "single line omits count", line: "@@ -3 +4 @@"},
		{name: "zero count kept", line: "@@ -10,0 +11,2 @@"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			previous, current, err := ParseHeader(tt.line)
			require.NoError(t, err)

			h := New(previous, current, nil)
			assert.Equal(t, tt.line, h.Header())
		})
	}
}

func TestParsePatch(t *testing.T) {
	patch := `diff --git a/main.go b/main.go
index abc1234..def5678 100644
--- a/main.go
+++ b/main.go
@@ -1,3 +1,4 @@
 package main

+import "fmt"
 func main() {}
diff --git a/notes.txt b/notes.txt
new file mode 100644
index 0000000..3b18e51
--- /dev/null
+++ b/notes.txt
@@ -0,0 +1,2 @@
+hello
+world
`

	patches, err := ParsePatch(strings.NewReader(patch))
	require.NoError(t, err)
	require.Len(t, patches, 2)

	mainGo := patches[0]
	assert.Equal(t, "main.go", mainGo.Path)
	assert.Equal(t, "main.go", mainGo.OldPath)
	require.Len(t, mainGo.Hunks, 1)
	assert.Equal(t, 1, mainGo.Hunks[0].Added)
	assert.Equal(t, 0, mainGo.Hunks[0].Removed)
	assert.Equal(t, KindChange, mainGo.Hunks[0].Kind)
	assert.Equal(t, []string{" package main", " ", `+import "fmt"`, " func main() {}"}, mainGo.Hunks[0].Lines)

	notes := patches[1]
	assert.Equal(t, "notes.txt", notes.Path)
	assert.Empty(t, notes.OldPath)
	require.Len(t, notes.Hunks, 1)
	assert.Equal(t, KindAdd, notes.Hunks[0].Kind)
	assert.Equal(t, 1, notes.Hunks[0].Top)
	assert.Equal(t, 2, notes.Hunks[0].Bottom)
}

func TestParsePatch_DeletedFileKeepsPath(t *testing.T) {
	patch := `diff --git a/old.txt b/old.txt
deleted file mode 100644
index 3b18e51..0000000
--- a/old.txt
+++ /dev/null
@@ -1,2 +0,0 @@
-hello
-world
`

	patches, err := ParsePatch(strings.NewReader(patch))
	require.NoError(t, err)
	require.Len(t, patches, 1)

	assert.Equal(t, "old.txt", patches[0].Path)
	require.Len(t, patches[0].Hunks, 1)
	assert.Equal(t, KindRemove, patches[0].Hunks[0].Kind)
}

func TestParsePatch_Malformed(t *testing.T) {
	patch := `diff --git a/x b/x
--- a/x
+++ b/x
@@ bogus @@
 line
`

	_, err := ParsePatch(strings.NewReader(patch))
	require.Error(t, err)
}
