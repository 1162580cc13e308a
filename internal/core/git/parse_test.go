package git

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommits(t *testing.T) {
	out := "commit 1111111111111111111111111111111111111111\n" +
		"1111111\tadd login form\n" +
		"commit 2222222222222222222222222222222222222222\n" +
		"2222222\tfix: handle empty password\n"

	commits := parseCommits(out)
	require.Len(t, commits, 2)

	assert.Equal(t, "1111111111111111111111111111111111111111", commits[0].Hash)
	assert.Equal(t, "1111111", commits[0].Short)
	assert.Equal(t, "add login form", commits[0].Subject)

	assert.Equal(t, "fix: handle empty password", commits[1].Subject)
}

func TestParseCommits_Empty(t *testing.T) {
	assert.Empty(t, parseCommits(""))
	assert.Empty(t, parseCommits("\n\n"))
}

func TestParseNameStatus(t *testing.T) {
	out := "M\tinternal/app/server.go\n" +
		"A\tinternal/app/routes.go\n" +
		"D\tlegacy/handler.go\n" +
		"R100\told/name.go\tnew/name.go\n"

	statuses := parseNameStatus(out)
	require.Len(t, statuses, 4)

	assert.Equal(t, Status{Code: 'M', Path: "internal/app/server.go"}, statuses[0])
	assert.Equal(t, Status{Code: 'A', Path: "internal/app/routes.go"}, statuses[1])
	assert.Equal(t, Status{Code: 'D', Path: "legacy/handler.go"}, statuses[2])

	rename := statuses[3]
	assert.Equal(t, byte('R'), rename.Code)
	assert.Equal(t, 100, rename.Score)
	assert.Equal(t, "old/name.go", rename.OldPath)
	assert.Equal(t, "new/name.go", rename.Path)
}

func TestParseNameStatus_SkipsMalformed(t *testing.T) {
	out := "not a status line\n\nM\tvalid.go\n"

	statuses := parseNameStatus(out)
	require.Len(t, statuses, 1)
	assert.Equal(t, "valid.go", statuses[0].Path)
}

func TestParseCommitFiles(t *testing.T) {
	out := "1111111111111111111111111111111111111111\n" +
		"\n" +
		"M\tmain.go\n" +
		"A\tutil.go\n" +
		"\n" +
		"2222222222222222222222222222222222222222\n" +
		"\n" +
		"M\tmain.go\n"

	files := parseCommitFiles(out)
	require.Len(t, files, 2)

	first := files["1111111111111111111111111111111111111111"]
	require.Len(t, first, 2)
	assert.Equal(t, "main.go", first[0].Path)
	assert.Equal(t, "util.go", first[1].Path)

	second := files["2222222222222222222222222222222222222222"]
	require.Len(t, second, 1)
	assert.Equal(t, byte('M'), second[0].Code)
}

func TestParseCommitFiles_EmptyCommitKeepsEntry(t *testing.T) {
	out := "1111111111111111111111111111111111111111\n\n"

	files := parseCommitFiles(out)
	require.Len(t, files, 1)
	assert.Empty(t, files["1111111111111111111111111111111111111111"])
}

func TestIsFullHash(t *testing.T) {
	assert.True(t, isFullHash("0123456789abcdef0123456789abcdef01234567"))
	assert.False(t, isFullHash("0123456"))
	assert.False(t, isFullHash("0123456789ABCDEF0123456789abcdef01234567"))
	assert.False(t, isFullHash("M\tsome/path.go"))
}
