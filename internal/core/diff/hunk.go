// Package diff models unified-diff hunks and derives stable
// content-addressed identifiers for them. Identifiers survive diff
// regeneration and hunk drift, which makes them safe keys for
// persisted review marks.
package diff

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
)

// ErrMalformedHeader is returned when a hunk header cannot be parsed.
var ErrMalformedHeader = errors.New("malformed hunk header")

// Kind classifies what a hunk does to the current version of the file.
type Kind string

const (
	KindAdd    Kind = "add"
	KindRemove Kind = "remove"
	KindChange Kind = "change"
)

// Range is one side of a hunk header: a 1-based start line and a line count.
type Range struct {
	Start int
	Count int
}

// String renders the range in unified header form, omitting the count
// when it is 1.
func (r Range) String() string {
	if r.Count == 1 {
		return strconv.Itoa(r.Start)
	}
	return fmt.Sprintf("%d,%d", r.Start, r.Count)
}

// Hunk is one contiguous block of changes from a unified diff,
// positioned against the current version of the file. Hunks are value
// types and are not modified after construction.
type Hunk struct {
	Previous Range // old-file side of the header
	Current  Range // new-file side of the header

	// Top and Bottom bound the hunk in the current file, 1-based
	// inclusive. Pure removals occupy no current lines, so Bottom
	// collapses to Top.
	Top    int
	Bottom int

	Kind Kind

	// Lines holds the prefixed diff lines ("+", "-", " ") without
	// trailing newlines.
	Lines []string

	Added   int
	Removed int
}

// New builds a Hunk from parsed header ranges and prefixed diff lines.
func New(previous, current Range, lines []string) Hunk {
	h := Hunk{
		Previous: previous,
		Current:  current,
		Lines:    lines,
		Top:      current.Start,
	}

	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "+"):
			h.Added++
		case strings.HasPrefix(line, "-"):
			h.Removed++
		}
	}

	switch {
	case current.Count == 0:
		h.Kind = KindRemove
		h.Bottom = h.Top
	case previous.Count == 0:
		h.Kind = KindAdd
		h.Bottom = current.Start + current.Count - 1
	default:
		h.Kind = KindChange
		h.Bottom = current.Start + current.Count - 1
	}

	return h
}

// Parse builds a Hunk from a raw header line and its prefixed diff lines.
func Parse(header string, lines []string) (Hunk, error) {
	previous, current, err := ParseHeader(header)
	if err != nil {
		return Hunk{}, err
	}
	return New(previous, current, lines), nil
}

// Header reconstructs the hunk's unified header line.
func (h Hunk) Header() string {
	return fmt.Sprintf("@@ -%s +%s @@", h.Previous, h.Current)
}

// ParseHeader parses a hunk header line like "@@ -1,7 +1,8 @@ func name".
// A missing count defaults to 1 per the unified diff format. Errors wrap
// ErrMalformedHeader.
func ParseHeader(line string) (previous, current Range, err error) {
	if !strings.HasPrefix(line, "@@") {
		return Range{}, Range{}, fmt.Errorf("%w: missing @@ prefix", ErrMalformedHeader)
	}

	closeIdx := strings.Index(line[2:], "@@")
	if closeIdx == -1 {
		return Range{}, Range{}, fmt.Errorf("%w: missing closing @@", ErrMalformedHeader)
	}
	closeIdx += 2

	rangeStr := strings.TrimSpace(line[2:closeIdx])

	parts := strings.Fields(rangeStr)
	if len(parts) != 2 {
		return Range{}, Range{}, fmt.Errorf("%w: expected 2 ranges, got %d", ErrMalformedHeader, len(parts))
	}

	oldRange := parts[0]
	newRange := parts[1]

	if !strings.HasPrefix(oldRange, "-") {
		return Range{}, Range{}, fmt.Errorf("%w: old range missing - prefix", ErrMalformedHeader)
	}
	if !strings.HasPrefix(newRange, "+") {
		return Range{}, Range{}, fmt.Errorf("%w: new range missing + prefix", ErrMalformedHeader)
	}

	previous, err = parseRange(oldRange[1:])
	if err != nil {
		return Range{}, Range{}, fmt.Errorf("parse old range: %w", err)
	}

	current, err = parseRange(newRange[1:])
	if err != nil {
		return Range{}, Range{}, fmt.Errorf("parse new range: %w", err)
	}

	return previous, current, nil
}

// parseRange parses a range string like "1,7" or "1" into a Range.
// Single numbers (like "1") are treated as "1,1".
func parseRange(rangeStr string) (Range, error) {
	parts := strings.Split(rangeStr, ",")

	start, err := strconv.Atoi(parts[0])
	if err != nil {
		return Range{}, fmt.Errorf("%w: parse start %q", ErrMalformedHeader, parts[0])
	}

	switch len(parts) {
	case 1:
		return Range{Start: start, Count: 1}, nil
	case 2:
		count, err := strconv.Atoi(parts[1])
		if err != nil {
			return Range{}, fmt.Errorf("%w: parse count %q", ErrMalformedHeader, parts[1])
		}
		return Range{Start: start, Count: count}, nil
	default:
		return Range{}, fmt.Errorf("%w: invalid range %q", ErrMalformedHeader, rangeStr)
	}
}

// FromFragment converts a parsed gitdiff fragment into a Hunk.
func FromFragment(f *gitdiff.TextFragment) Hunk {
	lines := make([]string, 0, len(f.Lines))
	for _, ln := range f.Lines {
		lines = append(lines, strings.TrimSuffix(ln.String(), "\n"))
	}

	previous := Range{Start: int(f.OldPosition), Count: int(f.OldLines)}
	current := Range{Start: int(f.NewPosition), Count: int(f.NewLines)}
	return New(previous, current, lines)
}

// FilePatch is the parsed diff for a single file.
type FilePatch struct {
	// OldPath is the pre-change path; empty for added files.
	OldPath string
	// Path is the current path; for deletions it carries the old path
	// so every patch has a usable key.
	Path   string
	Binary bool
	Hunks  []Hunk
}

// ParsePatch parses raw `git diff` style output into per-file patches.
func ParsePatch(r io.Reader) ([]FilePatch, error) {
	files, _, err := gitdiff.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse patch: %w", err)
	}

	patches := make([]FilePatch, 0, len(files))
	for _, f := range files {
		p := FilePatch{
			OldPath: f.OldName,
			Path:    f.NewName,
			Binary:  f.IsBinary,
		}
		if p.Path == "" {
			p.Path = f.OldName
		}
		for _, frag := range f.TextFragments {
			p.Hunks = append(p.Hunks, FromFragment(frag))
		}
		patches = append(patches, p)
	}
	return patches, nil
}
