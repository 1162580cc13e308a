package diff

import "strings"

// Op classifies a rendered diff line.
type Op string

const (
	OpContext Op = "context"
	OpAdd     Op = "add"
	OpRemove  Op = "remove"
)

// Line is a single rendered diff line with resolved positions.
type Line struct {
	Op Op
	// OldLine is the 1-based line in the previous version; 0 for adds.
	OldLine int
	// NewLine is the 1-based line in the current version; 0 for removes.
	NewLine int
	// Text is the line content without its diff prefix.
	Text string
}

// Span is a 1-based inclusive line range in the current file.
type Span struct {
	Top    int
	Bottom int
}

// Stat summarizes a diff.
type Stat struct {
	Hunks   int
	Added   int
	Removed int
}

// Section is the review bucket an entry or filtered diff belongs to.
type Section string

const (
	SectionSeen   Section = "seen"
	SectionUnseen Section = "unseen"
)

// Diff is a renderable view of one file's hunks, with enough metadata
// for a host UI to draw gutters and navigate without re-parsing.
type Diff struct {
	Path  string
	Hunks []Hunk
	IDs   []ContentID

	// Marks are the current-file extents of hunks already reviewed.
	Marks []Span

	Lines []Line
	Stat  Stat

	// OriginalIndices maps each hunk of a filtered view back to its
	// 1-based position in the full diff. Empty for unfiltered views.
	OriginalIndices []int
	// Section is set on filtered views to say which bucket they show.
	Section Section
}

// Renderer turns hunks into annotated display lines.
type Renderer interface {
	Render(hunks []Hunk) []Line
}

// UnifiedRenderer lays hunks out in standard unified order, tracking
// old and new line numbers the way the raw format implies them.
type UnifiedRenderer struct{}

// Render implements Renderer.
func (UnifiedRenderer) Render(hunks []Hunk) []Line {
	var out []Line
	for _, h := range hunks {
		oldLine := h.Previous.Start
		newLine := h.Current.Start

		for _, raw := range h.Lines {
			switch {
			case strings.HasPrefix(raw, "+"):
				out = append(out, Line{Op: OpAdd, NewLine: newLine, Text: raw[1:]})
				newLine++
			case strings.HasPrefix(raw, "-"):
				out = append(out, Line{Op: OpRemove, OldLine: oldLine, Text: raw[1:]})
				oldLine++
			default:
				out = append(out, Line{
					Op:      OpContext,
					OldLine: oldLine,
					NewLine: newLine,
					Text:    strings.TrimPrefix(raw, " "),
				})
				oldLine++
				newLine++
			}
		}
	}
	return out
}

// Build assembles a renderable Diff for a file's hunks. seen reports
// whether a hunk identifier has been reviewed; it may be nil when mark
// state is not relevant.
func Build(r Renderer, path string, hunks []Hunk, ids []ContentID, seen func(ContentID) bool) Diff {
	d := Diff{
		Path:  path,
		Hunks: hunks,
		IDs:   ids,
		Lines: r.Render(hunks),
	}
	d.Stat.Hunks = len(hunks)

	for i, h := range hunks {
		d.Stat.Added += h.Added
		d.Stat.Removed += h.Removed
		if seen != nil && i < len(ids) && seen(ids[i]) {
			d.Marks = append(d.Marks, Span{Top: h.Top, Bottom: h.Bottom})
		}
	}
	return d
}
