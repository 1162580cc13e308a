package diff

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// ContentID is a stable, position-independent identifier for a hunk.
// It is derived from the hunk's diff lines plus nearby file content,
// never from line numbers, so regenerating a diff after unrelated edits
// above the hunk produces the same identifier.
type ContentID string

// EmptyID identifies the empty hunk set. Files whose change produced no
// text hunks (mode changes, binary files) still need a mark target.
const EmptyID ContentID = "empty"

// idLen truncates the hex digest. 64 bits keeps collisions out of reach
// for any realistic diff while keeping persisted state files small.
const idLen = 16

// ID computes the hunk's content identifier. Up to contextSize unchanged
// current-file lines on each side of the hunk are folded into the hash so
// identical changes at different spots in one file stay distinct.
// fileLines is the full current file split into lines; pass nil when the
// content is unavailable and the identity degrades to the diff lines alone.
func (h Hunk) ID(fileLines []string, contextSize int) ContentID {
	var b strings.Builder
	for _, line := range h.Lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}

	if contextSize > 0 && len(fileLines) > 0 {
		// lo..hi are the 1-based current-file lines the hunk occupies.
		// A pure removal occupies none; the boundary sits after
		// Current.Start per the unified format.
		lo := h.Current.Start
		hi := h.Current.Start + h.Current.Count - 1
		if h.Current.Count == 0 {
			lo = h.Current.Start + 1
			hi = h.Current.Start
		}

		for n := max(lo-contextSize, 1); n < lo; n++ {
			b.WriteString(fileLines[n-1])
			b.WriteByte('\n')
		}
		for n := hi + 1; n <= min(hi+contextSize, len(fileLines)); n++ {
			b.WriteString(fileLines[n-1])
			b.WriteByte('\n')
		}
	}

	return hashContent(b.String())
}

func hashContent(content string) ContentID {
	sum := sha256.Sum256([]byte(content))
	return ContentID(hex.EncodeToString(sum[:])[:idLen])
}

// IDs computes identifiers for a file's hunks in order. An empty hunk
// list yields the single EmptyID sentinel so the file can still be marked.
func IDs(hunks []Hunk, fileLines []string, contextSize int) []ContentID {
	if len(hunks) == 0 {
		return []ContentID{EmptyID}
	}
	ids := make([]ContentID, len(hunks))
	for i, h := range hunks {
		ids[i] = h.ID(fileLines, contextSize)
	}
	return ids
}
