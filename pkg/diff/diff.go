// Package diff models file changes between two revisions: hunks of line
// content, per-file patches (textual or binary), and whole-revision diffs.
// The model is populated by the unified and combined diff parsers and is
// immutable once constructed.
package diff

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/revet-dev/revet/pkg/vcs"
)

// Range is a contiguous span of lines in one file version. Start is 1-based
// when Count > 0. A nonexistent side (pure addition or deletion) is (0,0).
type Range struct {
	Start int
	Count int
}

// ParseRange parses the "start[,count]" form used in hunk headers. A missing
// count defaults to 1.
func ParseRange(s string) (Range, error) {
	start, count, found := strings.Cut(s, ",")
	st, err := strconv.Atoi(start)
	if err != nil {
		return Range{}, fmt.Errorf("parse range %q: %w", s, err)
	}
	if !found {
		return Range{Start: st, Count: 1}, nil
	}
	ct, err := strconv.Atoi(count)
	if err != nil {
		return Range{}, fmt.Errorf("parse range %q: %w", s, err)
	}
	return Range{Start: st, Count: ct}, nil
}

func (r Range) String() string {
	return fmt.Sprintf("%d,%d", r.Start, r.Count)
}

// HunkSide is one side (source or target) of a hunk: the line range it
// covers and the raw text of those lines.
type HunkSide struct {
	Range              Range
	Lines              []string
	HasTrailingNewline bool
}

// Hunk is one contiguous change: removed source lines and added target
// lines. Invariant: len(Source.Lines) == Source.Range.Count and likewise for
// the target side.
type Hunk struct {
	Source HunkSide
	Target HunkSide
}

// NewHunk builds a hunk whose sides both end with a newline.
func NewHunk(sourceRange Range, sourceLines []string, targetRange Range, targetLines []string) Hunk {
	return Hunk{
		Source: HunkSide{Range: sourceRange, Lines: sourceLines, HasTrailingNewline: true},
		Target: HunkSide{Range: targetRange, Lines: targetLines, HasTrailingNewline: true},
	}
}

// Stats summarizes line counts for a hunk, patch, or diff.
type Stats struct {
	Added    int
	Removed  int
	Modified int
}

func (s Stats) add(o Stats) Stats {
	return Stats{
		Added:    s.Added + o.Added,
		Removed:  s.Removed + o.Removed,
		Modified: s.Modified + o.Modified,
	}
}

// Changed reports the total number of affected lines.
func (s Stats) Changed() int {
	return s.Added + s.Removed + s.Modified
}

// Stats derives line statistics from the hunk's range sizes. Overlapping
// source/target lines count as modified; the excess on either side counts as
// removed or added.
func (h Hunk) Stats() Stats {
	overlap := min(h.Source.Range.Count, h.Target.Range.Count)
	return Stats{
		Added:    max(0, h.Target.Range.Count-overlap),
		Removed:  max(0, h.Source.Range.Count-overlap),
		Modified: overlap,
	}
}

// BinaryHunk is one block of a git binary patch: a literal (full post-image)
// or a delta, with its declared inflated byte size and the base85-encoded,
// zlib-deflated payload lines.
type BinaryHunk struct {
	IsLiteral    bool
	InflatedSize int
	Data         []string
}

// Patch describes the change to a single file between two revisions. Added
// patches have no source side; deleted patches have no target side; renamed
// and copied patches carry both paths, with differing values.
type Patch struct {
	SourcePath     string
	SourceFileType FileType
	SourceHash     vcs.Hash
	TargetPath     string
	TargetFileType FileType
	TargetHash     vcs.Hash
	Status         Status

	// Hunks is populated for textual patches, BinaryHunks for binary ones.
	Hunks       []Hunk
	BinaryHunks []BinaryHunk
	IsBinary    bool
}

// Path returns the target path when present, otherwise the source path.
func (p *Patch) Path() string {
	if p.TargetPath != "" {
		return p.TargetPath
	}
	return p.SourcePath
}

// Stats sums the line statistics of a textual patch's hunks. Binary patches
// contribute nothing.
func (p *Patch) Stats() Stats {
	var s Stats
	for _, h := range p.Hunks {
		s = s.add(h.Stats())
	}
	return s
}

// Diff is the ordered set of patches between two endpoints. To is the zero
// hash with Working set when the diff targets the live working tree. Patch
// order is the order emitted by the VCS tool and is significant to callers.
type Diff struct {
	From    vcs.Hash
	To      vcs.Hash
	Working bool
	Patches []*Patch
}

// TotalStats sums line statistics over every patch.
func (d *Diff) TotalStats() Stats {
	var s Stats
	for _, p := range d.Patches {
		s = s.add(p.Stats())
	}
	return s
}
