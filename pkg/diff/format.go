package diff

import (
	"fmt"
	"strings"
)

// RenderHunk writes one hunk back to unified-diff text lines: the @@ header,
// the removed source lines, the added target lines, and no-newline markers
// where a side ends without one. Re-parsing the result yields an equal hunk.
func RenderHunk(h Hunk) []string {
	lines := make([]string, 0, 1+len(h.Source.Lines)+len(h.Target.Lines)+2)
	lines = append(lines, fmt.Sprintf("@@ -%s +%s @@", h.Source.Range, h.Target.Range))
	for _, l := range h.Source.Lines {
		lines = append(lines, "-"+l)
	}
	if !h.Source.HasTrailingNewline && len(h.Source.Lines) > 0 {
		lines = append(lines, noNewlineMarker)
	}
	for _, l := range h.Target.Lines {
		lines = append(lines, "+"+l)
	}
	if !h.Target.HasTrailingNewline && len(h.Target.Lines) > 0 {
		lines = append(lines, noNewlineMarker)
	}
	return lines
}

// RenderPatchHeader produces the canonical one-line rendering of a patch's
// metadata, used by the comparator to key patches independent of ordering.
func RenderPatchHeader(p *Patch) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s %s %s",
		p.SourceFileType.Mode(), p.TargetFileType.Mode(),
		p.SourceHash, p.TargetHash, p.Status)
	if p.SourcePath != "" {
		fmt.Fprintf(&b, " %s", p.SourcePath)
	}
	if p.TargetPath != "" && p.TargetPath != p.SourcePath {
		fmt.Fprintf(&b, " %s", p.TargetPath)
	}
	return b.String()
}
