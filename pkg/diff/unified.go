package diff

import (
	"fmt"
	"strings"

	"github.com/revet-dev/revet/pkg/vcs"
)

// extendedHeaders is the fixed vocabulary of per-file header lines that may
// precede the hunk section of a unified diff body.
var extendedHeaders = []string{
	"old mode ",
	"new mode ",
	"deleted file mode ",
	"new file mode ",
	"copy from ",
	"copy to ",
	"rename from ",
	"rename to ",
	"similarity index ",
	"dissimilarity index ",
	"index ",
}

func isExtendedHeader(line string) bool {
	for _, prefix := range extendedHeaders {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

const noNewlineMarker = `\ No newline at end of file`

// ParseUnifiedHunks consumes one file's unified diff body from r and returns
// its hunks. It skips extended header lines and the ---/+++ file labels,
// then parses hunk blocks. Hunks are context-free: a context line closes the
// accumulating hunk and starts a new one. The line that terminates the body
// (the next "diff" line, a raw ":" line, or similar) is pushed back.
//
// A "Binary files ... differ" line ends hunk scanning for the file without
// producing a hunk.
func ParseUnifiedHunks(r *LineReader) ([]Hunk, error) {
	line, ok := r.Next()
	for ok && (isExtendedHeader(line) || strings.HasPrefix(line, "--- ")) {
		line, ok = r.Next()
	}
	if ok && strings.HasPrefix(line, "+++ ") {
		line, ok = r.Next()
	}

	hunks := []Hunk{}
	if !ok {
		return hunks, r.Err()
	}
	if strings.HasPrefix(line, "Binary files ") {
		return hunks, nil
	}

	for {
		if !strings.HasPrefix(line, "@@ ") {
			return nil, fmt.Errorf("parse hunks: expected hunk header, have %q", line)
		}
		sourceRange, targetRange, err := parseHunkHeader(line)
		if err != nil {
			return nil, err
		}

		acc := newHunkAccumulator(sourceRange, targetRange)
		for {
			line, ok = r.Next()
			if !ok {
				acc.flush(&hunks)
				return hunks, r.Err()
			}
			if line == noNewlineMarker {
				acc.clearNewline(&hunks)
				continue
			}
			if len(line) == 0 {
				// Some tools emit a bare empty line for empty context.
				acc.context(&hunks)
				continue
			}
			switch line[0] {
			case ' ':
				acc.context(&hunks)
			case '-':
				acc.source(line[1:])
			case '+':
				acc.target(line[1:])
			default:
				acc.flush(&hunks)
				if strings.HasPrefix(line, "@@ ") {
					goto nextHunk
				}
				r.Push(line)
				return hunks, nil
			}
		}
	nextHunk:
	}
}

// parseHunkHeader parses "@@ -a,b +c,d @@ ...".
func parseHunkHeader(line string) (Range, Range, error) {
	rest := strings.TrimPrefix(line, "@@ ")
	end := strings.Index(rest, " @@")
	if end == -1 {
		return Range{}, Range{}, fmt.Errorf("parse hunks: malformed hunk header %q", line)
	}
	fields := strings.Fields(rest[:end])
	if len(fields) != 2 || !strings.HasPrefix(fields[0], "-") || !strings.HasPrefix(fields[1], "+") {
		return Range{}, Range{}, fmt.Errorf("parse hunks: malformed hunk header %q", line)
	}
	source, err := ParseRange(fields[0][1:])
	if err != nil {
		return Range{}, Range{}, fmt.Errorf("parse hunks: %w", err)
	}
	target, err := ParseRange(fields[1][1:])
	if err != nil {
		return Range{}, Range{}, fmt.Errorf("parse hunks: %w", err)
	}
	return source, target, nil
}

// hunkAccumulator tracks the buffers for the hunk currently being built, and
// the running source/target line positions within the enclosing @@ block.
type hunkAccumulator struct {
	srcPos, tgtPos     int // next unconsumed line number on each side
	srcStart, tgtStart int
	srcLines, tgtLines []string
	srcNewline         bool
	tgtNewline         bool
	last               byte // side of the most recently consumed body line
}

func newHunkAccumulator(source, target Range) *hunkAccumulator {
	return &hunkAccumulator{
		srcPos: source.Start, tgtPos: target.Start,
		srcStart: source.Start, tgtStart: target.Start,
		srcNewline: true, tgtNewline: true,
	}
}

func (a *hunkAccumulator) accumulating() bool {
	return len(a.srcLines) > 0 || len(a.tgtLines) > 0
}

func (a *hunkAccumulator) source(content string) {
	if !a.accumulating() {
		a.srcStart, a.tgtStart = a.srcPos, a.tgtPos
	}
	a.srcLines = append(a.srcLines, content)
	a.srcPos++
	a.last = '-'
}

func (a *hunkAccumulator) target(content string) {
	if !a.accumulating() {
		a.srcStart, a.tgtStart = a.srcPos, a.tgtPos
	}
	a.tgtLines = append(a.tgtLines, content)
	a.tgtPos++
	a.last = '+'
}

func (a *hunkAccumulator) context(hunks *[]Hunk) {
	a.flush(hunks)
	a.srcPos++
	a.tgtPos++
	a.last = ' '
}

// flush completes the accumulating hunk, if any, and resets the buffers.
func (a *hunkAccumulator) flush(hunks *[]Hunk) {
	if !a.accumulating() {
		return
	}
	h := Hunk{
		Source: HunkSide{
			Range:              Range{Start: a.srcStart, Count: len(a.srcLines)},
			Lines:              a.srcLines,
			HasTrailingNewline: a.srcNewline,
		},
		Target: HunkSide{
			Range:              Range{Start: a.tgtStart, Count: len(a.tgtLines)},
			Lines:              a.tgtLines,
			HasTrailingNewline: a.tgtNewline,
		},
	}
	*hunks = append(*hunks, h)
	a.srcLines, a.tgtLines = nil, nil
	a.srcNewline, a.tgtNewline = true, true
}

// clearNewline handles the "\ No newline at end of file" marker: it clears
// the trailing-newline flag on whichever side's line immediately preceded it.
func (a *hunkAccumulator) clearNewline(hunks *[]Hunk) {
	switch a.last {
	case '-':
		a.srcNewline = false
	case '+':
		a.tgtNewline = false
	case ' ':
		// The marker follows context: both versions end without a newline
		// here. The affected lines live in the previously flushed hunk.
		if n := len(*hunks); n > 0 {
			(*hunks)[n-1].Source.HasTrailingNewline = false
			(*hunks)[n-1].Target.HasTrailingNewline = false
		}
	}
}

// patchHeader is the parsed form of one raw diff line, before hunks are
// attached.
type patchHeader struct {
	sourcePath string
	sourceType FileType
	sourceHash vcs.Hash
	targetPath string
	targetType FileType
	targetHash vcs.Hash
	status     Status
}

func (h *patchHeader) toPatch() *Patch {
	p := &Patch{
		SourceFileType: h.sourceType,
		SourceHash:     h.sourceHash,
		TargetFileType: h.targetType,
		TargetHash:     h.targetHash,
		Status:         h.status,
	}
	if !h.status.IsAdded() {
		p.SourcePath = h.sourcePath
	}
	if !h.status.IsDeleted() {
		p.TargetPath = h.targetPath
	}
	return p
}

// parseRawLine parses ":<srcmode> <tgtmode> <srchash> <tgthash> <status>\t
// <path>[\t<newpath>]" as emitted by git diff --raw --no-abbrev.
func parseRawLine(line string) (*patchHeader, error) {
	if !strings.HasPrefix(line, ":") {
		return nil, fmt.Errorf("parse raw line: missing ':' in %q", line)
	}
	meta, paths, found := strings.Cut(line[1:], "\t")
	if !found {
		return nil, fmt.Errorf("parse raw line: missing path in %q", line)
	}
	fields := strings.Fields(meta)
	if len(fields) != 5 {
		return nil, fmt.Errorf("parse raw line: want 5 fields, have %d in %q", len(fields), line)
	}

	var h patchHeader
	var err error
	if h.sourceType, err = ParseFileType(fields[0]); err != nil {
		return nil, fmt.Errorf("parse raw line: %w", err)
	}
	if h.targetType, err = ParseFileType(fields[1]); err != nil {
		return nil, fmt.Errorf("parse raw line: %w", err)
	}
	if h.sourceHash, err = vcs.ParseHash(fields[2]); err != nil {
		return nil, fmt.Errorf("parse raw line: %w", err)
	}
	if h.targetHash, err = vcs.ParseHash(fields[3]); err != nil {
		return nil, fmt.Errorf("parse raw line: %w", err)
	}
	if h.status, err = ParseStatus(fields[4]); err != nil {
		return nil, fmt.Errorf("parse raw line: %w", err)
	}

	oldPath, newPath, twoPaths := strings.Cut(paths, "\t")
	h.sourcePath, h.targetPath = oldPath, oldPath
	if twoPaths {
		if !h.status.IsRenamed() && !h.status.IsCopied() {
			return nil, fmt.Errorf("parse raw line: two paths for status %s in %q", h.status, line)
		}
		h.targetPath = newPath
	}
	return &h, nil
}

// ParseGitDiff parses complete `git diff --raw --patch --no-abbrev` output:
// a leading block of raw ":" lines followed by one "diff --git" section per
// file, in the same order. A count mismatch between raw lines and patch
// sections is a fatal parse error.
func ParseGitDiff(r *LineReader, from, to vcs.Hash, working bool) (*Diff, error) {
	var headers []*patchHeader
	line, ok := r.Next()
	for ok && line == "" {
		line, ok = r.Next()
	}
	for ok && strings.HasPrefix(line, ":") {
		h, err := parseRawLine(line)
		if err != nil {
			return nil, err
		}
		headers = append(headers, h)
		line, ok = r.Next()
	}
	for ok && line == "" {
		line, ok = r.Next()
	}

	patches := make([]*Patch, 0, len(headers))
	for ok && strings.HasPrefix(line, "diff --git ") {
		if len(patches) == len(headers) {
			return nil, fmt.Errorf("parse diff: more patch sections than raw lines")
		}
		p := headers[len(patches)].toPatch()
		if err := parsePatchBody(r, p); err != nil {
			return nil, err
		}
		patches = append(patches, p)
		line, ok = r.Next()
		for ok && line == "" {
			line, ok = r.Next()
		}
	}
	if ok {
		r.Push(line)
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("parse diff: %w", err)
	}
	if len(patches) != len(headers) {
		return nil, fmt.Errorf("parse diff: %d raw lines but %d patch sections", len(headers), len(patches))
	}
	return &Diff{From: from, To: to, Working: working, Patches: patches}, nil
}

// parsePatchBody fills in the hunk section for one "diff --git" file, whose
// header line has already been consumed.
func parsePatchBody(r *LineReader, p *Patch) error {
	// Peek past extended headers to see whether this is a binary patch.
	line, ok := r.Peek()
	for ok && isExtendedHeader(line) {
		r.Next()
		line, ok = r.Peek()
	}
	if !ok {
		return nil
	}
	switch {
	case line == "GIT binary patch":
		r.Next()
		hunks, err := parseBinaryHunks(r)
		if err != nil {
			return err
		}
		p.IsBinary = true
		p.BinaryHunks = hunks
		return nil
	case strings.HasPrefix(line, "Binary files "):
		r.Next()
		p.IsBinary = true
		return nil
	case strings.HasPrefix(line, "diff --git "), strings.HasPrefix(line, ":"):
		// No content change (pure rename, copy, or mode change).
		return nil
	}
	hunks, err := ParseUnifiedHunks(r)
	if err != nil {
		return err
	}
	p.Hunks = hunks
	return nil
}
