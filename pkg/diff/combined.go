package diff

import (
	"fmt"
	"strings"

	"github.com/revet-dev/revet/pkg/vcs"
)

// ParseCombinedDiff parses `git diff-tree --cc`-style combined output for a
// merge with numParents parents and returns one Diff per parent, in parent
// order, each with To set to head. The input is the block of "::" raw lines
// followed by the "diff --combined" sections.
//
// A misalignment between the raw lines and the parsed hunk sections is a
// fatal parse error; it indicates output from an incompatible tool version.
func ParseCombinedDiff(r *LineReader, numParents int, parents []vcs.Hash, head vcs.Hash) ([]*Diff, error) {
	if numParents < 2 {
		return nil, fmt.Errorf("parse combined diff: need at least 2 parents, have %d", numParents)
	}
	if len(parents) != numParents {
		return nil, fmt.Errorf("parse combined diff: %d parent hashes for %d parents", len(parents), numParents)
	}

	// (a) Raw "::" lines, one per file, carrying per-parent source type/hash
	// plus the shared target type/hash/status-vector/path.
	var order []string
	byPath := make(map[string][]*patchHeader)
	line, ok := r.Next()
	for ok && line == "" {
		line, ok = r.Next()
	}
	for ok && strings.HasPrefix(line, "::") {
		perParent, err := parseCombinedRawLine(line, numParents)
		if err != nil {
			return nil, err
		}
		path := perParent[0].targetPath
		if _, dup := byPath[path]; dup {
			return nil, fmt.Errorf("parse combined diff: duplicate raw line for %q", path)
		}
		order = append(order, path)
		byPath[path] = perParent
		line, ok = r.Next()
	}
	for ok && line == "" {
		line, ok = r.Next()
	}

	// (b)+(c) One "diff --combined" section per file with content changes.
	// Files renamed identically with no content change relative to every
	// parent produce raw lines but no section at all.
	hunksByPath := make(map[string][][]Hunk, len(order))
	for ok && strings.HasPrefix(line, "diff --combined ") {
		path := strings.TrimPrefix(line, "diff --combined ")
		perParent, found := byPath[path]
		if !found {
			return nil, fmt.Errorf("parse combined diff: hunk section for %q has no raw line", path)
		}
		if _, dup := hunksByPath[path]; dup {
			return nil, fmt.Errorf("parse combined diff: duplicate section for %q", path)
		}
		added := make([]bool, numParents)
		for i, h := range perParent {
			added[i] = h.status.IsAdded()
		}
		hunks, err := parseCombinedFile(r, numParents, added)
		if err != nil {
			return nil, err
		}
		hunksByPath[path] = hunks
		line, ok = r.Next()
		for ok && line == "" {
			line, ok = r.Next()
		}
	}
	if ok {
		r.Push(line)
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("parse combined diff: %w", err)
	}

	diffs := make([]*Diff, numParents)
	for i := range diffs {
		diffs[i] = &Diff{From: parents[i], To: head, Patches: make([]*Patch, 0, len(order))}
	}
	for _, path := range order {
		perParent := byPath[path]
		hunks, found := hunksByPath[path]
		if !found && !allRenamed(perParent) {
			return nil, fmt.Errorf("parse combined diff: no hunk section for %q", path)
		}
		for i := 0; i < numParents; i++ {
			p := perParent[i].toPatch()
			p.Hunks = []Hunk{}
			if found {
				p.Hunks = hunks[i]
			}
			diffs[i].Patches = append(diffs[i].Patches, p)
		}
	}
	return diffs, nil
}

// allRenamed reports whether every parent's status for a file is a rename;
// only then may the hunk section be legitimately absent.
func allRenamed(perParent []*patchHeader) bool {
	for _, h := range perParent {
		if !h.status.IsRenamed() {
			return false
		}
	}
	return true
}

// parseCombinedRawLine parses "::<mode1>..<modeN> <modeT> <hash1>..<hashN>
// <hashT> <statuses>\t<path>" into one patch header per parent.
func parseCombinedRawLine(line string, numParents int) ([]*patchHeader, error) {
	meta, path, found := strings.Cut(line[2:], "\t")
	if !found {
		return nil, fmt.Errorf("parse combined raw line: missing path in %q", line)
	}
	fields := strings.Fields(meta)
	// numParents source modes + target mode, the same again for hashes, and
	// the status vector.
	want := 2*(numParents+1) + 1
	if len(fields) != want {
		return nil, fmt.Errorf("parse combined raw line: want %d fields, have %d in %q", want, len(fields), line)
	}

	targetType, err := ParseFileType(fields[numParents])
	if err != nil {
		return nil, fmt.Errorf("parse combined raw line: %w", err)
	}
	targetHash, err := vcs.ParseHash(fields[2*numParents+1])
	if err != nil {
		return nil, fmt.Errorf("parse combined raw line: %w", err)
	}
	statuses := fields[2*(numParents+1)]
	if len(statuses) != numParents {
		return nil, fmt.Errorf("parse combined raw line: status vector %q for %d parents", statuses, numParents)
	}

	headers := make([]*patchHeader, numParents)
	for i := 0; i < numParents; i++ {
		sourceType, err := ParseFileType(fields[i])
		if err != nil {
			return nil, fmt.Errorf("parse combined raw line: %w", err)
		}
		sourceHash, err := vcs.ParseHash(fields[numParents+1+i])
		if err != nil {
			return nil, fmt.Errorf("parse combined raw line: %w", err)
		}
		status, err := ParseStatus(string(statuses[i]))
		if err != nil {
			return nil, fmt.Errorf("parse combined raw line: %w", err)
		}
		headers[i] = &patchHeader{
			sourcePath: path,
			sourceType: sourceType,
			sourceHash: sourceHash,
			targetPath: path,
			targetType: targetType,
			targetHash: targetHash,
			status:     status,
		}
	}
	return headers, nil
}

// parseCombinedFile parses one file's combined section after its
// "diff --combined" line: extended headers, file labels, then @@@ blocks.
// It returns numParents hunk slices, one per parent. added marks parents
// that never had the file.
func parseCombinedFile(r *LineReader, numParents int, added []bool) ([][]Hunk, error) {
	line, ok := r.Next()
	for ok && (isExtendedHeader(line) || strings.HasPrefix(line, "--- ")) {
		line, ok = r.Next()
	}
	if ok && strings.HasPrefix(line, "+++ ") {
		line, ok = r.Next()
	}

	hunks := make([][]Hunk, numParents)
	for i := range hunks {
		hunks[i] = []Hunk{}
	}
	for ok {
		if !strings.HasPrefix(line, "@@@ ") {
			r.Push(line)
			return hunks, nil
		}
		if err := parseCombinedHunk(r, line, numParents, added, hunks); err != nil {
			return nil, err
		}
		line, ok = r.Next()
	}
	return hunks, r.Err()
}

// parseCombinedHunkHeader parses "@@@ -r1 -r2 ... +rT @@@": one source range
// per parent plus the shared target range.
func parseCombinedHunkHeader(line string, numParents int) ([]Range, Range, error) {
	rest := strings.TrimPrefix(line, "@@@ ")
	end := strings.Index(rest, " @@@")
	if end == -1 {
		return nil, Range{}, fmt.Errorf("parse combined hunks: malformed hunk header %q", line)
	}
	fields := strings.Fields(rest[:end])
	if len(fields) != numParents+1 {
		return nil, Range{}, fmt.Errorf("parse combined hunks: want %d ranges in %q, have %d", numParents+1, line, len(fields))
	}

	sources := make([]Range, numParents)
	for i := 0; i < numParents; i++ {
		if !strings.HasPrefix(fields[i], "-") {
			return nil, Range{}, fmt.Errorf("parse combined hunks: malformed source range %q in %q", fields[i], line)
		}
		rng, err := ParseRange(fields[i][1:])
		if err != nil {
			return nil, Range{}, fmt.Errorf("parse combined hunks: %w", err)
		}
		sources[i] = rng
	}
	if !strings.HasPrefix(fields[numParents], "+") {
		return nil, Range{}, fmt.Errorf("parse combined hunks: malformed target range %q in %q", fields[numParents], line)
	}
	target, err := ParseRange(fields[numParents][1:])
	if err != nil {
		return nil, Range{}, fmt.Errorf("parse combined hunks: %w", err)
	}
	return sources, target, nil
}

// parseCombinedHunk parses one @@@ block and appends one hunk per parent.
//
// The first numParents characters of each body row are per-parent markers.
// For parent i: '-' means the row is in parent i's version and not the
// result (source side); '+' means in the result and not in parent i (target
// side); ' ' means parent i agrees with the result, so the row belongs to
// both of parent i's sides when it is a result row, and to neither when the
// row was removed (some other column holds '-').
//
// A parent that never had the file gets a forced (0,0) source range and no
// source lines, regardless of the range the tool reports.
func parseCombinedHunk(r *LineReader, header string, numParents int, added []bool, hunks [][]Hunk) error {
	sources, target, err := parseCombinedHunkHeader(header, numParents)
	if err != nil {
		return err
	}

	type side struct {
		lines   []string
		newline bool
	}
	srcs := make([]side, numParents)
	tgts := make([]side, numParents)
	for i := range srcs {
		srcs[i].newline = true
		tgts[i].newline = true
	}

	// last[i] tracks which of parent i's sides the previous row touched, so
	// the no-newline marker lands on the right line.
	last := make([]byte, numParents)

	for {
		line, ok := r.Next()
		if !ok {
			break
		}
		if line == noNewlineMarker {
			for i := 0; i < numParents; i++ {
				switch last[i] {
				case '-':
					srcs[i].newline = false
				case '+':
					tgts[i].newline = false
				case ' ':
					srcs[i].newline = false
					tgts[i].newline = false
				}
			}
			continue
		}
		if len(line) < numParents || !validCombinedMarks(line[:numParents]) {
			r.Push(line)
			break
		}
		marks := line[:numParents]
		content := line[numParents:]

		removed := strings.ContainsRune(marks, '-')
		for i := 0; i < numParents; i++ {
			last[i] = 0
			switch marks[i] {
			case '-':
				srcs[i].lines = append(srcs[i].lines, content)
				last[i] = '-'
			case '+':
				tgts[i].lines = append(tgts[i].lines, content)
				last[i] = '+'
			case ' ':
				if removed {
					// Parent i agrees with the result: neither has the row.
					continue
				}
				if !added[i] {
					srcs[i].lines = append(srcs[i].lines, content)
					last[i] = ' '
				} else {
					last[i] = '+'
				}
				tgts[i].lines = append(tgts[i].lines, content)
			}
		}
	}

	for i := 0; i < numParents; i++ {
		source := sources[i]
		if added[i] {
			source = Range{}
		}
		hunks[i] = append(hunks[i], Hunk{
			Source: HunkSide{Range: source, Lines: srcs[i].lines, HasTrailingNewline: srcs[i].newline},
			Target: HunkSide{Range: target, Lines: tgts[i].lines, HasTrailingNewline: tgts[i].newline},
		})
	}
	return nil
}

// validCombinedMarks accepts only the three per-parent sign characters and
// rejects rows that mix removals with additions.
func validCombinedMarks(marks string) bool {
	minus, plus := false, false
	for i := 0; i < len(marks); i++ {
		switch marks[i] {
		case '-':
			minus = true
		case '+':
			plus = true
		case ' ':
		default:
			return false
		}
	}
	return !(minus && plus)
}
