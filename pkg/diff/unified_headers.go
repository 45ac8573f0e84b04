package diff

import (
	"fmt"
	"strings"

	"github.com/revet-dev/revet/pkg/vcs"
)

// ParseUnifiedDiff parses git-style unified diff output that has no leading
// raw lines, deriving each patch's metadata from its "diff --git" line and
// extended headers. This is the shape `hg diff --git` emits, and what git
// produces without --raw.
func ParseUnifiedDiff(r *LineReader, from, to vcs.Hash, working bool) (*Diff, error) {
	d := &Diff{From: from, To: to, Working: working, Patches: []*Patch{}}
	line, ok := r.Next()
	for ok && line == "" {
		line, ok = r.Next()
	}
	for ok {
		if !strings.HasPrefix(line, "diff --git ") {
			r.Push(line)
			break
		}
		p, err := parseHeaderDerivedPatch(r, line)
		if err != nil {
			return nil, err
		}
		d.Patches = append(d.Patches, p)
		line, ok = r.Next()
		for ok && line == "" {
			line, ok = r.Next()
		}
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("parse diff: %w", err)
	}
	return d, nil
}

// parseHeaderDerivedPatch consumes one file section whose "diff --git" line
// is given, reconstructing status, paths, types and hashes from the extended
// headers.
func parseHeaderDerivedPatch(r *LineReader, diffLine string) (*Patch, error) {
	sourcePath, targetPath, err := parseDiffGitLine(diffLine)
	if err != nil {
		return nil, err
	}

	p := &Patch{
		SourcePath: sourcePath,
		TargetPath: targetPath,
		SourceHash: vcs.ZeroHash,
		TargetHash: vcs.ZeroHash,
		Status:     StatusModified(),
	}
	p.SourceFileType = FileTypeRegular
	p.TargetFileType = FileTypeRegular

	for {
		line, ok := r.Peek()
		if !ok || !isExtendedHeader(line) {
			break
		}
		r.Next()
		if err := applyExtendedHeader(p, line); err != nil {
			return nil, err
		}
	}

	switch {
	case p.Status.IsAdded():
		p.SourcePath = ""
		p.SourceFileType = FileTypeNone
	case p.Status.IsDeleted():
		p.TargetPath = ""
		p.TargetFileType = FileTypeNone
	}

	line, ok := r.Peek()
	if !ok {
		p.Hunks = []Hunk{}
		return p, nil
	}
	switch {
	case strings.HasPrefix(line, "GIT binary patch"):
		r.Next()
		hunks, err := parseBinaryHunks(r)
		if err != nil {
			return nil, err
		}
		p.IsBinary = true
		p.BinaryHunks = hunks
	case strings.HasPrefix(line, "Binary file ") || strings.HasPrefix(line, "Binary files "):
		r.Next()
		p.IsBinary = true
	case strings.HasPrefix(line, "--- ") || strings.HasPrefix(line, "+++ ") || strings.HasPrefix(line, "@@ "):
		hunks, err := ParseUnifiedHunks(r)
		if err != nil {
			return nil, err
		}
		p.Hunks = hunks
	default:
		// No content section: pure rename, copy, or mode change.
		p.Hunks = []Hunk{}
	}
	return p, nil
}

// parseDiffGitLine splits `diff --git a/<old> b/<new>`.
func parseDiffGitLine(line string) (string, string, error) {
	rest := strings.TrimPrefix(line, "diff --git ")
	oldPart, newPart, found := strings.Cut(rest, " b/")
	if !found || !strings.HasPrefix(oldPart, "a/") {
		return "", "", fmt.Errorf("parse diff: malformed diff line %q", line)
	}
	return strings.TrimPrefix(oldPart, "a/"), newPart, nil
}

func applyExtendedHeader(p *Patch, line string) error {
	value := func(prefix string) string { return strings.TrimPrefix(line, prefix) }
	switch {
	case strings.HasPrefix(line, "new file mode "):
		p.Status = StatusAdded()
		ft, err := ParseFileType(value("new file mode "))
		if err != nil {
			return fmt.Errorf("parse diff: %w", err)
		}
		p.TargetFileType = ft
	case strings.HasPrefix(line, "deleted file mode "):
		p.Status = StatusDeleted()
		ft, err := ParseFileType(value("deleted file mode "))
		if err != nil {
			return fmt.Errorf("parse diff: %w", err)
		}
		p.SourceFileType = ft
	case strings.HasPrefix(line, "old mode "):
		ft, err := ParseFileType(value("old mode "))
		if err != nil {
			return fmt.Errorf("parse diff: %w", err)
		}
		p.SourceFileType = ft
	case strings.HasPrefix(line, "new mode "):
		ft, err := ParseFileType(value("new mode "))
		if err != nil {
			return fmt.Errorf("parse diff: %w", err)
		}
		p.TargetFileType = ft
	case strings.HasPrefix(line, "rename from "):
		p.SourcePath = value("rename from ")
	case strings.HasPrefix(line, "rename to "):
		p.TargetPath = value("rename to ")
		p.Status = StatusRenamed(p.Status.Score())
	case strings.HasPrefix(line, "copy from "):
		p.SourcePath = value("copy from ")
	case strings.HasPrefix(line, "copy to "):
		p.TargetPath = value("copy to ")
		p.Status = StatusCopied(p.Status.Score())
	case strings.HasPrefix(line, "similarity index "):
		score := strings.TrimSuffix(value("similarity index "), "%")
		n := 0
		for i := 0; i < len(score); i++ {
			if score[i] < '0' || score[i] > '9' {
				return fmt.Errorf("parse diff: bad similarity index %q", line)
			}
			n = n*10 + int(score[i]-'0')
		}
		if p.Status.IsCopied() {
			p.Status = StatusCopied(n)
		} else {
			p.Status = StatusRenamed(n)
		}
	case strings.HasPrefix(line, "index "):
		if err := applyIndexHeader(p, value("index ")); err != nil {
			return err
		}
	}
	return nil
}

// applyIndexHeader parses "index <old>..<new>[ <mode>]". Abbreviated hashes
// are ignored; only full 40-digit forms are recorded.
func applyIndexHeader(p *Patch, value string) error {
	hashes, _, _ := strings.Cut(value, " ")
	oldPart, newPart, found := strings.Cut(hashes, "..")
	if !found {
		return nil
	}
	if h, err := vcs.ParseHash(oldPart); err == nil {
		p.SourceHash = h
	}
	if h, err := vcs.ParseHash(newPart); err == nil {
		p.TargetHash = h
	}
	return nil
}
