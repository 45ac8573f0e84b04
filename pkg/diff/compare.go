package diff

import (
	"crypto/sha1"
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/revet-dev/revet/pkg/vcs"
)

// Copyright-churn pattern: a removed and an added line that differ only in
// the year range of the standard Oracle copyright header.
var copyrightLine = regexp.MustCompile(
	`^.*Copyright \(c\) (\d{4})(, \d{4})?,? Oracle and/or its affiliates\. All rights reserved\.$`)

// Comparator implements structural and fuzzy equality over diffs, used to
// decide whether a rebase or backport changed anything of substance.
type Comparator struct {
	// IgnoreCopyrightFormat skips hunks that are pure copyright-header year
	// churn when comparing.
	IgnoreCopyrightFormat bool
}

// isCopyrightChurn reports whether the hunk replaces exactly one copyright
// header line with another.
func isCopyrightChurn(h Hunk) bool {
	return len(h.Source.Lines) == 1 && len(h.Target.Lines) == 1 &&
		copyrightLine.MatchString(h.Source.Lines[0]) &&
		copyrightLine.MatchString(h.Target.Lines[0])
}

func (c Comparator) relevantHunks(p *Patch) []Hunk {
	if !c.IgnoreCopyrightFormat {
		return p.Hunks
	}
	var out []Hunk
	for _, h := range p.Hunks {
		if !isCopyrightChurn(h) {
			out = append(out, h)
		}
	}
	return out
}

// AreFuzzyEqual reports whether two diffs are equivalent modulo patch
// ordering: the patches must cover the same canonical headers and every
// paired patch's hunks must carry identical source and target line content.
func (c Comparator) AreFuzzyEqual(a, b *Diff) bool {
	index := func(d *Diff) map[string]*Patch {
		m := make(map[string]*Patch, len(d.Patches))
		for _, p := range d.Patches {
			m[RenderPatchHeader(p)] = p
		}
		return m
	}
	am, bm := index(a), index(b)
	if len(am) != len(bm) {
		return false
	}
	for key, ap := range am {
		bp, found := bm[key]
		if !found {
			return false
		}
		if ap.IsBinary != bp.IsBinary {
			return false
		}
		ah, bh := c.relevantHunks(ap), c.relevantHunks(bp)
		if len(ah) != len(bh) {
			return false
		}
		for i := range ah {
			if !sameLines(ah[i].Source.Lines, bh[i].Source.Lines) ||
				!sameLines(ah[i].Target.Lines, bh[i].Target.Lines) {
				return false
			}
		}
	}
	return true
}

func sameLines(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Diff computes a diff between two diffs: each side's target-line content is
// materialized into a scratch content-addressed form per path and the two
// renditions are re-diffed, so differences are detected independent of the
// surrounding context each diff happened to carry. The result is used to
// detect non-trivial merge resolutions.
func (c Comparator) Diff(a, b *Diff) *Diff {
	am := materialize(a)
	bm := materialize(b)

	paths := make([]string, 0, len(am)+len(bm))
	seen := make(map[string]bool)
	for _, p := range a.Patches {
		if !seen[p.Path()] {
			seen[p.Path()] = true
			paths = append(paths, p.Path())
		}
	}
	for _, p := range b.Patches {
		if !seen[p.Path()] {
			seen[p.Path()] = true
			paths = append(paths, p.Path())
		}
	}

	result := &Diff{From: a.To, To: b.To}
	for _, path := range paths {
		ac, inA := am[path]
		bc, inB := bm[path]
		if inA && inB && ac == bc {
			continue
		}
		p := &Patch{
			SourceFileType: FileTypeRegular,
			TargetFileType: FileTypeRegular,
			SourceHash:     contentHash(ac),
			TargetHash:     contentHash(bc),
			Hunks:          diffLines(ac, bc),
		}
		switch {
		case !inA:
			p.Status = StatusAdded()
			p.TargetPath = path
			p.SourceFileType = FileTypeNone
			p.SourceHash = vcs.ZeroHash
		case !inB:
			p.Status = StatusDeleted()
			p.SourcePath = path
			p.TargetFileType = FileTypeNone
			p.TargetHash = vcs.ZeroHash
		default:
			p.Status = StatusModified()
			p.SourcePath = path
			p.TargetPath = path
		}
		result.Patches = append(result.Patches, p)
	}
	return result
}

// materialize concatenates each textual patch's target-side hunk lines per
// path, the content-addressed scratch rendition compared by Diff.
func materialize(d *Diff) map[string]string {
	m := make(map[string]string, len(d.Patches))
	for _, p := range d.Patches {
		if p.IsBinary {
			continue
		}
		var b strings.Builder
		for _, h := range p.Hunks {
			for _, l := range h.Target.Lines {
				b.WriteString(l)
				b.WriteByte('\n')
			}
		}
		m[p.Path()] = b.String()
	}
	return m
}

func contentHash(content string) vcs.Hash {
	sum := sha1.Sum([]byte(content))
	return vcs.Hash(hex.EncodeToString(sum[:]))
}

// diffLines computes context-free hunks between two line renditions.
func diffLines(a, b string) []Hunk {
	dmp := diffmatchpatch.New()
	ca, cb, lines := dmp.DiffLinesToChars(a, b)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(ca, cb, false), lines)

	var hunks []Hunk
	acc := newHunkAccumulator(Range{Start: 1}, Range{Start: 1})
	for _, d := range diffs {
		for _, line := range splitLines(d.Text) {
			switch d.Type {
			case diffmatchpatch.DiffEqual:
				acc.context(&hunks)
			case diffmatchpatch.DiffDelete:
				acc.source(line)
			case diffmatchpatch.DiffInsert:
				acc.target(line)
			}
		}
	}
	acc.flush(&hunks)
	return hunks
}

func splitLines(text string) []string {
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return []string{""}
	}
	return strings.Split(text, "\n")
}
