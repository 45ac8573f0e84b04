package jcheck

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/revet-dev/revet/pkg/diff"
)

// WhitespaceCheck scans the added lines of textual patches for tabs,
// carriage returns and trailing whitespace. Only paths selected by the
// configured files pattern or suffix list are scanned; merge commits are
// out of scope.
type WhitespaceCheck struct{}

func (*WhitespaceCheck) Name() string        { return "whitespace" }
func (*WhitespaceCheck) Description() string { return "Change must not add bad whitespace" }

func (conf WhitespaceConf) matches(path string) (bool, error) {
	if conf.Files != "" {
		return regexp.MatchString(conf.Files, path)
	}
	for _, suffix := range conf.Suffixes {
		if strings.HasSuffix(path, suffix) {
			return true, nil
		}
	}
	return false, nil
}

func (c *WhitespaceCheck) Check(_ context.Context, t *Target) ([]Issue, error) {
	if t.Commit.IsMerge() || len(t.Commit.ParentDiffs) == 0 {
		return nil, nil
	}
	conf := t.Conf.WhitespaceConfig()
	var issues []Issue
	for _, patch := range t.Commit.ParentDiffs[0].Patches {
		if patch.IsBinary || patch.Status.IsDeleted() {
			continue
		}
		selected, err := conf.matches(patch.TargetPath)
		if err != nil {
			return nil, fmt.Errorf("whitespace check: files pattern: %w", err)
		}
		if !selected {
			continue
		}
		for _, hunk := range patch.Hunks {
			for i, line := range hunk.Target.Lines {
				errs := scanWhitespace(line)
				if len(errs) == 0 {
					continue
				}
				issues = append(issues, &WhitespaceIssue{
					Metadata: metadata(c.Name(), t.Commit.Hash),
					Path:     patch.TargetPath,
					Row:      hunk.Target.Range.Start - 1 + i,
					Line:     line,
					Errors:   errs,
				})
			}
		}
	}
	return issues, nil
}

// BinaryCheck rejects binary files in the change.
type BinaryCheck struct{}

func (*BinaryCheck) Name() string        { return "binary" }
func (*BinaryCheck) Description() string { return "Change must not contain binary files" }

func (c *BinaryCheck) Check(_ context.Context, t *Target) ([]Issue, error) {
	var issues []Issue
	for _, path := range changedPaths(t.Commit.ParentDiffs, func(p *diff.Patch) bool {
		return p.IsBinary
	}) {
		issues = append(issues, &BinaryIssue{
			Metadata: metadata(c.Name(), t.Commit.Hash),
			Path:     path,
		})
	}
	return issues, nil
}

// ExecutableCheck rejects files given the executable bit.
type ExecutableCheck struct{}

func (*ExecutableCheck) Name() string        { return "executable" }
func (*ExecutableCheck) Description() string { return "Change must not contain executable files" }

func (c *ExecutableCheck) Check(_ context.Context, t *Target) ([]Issue, error) {
	paths := changedPaths(t.Commit.ParentDiffs, func(p *diff.Patch) bool {
		return p.TargetFileType == diff.FileTypeExecutable
	})
	if len(paths) == 0 {
		return nil, nil
	}
	return []Issue{&ExecutableFilesIssue{
		Metadata: metadata(c.Name(), t.Commit.Hash),
		Paths:    paths,
	}}, nil
}

// SymlinkCheck rejects symbolic links in the change.
type SymlinkCheck struct{}

func (*SymlinkCheck) Name() string        { return "symlink" }
func (*SymlinkCheck) Description() string { return "Change must not contain symbolic links" }

func (c *SymlinkCheck) Check(_ context.Context, t *Target) ([]Issue, error) {
	var issues []Issue
	for _, path := range changedPaths(t.Commit.ParentDiffs, func(p *diff.Patch) bool {
		return p.TargetFileType == diff.FileTypeSymlink
	}) {
		issues = append(issues, &SymlinkIssue{
			Metadata: metadata(c.Name(), t.Commit.Hash),
			Path:     path,
		})
	}
	return issues, nil
}

// changedPaths collects, across every parent diff, the target paths of
// patches selected by keep, deduplicated and sorted.
func changedPaths(diffs []*diff.Diff, keep func(*diff.Patch) bool) []string {
	seen := make(map[string]bool)
	for _, d := range diffs {
		for _, p := range d.Patches {
			if p.Status.IsDeleted() || !keep(p) {
				continue
			}
			seen[p.TargetPath] = true
		}
	}
	paths := make([]string, 0, len(seen))
	for path := range seen {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}
