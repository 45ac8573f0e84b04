// Package repo defines the read-only repository capability consumed by the
// check engine, and provides three implementations: an exec-backed git
// reader, an exec-backed mercurial reader, and a pure-Go go-git reader.
package repo

import (
	"context"
	"strings"

	"github.com/revet-dev/revet/pkg/diff"
	"github.com/revet-dev/revet/pkg/vcs"
)

// Commit is one commit's metadata together with its diff against each
// parent, in parent order.
type Commit struct {
	vcs.CommitMetadata
	ParentDiffs []*diff.Diff
}

// FileEntry is one tree entry at a revision.
type FileEntry struct {
	Path string
	Type diff.FileType
	Hash vcs.Hash
}

// CommitIter is a lazy, closable stream of commits. Close terminates any
// still-running child process and awaits its exit; dropping an iterator
// without closing it leaks the subprocess handle.
type CommitIter interface {
	// Next returns the next commit in range order, or (nil, nil) at the end
	// of the range.
	Next() (*Commit, error)
	Close() error
}

// ReadOnly is the narrow repository surface the check engine depends on.
// Implementations must be safe for concurrent readers.
type ReadOnly interface {
	// Show returns the raw content of path at rev; ok is false when the
	// file does not exist at that revision.
	Show(ctx context.Context, path string, rev vcs.Hash) (data []byte, ok bool, err error)
	// Lines is Show decoded as UTF-8 and split into lines.
	Lines(ctx context.Context, path string, rev vcs.Hash) (lines []string, ok bool, err error)
	// Files lists tree entries at rev whose paths start with any of the
	// given prefixes (all files when none are given).
	Files(ctx context.Context, rev vcs.Hash, prefixes ...string) ([]FileEntry, error)
	// Diff computes the diff from base to head.
	Diff(ctx context.Context, base, head vcs.Hash) (*diff.Diff, error)
	// Commits streams the commits selected by the VCS range expression.
	Commits(ctx context.Context, rangeExpr string) (CommitIter, error)
	Branches(ctx context.Context) ([]string, error)
	Tags(ctx context.Context) ([]string, error)
	MergeBase(ctx context.Context, a, b vcs.Hash) (vcs.Hash, error)
	IsAncestor(ctx context.Context, ancestor, descendant vcs.Hash) (bool, error)
}

// SplitLines decodes file content into lines the way every implementation's
// Lines must: UTF-8 text split on '\n', with a trailing newline producing no
// empty final element.
func SplitLines(data []byte) []string {
	text := strings.TrimSuffix(string(data), "\n")
	if text == "" {
		return []string{}
	}
	return strings.Split(text, "\n")
}
