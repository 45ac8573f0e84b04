package repo

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/revet-dev/revet/pkg/diff"
	"github.com/revet-dev/revet/pkg/vcs"
)

// Hg reads a mercurial repository by invoking the hg binary. Diffs are
// requested in git format so the same unified parser serves both tools.
type Hg struct {
	dir     string
	timeout time.Duration
}

// NewHg opens the mercurial repository rooted at dir.
func NewHg(dir string) *Hg {
	return &Hg{dir: dir, timeout: defaultToolTimeout}
}

func (h *Hg) run(ctx context.Context, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "hg", append([]string{"--config", "ui.color=never"}, args...)...)
	cmd.Dir = h.dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("hg %s: %w: %s", args[0], err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

func (h *Hg) Show(ctx context.Context, path string, rev vcs.Hash) ([]byte, bool, error) {
	data, err := h.run(ctx, "cat", "-r", string(rev), path)
	if err != nil {
		if strings.Contains(err.Error(), "no such file") {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

func (h *Hg) Lines(ctx context.Context, path string, rev vcs.Hash) ([]string, bool, error) {
	data, ok, err := h.Show(ctx, path, rev)
	if err != nil || !ok {
		return nil, ok, err
	}
	return SplitLines(data), true, nil
}

func (h *Hg) Files(ctx context.Context, rev vcs.Hash, prefixes ...string) ([]FileEntry, error) {
	out, err := h.run(ctx, "files", "-r", string(rev))
	if err != nil {
		return nil, err
	}
	var entries []FileEntry
	for _, path := range SplitLines(out) {
		if len(prefixes) > 0 && !hasAnyPrefix(path, prefixes) {
			continue
		}
		// hg does not expose per-file blob hashes the way git does; the
		// checks key off path and type only for mercurial trees.
		entries = append(entries, FileEntry{Path: path, Type: diff.FileTypeRegular, Hash: vcs.ZeroHash})
	}
	return entries, nil
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func (h *Hg) Diff(ctx context.Context, base, head vcs.Hash) (*diff.Diff, error) {
	out, err := h.run(ctx, "diff", "--git", "-r", string(base), "-r", string(head))
	if err != nil {
		return nil, err
	}
	return diff.ParseUnifiedDiff(diff.NewLineReader(bytes.NewReader(out)), base, head, false)
}

func (h *Hg) Branches(ctx context.Context) ([]string, error) {
	out, err := h.run(ctx, "branches", "--template", "{branch}\n")
	if err != nil {
		return nil, err
	}
	return SplitLines(out), nil
}

func (h *Hg) Tags(ctx context.Context) ([]string, error) {
	out, err := h.run(ctx, "tags", "--template", "{tag}\n")
	if err != nil {
		return nil, err
	}
	return SplitLines(out), nil
}

func (h *Hg) MergeBase(ctx context.Context, a, b vcs.Hash) (vcs.Hash, error) {
	out, err := h.run(ctx, "log", "-r", fmt.Sprintf("ancestor(%s, %s)", a, b), "--template", "{node}")
	if err != nil {
		return "", err
	}
	return vcs.ParseHash(strings.TrimSpace(string(out)))
}

func (h *Hg) IsAncestor(ctx context.Context, ancestor, descendant vcs.Hash) (bool, error) {
	out, err := h.run(ctx, "log", "-r", fmt.Sprintf("%s and ancestors(%s)", ancestor, descendant), "--template", "{node}")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(string(out)) != "", nil
}

// hg metadata template: one field per line, with a sentinel line between
// records. The sentinel cannot collide with field content; hashes and dates
// never contain it and desc lines are taken verbatim until it appears.
const (
	hgRecordSeparator = "#<revet-record>#"
	hgLogTemplate     = `{node}\n{p1.node}\n{p2.node}\n{author|person}\n{author|email}\n{date|rfc3339date}\n{desc}\n` + hgRecordSeparator + `\n`
)

func (h *Hg) metadataFromRecord(record string) (*vcs.CommitMetadata, error) {
	lines := strings.Split(record, "\n")
	if len(lines) < 7 {
		return nil, fmt.Errorf("hg log: truncated record %q", record)
	}
	hash, err := vcs.ParseHash(lines[0])
	if err != nil {
		return nil, fmt.Errorf("hg log: %w", err)
	}
	parents := []vcs.Hash{}
	for _, p := range lines[1:3] {
		parent, err := vcs.ParseHash(p)
		if err != nil {
			return nil, fmt.Errorf("hg log: %w", err)
		}
		if !parent.IsZero() {
			parents = append(parents, parent)
		}
	}
	if len(parents) == 0 {
		parents = []vcs.Hash{vcs.ZeroHash}
	}
	date, err := time.Parse(time.RFC3339, lines[5])
	if err != nil {
		return nil, fmt.Errorf("hg log: date: %w", err)
	}
	author := vcs.Author{Name: lines[3], Email: lines[4]}
	return &vcs.CommitMetadata{
		Hash:          hash,
		Parents:       parents,
		Author:        author,
		Committer:     author, // mercurial records a single identity
		AuthoredDate:  date,
		CommittedDate: date,
		Message:       trimTrailingBlank(lines[6:]),
	}, nil
}

func (h *Hg) commit(ctx context.Context, meta *vcs.CommitMetadata) (*Commit, error) {
	c := &Commit{CommitMetadata: *meta}
	for _, parent := range meta.Parents {
		base := parent
		if base.IsZero() {
			base = "null"
		}
		d, err := h.Diff(ctx, base, meta.Hash)
		if err != nil {
			return nil, err
		}
		d.From = parent
		c.ParentDiffs = append(c.ParentDiffs, d)
	}
	return c, nil
}

// hgCommitIter iterates records already read from one hg log invocation.
type hgCommitIter struct {
	h       *Hg
	ctx     context.Context
	pending []*vcs.CommitMetadata
	closed  bool
}

// Commits resolves rangeExpr as an hg revset and streams its commits.
func (h *Hg) Commits(ctx context.Context, rangeExpr string) (CommitIter, error) {
	out, err := h.run(ctx, "log", "-r", rangeExpr, "--template", hgLogTemplate)
	if err != nil {
		return nil, err
	}
	var pending []*vcs.CommitMetadata
	var record []string
	for _, line := range strings.Split(string(out), "\n") {
		if line != hgRecordSeparator {
			record = append(record, line)
			continue
		}
		meta, err := h.metadataFromRecord(strings.Join(record, "\n"))
		if err != nil {
			return nil, err
		}
		pending = append(pending, meta)
		record = nil
	}
	return &hgCommitIter{h: h, ctx: ctx, pending: pending}, nil
}

func (it *hgCommitIter) Next() (*Commit, error) {
	if it.closed {
		return nil, fmt.Errorf("hg log: iterator closed")
	}
	if len(it.pending) == 0 {
		return nil, nil
	}
	meta := it.pending[0]
	it.pending = it.pending[1:]
	return it.h.commit(it.ctx, meta)
}

func (it *hgCommitIter) Close() error {
	it.closed = true
	it.pending = nil
	return nil
}

var _ ReadOnly = (*Hg)(nil)
