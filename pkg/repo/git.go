package repo

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/revet-dev/revet/pkg/diff"
	"github.com/revet-dev/revet/pkg/vcs"
)

// defaultToolTimeout bounds every child-process invocation. A tool that has
// not finished by then is forcibly terminated and the error surfaced.
const defaultToolTimeout = 30 * time.Second

// emptyTreeHash is git's well-known empty tree, diffed against for root
// commits.
const emptyTreeHash = "4b825dc642cb6eb9a060e54bf8d69288fbee4904"

// Git reads a repository by invoking the git binary and parsing its output.
type Git struct {
	dir     string
	timeout time.Duration
}

// NewGit opens the git repository rooted at dir.
func NewGit(dir string) *Git {
	return &Git{dir: dir, timeout: defaultToolTimeout}
}

// WithTimeout returns a reader whose child processes are bounded by d.
func (g *Git) WithTimeout(d time.Duration) *Git {
	return &Git{dir: g.dir, timeout: d}
}

// run executes git with args and returns its stdout. On a non-zero exit the
// drained stderr is folded into the error.
func (g *Git) run(ctx context.Context, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git %s: %w: %s", args[0], err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

func (g *Git) Show(ctx context.Context, path string, rev vcs.Hash) ([]byte, bool, error) {
	data, err := g.run(ctx, "cat-file", "blob", fmt.Sprintf("%s:%s", rev, path))
	if err != nil {
		// A missing path is an expected outcome, not an I/O failure.
		if strings.Contains(err.Error(), "does not exist") ||
			strings.Contains(err.Error(), "Not a valid object name") ||
			strings.Contains(err.Error(), "Invalid object name") {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

func (g *Git) Lines(ctx context.Context, path string, rev vcs.Hash) ([]string, bool, error) {
	data, ok, err := g.Show(ctx, path, rev)
	if err != nil || !ok {
		return nil, ok, err
	}
	return SplitLines(data), true, nil
}

func (g *Git) Files(ctx context.Context, rev vcs.Hash, prefixes ...string) ([]FileEntry, error) {
	args := append([]string{"ls-tree", "-r", "--full-tree", string(rev), "--"}, prefixes...)
	out, err := g.run(ctx, args...)
	if err != nil {
		return nil, err
	}
	var entries []FileEntry
	for _, line := range SplitLines(out) {
		// "<mode> <type> <hash>\t<path>"
		meta, path, found := strings.Cut(line, "\t")
		if !found {
			return nil, fmt.Errorf("git ls-tree: malformed line %q", line)
		}
		fields := strings.Fields(meta)
		if len(fields) != 3 {
			return nil, fmt.Errorf("git ls-tree: malformed line %q", line)
		}
		ft, err := diff.ParseFileType(fields[0])
		if err != nil {
			return nil, fmt.Errorf("git ls-tree: %w", err)
		}
		hash, err := vcs.ParseHash(fields[2])
		if err != nil {
			return nil, fmt.Errorf("git ls-tree: %w", err)
		}
		entries = append(entries, FileEntry{Path: path, Type: ft, Hash: hash})
	}
	return entries, nil
}

func (g *Git) Diff(ctx context.Context, base, head vcs.Hash) (*diff.Diff, error) {
	from := string(base)
	if base.IsZero() {
		from = emptyTreeHash
	}
	out, err := g.run(ctx, "diff", "--raw", "--patch", "--no-abbrev", "--no-color",
		"--find-renames=90%", "--find-copies=90%", from, string(head))
	if err != nil {
		return nil, err
	}
	return diff.ParseGitDiff(diff.NewLineReader(bytes.NewReader(out)), base, head, false)
}

func (g *Git) Branches(ctx context.Context) ([]string, error) {
	out, err := g.run(ctx, "for-each-ref", "--format=%(refname:short)", "refs/heads")
	if err != nil {
		return nil, err
	}
	return SplitLines(out), nil
}

func (g *Git) Tags(ctx context.Context) ([]string, error) {
	out, err := g.run(ctx, "for-each-ref", "--format=%(refname:short)", "refs/tags")
	if err != nil {
		return nil, err
	}
	return SplitLines(out), nil
}

func (g *Git) MergeBase(ctx context.Context, a, b vcs.Hash) (vcs.Hash, error) {
	out, err := g.run(ctx, "merge-base", string(a), string(b))
	if err != nil {
		return "", err
	}
	return vcs.ParseHash(strings.TrimSpace(string(out)))
}

func (g *Git) IsAncestor(ctx context.Context, ancestor, descendant vcs.Hash) (bool, error) {
	ctxRun, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	cmd := exec.CommandContext(ctxRun, "git", "merge-base", "--is-ancestor", string(ancestor), string(descendant))
	cmd.Dir = g.dir
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return false, nil
		}
		return false, fmt.Errorf("git merge-base --is-ancestor: %w", err)
	}
	return true, nil
}

// metadata reads one commit's header fields and message lines.
func (g *Git) metadata(ctx context.Context, hash vcs.Hash) (*vcs.CommitMetadata, error) {
	out, err := g.run(ctx, "show", "--quiet", "--no-color",
		"--format=%H%n%P%n%an%n%ae%n%cn%n%ce%n%aI%n%cI%n%B", string(hash))
	if err != nil {
		return nil, err
	}
	return metadataFromShow(SplitLines(out))
}

// metadataFromShow parses the fixed-field --format output of git show: hash,
// parents, author name/email, committer name/email, two RFC 3339 dates, then
// the raw message body.
func metadataFromShow(lines []string) (*vcs.CommitMetadata, error) {
	if len(lines) < 8 {
		return nil, fmt.Errorf("git show: truncated metadata (%d lines)", len(lines))
	}
	h, err := vcs.ParseHash(lines[0])
	if err != nil {
		return nil, fmt.Errorf("git show: %w", err)
	}
	var parents []vcs.Hash
	for _, p := range strings.Fields(lines[1]) {
		parent, err := vcs.ParseHash(p)
		if err != nil {
			return nil, fmt.Errorf("git show: %w", err)
		}
		parents = append(parents, parent)
	}
	if len(parents) == 0 {
		parents = []vcs.Hash{vcs.ZeroHash}
	}
	authored, err := time.Parse(time.RFC3339, lines[6])
	if err != nil {
		return nil, fmt.Errorf("git show: authored date: %w", err)
	}
	committed, err := time.Parse(time.RFC3339, lines[7])
	if err != nil {
		return nil, fmt.Errorf("git show: committed date: %w", err)
	}
	return &vcs.CommitMetadata{
		Hash:          h,
		Parents:       parents,
		Author:        vcs.Author{Name: lines[2], Email: lines[3]},
		Committer:     vcs.Author{Name: lines[4], Email: lines[5]},
		AuthoredDate:  authored,
		CommittedDate: committed,
		Message:       trimTrailingBlank(lines[8:]),
	}, nil
}

func trimTrailingBlank(lines []string) []string {
	end := len(lines)
	for end > 0 && lines[end-1] == "" {
		end--
	}
	return lines[:end]
}

// commit assembles metadata plus one diff per parent.
func (g *Git) commit(ctx context.Context, hash vcs.Hash) (*Commit, error) {
	meta, err := g.metadata(ctx, hash)
	if err != nil {
		return nil, err
	}
	c := &Commit{CommitMetadata: *meta}
	if meta.IsMerge() {
		out, err := g.run(ctx, "diff-tree", "-c", "--raw", "--patch", "--no-abbrev",
			"--no-color", "--find-renames=90%", "-r", string(hash))
		if err != nil {
			return nil, err
		}
		lines := SplitLines(out)
		// diff-tree echoes the commit hash on its first line.
		if len(lines) > 0 && !strings.HasPrefix(lines[0], "::") {
			lines = lines[1:]
		}
		diffs, err := diff.ParseCombinedDiff(diff.NewLineReaderOf(lines), len(meta.Parents), meta.Parents, hash)
		if err != nil {
			return nil, err
		}
		c.ParentDiffs = diffs
		return c, nil
	}
	parent := meta.Parents[0]
	d, err := g.Diff(ctx, parent, hash)
	if err != nil {
		return nil, err
	}
	c.ParentDiffs = []*diff.Diff{d}
	return c, nil
}

// gitCommitIter streams `git rev-list` output, resolving each hash into a
// full Commit on demand.
type gitCommitIter struct {
	g      *Git
	ctx    context.Context
	cancel context.CancelFunc
	cmd    *exec.Cmd
	lines  *bufio.Scanner
	stderr *bytes.Buffer
	closed bool
}

// Commits streams the commits reachable per rangeExpr, oldest first. The
// returned iterator owns a child process; callers must Close it.
func (g *Git) Commits(ctx context.Context, rangeExpr string) (CommitIter, error) {
	ctx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(ctx, "git", "rev-list", "--reverse", "--topo-order", rangeExpr)
	cmd.Dir = g.dir
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("git rev-list: %w", err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("git rev-list: %w", err)
	}
	sc := bufio.NewScanner(stdout)
	return &gitCommitIter{g: g, ctx: ctx, cancel: cancel, cmd: cmd, lines: sc, stderr: &stderr}, nil
}

func (it *gitCommitIter) Next() (*Commit, error) {
	if it.closed {
		return nil, fmt.Errorf("git rev-list: iterator closed")
	}
	if !it.lines.Scan() {
		if err := it.lines.Err(); err != nil {
			return nil, fmt.Errorf("git rev-list: %w", err)
		}
		if err := it.waitProcess(); err != nil {
			return nil, err
		}
		return nil, nil
	}
	hash, err := vcs.ParseHash(strings.TrimSpace(it.lines.Text()))
	if err != nil {
		return nil, fmt.Errorf("git rev-list: %w", err)
	}
	return it.g.commit(it.ctx, hash)
}

// waitProcess reaps the rev-list process after its output is exhausted.
func (it *gitCommitIter) waitProcess() error {
	if it.cmd == nil {
		return nil
	}
	cmd := it.cmd
	it.cmd = nil
	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("git rev-list: %w: %s", err, strings.TrimSpace(it.stderr.String()))
	}
	return nil
}

// Close terminates any still-running rev-list process and awaits its exit.
func (it *gitCommitIter) Close() error {
	if it.closed {
		return nil
	}
	it.closed = true
	it.cancel()
	if it.cmd != nil {
		err := it.cmd.Wait()
		it.cmd = nil
		// Killed-by-cancel is the expected shutdown path.
		if err != nil && it.ctx.Err() == nil {
			return fmt.Errorf("git rev-list: %w", err)
		}
	}
	return nil
}

// interface conformance
var _ ReadOnly = (*Git)(nil)
