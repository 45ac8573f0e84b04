package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"

	"github.com/revet-dev/revet/pkg/diff"
	"github.com/revet-dev/revet/pkg/vcs"
)

// GoGit reads a git repository in pure Go, for hosts without a git binary.
// It renders go-git's patch output and feeds it through the same unified
// parser as the exec-backed reader, so both produce identical models.
type GoGit struct {
	repo *gogit.Repository
}

// OpenGoGit opens the repository at dir, working directory or bare.
func OpenGoGit(dir string) (*GoGit, error) {
	r, err := gogit.PlainOpen(dir)
	if err != nil {
		return nil, fmt.Errorf("open repository %s: %w", dir, err)
	}
	return &GoGit{repo: r}, nil
}

func (g *GoGit) commitObject(rev vcs.Hash) (*object.Commit, error) {
	return g.repo.CommitObject(plumbing.NewHash(string(rev)))
}

func (g *GoGit) Show(ctx context.Context, path string, rev vcs.Hash) ([]byte, bool, error) {
	c, err := g.commitObject(rev)
	if err != nil {
		return nil, false, fmt.Errorf("show %s at %s: %w", path, rev, err)
	}
	f, err := c.File(path)
	if err != nil {
		if errors.Is(err, object.ErrFileNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("show %s at %s: %w", path, rev, err)
	}
	contents, err := f.Contents()
	if err != nil {
		return nil, false, fmt.Errorf("show %s at %s: %w", path, rev, err)
	}
	return []byte(contents), true, nil
}

func (g *GoGit) Lines(ctx context.Context, path string, rev vcs.Hash) ([]string, bool, error) {
	data, ok, err := g.Show(ctx, path, rev)
	if err != nil || !ok {
		return nil, ok, err
	}
	return SplitLines(data), true, nil
}

func fileTypeOf(mode filemode.FileMode) diff.FileType {
	switch mode {
	case filemode.Dir:
		return diff.FileTypeDirectory
	case filemode.Executable:
		return diff.FileTypeExecutable
	case filemode.Symlink:
		return diff.FileTypeSymlink
	case filemode.Submodule:
		return diff.FileTypeVCSLink
	}
	return diff.FileTypeRegular
}

func (g *GoGit) Files(ctx context.Context, rev vcs.Hash, prefixes ...string) ([]FileEntry, error) {
	c, err := g.commitObject(rev)
	if err != nil {
		return nil, fmt.Errorf("files at %s: %w", rev, err)
	}
	tree, err := c.Tree()
	if err != nil {
		return nil, fmt.Errorf("files at %s: %w", rev, err)
	}
	var entries []FileEntry
	err = tree.Files().ForEach(func(f *object.File) error {
		if len(prefixes) > 0 && !hasAnyPrefix(f.Name, prefixes) {
			return nil
		}
		hash, err := vcs.ParseHash(f.Hash.String())
		if err != nil {
			return err
		}
		entries = append(entries, FileEntry{Path: f.Name, Type: fileTypeOf(f.Mode), Hash: hash})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("files at %s: %w", rev, err)
	}
	return entries, nil
}

func (g *GoGit) Diff(ctx context.Context, base, head vcs.Hash) (*diff.Diff, error) {
	headCommit, err := g.commitObject(head)
	if err != nil {
		return nil, fmt.Errorf("diff %s..%s: %w", base, head, err)
	}
	headTree, err := headCommit.Tree()
	if err != nil {
		return nil, fmt.Errorf("diff %s..%s: %w", base, head, err)
	}

	var baseTree *object.Tree
	if !base.IsZero() {
		baseCommit, err := g.commitObject(base)
		if err != nil {
			return nil, fmt.Errorf("diff %s..%s: %w", base, head, err)
		}
		if baseTree, err = baseCommit.Tree(); err != nil {
			return nil, fmt.Errorf("diff %s..%s: %w", base, head, err)
		}
	} else {
		baseTree = &object.Tree{}
	}

	changes, err := object.DiffTreeWithOptions(ctx, baseTree, headTree, object.DefaultDiffTreeOptions)
	if err != nil {
		return nil, fmt.Errorf("diff %s..%s: %w", base, head, err)
	}
	patch, err := changes.PatchContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("diff %s..%s: %w", base, head, err)
	}
	d, err := diff.ParseUnifiedDiff(diff.NewLineReaderOf(SplitLines([]byte(patch.String()))), base, head, false)
	if err != nil {
		return nil, fmt.Errorf("diff %s..%s: %w", base, head, err)
	}
	return d, nil
}

func (g *GoGit) refNames(iter storer.ReferenceIter) ([]string, error) {
	var names []string
	err := iter.ForEach(func(ref *plumbing.Reference) error {
		names = append(names, ref.Name().Short())
		return nil
	})
	return names, err
}

func (g *GoGit) Branches(ctx context.Context) ([]string, error) {
	iter, err := g.repo.Branches()
	if err != nil {
		return nil, fmt.Errorf("branches: %w", err)
	}
	return g.refNames(iter)
}

func (g *GoGit) Tags(ctx context.Context) ([]string, error) {
	iter, err := g.repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("tags: %w", err)
	}
	return g.refNames(iter)
}

func (g *GoGit) MergeBase(ctx context.Context, a, b vcs.Hash) (vcs.Hash, error) {
	ca, err := g.commitObject(a)
	if err != nil {
		return "", fmt.Errorf("merge base: %w", err)
	}
	cb, err := g.commitObject(b)
	if err != nil {
		return "", fmt.Errorf("merge base: %w", err)
	}
	bases, err := ca.MergeBase(cb)
	if err != nil {
		return "", fmt.Errorf("merge base: %w", err)
	}
	if len(bases) == 0 {
		return "", fmt.Errorf("merge base: no common ancestor of %s and %s", a, b)
	}
	return vcs.ParseHash(bases[0].Hash.String())
}

func (g *GoGit) IsAncestor(ctx context.Context, ancestor, descendant vcs.Hash) (bool, error) {
	anc, err := g.commitObject(ancestor)
	if err != nil {
		return false, fmt.Errorf("is ancestor: %w", err)
	}
	desc, err := g.commitObject(descendant)
	if err != nil {
		return false, fmt.Errorf("is ancestor: %w", err)
	}
	return anc.IsAncestor(desc)
}

func (g *GoGit) metadata(c *object.Commit) (*vcs.CommitMetadata, error) {
	hash, err := vcs.ParseHash(c.Hash.String())
	if err != nil {
		return nil, err
	}
	var parents []vcs.Hash
	for _, p := range c.ParentHashes {
		parent, err := vcs.ParseHash(p.String())
		if err != nil {
			return nil, err
		}
		parents = append(parents, parent)
	}
	if len(parents) == 0 {
		parents = []vcs.Hash{vcs.ZeroHash}
	}
	return &vcs.CommitMetadata{
		Hash:          hash,
		Parents:       parents,
		Author:        vcs.Author{Name: c.Author.Name, Email: c.Author.Email},
		Committer:     vcs.Author{Name: c.Committer.Name, Email: c.Committer.Email},
		AuthoredDate:  c.Author.When,
		CommittedDate: c.Committer.When,
		Message:       trimTrailingBlank(strings.Split(strings.TrimSuffix(c.Message, "\n"), "\n")),
	}, nil
}

func (g *GoGit) commit(ctx context.Context, c *object.Commit) (*Commit, error) {
	meta, err := g.metadata(c)
	if err != nil {
		return nil, err
	}
	out := &Commit{CommitMetadata: *meta}
	for _, parent := range meta.Parents {
		base := parent
		if base == vcs.ZeroHash {
			base = ""
		}
		d, err := g.Diff(ctx, base, meta.Hash)
		if err != nil {
			return nil, err
		}
		d.From = parent
		out.ParentDiffs = append(out.ParentDiffs, d)
	}
	return out, nil
}

// resolve turns a revision expression piece into a commit hash.
func (g *GoGit) resolve(expr string) (vcs.Hash, error) {
	h, err := g.repo.ResolveRevision(plumbing.Revision(expr))
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", expr, err)
	}
	return vcs.ParseHash(h.String())
}

// goGitCommitIter iterates a pre-resolved, range-ordered hash list.
type goGitCommitIter struct {
	g      *GoGit
	ctx    context.Context
	hashes []vcs.Hash
	closed bool
}

// Commits supports "<from>..<to>" (commits reachable from to but not from,
// oldest first) and a single revision (that commit only).
func (g *GoGit) Commits(ctx context.Context, rangeExpr string) (CommitIter, error) {
	fromExpr, toExpr, isRange := strings.Cut(rangeExpr, "..")
	if !isRange {
		hash, err := g.resolve(rangeExpr)
		if err != nil {
			return nil, err
		}
		return &goGitCommitIter{g: g, ctx: ctx, hashes: []vcs.Hash{hash}}, nil
	}

	from, err := g.resolve(fromExpr)
	if err != nil {
		return nil, err
	}
	to, err := g.resolve(toExpr)
	if err != nil {
		return nil, err
	}

	iter, err := g.repo.Log(&gogit.LogOptions{From: plumbing.NewHash(string(to))})
	if err != nil {
		return nil, fmt.Errorf("log %s: %w", rangeExpr, err)
	}
	defer iter.Close()

	var hashes []vcs.Hash
	err = iter.ForEach(func(c *object.Commit) error {
		hash, err := vcs.ParseHash(c.Hash.String())
		if err != nil {
			return err
		}
		if hash == from {
			return storer.ErrStop
		}
		hashes = append(hashes, hash)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("log %s: %w", rangeExpr, err)
	}
	// Oldest first, matching the exec reader's rev-list --reverse.
	for i, j := 0, len(hashes)-1; i < j; i, j = i+1, j-1 {
		hashes[i], hashes[j] = hashes[j], hashes[i]
	}
	return &goGitCommitIter{g: g, ctx: ctx, hashes: hashes}, nil
}

func (it *goGitCommitIter) Next() (*Commit, error) {
	if it.closed {
		return nil, fmt.Errorf("commit iterator closed")
	}
	if len(it.hashes) == 0 {
		return nil, nil
	}
	hash := it.hashes[0]
	it.hashes = it.hashes[1:]
	c, err := it.g.commitObject(hash)
	if err != nil {
		return nil, fmt.Errorf("commit %s: %w", hash, err)
	}
	return it.g.commit(it.ctx, c)
}

func (it *goGitCommitIter) Close() error {
	it.closed = true
	it.hashes = nil
	return nil
}

var _ ReadOnly = (*GoGit)(nil)
