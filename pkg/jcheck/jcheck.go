package jcheck

import (
	"context"
	"fmt"
	"regexp"

	"github.com/revet-dev/revet/pkg/census"
	"github.com/revet-dev/revet/pkg/repo"
	"github.com/revet-dev/revet/pkg/vcs"
)

// Options configures a check run.
type Options struct {
	Repo   repo.ReadOnly
	Census *census.Census
	// OverrideConf, when set, replaces the per-commit configuration for
	// every commit in the range.
	OverrideConf *Configuration
	// CheckRefs also validates tag and branch names against the
	// [repository] patterns.
	CheckRefs bool
}

// CommitResult is the issues found on one commit, in check order.
type CommitResult struct {
	Commit *repo.Commit
	Issues []Issue
}

// Results is the outcome of a run over a commit range.
type Results struct {
	Commits []CommitResult
	// Refs holds tag and branch name issues, which are not tied to any
	// single commit.
	Refs []Issue
}

// HasErrors reports whether any issue carries error severity. A run with
// only warnings passes.
func (r *Results) HasErrors() bool {
	for _, cr := range r.Commits {
		for _, issue := range cr.Issues {
			if issue.Common().Severity == SeverityError {
				return true
			}
		}
	}
	for _, issue := range r.Refs {
		if issue.Common().Severity == SeverityError {
			return true
		}
	}
	return false
}

// Run checks every commit selected by rangeExpr. The configuration is
// re-resolved from each commit's own tree, so a commit is judged by the
// policy it shipped with; commits predating the configuration file are
// skipped. Runs are deterministic: checking the same range twice yields the
// same issues in the same order.
func Run(ctx context.Context, opts Options, rangeExpr string) (*Results, error) {
	if opts.Repo == nil {
		return nil, fmt.Errorf("run checks: no repository")
	}
	iter, err := opts.Repo.Commits(ctx, rangeExpr)
	if err != nil {
		return nil, fmt.Errorf("run checks: %w", err)
	}
	defer iter.Close()

	results := &Results{}
	var lastConf *Configuration
	for {
		commit, err := iter.Next()
		if err != nil {
			return nil, fmt.Errorf("run checks: %w", err)
		}
		if commit == nil {
			break
		}
		conf, err := resolveConf(ctx, opts, commit.Hash)
		if err != nil {
			return nil, err
		}
		if conf == nil {
			continue
		}
		lastConf = conf
		issues, err := CheckCommit(ctx, opts, conf, commit)
		if err != nil {
			return nil, err
		}
		results.Commits = append(results.Commits, CommitResult{Commit: commit, Issues: issues})
	}

	if opts.CheckRefs && lastConf != nil {
		refs, err := checkRefs(ctx, opts.Repo, lastConf)
		if err != nil {
			return nil, err
		}
		results.Refs = refs
	}
	return results, nil
}

// resolveConf returns the configuration governing commit, or nil when the
// commit predates the configuration file and no override is in force.
func resolveConf(ctx context.Context, opts Options, commit vcs.Hash) (*Configuration, error) {
	if opts.OverrideConf != nil {
		return opts.OverrideConf, nil
	}
	lines, ok, err := opts.Repo.Lines(ctx, confPath, commit)
	if err != nil {
		return nil, fmt.Errorf("resolve configuration for %s: %w", commit.Abbreviate(), err)
	}
	if !ok {
		return nil, nil
	}
	conf, err := ParseConfiguration(lines)
	if err != nil {
		return nil, fmt.Errorf("resolve configuration for %s: %w", commit.Abbreviate(), err)
	}
	return conf, nil
}

// CheckCommit runs every configured check against one commit and returns
// the issues, with severity assigned from the [checks] section.
func CheckCommit(ctx context.Context, opts Options, conf *Configuration, commit *repo.Commit) ([]Issue, error) {
	general, err := conf.General()
	if err != nil {
		return nil, err
	}
	parser, err := vcs.ParserForVersion(general.Version)
	if err != nil {
		return nil, fmt.Errorf("check %s: %w", commit.Hash.Abbreviate(), err)
	}
	target := &Target{
		Commit:  commit,
		Message: parser.Parse(commit.Message),
		Conf:    conf,
		Census:  opts.Census,
		Repo:    opts.Repo,
	}

	checks := conf.Checks()
	var issues []Issue
	for _, group := range []struct {
		names    []string
		severity Severity
	}{
		{checks.Error, SeverityError},
		{checks.Warning, SeverityWarning},
	} {
		for _, name := range group.names {
			check, err := NewCheck(name)
			if err != nil {
				return nil, fmt.Errorf("check %s: %w", commit.Hash.Abbreviate(), err)
			}
			found, err := check.Check(ctx, target)
			if err != nil {
				return nil, fmt.Errorf("check %s: %s: %w", commit.Hash.Abbreviate(), name, err)
			}
			for _, issue := range found {
				issue.Common().Severity = group.severity
			}
			issues = append(issues, found...)
		}
	}
	return issues, nil
}

// checkRefs validates tag and branch names against the [repository]
// patterns. An empty pattern allows everything.
func checkRefs(ctx context.Context, r repo.ReadOnly, conf *Configuration) ([]Issue, error) {
	repoConf := conf.Repository()
	var issues []Issue
	if repoConf.Tags != "" {
		pattern, err := regexp.Compile(repoConf.Tags)
		if err != nil {
			return nil, fmt.Errorf("check refs: tags pattern: %w", err)
		}
		tags, err := r.Tags(ctx)
		if err != nil {
			return nil, fmt.Errorf("check refs: %w", err)
		}
		for _, tag := range tags {
			if !pattern.MatchString(tag) {
				issues = append(issues, &TagIssue{
					Metadata: Metadata{Check: "tags", Severity: SeverityError},
					Tag:      tag,
					Pattern:  repoConf.Tags,
				})
			}
		}
	}
	if repoConf.Branches != "" {
		pattern, err := regexp.Compile(repoConf.Branches)
		if err != nil {
			return nil, fmt.Errorf("check refs: branches pattern: %w", err)
		}
		branches, err := r.Branches(ctx)
		if err != nil {
			return nil, fmt.Errorf("check refs: %w", err)
		}
		for _, branch := range branches {
			if !pattern.MatchString(branch) {
				issues = append(issues, &BranchIssue{
					Metadata: Metadata{Check: "branches", Severity: SeverityError},
					Branch:   branch,
					Pattern:  repoConf.Branches,
				})
			}
		}
	}
	return issues, nil
}
