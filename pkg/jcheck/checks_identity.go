package jcheck

import (
	"context"

	"github.com/revet-dev/revet/pkg/census"
)

// AuthorCheck verifies the commit author identity is well formed.
type AuthorCheck struct{}

func (*AuthorCheck) Name() string        { return "author" }
func (*AuthorCheck) Description() string { return "Author must have a name and an email" }

func (c *AuthorCheck) Check(_ context.Context, t *Target) ([]Issue, error) {
	var issues []Issue
	if t.Commit.Author.Name == "" {
		issues = append(issues, &AuthorNameIssue{Metadata: metadata(c.Name(), t.Commit.Hash)})
	}
	if t.Commit.Author.Email == "" {
		issues = append(issues, &AuthorEmailIssue{Metadata: metadata(c.Name(), t.Commit.Hash)})
	}
	return issues, nil
}

// CommitterCheck verifies the committer identity is well formed and, when a
// census is available, that the committer holds at least the committer role
// in the configured project. Merge commits are exempt from the role gate, as
// are commits whose author is a project contributor pushing through a
// sponsor.
type CommitterCheck struct{}

func (*CommitterCheck) Name() string { return "committer" }
func (*CommitterCheck) Description() string {
	return "Committer must be a registered committer in the project"
}

func (c *CommitterCheck) Check(_ context.Context, t *Target) ([]Issue, error) {
	var issues []Issue
	committer := t.Commit.Committer
	if committer.Name == "" {
		issues = append(issues, &CommitterNameIssue{Metadata: metadata(c.Name(), t.Commit.Hash)})
	}
	if committer.Email == "" {
		issues = append(issues, &CommitterEmailIssue{Metadata: metadata(c.Name(), t.Commit.Hash)})
		return issues, nil
	}
	if t.Census == nil {
		return issues, nil
	}
	general, err := t.Conf.General()
	if err != nil {
		return nil, err
	}
	if general.Project == "" {
		return issues, nil
	}
	if t.Commit.IsMerge() {
		return issues, nil
	}
	if t.Census.RoleOf(t.Commit.Author.Username(), general.Project).AtLeast(census.Contributor) {
		return issues, nil
	}
	username := committer.Username()
	if !t.Census.RoleOf(username, general.Project).AtLeast(census.Committer) {
		issues = append(issues, &CommitterIssue{
			Metadata:  metadata(c.Name(), t.Commit.Hash),
			Committer: username,
			Project:   general.Project,
			Role:      census.Committer,
		})
	}
	return issues, nil
}
