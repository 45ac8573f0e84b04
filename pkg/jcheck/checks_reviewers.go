package jcheck

import (
	"context"
	"slices"
	"strings"

	"github.com/revet-dev/revet/pkg/census"
)

// ReviewersCheck verifies that the commit carries enough credited reviewers
// per configured role, that every credited reviewer resolves in the census,
// and that authors do not review their own commits.
type ReviewersCheck struct{}

func (*ReviewersCheck) Name() string { return "reviewers" }
func (*ReviewersCheck) Description() string {
	return "Change must be reviewed by the required roles"
}

// roleRequirements pairs each census role with its configured count, in
// ascending rank order. Crediting walks this order so that a reviewer
// satisfies the least privileged requirement they qualify for.
func roleRequirements(conf ReviewersConf) []struct {
	Role     census.Role
	Required int
} {
	return []struct {
		Role     census.Role
		Required int
	}{
		{census.Contributor, conf.Contributors},
		{census.Author, conf.Authors},
		{census.Committer, conf.Committers},
		{census.Reviewer, conf.Reviewers},
		{census.Lead, conf.Lead},
	}
}

func (c *ReviewersCheck) Check(_ context.Context, t *Target) ([]Issue, error) {
	conf, err := t.Conf.ReviewersConfig()
	if err != nil {
		return nil, err
	}
	general, err := t.Conf.General()
	if err != nil {
		return nil, err
	}

	reviewers := make([]string, 0, len(t.Message.Reviewers))
	for _, r := range t.Message.Reviewers {
		if !slices.Contains(conf.Ignore, r) {
			reviewers = append(reviewers, r)
		}
	}

	var issues []Issue
	author := t.Commit.Author.Username()
	credited := make([]string, 0, len(reviewers))
	// Census usernames are case-insensitive, so the self-review comparison
	// must be too.
	for _, r := range reviewers {
		if strings.EqualFold(r, author) {
			issues = append(issues, &SelfReviewIssue{
				Metadata: metadata(c.Name(), t.Commit.Hash),
				Reviewer: r,
			})
			continue
		}
		credited = append(credited, r)
	}

	if t.Census == nil {
		return issues, nil
	}
	var invalid []string
	for _, r := range credited {
		if t.Census.RoleOf(r, general.Project) == census.Unknown {
			invalid = append(invalid, r)
		}
	}
	if len(invalid) > 0 {
		issues = append(issues, &InvalidReviewersIssue{
			Metadata: metadata(c.Name(), t.Commit.Hash),
			Invalid:  invalid,
			Project:  general.Project,
		})
		return issues, nil
	}

	if t.Message.IsBackport() && conf.Backports != "check" {
		return issues, nil
	}

	requirements := roleRequirements(conf)
	counts := make([]int, len(requirements))
	for _, r := range credited {
		rank := t.Census.RoleOf(r, general.Project)
		for i, req := range requirements {
			if counts[i] < req.Required && rank.AtLeast(req.Role) {
				counts[i]++
				break
			}
		}
	}
	for i := len(requirements) - 1; i >= 0; i-- {
		req := requirements[i]
		if counts[i] < req.Required {
			issues = append(issues, &TooFewReviewersIssue{
				Metadata:    metadata(c.Name(), t.Commit.Hash),
				NumActual:   counts[i],
				NumRequired: req.Required,
				Role:        req.Role,
			})
		}
	}
	return issues, nil
}
