package jcheck

import (
	"context"
	"fmt"
	"regexp"
)

// MessageCheck flags free-form lines the message format does not account
// for: anything the parser had to file under Additional.
type MessageCheck struct{}

func (*MessageCheck) Name() string        { return "message" }
func (*MessageCheck) Description() string { return "Commit message must follow the expected format" }

func (c *MessageCheck) Check(_ context.Context, t *Target) ([]Issue, error) {
	var issues []Issue
	for _, line := range t.Message.Additional {
		issues = append(issues, &MessageIssue{
			Metadata: metadata(c.Name(), t.Commit.Hash),
			Line:     line,
		})
	}
	return issues, nil
}

// MessageWhitespaceCheck scans the raw message lines for tabs, carriage
// returns and trailing whitespace.
type MessageWhitespaceCheck struct{}

func (*MessageWhitespaceCheck) Name() string { return "messagewhitespace" }
func (*MessageWhitespaceCheck) Description() string {
	return "Commit message must not contain bad whitespace"
}

func (c *MessageWhitespaceCheck) Check(_ context.Context, t *Target) ([]Issue, error) {
	var issues []Issue
	for row, line := range t.Commit.Message {
		errs := scanWhitespace(line)
		if len(errs) == 0 {
			continue
		}
		issues = append(issues, &MessageWhitespaceIssue{
			Metadata: metadata(c.Name(), t.Commit.Hash),
			Row:      row,
			Errors:   errs,
		})
	}
	return issues, nil
}

// IssuesCheck requires that the message references at least one issue, and
// that every referenced id matches the configured pattern when one is set.
type IssuesCheck struct{}

func (*IssuesCheck) Name() string        { return "issues" }
func (*IssuesCheck) Description() string { return "Commit message must reference an issue" }

func (c *IssuesCheck) Check(_ context.Context, t *Target) ([]Issue, error) {
	conf := t.Conf.IssuesConfig()
	if len(t.Message.Issues) == 0 {
		return []Issue{&IssuesIssue{Metadata: metadata(c.Name(), t.Commit.Hash)}}, nil
	}
	if conf.Pattern == "" {
		return nil, nil
	}
	pattern, err := regexp.Compile(conf.Pattern)
	if err != nil {
		return nil, fmt.Errorf("issues check: pattern: %w", err)
	}
	var issues []Issue
	for _, ref := range t.Message.Issues {
		if !pattern.MatchString(ref.Shorthand()) {
			issues = append(issues, &IssuesIssue{Metadata: metadata(c.Name(), t.Commit.Hash)})
			break
		}
	}
	return issues, nil
}

// MergeCheck requires merge commit titles to match the configured pattern.
// Non-merge commits are out of scope.
type MergeCheck struct{}

func (*MergeCheck) Name() string        { return "merge" }
func (*MergeCheck) Description() string { return "Merge commits must use the expected message" }

func (c *MergeCheck) Check(_ context.Context, t *Target) ([]Issue, error) {
	if !t.Commit.IsMerge() {
		return nil, nil
	}
	conf := t.Conf.MergeConfig()
	pattern, err := regexp.Compile(conf.Message)
	if err != nil {
		return nil, fmt.Errorf("merge check: message pattern: %w", err)
	}
	if pattern.MatchString(t.Message.Title) {
		return nil, nil
	}
	return []Issue{&MergeMessageIssue{
		Metadata: metadata(c.Name(), t.Commit.Hash),
		Expected: conf.Message,
	}}, nil
}
