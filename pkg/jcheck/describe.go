package jcheck

import (
	"fmt"
	"sort"
	"strings"
)

// Describe renders an issue as a one-line human readable message. The type
// switch is exhaustive over the closed issue set; a new issue type without a
// description here is a bug.
func Describe(issue Issue) string {
	switch i := issue.(type) {
	case *WhitespaceIssue:
		kinds := make([]string, len(i.Errors))
		for n, e := range i.Errors {
			kinds[n] = fmt.Sprintf("%s at column %d", e.Kind, e.Column)
		}
		return fmt.Sprintf("%s:%d: %s", i.Path, i.Row+1, strings.Join(kinds, ", "))
	case *TooFewReviewersIssue:
		return fmt.Sprintf("too few reviewers with role %s found (have %d, need at least %d)",
			i.Role, i.NumActual, i.NumRequired)
	case *InvalidReviewersIssue:
		return fmt.Sprintf("invalid reviewers: %s (not found in project %s)",
			strings.Join(i.Invalid, ", "), i.Project)
	case *SelfReviewIssue:
		return fmt.Sprintf("author %s cannot review own change", i.Reviewer)
	case *MessageIssue:
		return fmt.Sprintf("unexpected line in commit message: %q", i.Line)
	case *MessageWhitespaceIssue:
		kinds := make([]string, len(i.Errors))
		for n, e := range i.Errors {
			kinds[n] = fmt.Sprintf("%s at column %d", e.Kind, e.Column)
		}
		return fmt.Sprintf("commit message line %d: %s", i.Row+1, strings.Join(kinds, ", "))
	case *IssuesIssue:
		return "commit message does not reference any issue"
	case *MergeMessageIssue:
		return fmt.Sprintf("merge commit message must match %q", i.Expected)
	case *HgTagCommitIssue:
		switch i.Error {
		case HgTagTooManyChanges:
			return "tag commit must only modify .hgtags, in a single hunk"
		case HgTagTooManyLines:
			return "tag commit must add exactly one line to .hgtags"
		case HgTagBadFormat:
			return "tag commit is not well formed"
		default:
			return fmt.Sprintf("tag in commit message differs from tag %s in .hgtags", i.Tag)
		}
	case *BlacklistIssue:
		return "commit is blacklisted"
	case *TagIssue:
		return fmt.Sprintf("tag %s does not match allowed pattern %q", i.Tag, i.Pattern)
	case *BranchIssue:
		return fmt.Sprintf("branch %s does not match allowed pattern %q", i.Branch, i.Pattern)
	case *BinaryIssue:
		return fmt.Sprintf("binary file not allowed: %s", i.Path)
	case *ExecutableFilesIssue:
		return fmt.Sprintf("executable files not allowed: %s", strings.Join(i.Paths, ", "))
	case *SymlinkIssue:
		return fmt.Sprintf("symbolic link not allowed: %s", i.Path)
	case *ProblemListsIssue:
		return fmt.Sprintf("issue %s is problem listed in %s", i.IssueID, strings.Join(i.Files, ", "))
	case *CopyrightFormatIssue:
		var parts []string
		for _, holder := range sortedKeys(i.FilesWithFormatIssue) {
			parts = append(parts, fmt.Sprintf("%s copyright malformed in %s",
				holder, strings.Join(i.FilesWithFormatIssue[holder], ", ")))
		}
		for _, holder := range sortedKeys(i.FilesWithMissingIssue) {
			parts = append(parts, fmt.Sprintf("%s copyright missing from %s",
				holder, strings.Join(i.FilesWithMissingIssue[holder], ", ")))
		}
		return strings.Join(parts, "; ")
	case *JCheckConfIssue:
		return i.Message
	case *AuthorNameIssue:
		return "author has no name"
	case *AuthorEmailIssue:
		return "author has no email"
	case *CommitterNameIssue:
		return "committer has no name"
	case *CommitterEmailIssue:
		return "committer has no email"
	case *CommitterIssue:
		return fmt.Sprintf("committer %s is not a %s in project %s", i.Committer, i.Role, i.Project)
	}
	return fmt.Sprintf("unknown issue from check %s", issue.Common().Check)
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
