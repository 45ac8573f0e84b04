package jcheck

import (
	"github.com/revet-dev/revet/pkg/census"
	"github.com/revet-dev/revet/pkg/vcs"
)

// Severity classifies an issue per the [checks] configuration: checks listed
// under error produce Error issues, checks under warning produce Warning
// issues. Any Error issue fails the run.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// Metadata is the part every issue carries: which check produced it, on
// which commit, at which severity.
type Metadata struct {
	Check    string
	Commit   vcs.Hash
	Severity Severity
}

func (m *Metadata) Common() *Metadata { return m }

// Issue is a single policy violation. The set of concrete types is closed;
// consumers dispatch with a type switch (see Describe).
type Issue interface {
	Common() *Metadata
	isIssue()
}

// WhitespaceKind classifies a single bad character position.
type WhitespaceKind int

const (
	WhitespaceTab WhitespaceKind = iota
	WhitespaceCR
	WhitespaceTrailing
)

func (k WhitespaceKind) String() string {
	switch k {
	case WhitespaceTab:
		return "tab"
	case WhitespaceCR:
		return "carriage return"
	default:
		return "trailing whitespace"
	}
}

// WhitespaceError is one offending position on a line. Column is 0-based;
// for trailing whitespace it is the first column of the trailing run.
type WhitespaceError struct {
	Column int
	Kind   WhitespaceKind
}

// WhitespaceIssue reports bad whitespace on one line of one changed file.
type WhitespaceIssue struct {
	Metadata
	Path   string
	Row    int // 0-based line number within the file
	Line   string
	Errors []WhitespaceError
}

// TooFewReviewersIssue reports an unmet per-role reviewer requirement.
type TooFewReviewersIssue struct {
	Metadata
	NumActual   int
	NumRequired int
	Role        census.Role
}

// InvalidReviewersIssue reports credited reviewers that do not resolve to
// any role in the census project.
type InvalidReviewersIssue struct {
	Metadata
	Invalid []string
	Project string
}

// SelfReviewIssue reports a commit credited as reviewed by its own author.
type SelfReviewIssue struct {
	Metadata
	Reviewer string
}

// MessageIssue reports free-form message content that the message format
// does not allow.
type MessageIssue struct {
	Metadata
	Line string
}

// MessageWhitespaceIssue reports bad whitespace inside the commit message.
type MessageWhitespaceIssue struct {
	Metadata
	Row    int
	Errors []WhitespaceError
}

// IssuesIssue reports a commit that references no issue in its message.
type IssuesIssue struct {
	Metadata
}

// MergeMessageIssue reports a merge commit whose title does not match the
// configured pattern.
type MergeMessageIssue struct {
	Metadata
	Expected string
}

// HgTagCommitError enumerates the ways a .hgtags tag commit can be
// malformed, in decreasing precedence.
type HgTagCommitError int

const (
	HgTagTooManyChanges HgTagCommitError = iota
	HgTagTooManyLines
	HgTagBadFormat
	HgTagDiffers
)

func (e HgTagCommitError) String() string {
	switch e {
	case HgTagTooManyChanges:
		return "TOO_MANY_CHANGES"
	case HgTagTooManyLines:
		return "TOO_MANY_LINES"
	case HgTagBadFormat:
		return "BAD_FORMAT"
	default:
		return "TAG_DIFFERS"
	}
}

// HgTagCommitIssue reports a malformed .hgtags tag commit. Only the highest
// precedence error is reported.
type HgTagCommitIssue struct {
	Metadata
	Error HgTagCommitError
	Tag   string
}

// BlacklistIssue reports a commit explicitly banned by configuration.
type BlacklistIssue struct {
	Metadata
}

// TagIssue reports a tag name that does not match the allowed pattern.
type TagIssue struct {
	Metadata
	Tag     string
	Pattern string
}

// BranchIssue reports a branch name that does not match the allowed pattern.
type BranchIssue struct {
	Metadata
	Branch  string
	Pattern string
}

// BinaryIssue reports a binary file in the change.
type BinaryIssue struct {
	Metadata
	Path string
}

// ExecutableFilesIssue reports files given the executable bit.
type ExecutableFilesIssue struct {
	Metadata
	Paths []string
}

// SymlinkIssue reports a symbolic link in the change.
type SymlinkIssue struct {
	Metadata
	Path string
}

// ProblemListsIssue reports an issue that the commit claims to fix while it
// is still problem-listed.
type ProblemListsIssue struct {
	Metadata
	IssueID string
	Files   []string
}

// CopyrightFormatIssue aggregates copyright header problems across the
// commit, grouped per configured holder.
type CopyrightFormatIssue struct {
	Metadata
	FilesWithFormatIssue  map[string][]string // holder key -> paths
	FilesWithMissingIssue map[string][]string
}

// JCheckConfIssue reports a syntax violation in the commit's own
// configuration file. Message carries the exact validator text.
type JCheckConfIssue struct {
	Metadata
	Message string
}

// AuthorNameIssue reports a commit with an empty author name.
type AuthorNameIssue struct {
	Metadata
}

// AuthorEmailIssue reports a commit with an empty author email.
type AuthorEmailIssue struct {
	Metadata
}

// CommitterNameIssue reports a commit with an empty committer name.
type CommitterNameIssue struct {
	Metadata
}

// CommitterEmailIssue reports a commit with an empty committer email.
type CommitterEmailIssue struct {
	Metadata
}

// CommitterIssue reports a committer who does not hold the required role in
// the census project.
type CommitterIssue struct {
	Metadata
	Committer string
	Project   string
	Role      census.Role // role required, not held
}

func (*WhitespaceIssue) isIssue()        {}
func (*TooFewReviewersIssue) isIssue()   {}
func (*InvalidReviewersIssue) isIssue()  {}
func (*SelfReviewIssue) isIssue()        {}
func (*MessageIssue) isIssue()           {}
func (*MessageWhitespaceIssue) isIssue() {}
func (*IssuesIssue) isIssue()            {}
func (*MergeMessageIssue) isIssue()      {}
func (*HgTagCommitIssue) isIssue()       {}
func (*BlacklistIssue) isIssue()         {}
func (*TagIssue) isIssue()               {}
func (*BranchIssue) isIssue()            {}
func (*BinaryIssue) isIssue()            {}
func (*ExecutableFilesIssue) isIssue()   {}
func (*SymlinkIssue) isIssue()           {}
func (*ProblemListsIssue) isIssue()      {}
func (*CopyrightFormatIssue) isIssue()   {}
func (*JCheckConfIssue) isIssue()        {}
func (*AuthorNameIssue) isIssue()        {}
func (*AuthorEmailIssue) isIssue()       {}
func (*CommitterNameIssue) isIssue()     {}
func (*CommitterEmailIssue) isIssue()    {}
func (*CommitterIssue) isIssue()         {}
