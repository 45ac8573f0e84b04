package jcheck

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/revet-dev/revet/pkg/census"
	"github.com/revet-dev/revet/pkg/repo"
	"github.com/revet-dev/revet/pkg/vcs"
)

// Target bundles everything a check may inspect for one commit: the parsed
// commit with its per-parent diffs, the parsed message, the resolved
// configuration and the census. Repo gives checks that need historical file
// content read access to the repository.
type Target struct {
	Commit  *repo.Commit
	Message *vcs.Message
	Conf    *Configuration
	Census  *census.Census
	Repo    repo.ReadOnly
}

// Check is a single commit policy. Check returns the violations it found;
// an error return means the check itself could not run, which is distinct
// from a clean result.
type Check interface {
	Name() string
	Description() string
	Check(ctx context.Context, t *Target) ([]Issue, error)
}

// checkConstructors is the closed registry of known checks. Configuration
// naming a check outside this set is a fatal error.
var checkConstructors = map[string]func() Check{
	"author":            func() Check { return &AuthorCheck{} },
	"committer":         func() Check { return &CommitterCheck{} },
	"reviewers":         func() Check { return &ReviewersCheck{} },
	"whitespace":        func() Check { return &WhitespaceCheck{} },
	"message":           func() Check { return &MessageCheck{} },
	"messagewhitespace": func() Check { return &MessageWhitespaceCheck{} },
	"issues":            func() Check { return &IssuesCheck{} },
	"merge":             func() Check { return &MergeCheck{} },
	"hgtag":             func() Check { return &HgTagCommitCheck{} },
	"blacklist":         func() Check { return &BlacklistCheck{} },
	"binary":            func() Check { return &BinaryCheck{} },
	"executable":        func() Check { return &ExecutableCheck{} },
	"symlink":           func() Check { return &SymlinkCheck{} },
	"problemlists":      func() Check { return &ProblemListsCheck{} },
	"copyright":         func() Check { return &CopyrightFormatCheck{} },
	"jcheckconf":        func() Check { return &JCheckConfCheck{} },
}

// NewCheck instantiates a registered check by name.
func NewCheck(name string) (Check, error) {
	ctor, found := checkConstructors[name]
	if !found {
		return nil, fmt.Errorf("unknown check %q", name)
	}
	return ctor(), nil
}

// CheckNames lists every registered check, sorted.
func CheckNames() []string {
	names := make([]string, 0, len(checkConstructors))
	for name := range checkConstructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func metadata(check string, commit vcs.Hash) Metadata {
	return Metadata{Check: check, Commit: commit, Severity: SeverityError}
}

// scanWhitespace finds tabs, carriage returns and trailing whitespace on a
// single line. Columns are 0-based.
func scanWhitespace(line string) []WhitespaceError {
	var errs []WhitespaceError
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '\t':
			errs = append(errs, WhitespaceError{Column: i, Kind: WhitespaceTab})
		case '\r':
			errs = append(errs, WhitespaceError{Column: i, Kind: WhitespaceCR})
		}
	}
	trimmed := strings.TrimRight(line, " \t")
	if len(trimmed) < len(line) {
		errs = append(errs, WhitespaceError{Column: len(trimmed), Kind: WhitespaceTrailing})
	}
	return errs
}
