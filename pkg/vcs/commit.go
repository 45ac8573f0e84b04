package vcs

import "time"

// CommitMetadata is the parsed header of one commit: identity, parent list,
// author/committer identities and dates, and the raw message lines.
type CommitMetadata struct {
	Hash          Hash
	Parents       []Hash
	Author        Author
	Committer     Author
	AuthoredDate  time.Time
	CommittedDate time.Time
	Message       []string
}

// IsInitialCommit reports whether this is the root commit, encoded as a
// single all-zero parent.
func (m *CommitMetadata) IsInitialCommit() bool {
	return len(m.Parents) == 1 && m.Parents[0].IsZero()
}

// IsMerge reports whether the commit has more than one parent.
func (m *CommitMetadata) IsMerge() bool {
	return len(m.Parents) > 1
}
