package diff

import "fmt"

// statusKind is the single-character status code emitted in raw diff lines.
type statusKind byte

const (
	statusAdded    statusKind = 'A'
	statusDeleted  statusKind = 'D'
	statusModified statusKind = 'M'
	statusRenamed  statusKind = 'R'
	statusCopied   statusKind = 'C'
	statusUnmerged statusKind = 'U'
)

// Status classifies what happened to a file in a patch. Renames and copies
// carry the similarity score reported by the tool (0-100).
type Status struct {
	kind  statusKind
	score int
}

// ParseStatus decodes a raw status field such as "M", "R95" or "C100".
func ParseStatus(s string) (Status, error) {
	if s == "" {
		return Status{}, fmt.Errorf("parse status: empty field")
	}
	kind := statusKind(s[0])
	switch kind {
	case statusAdded, statusDeleted, statusModified, statusUnmerged:
		if len(s) != 1 {
			return Status{}, fmt.Errorf("parse status %q: unexpected suffix", s)
		}
		return Status{kind: kind}, nil
	case statusRenamed, statusCopied:
		score := 0
		for i := 1; i < len(s); i++ {
			c := s[i]
			if c < '0' || c > '9' {
				return Status{}, fmt.Errorf("parse status %q: bad similarity score", s)
			}
			score = score*10 + int(c-'0')
		}
		return Status{kind: kind, score: score}, nil
	}
	return Status{}, fmt.Errorf("parse status %q: unknown code", s)
}

func StatusAdded() Status    { return Status{kind: statusAdded} }
func StatusDeleted() Status  { return Status{kind: statusDeleted} }
func StatusModified() Status { return Status{kind: statusModified} }
func StatusUnmerged() Status { return Status{kind: statusUnmerged} }

func StatusRenamed(score int) Status { return Status{kind: statusRenamed, score: score} }
func StatusCopied(score int) Status  { return Status{kind: statusCopied, score: score} }

func (s Status) IsAdded() bool    { return s.kind == statusAdded }
func (s Status) IsDeleted() bool  { return s.kind == statusDeleted }
func (s Status) IsModified() bool { return s.kind == statusModified }
func (s Status) IsRenamed() bool  { return s.kind == statusRenamed }
func (s Status) IsCopied() bool   { return s.kind == statusCopied }
func (s Status) IsUnmerged() bool { return s.kind == statusUnmerged }

// Score returns the similarity score for renames and copies.
func (s Status) Score() int { return s.score }

func (s Status) String() string {
	switch s.kind {
	case statusRenamed, statusCopied:
		return fmt.Sprintf("%c%d", s.kind, s.score)
	case 0:
		return "?"
	}
	return string(s.kind)
}
