package vcs

import (
	"fmt"
	"regexp"
	"strings"
)

// IssueRef is one issue reference from a commit message title block, e.g.
// "8201234: Better range handling" or "PROJ-17: Fix the build".
type IssueRef struct {
	Project     string // "" for plain numeric ids
	ID          string
	Description string
}

// Shorthand renders the reference as it appears at the start of its line.
func (r IssueRef) Shorthand() string {
	if r.Project == "" {
		return r.ID
	}
	return r.Project + "-" + r.ID
}

func (r IssueRef) String() string {
	return fmt.Sprintf("%s: %s", r.Shorthand(), r.Description)
}

// Message is the structured parse of a commit's raw message lines. The
// parser that produced it and the formatter that renders it must agree on
// the encoding version.
type Message struct {
	Title        string
	Issues       []IssueRef
	Reviewers    []string
	Contributors []Author
	Summaries    []string
	Additional   []string
	Original     Hash // backport source commit, when present
}

// IsBackport reports whether the message names an original commit.
func (m *Message) IsBackport() bool {
	return !m.Original.IsZero()
}

// MessageParser converts raw message lines to a structured Message.
type MessageParser interface {
	Parse(lines []string) *Message
	Version() int
}

// MessageFormatter renders a structured Message back to raw lines.
type MessageFormatter interface {
	Format(m *Message) []string
	Version() int
}

var issueLine = regexp.MustCompile(`^(?:([A-Z][A-Z0-9]*)-)?([0-9]+): (.*)$`)

func parseIssueLine(line string) (IssueRef, bool) {
	m := issueLine.FindStringSubmatch(line)
	if m == nil {
		return IssueRef{}, false
	}
	return IssueRef{Project: m[1], ID: m[2], Description: m[3]}, true
}

// V1 parses the modern convention: leading issue lines, optional summary
// paragraphs, and a trailing block of "Reviewed-by:", "Co-authored-by:" and
// "Backport-of:" lines. Lines in the trailer block that do not match a known
// trailer are kept verbatim as additional lines.
type V1 struct{}

func (V1) Version() int { return 1 }

const (
	reviewedByPrefix   = "Reviewed-by: "
	coAuthoredByPrefix = "Co-authored-by: "
	backportOfPrefix   = "Backport-of: "
)

func isTrailer(line string) bool {
	return strings.HasPrefix(line, reviewedByPrefix) ||
		strings.HasPrefix(line, coAuthoredByPrefix) ||
		strings.HasPrefix(line, backportOfPrefix)
}

func (V1) Parse(lines []string) *Message {
	msg := &Message{}
	if len(lines) == 0 {
		return msg
	}

	i := 0
	for i < len(lines) {
		ref, ok := parseIssueLine(lines[i])
		if !ok {
			break
		}
		msg.Issues = append(msg.Issues, ref)
		i++
	}
	if len(msg.Issues) > 0 {
		msg.Title = lines[0]
	} else {
		msg.Title = lines[0]
		msg.Additional = append(msg.Additional, lines[0])
		i = 1
	}

	// Trailer block: the maximal suffix of non-blank "Key: value" lines.
	end := len(lines)
	start := end
	for start > i {
		prev := lines[start-1]
		if prev == "" || !looksLikeTrailer(prev) {
			break
		}
		start--
	}
	for _, line := range lines[start:end] {
		switch {
		case strings.HasPrefix(line, reviewedByPrefix):
			for _, name := range strings.Split(strings.TrimPrefix(line, reviewedByPrefix), ",") {
				msg.Reviewers = append(msg.Reviewers, strings.TrimSpace(name))
			}
		case strings.HasPrefix(line, coAuthoredByPrefix):
			msg.Contributors = append(msg.Contributors, ParseAuthor(strings.TrimPrefix(line, coAuthoredByPrefix)))
		case strings.HasPrefix(line, backportOfPrefix):
			msg.Original = Hash(strings.ToLower(strings.TrimSpace(strings.TrimPrefix(line, backportOfPrefix))))
		default:
			msg.Additional = append(msg.Additional, line)
		}
	}

	for _, line := range trimBlank(lines[i:start]) {
		msg.Summaries = append(msg.Summaries, line)
	}
	return msg
}

var trailerShape = regexp.MustCompile(`^[A-Z][A-Za-z]*(-[A-Za-z]+)*: \S`)

func looksLikeTrailer(line string) bool {
	return trailerShape.MatchString(line)
}

func trimBlank(lines []string) []string {
	start, end := 0, len(lines)
	for start < end && lines[start] == "" {
		start++
	}
	for end > start && lines[end-1] == "" {
		end--
	}
	return lines[start:end]
}

func (V1) Format(m *Message) []string {
	var lines []string
	for _, ref := range m.Issues {
		lines = append(lines, ref.String())
	}
	if len(m.Issues) == 0 && m.Title != "" {
		lines = append(lines, m.Title)
	}
	if len(m.Summaries) > 0 {
		lines = append(lines, "")
		lines = append(lines, m.Summaries...)
	}
	var trailers []string
	for _, c := range m.Contributors {
		trailers = append(trailers, coAuthoredByPrefix+c.String())
	}
	if len(m.Reviewers) > 0 {
		trailers = append(trailers, reviewedByPrefix+strings.Join(m.Reviewers, ", "))
	}
	if !m.Original.IsZero() {
		trailers = append(trailers, backportOfPrefix+string(m.Original))
	}
	if len(trailers) > 0 {
		lines = append(lines, "")
		lines = append(lines, trailers...)
	}
	return lines
}

// V0 parses the legacy convention: leading issue lines followed by optional
// "Summary:", "Reviewed-by:" and "Contributed-by:" lines in that order.
type V0 struct{}

func (V0) Version() int { return 0 }

const (
	summaryPrefix       = "Summary: "
	contributedByPrefix = "Contributed-by: "
)

func (V0) Parse(lines []string) *Message {
	msg := &Message{}
	if len(lines) == 0 {
		return msg
	}
	msg.Title = lines[0]

	i := 0
	for i < len(lines) {
		ref, ok := parseIssueLine(lines[i])
		if !ok {
			break
		}
		msg.Issues = append(msg.Issues, ref)
		i++
	}
	if len(msg.Issues) == 0 {
		msg.Additional = append(msg.Additional, lines[0])
		i = 1
	}
	for _, line := range lines[i:] {
		switch {
		case strings.HasPrefix(line, summaryPrefix):
			msg.Summaries = append(msg.Summaries, strings.TrimPrefix(line, summaryPrefix))
		case strings.HasPrefix(line, reviewedByPrefix):
			for _, name := range strings.Split(strings.TrimPrefix(line, reviewedByPrefix), ",") {
				msg.Reviewers = append(msg.Reviewers, strings.TrimSpace(name))
			}
		case strings.HasPrefix(line, contributedByPrefix):
			msg.Contributors = append(msg.Contributors, ParseAuthor(strings.TrimPrefix(line, contributedByPrefix)))
		case line == "":
		default:
			msg.Additional = append(msg.Additional, line)
		}
	}
	return msg
}

func (V0) Format(m *Message) []string {
	var lines []string
	for _, ref := range m.Issues {
		lines = append(lines, ref.String())
	}
	if len(m.Issues) == 0 && m.Title != "" {
		lines = append(lines, m.Title)
	}
	for _, s := range m.Summaries {
		lines = append(lines, summaryPrefix+s)
	}
	if len(m.Reviewers) > 0 {
		lines = append(lines, reviewedByPrefix+strings.Join(m.Reviewers, ", "))
	}
	for _, c := range m.Contributors {
		lines = append(lines, contributedByPrefix+c.String())
	}
	return lines
}

// ParserForVersion returns the message parser matching a configuration's
// declared message version.
func ParserForVersion(version int) (MessageParser, error) {
	switch version {
	case 0:
		return V0{}, nil
	case 1:
		return V1{}, nil
	}
	return nil, fmt.Errorf("message parser: unknown version %d", version)
}
