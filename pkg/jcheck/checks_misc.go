package jcheck

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"slices"
	"sort"
	"strings"
)

// BlacklistCheck rejects commits listed in the blacklist configuration.
type BlacklistCheck struct{}

func (*BlacklistCheck) Name() string        { return "blacklist" }
func (*BlacklistCheck) Description() string { return "Commit must not be blacklisted" }

func (c *BlacklistCheck) Check(_ context.Context, t *Target) ([]Issue, error) {
	if slices.Contains(t.Conf.BlacklistConfig(), t.Commit.Hash) {
		return []Issue{&BlacklistIssue{Metadata: metadata(c.Name(), t.Commit.Hash)}}, nil
	}
	return nil, nil
}

var (
	hgTagsLine    = regexp.MustCompile(`^[0-9a-f]{40} (\S+)$`)
	hgTagsMessage = regexp.MustCompile(`^Added tag (\S+) for changeset [0-9a-f]{12,40}$`)
)

// HgTagCommitCheck validates mercurial tag commits: a commit touching
// .hgtags must change nothing else, add exactly one well-formed tag line,
// and carry the canonical single-line tag message naming the same tag. Only
// the highest precedence violation is reported.
type HgTagCommitCheck struct{}

func (*HgTagCommitCheck) Name() string        { return "hgtag" }
func (*HgTagCommitCheck) Description() string { return "Tag commits must only add one tag" }

func (c *HgTagCommitCheck) Check(_ context.Context, t *Target) ([]Issue, error) {
	if len(t.Commit.ParentDiffs) == 0 {
		return nil, nil
	}
	d := t.Commit.ParentDiffs[0]
	touchesTags := false
	for _, p := range d.Patches {
		if p.Path() == ".hgtags" {
			touchesTags = true
		}
	}
	if !touchesTags {
		return nil, nil
	}

	fail := func(kind HgTagCommitError, tag string) ([]Issue, error) {
		return []Issue{&HgTagCommitIssue{
			Metadata: metadata(c.Name(), t.Commit.Hash),
			Error:    kind,
			Tag:      tag,
		}}, nil
	}

	if len(d.Patches) != 1 || len(d.Patches[0].Hunks) != 1 {
		return fail(HgTagTooManyChanges, "")
	}
	hunk := d.Patches[0].Hunks[0]
	if len(hunk.Target.Lines) != 1 || len(hunk.Source.Lines) != 0 {
		return fail(HgTagTooManyLines, "")
	}
	lineMatch := hgTagsLine.FindStringSubmatch(hunk.Target.Lines[0])
	if lineMatch == nil {
		return fail(HgTagBadFormat, "")
	}
	tag := lineMatch[1]
	if len(t.Commit.Message) != 1 {
		return fail(HgTagBadFormat, tag)
	}
	messageMatch := hgTagsMessage.FindStringSubmatch(t.Commit.Message[0])
	if messageMatch == nil {
		return fail(HgTagBadFormat, tag)
	}
	if messageMatch[1] != tag {
		return fail(HgTagDiffers, tag)
	}
	return nil, nil
}

// ProblemListsCheck rejects commits claiming to fix an issue that is still
// listed in a problem list file at the commit's own revision.
type ProblemListsCheck struct{}

func (*ProblemListsCheck) Name() string        { return "problemlists" }
func (*ProblemListsCheck) Description() string { return "Fixed issue must not be problem listed" }

func (c *ProblemListsCheck) Check(ctx context.Context, t *Target) ([]Issue, error) {
	if len(t.Message.Issues) == 0 || t.Repo == nil {
		return nil, nil
	}
	conf := t.Conf.ProblemListsConfig()
	pattern, err := regexp.Compile(conf.Pattern)
	if err != nil {
		return nil, fmt.Errorf("problemlists check: pattern: %w", err)
	}

	// issue id -> problem list files that still name it
	listed := make(map[string][]string)
	entries, err := t.Repo.Files(ctx, t.Commit.Hash, conf.Dirs...)
	if err != nil {
		return nil, fmt.Errorf("problemlists check: %w", err)
	}
	for _, entry := range entries {
		if !pattern.MatchString(path.Base(entry.Path)) {
			continue
		}
		lines, ok, err := t.Repo.Lines(ctx, entry.Path, t.Commit.Hash)
		if err != nil {
			return nil, fmt.Errorf("problemlists check: %s: %w", entry.Path, err)
		}
		if !ok {
			continue
		}
		for _, line := range lines {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" || strings.HasPrefix(trimmed, "#") {
				continue
			}
			fields := strings.Fields(trimmed)
			if len(fields) < 2 {
				continue
			}
			for _, id := range strings.Split(fields[1], ",") {
				id = normalizeIssueID(id)
				if id != "" && !slices.Contains(listed[id], entry.Path) {
					listed[id] = append(listed[id], entry.Path)
				}
			}
		}
	}

	var issues []Issue
	for _, ref := range t.Message.Issues {
		files := listed[ref.ID]
		if len(files) == 0 {
			continue
		}
		sort.Strings(files)
		issues = append(issues, &ProblemListsIssue{
			Metadata: metadata(c.Name(), t.Commit.Hash),
			IssueID:  ref.Shorthand(),
			Files:    files,
		})
	}
	return issues, nil
}

// normalizeIssueID strips an optional PROJECT- prefix so problem list
// entries match message references in either form.
func normalizeIssueID(id string) string {
	id = strings.TrimSpace(id)
	if _, numeric, found := strings.Cut(id, "-"); found {
		return numeric
	}
	return id
}

// CopyrightFormatCheck validates copyright header lines of changed files
// against the configured per-holder locator and validator patterns. A
// required holder that vanished relative to the first parent is reported as
// missing.
type CopyrightFormatCheck struct{}

func (*CopyrightFormatCheck) Name() string        { return "copyright" }
func (*CopyrightFormatCheck) Description() string { return "Copyright headers must be well formed" }

func (c *CopyrightFormatCheck) Check(ctx context.Context, t *Target) ([]Issue, error) {
	conf := t.Conf.CopyrightConfig()
	if len(conf.Holders) == 0 || t.Repo == nil || len(t.Commit.ParentDiffs) == 0 {
		return nil, nil
	}
	var files *regexp.Regexp
	if conf.Files != "" {
		var err error
		files, err = regexp.Compile(conf.Files)
		if err != nil {
			return nil, fmt.Errorf("copyright check: files pattern: %w", err)
		}
	}
	type holderPatterns struct {
		conf      CopyrightHolder
		locator   *regexp.Regexp
		validator *regexp.Regexp
	}
	holders := make([]holderPatterns, 0, len(conf.Holders))
	for _, h := range conf.Holders {
		locator, err := regexp.Compile(h.Locator)
		if err != nil {
			return nil, fmt.Errorf("copyright check: %s_locator: %w", h.Key, err)
		}
		var validator *regexp.Regexp
		if h.Validator != "" {
			validator, err = regexp.Compile(h.Validator)
			if err != nil {
				return nil, fmt.Errorf("copyright check: %s_validator: %w", h.Key, err)
			}
		}
		holders = append(holders, holderPatterns{conf: h, locator: locator, validator: validator})
	}

	badFormat := make(map[string][]string)
	missing := make(map[string][]string)
	for _, patch := range t.Commit.ParentDiffs[0].Patches {
		if patch.Status.IsDeleted() || patch.IsBinary {
			continue
		}
		target := patch.TargetPath
		if files != nil && !files.MatchString(target) {
			continue
		}
		lines, ok, err := t.Repo.Lines(ctx, target, t.Commit.Hash)
		if err != nil {
			return nil, fmt.Errorf("copyright check: %s: %w", target, err)
		}
		if !ok {
			continue
		}
		for _, h := range holders {
			located := false
			valid := true
			for _, line := range lines {
				if !h.locator.MatchString(line) {
					continue
				}
				located = true
				if h.validator != nil && !h.validator.MatchString(line) {
					valid = false
				}
			}
			if located {
				if !valid {
					badFormat[h.conf.Key] = append(badFormat[h.conf.Key], target)
				}
				continue
			}
			if !h.conf.Required || patch.Status.IsAdded() {
				continue
			}
			parentLines, ok, err := t.Repo.Lines(ctx, patch.SourcePath, t.Commit.Parents[0])
			if err != nil {
				return nil, fmt.Errorf("copyright check: %s: %w", patch.SourcePath, err)
			}
			if !ok {
				continue
			}
			for _, line := range parentLines {
				if h.locator.MatchString(line) {
					missing[h.conf.Key] = append(missing[h.conf.Key], target)
					break
				}
			}
		}
	}
	if len(badFormat) == 0 && len(missing) == 0 {
		return nil, nil
	}
	for _, m := range []map[string][]string{badFormat, missing} {
		for key := range m {
			sort.Strings(m[key])
		}
	}
	return []Issue{&CopyrightFormatIssue{
		Metadata:              metadata(c.Name(), t.Commit.Hash),
		FilesWithFormatIssue:  badFormat,
		FilesWithMissingIssue: missing,
	}}, nil
}

const confPath = ".jcheck/conf"

// JCheckConfCheck validates the syntax of the commit's own configuration
// file, as stored in that commit's tree.
type JCheckConfCheck struct{}

func (*JCheckConfCheck) Name() string        { return "jcheckconf" }
func (*JCheckConfCheck) Description() string { return "Configuration file must be well formed" }

func (c *JCheckConfCheck) Check(ctx context.Context, t *Target) ([]Issue, error) {
	if t.Repo == nil {
		return nil, nil
	}
	lines, ok, err := t.Repo.Lines(ctx, confPath, t.Commit.Hash)
	if err != nil {
		return nil, fmt.Errorf("jcheckconf check: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var issues []Issue
	for _, message := range ValidateConfSyntax(lines) {
		issues = append(issues, &JCheckConfIssue{
			Metadata: metadata(c.Name(), t.Commit.Hash),
			Message:  message,
		})
	}
	return issues, nil
}
