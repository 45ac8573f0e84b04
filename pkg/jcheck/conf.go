// Package jcheck is the commit-policy check engine: it parses the in-repo
// .jcheck/conf policy file, runs the configured checks over parsed commits,
// and reports policy violations as typed issues.
package jcheck

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/revet-dev/revet/pkg/vcs"
)

// Configuration is the parsed form of a .jcheck/conf file: INI-like sections
// of key = value entries, plus typed projections for each check. The file is
// resolved per commit, from that commit's own tree state.
type Configuration struct {
	sections map[string]map[string]string
}

const (
	sectionHeaderMessage = "line %d: section header must end with ']'"
	entryFormMessage     = "line %d: entry must be of form 'key = value'"
)

// ValidateConfSyntax checks lines against the configuration grammar and
// returns one message per offending line. Line numbers are 0-based and the
// message texts are a compatibility contract; they must not change.
func ValidateConfSyntax(lines []string) []string {
	var errors []string
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if strings.HasPrefix(trimmed, "[") {
			if !strings.HasSuffix(trimmed, "]") {
				errors = append(errors, fmt.Sprintf(sectionHeaderMessage, i))
			}
			continue
		}
		if !strings.Contains(trimmed, "=") {
			errors = append(errors, fmt.Sprintf(entryFormMessage, i))
		}
	}
	return errors
}

// ParseConfiguration parses configuration lines. Syntax violations are fatal
// here; the JCheckConfCheck reports them as issues instead when validating a
// commit's own conf file.
func ParseConfiguration(lines []string) (*Configuration, error) {
	conf := &Configuration{sections: make(map[string]map[string]string)}
	section := ""
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if strings.HasPrefix(trimmed, "[") {
			if !strings.HasSuffix(trimmed, "]") {
				return nil, fmt.Errorf("parse configuration: %s", fmt.Sprintf(sectionHeaderMessage, i))
			}
			section = parseSectionName(trimmed[1 : len(trimmed)-1])
			if _, found := conf.sections[section]; !found {
				conf.sections[section] = make(map[string]string)
			}
			continue
		}
		key, value, found := strings.Cut(trimmed, "=")
		if !found {
			return nil, fmt.Errorf("parse configuration: %s", fmt.Sprintf(entryFormMessage, i))
		}
		if _, haveSection := conf.sections[section]; !haveSection {
			conf.sections[section] = make(map[string]string)
		}
		conf.sections[section][strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return conf, nil
}

// parseSectionName normalizes both `[checks]` and `[checks "reviewers"]`
// into a flat lookup key.
func parseSectionName(inner string) string {
	name, sub, found := strings.Cut(strings.TrimSpace(inner), " ")
	if !found {
		return name
	}
	sub = strings.Trim(strings.TrimSpace(sub), `"`)
	return name + "." + sub
}

// Get returns the raw value for key in section.
func (c *Configuration) Get(section, key string) (string, bool) {
	entries, found := c.sections[section]
	if !found {
		return "", false
	}
	v, found := entries[key]
	return v, found
}

func (c *Configuration) get(section, key, fallback string) string {
	if v, found := c.Get(section, key); found {
		return v
	}
	return fallback
}

// List splits a comma-separated multi-valued entry.
func (c *Configuration) List(section, key string) []string {
	v, found := c.Get(section, key)
	if !found || strings.TrimSpace(v) == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// GeneralConf is the [general] section.
type GeneralConf struct {
	Project    string
	Repository string
	Version    int
}

func (c *Configuration) General() (GeneralConf, error) {
	g := GeneralConf{
		Project:    c.get("general", "project", ""),
		Repository: c.get("general", "repository", ""),
	}
	v := c.get("general", "version", "0")
	version, err := strconv.Atoi(v)
	if err != nil {
		return g, fmt.Errorf("configuration: [general] version: %w", err)
	}
	g.Version = version
	return g, nil
}

// ChecksConf is the [checks] section: which checks run, at which severity.
type ChecksConf struct {
	Error   []string
	Warning []string
}

func (c *Configuration) Checks() ChecksConf {
	return ChecksConf{
		Error:   c.List("checks", "error"),
		Warning: c.List("checks", "warning"),
	}
}

// RepositoryConf is the [repository] section: allowed ref name patterns.
type RepositoryConf struct {
	Tags     string
	Branches string
}

func (c *Configuration) Repository() RepositoryConf {
	return RepositoryConf{
		Tags:     c.get("repository", "tags", ""),
		Branches: c.get("repository", "branches", ""),
	}
}

// ReviewersConf is the normalized [checks "reviewers"] section. The legacy
// single minimum+role form is translated into the per-role vector; setting
// both forms is a configuration error, rejected at parse time.
type ReviewersConf struct {
	Lead         int
	Reviewers    int
	Committers   int
	Authors      int
	Contributors int
	Ignore       []string
	Backports    string // "check" forces reviewer requirements on backports
}

const reviewersSection = "checks.reviewers"

func (c *Configuration) ReviewersConfig() (ReviewersConf, error) {
	conf := ReviewersConf{
		Ignore:    c.List(reviewersSection, "ignore"),
		Backports: c.get(reviewersSection, "backports", ""),
	}

	modernKeys := []string{"lead", "reviewers", "committers", "authors", "contributors"}
	modernSet := false
	counts := make(map[string]int, len(modernKeys))
	for _, key := range modernKeys {
		v, found := c.Get(reviewersSection, key)
		if !found {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return conf, fmt.Errorf("configuration: [checks %q] %s must be a non-negative count, have %q", "reviewers", key, v)
		}
		counts[key] = n
		modernSet = true
	}

	minimum, legacyPresent := c.Get(reviewersSection, "minimum")
	legacySet := legacyPresent && minimum != "disable"
	if legacySet && modernSet {
		return conf, fmt.Errorf("configuration: [checks %q] sets both legacy 'minimum' and per-role counts", "reviewers")
	}
	if legacySet {
		n, err := strconv.Atoi(minimum)
		if err != nil || n < 0 {
			return conf, fmt.Errorf("configuration: [checks %q] minimum must be a non-negative count or 'disable', have %q", "reviewers", minimum)
		}
		role := c.get(reviewersSection, "role", "reviewer")
		switch role {
		case "lead":
			counts["lead"] = n
		case "reviewer":
			counts["reviewers"] = n
		case "committer":
			counts["committers"] = n
		case "author":
			counts["authors"] = n
		case "contributor":
			counts["contributors"] = n
		default:
			return conf, fmt.Errorf("configuration: [checks %q] unknown role %q", "reviewers", role)
		}
	}

	conf.Lead = counts["lead"]
	conf.Reviewers = counts["reviewers"]
	conf.Committers = counts["committers"]
	conf.Authors = counts["authors"]
	conf.Contributors = counts["contributors"]
	return conf, nil
}

// WhitespaceConf gates which paths the whitespace check scans.
type WhitespaceConf struct {
	Files    string // regular expression over full paths
	Suffixes []string
}

func (c *Configuration) WhitespaceConfig() WhitespaceConf {
	return WhitespaceConf{
		Files:    c.get("checks.whitespace", "files", ""),
		Suffixes: c.List("checks.whitespace", "suffixes"),
	}
}

// MergeConf is the [checks "merge"] section.
type MergeConf struct {
	Message string // pattern merge commit titles must match
}

func (c *Configuration) MergeConfig() MergeConf {
	return MergeConf{Message: c.get("checks.merge", "message", "^Merge.*$")}
}

// IssuesConf is the [checks "issues"] section.
type IssuesConf struct {
	Pattern string // pattern each referenced issue id must match, when set
}

func (c *Configuration) IssuesConfig() IssuesConf {
	return IssuesConf{Pattern: c.get("checks.issues", "pattern", "")}
}

// ProblemListsConf is the [checks "problemlists"] section.
type ProblemListsConf struct {
	Dirs    []string
	Pattern string
}

func (c *Configuration) ProblemListsConfig() ProblemListsConf {
	conf := ProblemListsConf{
		Dirs:    c.List("checks.problemlists", "dirs"),
		Pattern: c.get("checks.problemlists", "pattern", `^ProblemList.*\.txt$`),
	}
	if len(conf.Dirs) == 0 {
		conf.Dirs = []string{"test"}
	}
	return conf
}

// CopyrightHolder is one configured holder in [checks "copyright"]: a
// locator regex selecting its header lines and a validator regex the
// located lines must satisfy.
type CopyrightHolder struct {
	Key       string
	Locator   string
	Validator string
	Required  bool
}

// CopyrightConf is the [checks "copyright"] section.
type CopyrightConf struct {
	Files   string
	Holders []CopyrightHolder
}

const copyrightSection = "checks.copyright"

func (c *Configuration) CopyrightConfig() CopyrightConf {
	conf := CopyrightConf{Files: c.get(copyrightSection, "files", "")}
	entries := c.sections[copyrightSection]
	var keys []string
	seen := make(map[string]bool)
	for key := range entries {
		holder, _, found := strings.Cut(key, "_")
		if !found || seen[holder] {
			continue
		}
		seen[holder] = true
		keys = append(keys, holder)
	}
	sort.Strings(keys)
	for _, holder := range keys {
		locator, hasLocator := c.Get(copyrightSection, holder+"_locator")
		if !hasLocator {
			continue
		}
		conf.Holders = append(conf.Holders, CopyrightHolder{
			Key:       holder,
			Locator:   locator,
			Validator: c.get(copyrightSection, holder+"_validator", ""),
			Required:  c.get(copyrightSection, holder+"_required", "false") == "true",
		})
	}
	return conf
}

// BlacklistConfig returns the commits banned by [checks "blacklist"].
func (c *Configuration) BlacklistConfig() []vcs.Hash {
	var hashes []vcs.Hash
	for _, h := range c.List("checks.blacklist", "commits") {
		hashes = append(hashes, vcs.Hash(strings.ToLower(h)))
	}
	return hashes
}
