package jcheck

import (
	"reflect"
	"testing"
)

func testConf(t *testing.T, lines ...string) *Configuration {
	t.Helper()
	conf, err := ParseConfiguration(lines)
	if err != nil {
		t.Fatalf("ParseConfiguration: %v", err)
	}
	return conf
}

func TestParseConfigurationSections(t *testing.T) {
	conf := testConf(t,
		"[general]",
		"project = jdk",
		"version = 1",
		"",
		"# checks to run",
		"[checks]",
		"error = author, committer, reviewers",
		`[checks "reviewers"]`,
		"reviewers = 1",
	)
	general, err := conf.General()
	if err != nil {
		t.Fatalf("General: %v", err)
	}
	if general.Project != "jdk" || general.Version != 1 {
		t.Errorf("general = %+v", general)
	}
	checks := conf.Checks()
	if !reflect.DeepEqual(checks.Error, []string{"author", "committer", "reviewers"}) {
		t.Errorf("error checks = %v", checks.Error)
	}
	if v, found := conf.Get("checks.reviewers", "reviewers"); !found || v != "1" {
		t.Errorf("subsection lookup = %q, %v", v, found)
	}
}

func TestValidateConfSyntaxMessages(t *testing.T) {
	errors := ValidateConfSyntax([]string{"[general] 36542"})
	want := []string{"line 0: section header must end with ']'"}
	if !reflect.DeepEqual(errors, want) {
		t.Errorf("messages = %q, want %q", errors, want)
	}

	errors = ValidateConfSyntax([]string{"[general]", "project jdk"})
	want = []string{"line 1: entry must be of form 'key = value'"}
	if !reflect.DeepEqual(errors, want) {
		t.Errorf("messages = %q, want %q", errors, want)
	}

	if errors := ValidateConfSyntax([]string{"", "# comment", "[general]", "a = b"}); len(errors) != 0 {
		t.Errorf("clean input produced %q", errors)
	}
}

func TestParseConfigurationRejectsBadSyntax(t *testing.T) {
	if _, err := ParseConfiguration([]string{"[general] 36542"}); err == nil {
		t.Error("expected an error for an unterminated section header")
	}
	if _, err := ParseConfiguration([]string{"project jdk"}); err == nil {
		t.Error("expected an error for a malformed entry")
	}
}

func TestReviewersConfigLegacyForm(t *testing.T) {
	conf := testConf(t, `[checks "reviewers"]`, "minimum = 1")
	rc, err := conf.ReviewersConfig()
	if err != nil {
		t.Fatalf("ReviewersConfig: %v", err)
	}
	if rc.Reviewers != 1 {
		t.Errorf("legacy minimum must default to the reviewer role, have %+v", rc)
	}

	conf = testConf(t, `[checks "reviewers"]`, "minimum = 2", "role = committer")
	rc, err = conf.ReviewersConfig()
	if err != nil {
		t.Fatalf("ReviewersConfig: %v", err)
	}
	if rc.Committers != 2 || rc.Reviewers != 0 {
		t.Errorf("legacy role mapping = %+v", rc)
	}
}

func TestReviewersConfigConflict(t *testing.T) {
	conf := testConf(t, `[checks "reviewers"]`, "minimum = 1", "reviewers = 1")
	if _, err := conf.ReviewersConfig(); err == nil {
		t.Fatal("expected an error when both forms set counts")
	}

	// minimum = disable neutralizes the legacy form.
	conf = testConf(t, `[checks "reviewers"]`, "minimum = disable", "reviewers = 1")
	rc, err := conf.ReviewersConfig()
	if err != nil {
		t.Fatalf("ReviewersConfig: %v", err)
	}
	if rc.Reviewers != 1 {
		t.Errorf("conf = %+v", rc)
	}
}

func TestReviewersConfigIgnoreAndBackports(t *testing.T) {
	conf := testConf(t, `[checks "reviewers"]`,
		"reviewers = 1",
		"ignore = duke, bot",
		"backports = check",
	)
	rc, err := conf.ReviewersConfig()
	if err != nil {
		t.Fatalf("ReviewersConfig: %v", err)
	}
	if !reflect.DeepEqual(rc.Ignore, []string{"duke", "bot"}) {
		t.Errorf("ignore = %v", rc.Ignore)
	}
	if rc.Backports != "check" {
		t.Errorf("backports = %q", rc.Backports)
	}
}

func TestCopyrightConfig(t *testing.T) {
	conf := testConf(t, `[checks "copyright"]`,
		`files = \.java$`,
		"oracle_locator = Copyright",
		"oracle_validator = Copyright \\(c\\)",
		"oracle_required = true",
	)
	cc := conf.CopyrightConfig()
	if cc.Files != `\.java$` {
		t.Errorf("files = %q", cc.Files)
	}
	if len(cc.Holders) != 1 {
		t.Fatalf("holders = %+v", cc.Holders)
	}
	h := cc.Holders[0]
	if h.Key != "oracle" || !h.Required || h.Locator != "Copyright" {
		t.Errorf("holder = %+v", h)
	}
}

func TestProblemListsConfigDefaults(t *testing.T) {
	conf := testConf(t)
	pc := conf.ProblemListsConfig()
	if !reflect.DeepEqual(pc.Dirs, []string{"test"}) {
		t.Errorf("dirs = %v", pc.Dirs)
	}
	if pc.Pattern == "" {
		t.Error("default pattern must be set")
	}
}
