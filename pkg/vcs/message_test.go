package vcs

import (
	"reflect"
	"testing"
)

func TestV1ParseFullMessage(t *testing.T) {
	lines := []string{
		"8201234: Better range handling",
		"8209876: Fix the build",
		"",
		"The old range arithmetic overflowed on",
		"inputs longer than a single block.",
		"",
		"Co-authored-by: Foo Bar <foo@openjdk.org>",
		"Reviewed-by: baz, qux",
	}
	msg := V1{}.Parse(lines)

	if msg.Title != "8201234: Better range handling" {
		t.Fatalf("title = %q", msg.Title)
	}
	wantIssues := []IssueRef{
		{ID: "8201234", Description: "Better range handling"},
		{ID: "8209876", Description: "Fix the build"},
	}
	if !reflect.DeepEqual(msg.Issues, wantIssues) {
		t.Errorf("issues = %v", msg.Issues)
	}
	if !reflect.DeepEqual(msg.Reviewers, []string{"baz", "qux"}) {
		t.Errorf("reviewers = %v", msg.Reviewers)
	}
	if len(msg.Contributors) != 1 || msg.Contributors[0].Email != "foo@openjdk.org" {
		t.Errorf("contributors = %v", msg.Contributors)
	}
	wantSummaries := []string{
		"The old range arithmetic overflowed on",
		"inputs longer than a single block.",
	}
	if !reflect.DeepEqual(msg.Summaries, wantSummaries) {
		t.Errorf("summaries = %v", msg.Summaries)
	}
	if len(msg.Additional) != 0 {
		t.Errorf("additional = %v", msg.Additional)
	}
	if msg.IsBackport() {
		t.Error("message is not a backport")
	}
}

func TestV1ParseProjectPrefixedIssue(t *testing.T) {
	msg := V1{}.Parse([]string{"PROJ-17: Fix the build"})
	if len(msg.Issues) != 1 {
		t.Fatalf("issues = %v", msg.Issues)
	}
	if got := msg.Issues[0].Shorthand(); got != "PROJ-17" {
		t.Errorf("shorthand = %q", got)
	}
}

func TestV1ParseBackport(t *testing.T) {
	original := "0123456789012345678901234567890123456789"
	msg := V1{}.Parse([]string{
		"8201234: Better range handling",
		"",
		"Backport-of: " + original,
	})
	if !msg.IsBackport() {
		t.Fatal("expected a backport")
	}
	if msg.Original != Hash(original) {
		t.Errorf("original = %q", msg.Original)
	}
}

func TestV1ParseFreeFormTitle(t *testing.T) {
	msg := V1{}.Parse([]string{"Fixed the thing"})
	if msg.Title != "Fixed the thing" {
		t.Errorf("title = %q", msg.Title)
	}
	if len(msg.Issues) != 0 {
		t.Errorf("issues = %v", msg.Issues)
	}
	if !reflect.DeepEqual(msg.Additional, []string{"Fixed the thing"}) {
		t.Errorf("additional = %v", msg.Additional)
	}
}

func TestV1ParseUnknownTrailerKeptAsAdditional(t *testing.T) {
	msg := V1{}.Parse([]string{
		"8201234: Better range handling",
		"",
		"Signed-off-by: Foo Bar <foo@openjdk.org>",
		"Reviewed-by: baz",
	})
	if !reflect.DeepEqual(msg.Additional, []string{"Signed-off-by: Foo Bar <foo@openjdk.org>"}) {
		t.Errorf("additional = %v", msg.Additional)
	}
	if !reflect.DeepEqual(msg.Reviewers, []string{"baz"}) {
		t.Errorf("reviewers = %v", msg.Reviewers)
	}
}

func TestV1FormatRoundTrip(t *testing.T) {
	msg := &Message{
		Title:     "8201234: Better range handling",
		Issues:    []IssueRef{{ID: "8201234", Description: "Better range handling"}},
		Reviewers: []string{"baz", "qux"},
		Summaries: []string{"A summary line."},
	}
	parsed := V1{}.Parse(V1{}.Format(msg))
	if !reflect.DeepEqual(parsed.Issues, msg.Issues) {
		t.Errorf("issues = %v", parsed.Issues)
	}
	if !reflect.DeepEqual(parsed.Reviewers, msg.Reviewers) {
		t.Errorf("reviewers = %v", parsed.Reviewers)
	}
	if !reflect.DeepEqual(parsed.Summaries, msg.Summaries) {
		t.Errorf("summaries = %v", parsed.Summaries)
	}
}

func TestV0ParseLegacyMessage(t *testing.T) {
	msg := V0{}.Parse([]string{
		"8201234: Better range handling",
		"Summary: rework the range arithmetic",
		"Reviewed-by: baz",
		"Contributed-by: Foo Bar <foo@openjdk.org>",
	})
	if len(msg.Issues) != 1 || msg.Issues[0].ID != "8201234" {
		t.Fatalf("issues = %v", msg.Issues)
	}
	if !reflect.DeepEqual(msg.Summaries, []string{"rework the range arithmetic"}) {
		t.Errorf("summaries = %v", msg.Summaries)
	}
	if !reflect.DeepEqual(msg.Reviewers, []string{"baz"}) {
		t.Errorf("reviewers = %v", msg.Reviewers)
	}
	if len(msg.Contributors) != 1 || msg.Contributors[0].Name != "Foo Bar" {
		t.Errorf("contributors = %v", msg.Contributors)
	}
}

func TestParserForVersion(t *testing.T) {
	for version := 0; version <= 1; version++ {
		p, err := ParserForVersion(version)
		if err != nil {
			t.Fatalf("version %d: %v", version, err)
		}
		if p.Version() != version {
			t.Errorf("version %d: parser reports %d", version, p.Version())
		}
	}
	if _, err := ParserForVersion(2); err == nil {
		t.Error("expected an error for version 2")
	}
}
