package jcheck

import (
	"strings"
	"testing"

	"github.com/revet-dev/revet/pkg/diff"
	"github.com/revet-dev/revet/pkg/repo"
	"github.com/revet-dev/revet/pkg/vcs"
)

func hgTagPatch(targetLines ...string) *diff.Patch {
	return &diff.Patch{
		SourcePath: ".hgtags", SourceFileType: diff.FileTypeRegular, SourceHash: parentHash,
		TargetPath: ".hgtags", TargetFileType: diff.FileTypeRegular, TargetHash: commitHash,
		Status: diff.StatusModified(),
		Hunks: []diff.Hunk{diff.NewHunk(
			diff.Range{Start: 12, Count: 0}, nil,
			diff.Range{Start: 12, Count: len(targetLines)}, targetLines,
		)},
	}
}

func TestHgTagCommitCheckWellFormed(t *testing.T) {
	conf := testConf(t)
	tagLine := strings.Repeat("ab", 20) + " v1.0"
	commit := testCommit(
		[]string{"Added tag v1.0 for changeset " + strings.Repeat("ab", 6)},
		hgTagPatch(tagLine),
	)
	if issues := runCheck(t, &HgTagCommitCheck{}, testTarget(t, commit, conf)); len(issues) != 0 {
		t.Errorf("issues = %+v", issues)
	}
}

func TestHgTagCommitCheckIgnoresOtherCommits(t *testing.T) {
	conf := testConf(t)
	commit := testCommit([]string{"8201234: A change"}, modifiedPatch("main.c", "x"))
	if issues := runCheck(t, &HgTagCommitCheck{}, testTarget(t, commit, conf)); len(issues) != 0 {
		t.Errorf("issues = %+v", issues)
	}
}

func TestHgTagCommitCheckPrecedence(t *testing.T) {
	conf := testConf(t)
	tagLine := strings.Repeat("ab", 20) + " v1.0"
	message := []string{"Added tag v1.0 for changeset " + strings.Repeat("ab", 6)}

	cases := []struct {
		name   string
		commit *repo.Commit
		want   HgTagCommitError
	}{
		{
			name:   "second changed file",
			commit: testCommit(message, hgTagPatch(tagLine), modifiedPatch("main.c", "x")),
			want:   HgTagTooManyChanges,
		},
		{
			name:   "two added lines",
			commit: testCommit(message, hgTagPatch(tagLine, strings.Repeat("cd", 20)+" v1.1")),
			want:   HgTagTooManyLines,
		},
		{
			name:   "malformed tag line",
			commit: testCommit(message, hgTagPatch("not a tag line at all")),
			want:   HgTagBadFormat,
		},
		{
			name: "malformed message",
			commit: testCommit([]string{"tagging v1.0"},
				hgTagPatch(tagLine)),
			want: HgTagBadFormat,
		},
		{
			name: "message names a different tag",
			commit: testCommit([]string{"Added tag v2.0 for changeset " + strings.Repeat("ab", 6)},
				hgTagPatch(tagLine)),
			want: HgTagDiffers,
		},
	}
	for _, tc := range cases {
		issues := runCheck(t, &HgTagCommitCheck{}, testTarget(t, tc.commit, conf))
		if len(issues) != 1 {
			t.Fatalf("%s: issues = %+v", tc.name, issues)
		}
		tag, ok := issues[0].(*HgTagCommitIssue)
		if !ok {
			t.Fatalf("%s: issue = %T", tc.name, issues[0])
		}
		if tag.Error != tc.want {
			t.Errorf("%s: error = %s, want %s", tc.name, tag.Error, tc.want)
		}
	}
}

func TestProblemListsCheck(t *testing.T) {
	conf := testConf(t)
	commit := testCommit([]string{"8201234: Fix the flaky test"})
	target := testTarget(t, commit, conf)
	target.Repo = &fakeRepo{files: map[vcs.Hash]map[string]string{
		commitHash: {
			"test/ProblemList.txt": strings.Join([]string{
				"# problem listed tests",
				"foo/Bar.java 8201234 generic-all",
				"foo/Other.java 8999999,PROJ-8201235 linux-x64",
			}, "\n") + "\n",
		},
	}}

	issues := runCheck(t, &ProblemListsCheck{}, target)
	if len(issues) != 1 {
		t.Fatalf("issues = %+v", issues)
	}
	pl, ok := issues[0].(*ProblemListsIssue)
	if !ok {
		t.Fatalf("issue = %T", issues[0])
	}
	if pl.IssueID != "8201234" {
		t.Errorf("issue id = %q", pl.IssueID)
	}
	if len(pl.Files) != 1 || pl.Files[0] != "test/ProblemList.txt" {
		t.Errorf("files = %v", pl.Files)
	}
}

func TestProblemListsCheckUnlistedIssue(t *testing.T) {
	conf := testConf(t)
	commit := testCommit([]string{"8777777: An unrelated fix"})
	target := testTarget(t, commit, conf)
	target.Repo = &fakeRepo{files: map[vcs.Hash]map[string]string{
		commitHash: {"test/ProblemList.txt": "foo/Bar.java 8201234 generic-all\n"},
	}}
	if issues := runCheck(t, &ProblemListsCheck{}, target); len(issues) != 0 {
		t.Errorf("issues = %+v", issues)
	}
}

func TestCopyrightFormatCheck(t *testing.T) {
	conf := testConf(t, `[checks "copyright"]`,
		`files = \.java$`,
		"oracle_locator = Oracle and/or its affiliates",
		`oracle_validator = Copyright \(c\) \d{4}(, \d{4})?, Oracle and/or its affiliates`,
		"oracle_required = true",
	)
	commit := testCommit([]string{"8201234: A change"},
		modifiedPatch("Good.java", "irrelevant"),
		modifiedPatch("Bad.java", "irrelevant"),
		modifiedPatch("Stripped.java", "irrelevant"),
	)
	target := testTarget(t, commit, conf)
	target.Repo = &fakeRepo{files: map[vcs.Hash]map[string]string{
		commitHash: {
			"Good.java":     "// Copyright (c) 2020, 2024, Oracle and/or its affiliates.\nclass Good {}\n",
			"Bad.java":      "// Copyright 2024 Oracle and/or its affiliates.\nclass Bad {}\n",
			"Stripped.java": "class Stripped {}\n",
		},
		parentHash: {
			"Stripped.java": "// Copyright (c) 2020, Oracle and/or its affiliates.\nclass Stripped {}\n",
		},
	}}

	issues := runCheck(t, &CopyrightFormatCheck{}, target)
	if len(issues) != 1 {
		t.Fatalf("issues = %+v", issues)
	}
	cf, ok := issues[0].(*CopyrightFormatIssue)
	if !ok {
		t.Fatalf("issue = %T", issues[0])
	}
	if got := cf.FilesWithFormatIssue["oracle"]; len(got) != 1 || got[0] != "Bad.java" {
		t.Errorf("format issues = %v", cf.FilesWithFormatIssue)
	}
	if got := cf.FilesWithMissingIssue["oracle"]; len(got) != 1 || got[0] != "Stripped.java" {
		t.Errorf("missing issues = %v", cf.FilesWithMissingIssue)
	}
}

func TestJCheckConfCheck(t *testing.T) {
	conf := testConf(t)
	commit := testCommit([]string{"8201234: A change"})
	target := testTarget(t, commit, conf)
	target.Repo = &fakeRepo{files: map[vcs.Hash]map[string]string{
		commitHash: {".jcheck/conf": "[general] 36542\n"},
	}}

	issues := runCheck(t, &JCheckConfCheck{}, target)
	if len(issues) != 1 {
		t.Fatalf("issues = %+v", issues)
	}
	ji, ok := issues[0].(*JCheckConfIssue)
	if !ok {
		t.Fatalf("issue = %T", issues[0])
	}
	if ji.Message != "line 0: section header must end with ']'" {
		t.Errorf("message = %q", ji.Message)
	}
}

func TestJCheckConfCheckMissingFile(t *testing.T) {
	conf := testConf(t)
	commit := testCommit([]string{"8201234: A change"})
	target := testTarget(t, commit, conf)
	target.Repo = &fakeRepo{files: map[vcs.Hash]map[string]string{}}
	if issues := runCheck(t, &JCheckConfCheck{}, target); len(issues) != 0 {
		t.Errorf("issues = %+v", issues)
	}
}
