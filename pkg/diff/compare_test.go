package diff

import (
	"strings"
	"testing"

	"github.com/revet-dev/revet/pkg/vcs"
)

func parseFixture(t *testing.T, input string) *Diff {
	t.Helper()
	d, err := ParseGitDiff(NewLineReader(strings.NewReader(input)), vcs.Hash(hashA), vcs.Hash(hashB), false)
	if err != nil {
		t.Fatalf("ParseGitDiff: %v", err)
	}
	return d
}

func TestAreFuzzyEqualReflexive(t *testing.T) {
	d := parseFixture(t, modifyAndAddDiff)
	var c Comparator
	if !c.AreFuzzyEqual(d, d) {
		t.Error("a diff must be fuzzy equal to itself")
	}
}

func TestAreFuzzyEqualIgnoresPatchOrder(t *testing.T) {
	a := parseFixture(t, modifyAndAddDiff)
	b := parseFixture(t, modifyAndAddDiff)
	b.Patches[0], b.Patches[1] = b.Patches[1], b.Patches[0]
	var c Comparator
	if !c.AreFuzzyEqual(a, b) || !c.AreFuzzyEqual(b, a) {
		t.Error("patch order must not affect fuzzy equality")
	}
}

func TestAreFuzzyEqualDetectsContentChange(t *testing.T) {
	a := parseFixture(t, modifyAndAddDiff)
	b := parseFixture(t, modifyAndAddDiff)
	b.Patches[0].Hunks[0].Target.Lines = []string{"line TWO"}
	var c Comparator
	if c.AreFuzzyEqual(a, b) {
		t.Error("changed hunk content must break fuzzy equality")
	}
}

const oracleHeader = " * Copyright (c) 2020, Oracle and/or its affiliates. All rights reserved."
const oracleHeaderNewer = " * Copyright (c) 2020, 2024, Oracle and/or its affiliates. All rights reserved."

func copyrightChurnPatch(target string) *Patch {
	return &Patch{
		SourcePath: "A.java", SourceFileType: FileTypeRegular, SourceHash: vcs.Hash(hashA),
		TargetPath: "A.java", TargetFileType: FileTypeRegular, TargetHash: vcs.Hash(hashB),
		Status: StatusModified(),
		Hunks: []Hunk{NewHunk(
			Range{Start: 2, Count: 1}, []string{oracleHeader},
			Range{Start: 2, Count: 1}, []string{target},
		)},
	}
}

func TestFuzzyEqualityIgnoresCopyrightChurn(t *testing.T) {
	a := &Diff{Patches: []*Patch{copyrightChurnPatch(oracleHeader)}}
	b := &Diff{Patches: []*Patch{copyrightChurnPatch(oracleHeaderNewer)}}

	strict := Comparator{}
	if strict.AreFuzzyEqual(a, b) {
		t.Error("strict comparison must see the year change")
	}
	lenient := Comparator{IgnoreCopyrightFormat: true}
	if !lenient.AreFuzzyEqual(a, b) {
		t.Error("lenient comparison must ignore pure copyright churn")
	}
}

func TestComparatorDiffOfEqualDiffsIsEmpty(t *testing.T) {
	a := parseFixture(t, modifyAndAddDiff)
	b := parseFixture(t, modifyAndAddDiff)
	var c Comparator
	dd := c.Diff(a, b)
	if len(dd.Patches) != 0 {
		t.Errorf("diff of equal diffs has %d patches", len(dd.Patches))
	}
}

func TestComparatorDiffDetectsDivergence(t *testing.T) {
	a := parseFixture(t, modifyAndAddDiff)
	b := parseFixture(t, modifyAndAddDiff)
	b.Patches[1].Hunks[0].Target.Lines = []string{"first", "SECOND"}
	var c Comparator
	dd := c.Diff(a, b)
	if len(dd.Patches) != 1 {
		t.Fatalf("patches = %d, want 1", len(dd.Patches))
	}
	p := dd.Patches[0]
	if p.Path() != "docs/NOTES" || !p.Status.IsModified() {
		t.Errorf("patch = %s %s", p.Status, p.Path())
	}
	found := false
	for _, h := range p.Hunks {
		for _, l := range h.Target.Lines {
			if l == "SECOND" {
				found = true
			}
		}
	}
	if !found {
		t.Error("diff of diffs must surface the diverging line")
	}
}
