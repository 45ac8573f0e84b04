package diff

import (
	"reflect"
	"strings"
	"testing"

	"github.com/revet-dev/revet/pkg/vcs"
)

const (
	hashA = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	hashB = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	hashC = "cccccccccccccccccccccccccccccccccccccccc"
	zeros = "0000000000000000000000000000000000000000"
)

const modifyAndAddDiff = `:100644 100644 ` + hashA + ` ` + hashB + ` M	pkg/main.c
:000000 100644 ` + zeros + ` ` + hashC + ` A	docs/NOTES

diff --git a/pkg/main.c b/pkg/main.c
index aaaa..bbbb 100644
--- a/pkg/main.c
+++ b/pkg/main.c
@@ -1,4 +1,4 @@
 line one
-line two
+line 2
 line three
 line four
diff --git a/docs/NOTES b/docs/NOTES
new file mode 100644
index 0000..cccc
--- /dev/null
+++ b/docs/NOTES
@@ -0,0 +1,2 @@
+first
+second
`

func TestParseGitDiff(t *testing.T) {
	r := NewLineReader(strings.NewReader(modifyAndAddDiff))
	d, err := ParseGitDiff(r, vcs.Hash(hashA), vcs.Hash(hashB), false)
	if err != nil {
		t.Fatalf("ParseGitDiff: %v", err)
	}
	if len(d.Patches) != 2 {
		t.Fatalf("patches = %d, want 2", len(d.Patches))
	}

	modified := d.Patches[0]
	if !modified.Status.IsModified() {
		t.Errorf("status = %s", modified.Status)
	}
	if modified.SourcePath != "pkg/main.c" || modified.TargetPath != "pkg/main.c" {
		t.Errorf("paths = %q -> %q", modified.SourcePath, modified.TargetPath)
	}
	if len(modified.Hunks) != 1 {
		t.Fatalf("hunks = %d, want 1", len(modified.Hunks))
	}
	h := modified.Hunks[0]
	if h.Source.Range != (Range{Start: 2, Count: 1}) || h.Target.Range != (Range{Start: 2, Count: 1}) {
		t.Errorf("ranges = -%s +%s", h.Source.Range, h.Target.Range)
	}
	if !reflect.DeepEqual(h.Source.Lines, []string{"line two"}) ||
		!reflect.DeepEqual(h.Target.Lines, []string{"line 2"}) {
		t.Errorf("lines = %v -> %v", h.Source.Lines, h.Target.Lines)
	}

	added := d.Patches[1]
	if !added.Status.IsAdded() {
		t.Errorf("status = %s", added.Status)
	}
	if added.SourcePath != "" {
		t.Errorf("added patch must have no source path, have %q", added.SourcePath)
	}
	if added.TargetPath != "docs/NOTES" {
		t.Errorf("target path = %q", added.TargetPath)
	}
	if len(added.Hunks) != 1 || len(added.Hunks[0].Target.Lines) != 2 {
		t.Fatalf("added hunks = %v", added.Hunks)
	}
	if len(added.Hunks[0].Source.Lines) != 0 {
		t.Errorf("added hunk must have no source lines")
	}
}

func TestParseGitDiffCountMismatch(t *testing.T) {
	input := ":100644 100644 " + hashA + " " + hashB + " M\tpkg/main.c\n"
	r := NewLineReader(strings.NewReader(input))
	if _, err := ParseGitDiff(r, vcs.ZeroHash, vcs.ZeroHash, false); err == nil {
		t.Fatal("expected an error for a raw line without a patch section")
	}
}

func TestParseGitDiffPureRename(t *testing.T) {
	input := ":100644 100644 " + hashA + " " + hashA + " R100\told.txt\tnew.txt\n" +
		"diff --git a/old.txt b/new.txt\n" +
		"similarity index 100%\n" +
		"rename from old.txt\n" +
		"rename to new.txt\n"
	r := NewLineReader(strings.NewReader(input))
	d, err := ParseGitDiff(r, vcs.ZeroHash, vcs.ZeroHash, false)
	if err != nil {
		t.Fatalf("ParseGitDiff: %v", err)
	}
	if len(d.Patches) != 1 {
		t.Fatalf("patches = %d", len(d.Patches))
	}
	p := d.Patches[0]
	if !p.Status.IsRenamed() || p.Status.Score() != 100 {
		t.Errorf("status = %s", p.Status)
	}
	if p.SourcePath != "old.txt" || p.TargetPath != "new.txt" {
		t.Errorf("paths = %q -> %q", p.SourcePath, p.TargetPath)
	}
	if len(p.Hunks) != 0 {
		t.Errorf("pure rename must have no hunks")
	}
}

func TestParseGitDiffBinaryFile(t *testing.T) {
	input := ":100644 100644 " + hashA + " " + hashB + " M\tlogo.png\n" +
		"diff --git a/logo.png b/logo.png\n" +
		"index aaaa..bbbb 100644\n" +
		"Binary files a/logo.png and b/logo.png differ\n"
	r := NewLineReader(strings.NewReader(input))
	d, err := ParseGitDiff(r, vcs.ZeroHash, vcs.ZeroHash, false)
	if err != nil {
		t.Fatalf("ParseGitDiff: %v", err)
	}
	if len(d.Patches) != 1 || !d.Patches[0].IsBinary {
		t.Fatalf("patches = %+v", d.Patches)
	}
	if len(d.Patches[0].Hunks) != 0 || len(d.Patches[0].BinaryHunks) != 0 {
		t.Errorf("binary-files patch must carry no hunk content")
	}
}

func TestParseUnifiedHunksContextSplitsHunks(t *testing.T) {
	lines := []string{
		"@@ -1,5 +1,5 @@",
		"-one",
		"+ONE",
		" two",
		"-three",
		"+THREE",
		" four",
		" five",
	}
	hunks, err := ParseUnifiedHunks(NewLineReaderOf(lines))
	if err != nil {
		t.Fatalf("ParseUnifiedHunks: %v", err)
	}
	if len(hunks) != 2 {
		t.Fatalf("hunks = %d, want 2", len(hunks))
	}
	if hunks[0].Source.Range.Start != 1 || hunks[1].Source.Range.Start != 3 {
		t.Errorf("starts = %d, %d", hunks[0].Source.Range.Start, hunks[1].Source.Range.Start)
	}
	if hunks[1].Target.Range.Start != 3 {
		t.Errorf("second hunk target start = %d", hunks[1].Target.Range.Start)
	}
}

func TestParseUnifiedHunksNoNewlineMarkers(t *testing.T) {
	lines := []string{
		"@@ -1 +1 @@",
		"-old",
		`\ No newline at end of file`,
		"+new",
		`\ No newline at end of file`,
	}
	hunks, err := ParseUnifiedHunks(NewLineReaderOf(lines))
	if err != nil {
		t.Fatalf("ParseUnifiedHunks: %v", err)
	}
	if len(hunks) != 1 {
		t.Fatalf("hunks = %d", len(hunks))
	}
	if hunks[0].Source.HasTrailingNewline || hunks[0].Target.HasTrailingNewline {
		t.Errorf("both sides must report a missing trailing newline")
	}
}

func TestParseUnifiedHunksRejectsGarbage(t *testing.T) {
	lines := []string{
		"@@ -1,2 +1,2 @@",
		"-old",
		"*what",
		"+new",
	}
	// A non-diff line terminates the body; the remaining "+new" is then
	// unreachable, which surfaces as a short parse, not an error.
	hunks, err := ParseUnifiedHunks(NewLineReaderOf(lines))
	if err != nil {
		t.Fatalf("ParseUnifiedHunks: %v", err)
	}
	if len(hunks) != 1 || len(hunks[0].Target.Lines) != 0 {
		t.Errorf("hunks = %+v", hunks)
	}
}

func TestRenderHunkRoundTrip(t *testing.T) {
	h := NewHunk(
		Range{Start: 4, Count: 2}, []string{"alpha", "beta"},
		Range{Start: 4, Count: 1}, []string{"gamma"},
	)
	h.Target.HasTrailingNewline = false
	parsed, err := ParseUnifiedHunks(NewLineReaderOf(RenderHunk(h)))
	if err != nil {
		t.Fatalf("ParseUnifiedHunks: %v", err)
	}
	if len(parsed) != 1 {
		t.Fatalf("hunks = %d", len(parsed))
	}
	if !reflect.DeepEqual(parsed[0], h) {
		t.Errorf("round trip changed the hunk:\nhave %+v\nwant %+v", parsed[0], h)
	}
}

func TestHunkStats(t *testing.T) {
	h := NewHunk(
		Range{Start: 1, Count: 3}, []string{"a", "b", "c"},
		Range{Start: 1, Count: 1}, []string{"x"},
	)
	s := h.Stats()
	if s.Modified != 1 || s.Removed != 2 || s.Added != 0 {
		t.Errorf("stats = %+v", s)
	}
	if s.Changed() != 3 {
		t.Errorf("changed = %d", s.Changed())
	}
}

func TestParseRange(t *testing.T) {
	r, err := ParseRange("3,7")
	if err != nil || r != (Range{Start: 3, Count: 7}) {
		t.Errorf("ParseRange(3,7) = %v, %v", r, err)
	}
	r, err = ParseRange("12")
	if err != nil || r != (Range{Start: 12, Count: 1}) {
		t.Errorf("ParseRange(12) = %v, %v", r, err)
	}
	if _, err := ParseRange("x,1"); err == nil {
		t.Error("expected an error for a non-numeric start")
	}
}
