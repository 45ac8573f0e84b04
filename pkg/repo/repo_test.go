package repo

import (
	"strings"
	"testing"
	"time"

	"github.com/revet-dev/revet/pkg/vcs"
)

var (
	headHash   = strings.Repeat("ab", 20)
	firstHash  = strings.Repeat("cd", 20)
	secondHash = strings.Repeat("ef", 20)
)

func TestSplitLines(t *testing.T) {
	if lines := SplitLines(nil); len(lines) != 0 {
		t.Errorf("empty input: lines = %q", lines)
	}
	lines := SplitLines([]byte("first\nsecond\n"))
	if len(lines) != 2 || lines[0] != "first" || lines[1] != "second" {
		t.Errorf("lines = %q", lines)
	}
	// A missing final newline must not drop the last line.
	lines = SplitLines([]byte("first\nsecond"))
	if len(lines) != 2 || lines[1] != "second" {
		t.Errorf("lines = %q", lines)
	}
}

func TestGitMetadataParsing(t *testing.T) {
	m, err := metadataFromShow([]string{
		headHash,
		firstHash,
		"Foo Smith",
		"foo@openjdk.org",
		"Bar Jones",
		"bar@openjdk.org",
		"2026-02-01T10:30:00+01:00",
		"2026-02-02T09:00:00Z",
		"8201234: A change",
		"",
		"Reviewed-by: bar",
		"",
	})
	if err != nil {
		t.Fatalf("metadataFromShow: %v", err)
	}
	if m.Hash != vcs.Hash(headHash) {
		t.Errorf("hash = %s", m.Hash)
	}
	if len(m.Parents) != 1 || m.Parents[0] != vcs.Hash(firstHash) {
		t.Errorf("parents = %v", m.Parents)
	}
	if m.Author.Name != "Foo Smith" || m.Author.Email != "foo@openjdk.org" {
		t.Errorf("author = %+v", m.Author)
	}
	if m.Committer.Name != "Bar Jones" || m.Committer.Email != "bar@openjdk.org" {
		t.Errorf("committer = %+v", m.Committer)
	}
	if !m.AuthoredDate.Equal(time.Date(2026, 2, 1, 10, 30, 0, 0, time.FixedZone("", 3600))) {
		t.Errorf("authored = %v", m.AuthoredDate)
	}
	if !m.CommittedDate.Equal(time.Date(2026, 2, 2, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("committed = %v", m.CommittedDate)
	}
	want := []string{"8201234: A change", "", "Reviewed-by: bar"}
	if len(m.Message) != len(want) {
		t.Fatalf("message = %q", m.Message)
	}
	for i := range want {
		if m.Message[i] != want[i] {
			t.Errorf("message[%d] = %q, want %q", i, m.Message[i], want[i])
		}
	}
}

func TestGitMetadataRootCommit(t *testing.T) {
	m, err := metadataFromShow([]string{
		headHash,
		"",
		"Foo Smith",
		"foo@openjdk.org",
		"Foo Smith",
		"foo@openjdk.org",
		"2026-02-01T10:30:00Z",
		"2026-02-01T10:30:00Z",
		"8201234: A change",
	})
	if err != nil {
		t.Fatalf("metadataFromShow: %v", err)
	}
	if !m.IsInitialCommit() {
		t.Errorf("parents = %v, want the zero sentinel", m.Parents)
	}
}

func TestGitMetadataMergeParents(t *testing.T) {
	m, err := metadataFromShow([]string{
		headHash,
		firstHash + " " + secondHash,
		"Foo Smith",
		"foo@openjdk.org",
		"Foo Smith",
		"foo@openjdk.org",
		"2026-02-01T10:30:00Z",
		"2026-02-01T10:30:00Z",
		"Merge",
	})
	if err != nil {
		t.Fatalf("metadataFromShow: %v", err)
	}
	if !m.IsMerge() || len(m.Parents) != 2 || m.Parents[1] != vcs.Hash(secondHash) {
		t.Errorf("parents = %v", m.Parents)
	}
}

func TestGitMetadataErrors(t *testing.T) {
	if _, err := metadataFromShow([]string{headHash, "", "Foo"}); err == nil {
		t.Error("truncated output must fail")
	}
	if _, err := metadataFromShow([]string{
		headHash, "", "Foo Smith", "foo@openjdk.org", "Foo Smith", "foo@openjdk.org",
		"yesterday", "2026-02-01T10:30:00Z", "8201234: A change",
	}); err == nil {
		t.Error("malformed date must fail")
	}
}

func hgRecord(lines ...string) string {
	return strings.Join(lines, "\n")
}

func TestHgMetadataFromRecord(t *testing.T) {
	record := hgRecord(
		headHash,
		firstHash,
		string(vcs.ZeroHash),
		"Foo Smith",
		"foo@openjdk.org",
		"2026-02-01T10:30:00+01:00",
		"8201234: A change",
		"",
		"Reviewed-by: bar",
		"",
	)
	m, err := new(Hg).metadataFromRecord(record)
	if err != nil {
		t.Fatalf("metadataFromRecord: %v", err)
	}
	if m.Hash != vcs.Hash(headHash) {
		t.Errorf("hash = %s", m.Hash)
	}
	// The null second parent must not survive as a real parent.
	if len(m.Parents) != 1 || m.Parents[0] != vcs.Hash(firstHash) {
		t.Errorf("parents = %v", m.Parents)
	}
	if m.Author.Name != "Foo Smith" || m.Author.Email != "foo@openjdk.org" {
		t.Errorf("author = %+v", m.Author)
	}
	if m.Committer != m.Author {
		t.Errorf("committer = %+v, want the author identity", m.Committer)
	}
	if !m.AuthoredDate.Equal(m.CommittedDate) {
		t.Errorf("dates differ: %v vs %v", m.AuthoredDate, m.CommittedDate)
	}
	want := []string{"8201234: A change", "", "Reviewed-by: bar"}
	if len(m.Message) != len(want) || m.Message[2] != want[2] {
		t.Errorf("message = %q", m.Message)
	}
}

func TestHgMetadataFromRecordRoot(t *testing.T) {
	record := hgRecord(
		headHash,
		string(vcs.ZeroHash),
		string(vcs.ZeroHash),
		"Foo Smith",
		"foo@openjdk.org",
		"2026-02-01T10:30:00Z",
		"8201234: A change",
	)
	m, err := new(Hg).metadataFromRecord(record)
	if err != nil {
		t.Fatalf("metadataFromRecord: %v", err)
	}
	if !m.IsInitialCommit() {
		t.Errorf("parents = %v, want the zero sentinel", m.Parents)
	}
}

func TestHgMetadataFromRecordTruncated(t *testing.T) {
	if _, err := new(Hg).metadataFromRecord(hgRecord(headHash, firstHash)); err == nil {
		t.Error("truncated record must fail")
	}
}
