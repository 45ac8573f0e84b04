package vcs

import "testing"

func TestParseHash(t *testing.T) {
	raw := "0123456789ABCDEF0123456789abcdef01234567"
	h, err := ParseHash(raw)
	if err != nil {
		t.Fatalf("ParseHash: %v", err)
	}
	if h != "0123456789abcdef0123456789abcdef01234567" {
		t.Errorf("hash = %q, want lowercase form", h)
	}
}

func TestParseHashRejectsMalformed(t *testing.T) {
	for _, raw := range []string{
		"",
		"012345",
		"z123456789abcdef0123456789abcdef01234567",
		"0123456789abcdef0123456789abcdef012345678",
	} {
		if _, err := ParseHash(raw); err == nil {
			t.Errorf("ParseHash(%q): expected an error", raw)
		}
	}
}

func TestHashIsZero(t *testing.T) {
	if !ZeroHash.IsZero() {
		t.Error("ZeroHash must be zero")
	}
	var empty Hash
	if !empty.IsZero() {
		t.Error("empty hash must be zero")
	}
	if Hash("0123456789abcdef0123456789abcdef01234567").IsZero() {
		t.Error("real hash must not be zero")
	}
}

func TestHashAbbreviate(t *testing.T) {
	h := Hash("0123456789abcdef0123456789abcdef01234567")
	if got := h.Abbreviate(); got != "01234567" {
		t.Errorf("abbreviated = %q", got)
	}
}
