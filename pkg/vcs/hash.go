// Package vcs defines the version-control value types shared by the diff
// model, the repository readers, and the check engine: content hashes,
// authors, commit metadata, and the structured commit message.
package vcs

import (
	"fmt"
	"strings"
)

// Hash is a 40-character hex-encoded content identifier. The all-zero hash is
// a sentinel meaning "no parent" or "nonexistent file".
type Hash string

const hashHexLen = 40

// ZeroHash is the well-known all-zero sentinel hash.
const ZeroHash = Hash("0000000000000000000000000000000000000000")

// ParseHash validates and normalizes a 40-hex-digit hash string.
func ParseHash(s string) (Hash, error) {
	if len(s) != hashHexLen {
		return "", fmt.Errorf("parse hash %q: want %d hex digits, have %d", s, hashHexLen, len(s))
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
			return "", fmt.Errorf("parse hash %q: invalid hex digit %q", s, c)
		}
	}
	return Hash(strings.ToLower(s)), nil
}

// IsZero reports whether h is the all-zero sentinel or empty.
func (h Hash) IsZero() bool {
	return h == "" || h == ZeroHash
}

// Abbreviate returns the conventional 8-character short form.
func (h Hash) Abbreviate() string {
	if len(h) < 8 {
		return string(h)
	}
	return string(h[:8])
}

func (h Hash) String() string {
	return string(h)
}
