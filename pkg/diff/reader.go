package diff

import (
	"bufio"
	"io"
)

// LineReader scans text line by line with single-line pushback. The parsers
// routinely read one line past the construct they are consuming, push it
// back, and let the caller dispatch on it.
type LineReader struct {
	scanner *bufio.Scanner
	pushed  []string
	err     error
}

// NewLineReader wraps r for line-oriented parsing. Lines may be arbitrarily
// long; diff content regularly exceeds bufio's default token size.
func NewLineReader(r io.Reader) *LineReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	return &LineReader{scanner: sc}
}

// NewLineReaderOf wraps an in-memory line slice, used by tests and by the
// comparator's scratch re-diffing.
func NewLineReaderOf(lines []string) *LineReader {
	return &LineReader{pushed: reverse(lines)}
}

func reverse(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[len(lines)-1-i] = l
	}
	return out
}

// Next returns the next line. The second result is false at end of input.
func (r *LineReader) Next() (string, bool) {
	if n := len(r.pushed); n > 0 {
		line := r.pushed[n-1]
		r.pushed = r.pushed[:n-1]
		return line, true
	}
	if r.scanner == nil {
		return "", false
	}
	if !r.scanner.Scan() {
		r.err = r.scanner.Err()
		return "", false
	}
	return r.scanner.Text(), true
}

// Push returns a line to the reader; the next call to Next yields it again.
func (r *LineReader) Push(line string) {
	r.pushed = append(r.pushed, line)
}

// Peek returns the next line without consuming it.
func (r *LineReader) Peek() (string, bool) {
	line, ok := r.Next()
	if ok {
		r.Push(line)
	}
	return line, ok
}

// Err reports any underlying read error encountered by Next.
func (r *LineReader) Err() error {
	return r.err
}
