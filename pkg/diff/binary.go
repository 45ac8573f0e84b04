package diff

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zlib"
)

// parseBinaryHunks parses the blocks following a "GIT binary patch" line:
// each block is "literal <n>" or "delta <n>" followed by base85 data lines,
// terminated by an empty line. Git emits two blocks, the forward and the
// reverse patch.
func parseBinaryHunks(r *LineReader) ([]BinaryHunk, error) {
	var hunks []BinaryHunk
	for {
		line, ok := r.Next()
		for ok && line == "" {
			if len(hunks) == 2 {
				return hunks, nil
			}
			line, ok = r.Next()
		}
		if !ok {
			return hunks, r.Err()
		}

		kind, size, found := strings.Cut(line, " ")
		if !found || (kind != "literal" && kind != "delta") {
			r.Push(line)
			return hunks, nil
		}
		n, err := strconv.Atoi(size)
		if err != nil {
			return nil, fmt.Errorf("parse binary patch: bad size in %q: %w", line, err)
		}

		hunk := BinaryHunk{IsLiteral: kind == "literal", InflatedSize: n}
		for {
			line, ok = r.Next()
			if !ok || line == "" {
				break
			}
			hunk.Data = append(hunk.Data, line)
		}
		hunks = append(hunks, hunk)
		if !ok {
			return hunks, r.Err()
		}
	}
}

// base85 is git's encoding alphabet for binary patch data.
const base85 = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ" +
	"abcdefghijklmnopqrstuvwxyz!#$%&()*+-;<=>?@^_`{|}~"

var base85Dec = func() [256]int8 {
	var dec [256]int8
	for i := range dec {
		dec[i] = -1
	}
	for i := 0; i < len(base85); i++ {
		dec[base85[i]] = int8(i)
	}
	return dec
}()

// decodeBase85Line decodes one data line. The first character encodes the
// payload length: 'A'-'Z' for 1-26 bytes, 'a'-'z' for 27-52.
func decodeBase85Line(line string) ([]byte, error) {
	if len(line) == 0 {
		return nil, fmt.Errorf("decode base85: empty line")
	}
	var n int
	switch c := line[0]; {
	case c >= 'A' && c <= 'Z':
		n = int(c-'A') + 1
	case c >= 'a' && c <= 'z':
		n = int(c-'a') + 27
	default:
		return nil, fmt.Errorf("decode base85: bad length byte %q", line[0])
	}
	data := line[1:]
	if want := (n + 3) / 4 * 5; len(data) != want {
		return nil, fmt.Errorf("decode base85: %d payload bytes need %d encoded, have %d", n, want, len(data))
	}

	out := make([]byte, 0, n)
	for i := 0; i < len(data); i += 5 {
		var acc uint32
		for j := 0; j < 5; j++ {
			v := base85Dec[data[i+j]]
			if v < 0 {
				return nil, fmt.Errorf("decode base85: invalid character %q", data[i+j])
			}
			acc = acc*85 + uint32(v)
		}
		for shift := 24; shift >= 0; shift -= 8 {
			out = append(out, byte(acc>>shift))
		}
	}
	return out[:n], nil
}

// Inflate decodes the hunk's base85 lines and inflates the zlib stream,
// verifying the result against the declared inflated size. For literal hunks
// the result is the complete post-image; for delta hunks it is the raw delta
// program.
func (h BinaryHunk) Inflate() ([]byte, error) {
	var deflated bytes.Buffer
	for _, line := range h.Data {
		chunk, err := decodeBase85Line(line)
		if err != nil {
			return nil, fmt.Errorf("inflate binary hunk: %w", err)
		}
		deflated.Write(chunk)
	}
	zr, err := zlib.NewReader(&deflated)
	if err != nil {
		return nil, fmt.Errorf("inflate binary hunk: %w", err)
	}
	defer zr.Close()
	inflated, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("inflate binary hunk: %w", err)
	}
	if len(inflated) != h.InflatedSize {
		return nil, fmt.Errorf("inflate binary hunk: declared %d bytes, inflated %d", h.InflatedSize, len(inflated))
	}
	return inflated, nil
}
