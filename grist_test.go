package grist

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// encodeLines builds a grist stream from JSON lines.
func encodeLines(t *testing.T, cfg EncoderConfig, lines ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	enc, err := NewEncoder(&buf, cfg)
	if err != nil {
		t.Fatalf("new encoder: %v", err)
	}
	for _, line := range lines {
		if err := enc.EncodeLine([]byte(line)); err != nil {
			t.Fatalf("encode %q: %v", line, err)
		}
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
	return buf.Bytes()
}

// writeTempFile persists data and returns its path.
func writeTempFile(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.grist")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write test file: %v", err)
	}
	return path
}

// openFileSource opens path as a seekable source.
func openFileSource(t *testing.T, path string) *ByteSource {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open test file: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return NewFileByteSource(path, f)
}

// openBinary opens a grist byte stream as an Input via a temp file.
func openBinary(t *testing.T, data []byte) *Input {
	t.Helper()
	in, err := OpenInput(writeTempFile(t, data), nil)
	if err != nil {
		t.Fatalf("open input: %v", err)
	}
	t.Cleanup(func() { in.Close() })
	return in
}

// decodeAll renders every record of a binary stream as JSON lines.
func decodeAll(t *testing.T, in *Input) []string {
	t.Helper()
	var buf bytes.Buffer
	dec := NewDecoder(in.Src, in.Header.Algorithm, nil)
	emit := NewEmitter(&buf)
	for {
		emit.Reset()
		ok, err := dec.NextRecord(emit)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !ok {
			break
		}
		emit.EndRecord()
	}
	if err := emit.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	return splitLines(buf.String())
}

func splitLines(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// intPattern mirrors what the CLI builds for an integer flag:
// non-negative integers are unsigned on the wire, so both patterns are
// set.
func intPattern(v int64) *Pattern {
	p := &Pattern{Int: &v}
	if v >= 0 {
		u := uint64(v)
		p.Uint = &u
	}
	return p
}

func strp(s string) *string { return &s }
