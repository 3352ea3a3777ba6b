package grist

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestByteSourceBasics(t *testing.T) {
	src := NewByteSource("test", strings.NewReader("hello\nworld\n"))

	if src.Pos() != 0 {
		t.Errorf("initial pos = %d", src.Pos())
	}
	b, err := src.Peek()
	if err != nil || b != 'h' {
		t.Errorf("peek = %c, %v", b, err)
	}
	if src.Pos() != 0 {
		t.Error("peek must not advance")
	}

	if err := src.Discard(6); err != nil {
		t.Fatal(err)
	}
	if src.Pos() != 6 {
		t.Errorf("pos after discard = %d, want 6", src.Pos())
	}

	line, err := src.ReadLine(nil)
	if err != nil || string(line) != "world" {
		t.Errorf("readline = %q, %v", line, err)
	}

	if _, err := src.ReadLine(nil); err != io.EOF {
		t.Errorf("readline at EOF = %v, want io.EOF", err)
	}
}

func TestByteSourceScanTo(t *testing.T) {
	src := NewByteSource("test", strings.NewReader("abc\ndef"))
	if err := src.ScanTo('\n'); err != nil {
		t.Fatal(err)
	}
	if src.Pos() != 4 {
		t.Errorf("pos after scan = %d, want 4 (just past the delimiter)", src.Pos())
	}
	if err := src.ScanTo('\n'); err != io.EOF {
		t.Errorf("scan past EOF = %v, want io.EOF", err)
	}
}

func TestByteSourcePinnedRewind(t *testing.T) {
	// The pin is what lets a pipe rewind: everything from the pinned
	// offset stays in the window.
	src := NewByteSource("pipe", strings.NewReader("aaaa\nbbbb\ncccc\n"))

	src.SetPin(0)
	line, _ := src.ReadLine(nil)
	if string(line) != "aaaa" {
		t.Fatalf("line = %q", line)
	}
	if _, err := src.ReadLine(nil); err != nil {
		t.Fatal(err)
	}

	if err := src.Seek(0); err != nil {
		t.Fatalf("seek to pin: %v", err)
	}
	line, _ = src.ReadLine(nil)
	if string(line) != "aaaa" {
		t.Errorf("after rewind line = %q, want aaaa", line)
	}
}

func TestByteSourceSeekOutsideWindow(t *testing.T) {
	// Big enough that the window is refilled (and compacted) while
	// reading without a pin.
	big := strings.Repeat(strings.Repeat("x", 1023)+"\n", 100)
	src := NewByteSource("pipe", strings.NewReader(big))

	var line []byte
	for range 90 {
		var err error
		line, err = src.ReadLine(line[:0])
		if err != nil {
			t.Fatal(err)
		}
	}

	err := src.Seek(0)
	if !errors.Is(err, ErrNotSeekable) {
		t.Errorf("seek outside window = %v, want ErrNotSeekable", err)
	}
}

func TestByteSourcePeekN(t *testing.T) {
	src := NewByteSource("test", strings.NewReader("abcdef"))

	view, err := src.PeekN(4)
	if err != nil || string(view) != "abcd" {
		t.Errorf("peekn = %q, %v", view, err)
	}

	view, err = src.PeekN(10)
	if err != io.EOF {
		t.Errorf("peekn past end err = %v, want io.EOF", err)
	}
	if string(view) != "abcdef" {
		t.Errorf("peekn past end view = %q, want all remaining", view)
	}
}

func TestFileByteSourceSeek(t *testing.T) {
	path := writeTempFile(t, []byte("0123456789"))
	src := openFileSource(t, path)

	if !src.Seekable() {
		t.Fatal("file source must be seekable")
	}
	if src.EndPos() != 10 {
		t.Errorf("endpos = %d, want 10", src.EndPos())
	}

	if err := src.Seek(7); err != nil {
		t.Fatal(err)
	}
	b, err := src.Peek()
	if err != nil || b != '7' {
		t.Errorf("after seek peek = %c, %v", b, err)
	}

	// Backward, outside any window.
	if err := src.Seek(1); err != nil {
		t.Fatal(err)
	}
	b, _ = src.Peek()
	if b != '1' {
		t.Errorf("after back-seek peek = %c, want 1", b)
	}
}
