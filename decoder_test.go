package grist

import (
	"encoding/binary"
	"errors"
	"strings"
	"testing"
)

func TestRoundtrip(t *testing.T) {
	lines := []string{
		`{"n":5}`,
		`{"msg":"hello","level":"info"}`,
		`{"neg":-42,"f":1.5,"ok":true,"gone":null}`,
		`{"nested":{"a":[1,2,{"b":"c"}]},"empty":{},"none":[]}`,
		`{"ts":"2026-08-06T12:00:00Z"}`,
		`{"s":"line\nbreak\ttab \"q\" back\\slash é"}`,
		`["bare","array",7]`,
		`"just a string"`,
		`12345`,
	}
	in := openBinary(t, encodeLines(t, EncoderConfig{}, lines...))

	got := decodeAll(t, in)
	if len(got) != len(lines) {
		t.Fatalf("decoded %d records, want %d", len(got), len(lines))
	}
	for i, want := range lines {
		if got[i] != want {
			t.Errorf("record %d = %q, want %q", i, got[i], want)
		}
	}
}

func TestRoundtripInterning(t *testing.T) {
	// The same strings repeated across records must come back intact
	// through dictrefs.
	var lines []string
	for range 50 {
		lines = append(lines, `{"level":"info","msg":"server started"}`)
	}
	in := openBinary(t, encodeLines(t, EncoderConfig{}, lines...))
	got := decodeAll(t, in)
	if len(got) != 50 {
		t.Fatalf("decoded %d records, want 50", len(got))
	}
	for i := range got {
		if got[i] != lines[i] {
			t.Fatalf("record %d = %q, want %q", i, got[i], lines[i])
		}
	}
}

func TestRoundtripDictReset(t *testing.T) {
	// A tiny cap forces resets mid-stream; decoding must follow along.
	lines := []string{
		`{"a":"one"}`,
		`{"b":"two"}`,
		`{"c":"three"}`,
		`{"a":"one"}`,
	}
	in := openBinary(t, encodeLines(t, EncoderConfig{DictCap: 3}, lines...))
	got := decodeAll(t, in)
	if len(got) != len(lines) {
		t.Fatalf("decoded %d records, want %d", len(got), len(lines))
	}
	for i := range lines {
		if got[i] != lines[i] {
			t.Errorf("record %d = %q, want %q", i, got[i], lines[i])
		}
	}
}

func TestChecksumAlgorithms(t *testing.T) {
	for _, alg := range []int{AlgXXHash3, AlgFNV1a, AlgBlake2b} {
		in := openBinary(t, encodeLines(t, EncoderConfig{Algorithm: alg}, `{"n":1}`))
		if in.Header.Algorithm != alg {
			t.Errorf("alg %d: header says %d", alg, in.Header.Algorithm)
		}
		got := decodeAll(t, in)
		if len(got) != 1 || got[0] != `{"n":1}` {
			t.Errorf("alg %d: decoded %q", alg, got)
		}
	}
}

func TestCorruptPayloadDetected(t *testing.T) {
	data := encodeLines(t, EncoderConfig{}, `{"msg":"hello hello hello"}`)

	// Flip one byte inside the last frame's payload.
	data[len(data)-10] ^= 0xff

	in := openBinary(t, data)
	dec := NewDecoder(in.Src, in.Header.Algorithm, nil)
	sink := newMatchSink(intPattern(1))
	for {
		sink.initForValue()
		ok, err := dec.NextRecord(sink)
		if err != nil {
			if !errors.Is(err, ErrChecksum) {
				t.Errorf("err = %v, want ErrChecksum", err)
			}
			return
		}
		if !ok {
			t.Fatal("corruption slipped through undetected")
		}
	}
}

func TestTruncatedFrameDetected(t *testing.T) {
	data := encodeLines(t, EncoderConfig{}, `{"msg":"hello"}`)
	in := openBinary(t, data[:len(data)-5])

	dec := NewDecoder(in.Src, in.Header.Algorithm, nil)
	sink := newMatchSink(intPattern(1))
	for {
		sink.initForValue()
		ok, err := dec.NextRecord(sink)
		if err != nil {
			if !errors.Is(err, ErrCorruptFrame) {
				t.Errorf("err = %v, want ErrCorruptFrame", err)
			}
			return
		}
		if !ok {
			t.Fatal("expected an error before clean EOF")
		}
	}
}

func TestSeekSyncFindsNextRecord(t *testing.T) {
	lines := []string{
		`{"n":0,"tag":"alpha"}`,
		`{"n":1,"tag":"beta"}`,
		`{"n":2,"tag":"gamma"}`,
		`{"n":3,"tag":"alpha"}`,
	}
	in := openBinary(t, encodeLines(t, EncoderConfig{}, lines...))

	// Consume everything once to learn the frame layout, then seek into
	// the middle of the stream and resync.
	all := decodeAll(t, in)
	if len(all) != 4 {
		t.Fatalf("decoded %d records, want 4", len(all))
	}

	dec := NewDecoder(in.Src, in.Header.Algorithm, nil)
	mid := (in.Src.EndPos() - HeaderSize) / 2
	if err := dec.SeekSync(HeaderSize + mid); err != nil {
		t.Fatalf("seeksync: %v", err)
	}

	var buf strings.Builder
	emit := NewEmitter(&buf)
	var got []string
	for {
		emit.Reset()
		ok, err := dec.NextRecord(emit)
		if err != nil {
			t.Fatalf("decode after resync: %v", err)
		}
		if !ok {
			break
		}
		emit.EndRecord()
	}
	if err := emit.Flush(); err != nil {
		t.Fatal(err)
	}
	got = splitLines(buf.String())

	if len(got) == 0 || len(got) >= 4 {
		t.Fatalf("resync from the middle decoded %d records", len(got))
	}
	// Whatever it decoded must be a correct suffix of the stream,
	// dictrefs included.
	want := lines[len(lines)-len(got):]
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("record %d after resync = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSeekSyncPastGarbage(t *testing.T) {
	// Garbage spliced between two frames: resync must skip it and land
	// on the next real frame.
	head := encodeLines(t, EncoderConfig{}, `{"n":0}`)
	tail := encodeLines(t, EncoderConfig{}, `{"n":1}`)

	var data []byte
	data = append(data, head...)
	data = append(data, []byte("!!!garbage!!!")...)
	data = append(data, tail[HeaderSize:]...) // frames only

	in := openBinary(t, data)
	dec := NewDecoder(in.Src, in.Header.Algorithm, nil)
	if err := dec.SeekSync(int64(len(head))); err != nil {
		t.Fatalf("seeksync: %v", err)
	}

	var buf strings.Builder
	emit := NewEmitter(&buf)
	emit.Reset()
	ok, err := dec.NextRecord(emit)
	if err != nil || !ok {
		t.Fatalf("decode after garbage: ok=%v err=%v", ok, err)
	}
	emit.EndRecord()
	emit.Flush()
	if got := splitLines(buf.String()); len(got) != 1 || got[0] != `{"n":1}` {
		t.Errorf("record after garbage = %q, want {\"n\":1}", buf.String())
	}
}

func TestSeekSyncAtEOF(t *testing.T) {
	in := openBinary(t, encodeLines(t, EncoderConfig{}, `{"n":0}`))
	dec := NewDecoder(in.Src, in.Header.Algorithm, nil)
	if err := dec.SeekSync(in.Src.EndPos()); err != nil {
		t.Fatalf("seeksync at EOF: %v", err)
	}
	ok, err := dec.NextRecord(newMatchSink(intPattern(0)))
	if err != nil {
		t.Fatalf("next at EOF: %v", err)
	}
	if ok {
		t.Error("no record expected at EOF")
	}
}

func TestFrameHeaderValidation(t *testing.T) {
	frame, err := encodeFrame(kindValue, []byte{tagNull}, AlgXXHash3)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := parseFrameHeader(frame); err != nil {
		t.Fatalf("valid header rejected: %v", err)
	}

	tests := []struct {
		name string
		mut  func(b []byte)
	}{
		{"bad magic", func(b []byte) { b[4] = 0x00 }},
		{"bad version", func(b []byte) { b[5] = 0x99 }},
		{"bad kind", func(b []byte) { b[6] = 0x7f }},
		{"nonzero flags", func(b []byte) { b[7] = 1 }},
		{"tiny size", func(b []byte) { binary.LittleEndian.PutUint32(b, 3) }},
		{"huge size", func(b []byte) { binary.LittleEndian.PutUint32(b, maxFrameSize+1) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cp := make([]byte, len(frame))
			copy(cp, frame)
			tt.mut(cp)
			if _, err := parseFrameHeader(cp); err == nil {
				t.Error("corrupt header accepted")
			}
		})
	}
}

func TestValuePayloadMalformed(t *testing.T) {
	sink := newMatchSink(intPattern(1))
	tests := []struct {
		name    string
		payload []byte
	}{
		{"empty", []byte{}},
		{"unknown tag", []byte{0x7f}},
		{"truncated double", []byte{tagDouble, 1, 2}},
		{"unterminated object", []byte{tagObjectStart}},
		{"unterminated array", []byte{tagArrayStart, tagNull}},
		{"truncated string", []byte{tagString, 10, 'a'}},
		{"trailing bytes", []byte{tagNull, tagNull}},
		{"dictref without dict", []byte{tagDictRef, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink.initForValue()
			if err := parseValuePayload(tt.payload, sink, nil); err == nil {
				t.Error("malformed payload accepted")
			}
		})
	}
}
