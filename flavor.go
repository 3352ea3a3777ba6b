// Flavour adapters for the search drivers.
//
// The drivers only need three operations — realign to a record boundary,
// run one record through the match sink, re-emit one record — and the
// two formats provide them differently: the binary flavour resyncs by
// frame probing and re-emits as JSON lines, the textual flavour resyncs
// to the next newline and echoes lines byte-for-byte.
package grist

import (
	"bufio"
	"io"
	"log/slog"
)

// flavor is the capability set a driver runs against.
type flavor interface {
	// seekSync positions the source at a true record boundary at or
	// after pos.
	seekSync(pos int64) error
	// parseValue runs the next record through the match sink. False
	// means a clean end of stream.
	parseValue() (bool, error)
	// outputValue re-emits the next record through the output sink.
	outputValue() (bool, error)
	// flush drains buffered output.
	flush() error
}

// NewBinaryGrepper builds a Grepper over a grist stream positioned at
// its first frame. alg is the checksum algorithm from the file header.
// Matches are re-emitted as JSON lines on out.
func NewBinaryGrepper(pat *Pattern, src *ByteSource, alg int, out io.Writer, logger *slog.Logger) *Grepper {
	sink := newMatchSink(pat)
	return &Grepper{
		pat:  pat,
		src:  src,
		sink: sink,
		out:  out,
		log:  defaultLogger(logger),
		fl: &binaryFlavor{
			dec:  NewDecoder(src, alg, logger),
			sink: sink,
			emit: NewEmitter(out),
		},
	}
}

// NewTextGrepper builds a Grepper over line-delimited JSON. Matches are
// echoed byte-for-byte on out.
func NewTextGrepper(pat *Pattern, src *ByteSource, out io.Writer, logger *slog.Logger) *Grepper {
	sink := newMatchSink(pat)
	return &Grepper{
		pat:  pat,
		src:  src,
		sink: sink,
		out:  out,
		log:  defaultLogger(logger),
		fl: &textFlavor{
			src:  src,
			sink: sink,
			w:    bufio.NewWriter(out),
		},
	}
}

// binaryFlavor adapts the grist decoder.
type binaryFlavor struct {
	dec  *Decoder
	sink *matchSink
	emit *Emitter
}

func (f *binaryFlavor) seekSync(pos int64) error {
	return f.dec.SeekSync(pos)
}

func (f *binaryFlavor) parseValue() (bool, error) {
	f.sink.initForValue()
	return f.dec.NextRecord(f.sink)
}

func (f *binaryFlavor) outputValue() (bool, error) {
	f.emit.Reset()
	ok, err := f.dec.NextRecord(f.emit)
	if err != nil || !ok {
		return ok, err
	}
	f.emit.EndRecord()
	return true, nil
}

func (f *binaryFlavor) flush() error { return f.emit.Flush() }

// textFlavor adapts line-delimited JSON.
type textFlavor struct {
	src  *ByteSource
	sink *matchSink
	w    *bufio.Writer
	line []byte
}

func (f *textFlavor) seekSync(pos int64) error {
	if err := f.src.Seek(pos); err != nil {
		return err
	}
	if pos == 0 {
		return nil // known boundary: start of stream
	}
	if err := f.src.ScanTo('\n'); err == io.EOF {
		return nil // boundary is end of stream
	} else if err != nil {
		return err
	}
	return nil
}

// nextLine reads the next non-blank line. False means end of stream.
func (f *textFlavor) nextLine() (bool, error) {
	for {
		line, err := f.src.ReadLine(f.line[:0])
		f.line = line
		if err == io.EOF {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		if !blankLine(line) {
			return true, nil
		}
	}
}

func (f *textFlavor) parseValue() (bool, error) {
	ok, err := f.nextLine()
	if err != nil || !ok {
		return ok, err
	}
	f.sink.initForValue()
	if err := parseJSONValue(f.line, f.sink, false); err != nil {
		return false, err
	}
	return true, nil
}

func (f *textFlavor) outputValue() (bool, error) {
	ok, err := f.nextLine()
	if err != nil || !ok {
		return ok, err
	}
	f.w.Write(f.line)
	f.w.WriteByte('\n')
	return true, nil
}

func (f *textFlavor) flush() error { return f.w.Flush() }
