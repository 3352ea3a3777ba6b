// Binary record decoder.
//
// The decoder drives one record at a time: it consumes frames from the
// byte source, applies dictionary frames as they pass, and pushes the
// events of the next value frame into the caller's sink. Records are
// always decoded against the dictionary whose reset most recently
// preceded them, so backward seeks within the retention window decode
// exactly as they did the first time.
package grist

import (
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
)

// Decoder reads records from a grist frame stream.
type Decoder struct {
	src   *ByteSource
	dicts *Dictionary
	alg   int
	log   *slog.Logger
}

// NewDecoder wraps src, positioned at a frame boundary. alg is the
// checksum algorithm from the file header.
func NewDecoder(src *ByteSource, alg int, logger *slog.Logger) *Decoder {
	return &Decoder{
		src:   src,
		dicts: NewDictionary(),
		alg:   alg,
		log:   defaultLogger(logger),
	}
}

// NextRecord decodes the next value frame through sink, applying any
// dictionary frames on the way. It returns false with a nil error at a
// clean end of stream.
func (d *Decoder) NextRecord(sink ValueSink) (bool, error) {
	for {
		pos := d.src.Pos()
		hdr, payload, err := d.readFrame()
		if err == io.EOF {
			return false, nil
		}
		if err != nil {
			return false, err
		}

		if hdr.kind == kindValue {
			if err := parseValuePayload(payload, sink, d.dicts.find(pos)); err != nil {
				return false, fmt.Errorf("record at %d: %w", pos, err)
			}
			return true, nil
		}
		if err := d.applyDictFrame(pos, hdr, payload); err != nil {
			return false, err
		}
	}
}

// applyDictFrame folds a dictionary frame into the tracked tables.
func (d *Decoder) applyDictFrame(pos int64, hdr frameHeader, payload []byte) error {
	switch hdr.kind {
	case kindDictReset:
		d.dicts.reset(pos)
	case kindDictAdd:
		dict := d.dicts.find(pos)
		if dict == nil {
			return fmt.Errorf("%w: dict add at %d before any reset", ErrCorruptFrame, pos)
		}
		// The payload view dies with the window; the table outlives it.
		entry := make([]byte, len(payload))
		copy(entry, payload)
		dict.add(pos, entry)
	}
	return nil
}

// readFrame consumes one whole frame, returning its header and a payload
// view valid until the next source operation. A clean end of stream at a
// frame boundary is io.EOF; a partial frame is corruption.
func (d *Decoder) readFrame() (frameHeader, []byte, error) {
	pos := d.src.Pos()

	hb, err := d.src.PeekN(frameHeaderSize)
	if err == io.EOF {
		if len(hb) == 0 {
			return frameHeader{}, nil, io.EOF
		}
		return frameHeader{}, nil, fmt.Errorf("%w: truncated header at %d", ErrCorruptFrame, pos)
	}
	if err != nil {
		return frameHeader{}, nil, err
	}

	hdr, err := parseFrameHeader(hb)
	if err != nil {
		return frameHeader{}, nil, fmt.Errorf("at %d: %w", pos, err)
	}

	fb, err := d.src.PeekN(int(hdr.size))
	if err == io.EOF {
		return frameHeader{}, nil, fmt.Errorf("%w: truncated frame at %d", ErrCorruptFrame, pos)
	}
	if err != nil {
		return frameHeader{}, nil, err
	}

	trailer := binary.LittleEndian.Uint32(fb[hdr.size-sizeFieldBytes:])
	if trailer != hdr.size {
		return frameHeader{}, nil, fmt.Errorf("%w: trailing size %d != %d at %d",
			ErrCorruptFrame, trailer, hdr.size, pos)
	}

	payload := fb[frameHeaderSize : hdr.size-sizeFieldBytes]
	if checksum(payload, d.alg) != hdr.checksum {
		return frameHeader{}, nil, fmt.Errorf("%w: at %d", ErrChecksum, pos)
	}

	if err := d.src.Discard(int64(hdr.size)); err != nil {
		return frameHeader{}, nil, err
	}
	return hdr, payload, nil
}

// SeekSync positions the source at the first true frame boundary at or
// after pos and restores the dictionary state governing that boundary.
// End of stream counts as a boundary: the next NextRecord then reports a
// clean end.
func (d *Decoder) SeekSync(pos int64) error {
	if pos < HeaderSize {
		pos = HeaderSize
	}
	if err := d.src.Seek(pos); err != nil {
		return err
	}

	var skipped int64
	for {
		boundary := d.src.Pos()
		ok, atEOF, err := d.probe()
		if err != nil {
			return err
		}
		if ok {
			if skipped > 0 {
				d.log.Debug("resynced", "target", pos, "boundary", boundary, "skipped", skipped)
			}
			if atEOF {
				return nil
			}
			if err := d.rebuildDict(boundary); err != nil {
				return err
			}
			return d.src.Seek(boundary)
		}
		if err := d.src.Discard(1); err != nil {
			return fmt.Errorf("%w: scanned from %d to end", ErrSyncLost, pos)
		}
		skipped++
	}
}

// probe reports whether the cursor sits on a verifiable frame boundary
// (or exactly at end of stream), without consuming anything.
func (d *Decoder) probe() (ok, atEOF bool, err error) {
	hb, err := d.src.PeekN(frameHeaderSize)
	if err == io.EOF {
		if len(hb) == 0 {
			return true, true, nil
		}
		return false, false, nil
	}
	if err != nil {
		return false, false, err
	}

	hdr, perr := parseFrameHeader(hb)
	if perr != nil {
		return false, false, nil
	}

	fb, err := d.src.PeekN(int(hdr.size))
	if err == io.EOF {
		return false, false, nil
	}
	if err != nil {
		return false, false, err
	}
	if binary.LittleEndian.Uint32(fb[hdr.size-sizeFieldBytes:]) != hdr.size {
		return false, false, nil
	}
	payload := fb[frameHeaderSize : hdr.size-sizeFieldBytes]
	if checksum(payload, d.alg) != hdr.checksum {
		return false, false, nil
	}
	return true, false, nil
}

// rebuildDict restores the dictionary governing the frame boundary:
// walk backward over frames to the nearest dict reset, then replay
// forward, applying the adds. The walk is best-effort — a file that
// never interned has no reset to find, and damage just short of the
// boundary stops the walk early. Either way the decoder proceeds with
// whatever tables it has; a record that then references a missing entry
// fails with a dictionary-miss parse error at that point.
func (d *Decoder) rebuildDict(boundary int64) error {
	if dict := d.dicts.find(boundary); dict != nil && dict.tail >= boundary {
		return nil // still current from a previous pass
	}

	resetAt := int64(-1)
	p := boundary
	for p > HeaderSize {
		if err := d.src.Seek(p - sizeFieldBytes); err != nil {
			return err
		}
		tb, err := d.src.PeekN(sizeFieldBytes)
		if err != nil {
			break
		}
		sz := int64(binary.LittleEndian.Uint32(tb))
		if sz < minFrameSize || sz > maxFrameSize || sz > p-HeaderSize {
			break
		}
		q := p - sz
		if err := d.src.Seek(q); err != nil {
			return err
		}
		hb, err := d.src.PeekN(frameHeaderSize)
		if err != nil {
			break
		}
		hdr, perr := parseFrameHeader(hb)
		if perr != nil || int64(hdr.size) != sz {
			break
		}
		if hdr.kind == kindDictReset {
			resetAt = q
			break
		}
		p = q
	}
	if resetAt < 0 {
		d.log.Debug("no dict reset reachable behind boundary", "boundary", boundary)
		return nil
	}

	d.dicts.reset(resetAt)
	if err := d.src.Seek(resetAt); err != nil {
		return err
	}
	for d.src.Pos() < boundary {
		pos := d.src.Pos()
		hdr, payload, err := d.readFrame()
		if err != nil {
			d.log.Debug("dictionary replay stopped", "pos", pos, "err", err)
			break
		}
		if err := d.applyDictFrame(pos, hdr, payload); err != nil {
			return err
		}
	}
	return nil
}
