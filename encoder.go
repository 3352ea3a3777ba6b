// Binary encoder: JSONL in, grist frames out.
//
// The encoder interns strings aggressively: the first occurrence of any
// string (key or value) is written inline and registered with a dict add
// frame; every later occurrence is a dictref: a tag byte and a varint
// index. When the
// table reaches its cap the encoder emits a reset and starts over, which
// is also what bounds how far a decoder ever has to walk back to rebuild
// dictionary state after a seek.
package grist

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"time"
)

// DefaultDictCap is the interning table cap.
const DefaultDictCap = 4096

// EncoderConfig holds encoding options.
type EncoderConfig struct {
	Algorithm int // checksum algorithm, default AlgXXHash3
	DictCap   int // interning table cap, default DefaultDictCap
}

// Encoder writes a grist stream. It implements ValueSink so the JSON
// token walk can drive it directly.
type Encoder struct {
	w       *bufio.Writer
	alg     int
	dictCap int

	lookup  map[string]uint64
	nextID  uint64
	pending []string // interned this record, flushed before its frame

	payload []byte
	str     []byte
	header  *Header
}

// NewEncoder writes the file header and an initial dict reset to w.
func NewEncoder(w io.Writer, cfg EncoderConfig) (*Encoder, error) {
	if cfg.Algorithm == 0 {
		cfg.Algorithm = AlgXXHash3
	}
	if !validAlg(cfg.Algorithm) {
		return nil, fmt.Errorf("unknown checksum algorithm %d", cfg.Algorithm)
	}
	if cfg.DictCap == 0 {
		cfg.DictCap = DefaultDictCap
	}

	e := &Encoder{
		w:       bufio.NewWriter(w),
		alg:     cfg.Algorithm,
		dictCap: cfg.DictCap,
		lookup:  make(map[string]uint64),
		header:  newHeader(cfg.Algorithm),
	}

	hdr, err := e.header.encode()
	if err != nil {
		return nil, err
	}
	if _, err := e.w.Write(hdr); err != nil {
		return nil, err
	}
	if err := e.writeFrame(kindDictReset, nil); err != nil {
		return nil, err
	}
	return e, nil
}

// Header returns the header written to the stream.
func (e *Encoder) Header() *Header { return e.header }

// EncodeLine encodes one JSON line as one record. Blank lines are
// skipped.
func (e *Encoder) EncodeLine(line []byte) error {
	if blankLine(line) {
		return nil
	}

	if e.nextID >= uint64(e.dictCap) {
		if err := e.writeFrame(kindDictReset, nil); err != nil {
			return err
		}
		clear(e.lookup)
		e.nextID = 0
	}

	e.payload = e.payload[:0]
	e.pending = e.pending[:0]
	if err := parseJSONValue(line, e, true); err != nil {
		return err
	}

	for _, s := range e.pending {
		if err := e.writeFrame(kindDictAdd, []byte(s)); err != nil {
			return err
		}
	}
	return e.writeFrame(kindValue, e.payload)
}

// Close flushes buffered frames. It does not close the underlying
// writer.
func (e *Encoder) Close() error {
	return e.w.Flush()
}

func (e *Encoder) writeFrame(kind byte, payload []byte) error {
	frame, err := encodeFrame(kind, payload, e.alg)
	if err != nil {
		return err
	}
	_, err = e.w.Write(frame)
	return err
}

// ValueSink implementation: serialise events into the record payload.

func (e *Encoder) OnNull() { e.payload = append(e.payload, tagNull) }

func (e *Encoder) OnBool(v bool) {
	if v {
		e.payload = append(e.payload, tagTrue)
	} else {
		e.payload = append(e.payload, tagFalse)
	}
}

func (e *Encoder) OnInt(v int64) {
	e.payload = append(e.payload, tagInt)
	e.payload = binary.AppendVarint(e.payload, v)
}

func (e *Encoder) OnUint(v uint64) {
	e.payload = append(e.payload, tagUint)
	e.payload = binary.AppendUvarint(e.payload, v)
}

func (e *Encoder) OnDouble(v float64) {
	e.payload = append(e.payload, tagDouble)
	e.payload = binary.LittleEndian.AppendUint64(e.payload, math.Float64bits(v))
}

func (e *Encoder) OnTime(v time.Time) {
	e.payload = append(e.payload, tagTime)
	e.payload = binary.LittleEndian.AppendUint64(e.payload, uint64(v.UnixMicro()))
}

func (e *Encoder) OnStringStart(size int) { e.str = e.str[:0] }

func (e *Encoder) OnStringFragment(frag []byte) { e.str = append(e.str, frag...) }

func (e *Encoder) OnStringEnd() { e.internString(e.str) }

func (e *Encoder) OnDictRef(entry []byte) { e.internString(entry) }

func (e *Encoder) OnObjectStart() { e.payload = append(e.payload, tagObjectStart) }
func (e *Encoder) OnObjectEnd()   { e.payload = append(e.payload, tagObjectEnd) }
func (e *Encoder) OnArrayStart()  { e.payload = append(e.payload, tagArrayStart) }
func (e *Encoder) OnArrayEnd()    { e.payload = append(e.payload, tagArrayEnd) }

// internString writes either a dictref to a known entry or an inline
// string, registering it for the table as it goes by.
func (e *Encoder) internString(s []byte) {
	if id, ok := e.lookup[string(s)]; ok {
		e.payload = append(e.payload, tagDictRef)
		e.payload = binary.AppendUvarint(e.payload, id)
		return
	}
	if e.nextID < uint64(e.dictCap) {
		e.lookup[string(s)] = e.nextID
		e.nextID++
		e.pending = append(e.pending, string(s))
	}
	e.payload = append(e.payload, tagString)
	e.payload = binary.AppendUvarint(e.payload, uint64(len(s)))
	e.payload = append(e.payload, s...)
}

var _ ValueSink = (*Encoder)(nil)
