// JSON re-emission of decoded records.
//
// Emitter is the output sink: it renders the event stream of one record
// as a single compact JSON line. This is how binary matches (and cat,
// tail) are printed — the binary format's native textual form is JSONL.
package grist

import (
	"bufio"
	"io"
	"math"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
)

// Emitter renders record events as one JSON line per record.
type Emitter struct {
	w     *bufio.Writer
	stack []emitCtx
	str   []byte
}

type emitCtx struct {
	object bool
	n      int // values (and keys) emitted at this level
}

// NewEmitter writes JSON lines to w. Call Flush when done.
func NewEmitter(w io.Writer) *Emitter {
	return &Emitter{w: bufio.NewWriter(w)}
}

// Reset prepares the emitter for the next record.
func (e *Emitter) Reset() {
	e.stack = append(e.stack[:0], emitCtx{})
	e.str = e.str[:0]
}

// EndRecord terminates the current record's line.
func (e *Emitter) EndRecord() {
	e.w.WriteByte('\n')
}

// Flush drains buffered output and reports any write error.
func (e *Emitter) Flush() error {
	return e.w.Flush()
}

// pre writes the separator owed before the next value or key.
func (e *Emitter) pre() {
	top := &e.stack[len(e.stack)-1]
	if top.object {
		if top.n%2 == 0 {
			if top.n > 0 {
				e.w.WriteByte(',')
			}
		} else {
			e.w.WriteByte(':')
		}
	} else if top.n > 0 && len(e.stack) > 1 {
		e.w.WriteByte(',')
	}
}

func (e *Emitter) post() {
	e.stack[len(e.stack)-1].n++
}

func (e *Emitter) OnNull() {
	e.pre()
	e.w.WriteString("null")
	e.post()
}

func (e *Emitter) OnBool(v bool) {
	e.pre()
	if v {
		e.w.WriteString("true")
	} else {
		e.w.WriteString("false")
	}
	e.post()
}

func (e *Emitter) OnInt(v int64) {
	e.pre()
	e.w.Write(strconv.AppendInt(e.num(), v, 10))
	e.post()
}

func (e *Emitter) OnUint(v uint64) {
	e.pre()
	e.w.Write(strconv.AppendUint(e.num(), v, 10))
	e.post()
}

func (e *Emitter) OnDouble(v float64) {
	e.pre()
	// NaN and infinities have no JSON spelling; null keeps the line
	// parseable by the textual decoder.
	if math.IsNaN(v) || math.IsInf(v, 0) {
		e.w.WriteString("null")
	} else {
		e.w.Write(strconv.AppendFloat(e.num(), v, 'g', -1, 64))
	}
	e.post()
}

func (e *Emitter) OnTime(v time.Time) {
	e.pre()
	e.w.WriteByte('"')
	e.w.Write(v.AppendFormat(e.num(), time.RFC3339Nano))
	e.w.WriteByte('"')
	e.post()
}

func (e *Emitter) OnStringStart(size int) {
	e.str = e.str[:0]
}

func (e *Emitter) OnStringFragment(frag []byte) {
	e.str = append(e.str, frag...)
}

func (e *Emitter) OnStringEnd() {
	e.writeString(e.str)
}

func (e *Emitter) OnDictRef(entry []byte) {
	e.writeString(entry)
}

func (e *Emitter) OnObjectStart() {
	e.pre()
	e.w.WriteByte('{')
	e.stack = append(e.stack, emitCtx{object: true})
}

func (e *Emitter) OnObjectEnd() {
	e.stack = e.stack[:len(e.stack)-1]
	e.w.WriteByte('}')
	e.post()
}

func (e *Emitter) OnArrayStart() {
	e.pre()
	e.w.WriteByte('[')
	e.stack = append(e.stack, emitCtx{})
}

func (e *Emitter) OnArrayEnd() {
	e.stack = e.stack[:len(e.stack)-1]
	e.w.WriteByte(']')
	e.post()
}

func (e *Emitter) writeString(s []byte) {
	e.pre()
	quoted, err := json.Marshal(string(s))
	if err != nil {
		quoted = []byte(`""`)
	}
	e.w.Write(quoted)
	e.post()
}

// num hands out a scratch slice for number formatting.
func (e *Emitter) num() []byte {
	return e.str[:0]
}
