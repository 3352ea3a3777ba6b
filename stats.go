// File statistics.
//
// Stats walks the whole input once: frame accounting at the container
// level and value-kind accounting through a counting sink. Dictionary
// frames are counted and their payload bytes summed; the interned
// entries themselves are not listed.
package grist

import (
	"fmt"
	"io"
	"time"
)

// Stats summarises one input.
type Stats struct {
	Name   string
	Format Format
	Header *Header // nil for textual inputs

	Bytes   int64
	Records uint64

	// Binary only.
	Frames     uint64
	DictResets uint64
	DictAdds   uint64
	ValueBytes uint64
	DictBytes  uint64

	Values ValueCounts
}

// ValueCounts tallies scalar and container events across all records.
type ValueCounts struct {
	Nulls    uint64
	Bools    uint64
	Ints     uint64
	Uints    uint64
	Doubles  uint64
	Times    uint64
	Strings  uint64
	DictRefs uint64
	Objects  uint64
	Arrays   uint64
}

// countSink is a ValueSink that only counts.
type countSink struct {
	c ValueCounts
}

func (s *countSink) OnNull()                 { s.c.Nulls++ }
func (s *countSink) OnBool(bool)             { s.c.Bools++ }
func (s *countSink) OnInt(int64)             { s.c.Ints++ }
func (s *countSink) OnUint(uint64)           { s.c.Uints++ }
func (s *countSink) OnDouble(float64)        { s.c.Doubles++ }
func (s *countSink) OnTime(time.Time)        { s.c.Times++ }
func (s *countSink) OnStringStart(int)       { s.c.Strings++ }
func (s *countSink) OnStringFragment([]byte) {}
func (s *countSink) OnStringEnd()            {}
func (s *countSink) OnDictRef([]byte)        { s.c.DictRefs++ }
func (s *countSink) OnObjectStart()          { s.c.Objects++ }
func (s *countSink) OnObjectEnd()            {}
func (s *countSink) OnArrayStart()           { s.c.Arrays++ }
func (s *countSink) OnArrayEnd()             {}

// CollectStats consumes the input and returns its summary.
func CollectStats(in *Input) (*Stats, error) {
	st := &Stats{Name: in.Name, Format: in.Format, Header: in.Header}
	sink := &countSink{}

	switch in.Format {
	case FormatBinary:
		st.Bytes = HeaderSize
		dec := NewDecoder(in.Src, in.Header.Algorithm, nil)
		for {
			pos := in.Src.Pos()
			hdr, payload, err := dec.readFrame()
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, err
			}
			st.Frames++
			st.Bytes += int64(hdr.size)
			switch hdr.kind {
			case kindValue:
				st.Records++
				st.ValueBytes += uint64(len(payload))
				if err := parseValuePayload(payload, sink, dec.dicts.find(pos)); err != nil {
					return nil, fmt.Errorf("record at %d: %w", pos, err)
				}
			case kindDictReset:
				st.DictResets++
				if err := dec.applyDictFrame(pos, hdr, payload); err != nil {
					return nil, err
				}
			case kindDictAdd:
				st.DictAdds++
				st.DictBytes += uint64(len(payload))
				if err := dec.applyDictFrame(pos, hdr, payload); err != nil {
					return nil, err
				}
			}
		}

	case FormatText:
		var line []byte
		for {
			var err error
			line, err = in.Src.ReadLine(line[:0])
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, err
			}
			st.Bytes += int64(len(line)) + 1
			if blankLine(line) {
				continue
			}
			st.Records++
			if err := parseJSONValue(line, sink, false); err != nil {
				return nil, fmt.Errorf("line at %d: %w", st.Bytes-int64(len(line))-1, err)
			}
		}
	}

	st.Values = sink.c
	return st, nil
}
