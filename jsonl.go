// Textual flavour: line-delimited JSON.
//
// A textual record is a single JSON line. Parsing streams the decoder's
// tokens into a ValueSink, so the match engine sees the same event
// stream for both flavours. Number classification mirrors the binary
// encoding: non-negative integers are uints, negative integers are ints,
// everything else is a double.
package grist

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// parseJSONValue streams one JSON value from line into sink. detectTimes
// selects whether RFC3339 string values become time events (the encoder
// wants that; the textual match path keeps them as strings and lets the
// pattern layer coerce).
func parseJSONValue(line []byte, sink ValueSink, detectTimes bool) error {
	// The token walk alone accepts some malformed input (a missing colon,
	// a truncated literal), so the whole line is validated first.
	if !json.Valid(line) {
		return fmt.Errorf("%w: malformed JSON", ErrCorruptValue)
	}
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()
	t, err := dec.Token()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptValue, err)
	}
	return walkToken(dec, t, sink, detectTimes, 0)
}

func walkToken(dec *json.Decoder, t json.Token, sink ValueSink, detectTimes bool, depth int) error {
	if depth > maxValueDepth {
		return ErrTooDeep
	}

	switch v := t.(type) {
	case json.Delim:
		switch v {
		case '{':
			sink.OnObjectStart()
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return fmt.Errorf("%w: %v", ErrCorruptValue, err)
				}
				key, ok := kt.(string)
				if !ok {
					return fmt.Errorf("%w: non-string key", ErrCorruptValue)
				}
				sinkString(sink, key) // keys are never times
				vt, err := dec.Token()
				if err != nil {
					return fmt.Errorf("%w: %v", ErrCorruptValue, err)
				}
				if err := walkToken(dec, vt, sink, detectTimes, depth+1); err != nil {
					return err
				}
			}
			if _, err := dec.Token(); err != nil { // closing '}'
				return fmt.Errorf("%w: %v", ErrCorruptValue, err)
			}
			sink.OnObjectEnd()

		case '[':
			sink.OnArrayStart()
			for dec.More() {
				et, err := dec.Token()
				if err != nil {
					return fmt.Errorf("%w: %v", ErrCorruptValue, err)
				}
				if err := walkToken(dec, et, sink, detectTimes, depth+1); err != nil {
					return err
				}
			}
			if _, err := dec.Token(); err != nil { // closing ']'
				return fmt.Errorf("%w: %v", ErrCorruptValue, err)
			}
			sink.OnArrayEnd()

		default:
			return fmt.Errorf("%w: unexpected %q", ErrCorruptValue, v.String())
		}

	case string:
		if detectTimes {
			if ts, ok := parseRFC3339(v); ok {
				sink.OnTime(ts)
				return nil
			}
		}
		sinkString(sink, v)

	case json.Number:
		s := v.String()
		if !strings.ContainsAny(s, ".eE") {
			if s[0] != '-' {
				if u, err := strconv.ParseUint(s, 10, 64); err == nil {
					sink.OnUint(u)
					return nil
				}
			} else if i, err := strconv.ParseInt(s, 10, 64); err == nil {
				sink.OnInt(i)
				return nil
			}
		}
		f, err := v.Float64()
		if err != nil {
			return fmt.Errorf("%w: number %q", ErrCorruptValue, s)
		}
		sink.OnDouble(f)

	case bool:
		sink.OnBool(v)

	case nil:
		sink.OnNull()

	default:
		return fmt.Errorf("%w: unexpected token %T", ErrCorruptValue, t)
	}

	return nil
}

// sinkString delivers a whole string through the fragment interface.
func sinkString(sink ValueSink, s string) {
	sink.OnStringStart(len(s))
	sink.OnStringFragment([]byte(s))
	sink.OnStringEnd()
}

// blankLine reports whether a line holds no record.
func blankLine(line []byte) bool {
	return len(bytes.TrimSpace(line)) == 0
}
