// Linear scan driver.
//
// The driver walks records forward, running each through the match sink.
// A ring of record start offsets plus a pin on the byte source is all
// the state context reporting needs: on a match the source seeks back to
// the oldest buffered offset and the records are re-parsed through the
// output sink. That costs a second decode per emitted record, which is
// the floor for a SAX interface that cannot replay events, and keeps
// memory at O(before_context) offsets.
package grist

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"slices"
)

// Grepper runs one pattern over one input.
type Grepper struct {
	pat  *Pattern
	src  *ByteSource
	fl   flavor
	sink *matchSink
	out  io.Writer // count-mode tally
	log  *slog.Logger
}

// Run executes the search in the mode the pattern selects.
func (g *Grepper) Run() error {
	var err error
	if g.pat.Bisect {
		err = g.bisect()
	} else {
		err = g.scan()
	}
	if ferr := g.fl.flush(); err == nil {
		err = ferr
	}
	return err
}

func (g *Grepper) scan() error {
	p := g.pat
	if p.Count {
		p.BeforeContext, p.AfterContext = 0, 0
	}

	posBuf := make([]int64, 0, p.BeforeContext+1)
	force := 0
	var total uint64
	matchPos := g.src.Pos()

	numMatches := uint64(math.MaxUint64)
	if p.NumMatches != nil {
		numMatches = *p.NumMatches
	}
	suffixLength := int64(math.MaxInt64)
	if p.ScanSuffix != nil {
		suffixLength = *p.ScanSuffix
	}

	for {
		if _, err := g.src.Peek(); err == io.EOF {
			break
		} else if err != nil {
			return err
		}

		if force == 0 {
			if total >= numMatches {
				break
			}
			if g.src.Pos()-matchPos > suffixLength {
				break
			}
		}

		recPos := g.src.Pos()
		// Counting never rewinds, so it needs neither the position ring
		// nor the pin (which would oblige the source to retain the whole
		// stream).
		if !p.Count {
			if len(posBuf) == p.BeforeContext+1 {
				posBuf = slices.Delete(posBuf, 0, 1)
			}
			posBuf = append(posBuf, recPos)
			g.src.SetPin(posBuf[0])
		}

		ok, err := g.fl.parseValue()
		if err != nil {
			return err
		}
		if !ok {
			break
		}

		switch {
		case g.sink.matched && total < numMatches:
			matchPos = recPos
			total++
			if p.Count {
				continue
			}
			// Seeking back across the buffered records is safe: we have
			// been in sync the whole way, so the dictionaries they need
			// are still retained unless the window spans more resets
			// than the decoder keeps.
			if err := g.src.Seek(posBuf[0]); err != nil {
				return err
			}
			for range posBuf {
				if _, err := g.fl.outputValue(); err != nil {
					return err
				}
			}
			posBuf = posBuf[:0]
			g.src.ClearPin()
			force = p.AfterContext

		case force > 0:
			if err := g.src.Seek(posBuf[len(posBuf)-1]); err != nil {
				return err
			}
			if _, err := g.fl.outputValue(); err != nil {
				return err
			}
			force--
			// Already emitted; drop it so a later match's before-context
			// cannot emit it again.
			posBuf = posBuf[:0]
		}
	}

	if p.Count {
		fmt.Fprintf(g.out, "%d\n", total)
	}
	return nil
}
