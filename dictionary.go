// String-interning dictionaries for the binary format.
//
// A dict reset frame starts a fresh table; each dict add frame appends
// one entry, whose index is its position in the table. Value frames
// reference entries by index. The decoder keeps the most recent tables
// so that the scan driver's bounded backward seeks can still resolve
// references: a record is always decoded against the table whose reset
// frame most recently preceded it.
package grist

import (
	"cmp"
	"fmt"
	"slices"
)

// dictRetention is how many recent tables the decoder keeps. The scan
// driver's rewind spans at most the before-context window, so this only
// needs to exceed the number of resets such a window can cross.
const dictRetention = 32

// Dict is one interning table: the entries added since a single reset
// frame.
type Dict struct {
	resetPos int64 // offset of the reset frame that started this table
	entries  [][]byte
	tail     int64 // offset of the last applied add frame
}

// add applies the add frame at pos. Re-reading a pinned region replays
// frames the table has already absorbed; those are ignored.
func (d *Dict) add(pos int64, entry []byte) {
	if pos <= d.tail && len(d.entries) > 0 {
		return
	}
	d.entries = append(d.entries, entry)
	d.tail = pos
}

// at resolves an index to its entry.
func (d *Dict) at(idx int) ([]byte, error) {
	if idx < 0 || idx >= len(d.entries) {
		return nil, fmt.Errorf("%w: index %d of %d", ErrDictMiss, idx, len(d.entries))
	}
	return d.entries[idx], nil
}

func (d *Dict) len() int { return len(d.entries) }

// Dictionary tracks the recent tables of one stream, ordered by reset
// offset.
type Dictionary struct {
	dicts []*Dict // sorted by resetPos ascending, at most dictRetention
}

// NewDictionary returns an empty dictionary set.
func NewDictionary() *Dictionary {
	return &Dictionary{}
}

// reset returns the table started by the reset frame at pos, creating it
// if this is the first time that frame has been seen. The oldest table is
// dropped once the retention bound is exceeded.
func (ds *Dictionary) reset(pos int64) *Dict {
	i, found := slices.BinarySearchFunc(ds.dicts, pos, func(d *Dict, p int64) int {
		return cmp.Compare(d.resetPos, p)
	})
	if found {
		return ds.dicts[i]
	}
	d := &Dict{resetPos: pos, tail: pos}
	ds.dicts = slices.Insert(ds.dicts, i, d)
	if len(ds.dicts) > dictRetention {
		ds.dicts = ds.dicts[1:]
	}
	return d
}

// find returns the table governing records at pos: the one with the
// greatest reset offset not after pos. Nil means no table is retained
// there, which is only an error if a record at pos actually interns.
func (ds *Dictionary) find(pos int64) *Dict {
	var best *Dict
	for _, d := range ds.dicts {
		if d.resetPos <= pos {
			best = d
		}
	}
	return best
}
