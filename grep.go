// Streaming match engine.
//
// matchSink evaluates a Pattern against the event stream of one record
// without materialising the record. It keeps a stack of context markers
// mirroring the container nesting: in an object, even event counts are
// keys and odd counts are their values; checkVal records whether values
// at the level are eligible to match. Eligibility starts at the top
// (true unless a key pattern is set), is switched per key inside
// objects, and is inherited by arrays, so everything nested under a
// matched key in arrays stays eligible.
package grist

import "time"

type ctxKind uint8

const (
	ctxBare ctxKind = iota
	ctxObject
	ctxArray
)

type contextMarker struct {
	kind     ctxKind
	counter  int
	checkVal bool
}

// matchSink is the ValueSink that decides whether one record matches.
type matchSink struct {
	pat     *Pattern
	str     []byte
	collect bool
	stack   []contextMarker
	matched bool
}

func newMatchSink(pat *Pattern) *matchSink {
	return &matchSink{
		pat:   pat,
		str:   make([]byte, 0, 1<<16),
		stack: make([]contextMarker, 0, 16),
	}
}

// initForValue resets per-record state. Must be called before each
// record; the drivers own that.
func (m *matchSink) initForValue() {
	m.stack = append(m.stack[:0], contextMarker{
		kind:     ctxBare,
		checkVal: !m.pat.requiresKeyMatch(),
	})
	m.matched = false
	m.collect = false
	m.str = m.str[:0]
}

func (m *matchSink) top() *contextMarker { return &m.stack[len(m.stack)-1] }

// isKey reports whether the event under the cursor is an object key.
func (m *matchSink) isKey() bool {
	c := m.top()
	return c.kind == ctxObject && c.counter%2 == 0
}

func (m *matchSink) incr() { m.top().counter++ }

func (m *matchSink) OnNull() {
	if m.top().checkVal && m.pat.matchesAtom(AtomNull) {
		m.matched = true
	}
	m.incr()
}

func (m *matchSink) OnBool(v bool) {
	atom := AtomFalse
	if v {
		atom = AtomTrue
	}
	if m.top().checkVal && m.pat.matchesAtom(atom) {
		m.matched = true
	}
	m.incr()
}

func (m *matchSink) OnInt(v int64) {
	if m.top().checkVal && m.pat.matchesInt(v) {
		m.matched = true
	}
	m.incr()
}

func (m *matchSink) OnUint(v uint64) {
	if m.top().checkVal && m.pat.matchesUint(v) {
		m.matched = true
	}
	m.incr()
}

func (m *matchSink) OnDouble(v float64) {
	if m.top().checkVal && m.pat.matchesDouble(v) {
		m.matched = true
	}
	m.incr()
}

func (m *matchSink) OnTime(v time.Time) {
	if m.top().checkVal && m.pat.matchesTime(v) {
		m.matched = true
	}
	m.incr()
}

// OnStringStart decides whether the string needs to be assembled at all:
// only when a string or timestamp pattern could use it, or when it may
// be a key we have to compare.
func (m *matchSink) OnStringStart(size int) {
	m.str = m.str[:0]
	m.collect = m.pat.Str != nil || m.pat.Time != nil ||
		(m.pat.requiresKeyMatch() && m.isKey())
}

func (m *matchSink) OnStringFragment(frag []byte) {
	if m.collect {
		m.str = append(m.str, frag...)
	}
}

func (m *matchSink) OnStringEnd() {
	m.checkString(m.str)
	m.incr()
}

// OnDictRef behaves exactly like a materialised string, minus the copy.
func (m *matchSink) OnDictRef(entry []byte) {
	m.checkString(entry)
	m.incr()
}

func (m *matchSink) OnObjectStart() {
	// Values become eligible only once their key matches.
	m.stack = append(m.stack, contextMarker{kind: ctxObject})
}

func (m *matchSink) OnObjectEnd() {
	m.stack = m.stack[:len(m.stack)-1]
	m.incr()
}

func (m *matchSink) OnArrayStart() {
	m.stack = append(m.stack, contextMarker{
		kind:     ctxArray,
		checkVal: m.top().checkVal,
	})
}

func (m *matchSink) OnArrayEnd() {
	m.stack = m.stack[:len(m.stack)-1]
	m.incr()
}

func (m *matchSink) checkString(s []byte) {
	if m.isKey() {
		m.top().checkVal = m.pat.matchesKey(s)
		return
	}
	if m.top().checkVal && m.pat.matchesString(s) {
		m.matched = true
	}
}
