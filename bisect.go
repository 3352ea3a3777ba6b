// Bisect driver.
//
// For files whose records are ordered by the patterned value, the search
// narrows a byte range by probing midpoints with the pattern relaxed to
// match-or-greater: a probe that matches means the first interesting
// record lies at or before it. Equality alone could not steer the
// search — it cannot tell "before the first match" from "past the last".
// Once the window is small the driver realigns a prefix before it and
// hands off to the linear scan with a suffix budget big enough to cover
// the whole uncertainty window.
package grist

import "fmt"

const (
	scanThreshold = 256 * 1024
	prefixAmount  = 512 * 1024
	// Must exceed prefixAmount + scanThreshold so the scan phase covers
	// the entire region where the first match could be before the
	// suffix budget can expire.
	suffixAmount = scanThreshold + prefixAmount + 266*1024
)

func (g *Grepper) bisect() error {
	if !g.src.Seekable() {
		return fmt.Errorf("cannot binary search in non-seekable file %q: %w",
			g.src.Name(), ErrNotSeekable)
	}

	p := g.pat
	p.matchOrGreater = true
	defer func() { p.matchOrGreater = false }()

	start, end := int64(0), g.src.EndPos()
	for end > start {
		if end-start <= scanThreshold {
			syncAt := start - prefixAmount
			if syncAt < 0 {
				syncAt = 0
			}
			if err := g.fl.seekSync(syncAt); err != nil {
				g.halt("sync", syncAt, err)
				return nil
			}
			suffix := int64(suffixAmount)
			p.ScanSuffix = &suffix
			p.matchOrGreater = false
			return g.scan()
		}

		mid := start + (end-start)/2
		if err := g.fl.seekSync(mid); err != nil {
			g.halt("sync", mid, err)
			return nil
		}

		sor := g.src.Pos() // start of the record the probe landed on
		ok, err := g.fl.parseValue()
		if err != nil {
			g.halt("probe", sor, err)
			return nil
		}
		if !ok {
			break
		}

		if g.sink.matched {
			if sor < end {
				end = sor
			} else {
				// Resyncing forward from the midpoint overshot the whole
				// window: a single record spans it. Bisecting again would
				// land in the same place forever, so collapse the window
				// and let the next iteration take the scan branch.
				end = start + 1
			}
		} else {
			start = sor
		}
	}
	return nil
}

// halt reports a failed probe and gives up on the bisect. The legacy
// contract is that this is not an error at the CLI layer: whatever the
// scan phase printed so far stands, and the exit code stays zero.
func (g *Grepper) halt(stage string, pos int64, err error) {
	g.log.Debug("bisect halted", "stage", stage, "pos", pos, "err", err)
}
