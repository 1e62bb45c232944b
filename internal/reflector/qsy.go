package reflector

// qsyPool implements the random-TG allocation pool (spec.md §3 "QSY pool").
// The cursor always advances before being tested, exactly as the original
// reflector's requestQsy walks its range — so the first candidate tried
// after construction is lo, not hi, even though the cursor is seeded at hi.
type qsyPool struct {
	lo, hi uint32
	next   uint32
}

func newQsyPool(lo, hi uint32) qsyPool {
	return qsyPool{lo: lo, hi: hi, next: hi}
}

// enabled reports whether the pool carries any eligible TGs (spec.md §3:
// "lo >= 1, hi >= lo, or the pool is disabled (lo == hi == 0)").
func (p *qsyPool) enabled() bool {
	return p.lo != 0 || p.hi != 0
}

// allocate walks the range starting one step past the current cursor,
// circularly, picking the first TG for which empty(tg) is true. It advances
// the cursor on success and returns (tg, true); if no TG in the range is
// empty within one full lap, the cursor is left unchanged and it returns
// (0, false).
func (p *qsyPool) allocate(empty func(tg uint32) bool) (uint32, bool) {
	if !p.enabled() {
		return 0, false
	}
	rangeSize := p.hi - p.lo + 1
	cursor := p.next
	for i := uint32(0); i < rangeSize; i++ {
		if cursor < p.hi {
			cursor++
		} else {
			cursor = p.lo
		}
		if empty(cursor) {
			p.next = cursor
			return cursor, true
		}
	}
	return 0, false
}
