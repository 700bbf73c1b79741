package ledger

import "fmt"

// CheckConservation verifies that every unit ever collected in join
// fees is accounted to exactly one destination: a live earnings
// balance, the commission pool, or a completed payout. Integer
// division in the indirect split must not leak value; the remainder
// and zero-ancestor rules close the gap, and this check proves it for
// the live state.
func (l *Ledger) CheckConservation() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var held uint64
	for _, acct := range l.accounts {
		held = addChecked(held, addChecked(acct.Direct, acct.Indirect))
	}
	accounted := addChecked(held, l.commission)
	accounted = addChecked(accounted, l.withdrawn)
	accounted = addChecked(accounted, l.commissionWithdrawn)

	collected := mulChecked(l.joins, l.params.JoinFee)
	if accounted != collected {
		return fmt.Errorf("%w: collected %d, accounted %d over %d joins",
			ErrConservationViolation, collected, accounted, l.joins)
	}
	return nil
}

// mulChecked multiplies with the same fail-fatal overflow policy as
// addChecked.
func mulChecked(a, b uint64) uint64 {
	if a == 0 || b == 0 {
		return 0
	}
	c := a * b
	if c/a != b {
		panic("ledger: balance arithmetic overflow")
	}
	return c
}
