package ledger

import (
	"context"
	"fmt"
)

// Withdraw pays out the caller's combined earnings and zeroes both
// balances in the same step.
//
// Eligibility requires at least WithdrawMinChildren direct children
// and a positive combined balance. The balances are drained only after
// the outbound push has succeeded; a failed push leaves them intact.
// No other operation can interleave because the in-flight flag is held
// across the whole call.
func (l *Ledger) Withdraw(ctx context.Context, caller Address) (uint64, error) {
	release, err := l.begin()
	if err != nil {
		return 0, err
	}
	defer release()

	l.mu.Lock()
	acct, ok := l.accounts[caller]
	if !ok || !acct.Joined {
		l.mu.Unlock()
		return 0, ErrNotJoined
	}
	if len(acct.Children) < l.params.WithdrawMinChildren {
		l.mu.Unlock()
		return 0, fmt.Errorf("%w: %d of %d", ErrNotEligible, len(acct.Children), l.params.WithdrawMinChildren)
	}
	amount := addChecked(acct.Direct, acct.Indirect)
	l.mu.Unlock()

	if amount == 0 {
		return 0, ErrNothingToWithdraw
	}

	if err := l.transfer.Push(ctx, caller, amount); err != nil {
		return 0, fmt.Errorf("ledger: push withdrawal: %w", err)
	}

	l.mu.Lock()
	acct.Direct = 0
	acct.Indirect = 0
	l.withdrawn = addChecked(l.withdrawn, amount)
	l.mu.Unlock()

	l.emit(Event{Type: EventWithdrawal, Account: caller, Amount: amount})
	return amount, nil
}
