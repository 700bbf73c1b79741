package ledger

import (
	"context"
	"fmt"
)

// WithdrawCommission pays amount out of the commission pool to the
// given account. The caller must be the admin and present the correct
// passcode. The pool is debited only after the push has succeeded.
func (l *Ledger) WithdrawCommission(ctx context.Context, caller Address, passcode string, to Address, amount uint64) error {
	release, err := l.begin()
	if err != nil {
		return err
	}
	defer release()

	if err := l.authorize(caller, passcode); err != nil {
		return err
	}
	if amount == 0 {
		return ErrZeroAmount
	}

	l.mu.Lock()
	pool := l.commission
	l.mu.Unlock()
	if amount > pool {
		return fmt.Errorf("%w: %d > %d", ErrCommissionExceeded, amount, pool)
	}

	if err := l.transfer.Push(ctx, to, amount); err != nil {
		return fmt.Errorf("ledger: push commission: %w", err)
	}

	l.mu.Lock()
	l.commission -= amount
	l.commissionWithdrawn = addChecked(l.commissionWithdrawn, amount)
	l.mu.Unlock()

	l.emit(Event{Type: EventCommissionWithdrawal, Account: to, Amount: amount})
	return nil
}

// RecoverAsset rescues a stray balance of a non-native asset that the
// transfer service ended up holding on the ledger's behalf. Touches no
// ledger balances. Recovering the native asset itself is forbidden
// because that would bypass the accounted pools.
func (l *Ledger) RecoverAsset(ctx context.Context, caller Address, passcode string, asset Asset, to Address, amount uint64) error {
	release, err := l.begin()
	if err != nil {
		return err
	}
	defer release()

	if err := l.authorize(caller, passcode); err != nil {
		return err
	}
	if amount == 0 {
		return ErrZeroAmount
	}
	if asset == l.native {
		return ErrRecoverNativeAsset
	}

	if err := l.transfer.PushAsset(ctx, asset, to, amount); err != nil {
		return fmt.Errorf("ledger: push recovered asset: %w", err)
	}

	l.emit(Event{Type: EventAssetRecovery, Account: to, Asset: asset, Amount: amount})
	return nil
}
