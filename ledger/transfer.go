package ledger

import "context"

// ValueTransfer is the external service that actually moves funds.
// The ledger only accounts; it never holds value itself.
//
// Pull and Push must be atomic: they either move the full amount and
// return nil, or move nothing and return an error. Their outcome is
// the only uncertainty in any ledger operation, so operations order
// the transfer call before (pull) or after (push) committing local
// state, never in between.
type ValueTransfer interface {
	// Pull moves amount of the native asset from the account into
	// ledger custody.
	Pull(ctx context.Context, from Address, amount uint64) error

	// Push moves amount of the native asset out of ledger custody to
	// the account.
	Push(ctx context.Context, to Address, amount uint64) error

	// PushAsset moves amount of an arbitrary asset out of ledger
	// custody. Used only for admin recovery of stray balances.
	PushAsset(ctx context.Context, asset Asset, to Address, amount uint64) error

	// Decimals reports the native asset's precision. Queried once at
	// initialization to derive the scaling factor.
	Decimals(ctx context.Context) (uint8, error)
}

// MockTransfer is a test double for ValueTransfer. Function fields
// must be set before the corresponding method is called, except
// DecimalsFn which defaults to zero precision.
type MockTransfer struct {
	PullFn      func(ctx context.Context, from Address, amount uint64) error
	PushFn      func(ctx context.Context, to Address, amount uint64) error
	PushAssetFn func(ctx context.Context, asset Asset, to Address, amount uint64) error
	DecimalsFn  func(ctx context.Context) (uint8, error)
}

func (m *MockTransfer) Pull(ctx context.Context, from Address, amount uint64) error {
	return m.PullFn(ctx, from, amount)
}

func (m *MockTransfer) Push(ctx context.Context, to Address, amount uint64) error {
	return m.PushFn(ctx, to, amount)
}

func (m *MockTransfer) PushAsset(ctx context.Context, asset Asset, to Address, amount uint64) error {
	return m.PushAssetFn(ctx, asset, to, amount)
}

func (m *MockTransfer) Decimals(ctx context.Context) (uint8, error) {
	if m.DecimalsFn == nil {
		return 0, nil
	}
	return m.DecimalsFn(ctx)
}
