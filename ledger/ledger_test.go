package ledger

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/refnetorg/refledger-go/refcode"
)

const testPasscode = "correct horse battery staple"

func testAddr(seed byte) Address {
	var a Address
	for i := range a {
		a[i] = seed
	}
	return a
}

var adminAddr = testAddr(0xAD)

// okTransfer returns a mock whose calls all succeed, reporting a
// two-decimal asset (fee 1000, direct 200, indirect 100, admin 700).
func okTransfer() *MockTransfer {
	return &MockTransfer{
		PullFn:      func(context.Context, Address, uint64) error { return nil },
		PushFn:      func(context.Context, Address, uint64) error { return nil },
		PushAssetFn: func(context.Context, Asset, Address, uint64) error { return nil },
		DecimalsFn:  func(context.Context) (uint8, error) { return 2, nil },
	}
}

func newTestLedger(t *testing.T) (*Ledger, *MockTransfer, *CaptureRecorder) {
	t.Helper()
	mock := okTransfer()
	rec := &CaptureRecorder{}
	l, err := New(context.Background(), Options{
		Transfer:    mock,
		NativeAsset: "native",
		Admin:       adminAddr,
		Passcode:    testPasscode,
		Recorder:    rec,
	})
	require.NoError(t, err)
	return l, mock, rec
}

// join admits the account under the given sponsor's code ("" = admin)
// and fails the test on error.
func join(t *testing.T, l *Ledger, caller Address, code refcode.Code) {
	t.Helper()
	require.NoError(t, l.Join(context.Background(), caller, code))
}

func codeOf(t *testing.T, l *Ledger, a Address) refcode.Code {
	t.Helper()
	code, ok := l.CodeOf(a)
	require.True(t, ok)
	return code
}

// --- Initialization tests ---

func TestNew_SeedsAdmin(t *testing.T) {
	l, _, _ := newTestLedger(t)

	assert.True(t, l.IsJoined(adminAddr))
	assert.Equal(t, adminAddr, l.Admin())

	code := codeOf(t, l, adminAddr)
	assert.True(t, refcode.Valid(code))
	owner, ok := l.Resolve(code)
	require.True(t, ok)
	assert.Equal(t, adminAddr, owner)

	direct, indirect := l.Balances(adminAddr)
	assert.Zero(t, direct)
	assert.Zero(t, indirect)
	assert.Zero(t, l.CommissionPool())
	assert.Zero(t, l.Joins())

	_, ok = l.SponsorOf(adminAddr)
	assert.False(t, ok, "admin roots the forest and has no sponsor")
}

func TestNew_ScalingFactor(t *testing.T) {
	mock := okTransfer()
	mock.DecimalsFn = func(context.Context) (uint8, error) { return 8, nil }
	l, err := New(context.Background(), Options{
		Transfer: mock,
		Admin:    adminAddr,
		Passcode: testPasscode,
	})
	require.NoError(t, err)

	p := l.Params()
	assert.Equal(t, uint64(10_0000_0000), p.JoinFee)
	assert.Equal(t, uint64(2_0000_0000), p.DirectReward)
	assert.Equal(t, uint64(1_0000_0000), p.IndirectPool)
	assert.Equal(t, uint64(7_0000_0000), p.AdminReward)
	assert.NoError(t, p.Validate())
}

func TestNew_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := New(ctx, Options{Passcode: testPasscode})
	assert.ErrorIs(t, err, ErrNilTransfer)

	_, err = New(ctx, Options{Transfer: okTransfer()})
	assert.ErrorIs(t, err, ErrEmptyPasscode)

	mock := okTransfer()
	mock.DecimalsFn = func(context.Context) (uint8, error) { return 0, errors.New("node down") }
	_, err = New(ctx, Options{Transfer: mock, Admin: adminAddr, Passcode: testPasscode})
	assert.ErrorContains(t, err, "node down")

	mock = okTransfer()
	mock.DecimalsFn = func(context.Context) (uint8, error) { return 19, nil }
	_, err = New(ctx, Options{Transfer: mock, Admin: adminAddr, Passcode: testPasscode})
	assert.ErrorIs(t, err, ErrPrecisionTooLarge)

	bad := Params{JoinFee: 10, DirectReward: 5, IndirectPool: 1, AdminReward: 7, IndirectDepth: 10}
	_, err = New(ctx, Options{Transfer: okTransfer(), Admin: adminAddr, Passcode: testPasscode, Params: &bad})
	assert.ErrorIs(t, err, ErrParamsUnbalanced)
}

// --- Registry tests ---

func TestRegistry_AttachOrder(t *testing.T) {
	l, _, _ := newTestLedger(t)

	members := []Address{testAddr(1), testAddr(2), testAddr(3)}
	for _, m := range members {
		join(t, l, m, "")
	}

	assert.Equal(t, members, l.ChildrenOf(adminAddr), "children keep attachment order")
	for _, m := range members {
		sponsor, ok := l.SponsorOf(m)
		require.True(t, ok)
		assert.Equal(t, adminAddr, sponsor)
	}
}

func TestRegistry_CodeIndexBijective(t *testing.T) {
	l, _, _ := newTestLedger(t)

	seen := make(map[refcode.Code]Address)
	seen[codeOf(t, l, adminAddr)] = adminAddr

	for i := 1; i <= 50; i++ {
		m := testAddr(byte(i))
		join(t, l, m, "")
		code := codeOf(t, l, m)

		assert.True(t, refcode.Valid(code))
		_, dup := seen[code]
		require.False(t, dup, "code %s assigned twice", code)
		seen[code] = m

		owner, ok := l.Resolve(code)
		require.True(t, ok)
		assert.Equal(t, m, owner)
	}
}

func TestRegistry_UnknownLookups(t *testing.T) {
	l, _, _ := newTestLedger(t)
	ghost := testAddr(0x99)

	assert.False(t, l.IsJoined(ghost))
	assert.Nil(t, l.ChildrenOf(ghost))
	_, ok := l.CodeOf(ghost)
	assert.False(t, ok)
	_, ok = l.Resolve("ZZZZZZ")
	assert.False(t, ok)
	direct, indirect := l.Balances(ghost)
	assert.Zero(t, direct)
	assert.Zero(t, indirect)
}

// --- Parameter tests ---

func TestParamsForDecimals_TooLarge(t *testing.T) {
	_, err := ParamsForDecimals(19)
	assert.ErrorIs(t, err, ErrPrecisionTooLarge)
}

func TestParams_Validate(t *testing.T) {
	tests := []struct {
		name string
		p    Params
		ok   bool
	}{
		{"balanced", Params{JoinFee: 10, DirectReward: 2, IndirectPool: 1, AdminReward: 7, IndirectDepth: 10, WithdrawMinChildren: 10}, true},
		{"fee too small", Params{JoinFee: 9, DirectReward: 2, IndirectPool: 1, AdminReward: 7, IndirectDepth: 10}, false},
		{"fee too large", Params{JoinFee: 11, DirectReward: 2, IndirectPool: 1, AdminReward: 7, IndirectDepth: 10}, false},
		{"zero fee", Params{IndirectDepth: 10}, false},
		{"zero depth", Params{JoinFee: 10, DirectReward: 2, IndirectPool: 1, AdminReward: 7}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrParamsUnbalanced)
			}
		})
	}
}

func TestAddress_ParseRoundTrip(t *testing.T) {
	a := testAddr(0x5A)
	parsed, err := ParseAddress(a.String())
	require.NoError(t, err)
	assert.Equal(t, a, parsed)

	_, err = ParseAddress("zz")
	assert.ErrorIs(t, err, ErrInvalidAddress)
	_, err = ParseAddress("abcd")
	assert.ErrorIs(t, err, ErrInvalidAddress)
	_, err = ParseAddress(fmt.Sprintf("%042x", 0))
	assert.ErrorIs(t, err, ErrInvalidAddress)
}
