// Package ledger implements the referral network and its reward
// ledger: the account registry, the earnings ledger, the join
// protocol, the withdrawal gate, and the passcode-gated admin
// controls over the commission pool.
//
// All state lives in a single Ledger aggregate. Every public operation
// executes as one indivisible step: it either completes with all
// invariants restored or fails with no observable mutation.
package ledger

import (
	"encoding/hex"
	"fmt"

	"github.com/refnetorg/refledger-go/refcode"
)

// AddressSize is the byte length of an account address.
const AddressSize = 20

// Address identifies an account. Addresses are opaque to the ledger;
// they originate from the external value-transfer service's key space.
type Address [AddressSize]byte

// String returns the lowercase hex encoding of the address.
func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

// ParseAddress decodes a 40-character hex string into an Address.
func ParseAddress(s string) (Address, error) {
	var a Address
	b, err := hex.DecodeString(s)
	if err != nil {
		return a, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if len(b) != AddressSize {
		return a, fmt.Errorf("%w: %d bytes, want %d", ErrInvalidAddress, len(b), AddressSize)
	}
	copy(a[:], b)
	return a, nil
}

// Asset names an asset held by the value-transfer service. The ledger
// accounts for exactly one native asset; any other asset it ends up
// holding can only be rescued through admin recovery.
type Asset string

// Account is a participant in the referral forest.
//
// Joined is monotonic: once true it never reverts. Sponsor is only
// meaningful for non-admin accounts; the admin roots the forest and
// has no sponsor. Children preserves attachment order.
type Account struct {
	Addr     Address
	Joined   bool
	Sponsor  Address
	Children []Address
	Code     refcode.Code
	Direct   uint64
	Indirect uint64
}

// Default policy values. The reward constants are small-integer
// multiples of the scaling factor; see ParamsForDecimals.
const (
	feeUnits      = 10
	directUnits   = 2
	indirectUnits = 1
	adminUnits    = 7

	// DefaultIndirectDepth is the maximum number of ancestors above
	// the sponsor that share the indirect pool.
	DefaultIndirectDepth = 10

	// DefaultWithdrawMinChildren is the minimum number of direct
	// children required before an account may withdraw.
	DefaultWithdrawMinChildren = 10

	// maxDecimals bounds the scaling factor so that the join fee
	// still fits in uint64.
	maxDecimals = 18
)

// Params carries the policy constants of a ledger instance. They are
// fixed for the lifetime of the ledger; the algorithms never reference
// reward literals directly.
type Params struct {
	JoinFee             uint64
	DirectReward        uint64
	IndirectPool        uint64
	AdminReward         uint64
	IndirectDepth       int
	WithdrawMinChildren int
}

// ParamsForDecimals derives the default parameters for an asset with
// the given precision: every reward constant is its unit count scaled
// by 10^decimals.
func ParamsForDecimals(decimals uint8) (Params, error) {
	if decimals > maxDecimals {
		return Params{}, fmt.Errorf("%w: %d decimals", ErrPrecisionTooLarge, decimals)
	}
	scale := uint64(1)
	for i := uint8(0); i < decimals; i++ {
		scale *= 10
	}
	p := Params{
		JoinFee:             feeUnits * scale,
		DirectReward:        directUnits * scale,
		IndirectPool:        indirectUnits * scale,
		AdminReward:         adminUnits * scale,
		IndirectDepth:       DefaultIndirectDepth,
		WithdrawMinChildren: DefaultWithdrawMinChildren,
	}
	return p, p.Validate()
}

// Validate checks that the parameters conserve value: the fee pulled
// on every join must equal the sum of everything posted out of it.
func (p Params) Validate() error {
	total := addChecked(addChecked(p.DirectReward, p.IndirectPool), p.AdminReward)
	if p.JoinFee != total {
		return fmt.Errorf("%w: fee %d, rewards total %d", ErrParamsUnbalanced, p.JoinFee, total)
	}
	if p.JoinFee == 0 {
		return fmt.Errorf("%w: zero join fee", ErrParamsUnbalanced)
	}
	if p.IndirectDepth <= 0 || p.WithdrawMinChildren < 0 {
		return fmt.Errorf("%w: depth %d, min children %d", ErrParamsUnbalanced, p.IndirectDepth, p.WithdrawMinChildren)
	}
	return nil
}

// addChecked adds two balances and fails fatally on wraparound.
// Overflow is impossible by construction (bounded reward constants,
// realistic account counts), so wrapping indicates corrupted state.
func addChecked(a, b uint64) uint64 {
	c := a + b
	if c < a {
		panic("ledger: balance arithmetic overflow")
	}
	return c
}
