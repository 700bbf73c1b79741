package ledger

import "errors"

var (
	// ErrInvalidAddress indicates an address string is malformed.
	ErrInvalidAddress = errors.New("ledger: invalid address")

	// ErrAlreadyJoined indicates the caller has already joined.
	ErrAlreadyJoined = errors.New("ledger: account already joined")

	// ErrInvalidReferralCode indicates the referral code resolves to no account.
	ErrInvalidReferralCode = errors.New("ledger: unknown referral code")

	// ErrSelfReferral indicates an account tried to sponsor itself.
	ErrSelfReferral = errors.New("ledger: self referral")

	// ErrSponsorNotJoined indicates the resolved sponsor has not joined.
	ErrSponsorNotJoined = errors.New("ledger: sponsor not joined")

	// ErrNotJoined indicates the caller has not joined.
	ErrNotJoined = errors.New("ledger: account not joined")

	// ErrNotEligible indicates the caller has too few direct children to withdraw.
	ErrNotEligible = errors.New("ledger: not enough direct referrals to withdraw")

	// ErrNothingToWithdraw indicates both earnings balances are zero.
	ErrNothingToWithdraw = errors.New("ledger: nothing to withdraw")

	// ErrNotAdmin indicates a privileged operation was called by a non-admin account.
	ErrNotAdmin = errors.New("ledger: caller is not the admin")

	// ErrInvalidPasscode indicates the presented passcode does not match the stored commitment.
	ErrInvalidPasscode = errors.New("ledger: invalid passcode")

	// ErrCommissionExceeded indicates a commission withdrawal larger than the pool.
	ErrCommissionExceeded = errors.New("ledger: amount exceeds commission pool")

	// ErrRecoverNativeAsset indicates an attempt to recover the ledger's own asset.
	ErrRecoverNativeAsset = errors.New("ledger: recovery of the native asset is forbidden")

	// ErrZeroAmount indicates an operation on a zero amount.
	ErrZeroAmount = errors.New("ledger: zero amount")

	// ErrOperationInFlight indicates re-entry while another operation
	// is executing. Operations never queue; the colliding call is
	// rejected and may be re-issued by the caller.
	ErrOperationInFlight = errors.New("ledger: operation already in flight")

	// ErrPrecisionTooLarge indicates the asset precision would overflow the reward constants.
	ErrPrecisionTooLarge = errors.New("ledger: asset precision too large")

	// ErrParamsUnbalanced indicates the reward parameters do not conserve the join fee.
	ErrParamsUnbalanced = errors.New("ledger: unbalanced parameters")

	// ErrEmptyPasscode indicates initialization without an admin passcode.
	ErrEmptyPasscode = errors.New("ledger: empty admin passcode")

	// ErrNilTransfer indicates initialization without a value-transfer service.
	ErrNilTransfer = errors.New("ledger: nil value-transfer service")

	// ErrCorruptSnapshot indicates a snapshot that violates ledger invariants.
	ErrCorruptSnapshot = errors.New("ledger: corrupt snapshot")

	// ErrConservationViolation indicates the conservation invariant does not hold.
	ErrConservationViolation = errors.New("ledger: value conservation violated")
)
