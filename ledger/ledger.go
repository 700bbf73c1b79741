package ledger

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/crypto/argon2"

	"github.com/refnetorg/refledger-go/refcode"
)

// Argon2id parameters for the admin passcode commitment. The plaintext
// passcode is never stored; only the salted hash is.
const (
	argonTime        = 3
	argonMemory      = 64 * 1024 // 64 MB
	argonParallelism = 4
	argonKeyLen      = 32
	argonSaltLen     = 16
)

// Ledger is the shared state aggregate: account registry, earnings
// balances, code index, and commission pool.
//
// Every public operation is guarded by an in-flight flag: a call that
// arrives while another operation is executing, including a re-entrant
// call made from inside a value-transfer callback, fails immediately
// with ErrOperationInFlight. The mutex protects readers against
// observing a mutation mid-commit; it is never held across a
// value-transfer call.
type Ledger struct {
	inFlight atomic.Bool
	mu       sync.Mutex

	params   Params
	native   Asset
	admin    Address
	passSalt []byte
	passHash []byte

	transfer ValueTransfer
	recorder Recorder

	accounts   map[Address]*Account
	codes      map[refcode.Code]Address
	commission uint64

	// Lifetime counters backing the conservation invariant.
	joins               uint64
	withdrawn           uint64
	commissionWithdrawn uint64
}

// Options configures a new ledger instance.
type Options struct {
	// Transfer is the external value-transfer service. Required.
	Transfer ValueTransfer

	// NativeAsset names the asset the ledger accounts for.
	NativeAsset Asset

	// Admin is the distinguished root account. It is seeded as joined
	// with a valid code and roots the sponsorship forest.
	Admin Address

	// Passcode authorizes privileged operations. Only its argon2id
	// commitment is retained.
	Passcode string

	// Recorder receives observable events. Optional.
	Recorder Recorder

	// Params overrides the reward policy. When nil, the defaults are
	// derived from the asset precision reported by Transfer.
	Params *Params
}

// New initializes a ledger: derives the scaling factor from the
// asset's precision, commits the admin passcode, and seeds the admin
// account with a code and zero balances.
func New(ctx context.Context, opts Options) (*Ledger, error) {
	if opts.Transfer == nil {
		return nil, ErrNilTransfer
	}
	if opts.Passcode == "" {
		return nil, ErrEmptyPasscode
	}

	var params Params
	if opts.Params != nil {
		params = *opts.Params
		if err := params.Validate(); err != nil {
			return nil, err
		}
	} else {
		decimals, err := opts.Transfer.Decimals(ctx)
		if err != nil {
			return nil, fmt.Errorf("ledger: query asset precision: %w", err)
		}
		params, err = ParamsForDecimals(decimals)
		if err != nil {
			return nil, err
		}
	}

	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("ledger: generate passcode salt: %w", err)
	}

	l := &Ledger{
		params:   params,
		native:   opts.NativeAsset,
		admin:    opts.Admin,
		passSalt: salt,
		passHash: commitPasscode(opts.Passcode, salt),
		transfer: opts.Transfer,
		recorder: opts.Recorder,
		accounts: make(map[Address]*Account),
		codes:    make(map[refcode.Code]Address),
	}

	root := &Account{Addr: opts.Admin, Joined: true}
	l.accounts[opts.Admin] = root
	l.assignCode(root)
	return l, nil
}

// commitPasscode derives the stored commitment for a passcode.
func commitPasscode(passcode string, salt []byte) []byte {
	return argon2.IDKey([]byte(passcode), salt, argonTime, argonMemory, argonParallelism, argonKeyLen)
}

// begin claims the in-flight flag for one operation. The returned
// release must run on every exit path.
func (l *Ledger) begin() (release func(), err error) {
	if !l.inFlight.CompareAndSwap(false, true) {
		return nil, ErrOperationInFlight
	}
	return func() { l.inFlight.Store(false) }, nil
}

// emit forwards an event to the recorder, if any.
func (l *Ledger) emit(e Event) {
	if l.recorder != nil {
		l.recorder.Record(e)
	}
}

// authorize checks the two conditions on every privileged operation:
// the caller is the admin account and the presented passcode matches
// the stored commitment.
func (l *Ledger) authorize(caller Address, passcode string) error {
	if caller != l.admin {
		return ErrNotAdmin
	}
	h := commitPasscode(passcode, l.passSalt)
	if subtle.ConstantTimeCompare(h, l.passHash) != 1 {
		return ErrInvalidPasscode
	}
	return nil
}

// assignCode generates and commits a unique code for the account.
// Probing is deterministic in the account address, so a given registry
// history always yields the same codes.
func (l *Ledger) assignCode(acct *Account) {
	for probe := uint64(0); ; probe++ {
		code := refcode.Generate(acct.Addr[:], probe)
		if _, taken := l.codes[code]; !taken {
			acct.Code = code
			l.codes[code] = acct.Addr
			return
		}
	}
}

// attach links a validated new account under its sponsor: sets the
// joined flag, the sponsor link, and appends to the sponsor's child
// list in stable order. Preconditions are the caller's responsibility;
// attach itself cannot fail.
func (l *Ledger) attach(acct, sponsor *Account) {
	acct.Joined = true
	acct.Sponsor = sponsor.Addr
	sponsor.Children = append(sponsor.Children, acct.Addr)
}

// Admin returns the distinguished admin address.
func (l *Ledger) Admin() Address { return l.admin }

// Params returns the reward policy constants.
func (l *Ledger) Params() Params { return l.params }

// NativeAsset returns the asset the ledger accounts for.
func (l *Ledger) NativeAsset() Asset { return l.native }

// IsJoined reports whether the account has joined.
func (l *Ledger) IsJoined(a Address) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	acct, ok := l.accounts[a]
	return ok && acct.Joined
}

// SponsorOf returns the account's sponsor. The second result is false
// for unjoined accounts and for the admin root.
func (l *Ledger) SponsorOf(a Address) (Address, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	acct, ok := l.accounts[a]
	if !ok || !acct.Joined || a == l.admin {
		return Address{}, false
	}
	return acct.Sponsor, true
}

// ChildrenOf returns the account's direct children in attachment order.
func (l *Ledger) ChildrenOf(a Address) []Address {
	l.mu.Lock()
	defer l.mu.Unlock()
	acct, ok := l.accounts[a]
	if !ok {
		return nil
	}
	out := make([]Address, len(acct.Children))
	copy(out, acct.Children)
	return out
}

// CodeOf returns the account's referral code.
func (l *Ledger) CodeOf(a Address) (refcode.Code, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	acct, ok := l.accounts[a]
	if !ok || !acct.Joined {
		return "", false
	}
	return acct.Code, true
}

// Resolve returns the account that owns the given code.
func (l *Ledger) Resolve(code refcode.Code) (Address, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	a, ok := l.codes[code]
	return a, ok
}

// Balances returns the account's direct and indirect earnings.
func (l *Ledger) Balances(a Address) (direct, indirect uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	acct, ok := l.accounts[a]
	if !ok {
		return 0, 0
	}
	return acct.Direct, acct.Indirect
}

// Withdrawable returns the combined amount the account would receive
// on withdrawal.
func (l *Ledger) Withdrawable(a Address) uint64 {
	direct, indirect := l.Balances(a)
	return addChecked(direct, indirect)
}

// CommissionPool returns the current commission pool total.
func (l *Ledger) CommissionPool() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.commission
}

// Joins returns the number of successful joins over the ledger lifetime.
func (l *Ledger) Joins() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.joins
}
