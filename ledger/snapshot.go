package ledger

import (
	"fmt"
	"sort"

	"github.com/refnetorg/refledger-go/refcode"
)

// Snapshot is a complete, self-contained copy of the ledger state,
// suitable for persistence. Accounts are ordered by address so equal
// states produce equal snapshots.
type Snapshot struct {
	Params              Params
	NativeAsset         Asset
	Admin               Address
	PasscodeSalt        []byte
	PasscodeHash        []byte
	CommissionPool      uint64
	Joins               uint64
	Withdrawn           uint64
	CommissionWithdrawn uint64
	Accounts            []Account
}

// Snapshot captures the current state.
func (l *Ledger) Snapshot() *Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	snap := &Snapshot{
		Params:              l.params,
		NativeAsset:         l.native,
		Admin:               l.admin,
		PasscodeSalt:        append([]byte(nil), l.passSalt...),
		PasscodeHash:        append([]byte(nil), l.passHash...),
		CommissionPool:      l.commission,
		Joins:               l.joins,
		Withdrawn:           l.withdrawn,
		CommissionWithdrawn: l.commissionWithdrawn,
		Accounts:            make([]Account, 0, len(l.accounts)),
	}
	for _, acct := range l.accounts {
		c := *acct
		c.Children = append([]Address(nil), acct.Children...)
		snap.Accounts = append(snap.Accounts, c)
	}
	sort.Slice(snap.Accounts, func(i, j int) bool {
		a, b := snap.Accounts[i].Addr, snap.Accounts[j].Addr
		for k := range a {
			if a[k] != b[k] {
				return a[k] < b[k]
			}
		}
		return false
	})
	return snap
}

// FromSnapshot rebuilds a ledger from a snapshot, revalidating the
// structural invariants: balanced parameters, a joined admin root, and
// a bijective code index.
func FromSnapshot(snap *Snapshot, transfer ValueTransfer, recorder Recorder) (*Ledger, error) {
	if transfer == nil {
		return nil, ErrNilTransfer
	}
	if err := snap.Params.Validate(); err != nil {
		return nil, err
	}
	if len(snap.PasscodeSalt) == 0 || len(snap.PasscodeHash) == 0 {
		return nil, fmt.Errorf("%w: missing passcode commitment", ErrCorruptSnapshot)
	}

	l := &Ledger{
		params:              snap.Params,
		native:              snap.NativeAsset,
		admin:               snap.Admin,
		passSalt:            append([]byte(nil), snap.PasscodeSalt...),
		passHash:            append([]byte(nil), snap.PasscodeHash...),
		transfer:            transfer,
		recorder:            recorder,
		commission:          snap.CommissionPool,
		joins:               snap.Joins,
		withdrawn:           snap.Withdrawn,
		commissionWithdrawn: snap.CommissionWithdrawn,
		accounts:            make(map[Address]*Account, len(snap.Accounts)),
		codes:               make(map[refcode.Code]Address, len(snap.Accounts)),
	}

	for i := range snap.Accounts {
		c := snap.Accounts[i]
		c.Children = append([]Address(nil), snap.Accounts[i].Children...)
		if _, dup := l.accounts[c.Addr]; dup {
			return nil, fmt.Errorf("%w: duplicate account %s", ErrCorruptSnapshot, c.Addr)
		}
		if c.Joined {
			if !refcode.Valid(c.Code) {
				return nil, fmt.Errorf("%w: account %s has malformed code %q", ErrCorruptSnapshot, c.Addr, c.Code)
			}
			if owner, dup := l.codes[c.Code]; dup {
				return nil, fmt.Errorf("%w: code %s owned by both %s and %s", ErrCorruptSnapshot, c.Code, owner, c.Addr)
			}
			l.codes[c.Code] = c.Addr
		}
		l.accounts[c.Addr] = &c
	}

	root, ok := l.accounts[snap.Admin]
	if !ok || !root.Joined {
		return nil, fmt.Errorf("%w: admin account missing or not joined", ErrCorruptSnapshot)
	}

	for _, acct := range l.accounts {
		if !acct.Joined || acct.Addr == snap.Admin {
			continue
		}
		sponsor, ok := l.accounts[acct.Sponsor]
		if !ok || !sponsor.Joined {
			return nil, fmt.Errorf("%w: account %s has unjoined sponsor", ErrCorruptSnapshot, acct.Addr)
		}
	}
	return l, nil
}
