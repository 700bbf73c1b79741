package ledger

import (
	"context"
	"fmt"

	"github.com/refnetorg/refledger-go/refcode"
)

// Join admits the caller into the referral network.
//
// An empty referral code attaches the caller directly under the admin;
// otherwise the code is resolved through the code index. The join fee
// is pulled from the caller before any local mutation, so a failed
// transfer leaves no trace. On success the fee is split exactly:
//
//   - the sponsor is credited the direct reward,
//   - the indirect pool is divided evenly among up to IndirectDepth
//     ancestors above the sponsor, any division remainder going to the
//     sponsor's direct earnings,
//   - with no ancestors at all, the whole indirect pool is redirected
//     into the commission pool,
//   - the admin reward is credited to the commission pool
//     unconditionally.
//
// Every unit of the fee ends up in exactly one of those destinations.
func (l *Ledger) Join(ctx context.Context, caller Address, code refcode.Code) error {
	release, err := l.begin()
	if err != nil {
		return err
	}
	defer release()

	l.mu.Lock()
	sponsor, err := l.validateJoin(caller, code)
	l.mu.Unlock()
	if err != nil {
		return err
	}

	// The transfer is the only step that can fail after validation,
	// so it runs first among the mutating steps.
	if err := l.transfer.Pull(ctx, caller, l.params.JoinFee); err != nil {
		return fmt.Errorf("ledger: pull join fee: %w", err)
	}

	l.mu.Lock()
	acct := &Account{Addr: caller}
	l.accounts[caller] = acct
	l.attach(acct, sponsor)

	directCredit := l.params.DirectReward
	ancestors := l.collectAncestors(sponsor)

	share := uint64(0)
	if len(ancestors) == 0 {
		// Top-of-tree join: the indirect share is not lost, it
		// accrues to the commission pool.
		l.commission = addChecked(l.commission, l.params.IndirectPool)
	} else {
		share = l.params.IndirectPool / uint64(len(ancestors))
		for _, anc := range ancestors {
			anc.Indirect = addChecked(anc.Indirect, share)
		}
		// Division dust goes to the immediate sponsor, alongside
		// the direct reward.
		directCredit = addChecked(directCredit, l.params.IndirectPool-share*uint64(len(ancestors)))
	}

	sponsor.Direct = addChecked(sponsor.Direct, directCredit)
	l.commission = addChecked(l.commission, l.params.AdminReward)
	l.assignCode(acct)
	l.joins++
	l.mu.Unlock()

	l.emit(Event{Type: EventDirectEarning, Account: sponsor.Addr, Amount: directCredit})
	if share > 0 {
		for _, anc := range ancestors {
			l.emit(Event{Type: EventIndirectEarning, Account: anc.Addr, Amount: share})
		}
	}
	l.emit(Event{Type: EventJoin, Account: caller, Sponsor: sponsor.Addr, Code: acct.Code})
	return nil
}

// validateJoin checks the join preconditions and resolves the sponsor.
// Called with the mutex held.
func (l *Ledger) validateJoin(caller Address, code refcode.Code) (*Account, error) {
	if acct, ok := l.accounts[caller]; ok && acct.Joined {
		return nil, ErrAlreadyJoined
	}

	sponsorAddr := l.admin
	if code != "" {
		addr, ok := l.codes[code]
		if !ok {
			return nil, ErrInvalidReferralCode
		}
		sponsorAddr = addr
	}

	if sponsorAddr == caller {
		return nil, ErrSelfReferral
	}
	sponsor, ok := l.accounts[sponsorAddr]
	if !ok || !sponsor.Joined {
		return nil, ErrSponsorNotJoined
	}
	return sponsor, nil
}

// collectAncestors walks the sponsorship chain upward from the
// sponsor's own sponsor, nearest first, stopping at the admin root or
// at the depth bound. Called with the mutex held.
func (l *Ledger) collectAncestors(sponsor *Account) []*Account {
	ancestors := make([]*Account, 0, l.params.IndirectDepth)
	cur := sponsor
	for len(ancestors) < l.params.IndirectDepth {
		if cur.Addr == l.admin {
			break
		}
		parent := l.accounts[cur.Sponsor]
		ancestors = append(ancestors, parent)
		cur = parent
	}
	return ancestors
}
