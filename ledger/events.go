package ledger

import "github.com/refnetorg/refledger-go/refcode"

// EventType discriminates the observable ledger events.
type EventType uint8

const (
	// EventJoin is emitted after a successful join. Account is the
	// new member, Sponsor its sponsor, Code its assigned code.
	EventJoin EventType = iota + 1

	// EventDirectEarning is emitted when a sponsor is credited. The
	// amount includes any indirect-pool remainder folded into the
	// same credit.
	EventDirectEarning

	// EventIndirectEarning is emitted once per ancestor credited
	// from the indirect pool, in ancestor-walk order.
	EventIndirectEarning

	// EventWithdrawal is emitted after a member drains their earnings.
	EventWithdrawal

	// EventCommissionWithdrawal is emitted after an admin commission payout.
	EventCommissionWithdrawal

	// EventAssetRecovery is emitted after an admin foreign-asset rescue.
	EventAssetRecovery
)

// String returns the event type name used in logs and journals.
func (t EventType) String() string {
	switch t {
	case EventJoin:
		return "join"
	case EventDirectEarning:
		return "direct_earning"
	case EventIndirectEarning:
		return "indirect_earning"
	case EventWithdrawal:
		return "withdrawal"
	case EventCommissionWithdrawal:
		return "commission_withdrawal"
	case EventAssetRecovery:
		return "asset_recovery"
	}
	return "unknown"
}

// Event is a single observable ledger notification. Events exist for
// external indexing; correctness never depends on them.
type Event struct {
	Type    EventType
	Account Address      // subject: joiner, earner, or payout recipient
	Sponsor Address      // join only
	Code    refcode.Code // join only
	Asset   Asset        // asset recovery only
	Amount  uint64
}

// Recorder receives ledger events. Record is called after the
// originating operation has committed; implementations must not call
// back into the ledger.
type Recorder interface {
	Record(e Event)
}

// MultiRecorder fans events out to several recorders in order.
type MultiRecorder []Recorder

func (m MultiRecorder) Record(e Event) {
	for _, r := range m {
		r.Record(e)
	}
}

// CaptureRecorder collects events in memory, for tests.
type CaptureRecorder struct {
	Events []Event
}

func (c *CaptureRecorder) Record(e Event) {
	c.Events = append(c.Events, e)
}
