package server

import (
	"github.com/sirupsen/logrus"

	"github.com/refnetorg/refledger-go/ledger"
)

// LogRecorder emits every ledger event as a structured log line.
type LogRecorder struct {
	Logger *logrus.Logger
}

// Record implements ledger.Recorder.
func (r *LogRecorder) Record(e ledger.Event) {
	fields := logrus.Fields{
		"account": e.Account.String(),
		"amount":  e.Amount,
	}
	switch e.Type {
	case ledger.EventJoin:
		fields["sponsor"] = e.Sponsor.String()
		fields["code"] = string(e.Code)
		delete(fields, "amount")
	case ledger.EventAssetRecovery:
		fields["asset"] = string(e.Asset)
	}
	r.Logger.WithFields(fields).Info(e.Type.String())
}
