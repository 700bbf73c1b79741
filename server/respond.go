package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/refnetorg/refledger-go/ledger"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// writeLedgerError maps ledger failures onto HTTP status codes.
// Anything unrecognized is a transfer-service failure surfaced as a
// bad gateway.
func writeLedgerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrAlreadyJoined),
		errors.Is(err, ledger.ErrSelfReferral),
		errors.Is(err, ledger.ErrSponsorNotJoined),
		errors.Is(err, ledger.ErrNotEligible),
		errors.Is(err, ledger.ErrNothingToWithdraw),
		errors.Is(err, ledger.ErrCommissionExceeded),
		errors.Is(err, ledger.ErrRecoverNativeAsset),
		errors.Is(err, ledger.ErrZeroAmount):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, ledger.ErrInvalidReferralCode),
		errors.Is(err, ledger.ErrNotJoined):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, ledger.ErrNotAdmin),
		errors.Is(err, ledger.ErrInvalidPasscode):
		writeError(w, http.StatusForbidden, err)
	case errors.Is(err, ledger.ErrOperationInFlight):
		writeError(w, http.StatusServiceUnavailable, err)
	default:
		writeError(w, http.StatusBadGateway, err)
	}
}
