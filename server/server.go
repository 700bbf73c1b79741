// Package server exposes the ledger over an HTTP JSON API and wires
// its observable events into logrus and the persistent journal.
package server

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/refnetorg/refledger-go/ledger"
	"github.com/refnetorg/refledger-go/refcode"
	"github.com/refnetorg/refledger-go/storage"
)

// Server handles the HTTP API. A single mutex serializes mutating
// operations so HTTP clients queue instead of seeing the ledger's
// in-flight rejection; the ledger's own guard still protects against
// re-entry through transfer callbacks.
type Server struct {
	opMu   sync.Mutex
	led    *ledger.Ledger
	store  *storage.BoltStore
	logger *logrus.Logger
}

// New creates a server. store may be nil for a purely in-memory ledger.
func New(led *ledger.Ledger, store *storage.BoltStore, logger *logrus.Logger) *Server {
	return &Server{led: led, store: store, logger: logger}
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/join", s.handleJoin)
	mux.HandleFunc("POST /v1/withdraw", s.handleWithdraw)
	mux.HandleFunc("POST /v1/admin/commission", s.handleCommission)
	mux.HandleFunc("POST /v1/admin/recover", s.handleRecover)
	mux.HandleFunc("GET /v1/accounts/{address}", s.handleAccount)
	mux.HandleFunc("GET /v1/codes/{code}", s.handleResolve)
	mux.HandleFunc("GET /v1/pool", s.handlePool)
	mux.HandleFunc("GET /v1/debug/conservation", s.handleConservation)
	return mux
}

type joinRequest struct {
	Account string `json:"account"`
	Code    string `json:"code,omitempty"`
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	account, err := ledger.ParseAddress(req.Account)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var code refcode.Code
	if req.Code != "" {
		code, err = refcode.Parse(req.Code)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	s.opMu.Lock()
	err = s.led.Join(r.Context(), account, code)
	s.persist(err)
	s.opMu.Unlock()
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	assigned, _ := s.led.CodeOf(account)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"account": account.String(),
		"code":    string(assigned),
	})
}

type withdrawRequest struct {
	Account string `json:"account"`
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	var req withdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	account, err := ledger.ParseAddress(req.Account)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s.opMu.Lock()
	amount, err := s.led.Withdraw(r.Context(), account)
	s.persist(err)
	s.opMu.Unlock()
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"account": account.String(),
		"amount":  amount,
	})
}

type commissionRequest struct {
	Caller   string `json:"caller"`
	Passcode string `json:"passcode"`
	To       string `json:"to"`
	Amount   uint64 `json:"amount"`
}

func (s *Server) handleCommission(w http.ResponseWriter, r *http.Request) {
	var req commissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	caller, err := ledger.ParseAddress(req.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	to, err := ledger.ParseAddress(req.To)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s.opMu.Lock()
	err = s.led.WithdrawCommission(r.Context(), caller, req.Passcode, to, req.Amount)
	s.persist(err)
	s.opMu.Unlock()
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"to":     to.String(),
		"amount": req.Amount,
	})
}

type recoverRequest struct {
	Caller   string `json:"caller"`
	Passcode string `json:"passcode"`
	Asset    string `json:"asset"`
	To       string `json:"to"`
	Amount   uint64 `json:"amount"`
}

func (s *Server) handleRecover(w http.ResponseWriter, r *http.Request) {
	var req recoverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	caller, err := ledger.ParseAddress(req.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	to, err := ledger.ParseAddress(req.To)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s.opMu.Lock()
	err = s.led.RecoverAsset(r.Context(), caller, req.Passcode, ledger.Asset(req.Asset), to, req.Amount)
	s.opMu.Unlock()
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"asset":  req.Asset,
		"to":     to.String(),
		"amount": req.Amount,
	})
}

// accountView is the read-only projection of an account.
type accountView struct {
	Address  string   `json:"address"`
	Joined   bool     `json:"joined"`
	Sponsor  string   `json:"sponsor,omitempty"`
	Children []string `json:"children"`
	Code     string   `json:"code,omitempty"`
	Direct   uint64   `json:"direct"`
	Indirect uint64   `json:"indirect"`
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	account, err := ledger.ParseAddress(r.PathValue("address"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	view := accountView{
		Address:  account.String(),
		Joined:   s.led.IsJoined(account),
		Children: []string{},
	}
	if sponsor, ok := s.led.SponsorOf(account); ok {
		view.Sponsor = sponsor.String()
	}
	for _, c := range s.led.ChildrenOf(account) {
		view.Children = append(view.Children, c.String())
	}
	if code, ok := s.led.CodeOf(account); ok {
		view.Code = string(code)
	}
	view.Direct, view.Indirect = s.led.Balances(account)

	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	code, err := refcode.Parse(r.PathValue("code"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	account, ok := s.led.Resolve(code)
	if !ok {
		writeError(w, http.StatusNotFound, ledger.ErrInvalidReferralCode)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"code":    string(code),
		"account": account.String(),
	})
}

func (s *Server) handlePool(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"commission_pool": s.led.CommissionPool(),
		"joins":           s.led.Joins(),
	})
}

func (s *Server) handleConservation(w http.ResponseWriter, r *http.Request) {
	if err := s.led.CheckConservation(); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"conserved": true})
}

// persist saves a snapshot after a successful mutating operation. A
// persistence failure is logged, not surfaced: the operation itself,
// including its external transfer, has already committed.
func (s *Server) persist(opErr error) {
	if opErr != nil || s.store == nil {
		return
	}
	if err := s.store.SaveSnapshot(s.led.Snapshot()); err != nil {
		s.logger.WithError(errors.Wrap(err, "save snapshot")).Error("ledger state not persisted")
	}
}
