package storage

import "errors"

var (
	// ErrNoSnapshot indicates the store holds no ledger snapshot yet.
	ErrNoSnapshot = errors.New("storage: no snapshot stored")

	// ErrNilParam indicates a required parameter was nil.
	ErrNilParam = errors.New("storage: nil parameter")
)
