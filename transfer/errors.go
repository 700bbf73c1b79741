package transfer

import "errors"

var (
	// ErrConnectionFailed indicates the HTTP request to the custody
	// service could not be completed.
	ErrConnectionFailed = errors.New("transfer: connection failed")

	// ErrInvalidResponse indicates the custody service's response
	// could not be decoded.
	ErrInvalidResponse = errors.New("transfer: invalid response")
)
