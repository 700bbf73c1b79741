package refcode

import "errors"

var (
	// ErrInvalidCode indicates a code string has the wrong length or
	// contains symbols outside the alphabet.
	ErrInvalidCode = errors.New("refcode: invalid code")
)
