// Package refcode derives the fixed-length referral codes used to
// address accounts in the ledger.
//
// A code is six symbols drawn from [A-Z0-9], derived from a SHA-256
// digest of the account identity and a probe counter. Generation is a
// pure function; collision handling is the caller's responsibility
// (retry with the next probe value).
package refcode

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"strings"
)

const (
	// Length is the fixed number of symbols in a code.
	Length = 6

	// Alphabet is the 36-symbol set codes are drawn from.
	Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Code is a fixed-length alphanumeric referral code.
type Code string

// Generate derives the code for the given account identity and probe
// counter. The first Length bytes of SHA256(identity || probe) are each
// mapped into the alphabet by reduction mod 36.
func Generate(identity []byte, probe uint64) Code {
	var pb [8]byte
	binary.BigEndian.PutUint64(pb[:], probe)

	h := sha256.New()
	h.Write(identity)
	h.Write(pb[:])
	sum := h.Sum(nil)

	var out [Length]byte
	for i := 0; i < Length; i++ {
		out[i] = Alphabet[int(sum[i])%len(Alphabet)]
	}
	return Code(out[:])
}

// Parse validates an externally supplied code string.
func Parse(s string) (Code, error) {
	if len(s) != Length {
		return "", fmt.Errorf("%w: length %d, want %d", ErrInvalidCode, len(s), Length)
	}
	for i := 0; i < len(s); i++ {
		if !strings.ContainsRune(Alphabet, rune(s[i])) {
			return "", fmt.Errorf("%w: symbol %q at position %d", ErrInvalidCode, s[i], i)
		}
	}
	return Code(s), nil
}

// Valid reports whether c is a well-formed code.
func Valid(c Code) bool {
	_, err := Parse(string(c))
	return err == nil
}
