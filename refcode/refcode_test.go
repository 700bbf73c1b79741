package refcode

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Shape(t *testing.T) {
	code := Generate([]byte("account-1"), 0)
	assert.Len(t, string(code), Length)
	for _, r := range string(code) {
		assert.Contains(t, Alphabet, string(r))
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	id := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	assert.Equal(t, Generate(id, 7), Generate(id, 7))
}

func TestGenerate_ProbeChangesCode(t *testing.T) {
	id := []byte{0x01, 0x02, 0x03}
	assert.NotEqual(t, Generate(id, 0), Generate(id, 1),
		"bumping the probe must yield a different code")
}

func TestGenerate_SpreadsAcrossIdentities(t *testing.T) {
	seen := make(map[Code]struct{})
	for i := 0; i < 1000; i++ {
		code := Generate([]byte(fmt.Sprintf("account-%d", i)), 0)
		seen[code] = struct{}{}
	}
	// 36^6 is ~2.18e9; a birthday collision within 1000 samples is
	// possible but vanishingly rare. Allow a single one.
	assert.GreaterOrEqual(t, len(seen), 999)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		ok    bool
	}{
		{"letters", "ABCDEF", true},
		{"digits", "012345", true},
		{"mixed", "A1B2C3", true},
		{"too short", "ABC", false},
		{"too long", "ABCDEFG", false},
		{"empty", "", false},
		{"lowercase", "abcdef", false},
		{"punctuation", "ABC-EF", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, err := Parse(tt.input)
			if tt.ok {
				require.NoError(t, err)
				assert.Equal(t, Code(tt.input), code)
			} else {
				assert.ErrorIs(t, err, ErrInvalidCode)
			}
		})
	}
}

func TestValid_GeneratedCodesParse(t *testing.T) {
	for probe := uint64(0); probe < 100; probe++ {
		code := Generate([]byte("x"), probe)
		assert.True(t, Valid(code), "generated code %q must be valid", code)
	}
}

func TestAlphabet(t *testing.T) {
	require.Len(t, Alphabet, 36)
	assert.Equal(t, strings.ToUpper(Alphabet), Alphabet)
}
