package ids

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUnique(t *testing.T) {
	a := New()
	b := New()
	assert.NotEqual(t, a, b, "two calls to New produced the same id")
}

func TestStringRoundTrip(t *testing.T) {
	id := New()
	parsed, err := Parse(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestStringLowerHex(t *testing.T) {
	id := New()
	s := id.String()
	require.Len(t, s, 32)
	for _, r := range s {
		isDigit := r >= '0' && r <= '9'
		isLowerHex := r >= 'a' && r <= 'f'
		assert.True(t, isDigit || isLowerHex, "non-lowercase-hex rune %q in %q", r, s)
	}
}

func TestParseInvalid(t *testing.T) {
	cases := []string{"", "zz", "abc", "00112233445566778899aabbccddeeff00"}
	for _, c := range cases {
		_, err := Parse(c)
		assert.Error(t, err, "Parse(%q) expected error", c)
	}
}

func TestIsZero(t *testing.T) {
	var zero ID
	assert.True(t, zero.IsZero())
	assert.False(t, New().IsZero(), "fresh id should not be zero (astronomically unlikely collision)")
}
