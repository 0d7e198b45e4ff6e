package otp

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_AlwaysSixDigitsInRange(t *testing.T) {
	for i := 0; i < 5000; i++ {
		code, err := New()
		require.NoError(t, err)
		require.Len(t, code, 6)

		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 100000)
		assert.LessOrEqual(t, n, 999999)
	}
}

func TestNew_CoversRangeStatistically(t *testing.T) {
	// Bucket by leading digit; over 9000 draws every digit 1-9 should appear.
	seen := make(map[byte]int)
	for i := 0; i < 9000; i++ {
		code, err := New()
		require.NoError(t, err)
		seen[code[0]]++
	}
	for d := byte('1'); d <= '9'; d++ {
		assert.Greater(t, seen[d], 0, "leading digit %c never generated", d)
	}
	assert.NotContains(t, seen, byte('0'))
}
