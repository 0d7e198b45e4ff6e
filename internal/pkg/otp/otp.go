package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// span is the number of distinct codes: [100000, 999999] inclusive.
// The lower bound keeps every code at exactly six digits with no
// leading zeros to drop.
const (
	min  = 100000
	span = 900000
)

// New returns a 6-digit numeric code uniform over [100000, 999999].
func New() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(span))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%d", min+n.Int64()), nil
}
