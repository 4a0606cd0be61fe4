package randcode

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
)

// Digits returns a uniformly random, zero-padded numeric string of length n
// drawn from r (crypto/rand.Reader when r is nil).
func Digits(r io.Reader, n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("randcode: invalid length %d", n)
	}
	if r == nil {
		r = rand.Reader
	}
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
	v, err := rand.Int(r, max)
	if err != nil {
		return "", fmt.Errorf("randcode: %w", err)
	}
	return fmt.Sprintf("%0*d", n, v), nil
}
