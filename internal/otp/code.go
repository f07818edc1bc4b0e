package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	// CodeMin and CodeMax bound generated codes, inclusive.
	CodeMin = 100000
	CodeMax = 999999
)

// CodeSource produces verification codes.
type CodeSource func() (string, error)

// RandomCode returns a uniformly random code in [CodeMin, CodeMax].
func RandomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(CodeMax-CodeMin+1))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+CodeMin), nil
}

// FixedCodes returns a CodeSource that yields codes in order and then
// repeats the last one.
func FixedCodes(codes ...string) CodeSource {
	i := 0
	return func() (string, error) {
		if len(codes) == 0 {
			return "", fmt.Errorf("generate otp: no codes configured")
		}
		c := codes[min(i, len(codes)-1)]
		i++
		return c, nil
	}
}
