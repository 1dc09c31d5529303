package statements

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

var passcodeSpace = big.NewInt(1_000_000)

// newPasscode returns a uniformly random six digit code, zero padded.
func newPasscode() (string, error) {
	n, err := rand.Int(rand.Reader, passcodeSpace)
	if err != nil {
		return "", fmt.Errorf("failed to generate passcode: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
