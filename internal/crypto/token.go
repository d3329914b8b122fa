package crypto

import (
	"crypto/rand"
	"encoding/hex"
)

// NewVerificationToken returns a fresh single-use email challenge
// token: 20 random bytes, hex encoded.
func NewVerificationToken() (string, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
