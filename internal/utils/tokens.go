package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// NewSecret returns nBytes of randomness hex-encoded. The dev server uses it
// as the JWT signing key when none is configured.
func NewSecret(nBytes int) (string, error) {
	if nBytes <= 0 {
		nBytes = 32
	}
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
