package common

import (
	"crypto/rand"
	"encoding/hex"
)

// GenerateRandByteArray returns n cryptographically random bytes.
func GenerateRandByteArray(n int) []byte {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return b
}

// MakeRandHexString returns a random hex string of 2*n characters.
func MakeRandHexString(n int) string {
	return hex.EncodeToString(GenerateRandByteArray(n))
}
