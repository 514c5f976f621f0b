// Package idgen generates the service's record identifiers.
package idgen

import (
	"crypto/rand"
	"encoding/hex"
)

// WithPrefix returns prefix + 24 hex chars of randomness. Risk scores use
// "rs_", alerts "alrt_".
func WithPrefix(prefix string) string {
	return prefix + Hex(12)
}

// Hex returns a random hex string of numBytes bytes.
func Hex(numBytes int) string {
	b := make([]byte, numBytes)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand failed: " + err.Error())
	}
	return hex.EncodeToString(b)
}
