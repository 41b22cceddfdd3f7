package utils

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/centraldavisao/lead-funnel/pkg/funnel"
)

// HashString creates a SHA-256 hash of the input string
func HashString(input string) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}

// HashPhone hashes only the digits of a phone number, so "(47) 98888-7777"
// and "47988887777" share a hash. Logs carry this instead of the number.
func HashPhone(phone string) string {
	h := HashString(funnel.Digits(phone))
	return h[:12]
}
