// Package digest computes the one-way hash used to store and verify PINs.
//
// Digests are plain SHA-256 over the UTF-8 bytes of the input, hex encoded.
// There is no domain prefix, so a digest written by an older client verifies
// unchanged.
package digest

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// Sum returns the lowercase hex SHA-256 digest of text.
func Sum(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}

// Equal reports whether two digests are identical.
// The comparison runs in constant time for equal-length inputs.
func Equal(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Matches reports whether text hashes to want.
// An empty want never matches.
func Matches(text, want string) bool {
	if want == "" {
		return false
	}
	return Equal(Sum(text), want)
}
