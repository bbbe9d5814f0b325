package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashBytes computes the hex-encoded SHA256 digest of data
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HashString computes the hex-encoded SHA256 digest of s
func HashString(s string) string {
	return HashBytes([]byte(s))
}

// ShortHash returns the first n hex characters of the SHA256 digest of s.
// Used for compact path fingerprints where full digests would be noise.
func ShortHash(s string, n int) string {
	digest := HashString(s)
	if n <= 0 || n >= len(digest) {
		return digest
	}
	return digest[:n]
}
