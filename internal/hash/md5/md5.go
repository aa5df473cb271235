// Package md5 provides MD5 hashing utilities.
package md5

import (
	"crypto/md5" //nolint:gosec // change detection only, not a security boundary
	"encoding/hex"
)

// DigestLen is the length of a hex-encoded MD5 digest.
const DigestLen = 32

// Hasher implements sitemap.Hasher using MD5.
type Hasher struct{}

// New returns an MD5 hasher.
func New() *Hasher {
	return &Hasher{}
}

// Hash hashes the input and returns a hex digest.
func (h *Hasher) Hash(data []byte) (string, error) {
	sum := md5.Sum(data) //nolint:gosec
	return hex.EncodeToString(sum[:]), nil
}
