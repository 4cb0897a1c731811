package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// HashAlgorithm names a digest
type HashAlgorithm string

const (
	BLAKE2b HashAlgorithm = "blake2b"
	SHA256  HashAlgorithm = "sha256"
)

// etagLen is the number of hex digits kept in an entity tag
const etagLen = 32

// Hasher digests response bodies
type Hasher struct {
	algorithm HashAlgorithm
	digest    func() hash.Hash
}

// NewHasher returns a hasher for algorithm; unknown names fall back to BLAKE2b
func NewHasher(algorithm HashAlgorithm) *Hasher {
	if algorithm == SHA256 {
		return &Hasher{algorithm: SHA256, digest: sha256.New}
	}
	return &Hasher{algorithm: BLAKE2b, digest: newBlake2b}
}

// DefaultHasher returns a BLAKE2b hasher
func DefaultHasher() *Hasher {
	return NewHasher(BLAKE2b)
}

func newBlake2b() hash.Hash {
	// Only a non-nil key longer than 64 bytes makes New256 fail
	h, _ := blake2b.New256(nil)
	return h
}

// Algorithm reports which digest the hasher computes
func (h *Hasher) Algorithm() HashAlgorithm {
	return h.algorithm
}

// Hash returns the hex digest of the concatenated parts
func (h *Hasher) Hash(parts ...[]byte) string {
	d := h.digest()
	for _, p := range parts {
		d.Write(p)
	}
	return hex.EncodeToString(d.Sum(nil))
}

// ETag returns a strong entity tag for a response body
func (h *Hasher) ETag(body []byte) string {
	return `"` + h.Hash(body)[:etagLen] + `"`
}

// MatchETag reports whether an If-None-Match header value matches etag,
// using weak comparison as GET requests do
func MatchETag(header, etag string) bool {
	if header == "" || etag == "" {
		return false
	}
	want := strings.TrimPrefix(etag, "W/")
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == want {
			return true
		}
	}
	return false
}
