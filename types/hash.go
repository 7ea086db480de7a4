package types

import (
	"golang.org/x/crypto/sha3"
)

const (
	// HashSize is the size of a SHA-3/256 hash in bytes.
	HashSize = 32
)

// HashBytes computes the SHA-3/256 hash of arbitrary bytes.
func HashBytes(data []byte) Hash {
	if data == nil {
		return nil
	}
	h := sha3.Sum256(data)
	return h[:]
}

// HashConcat computes the SHA-3/256 hash of the concatenation of two hashes.
// This is useful for building merkle trees.
func HashConcat(left, right Hash) Hash {
	h := sha3.New256()
	h.Write(left)
	h.Write(right)
	return h.Sum(nil)
}

// EmptyHash returns the hash of an empty byte slice.
func EmptyHash() Hash {
	h := sha3.Sum256([]byte{})
	return h[:]
}
