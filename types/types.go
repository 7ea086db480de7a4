// Package types provides the shared domain model: heights, hashes,
// transactions, proposals, and blocks.
package types

import (
	"encoding/hex"
	"fmt"
)

// Height represents a block height in the blockchain.
type Height int64

// Hash represents a cryptographic hash (32 bytes for SHA-3/256).
type Hash []byte

// String returns the height as a string.
func (h Height) String() string {
	return fmt.Sprintf("%d", h)
}

// Int64 returns the height as an int64.
func (h Height) Int64() int64 {
	return int64(h)
}

// String returns the hash as a hexadecimal string.
func (h Hash) String() string {
	return hex.EncodeToString(h)
}

// Bytes returns the raw bytes of the hash.
func (h Hash) Bytes() []byte {
	return []byte(h)
}

// IsEmpty returns true if the hash is nil or zero-length.
func (h Hash) IsEmpty() bool {
	return len(h) == 0
}

// Equal returns true if the hashes are equal.
func (h Hash) Equal(other Hash) bool {
	if len(h) != len(other) {
		return false
	}
	for i := range h {
		if h[i] != other[i] {
			return false
		}
	}
	return true
}

// HashFromHex parses a hexadecimal string into a Hash.
func HashFromHex(s string) (Hash, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex string: %w", err)
	}
	return Hash(b), nil
}
