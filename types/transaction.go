package types

import (
	"github.com/blockberries/cramberry/pkg/cramberry"
)

// Command is an opaque, application-defined instruction carried by a
// transaction. Kind distinguishes the command family (e.g. "set",
// "transfer"); Payload is interpreted by whatever StatefulValidator applies
// the transaction. The Simulator never inspects Payload itself.
type Command struct {
	Kind    string
	Payload []byte
}

// Signature pairs an ed25519 public key with the 64-byte signature it
// produced over a signable's canonical hash.
type Signature struct {
	PubKey []byte
	Sig    []byte
}

// Transaction is an opaque, content-addressable unit carrying a creator
// identifier, a replay-protection counter, a creation time, a list of
// commands, and zero or more signatures. Equality is by content hash.
type Transaction struct {
	CreatorID   string
	Counter     uint64
	CreatedTime uint64 // unix ms
	Commands    []Command
	Signatures  []Signature
}

// signableTransaction mirrors Transaction without Signatures: the canonical
// encoding signatures are computed over, and the hash transactions are
// compared by, both exclude the signature list.
type signableTransaction struct {
	CreatorID   string
	Counter     uint64
	CreatedTime uint64
	Commands    []Command
}

// CanonicalBytes returns the deterministic encoding of the transaction,
// excluding its signatures.
func (tx Transaction) CanonicalBytes() ([]byte, error) {
	return cramberry.Marshal(signableTransaction{
		CreatorID:   tx.CreatorID,
		Counter:     tx.Counter,
		CreatedTime: tx.CreatedTime,
		Commands:    tx.Commands,
	})
}

// Hash returns the content hash of the transaction. Two transactions with
// identical creator, counter, created-time, and commands hash identically
// regardless of their signatures.
func (tx Transaction) Hash() (Hash, error) {
	b, err := tx.CanonicalBytes()
	if err != nil {
		return nil, err
	}
	return HashBytes(b), nil
}

// Equal reports whether two transactions have the same content hash. A
// hashing error on either side is treated as non-equal.
func (tx Transaction) Equal(other Transaction) bool {
	h1, err1 := tx.Hash()
	h2, err2 := other.Hash()
	if err1 != nil || err2 != nil {
		return false
	}
	return h1.Equal(h2)
}

// TransactionList is a convenience alias used by proposals and blocks.
type TransactionList []Transaction

// Hashes returns the content hash of every transaction in order. Returns an
// error if any transaction fails to hash.
func (txs TransactionList) Hashes() ([]Hash, error) {
	hashes := make([]Hash, len(txs))
	for i, tx := range txs {
		h, err := tx.Hash()
		if err != nil {
			return nil, err
		}
		hashes[i] = h
	}
	return hashes, nil
}

// IsSubsequenceOf reports whether txs appears, in order, as a subsequence of
// super — i.e. every transaction in txs is present in super, and the
// relative order of txs' transactions matches their order in super. This is
// the boundary check for P3 (filter-subset & order): a StatefulValidator's
// output must satisfy this relation against its input proposal.
func (txs TransactionList) IsSubsequenceOf(super TransactionList) bool {
	subHashes, err := txs.Hashes()
	if err != nil {
		return false
	}
	superHashes, err := super.Hashes()
	if err != nil {
		return false
	}

	j := 0
	for i := 0; i < len(subHashes) && j < len(superHashes); j++ {
		if subHashes[i].Equal(superHashes[j]) {
			i++
			if i == len(subHashes) {
				return true
			}
		}
	}
	return len(subHashes) == 0
}
