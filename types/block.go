package types

import (
	"github.com/blockberries/cramberry/pkg/cramberry"
)

// Proposal is an ordered sequence of transactions chosen by ordering but not
// yet validated against world state. Height is the intended block height —
// the previous block's height plus one.
type Proposal struct {
	Height       Height
	CreatedTime  uint64 // unix ms
	Transactions TransactionList
}

// MerkleRoot computes the root hash of a transaction list, pairwise-hashing
// leaves bottom-up and duplicating the last node at each odd-sized level.
// An empty list roots to EmptyHash.
func MerkleRoot(txs TransactionList) (Hash, error) {
	if len(txs) == 0 {
		return EmptyHash(), nil
	}

	level, err := txs.Hashes()
	if err != nil {
		return nil, err
	}

	for len(level) > 1 {
		if len(level)%2 != 0 {
			level = append(level, level[len(level)-1])
		}
		next := make([]Hash, 0, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			next = append(next, HashConcat(level[i], level[i+1]))
		}
		level = next
	}
	return level[0], nil
}

// UnsignedBlock is a candidate block before signing. It has no Signatures
// field by construction, which makes it impossible to emit an unsigned
// block on the candidate-block stream — Sign is the only way to produce a
// Block, and Block always carries signatures.
type UnsignedBlock struct {
	Height       Height
	CreatedTime  uint64
	PreviousHash Hash
	Transactions TransactionList
	TxHash       Hash
}

// NewUnsignedBlock builds an UnsignedBlock, computing its transaction
// merkle root.
func NewUnsignedBlock(height Height, createdTime uint64, previousHash Hash, txs TransactionList) (UnsignedBlock, error) {
	root, err := MerkleRoot(txs)
	if err != nil {
		return UnsignedBlock{}, err
	}
	return UnsignedBlock{
		Height:       height,
		CreatedTime:  createdTime,
		PreviousHash: previousHash,
		Transactions: txs,
		TxHash:       root,
	}, nil
}

// signableHeader is the canonical encoding a Signer signs and a Verifier
// checks: the block header, which already commits to the transaction list
// via TxHash. It deliberately excludes the full transaction list and any
// signatures.
type signableHeader struct {
	Height       Height
	CreatedTime  uint64
	PreviousHash Hash
	TxHash       Hash
}

// CanonicalBytes returns the deterministic header encoding an ed25519
// signature is computed over.
func (b UnsignedBlock) CanonicalBytes() ([]byte, error) {
	return cramberry.Marshal(signableHeader{
		Height:       b.Height,
		CreatedTime:  b.CreatedTime,
		PreviousHash: b.PreviousHash,
		TxHash:       b.TxHash,
	})
}

// Hash returns the content hash of the unsigned block's header — what a
// child block's PreviousHash must equal once this block is persisted.
func (b UnsignedBlock) Hash() (Hash, error) {
	data, err := b.CanonicalBytes()
	if err != nil {
		return nil, err
	}
	return HashBytes(data), nil
}

// Block is a signed, chain-linked record of transactions at a specific
// height. It always carries at least one signature: the only constructor
// Simulator callers use is a Signer's Sign method, which guarantees this.
type Block struct {
	Height       Height
	CreatedTime  uint64
	PreviousHash Hash
	Transactions TransactionList
	TxHash       Hash
	Signatures   []Signature
}

// Unsigned returns the UnsignedBlock this Block was produced from, dropping
// its signatures. Useful for re-verifying a signature against the body it
// was computed over.
func (b Block) Unsigned() UnsignedBlock {
	return UnsignedBlock{
		Height:       b.Height,
		CreatedTime:  b.CreatedTime,
		PreviousHash: b.PreviousHash,
		Transactions: b.Transactions,
		TxHash:       b.TxHash,
	}
}

// Hash returns the content hash of the block's header, excluding
// signatures — the value downstream children reference as their
// PreviousHash.
func (b Block) Hash() (Hash, error) {
	return b.Unsigned().Hash()
}

// HasSignatures reports whether the block carries at least one signature,
// satisfying P4 (signature presence) syntactically. It does not verify the
// signatures are valid — that is Verifier.Verify's job.
func (b Block) HasSignatures() bool {
	return len(b.Signatures) > 0
}

// MarshalBlock encodes a full block, transactions and signatures included,
// as stored by a BlockStore. Unlike CanonicalBytes/Hash, this encoding is
// for persistence and retrieval, not for what gets signed.
func MarshalBlock(b Block) ([]byte, error) {
	return cramberry.Marshal(b)
}

// UnmarshalBlock decodes a block previously encoded with MarshalBlock.
func UnmarshalBlock(data []byte) (Block, error) {
	var b Block
	if err := cramberry.Unmarshal(data, &b); err != nil {
		return Block{}, err
	}
	return b, nil
}
