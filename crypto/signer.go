// Package crypto provides the default Crypto Capability: ed25519 signing
// and verification of candidate blocks, keyed off the canonical SHA-3/256
// block hash.
package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/blockberries/blockberry/types"
)

// Errors returned by Ed25519Signer.
var (
	ErrNoPrivateKey   = errors.New("crypto: signer has no private key")
	ErrInvalidKeySize = errors.New("crypto: invalid ed25519 key size")
)

// Signer signs an unsigned block, producing a Block with exactly one
// signature appended. This is the Crypto Capability's write side (C4).
type Signer interface {
	Sign(block types.UnsignedBlock) (types.Block, error)
}

// Verifier checks that every signature on a block is valid for its
// canonical hash. This is the read side consensus uses downstream; the
// Simulator itself never calls Verify.
type Verifier interface {
	Verify(block types.Block) bool
}

// Ed25519Signer signs with a single ed25519 keypair.
type Ed25519Signer struct {
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey
}

// NewEd25519Signer wraps an existing ed25519 private key.
func NewEd25519Signer(priv ed25519.PrivateKey) (*Ed25519Signer, error) {
	if len(priv) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidKeySize, len(priv))
	}
	pub, ok := priv.Public().(ed25519.PublicKey)
	if !ok {
		return nil, ErrInvalidKeySize
	}
	return &Ed25519Signer{privateKey: priv, publicKey: pub}, nil
}

// GenerateEd25519Signer creates a fresh random keypair. Intended for tests
// and the demo CLI; production deployments load a persisted key instead.
func GenerateEd25519Signer() (*Ed25519Signer, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generating ed25519 key: %w", err)
	}
	return &Ed25519Signer{privateKey: priv, publicKey: pub}, nil
}

// PublicKey returns the signer's public key bytes.
func (s *Ed25519Signer) PublicKey() ed25519.PublicKey {
	return s.publicKey
}

// Sign hashes the unsigned block's canonical encoding and appends exactly
// one ed25519 signature over that hash, returning the signed Block.
func (s *Ed25519Signer) Sign(block types.UnsignedBlock) (types.Block, error) {
	if s.privateKey == nil {
		return types.Block{}, ErrNoPrivateKey
	}

	hash, err := block.Hash()
	if err != nil {
		return types.Block{}, fmt.Errorf("hashing unsigned block: %w", err)
	}

	sig := ed25519.Sign(s.privateKey, hash)

	return types.Block{
		Height:       block.Height,
		CreatedTime:  block.CreatedTime,
		PreviousHash: block.PreviousHash,
		Transactions: block.Transactions,
		TxHash:       block.TxHash,
		Signatures: []types.Signature{{
			PubKey: append([]byte(nil), s.publicKey...),
			Sig:    sig,
		}},
	}, nil
}

// Ed25519Verifier verifies every signature on a block against its canonical
// hash. It holds no key material — any number of public keys may sign.
type Ed25519Verifier struct{}

// NewEd25519Verifier returns a stateless ed25519 verifier.
func NewEd25519Verifier() *Ed25519Verifier {
	return &Ed25519Verifier{}
}

// Verify reports whether the block has at least one signature and every
// signature present validates against the block's canonical hash.
func (*Ed25519Verifier) Verify(block types.Block) bool {
	if !block.HasSignatures() {
		return false
	}

	hash, err := block.Hash()
	if err != nil {
		return false
	}

	for _, sig := range block.Signatures {
		if len(sig.PubKey) != ed25519.PublicKeySize {
			return false
		}
		if len(sig.Sig) != ed25519.SignatureSize {
			return false
		}
		if !ed25519.Verify(ed25519.PublicKey(sig.PubKey), hash, sig.Sig) {
			return false
		}
	}
	return true
}

var (
	_ Signer   = (*Ed25519Signer)(nil)
	_ Verifier = (*Ed25519Verifier)(nil)
)
