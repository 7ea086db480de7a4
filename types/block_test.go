package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMerkleRoot(t *testing.T) {
	t.Run("empty list roots to EmptyHash", func(t *testing.T) {
		root, err := MerkleRoot(nil)
		require.NoError(t, err)
		require.True(t, root.Equal(EmptyHash()))
	})

	t.Run("deterministic", func(t *testing.T) {
		txs := TransactionList{sampleTx("a", 1), sampleTx("a", 2), sampleTx("a", 3)}
		r1, err := MerkleRoot(txs)
		require.NoError(t, err)
		r2, err := MerkleRoot(txs)
		require.NoError(t, err)
		require.True(t, r1.Equal(r2))
	})

	t.Run("order sensitive", func(t *testing.T) {
		a := TransactionList{sampleTx("a", 1), sampleTx("a", 2)}
		b := TransactionList{sampleTx("a", 2), sampleTx("a", 1)}
		ra, err := MerkleRoot(a)
		require.NoError(t, err)
		rb, err := MerkleRoot(b)
		require.NoError(t, err)
		require.False(t, ra.Equal(rb))
	})

	t.Run("odd sized list pads with last element", func(t *testing.T) {
		txs := TransactionList{sampleTx("a", 1), sampleTx("a", 2), sampleTx("a", 3)}
		root, err := MerkleRoot(txs)
		require.NoError(t, err)

		h, err := txs.Hashes()
		require.NoError(t, err)
		want := HashConcat(HashConcat(h[0], h[1]), HashConcat(h[2], h[2]))
		require.True(t, root.Equal(want))
	})
}

func TestUnsignedBlockHash(t *testing.T) {
	txs := TransactionList{sampleTx("a", 1), sampleTx("a", 2)}

	b1, err := NewUnsignedBlock(2, 1000, HashBytes([]byte("parent")), txs)
	require.NoError(t, err)

	t.Run("deterministic", func(t *testing.T) {
		h1, err := b1.Hash()
		require.NoError(t, err)
		h2, err := b1.Hash()
		require.NoError(t, err)
		require.True(t, h1.Equal(h2))
	})

	t.Run("sensitive to previous hash", func(t *testing.T) {
		b2, err := NewUnsignedBlock(2, 1000, HashBytes([]byte("other parent")), txs)
		require.NoError(t, err)

		h1, err := b1.Hash()
		require.NoError(t, err)
		h2, err := b2.Hash()
		require.NoError(t, err)
		require.False(t, h1.Equal(h2))
	})

	t.Run("sensitive to transaction content via merkle root", func(t *testing.T) {
		b2, err := NewUnsignedBlock(2, 1000, HashBytes([]byte("parent")), TransactionList{sampleTx("a", 1)})
		require.NoError(t, err)

		h1, err := b1.Hash()
		require.NoError(t, err)
		h2, err := b2.Hash()
		require.NoError(t, err)
		require.False(t, h1.Equal(h2))
	})
}

func TestBlockHasSignatures(t *testing.T) {
	b := Block{}
	require.False(t, b.HasSignatures())

	b.Signatures = []Signature{{PubKey: []byte("pk"), Sig: []byte("sig")}}
	require.True(t, b.HasSignatures())
}

func TestBlockUnsignedRoundTrip(t *testing.T) {
	txs := TransactionList{sampleTx("a", 1)}
	ub, err := NewUnsignedBlock(5, 2000, HashBytes([]byte("parent")), txs)
	require.NoError(t, err)

	signed := Block{
		Height:       ub.Height,
		CreatedTime:  ub.CreatedTime,
		PreviousHash: ub.PreviousHash,
		Transactions: ub.Transactions,
		TxHash:       ub.TxHash,
		Signatures:   []Signature{{PubKey: []byte("pk"), Sig: []byte("sig")}},
	}

	h1, err := ub.Hash()
	require.NoError(t, err)
	h2, err := signed.Hash()
	require.NoError(t, err)
	require.True(t, h1.Equal(h2))
}
