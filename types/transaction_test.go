package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleTx(creator string, counter uint64) Transaction {
	return Transaction{
		CreatorID:   creator,
		Counter:     counter,
		CreatedTime: 1000,
		Commands: []Command{
			{Kind: "set", Payload: []byte("balance:alice=100")},
		},
	}
}

func TestTransactionHash(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		tx := sampleTx("alice", 1)
		h1, err := tx.Hash()
		require.NoError(t, err)
		h2, err := tx.Hash()
		require.NoError(t, err)
		require.True(t, h1.Equal(h2))
	})

	t.Run("ignores signatures", func(t *testing.T) {
		tx := sampleTx("alice", 1)
		signed := tx
		signed.Signatures = []Signature{{PubKey: []byte("pk"), Sig: []byte("sig")}}

		h1, err := tx.Hash()
		require.NoError(t, err)
		h2, err := signed.Hash()
		require.NoError(t, err)
		require.True(t, h1.Equal(h2))
	})

	t.Run("distinguishes different content", func(t *testing.T) {
		tx1 := sampleTx("alice", 1)
		tx2 := sampleTx("alice", 2)
		h1, err := tx1.Hash()
		require.NoError(t, err)
		h2, err := tx2.Hash()
		require.NoError(t, err)
		require.False(t, h1.Equal(h2))
	})
}

func TestTransactionEqual(t *testing.T) {
	tx1 := sampleTx("alice", 1)
	tx2 := sampleTx("alice", 1)
	require.True(t, tx1.Equal(tx2))

	tx3 := sampleTx("alice", 2)
	require.False(t, tx1.Equal(tx3))
}

func TestTransactionListIsSubsequenceOf(t *testing.T) {
	t1 := sampleTx("a", 1)
	t2 := sampleTx("a", 2)
	t3 := sampleTx("a", 3)
	all := TransactionList{t1, t2, t3}

	t.Run("full list is a subsequence of itself", func(t *testing.T) {
		require.True(t, all.IsSubsequenceOf(all))
	})

	t.Run("filtered subset preserving order", func(t *testing.T) {
		filtered := TransactionList{t1, t3}
		require.True(t, filtered.IsSubsequenceOf(all))
	})

	t.Run("empty is a subsequence of anything", func(t *testing.T) {
		require.True(t, TransactionList{}.IsSubsequenceOf(all))
	})

	t.Run("reordering is rejected", func(t *testing.T) {
		reordered := TransactionList{t3, t1}
		require.False(t, reordered.IsSubsequenceOf(all))
	})

	t.Run("injected transaction not present in input is rejected", func(t *testing.T) {
		foreign := sampleTx("mallory", 99)
		injected := TransactionList{t1, foreign, t3}
		require.False(t, injected.IsSubsequenceOf(all))
	})

	t.Run("duplicated transaction not present twice upstream is rejected", func(t *testing.T) {
		duplicated := TransactionList{t1, t1}
		single := TransactionList{t1, t2}
		require.False(t, duplicated.IsSubsequenceOf(single))
	})
}
