package types

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/sha3"
)

func TestHashSize(t *testing.T) {
	require.Equal(t, 32, HashSize)
}

func TestHashBytes(t *testing.T) {
	t.Run("basic hash", func(t *testing.T) {
		h := HashBytes([]byte("test data"))
		require.Len(t, h, HashSize)
	})

	t.Run("deterministic", func(t *testing.T) {
		h1 := HashBytes([]byte("test data"))
		h2 := HashBytes([]byte("test data"))
		require.True(t, h1.Equal(h2))
	})

	t.Run("different inputs have different hashes", func(t *testing.T) {
		h1 := HashBytes([]byte("a"))
		h2 := HashBytes([]byte("b"))
		require.False(t, h1.Equal(h2))
	})

	t.Run("nil data", func(t *testing.T) {
		h := HashBytes(nil)
		require.Nil(t, h)
	})

	t.Run("matches sha3 directly", func(t *testing.T) {
		data := []byte("test")
		h := HashBytes(data)

		expected := sha3.Sum256(data)
		require.Equal(t, expected[:], h.Bytes())
	})
}

func TestHashConcat(t *testing.T) {
	t.Run("basic concat", func(t *testing.T) {
		h1 := HashBytes([]byte("left"))
		h2 := HashBytes([]byte("right"))
		result := HashConcat(h1, h2)
		require.Len(t, result, HashSize)
	})

	t.Run("order matters", func(t *testing.T) {
		h1 := HashBytes([]byte("a"))
		h2 := HashBytes([]byte("b"))
		result1 := HashConcat(h1, h2)
		result2 := HashConcat(h2, h1)
		require.False(t, result1.Equal(result2))
	})

	t.Run("deterministic", func(t *testing.T) {
		h1 := HashBytes([]byte("left"))
		h2 := HashBytes([]byte("right"))
		result1 := HashConcat(h1, h2)
		result2 := HashConcat(h1, h2)
		require.True(t, result1.Equal(result2))
	})
}

func TestEmptyHash(t *testing.T) {
	t.Run("returns correct length", func(t *testing.T) {
		h := EmptyHash()
		require.Len(t, h, HashSize)
	})

	t.Run("deterministic", func(t *testing.T) {
		h1 := EmptyHash()
		h2 := EmptyHash()
		require.True(t, h1.Equal(h2))
	})

	t.Run("matches sha3 of empty", func(t *testing.T) {
		h := EmptyHash()
		expected := sha3.Sum256([]byte{})
		require.Equal(t, expected[:], h.Bytes())
	})
}

func TestHashFromHex(t *testing.T) {
	t.Run("round trips", func(t *testing.T) {
		h := HashBytes([]byte("round trip"))
		parsed, err := HashFromHex(h.String())
		require.NoError(t, err)
		require.True(t, h.Equal(parsed))
	})

	t.Run("rejects invalid hex", func(t *testing.T) {
		_, err := HashFromHex("not hex")
		require.Error(t, err)
	})
}

func BenchmarkHashBytes(b *testing.B) {
	data := make([]byte, 256)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		HashBytes(data)
	}
}

func BenchmarkHashConcat(b *testing.B) {
	h1 := HashBytes([]byte("left"))
	h2 := HashBytes([]byte("right"))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		HashConcat(h1, h2)
	}
}
