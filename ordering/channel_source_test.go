package ordering

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/blockberries/blockberry/types"
)

func TestChannelSourceDeliversInFIFOOrder(t *testing.T) {
	src := NewChannelSource(4)
	ch, err := src.Subscribe(context.Background())
	require.NoError(t, err)

	p1 := types.Proposal{Height: 1}
	p2 := types.Proposal{Height: 2}

	require.NoError(t, src.Publish(p1))
	require.NoError(t, src.Publish(p2))

	require.Equal(t, p1, <-ch)
	require.Equal(t, p2, <-ch)
}

func TestChannelSourceRejectsSecondSubscriber(t *testing.T) {
	src := NewChannelSource(1)
	_, err := src.Subscribe(context.Background())
	require.NoError(t, err)

	_, err = src.Subscribe(context.Background())
	require.ErrorIs(t, err, ErrAlreadySubscribed)
}

func TestChannelSourcePublishAfterCloseFails(t *testing.T) {
	src := NewChannelSource(1)
	_, err := src.Subscribe(context.Background())
	require.NoError(t, err)

	src.Close()
	err = src.Publish(types.Proposal{Height: 1})
	require.ErrorIs(t, err, ErrClosed)
}

func TestChannelSourceCloseIsIdempotent(t *testing.T) {
	src := NewChannelSource(1)
	_, err := src.Subscribe(context.Background())
	require.NoError(t, err)

	src.Close()
	require.NotPanics(t, src.Close)
}

func TestChannelSourceClosesOnContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := NewChannelSource(1)
	ch, err := src.Subscribe(ctx)
	require.NoError(t, err)

	cancel()

	select {
	case _, ok := <-ch:
		require.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("expected subscriber channel to close after context cancellation")
	}
}

func TestChannelSourcePublishBeforeSubscribeFails(t *testing.T) {
	src := NewChannelSource(1)
	err := src.Publish(types.Proposal{Height: 1})
	require.ErrorIs(t, err, ErrClosed)
}
