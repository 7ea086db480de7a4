// Package ordering provides the reference Proposal Stream Source (C5): a
// minimal, in-process stand-in for the real ordering gate's network
// stream, sufficient to drive the Simulator's hot/cold subscription
// semantics.
package ordering

import (
	"context"
	"errors"
	"sync"

	"github.com/blockberries/blockberry/simulator"
	"github.com/blockberries/blockberry/types"
)

// Errors returned by ChannelSource.
var (
	// ErrAlreadySubscribed is returned by Subscribe when a subscriber is
	// already attached. ChannelSource supports exactly one subscriber,
	// matching the Simulator's single construction-time (now Start-time)
	// subscription.
	ErrAlreadySubscribed = errors.New("ordering: channel source already has a subscriber")

	// ErrClosed is returned by Publish once the source has been closed.
	ErrClosed = errors.New("ordering: channel source is closed")
)

// ChannelSource is a buffered-channel-backed ProposalSource. Proposals
// handed to Publish are delivered to the single subscriber in FIFO order;
// heights are not guaranteed monotonic (the caller may feed it forked
// ordering output), but Publish callers are expected to keep created-time
// non-decreasing, per the Proposal Stream Source contract.
type ChannelSource struct {
	mu         sync.Mutex
	ch         chan types.Proposal
	bufferSize int
	subscribed bool
	closed     bool
}

// NewChannelSource creates a ChannelSource with the given subscriber
// buffer capacity.
func NewChannelSource(bufferSize int) *ChannelSource {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &ChannelSource{bufferSize: bufferSize}
}

// Subscribe returns the channel of proposals published to this source.
// ChannelSource supports a single subscriber for its whole lifetime: every
// call after the first returns ErrAlreadySubscribed, including calls made
// after the source has been closed.
func (c *ChannelSource) Subscribe(ctx context.Context) (<-chan types.Proposal, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.subscribed {
		return nil, ErrAlreadySubscribed
	}

	c.ch = make(chan types.Proposal, c.bufferSize)
	c.subscribed = true

	if ctx != nil && ctx.Done() != nil {
		go func() {
			<-ctx.Done()
			c.Close()
		}()
	}

	return c.ch, nil
}

// Publish delivers a proposal to the current subscriber, blocking if its
// buffer is full. Returns ErrClosed once the source has been closed.
func (c *ChannelSource) Publish(p types.Proposal) (err error) {
	c.mu.Lock()
	ch := c.ch
	closed := c.closed
	c.mu.Unlock()

	if closed || ch == nil {
		return ErrClosed
	}

	defer func() {
		// A send on a channel concurrently closed by Close/context
		// cancellation panics; recovering converts it into ErrClosed
		// instead of crashing the publisher.
		if r := recover(); r != nil {
			err = ErrClosed
		}
	}()

	ch <- p
	return nil
}

// Close closes the subscriber channel. Idempotent.
func (c *ChannelSource) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	if c.ch != nil {
		close(c.ch)
	}
}

var _ simulator.ProposalSource = (*ChannelSource)(nil)
