package simulator

import (
	"sync"

	"github.com/blockberries/blockberry/types"
)

// broadcaster is a hot, multi-consumer, single-producer broadcast channel:
// every subscriber gets its own buffered channel, publish fans a value out
// to all of them non-blocking (a full subscriber buffer drops the value
// for that subscriber rather than stalling the Simulator's single
// processing goroutine), and closing tears every subscriber down. It is
// the same subscribe/unsubscribe/buffered-channel shape as the teacher's
// pkg/events.Bus, specialized to one payload type with no query matching
// and no replay, since hot semantics are required for P5.
type broadcaster[T any] struct {
	mu         sync.Mutex
	subs       map[int]chan T
	nextID     int
	bufferSize int
	closed     bool
}

func newBroadcaster[T any](bufferSize int) *broadcaster[T] {
	return &broadcaster[T]{
		subs:       make(map[int]chan T),
		bufferSize: bufferSize,
	}
}

// subscribe registers a new consumer and returns its channel plus an
// unsubscribe function. A subscriber attaching after earlier values were
// published does not see them: streams are hot, not replayed.
func (b *broadcaster[T]) subscribe() (<-chan T, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan T, b.bufferSize)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	return ch, func() { b.unsubscribe(id) }
}

func (b *broadcaster[T]) unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

// publish fans a value out to every live subscriber. Publishes to
// different subscribers are independent: a slow subscriber's full buffer
// never blocks delivery to others or the caller.
func (b *broadcaster[T]) publish(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- v:
		default:
		}
	}
}

// closeAll closes every subscriber's channel and marks the broadcaster
// closed: subsequent subscribe calls receive an already-closed channel.
func (b *broadcaster[T]) closeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		close(ch)
		delete(b.subs, id)
	}
}

// numSubscribers returns the current number of live subscribers.
func (b *broadcaster[T]) numSubscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// VerifiedProposalStream is the Simulator's output stream of proposals
// that passed stateful validation, possibly with some transactions
// filtered out.
type VerifiedProposalStream struct {
	b *broadcaster[types.Proposal]
}

func newVerifiedProposalStream(bufferSize int) *VerifiedProposalStream {
	return &VerifiedProposalStream{b: newBroadcaster[types.Proposal](bufferSize)}
}

// Subscribe registers a new consumer of verified proposals. The returned
// function unsubscribes and closes the returned channel.
func (s *VerifiedProposalStream) Subscribe() (<-chan types.Proposal, func()) {
	return s.b.subscribe()
}

// NumSubscribers returns the current number of live subscribers.
func (s *VerifiedProposalStream) NumSubscribers() int {
	return s.b.numSubscribers()
}

func (s *VerifiedProposalStream) publish(p types.Proposal) { s.b.publish(p) }
func (s *VerifiedProposalStream) closeAll()                { s.b.closeAll() }

// CandidateBlockStream is the Simulator's output stream of signed
// candidate blocks derived from verified proposals.
type CandidateBlockStream struct {
	b *broadcaster[types.Block]
}

func newCandidateBlockStream(bufferSize int) *CandidateBlockStream {
	return &CandidateBlockStream{b: newBroadcaster[types.Block](bufferSize)}
}

// Subscribe registers a new consumer of candidate blocks. The returned
// function unsubscribes and closes the returned channel.
func (s *CandidateBlockStream) Subscribe() (<-chan types.Block, func()) {
	return s.b.subscribe()
}

// NumSubscribers returns the current number of live subscribers.
func (s *CandidateBlockStream) NumSubscribers() int {
	return s.b.numSubscribers()
}

func (s *CandidateBlockStream) publish(b types.Block) { s.b.publish(b) }
func (s *CandidateBlockStream) closeAll()             { s.b.closeAll() }
