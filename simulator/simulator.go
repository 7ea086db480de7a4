// Package simulator implements the pipeline stage that sits between the
// ordering subsystem (proposals) and the consensus subsystem (block
// voting): it fetches the chain tip, speculatively applies a proposal to a
// temporary world-state view, filters out stateful-invalid transactions,
// signs a candidate block, and republishes both the filtered proposal and
// the block to subscribers.
package simulator

import (
	"context"
	"fmt"
	"sync"

	"github.com/blockberries/blockberry/logging"
	"github.com/blockberries/blockberry/types"
)

// TemporaryView is a scoped, exclusive, rollback-only snapshot of world
// state. It has no Commit method — Discard is the only exit, which makes
// "the Simulator never commits persistent state" a compile-time property.
type TemporaryView interface {
	// Apply speculatively applies a transaction's commands to the view.
	// A non-nil error means the transaction is stateful-invalid.
	Apply(tx types.Transaction) error

	// Discard releases the view. It is always called exactly once per
	// view, regardless of how the simulation attempt using it ends.
	Discard()
}

// TemporaryViewFactory hands out fresh TemporaryViews (C1).
type TemporaryViewFactory interface {
	CreateView(ctx context.Context) (TemporaryView, error)
}

// BlockQuery returns the top-of-chain block(s) by height (C2). Only n=1 is
// used by the Simulator; the returned channel yields at most n blocks,
// highest height first, and may be empty for a fresh chain.
type BlockQuery interface {
	TopBlocks(ctx context.Context, n int) (<-chan types.Block, error)
}

// StatefulValidator returns the stateful-valid subset of a proposal's
// transactions, in original order, given a temporary view to validate
// against (C3). Implementations must be deterministic given (p, v) and
// must not mutate v in a way visible after Validate returns.
type StatefulValidator interface {
	Validate(ctx context.Context, p types.Proposal, v TemporaryView) (types.Proposal, error)
}

// Signer signs an unsigned block, attaching exactly one signature (C4).
type Signer interface {
	Sign(block types.UnsignedBlock) (types.Block, error)
}

// ProposalSource is a cold/hot stream of proposals in the order ordering
// chose (C5). Heights are not guaranteed monotonic at this boundary;
// created-time is monotonically non-decreasing.
type ProposalSource interface {
	Subscribe(ctx context.Context) (<-chan types.Proposal, error)
}

// ValidationError marks a programmer error detected at construction: a nil
// collaborator or an invalid buffer size. New panics with a *ValidationError
// rather than returning one — per the error taxonomy, programmer errors
// fail fast and are never silently absorbed like the per-proposal failure
// categories.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("simulator: invalid %s: %s", e.Field, e.Reason)
}

const (
	defaultProposalBufferSize = 64
	defaultStreamBufferSize   = 64
)

// Option configures optional Simulator parameters.
type Option func(*Simulator)

// WithLogger sets the logger the Simulator reports collaborator failures
// and signing failures to. Defaults to a no-op logger.
func WithLogger(logger *logging.Logger) Option {
	return func(s *Simulator) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithProposalBufferSize sets the proposal buffer size, which New checks is
// positive. The run loop reads the channel returned by
// ProposalSource.Subscribe directly, so this value does not set that
// channel's capacity; the source chooses it.
func WithProposalBufferSize(n int) Option {
	return func(s *Simulator) {
		s.proposalBufferSize = n
	}
}

// WithStreamBufferSize sets the per-subscriber buffer capacity for
// VerifiedProposalStream and CandidateBlockStream. Must be positive.
func WithStreamBufferSize(n int) Option {
	return func(s *Simulator) {
		s.streamBufferSize = n
	}
}

// WithMetrics attaches a metrics sink. Defaults to a no-op recorder.
func WithMetrics(m Metrics) Option {
	return func(s *Simulator) {
		if m != nil {
			s.metrics = m
		}
	}
}

// Metrics receives observations about the Simulator's per-proposal
// outcomes. The reference implementation is metrics.PrometheusMetrics;
// tests use a no-op recorder.
type Metrics interface {
	ObserveDropped(reason string)
	ObserveVerified(txCount int)
	ObserveSigned()
	ObserveSigningFailure()
}

type noopMetrics struct{}

func (noopMetrics) ObserveDropped(string)  {}
func (noopMetrics) ObserveVerified(int)    {}
func (noopMetrics) ObserveSigned()         {}
func (noopMetrics) ObserveSigningFailure() {}

// Simulator orchestrates C1-C5, owns the two output streams, and enforces
// chain continuity. It processes proposals one at a time, in the order
// received, on a single goroutine started by Start and stopped by
// Shutdown.
type Simulator struct {
	viewFactory TemporaryViewFactory
	blockQuery  BlockQuery
	validator   StatefulValidator
	signer      Signer
	source      ProposalSource

	verified *VerifiedProposalStream
	blocks   *CandidateBlockStream

	logger      *logging.Logger
	verifiedLog *logging.Logger
	blockLog    *logging.Logger
	metrics     Metrics

	proposalBufferSize int
	streamBufferSize   int

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New constructs a Simulator from its five collaborators. It does not
// subscribe to the proposal stream and does no work until Start is called
// — subscription is a side effect of Start, not of construction, so a
// caller can tear down cleanly with Shutdown before disposing collaborators
// without ever having created a live subscription cycle.
//
// New panics with a *ValidationError if any collaborator is nil or if a
// supplied buffer-size option is not positive: these are programmer errors,
// not recoverable conditions.
func New(
	viewFactory TemporaryViewFactory,
	blockQuery BlockQuery,
	validator StatefulValidator,
	signer Signer,
	source ProposalSource,
	opts ...Option,
) *Simulator {
	if viewFactory == nil {
		panic(&ValidationError{Field: "viewFactory", Reason: "must not be nil"})
	}
	if blockQuery == nil {
		panic(&ValidationError{Field: "blockQuery", Reason: "must not be nil"})
	}
	if validator == nil {
		panic(&ValidationError{Field: "validator", Reason: "must not be nil"})
	}
	if signer == nil {
		panic(&ValidationError{Field: "signer", Reason: "must not be nil"})
	}
	if source == nil {
		panic(&ValidationError{Field: "source", Reason: "must not be nil"})
	}

	s := &Simulator{
		viewFactory:        viewFactory,
		blockQuery:         blockQuery,
		validator:          validator,
		signer:             signer,
		source:             source,
		logger:             logging.NewNopLogger(),
		metrics:            noopMetrics{},
		proposalBufferSize: defaultProposalBufferSize,
		streamBufferSize:   defaultStreamBufferSize,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.proposalBufferSize <= 0 {
		panic(&ValidationError{Field: "proposalBufferSize", Reason: "must be positive"})
	}
	if s.streamBufferSize <= 0 {
		panic(&ValidationError{Field: "streamBufferSize", Reason: "must be positive"})
	}

	s.verified = newVerifiedProposalStream(s.streamBufferSize)
	s.blocks = newCandidateBlockStream(s.streamBufferSize)
	s.verifiedLog = s.logger.WithStream("verified_proposals")
	s.blockLog = s.logger.WithStream("candidate_blocks")

	return s
}

// OnVerifiedProposal returns the stream of proposals that passed stateful
// validation, possibly with some transactions filtered out.
func (s *Simulator) OnVerifiedProposal() *VerifiedProposalStream {
	return s.verified
}

// OnBlock returns the stream of signed candidate blocks derived from
// verified proposals.
func (s *Simulator) OnBlock() *CandidateBlockStream {
	return s.blocks
}

// Start subscribes to the proposal stream and begins processing proposals
// on a dedicated goroutine. Start is idempotent: calling it again on an
// already-started Simulator is a no-op.
func (s *Simulator) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	proposals, err := s.source.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("simulator: subscribing to proposal stream: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.run(runCtx, proposals)

	s.started = true
	return nil
}

// Shutdown cancels the run loop's context and waits for it to exit before
// returning, tearing down the proposal-stream subscription before any
// collaborator is destroyed. Once the loop has exited, Shutdown closes
// every subscriber channel of both output streams; if ctx ends first, it
// returns ctx.Err() and leaves the streams open.
func (s *Simulator) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	cancel := s.cancel
	s.started = false
	s.mu.Unlock()

	cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.verified.closeAll()
		s.blocks.closeAll()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the Simulator's single serialized processing loop: proposals are
// drained and processed one at a time, in the order received.
func (s *Simulator) run(ctx context.Context, proposals <-chan types.Proposal) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case p, ok := <-proposals:
			if !ok {
				return
			}
			s.processProposal(ctx, p)
		}
	}
}

// processProposal drives one end-to-end pass for a single proposal. It
// never panics out to the caller: its deferred recover catches every
// panic, including the one it raises itself for the reserved
// programmer-error case (non-subsequence validator output), logs it, and
// treats the proposal as dropped — a misbehaving validator is a bug in a
// trusted collaborator, not a proposal-level failure.
func (s *Simulator) processProposal(ctx context.Context, p types.Proposal) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("simulator: recovered from panic processing proposal",
				logging.Height(p.Height.Int64()), logging.Reason(fmt.Sprintf("%v", r)))
			s.metrics.ObserveDropped("panic")
		}
	}()

	top, ok, err := s.fetchTip(ctx)
	if err != nil {
		s.logger.Warn("simulator: block query failed, dropping proposal",
			logging.Height(p.Height.Int64()), logging.Error(err))
		s.metrics.ObserveDropped("block_query_error")
		return
	}

	if !s.continuityOK(top, ok, p) {
		// Routine during catch-up or forked ordering output: not logged
		// at warn/error per the "preconditions-unmet is silent" rule.
		s.metrics.ObserveDropped("continuity")
		return
	}

	view, err := s.viewFactory.CreateView(ctx)
	if err != nil {
		s.logger.Warn("simulator: creating temporary view failed, dropping proposal",
			logging.Height(p.Height.Int64()), logging.Error(err))
		s.metrics.ObserveDropped("view_factory_error")
		return
	}
	defer view.Discard()

	verified, err := s.validator.Validate(ctx, p, view)
	if err != nil {
		s.logger.Warn("simulator: stateful validation failed, dropping proposal",
			logging.Height(p.Height.Int64()), logging.Error(err))
		s.metrics.ObserveDropped("validator_error")
		return
	}

	if !verified.Transactions.IsSubsequenceOf(p.Transactions) {
		panic(&ValidationError{
			Field:  "validator output",
			Reason: "verified proposal's transactions are not a subsequence of the input proposal",
		})
	}

	s.verified.publish(verified)
	s.verifiedLog.Debug("simulator: published verified proposal", logging.Height(verified.Height.Int64()))
	s.metrics.ObserveVerified(len(verified.Transactions))

	block, err := s.buildCandidateBlock(top, p, verified)
	if err != nil {
		s.logger.Error("simulator: building candidate block failed",
			logging.Height(p.Height.Int64()), logging.Error(err))
		s.metrics.ObserveSigningFailure()
		return
	}

	signed, err := s.signer.Sign(block)
	if err != nil {
		// Asymmetric emission is intentional: the verified-proposal
		// emission already happened. Downstream components observing
		// on_verified_proposal without a matching on_block must treat
		// it as a signing failure.
		s.logger.Error("simulator: signing candidate block failed",
			logging.Height(p.Height.Int64()), logging.Error(err))
		s.metrics.ObserveSigningFailure()
		return
	}

	s.blocks.publish(signed)
	s.blockLog.Debug("simulator: published candidate block", logging.Height(signed.Height.Int64()))
	s.metrics.ObserveSigned()
}

// fetchTip pulls the first element of the (at most one) top-block query.
// ok is false if the chain has no blocks yet (fresh chain).
func (s *Simulator) fetchTip(ctx context.Context) (top types.Block, ok bool, err error) {
	ch, err := s.blockQuery.TopBlocks(ctx, 1)
	if err != nil {
		return types.Block{}, false, err
	}

	select {
	case top, ok = <-ch:
		return top, ok, nil
	case <-ctx.Done():
		return types.Block{}, false, ctx.Err()
	}
}

// continuityOK implements the §4.1 continuity check: a proposal's height
// must be exactly the tip's height plus one. A missing tip or a height
// mismatch (stale or premature proposal) both fail the check.
func (s *Simulator) continuityOK(top types.Block, haveTip bool, p types.Proposal) bool {
	if !haveTip {
		return false
	}
	return top.Height+1 == p.Height
}

// buildCandidateBlock constructs the unsigned block for a verified
// proposal. CreatedTime is the proposal's created-time, not wall-clock at
// construction: the Simulator must be replayable given the same proposal
// and chain state, and reading the clock here would make two simulation
// attempts over an identical (proposal, tip) pair produce different
// blocks.
func (s *Simulator) buildCandidateBlock(top types.Block, p types.Proposal, verified types.Proposal) (types.UnsignedBlock, error) {
	previousHash, err := top.Hash()
	if err != nil {
		return types.UnsignedBlock{}, fmt.Errorf("hashing top block: %w", err)
	}

	return types.NewUnsignedBlock(p.Height, p.CreatedTime, previousHash, verified.Transactions)
}
