// Package validation provides the reference Stateful Validator (C3): given
// a proposal and a temporary view, it returns the subset of transactions
// that apply cleanly to the view, in their original order.
package validation

import (
	"context"
	"errors"

	"github.com/blockberries/blockberry/simulator"
	"github.com/blockberries/blockberry/types"
)

// Errors returned by SimpleStatefulValidator.
var (
	ErrNilView = errors.New("validation: temporary view is nil")
)

// SimpleStatefulValidator applies each transaction's commands to the given
// view in order, keeping a transaction in the output set iff every one of
// its commands applies cleanly. It is deterministic given (proposal, view)
// and never mutates anything outside the view it was handed.
type SimpleStatefulValidator struct{}

// NewSimpleStatefulValidator constructs the reference validator. It holds
// no state of its own; a single instance may be reused across proposals.
func NewSimpleStatefulValidator() *SimpleStatefulValidator {
	return &SimpleStatefulValidator{}
}

// Validate returns the stateful-valid subset of p.Transactions, in
// original order. A transaction is kept iff view.Apply returns no error
// for it; a rejected transaction's partially-applied commands remain on
// the view (there is no per-transaction rollback) since the whole view is
// discarded, never committed, once the proposal's processing attempt ends.
func (v *SimpleStatefulValidator) Validate(_ context.Context, p types.Proposal, view simulator.TemporaryView) (types.Proposal, error) {
	if view == nil {
		return types.Proposal{}, ErrNilView
	}

	kept := make(types.TransactionList, 0, len(p.Transactions))
	for _, tx := range p.Transactions {
		if err := view.Apply(tx); err != nil {
			continue
		}
		kept = append(kept, tx)
	}

	return types.Proposal{
		Height:       p.Height,
		CreatedTime:  p.CreatedTime,
		Transactions: kept,
	}, nil
}

var _ simulator.StatefulValidator = (*SimpleStatefulValidator)(nil)
