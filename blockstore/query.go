package blockstore

import (
	"context"
	"fmt"

	"github.com/blockberries/blockberry/simulator"
	"github.com/blockberries/blockberry/types"
)

// BlockQuery is the reference Block Query collaborator (C2): it adapts any
// BlockStore into the read path the Simulator uses to fetch the current
// chain tip and re-establish continuity after a restart.
type BlockQuery struct {
	store BlockStore
}

// NewBlockQuery wraps store as a Block Query.
func NewBlockQuery(store BlockStore) *BlockQuery {
	return &BlockQuery{store: store}
}

// TopBlocks streams up to n of the most recently stored blocks, highest
// height first, stopping early if the store's base is reached. The channel
// is closed once every requested block has been sent, the store is empty,
// or ctx is cancelled.
func (q *BlockQuery) TopBlocks(ctx context.Context, n int) (<-chan types.Block, error) {
	if n <= 0 {
		return nil, fmt.Errorf("blockstore: TopBlocks requires n > 0, got %d", n)
	}

	out := make(chan types.Block)

	top := q.store.Height()
	base := q.store.Base()

	go func() {
		defer close(out)

		if top == 0 {
			return
		}

		sent := 0
		for height := top; height >= base && sent < n; height-- {
			_, data, err := q.store.LoadBlock(height)
			if err != nil {
				return
			}
			block, err := types.UnmarshalBlock(data)
			if err != nil {
				return
			}

			select {
			case out <- block:
				sent++
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

var _ simulator.BlockQuery = (*BlockQuery)(nil)
