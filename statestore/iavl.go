// Package statestore provides the merkleized state store the Simulator's
// temporary-view factory forks from. Version history, merkle proofs, and
// key-deletion are query/consensus concerns outside the Simulator's scope
// and are not exposed here — see IAVLTemporaryViewFactory in view.go for
// the read-through, write-to-overlay-only view the Simulator actually
// receives.
package statestore

import (
	"fmt"
	"sync"

	"github.com/cosmos/iavl"
	idb "github.com/cosmos/iavl/db"
)

// IAVLStore is a cosmos/iavl-backed merkle tree holding committed account
// state. The Simulator never writes to it directly: every proposal is
// applied to a throwaway overlayView (view.go) and the tree only advances
// when a genesis-seeding or other trusted administrative path calls Set
// and Commit outside the Simulator's processing loop.
type IAVLStore struct {
	tree *iavl.MutableTree
	db   idb.DB
	mu   sync.RWMutex
}

// NewIAVLStore creates a new IAVL-backed state store.
// path is the directory for persistent storage.
// cacheSize is the number of nodes to cache in memory.
func NewIAVLStore(path string, cacheSize int) (*IAVLStore, error) {
	db, err := idb.NewGoLevelDB("state", path)
	if err != nil {
		return nil, fmt.Errorf("opening leveldb for iavl: %w", err)
	}

	tree := iavl.NewMutableTree(db, cacheSize, false, iavl.NewNopLogger())

	if _, err := tree.Load(); err != nil {
		db.Close()
		return nil, fmt.Errorf("loading iavl tree: %w", err)
	}

	return &IAVLStore{
		tree: tree,
		db:   db,
	}, nil
}

// NewMemoryIAVLStore creates an in-memory IAVL store for testing and the
// demo CLI's default (no persistent statestore.path configured) mode.
func NewMemoryIAVLStore(cacheSize int) (*IAVLStore, error) {
	db := idb.NewMemDB()
	tree := iavl.NewMutableTree(db, cacheSize, false, iavl.NewNopLogger())

	return &IAVLStore{
		tree: tree,
		db:   db,
	}, nil
}

// Get retrieves the value committed for a key. It is the only read path
// IAVLTemporaryViewFactory's overlay falls through to.
func (s *IAVLStore) Get(key []byte) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, err := s.tree.Get(key)
	if err != nil {
		return nil, fmt.Errorf("getting key: %w", err)
	}
	return value, nil
}

// Set stores a key-value pair in the working tree. Used only by the
// genesis-seeding path (cmd/blockberry-simulate genesis) — the Simulator's
// own proposal processing never calls this, applying every command to an
// overlayView instead.
func (s *IAVLStore) Set(key []byte, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if key == nil {
		return fmt.Errorf("key cannot be nil")
	}
	if value == nil {
		return fmt.Errorf("value cannot be nil")
	}

	_, err := s.tree.Set(key, value)
	if err != nil {
		return fmt.Errorf("setting key: %w", err)
	}
	return nil
}

// Commit saves the current working tree as a new version and returns its
// root hash. Like Set, this is exercised by the genesis-seeding path, not
// by the Simulator's proposal-processing loop.
func (s *IAVLStore) Commit() ([]byte, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hash, version, err := s.tree.SaveVersion()
	if err != nil {
		return nil, 0, fmt.Errorf("saving version: %w", err)
	}
	return hash, version, nil
}

// RootHash returns the root hash of the current working tree.
func (s *IAVLStore) RootHash() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.tree.WorkingHash()
}

// Close closes the store and releases resources.
func (s *IAVLStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Close()
}
