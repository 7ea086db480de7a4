package statestore

import (
	"context"
	"errors"
	"fmt"

	"github.com/blockberries/avlberry"
	"github.com/blockberries/cramberry/pkg/cramberry"

	"github.com/blockberries/blockberry/simulator"
	"github.com/blockberries/blockberry/types"
)

// Errors returned while applying a transaction's commands to a view.
var (
	ErrUnknownCommandKind  = errors.New("statestore: unknown command kind")
	ErrInsufficientBalance = errors.New("statestore: insufficient balance")
)

// setPayload is the decoded payload of a "set" command: it assigns an
// account's balance directly. Useful for seeding state in tests and the
// demo CLI.
type setPayload struct {
	Account string
	Amount  int64
}

// transferPayload is the decoded payload of a "transfer" command: it moves
// Amount from From's balance to To's, failing the command if From's
// balance is insufficient.
type transferPayload struct {
	From   string
	To     string
	Amount int64
}

// IAVLTemporaryViewFactory is the reference Temporary-View Factory (C1): it
// hands out views forked from an IAVLStore's current committed state. Each
// view reads through to the store for keys it has not itself overwritten
// and keeps every write in an in-memory avlberry overlay; nothing a view
// does ever reaches the iavl tree.
type IAVLTemporaryViewFactory struct {
	store *IAVLStore
}

// NewIAVLTemporaryViewFactory wraps store as a Temporary-View Factory.
func NewIAVLTemporaryViewFactory(store *IAVLStore) *IAVLTemporaryViewFactory {
	return &IAVLTemporaryViewFactory{store: store}
}

// CreateView forks a new overlay view from the store's current state.
func (f *IAVLTemporaryViewFactory) CreateView(_ context.Context) (simulator.TemporaryView, error) {
	return newOverlayView(f.store), nil
}

// overlayView is the TemporaryView: an avlberry tree that falls through to
// the backing IAVLStore for reads, keeps writes entirely in memory, and is
// abandoned on Discard.
type overlayView struct {
	backing *IAVLStore
	tree    *avlberry.Tree
}

func newOverlayView(backing *IAVLStore) *overlayView {
	return &overlayView{
		backing: backing,
		tree:    avlberry.New(backing.Get),
	}
}

// Apply speculatively applies every command in tx, in order, against the
// overlay. A failing command at index i leaves commands [0,i) applied to
// the overlay: there is no per-transaction rollback, since the overlay
// itself is discarded wholesale at the end of the proposal's processing
// attempt regardless of outcome.
func (v *overlayView) Apply(tx types.Transaction) error {
	for i, cmd := range tx.Commands {
		if err := v.applyCommand(cmd); err != nil {
			return fmt.Errorf("tx %s#%d: command %d (%s): %w", tx.CreatorID, tx.Counter, i, cmd.Kind, err)
		}
	}
	return nil
}

func (v *overlayView) applyCommand(cmd types.Command) error {
	switch cmd.Kind {
	case "set":
		return v.applySet(cmd.Payload)
	case "transfer":
		return v.applyTransfer(cmd.Payload)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownCommandKind, cmd.Kind)
	}
}

func (v *overlayView) applySet(payload []byte) error {
	var p setPayload
	if err := cramberry.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("decoding set payload: %w", err)
	}

	encoded, err := cramberry.Marshal(p.Amount)
	if err != nil {
		return fmt.Errorf("encoding balance: %w", err)
	}
	v.tree.Set(balanceKey(p.Account), encoded)
	return nil
}

func (v *overlayView) applyTransfer(payload []byte) error {
	var p transferPayload
	if err := cramberry.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("decoding transfer payload: %w", err)
	}

	fromBalance, err := v.getBalance(p.From)
	if err != nil {
		return err
	}
	if fromBalance < p.Amount {
		return fmt.Errorf("%w: account %s has %d, needs %d", ErrInsufficientBalance, p.From, fromBalance, p.Amount)
	}
	toBalance, err := v.getBalance(p.To)
	if err != nil {
		return err
	}

	fromEncoded, err := cramberry.Marshal(fromBalance - p.Amount)
	if err != nil {
		return fmt.Errorf("encoding sender balance: %w", err)
	}
	toEncoded, err := cramberry.Marshal(toBalance + p.Amount)
	if err != nil {
		return fmt.Errorf("encoding recipient balance: %w", err)
	}

	v.tree.Set(balanceKey(p.From), fromEncoded)
	v.tree.Set(balanceKey(p.To), toEncoded)
	return nil
}

func (v *overlayView) getBalance(account string) (int64, error) {
	raw, err := v.tree.Get(balanceKey(account))
	if err != nil {
		return 0, fmt.Errorf("reading balance for %s: %w", account, err)
	}
	if raw == nil {
		return 0, nil
	}

	var amount int64
	if err := cramberry.Unmarshal(raw, &amount); err != nil {
		return 0, fmt.Errorf("decoding balance for %s: %w", account, err)
	}
	return amount, nil
}

// Discard drops the overlay. Nothing written to it was ever persisted to
// the backing store.
func (v *overlayView) Discard() {
	v.tree = nil
}

func balanceKey(account string) []byte {
	return []byte("balance:" + account)
}

// SeedBalance sets an account's balance directly on the backing store. It
// does not commit: callers seeding several accounts should call Commit once
// after the last SeedBalance, as cmd/blockberry-simulate's genesis command
// does. It is the trusted, out-of-band counterpart to the "set" command
// overlayView.applySet applies during proposal processing: the Simulator
// never mutates the backing store itself, so a deployment needs a separate
// path to seed genesis balances before the Simulator's first proposal.
func SeedBalance(store *IAVLStore, account string, amount int64) error {
	encoded, err := cramberry.Marshal(amount)
	if err != nil {
		return fmt.Errorf("encoding balance: %w", err)
	}
	if err := store.Set(balanceKey(account), encoded); err != nil {
		return fmt.Errorf("setting balance for %s: %w", account, err)
	}
	return nil
}

var (
	_ simulator.TemporaryViewFactory = (*IAVLTemporaryViewFactory)(nil)
	_ simulator.TemporaryView        = (*overlayView)(nil)
)
