package token

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Ledger is the balance/gating collaborator. The authorization core never
// touches balance arithmetic itself; it drives the ledger through these
// entry points and surfaces the ledger's own errors unchanged. Transfer is
// responsible for its internal gating (halted state, barred parties, zero
// addresses, balance checks).
type Ledger interface {
	// Transfer moves value from one account to another. Fails with
	// ErrInsufficientBalance, ErrPartyRejected, ErrZeroAddress or
	// ErrSystemHalted.
	Transfer(from, to common.Address, value *big.Int) error

	// SetAllowance sets the spender's allowance over the owner's balance.
	// Used by the permit flow.
	SetAllowance(owner, spender common.Address, value *big.Int) error

	// IsPartyRejected reports whether the account is barred from sending
	// or receiving.
	IsPartyRejected(account common.Address) bool

	// IsHalted reports whether the system is in its emergency state.
	IsHalted() bool
}

// NonceStore is the sequential per-account nonce counter for the permit
// flow. It is owned exclusively by the orchestrator; nothing else may
// advance it.
type NonceStore interface {
	// Nonce returns the account's current nonce, 0 for accounts never seen.
	Nonce(account common.Address) uint64

	// Consume advances the account's nonce by one, failing with
	// ErrNonceMismatch unless expected equals the current value. The check
	// and the increment are a single atomic step.
	Consume(account common.Address, expected uint64) error
}

// AuthorizationStore tracks the three-valued state of every
// (authorizer, nonce) pair on the EIP-3009 path. Both mutations are atomic
// check-and-set operations: whichever of two racing submissions commits
// first wins, and the loser fails its precondition instead of corrupting
// state.
type AuthorizationStore interface {
	// State returns the pair's current state. Unseen pairs are Unused.
	State(authorizer common.Address, nonce [32]byte) AuthorizationState

	// MarkUsed transitions Unused to Used, failing with
	// ErrAuthorizationConsumed from any other state.
	MarkUsed(authorizer common.Address, nonce [32]byte) error

	// MarkCanceled transitions Unused to Canceled, failing with
	// ErrAuthorizationConsumed from any other state.
	MarkCanceled(authorizer common.Address, nonce [32]byte) error
}
