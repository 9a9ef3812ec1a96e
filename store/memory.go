// Package store provides in-memory implementations of the token's nonce
// and authorization-state stores.
//
// Both stores are safe for concurrent use and resolve races with atomic
// check-and-set: two submissions fighting over the same key are ordered by
// the mutex, the first wins, and the second fails its precondition. These
// implementations suit a single-process deployment; a distributed
// deployment would back the same interfaces with a shared store.
package store

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"

	token "github.com/simpcl/generic-erc20-token"
)

// NonceStore is the in-memory sequential nonce counter for the permit
// flow. Unseen accounts are at nonce 0.
type NonceStore struct {
	mu     sync.Mutex
	nonces map[common.Address]uint64
}

// NewNonceStore creates an empty nonce store.
func NewNonceStore() *NonceStore {
	return &NonceStore{nonces: make(map[common.Address]uint64)}
}

// Nonce returns the account's current nonce.
func (s *NonceStore) Nonce(account common.Address) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nonces[account]
}

// Consume atomically checks that expected is the account's current nonce
// and advances it by one.
func (s *NonceStore) Consume(account common.Address, expected uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.nonces[account] != expected {
		return token.ErrNonceMismatch
	}
	s.nonces[account] = expected + 1
	return nil
}

type authKey struct {
	authorizer common.Address
	nonce      [32]byte
}

// AuthorizationStore is the in-memory three-valued state map for the
// EIP-3009 flow. Entries never revert to Unused: Used and Canceled are
// terminal.
type AuthorizationStore struct {
	mu     sync.Mutex
	states map[authKey]token.AuthorizationState
}

// NewAuthorizationStore creates an empty authorization store.
func NewAuthorizationStore() *AuthorizationStore {
	return &AuthorizationStore{states: make(map[authKey]token.AuthorizationState)}
}

// State returns the pair's current state; unseen pairs are Unused.
func (s *AuthorizationStore) State(authorizer common.Address, nonce [32]byte) token.AuthorizationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[authKey{authorizer, nonce}]
}

// MarkUsed transitions the pair from Unused to Used.
func (s *AuthorizationStore) MarkUsed(authorizer common.Address, nonce [32]byte) error {
	return s.transition(authorizer, nonce, token.AuthorizationUsed)
}

// MarkCanceled transitions the pair from Unused to Canceled.
func (s *AuthorizationStore) MarkCanceled(authorizer common.Address, nonce [32]byte) error {
	return s.transition(authorizer, nonce, token.AuthorizationCanceled)
}

func (s *AuthorizationStore) transition(authorizer common.Address, nonce [32]byte, next token.AuthorizationState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := authKey{authorizer, nonce}
	if s.states[key] != token.AuthorizationUnused {
		return token.ErrAuthorizationConsumed
	}
	s.states[key] = next
	return nil
}
