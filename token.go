package token

import (
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/simpcl/generic-erc20-token/eip712"
)

// Token is the authorization orchestrator. It composes the typed-data
// domain, the injected nonce/authorization stores and the ledger
// collaborator into the four signature-authorized operations, enforcing
// each operation's canonical check order.
//
// Operations are serialized by an internal mutex: one operation commits
// fully or has zero effect before the next begins. Every failure check
// runs before any state is mutated, so a failed operation never leaves a
// partial write behind.
type Token struct {
	mu     sync.Mutex
	domain eip712.Domain
	ledger Ledger
	nonces NonceStore
	auths  AuthorizationStore
	now    func() time.Time
}

// Option configures a Token.
type Option func(*Token)

// WithClock overrides the time source. Used by tests to pin the validity
// window checks.
func WithClock(now func() time.Time) Option {
	return func(t *Token) {
		t.now = now
	}
}

// New creates a Token bound to one deployment. The domain separator is
// derived once from (name, version "1", chainID, contract) and reused for
// every digest.
func New(
	name string,
	chainID *big.Int,
	contract common.Address,
	ledger Ledger,
	nonces NonceStore,
	auths AuthorizationStore,
	opts ...Option,
) *Token {
	t := &Token{
		domain: eip712.NewDomain(name, chainID, contract),
		ledger: ledger,
		nonces: nonces,
		auths:  auths,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Permit sets allowance(owner -> spender) = value, authorized by the
// owner's signature over the EIP-2612 Permit message. The message binds
// the owner's current sequential nonce, which is consumed on success.
//
// Check order: halted, deadline, signature, nonce consumption.
//
// Permit is gated by the halted state like the transfer operations, even
// though approval by signature does not itself move balances.
func (t *Token) Permit(owner, spender common.Address, value, deadline *big.Int, sig eip712.Signature) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.ledger.IsHalted() {
		return ErrSystemHalted
	}
	if t.timestamp().Cmp(deadline) > 0 {
		return ErrExpired
	}

	nonce := t.nonces.Nonce(owner)
	digest := eip712.SigningDigest(t.domain, eip712.Permit{
		Owner:    owner,
		Spender:  spender,
		Value:    value,
		Nonce:    new(big.Int).SetUint64(nonce),
		Deadline: deadline,
	}.StructHash())
	if err := t.requireSigner(digest, sig, owner); err != nil {
		return err
	}

	if err := t.nonces.Consume(owner, nonce); err != nil {
		return err
	}
	return t.ledger.SetAllowance(owner, spender, value)
}

// TransferWithAuthorization executes a transfer signed by the payer.
// Callable by anyone; third-party relays routinely submit these.
//
// Check order: halted, barred parties, validAfter, validBefore,
// authorization state, signature. The authorization flips to Used and the
// ledger transfer commit together or not at all.
func (t *Token) TransferWithAuthorization(
	from, to common.Address,
	value, validAfter, validBefore *big.Int,
	nonce [32]byte,
	sig eip712.Signature,
) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	digest := eip712.SigningDigest(t.domain, eip712.TransferAuthorization{
		From:        from,
		To:          to,
		Value:       value,
		ValidAfter:  validAfter,
		ValidBefore: validBefore,
		Nonce:       nonce,
	}.StructHash())
	return t.executeAuthorized(digest, from, to, value, validAfter, validBefore, nonce, sig)
}

// ReceiveWithAuthorization is TransferWithAuthorization with one extra
// precondition checked before everything else: the submitting account must
// be the payee. This stops a relay from front-running the recipient's own
// claim with a transfer the recipient did not choose to receive right now.
func (t *Token) ReceiveWithAuthorization(
	caller common.Address,
	from, to common.Address,
	value, validAfter, validBefore *big.Int,
	nonce [32]byte,
	sig eip712.Signature,
) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.ledger.IsHalted() {
		return ErrSystemHalted
	}
	if caller != to {
		return ErrCallerNotRecipient
	}

	digest := eip712.SigningDigest(t.domain, eip712.ReceiveAuthorization{
		From:        from,
		To:          to,
		Value:       value,
		ValidAfter:  validAfter,
		ValidBefore: validBefore,
		Nonce:       nonce,
	}.StructHash())
	return t.executeAuthorized(digest, from, to, value, validAfter, validBefore, nonce, sig)
}

// CancelAuthorization retires an unused (authorizer, nonce) pair,
// authorized by the authorizer's signature. A canceled pair can never be
// used; the state is absorbing.
//
// Check order: halted, authorization state, signature.
func (t *Token) CancelAuthorization(authorizer common.Address, nonce [32]byte, sig eip712.Signature) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.ledger.IsHalted() {
		return ErrSystemHalted
	}
	if t.auths.State(authorizer, nonce) != AuthorizationUnused {
		return ErrAuthorizationConsumed
	}

	digest := eip712.SigningDigest(t.domain, eip712.CancelAuthorization{
		Authorizer: authorizer,
		Nonce:      nonce,
	}.StructHash())
	if err := t.requireSigner(digest, sig, authorizer); err != nil {
		return err
	}

	return t.auths.MarkCanceled(authorizer, nonce)
}

// executeAuthorized runs the shared tail of the two EIP-3009 transfer
// operations. Callers hold t.mu. The authorization state was verified
// Unused before the ledger transfer runs, and no other operation can
// interleave, so MarkUsed after a successful transfer cannot fail: the two
// writes are indivisible.
func (t *Token) executeAuthorized(
	digest common.Hash,
	from, to common.Address,
	value, validAfter, validBefore *big.Int,
	nonce [32]byte,
	sig eip712.Signature,
) error {
	if t.ledger.IsHalted() {
		return ErrSystemHalted
	}
	if t.ledger.IsPartyRejected(from) || t.ledger.IsPartyRejected(to) {
		return ErrPartyRejected
	}

	now := t.timestamp()
	if now.Cmp(validAfter) <= 0 {
		return ErrNotYetValid
	}
	if now.Cmp(validBefore) >= 0 {
		return ErrExpired
	}

	if t.auths.State(from, nonce) != AuthorizationUnused {
		return ErrAuthorizationConsumed
	}
	if err := t.requireSigner(digest, sig, from); err != nil {
		return err
	}

	if err := t.ledger.Transfer(from, to, value); err != nil {
		return err
	}
	return t.auths.MarkUsed(from, nonce)
}

// requireSigner recovers the digest's signer and matches it against the
// expected party. Both a failed recovery and a mismatched signer collapse
// to ErrInvalidSignature at this boundary; callers that need to tell the
// two apart use eip712.RecoverSigner directly.
func (t *Token) requireSigner(digest common.Hash, sig eip712.Signature, expected common.Address) error {
	signer, err := eip712.RecoverSigner(digest, sig)
	if err != nil {
		return ErrInvalidSignature
	}
	if signer != expected {
		return ErrInvalidSignature
	}
	return nil
}

func (t *Token) timestamp() *big.Int {
	return big.NewInt(t.now().Unix())
}

// Nonces returns the account's current EIP-2612 sequential nonce.
func (t *Token) Nonces(account common.Address) uint64 {
	return t.nonces.Nonce(account)
}

// AuthorizationState returns the state of an (authorizer, nonce) pair.
func (t *Token) AuthorizationState(authorizer common.Address, nonce [32]byte) AuthorizationState {
	return t.auths.State(authorizer, nonce)
}

// DomainSeparator returns the deployment's EIP-712 domain separator.
// External signing tools recompute it from (name, "1", chainId, contract)
// and must arrive at the same value.
func (t *Token) DomainSeparator() common.Hash {
	return t.domain.Separator()
}

// Name returns the token name bound into the signing domain.
func (t *Token) Name() string { return t.domain.Name() }

// Version returns the signing domain version.
func (t *Token) Version() string { return t.domain.Version() }

// ChainID returns the chain identifier bound into the signing domain.
func (t *Token) ChainID() *big.Int { return t.domain.ChainID() }

// Address returns the contract identity bound into the signing domain.
func (t *Token) Address() common.Address { return t.domain.VerifyingContract() }
