package token

import "fmt"

// Error is a terminal, synchronous failure of a whole operation. Code is a
// stable machine-readable identifier; Message is for humans. Two Errors
// compare equal under errors.Is when their codes match, so callers can
// react programmatically without string matching.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is reports code equality, making the package sentinels usable with
// errors.Is even when an error was rebuilt with extra context.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Stable error codes. The HTTP layer and callers depend on these values.
const (
	ErrCodeExpired               = "authorization_expired"
	ErrCodeNotYetValid           = "authorization_not_yet_valid"
	ErrCodeInvalidSignature      = "invalid_signature"
	ErrCodeAuthorizationConsumed = "authorization_consumed"
	ErrCodeNonceMismatch         = "nonce_mismatch"
	ErrCodeCallerNotRecipient    = "caller_not_recipient"
	ErrCodePartyRejected         = "party_rejected"
	ErrCodeSystemHalted          = "system_halted"

	ErrCodeInsufficientBalance   = "insufficient_balance"
	ErrCodeInsufficientAllowance = "insufficient_allowance"
	ErrCodeCapExceeded           = "cap_exceeded"
	ErrCodeZeroAddress           = "zero_address"
	ErrCodeInvalidAmount         = "invalid_amount"
	ErrCodeNotMinter             = "not_minter"
	ErrCodeNotOwner              = "not_owner"
)

// Authorization-subsystem failures.
var (
	// ErrExpired: the deadline or validBefore bound has passed.
	ErrExpired = &Error{ErrCodeExpired, "authorization window has expired"}

	// ErrNotYetValid: validAfter has not passed yet.
	ErrNotYetValid = &Error{ErrCodeNotYetValid, "authorization is not yet valid"}

	// ErrInvalidSignature: recovery failed, or the recovered signer is not
	// the expected party.
	ErrInvalidSignature = &Error{ErrCodeInvalidSignature, "invalid signature"}

	// ErrAuthorizationConsumed: the (authorizer, nonce) pair was already
	// used or canceled. Absorbing; re-signing with a fresh nonce is the
	// only way forward.
	ErrAuthorizationConsumed = &Error{ErrCodeAuthorizationConsumed, "authorization is used or canceled"}

	// ErrNonceMismatch: a permit was checked against a nonce other than the
	// owner's current sequential nonce.
	ErrNonceMismatch = &Error{ErrCodeNonceMismatch, "nonce does not match account nonce"}

	// ErrCallerNotRecipient: receiveWithAuthorization submitted by an
	// account other than the payee.
	ErrCallerNotRecipient = &Error{ErrCodeCallerNotRecipient, "caller must be the payee"}

	// ErrPartyRejected: the sender or recipient is barred by the gating
	// collaborator.
	ErrPartyRejected = &Error{ErrCodePartyRejected, "account is rejected"}

	// ErrSystemHalted: the system is in its emergency/paused state.
	ErrSystemHalted = &Error{ErrCodeSystemHalted, "system is halted"}
)

// Ledger-originated failures, surfaced unchanged through the orchestrator.
var (
	ErrInsufficientBalance   = &Error{ErrCodeInsufficientBalance, "transfer amount exceeds balance"}
	ErrInsufficientAllowance = &Error{ErrCodeInsufficientAllowance, "transfer amount exceeds allowance"}
	ErrCapExceeded           = &Error{ErrCodeCapExceeded, "mint would exceed supply cap"}
	ErrZeroAddress           = &Error{ErrCodeZeroAddress, "the zero address cannot hold or move tokens"}
	ErrInvalidAmount         = &Error{ErrCodeInvalidAmount, "amount must be a non-negative 256-bit integer"}
	ErrNotMinter             = &Error{ErrCodeNotMinter, "caller is not a configured minter"}
	ErrNotOwner              = &Error{ErrCodeNotOwner, "caller is not the owner"}
)
