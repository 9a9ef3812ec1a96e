// Package token implements a fungible token ledger whose state-changing
// operations can be authorized by signature: EIP-2612 permit and the three
// EIP-3009 operations (transferWithAuthorization, receiveWithAuthorization,
// cancelAuthorization). The orchestrator in this package owns the ordered
// validity checks; typed-data hashing and signature recovery live in the
// eip712 subpackage, and the balance ledger and the nonce/authorization
// stores are injected collaborators.
package token

// AuthorizationState is the lifecycle of one (authorizer, nonce) pair on
// the EIP-3009 path. Unused is the implicit initial state; Used and
// Canceled are absorbing.
type AuthorizationState uint8

const (
	AuthorizationUnused AuthorizationState = iota
	AuthorizationUsed
	AuthorizationCanceled
)

func (s AuthorizationState) String() string {
	switch s {
	case AuthorizationUnused:
		return "unused"
	case AuthorizationUsed:
		return "used"
	case AuthorizationCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}
