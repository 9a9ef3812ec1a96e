package eip712

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Messages are hashed the ABI way: the variant's type hash followed by each
// field as a fixed 32-byte word. uint256 values are big-endian left-padded,
// addresses are right-aligned in their word, bytes32 nonces pass through
// unchanged. None of these messages carry dynamic-length fields.

// Permit is the EIP-2612 approval-by-signature message. Nonce is the
// owner's sequential account nonce at signing time.
type Permit struct {
	Owner    common.Address
	Spender  common.Address
	Value    *big.Int
	Nonce    *big.Int
	Deadline *big.Int
}

// StructHash returns keccak256(PermitTypeHash || encoded fields).
func (m Permit) StructHash() common.Hash {
	return crypto.Keccak256Hash(
		PermitTypeHash.Bytes(),
		addressWord(m.Owner),
		addressWord(m.Spender),
		uint256Word(m.Value),
		uint256Word(m.Nonce),
		uint256Word(m.Deadline),
	)
}

// TransferAuthorization is the EIP-3009 TransferWithAuthorization message.
// Nonce is caller-chosen and unordered, unlike the permit nonce.
type TransferAuthorization struct {
	From        common.Address
	To          common.Address
	Value       *big.Int
	ValidAfter  *big.Int
	ValidBefore *big.Int
	Nonce       [32]byte
}

// StructHash returns keccak256(TransferWithAuthorizationTypeHash || encoded fields).
func (m TransferAuthorization) StructHash() common.Hash {
	return crypto.Keccak256Hash(
		TransferWithAuthorizationTypeHash.Bytes(),
		addressWord(m.From),
		addressWord(m.To),
		uint256Word(m.Value),
		uint256Word(m.ValidAfter),
		uint256Word(m.ValidBefore),
		m.Nonce[:],
	)
}

// ReceiveAuthorization is the EIP-3009 ReceiveWithAuthorization message.
// Identical shape to TransferAuthorization but hashed under a distinct type
// hash, so a signature for one can never authorize the other.
type ReceiveAuthorization struct {
	From        common.Address
	To          common.Address
	Value       *big.Int
	ValidAfter  *big.Int
	ValidBefore *big.Int
	Nonce       [32]byte
}

// StructHash returns keccak256(ReceiveWithAuthorizationTypeHash || encoded fields).
func (m ReceiveAuthorization) StructHash() common.Hash {
	return crypto.Keccak256Hash(
		ReceiveWithAuthorizationTypeHash.Bytes(),
		addressWord(m.From),
		addressWord(m.To),
		uint256Word(m.Value),
		uint256Word(m.ValidAfter),
		uint256Word(m.ValidBefore),
		m.Nonce[:],
	)
}

// CancelAuthorization is the EIP-3009 cancellation message for a not yet
// used (authorizer, nonce) pair.
type CancelAuthorization struct {
	Authorizer common.Address
	Nonce      [32]byte
}

// StructHash returns keccak256(CancelAuthorizationTypeHash || encoded fields).
func (m CancelAuthorization) StructHash() common.Hash {
	return crypto.Keccak256Hash(
		CancelAuthorizationTypeHash.Bytes(),
		addressWord(m.Authorizer),
		m.Nonce[:],
	)
}

// SigningDigest produces the final digest a signer commits to:
// keccak256("\x19\x01" || domainSeparator || structHash).
func SigningDigest(domain Domain, structHash common.Hash) common.Hash {
	return crypto.Keccak256Hash(
		[]byte{0x19, 0x01},
		domain.Separator().Bytes(),
		structHash.Bytes(),
	)
}

// uint256Word encodes v as a 32-byte big-endian word. A nil value encodes
// as zero.
func uint256Word(v *big.Int) []byte {
	word := make([]byte, 32)
	if v == nil {
		return word
	}
	b := v.Bytes()
	if len(b) > 32 {
		b = b[len(b)-32:]
	}
	copy(word[32-len(b):], b)
	return word
}

// addressWord right-aligns a 20-byte address in a 32-byte word.
func addressWord(a common.Address) []byte {
	word := make([]byte, 32)
	copy(word[12:], a.Bytes())
	return word
}
