package eip712

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Recovery failures. The caller that matches the recovered signer against an
// expected party reports its own mismatch error; everything here means the
// signature itself was unusable.
var (
	// ErrInvalidRecoveryID is returned when v is not 27 or 28.
	ErrInvalidRecoveryID = errors.New("eip712: recovery id must be 27 or 28")

	// ErrInvalidSignatureValues is returned when r or s is zero or outside
	// the curve order.
	ErrInvalidSignatureValues = errors.New("eip712: signature r/s out of range")

	// ErrMalleableSignature is returned when s lies in the upper half of the
	// curve order. Such signatures are valid ECDSA but allow a third party
	// to mint a second distinct signature over the same digest, so they are
	// rejected outright.
	ErrMalleableSignature = errors.New("eip712: signature s in upper half of curve order")

	// ErrUnrecoverableSignature is returned when elliptic-curve recovery
	// yields no valid public key, or resolves to the zero address.
	ErrUnrecoverableSignature = errors.New("eip712: public key recovery failed")
)

// secp256k1HalfN is floor(N/2) for the secp256k1 curve order.
var secp256k1HalfN = new(big.Int).Rsh(crypto.S256().Params().N, 1)

// Signature is the (v, r, s) wire encoding used by the token interfaces.
// V is the Ethereum-style recovery id, 27 or 28.
type Signature struct {
	V byte
	R common.Hash
	S common.Hash
}

// SignatureFromBytes parses a 65-byte r||s||v signature. v may be given as
// 0/1 or as 27/28; it is normalized to 27/28.
func SignatureFromBytes(b []byte) (Signature, error) {
	if len(b) != crypto.SignatureLength {
		return Signature{}, fmt.Errorf("eip712: signature must be %d bytes, got %d", crypto.SignatureLength, len(b))
	}
	v := b[64]
	if v < 27 {
		v += 27
	}
	return Signature{
		V: v,
		R: common.BytesToHash(b[:32]),
		S: common.BytesToHash(b[32:64]),
	}, nil
}

// Bytes returns the 65-byte r||s||v encoding with v as 27/28.
func (s Signature) Bytes() []byte {
	out := make([]byte, crypto.SignatureLength)
	copy(out[:32], s.R.Bytes())
	copy(out[32:64], s.S.Bytes())
	out[64] = s.V
	return out
}

// RecoverSigner recovers the account that signed digest. It never returns a
// wrong address silently: malformed or non-canonical signatures fail with a
// typed error, and a recovery that resolves to the zero address is treated
// as invalid (the zero account is never a legitimate signer).
func RecoverSigner(digest common.Hash, sig Signature) (common.Address, error) {
	if sig.V != 27 && sig.V != 28 {
		return common.Address{}, ErrInvalidRecoveryID
	}

	r := new(big.Int).SetBytes(sig.R.Bytes())
	s := new(big.Int).SetBytes(sig.S.Bytes())
	if !crypto.ValidateSignatureValues(sig.V-27, r, s, false) {
		return common.Address{}, ErrInvalidSignatureValues
	}
	if s.Cmp(secp256k1HalfN) > 0 {
		return common.Address{}, ErrMalleableSignature
	}

	raw := sig.Bytes()
	raw[64] -= 27
	pub, err := crypto.SigToPub(digest.Bytes(), raw)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrUnrecoverableSignature, err)
	}

	signer := crypto.PubkeyToAddress(*pub)
	if signer == zeroAddress {
		return common.Address{}, ErrUnrecoverableSignature
	}
	return signer, nil
}
