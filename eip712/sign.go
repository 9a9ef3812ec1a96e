package eip712

import (
	"crypto/ecdsa"
	"crypto/rand"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Client-side helpers for producing signatures that the token accepts.
// Holders typically sign through a wallet; these exist for relayers, tests
// and tooling that hold a raw key.

// SignDigest signs an EIP-712 digest and returns the signature with v
// normalized to 27/28.
func SignDigest(key *ecdsa.PrivateKey, digest common.Hash) (Signature, error) {
	raw, err := crypto.Sign(digest.Bytes(), key)
	if err != nil {
		return Signature{}, fmt.Errorf("eip712: signing failed: %w", err)
	}
	raw[64] += 27
	return SignatureFromBytes(raw)
}

// RandomNonce draws a fresh 32-byte authorization nonce. Collisions across
// independently drawn nonces are negligible, which is what lets holders
// issue authorizations out of order and in parallel.
func RandomNonce() ([32]byte, error) {
	var nonce [32]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nonce, fmt.Errorf("eip712: nonce generation failed: %w", err)
	}
	return nonce, nil
}
