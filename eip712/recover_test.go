package eip712

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

func TestRecoverSigner(t *testing.T) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	signer := crypto.PubkeyToAddress(key.PublicKey)
	digest := crypto.Keccak256Hash([]byte("test digest"))

	sig, err := SignDigest(key, digest)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	t.Run("round trip", func(t *testing.T) {
		recovered, err := RecoverSigner(digest, sig)
		if err != nil {
			t.Fatalf("recover: %v", err)
		}
		if recovered != signer {
			t.Errorf("recovered %s, want %s", recovered.Hex(), signer.Hex())
		}
	})

	t.Run("different digest recovers different address", func(t *testing.T) {
		other := crypto.Keccak256Hash([]byte("another digest"))
		recovered, err := RecoverSigner(other, sig)
		if err == nil && recovered == signer {
			t.Error("signature must not verify against a different digest")
		}
	})

	t.Run("rejects bad recovery id", func(t *testing.T) {
		for _, v := range []byte{0, 1, 26, 29, 255} {
			bad := sig
			bad.V = v
			if _, err := RecoverSigner(digest, bad); !errors.Is(err, ErrInvalidRecoveryID) {
				t.Errorf("v=%d: expected ErrInvalidRecoveryID, got %v", v, err)
			}
		}
	})

	t.Run("rejects zero r", func(t *testing.T) {
		bad := sig
		bad.R = common.Hash{}
		if _, err := RecoverSigner(digest, bad); !errors.Is(err, ErrInvalidSignatureValues) {
			t.Errorf("expected ErrInvalidSignatureValues, got %v", err)
		}
	})

	t.Run("rejects zero s", func(t *testing.T) {
		bad := sig
		bad.S = common.Hash{}
		if _, err := RecoverSigner(digest, bad); !errors.Is(err, ErrInvalidSignatureValues) {
			t.Errorf("expected ErrInvalidSignatureValues, got %v", err)
		}
	})

	t.Run("rejects upper half s", func(t *testing.T) {
		// Flip the signature into its malleated twin: s' = N - s with the
		// recovery id toggled. Plain ecrecover accepts it and yields the
		// same address, which is exactly the replay hazard low-s closes.
		n := crypto.S256().Params().N
		flippedS := new(big.Int).Sub(n, new(big.Int).SetBytes(sig.S.Bytes()))
		malleated := Signature{
			V: sig.V ^ 1,
			R: sig.R,
			S: common.BytesToHash(flippedS.Bytes()),
		}
		if _, err := RecoverSigner(digest, malleated); !errors.Is(err, ErrMalleableSignature) {
			t.Errorf("expected ErrMalleableSignature, got %v", err)
		}
	})

	t.Run("garbage signature fails without panic", func(t *testing.T) {
		garbage := Signature{
			V: 27,
			R: crypto.Keccak256Hash([]byte("r")),
			S: common.BytesToHash(big.NewInt(7).Bytes()),
		}
		recovered, err := RecoverSigner(digest, garbage)
		if err == nil && recovered == signer {
			t.Error("garbage signature must not recover the signer")
		}
	})
}

func TestSignatureFromBytes(t *testing.T) {
	t.Run("rejects wrong length", func(t *testing.T) {
		if _, err := SignatureFromBytes(make([]byte, 64)); err == nil {
			t.Error("expected error for 64-byte signature")
		}
	})

	t.Run("normalizes v", func(t *testing.T) {
		raw := make([]byte, 65)
		raw[0] = 1
		raw[32] = 1
		raw[64] = 1
		sig, err := SignatureFromBytes(raw)
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		if sig.V != 28 {
			t.Errorf("expected v normalized to 28, got %d", sig.V)
		}
	})

	t.Run("round trips", func(t *testing.T) {
		key, _ := crypto.GenerateKey()
		digest := crypto.Keccak256Hash([]byte("round trip"))
		sig, err := SignDigest(key, digest)
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		parsed, err := SignatureFromBytes(sig.Bytes())
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		if parsed != sig {
			t.Errorf("round trip mismatch: %+v != %+v", parsed, sig)
		}
	})
}

func TestRandomNonce(t *testing.T) {
	a, err := RandomNonce()
	if err != nil {
		t.Fatalf("nonce: %v", err)
	}
	b, err := RandomNonce()
	if err != nil {
		t.Fatalf("nonce: %v", err)
	}
	if a == b {
		t.Error("two random nonces collided")
	}
}
