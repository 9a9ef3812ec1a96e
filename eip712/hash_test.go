package eip712

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

var (
	testChainID  = big.NewInt(8453)
	testContract = common.HexToAddress("0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913")
	testFrom     = common.HexToAddress("0x1234567890123456789012345678901234567890")
	testTo       = common.HexToAddress("0x9876543210987654321098765432109876543210")
)

func testNonce(last byte) [32]byte {
	var nonce [32]byte
	nonce[31] = last
	return nonce
}

// The type hashes are published constants (EIP-2612 and EIP-3009); they
// must byte-match or no external signer will ever produce an acceptable
// signature.
func TestTypeHashConstants(t *testing.T) {
	cases := []struct {
		name string
		hash common.Hash
		want string
	}{
		{"Permit", PermitTypeHash, "0x6e71edae12b1b97f4d1f60370fef10105fa2faae0126114a169c64845d6126c9"},
		{"TransferWithAuthorization", TransferWithAuthorizationTypeHash, "0x7c7c6cdb67a18743f49ec6fa9b35f50d52ed05cbed4cc592e13b44501c1a2267"},
		{"ReceiveWithAuthorization", ReceiveWithAuthorizationTypeHash, "0xd099cc98ef71107a616c4f0f941f04c322d8e254fe26b3c6668db87aae413de8"},
		{"CancelAuthorization", CancelAuthorizationTypeHash, "0x158b0a9edf7a828aad02f63cd515c68ef2f50ba807396f6d12842833a1597429"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.hash.Hex(); got != tc.want {
				t.Errorf("type hash mismatch: got %s, want %s", got, tc.want)
			}
		})
	}
}

func TestDomainSeparator(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		a := NewDomain("USD Coin", testChainID, testContract)
		b := NewDomain("USD Coin", testChainID, testContract)
		if a.Separator() != b.Separator() {
			t.Error("same inputs should produce the same separator")
		}
	})

	t.Run("binds chain id", func(t *testing.T) {
		a := NewDomain("USD Coin", big.NewInt(1), testContract)
		b := NewDomain("USD Coin", big.NewInt(8453), testContract)
		if a.Separator() == b.Separator() {
			t.Error("different chains must produce different separators")
		}
	})

	t.Run("binds contract identity", func(t *testing.T) {
		a := NewDomain("USD Coin", testChainID, testContract)
		b := NewDomain("USD Coin", testChainID, testTo)
		if a.Separator() == b.Separator() {
			t.Error("different contracts must produce different separators")
		}
	})

	t.Run("binds name", func(t *testing.T) {
		a := NewDomain("USD Coin", testChainID, testContract)
		b := NewDomain("Other Coin", testChainID, testContract)
		if a.Separator() == b.Separator() {
			t.Error("different names must produce different separators")
		}
	})

	t.Run("matches apitypes", func(t *testing.T) {
		d := NewDomain("USD Coin", testChainID, testContract)
		typed := apitypes.TypedData{
			Types: apitypes.Types{
				"EIP712Domain": {
					{Name: "name", Type: "string"},
					{Name: "version", Type: "string"},
					{Name: "chainId", Type: "uint256"},
					{Name: "verifyingContract", Type: "address"},
				},
			},
			Domain: apitypes.TypedDataDomain{
				Name:              "USD Coin",
				Version:           DomainVersion,
				ChainId:           (*math.HexOrDecimal256)(testChainID),
				VerifyingContract: testContract.Hex(),
			},
		}
		want, err := typed.HashStruct("EIP712Domain", typed.Domain.Map())
		if err != nil {
			t.Fatalf("apitypes domain hash: %v", err)
		}
		if got := d.Separator(); got != common.BytesToHash(want) {
			t.Errorf("separator %s does not match apitypes %s", got.Hex(), common.BytesToHash(want).Hex())
		}
	})
}

// Each variant hashes under its own type hash, so identical field values
// still produce distinct digests across variants.
func TestStructHashVariantIsolation(t *testing.T) {
	transfer := TransferAuthorization{
		From: testFrom, To: testTo, Value: big.NewInt(100),
		ValidAfter: big.NewInt(0), ValidBefore: big.NewInt(9999999999),
		Nonce: testNonce(1),
	}
	receive := ReceiveAuthorization(transfer)

	if transfer.StructHash() == receive.StructHash() {
		t.Error("transfer and receive struct hashes must differ")
	}

	seen := map[common.Hash]string{
		transfer.StructHash(): "transfer",
		receive.StructHash():  "receive",
		Permit{Owner: testFrom, Spender: testTo, Value: big.NewInt(100), Nonce: big.NewInt(0), Deadline: big.NewInt(9999999999)}.StructHash(): "permit",
		CancelAuthorization{Authorizer: testFrom, Nonce: testNonce(1)}.StructHash():                                                           "cancel",
	}
	if len(seen) != 4 {
		t.Errorf("expected 4 distinct struct hashes, got %d: %v", len(seen), seen)
	}
}

// The digest must be reproducible by standard tooling. apitypes is what
// go-ethereum based wallets hash with, so digest equality here means a
// wallet-signed message verifies against this implementation.
func TestSigningDigestMatchesAPITypes(t *testing.T) {
	domain := NewDomain("USD Coin", testChainID, testContract)
	apiDomain := apitypes.TypedDataDomain{
		Name:              "USD Coin",
		Version:           DomainVersion,
		ChainId:           (*math.HexOrDecimal256)(testChainID),
		VerifyingContract: testContract.Hex(),
	}
	domainType := []apitypes.Type{
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
		{Name: "chainId", Type: "uint256"},
		{Name: "verifyingContract", Type: "address"},
	}
	authFields := []apitypes.Type{
		{Name: "from", Type: "address"},
		{Name: "to", Type: "address"},
		{Name: "value", Type: "uint256"},
		{Name: "validAfter", Type: "uint256"},
		{Name: "validBefore", Type: "uint256"},
		{Name: "nonce", Type: "bytes32"},
	}
	nonce := testNonce(7)
	authMessage := apitypes.TypedDataMessage{
		"from":        testFrom.Hex(),
		"to":          testTo.Hex(),
		"value":       big.NewInt(1000000),
		"validAfter":  big.NewInt(0),
		"validBefore": big.NewInt(9999999999),
		"nonce":       nonce[:],
	}

	cases := []struct {
		name   string
		digest common.Hash
		typed  apitypes.TypedData
	}{
		{
			name: "Permit",
			digest: SigningDigest(domain, Permit{
				Owner: testFrom, Spender: testTo, Value: big.NewInt(1000000),
				Nonce: big.NewInt(3), Deadline: big.NewInt(9999999999),
			}.StructHash()),
			typed: apitypes.TypedData{
				Types: apitypes.Types{
					"EIP712Domain": domainType,
					"Permit": {
						{Name: "owner", Type: "address"},
						{Name: "spender", Type: "address"},
						{Name: "value", Type: "uint256"},
						{Name: "nonce", Type: "uint256"},
						{Name: "deadline", Type: "uint256"},
					},
				},
				PrimaryType: "Permit",
				Domain:      apiDomain,
				Message: apitypes.TypedDataMessage{
					"owner":    testFrom.Hex(),
					"spender":  testTo.Hex(),
					"value":    big.NewInt(1000000),
					"nonce":    big.NewInt(3),
					"deadline": big.NewInt(9999999999),
				},
			},
		},
		{
			name: "TransferWithAuthorization",
			digest: SigningDigest(domain, TransferAuthorization{
				From: testFrom, To: testTo, Value: big.NewInt(1000000),
				ValidAfter: big.NewInt(0), ValidBefore: big.NewInt(9999999999),
				Nonce: nonce,
			}.StructHash()),
			typed: apitypes.TypedData{
				Types: apitypes.Types{
					"EIP712Domain":              domainType,
					"TransferWithAuthorization": authFields,
				},
				PrimaryType: "TransferWithAuthorization",
				Domain:      apiDomain,
				Message:     authMessage,
			},
		},
		{
			name: "ReceiveWithAuthorization",
			digest: SigningDigest(domain, ReceiveAuthorization{
				From: testFrom, To: testTo, Value: big.NewInt(1000000),
				ValidAfter: big.NewInt(0), ValidBefore: big.NewInt(9999999999),
				Nonce: nonce,
			}.StructHash()),
			typed: apitypes.TypedData{
				Types: apitypes.Types{
					"EIP712Domain":             domainType,
					"ReceiveWithAuthorization": authFields,
				},
				PrimaryType: "ReceiveWithAuthorization",
				Domain:      apiDomain,
				Message:     authMessage,
			},
		},
		{
			name: "CancelAuthorization",
			digest: SigningDigest(domain, CancelAuthorization{
				Authorizer: testFrom, Nonce: nonce,
			}.StructHash()),
			typed: apitypes.TypedData{
				Types: apitypes.Types{
					"EIP712Domain": domainType,
					"CancelAuthorization": {
						{Name: "authorizer", Type: "address"},
						{Name: "nonce", Type: "bytes32"},
					},
				},
				PrimaryType: "CancelAuthorization",
				Domain:      apiDomain,
				Message: apitypes.TypedDataMessage{
					"authorizer": testFrom.Hex(),
					"nonce":      nonce[:],
				},
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			want, _, err := apitypes.TypedDataAndHash(tc.typed)
			if err != nil {
				t.Fatalf("apitypes hash: %v", err)
			}
			if tc.digest != common.BytesToHash(want) {
				t.Errorf("digest %s does not match apitypes %s", tc.digest.Hex(), common.BytesToHash(want).Hex())
			}
		})
	}
}

func TestUint256Word(t *testing.T) {
	t.Run("nil encodes as zero", func(t *testing.T) {
		if got := uint256Word(nil); len(got) != 32 {
			t.Fatalf("expected 32 bytes, got %d", len(got))
		}
	})

	t.Run("left pads", func(t *testing.T) {
		word := uint256Word(big.NewInt(0xff))
		if word[31] != 0xff {
			t.Errorf("expected low byte 0xff, got %#x", word[31])
		}
		for i := 0; i < 31; i++ {
			if word[i] != 0 {
				t.Fatalf("expected zero padding at byte %d", i)
			}
		}
	})
}
