package eip712

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Domain binds signatures to one specific deployment: token name, domain
// version, chain id and the verifying contract identity. The separator is
// computed once at construction and never changes, so a signature produced
// for one deployment can never verify against another (different chain,
// different contract, or different token name all yield different
// separators).
type Domain struct {
	name              string
	version           string
	chainID           *big.Int
	verifyingContract common.Address
	separator         common.Hash
}

// NewDomain builds the EIP-712 domain for a deployment and precomputes its
// separator:
//
//	keccak256(
//	    DomainTypeHash ||
//	    keccak256(name) || keccak256(version) ||
//	    uint256(chainId) || address(verifyingContract),
//	)
func NewDomain(name string, chainID *big.Int, verifyingContract common.Address) Domain {
	d := Domain{
		name:              name,
		version:           DomainVersion,
		chainID:           new(big.Int).Set(chainID),
		verifyingContract: verifyingContract,
	}
	d.separator = crypto.Keccak256Hash(
		DomainTypeHash.Bytes(),
		crypto.Keccak256([]byte(d.name)),
		crypto.Keccak256([]byte(d.version)),
		uint256Word(d.chainID),
		addressWord(d.verifyingContract),
	)
	return d
}

// Name returns the token name the domain was built with.
func (d Domain) Name() string { return d.name }

// Version returns the EIP-712 domain version string.
func (d Domain) Version() string { return d.version }

// ChainID returns a copy of the chain identifier.
func (d Domain) ChainID() *big.Int { return new(big.Int).Set(d.chainID) }

// VerifyingContract returns the contract identity embedded in the domain.
func (d Domain) VerifyingContract() common.Address { return d.verifyingContract }

// Separator returns the cached domain separator. Safe for concurrent reads.
func (d Domain) Separator() common.Hash { return d.separator }
