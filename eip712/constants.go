package eip712

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Type signature strings as defined by EIP-712, EIP-2612 and EIP-3009.
// These must byte-match the strings used by external signing tools
// (MetaMask, ethers.js, go-ethereum apitypes) or signatures will never
// verify.
const (
	DomainType = "EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)"

	PermitType = "Permit(address owner,address spender,uint256 value,uint256 nonce,uint256 deadline)"

	TransferWithAuthorizationType = "TransferWithAuthorization(address from,address to,uint256 value,uint256 validAfter,uint256 validBefore,bytes32 nonce)"

	ReceiveWithAuthorizationType = "ReceiveWithAuthorization(address from,address to,uint256 value,uint256 validAfter,uint256 validBefore,bytes32 nonce)"

	CancelAuthorizationType = "CancelAuthorization(address authorizer,bytes32 nonce)"
)

// Type hashes: keccak256 of the type signature strings. Computed once at
// package init, constant thereafter.
var (
	DomainTypeHash = crypto.Keccak256Hash([]byte(DomainType))

	PermitTypeHash = crypto.Keccak256Hash([]byte(PermitType))

	TransferWithAuthorizationTypeHash = crypto.Keccak256Hash([]byte(TransferWithAuthorizationType))

	ReceiveWithAuthorizationTypeHash = crypto.Keccak256Hash([]byte(ReceiveWithAuthorizationType))

	CancelAuthorizationTypeHash = crypto.Keccak256Hash([]byte(CancelAuthorizationType))
)

// DomainVersion is the EIP-712 domain version for this token. It is part
// of the domain separator, so changing it invalidates every outstanding
// signature.
const DomainVersion = "1"

var zeroAddress = common.Address{}
