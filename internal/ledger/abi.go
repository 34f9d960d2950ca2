package ledger

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// RegistryABI is the subset of the PRISM registry contract this client calls.
const RegistryABI = `[
	{
		"inputs": [
			{"name": "user", "type": "address"},
			{"name": "proofHash", "type": "bytes32"},
			{"name": "confidenceBps", "type": "uint16"}
		],
		"name": "mintAttestation",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [{"name": "user", "type": "address"}],
		"name": "revoke",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [{"name": "user", "type": "address"}],
		"name": "isHuman",
		"outputs": [{"name": "", "type": "bool"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [{"name": "user", "type": "address"}],
		"name": "tokenIdFor",
		"outputs": [{"name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [{"name": "hash", "type": "bytes32"}],
		"name": "storeVerification",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`

// Contract method names.
const (
	MethodMintAttestation   = "mintAttestation"
	MethodRevoke            = "revoke"
	MethodIsHuman           = "isHuman"
	MethodTokenIDFor        = "tokenIdFor"
	MethodStoreVerification = "storeVerification"
)

var registryABI = mustParseABI(RegistryABI)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic("ledger: invalid registry ABI: " + err.Error())
	}
	return parsed
}
