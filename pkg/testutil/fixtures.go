// Package testutil holds fixtures and helpers shared by package tests.
package testutil

import (
	"github.com/ethereum/go-ethereum/common"

	"prism/internal/attestation/models"
)

// Well-known local devnet accounts. The keys are public; never fund them on a real network.
const (
	DevKeyHex      = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	DevAddress     = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	ContractHex    = "0x5FbDB2315678afecb367f032d93F642f64180aa3"
	WalletHex      = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
	OtherWalletHex = "0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC"
)

// Wallet returns WalletHex as an address.
func Wallet() common.Address { return common.HexToAddress(WalletHex) }

// Contract returns ContractHex as an address.
func Contract() common.Address { return common.HexToAddress(ContractHex) }

// RequestBuilder builds mint requests with sensible defaults.
type RequestBuilder struct {
	req models.Request
}

// NewRequestBuilder starts from a valid request for WalletHex.
func NewRequestBuilder() *RequestBuilder {
	return &RequestBuilder{req: models.Request{
		Wallet:          WalletHex,
		SessionID:       "sess-0001",
		ConfidenceScore: 0.92,
	}}
}

func (b *RequestBuilder) WithWallet(wallet string) *RequestBuilder {
	b.req.Wallet = wallet
	return b
}

func (b *RequestBuilder) WithSession(sessionID string) *RequestBuilder {
	b.req.SessionID = sessionID
	return b
}

func (b *RequestBuilder) WithScore(score float64) *RequestBuilder {
	b.req.ConfidenceScore = score
	return b
}

func (b *RequestBuilder) Forced() *RequestBuilder {
	b.req.Force = true
	return b
}

func (b *RequestBuilder) Build() models.Request {
	return b.req
}
