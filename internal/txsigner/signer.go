package txsigner

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	dErrors "prism/pkg/domain-errors"
)

// Signer holds the secp256k1 identity that signs every ledger write.
// It is safe for concurrent use. Nonce ordering is not its concern; the ledger
// client serializes writes per signer.
type Signer struct {
	mu         sync.RWMutex
	privateKey *ecdsa.PrivateKey
	address    common.Address
}

// FromHex builds a Signer from a hex-encoded private key, with or without 0x.
// An empty key is a configuration error, never a fallback to a default key.
func FromHex(keyHex string) (*Signer, error) {
	keyHex = strings.TrimPrefix(strings.TrimSpace(keyHex), "0x")
	if keyHex == "" {
		return nil, dErrors.New(dErrors.CodeConfiguration, "signing private key is not configured")
	}
	key, err := crypto.HexToECDSA(keyHex)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeConfiguration, "signing private key is malformed")
	}
	return New(key)
}

// New wraps an existing ECDSA key.
func New(key *ecdsa.PrivateKey) (*Signer, error) {
	if key == nil {
		return nil, dErrors.New(dErrors.CodeConfiguration, "private key cannot be nil")
	}
	return &Signer{
		privateKey: key,
		address:    crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

// Address returns the account that pays for and sends transactions.
func (s *Signer) Address() common.Address {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.address
}

// SignTx signs tx for chainID using the latest signer rules for that chain.
func (s *Signer) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if chainID == nil {
		return nil, fmt.Errorf("chain id is required to sign")
	}
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), s.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	return signed, nil
}
