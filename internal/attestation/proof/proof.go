// Package proof derives the 32-byte commitment that binds an attestation claim
// on the ledger without revealing any of the verification inputs behind it.
//
// The canonical form is part of the on-chain contract: field order, the ':'
// separator, lowercase wallet and decimal integers must never change without
// bumping MaterialVersion.
package proof

import (
	"crypto/sha256"
	"math"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// MaterialVersion identifies the canonical serialization below.
const MaterialVersion = 1

// Separator joins canonical material fields.
const Separator = ":"

// MaxBps is the basis-point value of a full-confidence score.
const MaxBps = 10_000

// Material is the ordered claim a commitment is computed over.
type Material struct {
	SessionID     string
	Wallet        string
	ConfidenceBps uint16
	ExpiresAt     int64
}

// Canonical renders the material as "sessionId:wallet:bps:expiresAt".
// A missing session is the empty string; the wallet is lowercased.
func (m Material) Canonical() string {
	return strings.Join([]string{
		m.SessionID,
		strings.ToLower(m.Wallet),
		strconv.FormatUint(uint64(m.ConfidenceBps), 10),
		strconv.FormatInt(m.ExpiresAt, 10),
	}, Separator)
}

// ComputeCommitment returns the SHA-256 digest of the canonical material.
func ComputeCommitment(m Material) [32]byte {
	return HashBytes32(m.Canonical())
}

// HashBytes32 digests an arbitrary string with the commitment algorithm.
// SHA-256 output is exactly 32 bytes so no truncation happens.
func HashBytes32(data string) [32]byte {
	return sha256.Sum256([]byte(data))
}

// ConfidenceBps clamps score to [0,1] and scales it to basis points.
// Midpoints round half away from zero (math.Round) on the float64 product.
// NaN has no meaningful clamp and maps to 0; callers reject it before hashing.
func ConfidenceBps(score float64) uint16 {
	if math.IsNaN(score) {
		return 0
	}
	clamped := lo.Clamp(score, 0, 1)
	return uint16(math.Round(clamped * MaxBps))
}
