package proof

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const walletMixed = "0xAbCdEf0123456789aBcDeF0123456789AbCdEf01"

func TestCanonical(t *testing.T) {
	m := Material{SessionID: "sess-1", Wallet: walletMixed, ConfidenceBps: 8700, ExpiresAt: 1700604800}
	assert.Equal(t, "sess-1:0xabcdef0123456789abcdef0123456789abcdef01:8700:1700604800", m.Canonical())

	t.Run("missing session renders as empty field", func(t *testing.T) {
		m := Material{Wallet: "0xAAAA", ConfidenceBps: 0, ExpiresAt: 5}
		assert.Equal(t, ":0xaaaa:0:5", m.Canonical())
	})
}

func TestComputeCommitment_Deterministic(t *testing.T) {
	m := Material{SessionID: "s", Wallet: walletMixed, ConfidenceBps: 5000, ExpiresAt: 42}
	first := ComputeCommitment(m)
	for range 10 {
		assert.Equal(t, first, ComputeCommitment(m))
	}

	want := sha256.Sum256([]byte(m.Canonical()))
	assert.Equal(t, want, first)
}

func TestComputeCommitment_FieldPerturbation(t *testing.T) {
	base := Material{SessionID: "s", Wallet: walletMixed, ConfidenceBps: 5000, ExpiresAt: 42}
	baseHash := ComputeCommitment(base)

	variants := map[string]Material{
		"session":    {SessionID: "t", Wallet: base.Wallet, ConfidenceBps: base.ConfidenceBps, ExpiresAt: base.ExpiresAt},
		"wallet":     {SessionID: base.SessionID, Wallet: "0xAbCdEf0123456789aBcDeF0123456789AbCdEf02", ConfidenceBps: base.ConfidenceBps, ExpiresAt: base.ExpiresAt},
		"confidence": {SessionID: base.SessionID, Wallet: base.Wallet, ConfidenceBps: 5001, ExpiresAt: base.ExpiresAt},
		"expiry":     {SessionID: base.SessionID, Wallet: base.Wallet, ConfidenceBps: base.ConfidenceBps, ExpiresAt: 43},
	}
	for name, v := range variants {
		t.Run(name, func(t *testing.T) {
			assert.NotEqual(t, baseHash, ComputeCommitment(v))
		})
	}
}

func TestComputeCommitment_WalletCaseInsensitive(t *testing.T) {
	upper := Material{Wallet: "0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA", ConfidenceBps: 8700, ExpiresAt: 1}
	lower := Material{Wallet: "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", ConfidenceBps: 8700, ExpiresAt: 1}
	assert.Equal(t, ComputeCommitment(lower), ComputeCommitment(upper))
}

func TestHashBytes32_LegacyInput(t *testing.T) {
	got := HashBytes32("x")
	// sha256("x")
	assert.Equal(t, "2d711642b726b04401627ca9fbac32f5c8530fb1903cc4db02258717921a4881", hex.EncodeToString(got[:]))
}

func TestConfidenceBps(t *testing.T) {
	tests := []struct {
		score float64
		want  uint16
	}{
		{-0.5, 0},
		{0.0, 0},
		{0.5, 5000},
		{1.0, 10000},
		{1.5, 10000},
		{0.87, 8700},
		{0.12345, 1235}, // 1234.5 rounds half away from zero
		{0.03125, 313},
		{0.00005, 1},
		{0.00004, 0},
		{0.99996, 10000},
		{math.Inf(1), 10000},
		{math.Inf(-1), 0},
		{math.NaN(), 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ConfidenceBps(tt.score), "score %v", tt.score)
	}
}

func TestConfidenceBps_WithinRange(t *testing.T) {
	for i := -100; i <= 200; i++ {
		bps := ConfidenceBps(float64(i) / 100)
		require.LessOrEqual(t, bps, uint16(MaxBps))
	}
}
