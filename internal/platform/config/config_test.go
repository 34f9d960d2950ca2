package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prism/internal/txsigner"
	dErrors "prism/pkg/domain-errors"
)

const (
	testContract = "0x5FbDB2315678afecb367f032d93F642f64180aa3"
	testKey      = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://rpc-amoy.polygon.technology", cfg.RPCURL)
	assert.Equal(t, 2*time.Second, cfg.ReceiptPollInterval)
	assert.Equal(t, int64(604800), cfg.AttestationTTLSeconds)
	assert.Equal(t, 7*24*time.Hour, cfg.AttestationTTL())
	assert.Equal(t, "fixed", cfg.GasStrategy)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, ":9090", cfg.OpsAddr)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("PRISM_RPC_URL", "http://127.0.0.1:8545")
	t.Setenv("PRISM_CONTRACT_ADDRESS", testContract)
	t.Setenv("PRISM_SIGNER_PRIVATE_KEY", testKey)
	t.Setenv("PRISM_ATTESTATION_TTL", "3600")
	t.Setenv("PRISM_GAS_STRATEGY", "dynamic")
	t.Setenv("PRISM_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("PRISM_RECEIPT_POLL_INTERVAL", "250ms")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:8545", cfg.RPCURL)
	assert.Equal(t, testContract, cfg.ContractAddress)
	assert.Equal(t, time.Hour, cfg.AttestationTTL())
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 250*time.Millisecond, cfg.ReceiptPollInterval)
	assert.Equal(t, txsigner.StrategyDynamic, cfg.PolicyConfig().Strategy)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prism.env")
	require.NoError(t, os.WriteFile(path, []byte("PRISM_CONTRACT_ADDRESS="+testContract+"\nPRISM_CHAIN_ID=80002\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("PRISM_CONTRACT_ADDRESS")
		os.Unsetenv("PRISM_CHAIN_ID")
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, testContract, cfg.ContractAddress)
	assert.Equal(t, int64(80002), cfg.ChainID)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing env file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.env"))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConfiguration))
	})

	t.Run("malformed duration", func(t *testing.T) {
		t.Setenv("PRISM_RECEIPT_POLL_INTERVAL", "soon")
		_, err := Load("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConfiguration))
	})
}

func validConfig() *Config {
	return &Config{
		Chain: Chain{
			RPCURL:           "http://127.0.0.1:8545",
			ContractAddress:  testContract,
			SignerPrivateKey: testKey,
		},
		Gas:         Gas{GasStrategy: "fixed", GasPriceGwei: 35, GasLimit: 300_000},
		Attestation: Attestation{AttestationTTLSeconds: 604800},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		problem string
	}{
		{"missing key", func(c *Config) { c.SignerPrivateKey = "" }, "PRISM_SIGNER_PRIVATE_KEY is required"},
		{"missing contract", func(c *Config) { c.ContractAddress = "" }, "PRISM_CONTRACT_ADDRESS is required"},
		{"bad contract", func(c *Config) { c.ContractAddress = "0x1234" }, "not a hex address"},
		{"missing rpc", func(c *Config) { c.RPCURL = "" }, "PRISM_RPC_URL is required"},
		{"relative rpc", func(c *Config) { c.RPCURL = "localhost" }, "absolute URL"},
		{"zero ttl", func(c *Config) { c.AttestationTTLSeconds = 0 }, "PRISM_ATTESTATION_TTL must be positive"},
		{"unknown strategy", func(c *Config) { c.GasStrategy = "auction" }, "unknown gas strategy"},
		{"fixed without price", func(c *Config) { c.GasPriceGwei = 0 }, "requires a gas price"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeConfiguration))
			assert.Contains(t, err.Error(), tt.problem)
		})
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, validConfig().Validate())
	})

	t.Run("reports every problem", func(t *testing.T) {
		cfg := validConfig()
		cfg.SignerPrivateKey = ""
		cfg.ContractAddress = ""
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "PRISM_SIGNER_PRIVATE_KEY")
		assert.Contains(t, err.Error(), "PRISM_CONTRACT_ADDRESS")
	})
}

func TestValidateForReadOnly(t *testing.T) {
	cfg := validConfig()
	cfg.SignerPrivateKey = ""
	assert.NoError(t, cfg.ValidateForReadOnly())

	cfg.ContractAddress = ""
	err := cfg.ValidateForReadOnly()
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConfiguration))
}
