package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"prism/internal/txsigner"
	dErrors "prism/pkg/domain-errors"
)

// Prefix is prepended to every environment variable name.
const Prefix = "prism"

// Chain holds the ledger endpoint and signing identity.
type Chain struct {
	RPCURL              string        `envconfig:"RPC_URL" default:"https://rpc-amoy.polygon.technology"`
	ContractAddress     string        `envconfig:"CONTRACT_ADDRESS"`
	SignerPrivateKey    string        `envconfig:"SIGNER_PRIVATE_KEY"`
	ChainID             int64         `envconfig:"CHAIN_ID"`
	ReceiptPollInterval time.Duration `envconfig:"RECEIPT_POLL_INTERVAL" default:"2s"`
	CallTimeout         time.Duration `envconfig:"CALL_TIMEOUT" default:"2m"`
	ReadRetries         uint64        `envconfig:"READ_RETRIES" default:"3"`
}

// Gas selects and tunes the gas policy.
type Gas struct {
	GasStrategy        string  `envconfig:"GAS_STRATEGY" default:"fixed"`
	GasPriceGwei       uint64  `envconfig:"GAS_PRICE_GWEI" default:"35"`
	GasLimit           uint64  `envconfig:"GAS_LIMIT" default:"300000"`
	GasTipFloorGwei    uint64  `envconfig:"GAS_TIP_FLOOR_GWEI" default:"30"`
	GasLimitMultiplier float64 `envconfig:"GAS_LIMIT_MULTIPLIER" default:"1.2"`
}

// Attestation holds minting parameters.
type Attestation struct {
	AttestationTTLSeconds int64 `envconfig:"ATTESTATION_TTL" default:"604800"`
}

// Kafka configures request intake and result publishing.
type Kafka struct {
	KafkaBrokers      []string `envconfig:"KAFKA_BROKERS"`
	KafkaGroupID      string   `envconfig:"KAFKA_GROUP_ID" default:"prism-minter"`
	KafkaRequestTopic string   `envconfig:"KAFKA_REQUEST_TOPIC" default:"prism.verification.outcomes"`
	KafkaResultTopic  string   `envconfig:"KAFKA_RESULT_TOPIC" default:"prism.attestation.results"`
}

// Redis configures the intake result cache. An empty URL selects the in-memory cache.
type Redis struct {
	RedisURL       string        `envconfig:"REDIS_URL"`
	ResultCacheTTL time.Duration `envconfig:"RESULT_CACHE_TTL" default:"24h"`
}

// Ops configures the health and metrics listener.
type Ops struct {
	OpsAddr     string `envconfig:"OPS_ADDR" default:":9090"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
}

// Intake tunes the Kafka worker.
type Intake struct {
	IntakeRatePerSecond   float64       `envconfig:"INTAKE_RATE" default:"2"`
	IntakeBurst           int           `envconfig:"INTAKE_BURST" default:"1"`
	IntakeRetryMaxElapsed time.Duration `envconfig:"INTAKE_RETRY_MAX_ELAPSED" default:"2m"`
}

// Logging selects the slog handler.
type Logging struct {
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
}

// Config is the full process configuration. Sections are embedded so every
// variable sits directly under the PRISM_ prefix.
type Config struct {
	Chain
	Gas
	Attestation
	Kafka
	Redis
	Ops
	Intake
	Logging
}

// Load reads an optional dotenv file and then the environment. A named file
// that does not exist is an error; the implicit .env is optional.
func Load(envFile string) (*Config, error) {
	if err := loadEnvironment(envFile); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeConfiguration, "load env file")
	}
	cfg := new(Config)
	if err := envconfig.Process(Prefix, cfg); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeConfiguration, "parse environment")
	}
	return cfg, nil
}

func loadEnvironment(filename string) error {
	if filename != "" {
		return godotenv.Overload(filename)
	}
	err := godotenv.Load()
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// AttestationTTL returns the configured TTL as a duration.
func (c *Config) AttestationTTL() time.Duration {
	return time.Duration(c.AttestationTTLSeconds) * time.Second
}

// PolicyConfig maps the gas section onto txsigner's tunables.
func (c *Config) PolicyConfig() txsigner.PolicyConfig {
	return txsigner.PolicyConfig{
		Strategy:        c.GasStrategy,
		GasPriceGwei:    c.GasPriceGwei,
		GasLimit:        c.GasLimit,
		TipFloorGwei:    c.GasTipFloorGwei,
		LimitMultiplier: c.GasLimitMultiplier,
	}
}

// ValidateForReadOnly checks what status and other read paths need.
func (c *Config) ValidateForReadOnly() error {
	return joinProblems(c.readOnlyProblems())
}

func (c *Config) readOnlyProblems() []string {
	var problems []string
	if c.RPCURL == "" {
		problems = append(problems, "PRISM_RPC_URL is required")
	} else if u, err := url.Parse(c.RPCURL); err != nil || u.Scheme == "" || u.Host == "" {
		problems = append(problems, "PRISM_RPC_URL must be an absolute URL")
	}
	if c.ContractAddress == "" {
		problems = append(problems, "PRISM_CONTRACT_ADDRESS is required")
	} else if !common.IsHexAddress(c.ContractAddress) {
		problems = append(problems, "PRISM_CONTRACT_ADDRESS is not a hex address")
	}
	return problems
}

// Validate checks everything a minting process needs.
func (c *Config) Validate() error {
	problems := c.readOnlyProblems()
	if c.SignerPrivateKey == "" {
		problems = append(problems, "PRISM_SIGNER_PRIVATE_KEY is required")
	}
	if c.AttestationTTLSeconds <= 0 {
		problems = append(problems, "PRISM_ATTESTATION_TTL must be positive")
	}
	if c.ChainID < 0 {
		problems = append(problems, "PRISM_CHAIN_ID must not be negative")
	}
	if _, err := txsigner.NewPolicy(c.PolicyConfig()); err != nil {
		problems = append(problems, err.Error())
	}
	if c.IntakeRatePerSecond < 0 || c.IntakeBurst < 0 {
		problems = append(problems, "intake rate and burst must not be negative")
	}
	return joinProblems(problems)
}

func joinProblems(problems []string) error {
	if len(problems) == 0 {
		return nil
	}
	return dErrors.New(dErrors.CodeConfiguration, fmt.Sprintf("invalid configuration: %s", strings.Join(problems, "; ")))
}
