package txsigner

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/params"

	dErrors "prism/pkg/domain-errors"
)

// GasOracle is the part of an RPC client gas policies consult.
// *ethclient.Client satisfies it.
type GasOracle interface {
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
}

// GasParams are the fee fields of one outgoing transaction.
// When TipCap is set the transaction is EIP-1559; otherwise GasPrice is used.
type GasParams struct {
	Limit    uint64
	GasPrice *big.Int
	TipCap   *big.Int
	FeeCap   *big.Int
}

// Dynamic reports whether the params describe an EIP-1559 transaction.
func (p GasParams) Dynamic() bool {
	return p.TipCap != nil
}

// GasPolicy decides gas price and limit for each write call.
type GasPolicy interface {
	Name() string
	Params(ctx context.Context, oracle GasOracle, msg ethereum.CallMsg) (GasParams, error)
}

// Gas strategy names accepted by NewPolicy.
const (
	StrategyFixed   = "fixed"
	StrategyDynamic = "dynamic"
)

// PolicyConfig carries the tunables for both strategies.
type PolicyConfig struct {
	Strategy        string
	GasPriceGwei    uint64
	GasLimit        uint64
	TipFloorGwei    uint64
	LimitMultiplier float64
}

// NewPolicy builds the configured strategy.
func NewPolicy(cfg PolicyConfig) (GasPolicy, error) {
	switch strings.ToLower(cfg.Strategy) {
	case "", StrategyFixed:
		if cfg.GasPriceGwei == 0 || cfg.GasLimit == 0 {
			return nil, dErrors.New(dErrors.CodeConfiguration, "fixed gas strategy requires a gas price and limit")
		}
		return &FixedPolicy{
			GasPrice: gwei(cfg.GasPriceGwei),
			GasLimit: cfg.GasLimit,
		}, nil
	case StrategyDynamic:
		return &DynamicPolicy{
			TipFloor:        gwei(cfg.TipFloorGwei),
			LimitMultiplier: cfg.LimitMultiplier,
			FallbackLimit:   cfg.GasLimit,
		}, nil
	default:
		return nil, dErrors.Newf(dErrors.CodeConfiguration, "unknown gas strategy %q", cfg.Strategy)
	}
}

// FixedPolicy uses a static legacy gas price and limit.
type FixedPolicy struct {
	GasPrice *big.Int
	GasLimit uint64
}

func (p *FixedPolicy) Name() string { return StrategyFixed }

// Params ignores the oracle.
func (p *FixedPolicy) Params(_ context.Context, _ GasOracle, _ ethereum.CallMsg) (GasParams, error) {
	return GasParams{
		Limit:    p.GasLimit,
		GasPrice: new(big.Int).Set(p.GasPrice),
	}, nil
}

// DynamicPolicy estimates the limit per call and prices EIP-1559 fees from the
// latest base fee. Chains that enforce a minimum priority fee (Polygon) need a
// TipFloor.
type DynamicPolicy struct {
	TipFloor        *big.Int
	LimitMultiplier float64
	// FallbackLimit is used when estimation fails; zero means estimation errors propagate.
	FallbackLimit uint64
}

func (p *DynamicPolicy) Name() string { return StrategyDynamic }

func (p *DynamicPolicy) Params(ctx context.Context, oracle GasOracle, msg ethereum.CallMsg) (GasParams, error) {
	limit, err := oracle.EstimateGas(ctx, msg)
	if err != nil {
		if p.FallbackLimit == 0 {
			return GasParams{}, fmt.Errorf("estimate gas: %w", err)
		}
		limit = p.FallbackLimit
	} else if p.LimitMultiplier > 1 {
		limit = uint64(float64(limit) * p.LimitMultiplier)
	}

	tip, err := oracle.SuggestGasTipCap(ctx)
	if err != nil {
		return GasParams{}, fmt.Errorf("suggest gas tip cap: %w", err)
	}
	if p.TipFloor != nil && tip.Cmp(p.TipFloor) < 0 {
		tip = new(big.Int).Set(p.TipFloor)
	}

	head, err := oracle.HeaderByNumber(ctx, nil)
	if err != nil {
		return GasParams{}, fmt.Errorf("latest header: %w", err)
	}
	if head.BaseFee == nil {
		// Pre-London chain: fall back to a legacy price.
		price, err := oracle.SuggestGasPrice(ctx)
		if err != nil {
			return GasParams{}, fmt.Errorf("suggest gas price: %w", err)
		}
		return GasParams{Limit: limit, GasPrice: price}, nil
	}

	feeCap := new(big.Int).Mul(head.BaseFee, big.NewInt(2))
	feeCap.Add(feeCap, tip)
	return GasParams{Limit: limit, TipCap: tip, FeeCap: feeCap}, nil
}

func gwei(n uint64) *big.Int {
	return new(big.Int).Mul(new(big.Int).SetUint64(n), big.NewInt(params.GWei))
}
