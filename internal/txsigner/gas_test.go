package txsigner

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "prism/pkg/domain-errors"
)

type stubOracle struct {
	gasPrice    *big.Int
	tipCap      *big.Int
	baseFee     *big.Int
	estimate    uint64
	estimateErr error
	tipErr      error
}

func (o *stubOracle) SuggestGasPrice(context.Context) (*big.Int, error) { return o.gasPrice, nil }

func (o *stubOracle) SuggestGasTipCap(context.Context) (*big.Int, error) {
	return o.tipCap, o.tipErr
}

func (o *stubOracle) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return o.estimate, o.estimateErr
}

func (o *stubOracle) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	return &types.Header{BaseFee: o.baseFee}, nil
}

func TestNewPolicy(t *testing.T) {
	t.Run("defaults to fixed", func(t *testing.T) {
		p, err := NewPolicy(PolicyConfig{GasPriceGwei: 35, GasLimit: 300_000})
		require.NoError(t, err)
		assert.Equal(t, StrategyFixed, p.Name())
	})

	t.Run("fixed without price is a configuration error", func(t *testing.T) {
		_, err := NewPolicy(PolicyConfig{Strategy: "fixed", GasLimit: 1})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConfiguration))
	})

	t.Run("dynamic", func(t *testing.T) {
		p, err := NewPolicy(PolicyConfig{Strategy: "DYNAMIC", TipFloorGwei: 30, LimitMultiplier: 1.2})
		require.NoError(t, err)
		assert.Equal(t, StrategyDynamic, p.Name())
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := NewPolicy(PolicyConfig{Strategy: "auction"})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConfiguration))
	})
}

func TestFixedPolicy(t *testing.T) {
	p, err := NewPolicy(PolicyConfig{GasPriceGwei: 35, GasLimit: 300_000})
	require.NoError(t, err)

	params, err := p.Params(context.Background(), nil, ethereum.CallMsg{})
	require.NoError(t, err)
	assert.False(t, params.Dynamic())
	assert.Equal(t, uint64(300_000), params.Limit)
	assert.Equal(t, big.NewInt(35_000_000_000), params.GasPrice)

	// Callers may mutate the returned price without touching the policy.
	params.GasPrice.SetInt64(1)
	again, _ := p.Params(context.Background(), nil, ethereum.CallMsg{})
	assert.Equal(t, big.NewInt(35_000_000_000), again.GasPrice)
}

func TestDynamicPolicy(t *testing.T) {
	ctx := context.Background()

	t.Run("applies multiplier, tip floor and fee cap", func(t *testing.T) {
		p := &DynamicPolicy{TipFloor: big.NewInt(30), LimitMultiplier: 1.5}
		params, err := p.Params(ctx, &stubOracle{tipCap: big.NewInt(10), baseFee: big.NewInt(100), estimate: 100_000}, ethereum.CallMsg{})
		require.NoError(t, err)
		assert.True(t, params.Dynamic())
		assert.Equal(t, uint64(150_000), params.Limit)
		assert.Equal(t, big.NewInt(30), params.TipCap)
		assert.Equal(t, big.NewInt(230), params.FeeCap)
	})

	t.Run("keeps suggested tip above floor", func(t *testing.T) {
		p := &DynamicPolicy{TipFloor: big.NewInt(30)}
		params, err := p.Params(ctx, &stubOracle{tipCap: big.NewInt(50), baseFee: big.NewInt(10), estimate: 21_000}, ethereum.CallMsg{})
		require.NoError(t, err)
		assert.Equal(t, uint64(21_000), params.Limit)
		assert.Equal(t, big.NewInt(50), params.TipCap)
		assert.Equal(t, big.NewInt(70), params.FeeCap)
	})

	t.Run("estimation failure uses fallback limit", func(t *testing.T) {
		p := &DynamicPolicy{FallbackLimit: 250_000}
		params, err := p.Params(ctx, &stubOracle{tipCap: big.NewInt(1), baseFee: big.NewInt(1), estimateErr: errors.New("execution reverted")}, ethereum.CallMsg{})
		require.NoError(t, err)
		assert.Equal(t, uint64(250_000), params.Limit)
	})

	t.Run("estimation failure without fallback propagates", func(t *testing.T) {
		p := &DynamicPolicy{}
		_, err := p.Params(ctx, &stubOracle{estimateErr: errors.New("execution reverted")}, ethereum.CallMsg{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "execution reverted")
	})

	t.Run("pre-london chain falls back to legacy price", func(t *testing.T) {
		p := &DynamicPolicy{}
		params, err := p.Params(ctx, &stubOracle{tipCap: big.NewInt(1), gasPrice: big.NewInt(99), estimate: 50_000}, ethereum.CallMsg{})
		require.NoError(t, err)
		assert.False(t, params.Dynamic())
		assert.Equal(t, big.NewInt(99), params.GasPrice)
	})
}
