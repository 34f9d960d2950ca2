package redis

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "prism/pkg/domain-errors"
)

func TestNew(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		c, err := New(context.Background(), Config{}, nil)
		require.NoError(t, err)
		assert.Nil(t, c)
	})

	t.Run("malformed url", func(t *testing.T) {
		_, err := New(context.Background(), Config{URL: "mysql://nope"}, nil)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConfiguration))
	})
}

func TestPoolMetrics_Observe(t *testing.T) {
	m := NewPoolMetrics(prometheus.NewRegistry())

	m.observe(nil, &redis.PoolStats{Hits: 5, Misses: 2, TotalConns: 4, IdleConns: 3})
	assert.Equal(t, float64(5), testutil.ToFloat64(m.hits))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.misses))
	assert.Equal(t, float64(4), testutil.ToFloat64(m.totalConns))

	m.observe(&redis.PoolStats{Hits: 5, Misses: 2}, &redis.PoolStats{Hits: 9, Misses: 2, Timeouts: 1, TotalConns: 2})
	assert.Equal(t, float64(9), testutil.ToFloat64(m.hits))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.misses))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.timeouts))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.totalConns))

	t.Run("nil metrics", func(t *testing.T) {
		var none *PoolMetrics
		assert.NotPanics(t, func() { none.observe(nil, &redis.PoolStats{}) })
	})
}
