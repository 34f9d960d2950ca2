package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "prism/pkg/domain-errors"
)

func TestProducerConfig_Opts(t *testing.T) {
	cfg := DefaultProducerConfig()
	_, err := cfg.Opts()
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConfiguration))

	cfg.Brokers = []string{" ", "localhost:9092"}
	opts, err := cfg.Opts()
	require.NoError(t, err)
	assert.NotEmpty(t, opts)
}

func TestConsumerConfig_Opts(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ConsumerConfig)
		ok     bool
	}{
		{"complete", func(*ConsumerConfig) {}, true},
		{"no brokers", func(c *ConsumerConfig) { c.Brokers = nil }, false},
		{"no group", func(c *ConsumerConfig) { c.GroupID = "" }, false},
		{"no topics", func(c *ConsumerConfig) { c.Topics = nil }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConsumerConfig()
			cfg.Brokers = []string{"localhost:9092"}
			cfg.GroupID = "prism-minter"
			cfg.Topics = []string{"prism.verification.outcomes"}
			tt.mutate(&cfg)

			_, err := cfg.Opts()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.True(t, dErrors.HasCode(err, dErrors.CodeConfiguration))
		})
	}
}
