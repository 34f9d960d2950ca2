package kafka

import (
	"strings"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	dErrors "prism/pkg/domain-errors"
)

// ProducerConfig holds configuration for the Kafka producer.
type ProducerConfig struct {
	Brokers         []string
	ClientID        string
	Acks            string
	Retries         int
	DeliveryTimeout time.Duration
}

// ConsumerConfig holds configuration for the Kafka consumer.
type ConsumerConfig struct {
	Brokers         []string
	ClientID        string
	GroupID         string
	Topics          []string
	AutoOffsetReset string
	FetchMaxWait    time.Duration
}

// DefaultProducerConfig returns sensible defaults for production use.
func DefaultProducerConfig() ProducerConfig {
	return ProducerConfig{
		ClientID:        "prism",
		Acks:            "all",
		Retries:         3,
		DeliveryTimeout: 30 * time.Second,
	}
}

// DefaultConsumerConfig returns sensible defaults for production use.
func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		ClientID:        "prism",
		AutoOffsetReset: "earliest",
		FetchMaxWait:    500 * time.Millisecond,
	}
}

// Opts translates the producer config into franz-go client options.
func (c ProducerConfig) Opts() ([]kgo.Opt, error) {
	brokers := cleanBrokers(c.Brokers)
	if len(brokers) == 0 {
		return nil, dErrors.New(dErrors.CodeConfiguration, "kafka brokers not configured")
	}

	var acks kgo.Acks
	switch c.Acks {
	case "0":
		acks = kgo.NoAck()
	case "1":
		acks = kgo.LeaderAck()
	default:
		acks = kgo.AllISRAcks()
	}

	opts := []kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.RequiredAcks(acks),
		kgo.RecordRetries(c.Retries),
		kgo.ProducerLinger(5 * time.Millisecond),
	}
	if c.Acks == "0" || c.Acks == "1" {
		opts = append(opts, kgo.DisableIdempotentWrite())
	}
	if c.ClientID != "" {
		opts = append(opts, kgo.ClientID(c.ClientID))
	}
	if c.DeliveryTimeout > 0 {
		opts = append(opts, kgo.RecordDeliveryTimeout(c.DeliveryTimeout))
	}
	return opts, nil
}

// Opts translates the consumer config into franz-go client options. Offsets
// are committed manually after a record has been handled.
func (c ConsumerConfig) Opts() ([]kgo.Opt, error) {
	brokers := cleanBrokers(c.Brokers)
	if len(brokers) == 0 {
		return nil, dErrors.New(dErrors.CodeConfiguration, "kafka brokers not configured")
	}
	if c.GroupID == "" {
		return nil, dErrors.New(dErrors.CodeConfiguration, "kafka consumer group ID not configured")
	}
	if len(c.Topics) == 0 {
		return nil, dErrors.New(dErrors.CodeConfiguration, "kafka consumer topics not configured")
	}

	reset := kgo.NewOffset().AtStart()
	if c.AutoOffsetReset == "latest" {
		reset = kgo.NewOffset().AtEnd()
	}

	opts := []kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.ConsumerGroup(c.GroupID),
		kgo.ConsumeTopics(c.Topics...),
		kgo.ConsumeResetOffset(reset),
		kgo.DisableAutoCommit(),
		kgo.BlockRebalanceOnPoll(),
	}
	if c.ClientID != "" {
		opts = append(opts, kgo.ClientID(c.ClientID))
	}
	if c.FetchMaxWait > 0 {
		opts = append(opts, kgo.FetchMaxWait(c.FetchMaxWait))
	}
	return opts, nil
}

func cleanBrokers(brokers []string) []string {
	out := make([]string, 0, len(brokers))
	for _, b := range brokers {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
