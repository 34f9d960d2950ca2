package producer

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
)

type fakeClient struct {
	mu         sync.Mutex
	produced   []*kgo.Record
	produceErr error
	pingErr    error
	flushed    int
	closed     bool
}

func (f *fakeClient) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	f.mu.Lock()
	defer f.mu.Unlock()
	results := make(kgo.ProduceResults, 0, len(rs))
	for _, r := range rs {
		if f.produceErr == nil {
			f.produced = append(f.produced, r)
		}
		results = append(results, kgo.ProduceResult{Record: r, Err: f.produceErr})
	}
	return results
}

func (f *fakeClient) Produce(_ context.Context, r *kgo.Record, promise func(*kgo.Record, error)) {
	f.mu.Lock()
	f.produced = append(f.produced, r)
	f.mu.Unlock()
	promise(r, f.produceErr)
}

func (f *fakeClient) Flush(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushed++
	return nil
}

func (f *fakeClient) Ping(context.Context) error { return f.pingErr }

func (f *fakeClient) Close() { f.closed = true }

func TestProduce(t *testing.T) {
	client := &fakeClient{}
	p := NewWithClient(client, nil)

	err := p.Produce(context.Background(), &Message{
		Topic:   "prism.attestation.results",
		Key:     []byte("session-1"),
		Value:   []byte(`{"status":"minted"}`),
		Headers: map[string]string{"request_id": "r-1"},
	})
	require.NoError(t, err)

	require.Len(t, client.produced, 1)
	rec := client.produced[0]
	assert.Equal(t, "prism.attestation.results", rec.Topic)
	assert.Equal(t, []byte("session-1"), rec.Key)
	assert.Equal(t, []kgo.RecordHeader{{Key: "request_id", Value: []byte("r-1")}}, rec.Headers)
}

func TestProduce_Error(t *testing.T) {
	p := NewWithClient(&fakeClient{produceErr: errors.New("broker down")}, nil)
	err := p.Produce(context.Background(), &Message{Topic: "t"})
	assert.ErrorContains(t, err, "broker down")
}

func TestProduceAsync(t *testing.T) {
	client := &fakeClient{}
	p := NewWithClient(client, nil)

	require.NoError(t, p.ProduceAsync(&Message{Topic: "t"}))
	require.NoError(t, p.Flush(context.Background()))
	assert.Len(t, client.produced, 1)
	assert.Equal(t, 1, client.flushed)
}

func TestClose(t *testing.T) {
	client := &fakeClient{}
	p := NewWithClient(client, nil)

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	assert.True(t, client.closed)
	assert.Equal(t, 1, client.flushed)

	assert.Error(t, p.Produce(context.Background(), &Message{Topic: "t"}))
	assert.Error(t, p.ProduceAsync(&Message{Topic: "t"}))
	assert.Error(t, p.Healthy(context.Background()))
}

func TestHealthy(t *testing.T) {
	assert.NoError(t, NewWithClient(&fakeClient{}, nil).Healthy(context.Background()))
	assert.Error(t, NewWithClient(&fakeClient{pingErr: errors.New("no brokers")}, nil).Healthy(context.Background()))
}

func TestNoopProducer(t *testing.T) {
	p := NewNoopProducer(nil)
	assert.NoError(t, p.Produce(context.Background(), &Message{Topic: "t"}))
	assert.NoError(t, p.Healthy(context.Background()))
	assert.NoError(t, p.Close())
}
