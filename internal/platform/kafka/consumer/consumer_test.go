package consumer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
)

type fakeClient struct {
	mu        sync.Mutex
	batches   []kgo.Fetches
	committed []int64
	closed    bool
	pingErr   error
}

func (f *fakeClient) PollFetches(ctx context.Context) kgo.Fetches {
	f.mu.Lock()
	if len(f.batches) > 0 {
		next := f.batches[0]
		f.batches = f.batches[1:]
		f.mu.Unlock()
		return next
	}
	f.mu.Unlock()
	<-ctx.Done()
	return kgo.Fetches{}
}

func (f *fakeClient) CommitRecords(_ context.Context, rs ...*kgo.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range rs {
		f.committed = append(f.committed, r.Offset)
	}
	return nil
}

func (f *fakeClient) AllowRebalance()            {}
func (f *fakeClient) Ping(context.Context) error { return f.pingErr }
func (f *fakeClient) Close()                     { f.closed = true }

func (f *fakeClient) commits() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.committed...)
}

func batch(offsets ...int64) kgo.Fetches {
	recs := make([]*kgo.Record, 0, len(offsets))
	for _, o := range offsets {
		recs = append(recs, &kgo.Record{
			Topic:   "prism.verification.outcomes",
			Offset:  o,
			Value:   []byte("{}"),
			Headers: []kgo.RecordHeader{{Key: "request_id", Value: []byte("r-1")}},
		})
	}
	return kgo.Fetches{{Topics: []kgo.FetchTopic{{
		Topic:      "prism.verification.outcomes",
		Partitions: []kgo.FetchPartition{{Partition: 0, Records: recs}},
	}}}}
}

func newTestConsumer(client Client, h Handler) *Consumer {
	c := NewWithClient(client, h, nil)
	c.newBackoff = func() backoff.BackOff { return backoff.NewConstantBackOff(time.Millisecond) }
	return c
}

func TestRun_CommitsAfterHandle(t *testing.T) {
	client := &fakeClient{batches: []kgo.Fetches{batch(0, 1), batch(2)}}
	var seen []int64
	var headers []string
	done := make(chan struct{})
	h := HandlerFunc(func(_ context.Context, msg *Message) error {
		seen = append(seen, msg.Offset)
		headers = append(headers, msg.Headers["request_id"])
		if msg.Offset == 2 {
			close(done)
		}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- newTestConsumer(client, h).Run(ctx) }()

	<-done
	require.Eventually(t, func() bool { return len(client.commits()) == 3 }, time.Second, time.Millisecond)
	cancel()
	require.NoError(t, <-errc)

	assert.Equal(t, []int64{0, 1, 2}, seen)
	assert.Equal(t, []int64{0, 1, 2}, client.commits())
	assert.Equal(t, []string{"r-1", "r-1", "r-1"}, headers)
}

func TestRun_RetriesHandlerErrors(t *testing.T) {
	client := &fakeClient{batches: []kgo.Fetches{batch(5)}}
	attempts := 0
	h := HandlerFunc(func(context.Context, *Message) error {
		attempts++
		if attempts < 3 {
			return errors.New("publish failed")
		}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = newTestConsumer(client, h).Run(ctx) }()

	require.Eventually(t, func() bool { return len(client.commits()) == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, []int64{5}, client.commits())
}

func TestRun_CancelDuringRetryLeavesOffsetUncommitted(t *testing.T) {
	client := &fakeClient{batches: []kgo.Fetches{batch(0, 1)}}
	ctx, cancel := context.WithCancel(context.Background())
	var calls int
	h := HandlerFunc(func(context.Context, *Message) error {
		calls++
		if calls == 2 {
			cancel()
		}
		return errors.New("always failing")
	})

	require.NoError(t, newTestConsumer(client, h).Run(ctx))
	assert.Empty(t, client.commits())
}

func TestHealthyAndClose(t *testing.T) {
	client := &fakeClient{}
	c := newTestConsumer(client, HandlerFunc(func(context.Context, *Message) error { return nil }))

	assert.NoError(t, c.Healthy(context.Background()))
	c.Close()
	c.Close()
	assert.True(t, client.closed)
	assert.Error(t, c.Healthy(context.Background()))

	failing := newTestConsumer(&fakeClient{pingErr: errors.New("no brokers")}, nil)
	assert.Error(t, failing.Healthy(context.Background()))
}
