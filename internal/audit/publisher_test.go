package audit

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "prism/pkg/domain-errors"
)

const wallet = "0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

type failingStore struct {
	err error
}

func (s *failingStore) Append(_ context.Context, _ Event) error {
	return s.err
}

func (s *failingStore) ListByWallet(_ context.Context, _ string) ([]Event, error) {
	return nil, nil
}

// blockingStore holds Append until release is closed.
type blockingStore struct {
	*InMemoryStore
	release chan struct{}
}

func (s *blockingStore) Append(ctx context.Context, event Event) error {
	<-s.release
	return s.InMemoryStore.Append(ctx, event)
}

func TestPublisher_EmitStoresEvent(t *testing.T) {
	pub := NewPublisher(NewInMemoryStore())

	requestID := uuid.NewString()
	err := pub.Emit(context.Background(), Event{
		Wallet:    wallet,
		Action:    "attestation_minted",
		RequestID: requestID,
	})
	require.NoError(t, err)

	events, err := pub.List(context.Background(), wallet)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "attestation_minted", events[0].Action)
	assert.Equal(t, requestID, events[0].RequestID)
}

func TestPublisher_ListIgnoresWalletCase(t *testing.T) {
	pub := NewPublisher(NewInMemoryStore())
	require.NoError(t, pub.Emit(context.Background(), Event{Wallet: wallet, Action: "attestation_revoked"}))

	events, err := pub.List(context.Background(), "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestPublisher_SetsTimestamp(t *testing.T) {
	pub := NewPublisher(NewInMemoryStore())

	before := time.Now()
	require.NoError(t, pub.Emit(context.Background(), Event{Wallet: wallet, Action: "attestation_minted"}))
	after := time.Now()

	events, err := pub.List(context.Background(), wallet)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.False(t, events[0].Timestamp.Before(before))
	assert.False(t, events[0].Timestamp.After(after))
}

func TestPublisher_PreservesExistingTimestamp(t *testing.T) {
	pub := NewPublisher(NewInMemoryStore())

	customTime := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, pub.Emit(context.Background(), Event{Wallet: wallet, Action: "attestation_minted", Timestamp: customTime}))

	events, err := pub.List(context.Background(), wallet)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, customTime, events[0].Timestamp)
}

func TestPublisher_EmitReturnsError(t *testing.T) {
	storeErr := errors.New("append failed")
	pub := NewPublisher(&failingStore{err: storeErr})

	err := pub.Emit(context.Background(), Event{Action: "attestation_failed"})
	require.ErrorIs(t, err, storeErr)
}

func TestPublisher_AsyncDrainsOnClose(t *testing.T) {
	store := NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(8))

	for range 5 {
		require.NoError(t, pub.Emit(context.Background(), Event{Wallet: wallet, Action: "attestation_minted"}))
	}
	pub.Close()

	events, err := store.ListByWallet(context.Background(), wallet)
	require.NoError(t, err)
	assert.Len(t, events, 5)
}

func TestPublisher_AsyncBufferFull(t *testing.T) {
	store := &blockingStore{InMemoryStore: NewInMemoryStore(), release: make(chan struct{})}
	pub := NewPublisher(store, WithAsyncBuffer(1))

	// The worker takes the first event and blocks; the second fills the buffer.
	require.NoError(t, pub.Emit(context.Background(), Event{Wallet: wallet}))
	require.Eventually(t, func() bool { return len(pub.events) == 0 }, time.Second, time.Millisecond)
	require.NoError(t, pub.Emit(context.Background(), Event{Wallet: wallet}))

	err := pub.Emit(context.Background(), Event{Wallet: wallet})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))

	close(store.release)
	pub.Close()
	events, _ := store.ListByWallet(context.Background(), wallet)
	assert.Len(t, events, 2)
}

func TestPublisher_CloseIsIdempotent(t *testing.T) {
	pub := NewPublisher(NewInMemoryStore(), WithAsyncBuffer(4))
	pub.Close()
	pub.Close()

	err := pub.Emit(context.Background(), Event{Wallet: wallet})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
}

func TestPublisher_UsesClock(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	pub := NewPublisher(NewInMemoryStore(), WithPublisherClock(func() time.Time { return fixed }))
	require.NoError(t, pub.Emit(context.Background(), Event{Wallet: wallet}))

	events, err := pub.List(context.Background(), wallet)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, fixed, events[0].Timestamp)
}

func TestInMemoryStore_KeepsNewest(t *testing.T) {
	store := NewInMemoryStore()
	store.limit = 3
	for i := range 5 {
		require.NoError(t, store.Append(context.Background(), Event{Wallet: wallet, TxHash: fmt.Sprint(i)}))
	}

	events, err := store.ListByWallet(context.Background(), wallet)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "2", events[0].TxHash)
	assert.Equal(t, "4", events[2].TxHash)
}
