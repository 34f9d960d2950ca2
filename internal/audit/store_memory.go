package audit

import (
	"context"
	"sync"
)

// InMemoryStore keeps the newest MaxEventsPerWallet events per wallet.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[string][]Event
	limit  int
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[string][]Event), limit: MaxEventsPerWallet}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := walletKey(event.Wallet)
	list := append(s.events[key], event)
	if over := len(list) - s.limit; over > 0 {
		list = append([]Event(nil), list[over:]...)
	}
	s.events[key] = list
	return nil
}

func (s *InMemoryStore) ListByWallet(_ context.Context, wallet string) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Event{}, s.events[walletKey(wallet)]...), nil
}
