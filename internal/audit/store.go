package audit

import (
	"context"
	"strings"
)

// MaxEventsPerWallet bounds the history kept for a single wallet. Older
// events are discarded first.
const MaxEventsPerWallet = 200

// Store persists events and lists them per wallet, oldest first.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByWallet(ctx context.Context, wallet string) ([]Event, error)
}

func walletKey(wallet string) string {
	return strings.ToLower(strings.TrimSpace(wallet))
}
