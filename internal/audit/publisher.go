package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"prism/internal/platform/privacy"
	dErrors "prism/pkg/domain-errors"
)

// Publisher appends audit events to a Store, either inline or through a
// buffered background writer.
type Publisher struct {
	store  Store
	logger *slog.Logger
	clock  func() time.Time

	events chan Event
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// PublisherOption configures the Publisher.
type PublisherOption func(*Publisher)

// WithAsyncBuffer queues up to size events for a background writer.
// Emit never blocks on the store; a full buffer drops the event.
func WithAsyncBuffer(size int) PublisherOption {
	return func(p *Publisher) {
		if size > 0 {
			p.events = make(chan Event, size)
		}
	}
}

func WithPublisherLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func WithPublisherClock(clock func() time.Time) PublisherOption {
	return func(p *Publisher) {
		p.clock = clock
	}
}

func NewPublisher(store Store, opts ...PublisherOption) *Publisher {
	p := &Publisher{store: store, logger: slog.New(slog.DiscardHandler), clock: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	if p.events != nil {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for event := range p.events {
		if err := p.store.Append(context.Background(), event); err != nil {
			p.logger.Error("failed to persist audit event",
				"error", err,
				"action", event.Action,
				"wallet", privacy.MaskWallet(event.Wallet),
			)
		}
	}
}

// Close stops accepting events and waits for queued ones to be written.
// It is safe to call more than once.
func (p *Publisher) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	if p.events != nil {
		close(p.events)
	}
	p.mu.Unlock()
	p.wg.Wait()
}

// Emit records event, stamping it with the current time if unset.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = p.clock()
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return dErrors.New(dErrors.CodeInternal, "audit publisher closed")
	}
	if p.events == nil {
		return p.store.Append(ctx, event)
	}

	select {
	case p.events <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		p.logger.Warn("audit buffer full, event dropped",
			"action", event.Action,
			"wallet", privacy.MaskWallet(event.Wallet),
		)
		return dErrors.New(dErrors.CodeInternal, "audit buffer full")
	}
}

// List returns wallet's events, oldest first.
func (p *Publisher) List(ctx context.Context, wallet string) ([]Event, error) {
	return p.store.ListByWallet(ctx, wallet)
}
