// Package circuit tracks consecutive failures of a remote dependency.
package circuit

import (
	"sync"
	"time"
)

// State is the breaker state.
type State int

const (
	// StateClosed: the dependency is considered healthy.
	StateClosed State = iota
	// StateOpen: enough consecutive failures were seen to call it unhealthy.
	StateOpen
)

func (s State) String() string {
	if s == StateOpen {
		return "open"
	}
	return "closed"
}

// StateChange reports a transition caused by a Record call.
type StateChange struct {
	Opened bool
	Closed bool
}

// Breaker is a two-state circuit breaker. It opens after FailureThreshold
// consecutive failures and closes after SuccessThreshold consecutive
// successes while open.
type Breaker struct {
	mu               sync.Mutex
	name             string
	state            State
	openedAt         time.Time
	failureCount     int
	successCount     int
	failureThreshold int
	successThreshold int
	clock            func() time.Time
	onChange         func(name string, to State)
}

// Option configures a Breaker instance.
type Option func(*Breaker)

// WithFailureThreshold sets the consecutive failures that open the circuit. Default 5.
func WithFailureThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.failureThreshold = n
		}
	}
}

// WithSuccessThreshold sets the consecutive successes that close it again. Default 3.
func WithSuccessThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.successThreshold = n
		}
	}
}

// WithOnChange registers fn to run after every transition. fn is called
// without the breaker's lock held.
func WithOnChange(fn func(name string, to State)) Option {
	return func(b *Breaker) {
		b.onChange = fn
	}
}

// WithClock overrides time.Now.
func WithClock(clock func() time.Time) Option {
	return func(b *Breaker) {
		if clock != nil {
			b.clock = clock
		}
	}
}

// New creates a circuit breaker with the given name and options.
func New(name string, opts ...Option) *Breaker {
	b := &Breaker{
		name:             name,
		state:            StateClosed,
		failureThreshold: 5,
		successThreshold: 3,
		clock:            time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// Name returns the breaker's name for logs and metrics.
func (b *Breaker) Name() string {
	return b.name
}

// IsOpen reports whether the circuit has tripped.
func (b *Breaker) IsOpen() bool {
	return b.State() == StateOpen
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// OpenFor returns how long the circuit has been open, or zero when closed.
func (b *Breaker) OpenFor() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != StateOpen {
		return 0
	}
	return b.clock().Sub(b.openedAt)
}

// RecordFailure counts a failed call. open reports the state after the call.
func (b *Breaker) RecordFailure() (open bool, change StateChange) {
	b.mu.Lock()
	b.failureCount++
	b.successCount = 0
	if b.state == StateClosed && b.failureCount >= b.failureThreshold {
		b.state = StateOpen
		b.openedAt = b.clock()
		change.Opened = true
	}
	open = b.state == StateOpen
	b.mu.Unlock()

	if change.Opened {
		b.notify(StateOpen)
	}
	return open, change
}

// RecordSuccess counts a successful call. closed reports the state after the call.
func (b *Breaker) RecordSuccess() (closed bool, change StateChange) {
	b.mu.Lock()
	if b.state == StateOpen {
		b.successCount++
		if b.successCount >= b.successThreshold {
			b.state = StateClosed
			b.failureCount = 0
			b.successCount = 0
			b.openedAt = time.Time{}
			change.Closed = true
		}
	} else {
		b.failureCount = 0
	}
	closed = b.state == StateClosed
	b.mu.Unlock()

	if change.Closed {
		b.notify(StateClosed)
	}
	return closed, change
}

// Reset closes the circuit and clears all counts.
func (b *Breaker) Reset() {
	b.mu.Lock()
	wasOpen := b.state == StateOpen
	b.state = StateClosed
	b.failureCount = 0
	b.successCount = 0
	b.openedAt = time.Time{}
	b.mu.Unlock()

	if wasOpen {
		b.notify(StateClosed)
	}
}

func (b *Breaker) notify(to State) {
	if b.onChange != nil {
		b.onChange(b.name, to)
	}
}
