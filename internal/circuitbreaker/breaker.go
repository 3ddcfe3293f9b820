// Package circuitbreaker guards Temporal workflow dispatch in the agent
// tier. When the workflow service becomes unavailable, the breaker trips
// after consecutive failures and pipeline requests run in-process for a
// cooldown period before probing again.
package circuitbreaker

import (
	"sync"
	"time"
)

// State is the breaker state.
type State int

const (
	// Closed is normal operation: dispatch via the workflow service.
	Closed State = iota
	// Open means the breaker tripped: dispatch runs in-process.
	Open
	// HalfOpen lets a single probe request through to test recovery.
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

const (
	defaultThreshold = 3
	defaultCooldown  = 30 * time.Second
)

// Breaker is a goroutine-safe circuit breaker over consecutive failures.
type Breaker struct {
	mu        sync.Mutex
	state     State
	failures  int
	threshold int
	cooldown  time.Duration
	trippedAt time.Time

	// now is swapped in tests.
	now func() time.Time
}

// Option configures a Breaker.
type Option func(*Breaker)

// WithThreshold sets the consecutive-failure count that trips the breaker.
func WithThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.threshold = n
		}
	}
}

// WithCooldown sets how long the breaker stays Open before probing.
func WithCooldown(d time.Duration) Option {
	return func(b *Breaker) {
		if d > 0 {
			b.cooldown = d
		}
	}
}

// New creates a Breaker in the Closed state.
func New(opts ...Option) *Breaker {
	b := &Breaker{
		state:     Closed,
		threshold: defaultThreshold,
		cooldown:  defaultCooldown,
		now:       time.Now,
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Allow reports whether the next request may be dispatched through the
// workflow service. Open transitions to HalfOpen once the cooldown has
// elapsed, admitting exactly one probe.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed:
		return true
	case Open:
		if b.now().After(b.trippedAt.Add(b.cooldown)) {
			b.state = HalfOpen
			return true
		}
		return false
	default: // HalfOpen: one probe at a time
		return false
	}
}

// RecordSuccess resets the failure counter; a successful HalfOpen probe
// closes the breaker.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	if b.state == HalfOpen {
		b.state = Closed
	}
}

// RecordFailure counts a failure, tripping the breaker at the threshold.
// A failed HalfOpen probe reopens it immediately.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++

	switch b.state {
	case Closed:
		if b.failures >= b.threshold {
			b.state = Open
			b.trippedAt = b.now()
		}
	case HalfOpen:
		b.state = Open
		b.trippedAt = b.now()
	}
}

// CurrentState returns the breaker state without consulting the cooldown
// timer; use Allow for dispatch decisions.
func (b *Breaker) CurrentState() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
