package provider

import (
	"sync"
	"time"

	"chorus/internal/logger"
)

type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "CLOSED"
	case BreakerOpen:
		return "OPEN"
	case BreakerHalfOpen:
		return "HALF-OPEN"
	default:
		return "UNKNOWN"
	}
}

// Breaker shields a backend that keeps failing: after threshold consecutive
// failures it opens for cooldown, then lets a single probe through. Safe for
// concurrent use from all model tasks.
type Breaker struct {
	mu          sync.Mutex
	state       BreakerState
	failures    int
	threshold   int
	cooldown    time.Duration
	lastFailure time.Time
	name        string
}

func NewBreaker(name string, threshold int, cooldown time.Duration) *Breaker {
	return &Breaker{
		name:      name,
		threshold: threshold,
		cooldown:  cooldown,
		state:     BreakerClosed,
	}
}

func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerClosed:
		return true
	case BreakerOpen:
		if time.Since(b.lastFailure) > b.cooldown {
			b.transition(BreakerHalfOpen)
			return true
		}
		return false
	default:
		return true
	}
}

func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerHalfOpen:
		b.transition(BreakerClosed)
		b.failures = 0
	case BreakerClosed:
		b.failures = 0
	}
}

func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	b.lastFailure = time.Now()

	switch b.state {
	case BreakerClosed:
		if b.failures >= b.threshold {
			b.transition(BreakerOpen)
		}
	case BreakerHalfOpen:
		b.transition(BreakerOpen)
	}
}

func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) transition(to BreakerState) {
	from := b.state
	b.state = to
	logger.Warnf("breaker %s state change: %s -> %s (failures=%d/%d, cooldown=%s)",
		b.name, from, to, b.failures, b.threshold, b.cooldown)
}
