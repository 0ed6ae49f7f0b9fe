package resilience

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrCircuitOpen is returned without invoking fn while the breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker open")

// BreakerState enumerates the circuit breaker states.
type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// CircuitBreaker trips open after a run of consecutive failures and probes
// the dependency again after a cooldown. Half-open allows a single trial
// call; its outcome decides between closing and re-opening.
type CircuitBreaker struct {
	mu            sync.Mutex
	name          string
	state         BreakerState
	failures      int
	maxFailures   int
	cooldown      time.Duration
	openedAt      time.Time
	probeInFlight bool
	logger        *slog.Logger
}

// NewCircuitBreaker creates a closed breaker that opens after maxFailures
// consecutive failures and stays open for cooldown.
func NewCircuitBreaker(name string, maxFailures int, cooldown time.Duration) *CircuitBreaker {
	if maxFailures <= 0 {
		maxFailures = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &CircuitBreaker{
		name:        name,
		state:       BreakerClosed,
		maxFailures: maxFailures,
		cooldown:    cooldown,
		logger:      slog.Default().With("component", "circuit-breaker", "name", name),
	}
}

// Execute runs fn unless the breaker is open. Errors from fn count toward
// tripping; ErrCircuitOpen is returned while open.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if err := cb.beforeCall(); err != nil {
		return err
	}
	err := fn()
	cb.afterCall(err)
	return err
}

// State returns the current breaker state.
func (cb *CircuitBreaker) State() BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) beforeCall() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case BreakerOpen:
		if time.Since(cb.openedAt) < cb.cooldown {
			return ErrCircuitOpen
		}
		cb.state = BreakerHalfOpen
		cb.probeInFlight = false
		cb.logger.Info("cooldown elapsed, probing dependency")
		fallthrough
	case BreakerHalfOpen:
		if cb.probeInFlight {
			return ErrCircuitOpen
		}
		cb.probeInFlight = true
	}
	return nil
}

func (cb *CircuitBreaker) afterCall(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err == nil {
		if cb.state != BreakerClosed {
			cb.logger.Info("dependency recovered, closing breaker")
		}
		cb.state = BreakerClosed
		cb.failures = 0
		cb.probeInFlight = false
		return
	}

	switch cb.state {
	case BreakerHalfOpen:
		cb.trip()
	case BreakerClosed:
		cb.failures++
		if cb.failures >= cb.maxFailures {
			cb.trip()
		}
	}
	cb.probeInFlight = false
}

func (cb *CircuitBreaker) trip() {
	cb.state = BreakerOpen
	cb.openedAt = time.Now()
	cb.failures = 0
	cb.logger.Warn("breaker tripped open", "cooldown", cb.cooldown)
}
