package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned by Do while the breaker is refusing calls.
var ErrOpen = errors.New("circuit breaker open")

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

// State is the breaker state.
type State int

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// Config holds breaker parameters. Zero values take the defaults in New.
type Config struct {
	// FailureThreshold consecutive failures open the breaker.
	FailureThreshold int
	// SuccessThreshold consecutive half-open successes close it again.
	SuccessThreshold int
	// Cooldown is how long an open breaker refuses calls before probing.
	Cooldown time.Duration
	// OnStateChange, when set, is called outside the lock after every transition.
	OnStateChange func(from, to State)
}

// Breaker stops calling a failing backend for a cooldown period, then lets
// trial calls through in half-open state.
type Breaker struct {
	mu           sync.Mutex
	state        State
	failures     int
	successes    int
	openedAt     time.Time
	failureLimit int
	successLimit int
	cooldown     time.Duration
	onChange     func(from, to State)
	now          func() time.Time
}

// New returns a closed Breaker.
func New(cfg Config) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 2
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	return &Breaker{
		failureLimit: cfg.FailureThreshold,
		successLimit: cfg.SuccessThreshold,
		cooldown:     cfg.Cooldown,
		onChange:     cfg.OnStateChange,
		now:          time.Now,
	}
}

// Do runs fn unless the breaker is open, and feeds the result back into the state.
// It returns ErrOpen without calling fn while the cooldown runs.
func (b *Breaker) Do(fn func() error) error {
	b.mu.Lock()
	if b.state == StateOpen {
		if b.now().Sub(b.openedAt) < b.cooldown {
			b.mu.Unlock()
			return ErrOpen
		}
		b.notify(b.transitionLocked(StateHalfOpen))
	} else {
		b.mu.Unlock()
	}

	err := fn()

	b.mu.Lock()
	var prev State = -1
	if err != nil {
		b.failures++
		b.successes = 0
		if b.state == StateHalfOpen || b.failures >= b.failureLimit {
			b.openedAt = b.now()
			prev = b.transitionLocked(StateOpen)
		}
	} else {
		b.failures = 0
		if b.state == StateHalfOpen {
			b.successes++
			if b.successes >= b.successLimit {
				prev = b.transitionLocked(StateClosed)
			}
		}
	}
	b.notify(prev)
	return err
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// transitionLocked moves to next and returns the previous state, or -1 when nothing changed.
func (b *Breaker) transitionLocked(next State) State {
	prev := b.state
	if prev == next {
		return -1
	}
	b.state = next
	b.failures = 0
	b.successes = 0
	return prev
}

// notify releases the lock and reports a transition returned by transitionLocked.
func (b *Breaker) notify(prev State) {
	next := b.state
	b.mu.Unlock()
	if prev >= 0 && b.onChange != nil {
		b.onChange(prev, next)
	}
}
