package traffic

import (
	"sync"
	"time"
)

// Outcome classifies one dashboard request for health accounting.
type Outcome int

const (
	// OK is a request whose visible sections all rendered.
	OK Outcome = iota
	// Error is a request where at least one visible section failed.
	Error
	// Denied is a request rejected by the rate limiter.
	Denied
)

// maxAge bounds how far back events are retained; health windows must not exceed it.
const maxAge = 10 * time.Minute

var defaultTracker = NewTracker()

// Record records an outcome on the process-wide tracker.
func Record(o Outcome) {
	defaultTracker.Record(o)
}

// Window returns outcome counts within the window on the process-wide tracker.
func Window(window time.Duration) Counts {
	return defaultTracker.Window(window)
}

// RequestCount returns all outcomes (ok + error + denied) within the window.
func RequestCount(window time.Duration) int {
	return defaultTracker.Window(window).Total()
}

// DenialCount returns rate-limit denials within the window.
func DenialCount(window time.Duration) int {
	return defaultTracker.Window(window).Denied
}

// Reset clears the process-wide tracker. For tests only.
func Reset() {
	defaultTracker.Reset()
}

// Counts is a windowed summary of outcomes.
type Counts struct {
	OK     int `json:"ok"`
	Errors int `json:"errors"`
	Denied int `json:"denied"`
}

// Total is OK + Errors + Denied.
func (c Counts) Total() int {
	return c.OK + c.Errors + c.Denied
}

// ErrorPct is the percentage of served requests (denials excluded) that had a failing section.
func (c Counts) ErrorPct() float64 {
	served := c.OK + c.Errors
	if served == 0 {
		return 0
	}
	return float64(c.Errors) * 100 / float64(served)
}

type event struct {
	at      time.Time
	outcome Outcome
}

// Tracker keeps a time-ordered log of outcomes for sliding-window queries.
type Tracker struct {
	mu     sync.Mutex
	events []event
	now    func() time.Time
}

// NewTracker returns an empty Tracker using the wall clock.
func NewTracker() *Tracker {
	return &Tracker{now: time.Now}
}

// Record appends one outcome at the current time.
func (t *Tracker) Record(o Outcome) {
	t.RecordN(o, 1)
}

// RecordN appends n outcomes at the current time.
func (t *Tracker) RecordN(o Outcome, n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	for i := 0; i < n; i++ {
		t.events = append(t.events, event{at: now, outcome: o})
	}
	t.pruneLocked(now)
}

// Window counts outcomes recorded at or after now-window.
func (t *Tracker) Window(window time.Duration) Counts {
	t.mu.Lock()
	defer t.mu.Unlock()
	cutoff := t.now().Add(-window)
	var c Counts
	for i := len(t.events) - 1; i >= 0 && !t.events[i].at.Before(cutoff); i-- {
		switch t.events[i].outcome {
		case OK:
			c.OK++
		case Error:
			c.Errors++
		case Denied:
			c.Denied++
		}
	}
	return c
}

// Reset drops all recorded outcomes.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = nil
}

// pruneLocked drops events older than maxAge. Events are appended in time order.
func (t *Tracker) pruneLocked(now time.Time) {
	cutoff := now.Add(-maxAge)
	i := 0
	for ; i < len(t.events) && t.events[i].at.Before(cutoff); i++ {
	}
	if i > 0 {
		t.events = append(t.events[:0], t.events[i:]...)
	}
}
