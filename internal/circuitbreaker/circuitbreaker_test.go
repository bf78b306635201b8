package circuitbreaker

import (
	"errors"
	"testing"
	"time"
)

var errBackend = errors.New("backend down")

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(changes *[]string) (*Breaker, *fakeClock) {
	clock := &fakeClock{t: time.Date(2015, 2, 24, 9, 0, 0, 0, time.UTC)}
	b := New(Config{
		FailureThreshold: 3,
		SuccessThreshold: 2,
		Cooldown:         10 * time.Second,
		OnStateChange: func(from, to State) {
			*changes = append(*changes, from.String()+"->"+to.String())
		},
	})
	b.now = clock.now
	return b, clock
}

func fail() error    { return errBackend }
func succeed() error { return nil }

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	var changes []string
	b, _ := newTestBreaker(&changes)

	for i := 0; i < 2; i++ {
		if err := b.Do(fail); !errors.Is(err, errBackend) {
			t.Fatalf("Do() error = %v, want backend error", err)
		}
	}
	if b.State() != StateClosed {
		t.Fatalf("state = %v after 2 failures, want closed", b.State())
	}
	_ = b.Do(fail)
	if b.State() != StateOpen {
		t.Fatalf("state = %v after 3 failures, want open", b.State())
	}

	called := false
	err := b.Do(func() error { called = true; return nil })
	if !errors.Is(err, ErrOpen) {
		t.Errorf("Do() while open error = %v, want ErrOpen", err)
	}
	if called {
		t.Error("fn called while breaker open")
	}
	if len(changes) != 1 || changes[0] != "closed->open" {
		t.Errorf("changes = %v, want [closed->open]", changes)
	}
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	var changes []string
	b, _ := newTestBreaker(&changes)

	_ = b.Do(fail)
	_ = b.Do(fail)
	_ = b.Do(succeed)
	_ = b.Do(fail)
	_ = b.Do(fail)
	if b.State() != StateClosed {
		t.Errorf("state = %v, want closed (failures were not consecutive)", b.State())
	}
}

func TestBreaker_HalfOpenRecovery(t *testing.T) {
	var changes []string
	b, clock := newTestBreaker(&changes)
	for i := 0; i < 3; i++ {
		_ = b.Do(fail)
	}

	clock.advance(11 * time.Second)
	if err := b.Do(succeed); err != nil {
		t.Fatalf("trial call error = %v", err)
	}
	if b.State() != StateHalfOpen {
		t.Fatalf("state = %v after one trial call, want half_open", b.State())
	}
	_ = b.Do(succeed)
	if b.State() != StateClosed {
		t.Fatalf("state = %v after two trial calls, want closed", b.State())
	}

	want := []string{"closed->open", "open->half_open", "half_open->closed"}
	if len(changes) != len(want) {
		t.Fatalf("changes = %v, want %v", changes, want)
	}
	for i := range want {
		if changes[i] != want[i] {
			t.Errorf("changes[%d] = %q, want %q", i, changes[i], want[i])
		}
	}
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	var changes []string
	b, clock := newTestBreaker(&changes)
	for i := 0; i < 3; i++ {
		_ = b.Do(fail)
	}
	clock.advance(11 * time.Second)

	_ = b.Do(fail)
	if b.State() != StateOpen {
		t.Fatalf("state = %v, want open", b.State())
	}
	if err := b.Do(succeed); !errors.Is(err, ErrOpen) {
		t.Errorf("Do() right after reopening error = %v, want ErrOpen", err)
	}
}

func TestNew_Defaults(t *testing.T) {
	b := New(Config{})
	if b.failureLimit != 5 || b.successLimit != 2 || b.cooldown != 30*time.Second {
		t.Errorf("defaults = (%d, %d, %v), want (5, 2, 30s)", b.failureLimit, b.successLimit, b.cooldown)
	}
}

func TestState_String(t *testing.T) {
	tests := map[State]string{StateClosed: "closed", StateOpen: "open", StateHalfOpen: "half_open", State(9): "unknown"}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", s, got, want)
		}
	}
}
