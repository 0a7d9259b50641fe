package clients

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock returns a breaker whose clock the test advances by hand.
func fakeClock(cfg CircuitBreakerConfig) (*CircuitBreaker, func(time.Duration)) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	cb := NewCircuitBreaker(cfg)
	cb.now = func() time.Time { return now }

	return cb, func(d time.Duration) { now = now.Add(d) }
}

func TestNewCircuitBreaker_RaisesLimits(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{})

	assert.Equal(t, 1, cb.cfg.MaxFailures)
	assert.Equal(t, 1, cb.cfg.HalfOpenLimit)
	assert.Equal(t, StateClosed, cb.State())
	assert.True(t, cb.Allow())
}

func TestCircuitBreaker_Transitions(t *testing.T) {
	cfg := CircuitBreakerConfig{MaxFailures: 2, Timeout: time.Minute, HalfOpenLimit: 2}

	tests := []struct {
		name  string
		steps func(cb *CircuitBreaker, advance func(time.Duration))
		want  State
		allow bool
	}{
		{
			name:  "stays closed below threshold",
			steps: func(cb *CircuitBreaker, _ func(time.Duration)) { cb.RecordFailure() },
			want:  StateClosed,
			allow: true,
		},
		{
			name: "success resets the failure streak",
			steps: func(cb *CircuitBreaker, _ func(time.Duration)) {
				cb.RecordFailure()
				cb.RecordSuccess()
				cb.RecordFailure()
			},
			want:  StateClosed,
			allow: true,
		},
		{
			name: "opens at threshold",
			steps: func(cb *CircuitBreaker, _ func(time.Duration)) {
				cb.RecordFailure()
				cb.RecordFailure()
			},
			want:  StateOpen,
			allow: false,
		},
		{
			name: "admits a probe after the cool-down",
			steps: func(cb *CircuitBreaker, advance func(time.Duration)) {
				cb.RecordFailure()
				cb.RecordFailure()
				advance(time.Minute)
			},
			want:  StateHalfOpen,
			allow: true,
		},
		{
			name: "closes after enough probe successes",
			steps: func(cb *CircuitBreaker, advance func(time.Duration)) {
				cb.RecordFailure()
				cb.RecordFailure()
				advance(time.Minute)
				cb.Allow()
				cb.RecordSuccess()
				cb.Allow()
				cb.RecordSuccess()
			},
			want:  StateClosed,
			allow: true,
		},
		{
			name: "a failed probe reopens",
			steps: func(cb *CircuitBreaker, advance func(time.Duration)) {
				cb.RecordFailure()
				cb.RecordFailure()
				advance(time.Minute)
				cb.Allow()
				cb.RecordFailure()
			},
			want:  StateOpen,
			allow: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb, advance := fakeClock(cfg)
			tt.steps(cb, advance)

			assert.Equal(t, tt.allow, cb.Allow())
			assert.Equal(t, tt.want, cb.State())
		})
	}
}

func TestCircuitBreaker_HalfOpenLimitsProbes(t *testing.T) {
	cb, advance := fakeClock(CircuitBreakerConfig{MaxFailures: 1, Timeout: time.Second, HalfOpenLimit: 2})

	cb.RecordFailure()
	advance(time.Second)

	assert.True(t, cb.Allow())
	assert.True(t, cb.Allow())
	assert.False(t, cb.Allow())
	assert.Equal(t, 2, cb.Snapshot().InFlightProbes)
}

func TestCircuitBreaker_Snapshot(t *testing.T) {
	cb, _ := fakeClock(CircuitBreakerConfig{MaxFailures: 3, Timeout: time.Second, HalfOpenLimit: 1})

	cb.RecordFailure()
	cb.RecordFailure()
	assert.Equal(t, 2, cb.Snapshot().ConsecutiveFailures)

	cb.RecordFailure()

	snap := cb.Snapshot()
	assert.Equal(t, StateOpen, snap.State)
	assert.Zero(t, snap.ConsecutiveFailures)
	assert.False(t, snap.OpenedAt.IsZero())
}

func TestCircuitBreaker_OnStateChange(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 1, Timeout: time.Second, HalfOpenLimit: 1})

	changed := make(chan [2]State, 1)
	cb.OnStateChange(func(from, to State) { changed <- [2]State{from, to} })

	cb.RecordFailure()

	select {
	case got := <-changed:
		assert.Equal(t, [2]State{StateClosed, StateOpen}, got)
	case <-time.After(time.Second):
		require.FailNow(t, "state change callback not called")
	}
}

func TestCircuitBreaker_Concurrent(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 50, Timeout: time.Second, HalfOpenLimit: 5})

	var wg sync.WaitGroup

	for i := range 500 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			if !cb.Allow() {
				return
			}

			if i%2 == 0 {
				cb.RecordSuccess()
			} else {
				cb.RecordFailure()
			}
		}()
	}

	wg.Wait()

	assert.Contains(t, []State{StateClosed, StateOpen, StateHalfOpen}, cb.State())
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateClosed, "closed"},
		{StateOpen, "open"},
		{StateHalfOpen, "half-open"},
		{State(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.state.String())
		})
	}
}
