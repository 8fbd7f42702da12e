package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFetch = errors.New("fetch failed")

func run(b *Breaker, outcomes ...bool) {
	for _, ok := range outcomes {
		_ = b.Do(func() error {
			if ok {
				return nil
			}
			return errFetch
		})
	}
}

func TestBreakerStateTransitions(t *testing.T) {
	tests := []struct {
		name     string
		settings Settings
		outcomes []bool
		want     State
	}{
		{
			name:     "stays closed on successes",
			settings: Settings{Interval: time.Minute, Timeout: time.Minute},
			outcomes: []bool{true, true, true},
			want:     StateClosed,
		},
		{
			name: "opens after consecutive failures",
			settings: Settings{
				Interval:    time.Minute,
				Timeout:     time.Minute,
				ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 3 },
			},
			outcomes: []bool{false, false, false},
			want:     StateOpen,
		},
		{
			name: "a success resets the failure streak",
			settings: Settings{
				Interval:    time.Minute,
				Timeout:     time.Minute,
				ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 2 },
			},
			outcomes: []bool{false, true, false},
			want:     StateClosed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New("test", tt.settings)
			run(b, tt.outcomes...)
			assert.Equal(t, tt.want, b.State())
		})
	}
}

func TestBreakerCounts(t *testing.T) {
	b := New("test", Settings{Interval: time.Minute, Timeout: time.Minute})

	run(b, true)
	counts := b.Counts()
	assert.Equal(t, uint32(1), counts.Requests)
	assert.Equal(t, uint32(1), counts.TotalSuccesses)

	run(b, false)
	counts = b.Counts()
	assert.Equal(t, uint32(2), counts.Requests)
	assert.Equal(t, uint32(1), counts.TotalFailures)
	assert.Equal(t, uint32(1), counts.ConsecutiveFailures)
	assert.Equal(t, uint32(0), counts.ConsecutiveSuccesses)
}

func TestBreakerOpenFailsFast(t *testing.T) {
	b := New("test", Settings{
		Interval:    time.Minute,
		Timeout:     time.Minute,
		ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 2 },
	})
	run(b, false, false)

	called := false
	err := b.Do(func() error { called = true; return nil })
	assert.True(t, errors.Is(err, ErrCircuitOpen))
	assert.False(t, called)
}

func TestBreakerHalfOpenRecovers(t *testing.T) {
	b := New("test", Settings{
		MaxRequests: 2,
		Interval:    time.Minute,
		Timeout:     30 * time.Millisecond,
		ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 2 },
	})
	run(b, false, false)
	require.Equal(t, StateOpen, b.State())

	time.Sleep(50 * time.Millisecond)
	require.Equal(t, StateHalfOpen, b.State())

	run(b, true, true)
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	b := New("test", Settings{
		Interval:    time.Minute,
		Timeout:     20 * time.Millisecond,
		ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 1 },
	})
	run(b, false)
	time.Sleep(40 * time.Millisecond)
	require.Equal(t, StateHalfOpen, b.State())

	run(b, false)
	assert.Equal(t, StateOpen, b.State())
}

func TestBreakerReset(t *testing.T) {
	var transitions []string
	b := New("test", Settings{
		Interval:    time.Minute,
		Timeout:     time.Hour,
		ReadyToTrip: func(c Counts) bool { return c.ConsecutiveFailures >= 1 },
		OnStateChange: func(_ string, from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})
	run(b, false)
	require.Equal(t, StateOpen, b.State())

	b.Reset()
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, Counts{}, b.Counts())
	assert.Equal(t, []string{"closed->open", "open->closed"}, transitions)
}

func TestExecuteTyped(t *testing.T) {
	b := New("test", Settings{})

	n, err := Execute(b, func() (int, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	_, err = Execute(b, func() (string, error) { return "", errFetch })
	assert.True(t, errors.Is(err, errFetch))
}

func TestBreakerPanicCountsAsFailure(t *testing.T) {
	b := New("test", Settings{})
	assert.Panics(t, func() {
		_ = b.Do(func() error { panic("boom") })
	})
	assert.Equal(t, uint32(1), b.Counts().TotalFailures)
}
