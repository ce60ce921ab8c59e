package safety

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCircuitBreaker_OpensAfterFailureThreshold opens after a run of
// consecutive failures and short-circuits further calls.
func TestCircuitBreaker_OpensAfterFailureThreshold(t *testing.T) {
	cb := NewCircuitBreaker("test", CircuitBreakerConfig{
		FailureThreshold: 3,
		Timeout:          time.Hour,
	})
	fail := func() error { return errors.New("bridge down") }

	for i := 0; i < 3; i++ {
		assert.Error(t, cb.Call(fail))
	}
	assert.Equal(t, StateOpen, cb.State())

	calls := 0
	err := cb.Call(func() error { calls++; return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is open")
	assert.Zero(t, calls, "open breaker must not invoke the function")
}

// TestCircuitBreaker_SuccessResetsFailureCount keeps the breaker closed when
// failures never run consecutively.
func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker("test", CircuitBreakerConfig{FailureThreshold: 3})
	fail := func() error { return errors.New("flake") }
	ok := func() error { return nil }

	for i := 0; i < 10; i++ {
		cb.Call(fail)
		cb.Call(fail)
		cb.Call(ok)
	}

	assert.Equal(t, StateClosed, cb.State())
}

// TestCircuitBreaker_HalfOpenRecovery closes again after the cool-off once
// enough probes succeed.
func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	cb := NewCircuitBreaker("test", CircuitBreakerConfig{
		FailureThreshold: 1,
		SuccessThreshold: 2,
		Timeout:          10 * time.Millisecond,
	})

	cb.Call(func() error { return errors.New("down") })
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(20 * time.Millisecond)

	require.NoError(t, cb.Call(func() error { return nil }))
	assert.Equal(t, StateHalfOpen, cb.State())

	require.NoError(t, cb.Call(func() error { return nil }))
	assert.Equal(t, StateClosed, cb.State())
}

// TestCircuitBreaker_HalfOpenFailureReopens sends a failing probe straight
// back to open.
func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker("test", CircuitBreakerConfig{
		FailureThreshold: 1,
		Timeout:          10 * time.Millisecond,
	})

	cb.Call(func() error { return errors.New("down") })
	time.Sleep(20 * time.Millisecond)

	cb.Call(func() error { return errors.New("still down") })

	assert.Equal(t, StateOpen, cb.State())
}

// TestCircuitBreaker_StateChangeCallback reports every transition.
func TestCircuitBreaker_StateChangeCallback(t *testing.T) {
	cb := NewCircuitBreaker("test", CircuitBreakerConfig{
		FailureThreshold: 1,
		Timeout:          time.Hour,
	})
	var transitions []string
	cb.SetStateChangeCallback(func(from, to CircuitBreakerState) {
		transitions = append(transitions, from.String()+"->"+to.String())
	})

	cb.Call(func() error { return errors.New("down") })

	assert.Equal(t, []string{"CLOSED->OPEN"}, transitions)
}
