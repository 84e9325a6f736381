package infra

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreakerTripsAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 3,
		SuccessThreshold: 1,
		OpenTimeout:      time.Hour,
	})
	boom := errors.New("printer down")

	for i := 0; i < 3; i++ {
		assert.Equal(t, CBClosed, cb.State())
		err := cb.Execute(func() error { return boom })
		assert.Equal(t, boom, err)
	}
	assert.Equal(t, CBOpen, cb.State())

	// Open state fast-fails without running fn.
	called := false
	err := cb.Execute(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestCircuitBreakerSuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 2, SuccessThreshold: 1, OpenTimeout: time.Hour})
	boom := errors.New("flaky")

	require.Error(t, cb.Execute(func() error { return boom }))
	require.NoError(t, cb.Execute(func() error { return nil }))
	require.Error(t, cb.Execute(func() error { return boom }))
	// One failure, one success, one failure: never two consecutive.
	assert.Equal(t, CBClosed, cb.State())
}

func TestCircuitBreakerRecoversThroughHalfOpen(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		SuccessThreshold: 2,
		OpenTimeout:      10 * time.Millisecond,
	})

	require.Error(t, cb.Execute(func() error { return errors.New("down") }))
	assert.Equal(t, CBOpen, cb.State())

	time.Sleep(15 * time.Millisecond)
	assert.Equal(t, CBHalfOpen, cb.State())

	// Two probe successes close the breaker.
	require.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, CBHalfOpen, cb.State())
	require.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, CBClosed, cb.State())
}

func TestCircuitBreakerFailedProbeReopens(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		SuccessThreshold: 1,
		OpenTimeout:      10 * time.Millisecond,
	})

	require.Error(t, cb.Execute(func() error { return errors.New("down") }))
	time.Sleep(15 * time.Millisecond)
	assert.Equal(t, CBHalfOpen, cb.State())

	require.Error(t, cb.Execute(func() error { return errors.New("still down") }))
	assert.Equal(t, CBOpen, cb.State())
}
