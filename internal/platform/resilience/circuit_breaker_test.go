package resilience

import (
	"errors"
	"testing"
	"time"
)

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	breaker := NewCircuitBreaker(3, time.Minute, 1)

	for i := 0; i < 3; i++ {
		if err := breaker.Allow(); err != nil {
			t.Fatalf("call %d: expected closed breaker, got %v", i, err)
		}
		breaker.RecordFailure()
	}

	if err := breaker.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen after threshold failures, got %v", err)
	}
	if state := breaker.State(); state != CircuitStateOpen {
		t.Fatalf("expected open state, got %s", state)
	}
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	breaker := NewCircuitBreaker(2, time.Minute, 1)

	breaker.RecordFailure()
	breaker.RecordSuccess()
	breaker.RecordFailure()

	if err := breaker.Allow(); err != nil {
		t.Fatalf("expected closed breaker after interleaved success, got %v", err)
	}
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	breaker := NewCircuitBreaker(1, 10*time.Millisecond, 1)
	current := time.Now()
	breaker.now = func() time.Time { return current }

	breaker.RecordFailure()
	if err := breaker.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected open breaker, got %v", err)
	}

	current = current.Add(20 * time.Millisecond)
	if err := breaker.Allow(); err != nil {
		t.Fatalf("expected half-open probe to be allowed, got %v", err)
	}
	breaker.RecordSuccess()

	if state := breaker.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed state after successful probe, got %s", state)
	}
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	breaker := NewCircuitBreaker(1, 10*time.Millisecond, 1)
	current := time.Now()
	breaker.now = func() time.Time { return current }

	breaker.RecordFailure()
	current = current.Add(20 * time.Millisecond)

	if err := breaker.Allow(); err != nil {
		t.Fatalf("expected half-open probe to be allowed, got %v", err)
	}
	breaker.RecordFailure()

	if err := breaker.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected reopened breaker, got %v", err)
	}
}
