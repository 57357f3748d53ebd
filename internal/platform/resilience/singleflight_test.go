package resilience

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestSingleFlight_DeduplicatesConcurrentCalls(t *testing.T) {
	var flight SingleFlight
	var executions atomic.Int32

	release := make(chan struct{})
	started := make(chan struct{})

	var wg sync.WaitGroup
	results := make([]any, 10)
	shared := make([]bool, 10)

	wg.Add(1)
	go func() {
		defer wg.Done()
		val, err, _ := flight.Do("profile:user-1", func() (any, error) {
			executions.Add(1)
			close(started)
			<-release
			return "loaded", nil
		})
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		results[0] = val
	}()

	<-started
	for i := 1; i < 10; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			val, err, wasShared := flight.Do("profile:user-1", func() (any, error) {
				executions.Add(1)
				return "loaded", nil
			})
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			results[i] = val
			shared[i] = wasShared
		}()
	}
	close(release)
	wg.Wait()

	if got := executions.Load(); got != 1 {
		t.Fatalf("expected exactly one execution, got %d", got)
	}
	for i, val := range results {
		if val != "loaded" {
			t.Fatalf("result %d: expected loaded, got %v", i, val)
		}
	}
}

func TestSingleFlight_DistinctKeysRunIndependently(t *testing.T) {
	var flight SingleFlight
	var executions atomic.Int32

	for _, key := range []string{"a", "b", "c"} {
		_, err, sharedResult := flight.Do(key, func() (any, error) {
			executions.Add(1)
			return key, nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sharedResult {
			t.Fatalf("sequential call for key %q should not be shared", key)
		}
	}

	if got := executions.Load(); got != 3 {
		t.Fatalf("expected 3 executions, got %d", got)
	}
}
