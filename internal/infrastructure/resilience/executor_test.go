package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
)

func retryable(target error) ErrorClassifier {
	return func(err error) ErrorClassification {
		return ErrorClassification{Retryable: errors.Is(err, target), RecordFailure: true}
	}
}

func TestExecuteRetriesUntilSuccess(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     2 * time.Millisecond,
	})

	attempts := 0
	errNoResponders := errors.New("no responders")
	err := exec.Execute(context.Background(), "nats.request", func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errNoResponders
		}
		return nil
	}, retryable(errNoResponders))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestProviderPolicyCallsOnce(t *testing.T) {
	exec := NewExecutor(ProviderPolicy(false))

	attempts := 0
	errOverloaded := errors.New("503")
	err := exec.Execute(context.Background(), "provider.gemini", func(context.Context) error {
		attempts++
		return errOverloaded
	}, retryable(errOverloaded))
	if !errors.Is(err, errOverloaded) {
		t.Fatalf("expected provider error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected a single provider call, got %d", attempts)
	}
}

func TestExecuteStopsRetryingOnCancel(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:    5,
		RetryInitialBackoff: time.Second,
		RetryMaxBackoff:     time.Second,
	})
	ctx, cancel := context.WithCancel(context.Background())

	attempts := 0
	errTemp := errors.New("temporary")
	err := exec.Execute(ctx, "nats.request", func(context.Context) error {
		attempts++
		cancel()
		return errTemp
	}, retryable(errTemp))
	if !errors.Is(err, errTemp) {
		t.Fatalf("expected last error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestBreakerOpensPerOperationAndNotifies(t *testing.T) {
	var mu sync.Mutex
	var changes []string
	exec := NewExecutor(Config{
		RetryMaxAttempts:        1,
		BreakerEnabled:          true,
		BreakerMinRequests:      2,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      time.Minute,
		BreakerHalfOpenMaxCalls: 1,
	}, WithStateListener(func(operation, state string) {
		mu.Lock()
		defer mu.Unlock()
		changes = append(changes, operation+"="+state)
	}))

	errDown := errors.New("down")
	for i := 0; i < 2; i++ {
		if err := exec.Execute(context.Background(), "provider.openai", func(context.Context) error {
			return errDown
		}, nil); !errors.Is(err, errDown) {
			t.Fatalf("call %d: expected errDown, got %v", i+1, err)
		}
	}

	err := exec.Execute(context.Background(), "provider.openai", func(context.Context) error {
		t.Fatalf("open breaker must not call the operation")
		return nil
	}, nil)
	if !errors.Is(err, gobreaker.ErrOpenState) || !IsCircuitOpen(err) {
		t.Fatalf("expected open state error, got %v", err)
	}

	if err := exec.Execute(context.Background(), "provider.gemini", func(context.Context) error { return nil }, nil); err != nil {
		t.Fatalf("other providers must keep their own breaker: %v", err)
	}

	states := exec.States()
	if states["provider.openai"] != "open" || states["provider.gemini"] != "closed" {
		t.Fatalf("unexpected states: %v", states)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(changes) != 1 || changes[0] != "provider.openai=open" {
		t.Fatalf("unexpected state changes: %v", changes)
	}
}

func TestBreakerIgnoresUnrecordedFailures(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:   1,
		BreakerEnabled:     true,
		BreakerMinRequests: 1,
	})
	errBadRequest := errors.New("400")
	ignore := func(error) ErrorClassification { return ErrorClassification{} }

	for i := 0; i < 3; i++ {
		_ = exec.Execute(context.Background(), "provider.ollama", func(context.Context) error {
			return errBadRequest
		}, ignore)
	}
	if state := exec.States()["provider.ollama"]; state != "closed" {
		t.Fatalf("expected closed breaker, got %s", state)
	}
}
