package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), "flaky", RetryConfig{
		MaxAttempts:  5,
		InitialDelay: time.Millisecond,
	}, func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestRetryExhaustsAttempts(t *testing.T) {
	sentinel := errors.New("permanent")
	attempts := 0
	err := Retry(context.Background(), "doomed", RetryConfig{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
	}, func() error {
		attempts++
		return sentinel
	})
	if err == nil {
		t.Fatal("Retry returned nil, want error")
	}
	if !errors.Is(err, sentinel) {
		t.Errorf("error %v does not wrap the last failure", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestRetryRespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	attempts := 0
	err := Retry(ctx, "cancelled", RetryConfig{
		MaxAttempts:  10,
		InitialDelay: time.Millisecond,
	}, func() error {
		attempts++
		return errors.New("fail")
	})
	if err == nil {
		t.Fatal("Retry returned nil on cancelled context")
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 (no retries after cancellation)", attempts)
	}
}

func TestCircuitBreakerTripsAndRecovers(t *testing.T) {
	cb := NewCircuitBreaker("test", 2, 20*time.Millisecond)
	boom := errors.New("boom")

	for i := 0; i < 2; i++ {
		if err := cb.Execute(func() error { return boom }); !errors.Is(err, boom) {
			t.Fatalf("call %d: err = %v, want boom", i, err)
		}
	}
	if cb.State() != BreakerOpen {
		t.Fatalf("state = %v, want open after %d failures", cb.State(), 2)
	}
	if err := cb.Execute(func() error { return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("err = %v, want ErrCircuitOpen while open", err)
	}

	time.Sleep(25 * time.Millisecond)
	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Fatalf("probe after cooldown: %v", err)
	}
	if cb.State() != BreakerClosed {
		t.Errorf("state = %v, want closed after successful probe", cb.State())
	}
}

func TestCircuitBreakerReopensOnFailedProbe(t *testing.T) {
	cb := NewCircuitBreaker("test", 1, 10*time.Millisecond)
	boom := errors.New("boom")

	cb.Execute(func() error { return boom })
	if cb.State() != BreakerOpen {
		t.Fatalf("state = %v, want open", cb.State())
	}

	time.Sleep(15 * time.Millisecond)
	cb.Execute(func() error { return boom })
	if cb.State() != BreakerOpen {
		t.Errorf("state = %v, want open again after failed probe", cb.State())
	}
}
