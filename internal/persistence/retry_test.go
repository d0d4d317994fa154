package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hugo-lorenzo-mato/pinlog/internal/core"
)

func TestRetryPolicy_Execute_Success(t *testing.T) {
	policy := NewRetryPolicy(WithMaxAttempts(3))

	callCount := 0
	err := policy.Execute(context.Background(), func(ctx context.Context) error {
		callCount++
		return nil
	}, nil)

	if err != nil {
		t.Errorf("Execute() error = %v, want nil", err)
	}
	if callCount != 1 {
		t.Errorf("callCount = %d, want 1", callCount)
	}
}

func TestRetryPolicy_Execute_SuccessAfterRetry(t *testing.T) {
	policy := NewRetryPolicy(WithMaxAttempts(3), WithBaseDelay(time.Millisecond))

	callCount := 0
	var notified []int
	err := policy.Execute(context.Background(), func(ctx context.Context) error {
		callCount++
		if callCount < 3 {
			return core.ErrStorage("set", errors.New("connection reset"))
		}
		return nil
	}, func(attempt int, err error, delay time.Duration) {
		notified = append(notified, attempt)
	})

	if err != nil {
		t.Errorf("Execute() error = %v, want nil", err)
	}
	if callCount != 3 {
		t.Errorf("callCount = %d, want 3", callCount)
	}
	if len(notified) != 2 || notified[0] != 1 || notified[1] != 2 {
		t.Errorf("notified = %v, want [1 2]", notified)
	}
}

func TestRetryPolicy_Execute_NonRetryable(t *testing.T) {
	policy := NewRetryPolicy(WithMaxAttempts(3))

	callCount := 0
	err := policy.Execute(context.Background(), func(ctx context.Context) error {
		callCount++
		return core.ErrCorruptData("bad snapshot")
	}, nil)

	if !core.IsCorruptData(err) {
		t.Errorf("Execute() error = %v, want corrupt data", err)
	}
	if callCount != 1 {
		t.Errorf("callCount = %d, want 1 (should not retry non-retryable errors)", callCount)
	}
}

func TestRetryPolicy_Execute_Exhausted(t *testing.T) {
	policy := NewRetryPolicy(WithMaxAttempts(3), WithBaseDelay(time.Millisecond))

	callCount := 0
	err := policy.Execute(context.Background(), func(ctx context.Context) error {
		callCount++
		return core.ErrStorage("get", errors.New("timeout"))
	}, nil)

	if callCount != 3 {
		t.Errorf("callCount = %d, want 3", callCount)
	}
	var exhausted *RetryExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("error should be RetryExhaustedError, got %v", err)
	}
	if exhausted.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", exhausted.Attempts)
	}
	if !IsRetryExhausted(err) {
		t.Error("IsRetryExhausted() = false")
	}
	if core.GetCategory(err) != core.ErrCatStorage {
		t.Errorf("category = %s, want storage", core.GetCategory(err))
	}
}

func TestRetryPolicy_Execute_ContextCanceled(t *testing.T) {
	policy := NewRetryPolicy(WithMaxAttempts(5), WithBaseDelay(time.Hour), WithMaxDelay(time.Hour))
	ctx, cancel := context.WithCancel(context.Background())

	callCount := 0
	err := policy.Execute(ctx, func(ctx context.Context) error {
		callCount++
		cancel()
		return core.ErrStorage("get", errors.New("timeout"))
	}, nil)

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Execute() error = %v, want context.Canceled", err)
	}
	if callCount != 1 {
		t.Errorf("callCount = %d, want 1", callCount)
	}
}

func TestRetryPolicy_CalculateDelay(t *testing.T) {
	policy := NewRetryPolicy(
		WithBaseDelay(100*time.Millisecond),
		WithMaxDelay(time.Second),
		WithMultiplier(2.0),
		WithJitter(0),
	)

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, time.Second},
		{10, time.Second},
	}
	for _, tt := range tests {
		if got := policy.CalculateDelay(tt.attempt); got != tt.want {
			t.Errorf("CalculateDelay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestRetryPolicy_JitterStaysInBounds(t *testing.T) {
	policy := NewRetryPolicy(WithBaseDelay(100*time.Millisecond), WithJitter(0.2))
	for i := 0; i < 100; i++ {
		d := policy.CalculateDelay(1)
		if d < 80*time.Millisecond || d > 120*time.Millisecond {
			t.Fatalf("CalculateDelay(1) = %v, outside jitter bounds", d)
		}
	}
}

func TestNewRetryPolicy_AtLeastOneAttempt(t *testing.T) {
	if got := NewRetryPolicy(WithMaxAttempts(0)).MaxAttempts; got != 1 {
		t.Errorf("MaxAttempts = %d, want 1", got)
	}
}
