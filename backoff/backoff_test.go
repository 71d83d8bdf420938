package backoff_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/conductor/backoff"
)

func TestConstant(t *testing.T) {
	s := backoff.Constant(5 * time.Millisecond)
	for retry := 1; retry <= 5; retry++ {
		if got := s.Delay(retry); got != 5*time.Millisecond {
			t.Errorf("Delay(%d) = %v, want 5ms", retry, got)
		}
	}
}

func TestLinearAndExponential(t *testing.T) {
	tests := []struct {
		name  string
		s     backoff.Strategy
		retry int
		want  time.Duration
	}{
		{"linear 1", backoff.Linear(time.Second, time.Minute), 1, time.Second},
		{"linear 4", backoff.Linear(time.Second, time.Minute), 4, 4 * time.Second},
		{"linear capped", backoff.Linear(time.Second, 5*time.Second), 10, 5 * time.Second},
		{"linear uncapped", backoff.Linear(time.Second, 0), 100, 100 * time.Second},
		{"exp 1", backoff.Exponential(time.Second, time.Minute), 1, time.Second},
		{"exp 3", backoff.Exponential(time.Second, time.Minute), 3, 4 * time.Second},
		{"exp capped", backoff.Exponential(time.Second, 10*time.Second), 8, 10 * time.Second},
		{"exp huge", backoff.Exponential(time.Second, time.Hour), 200, time.Hour},
		{"exp zero retry", backoff.Exponential(time.Second, 0), 0, time.Second},
	}
	for _, tt := range tests {
		if got := tt.s.Delay(tt.retry); got != tt.want {
			t.Errorf("%s: Delay(%d) = %v, want %v", tt.name, tt.retry, got, tt.want)
		}
	}
}

func TestFullJitter_Bounds(t *testing.T) {
	s := backoff.FullJitter(backoff.Exponential(10*time.Millisecond, time.Second))
	for i := 0; i < 200; i++ {
		d := s.Delay(3)
		if d < 0 || d >= 40*time.Millisecond {
			t.Fatalf("Delay(3) = %v, want in [0, 40ms)", d)
		}
	}
	if got := backoff.FullJitter(backoff.Constant(0)).Delay(1); got != 0 {
		t.Fatalf("jitter of zero = %v", got)
	}
}

func TestDefault_Capped(t *testing.T) {
	s := backoff.Default()
	for retry := 1; retry < 50; retry++ {
		if d := s.Delay(retry); d >= 10*time.Second {
			t.Fatalf("Delay(%d) = %v exceeds cap", retry, d)
		}
	}
}

func TestWait(t *testing.T) {
	ctx := context.Background()
	start := time.Now()
	if err := backoff.Wait(ctx, backoff.Constant(15*time.Millisecond), 1); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 15*time.Millisecond {
		t.Fatalf("Wait returned after %v", elapsed)
	}

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	if err := backoff.Wait(cctx, backoff.Constant(time.Hour), 1); !errors.Is(err, context.Canceled) {
		t.Fatalf("Wait on cancelled ctx = %v", err)
	}
}
