package challenge_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"gatecheck/internal/challenge"
)

func TestWaitResolves(t *testing.T) {
	waiter := challenge.New(nil, challenge.WithIntervals(time.Millisecond, 0, time.Second))

	var polls atomic.Int64
	err := waiter.Wait(context.Background(), func(context.Context) (bool, error) {
		return polls.Add(1) < 3, nil
	})
	if err != nil {
		t.Fatalf("Wait returned %v", err)
	}
	if got := polls.Load(); got != 3 {
		t.Fatalf("expected 3 visibility checks, got %d", got)
	}
}

func TestWaitTimesOutAtCeiling(t *testing.T) {
	ceiling := 60 * time.Millisecond
	waiter := challenge.New(nil, challenge.WithIntervals(2*time.Millisecond, 0, ceiling))

	start := time.Now()
	err := waiter.Wait(context.Background(), func(context.Context) (bool, error) {
		return true, nil
	})
	elapsed := time.Since(start)

	if !errors.Is(err, challenge.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if elapsed < ceiling {
		t.Fatalf("timed out after %s, before the %s ceiling", elapsed, ceiling)
	}
	if elapsed > 10*ceiling {
		t.Fatalf("timeout took %s, far beyond the %s ceiling", elapsed, ceiling)
	}
}

func TestWaitHeartbeat(t *testing.T) {
	var beats atomic.Int64
	waiter := challenge.New(nil,
		challenge.WithIntervals(time.Millisecond, 0, 100*time.Millisecond),
		challenge.WithHeartbeat(5*time.Millisecond, func(remaining time.Duration) {
			if remaining < 0 {
				t.Errorf("negative remaining time %s", remaining)
			}
			beats.Add(1)
		}))

	err := waiter.Wait(context.Background(), func(context.Context) (bool, error) {
		return true, nil
	})
	if !errors.Is(err, challenge.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if beats.Load() == 0 {
		t.Fatal("expected at least one heartbeat")
	}
}

func TestWaitContextCancel(t *testing.T) {
	waiter := challenge.New(nil, challenge.WithIntervals(time.Millisecond, 0, time.Minute))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := waiter.Wait(ctx, func(context.Context) (bool, error) { return true, nil })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestWaitPropagatesVisibilityError(t *testing.T) {
	waiter := challenge.New(nil, challenge.WithIntervals(time.Millisecond, 0, time.Second))

	probeErr := errors.New("session gone")
	err := waiter.Wait(context.Background(), func(context.Context) (bool, error) {
		return false, probeErr
	})
	if !errors.Is(err, probeErr) {
		t.Fatalf("expected visibility error, got %v", err)
	}
}
