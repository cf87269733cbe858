// Package challenge provides the bounded wait used while a terminal website
// shows an interactive verification challenge that a human must solve.
package challenge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gatecheck/internal/logging"
	"gatecheck/internal/poll"
)

// ErrTimeout reports that the challenge was not cleared within the ceiling.
var ErrTimeout = errors.New("challenge wait timeout")

const (
	DefaultPollInterval   = time.Second
	DefaultSettleDelay    = 2 * time.Second
	DefaultCeiling        = 5 * time.Minute
	DefaultHeartbeatEvery = 30 * time.Second
)

// Waiter polls a visibility predicate until the challenge clears or the
// ceiling elapses. Construct with New; the zero value is unusable.
type Waiter struct {
	pollInterval   time.Duration
	settleDelay    time.Duration
	ceiling        time.Duration
	heartbeatEvery time.Duration
	logger         *slog.Logger

	// onHeartbeat receives the remaining wait time on each heartbeat.
	// Advisory only; never affects the wait outcome.
	onHeartbeat func(remaining time.Duration)
}

// Option customizes a Waiter.
type Option func(*Waiter)

// WithIntervals overrides the poll interval, settle delay, and ceiling.
// Non-positive poll and ceiling values keep the defaults.
func WithIntervals(pollInterval, settle, ceiling time.Duration) Option {
	return func(w *Waiter) {
		if pollInterval > 0 {
			w.pollInterval = pollInterval
		}
		if settle >= 0 {
			w.settleDelay = settle
		}
		if ceiling > 0 {
			w.ceiling = ceiling
		}
	}
}

// WithHeartbeat overrides the heartbeat cadence and installs an observer.
func WithHeartbeat(every time.Duration, fn func(remaining time.Duration)) Option {
	return func(w *Waiter) {
		if every > 0 {
			w.heartbeatEvery = every
		}
		w.onHeartbeat = fn
	}
}

// New constructs a Waiter with default intervals. A nil logger is replaced
// with a no-op logger.
func New(logger *slog.Logger, opts ...Option) *Waiter {
	if logger == nil {
		logger = logging.NewNop()
	}
	w := &Waiter{
		pollInterval:   DefaultPollInterval,
		settleDelay:    DefaultSettleDelay,
		ceiling:        DefaultCeiling,
		heartbeatEvery: DefaultHeartbeatEvery,
		logger:         logger,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Wait blocks until visible reports false, the ceiling elapses, or the
// context is cancelled. Once the challenge clears, Wait sleeps for the settle
// delay before returning so the page can stabilize. A ceiling breach returns
// an error wrapping ErrTimeout.
func (w *Waiter) Wait(ctx context.Context, visible func(context.Context) (bool, error)) error {
	w.logger.Warn("interactive challenge detected, waiting for manual resolution",
		logging.Duration("ceiling", w.ceiling))

	deadline := time.Now().Add(w.ceiling)
	lastHeartbeat := time.Now()

	err := poll.Until(ctx, poll.Options{Interval: w.pollInterval, Ceiling: w.ceiling},
		func(ctx context.Context) (bool, error) {
			present, err := visible(ctx)
			if err != nil {
				return false, fmt.Errorf("challenge visibility check: %w", err)
			}
			if !present {
				return true, nil
			}
			if time.Since(lastHeartbeat) >= w.heartbeatEvery {
				lastHeartbeat = time.Now()
				remaining := time.Until(deadline)
				if remaining < 0 {
					remaining = 0
				}
				w.logger.Info("still waiting for challenge resolution",
					logging.Duration("remaining", remaining))
				if w.onHeartbeat != nil {
					w.onHeartbeat(remaining)
				}
			}
			return false, nil
		})
	if errors.Is(err, poll.ErrCeiling) {
		return fmt.Errorf("%w after %s", ErrTimeout, w.ceiling)
	}
	if err != nil {
		return err
	}
	return w.settle(ctx)
}

func (w *Waiter) settle(ctx context.Context) error {
	w.logger.Info("challenge resolved", logging.Duration("settle_delay", w.settleDelay))
	if w.settleDelay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(w.settleDelay):
		return nil
	}
}
