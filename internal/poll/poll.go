// Package poll provides the bounded polling loop shared by the challenge
// waiter and page-element waits. One abstraction replaces the per-call-site
// sleep-and-check arithmetic that tends to accumulate around browser
// automation.
package poll

import (
	"context"
	"errors"
	"time"
)

// ErrCeiling reports that the condition did not hold before the ceiling.
var ErrCeiling = errors.New("poll ceiling exceeded")

// Options bound a polling loop.
type Options struct {
	Interval time.Duration
	Ceiling  time.Duration
}

// Until invokes done at the configured interval until it returns true, the
// ceiling elapses, the context is cancelled, or the predicate fails. The
// predicate runs once immediately before any waiting.
func Until(ctx context.Context, opts Options, done func(context.Context) (bool, error)) error {
	interval := opts.Interval
	if interval <= 0 {
		interval = time.Second
	}
	ceiling := opts.Ceiling
	if ceiling <= 0 {
		ceiling = time.Minute
	}

	timeout := time.NewTimer(ceiling)
	defer timeout.Stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		ok, err := done(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timeout.C:
			return ErrCeiling
		case <-ticker.C:
		}
	}
}
