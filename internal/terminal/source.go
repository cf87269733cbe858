package terminal

import (
	"context"

	"gatecheck/internal/status"
)

// Source is the capability one terminal backend presents to the checker.
// Each source owns exactly one underlying browser session for the duration of
// its queries; Close must be called on every exit path.
type Source interface {
	// Name identifies the terminal in records, logs, and reports.
	Name() string

	// MaxBatchSize is the largest number of containers one query may carry.
	// Zero means unlimited.
	MaxBatchSize() int

	// QueryBatch looks up a batch of normalized container numbers and
	// returns the records the terminal reported. Numbers the terminal
	// silently dropped are absent from the result; the reconciler treats
	// them as not-found.
	QueryBatch(ctx context.Context, numbers []string) ([]status.Record, error)

	// ChallengePresent reports whether an interactive verification
	// challenge is currently visible. Used only by the challenge waiter.
	ChallengePresent(ctx context.Context) (bool, error)

	// Close releases the underlying session resource.
	Close() error
}

// LoginSource is implemented by sources that require authentication before
// the first query. A false return without error means the credentials were
// rejected.
type LoginSource interface {
	Source
	Login(ctx context.Context) (bool, error)
}
