package check

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"gatecheck/internal/batch"
	"gatecheck/internal/challenge"
	"gatecheck/internal/logging"
	"gatecheck/internal/reconcile"
	"gatecheck/internal/status"
	"gatecheck/internal/terminal"
)

// Mode selects how sources are visited.
type Mode string

const (
	// ModeSequential visits sources in priority order with a shrinking
	// worklist: a container resolved by an earlier source is never sent to a
	// later one.
	ModeSequential Mode = "sequential"
	// ModeParallel queries every source concurrently with the full worklist
	// and merges results in completion order, so the last source to finish
	// wins ties.
	ModeParallel Mode = "parallel"
)

// ErrNoContainers reports an empty worklist after normalization. This is the
// only error Run returns; everything else degrades into sentinel records.
var ErrNoContainers = errors.New("no container numbers to check")

// SourceSummary describes one source's contribution to a run.
type SourceSummary struct {
	Name        string
	Duration    time.Duration
	Queried     int
	Found       int
	Absent      int
	Unattempted int
	Err         string
}

// Report is the outcome of one check run. Results is total over the
// normalized input set.
type Report struct {
	RunID      string
	Mode       Mode
	StartedAt  time.Time
	FinishedAt time.Time
	Numbers    []string
	Results    map[string]status.Record
	Sources    []SourceSummary
}

// Runner owns the configured sources for the duration of one run, including
// closing each source's session on every exit path.
type Runner struct {
	sources []terminal.Source
	logger  *slog.Logger
}

// NewRunner builds a runner over the given sources. Source order is the
// priority order sequential mode honors.
func NewRunner(logger *slog.Logger, sources ...terminal.Source) *Runner {
	return &Runner{
		sources: sources,
		logger:  logging.WithComponent(logger, "checker"),
	}
}

// Run checks every number against the sources and returns a report whose
// Results mapping is total over the normalized input set.
func (r *Runner) Run(ctx context.Context, numbers []string, mode Mode) (*Report, error) {
	normalized := status.NormalizeNumbers(numbers)
	if len(normalized) == 0 {
		return nil, ErrNoContainers
	}

	report := &Report{
		RunID:     uuid.NewString(),
		Mode:      mode,
		StartedAt: time.Now(),
		Numbers:   normalized,
		Results:   make(map[string]status.Record, len(normalized)),
	}
	ctx = logging.WithRunID(ctx, report.RunID)

	logger := logging.WithContext(ctx, r.logger)
	logger.Info("check run started",
		logging.Int("containers", len(normalized)),
		logging.String("mode", string(mode)),
		logging.Int("sources", len(r.sources)))

	if mode == ModeParallel {
		report.Sources = r.runParallel(ctx, normalized, report.Results)
	} else {
		report.Sources = r.runSequential(ctx, normalized, report.Results)
	}

	// The mapping must be total even if every source failed outright.
	for _, number := range normalized {
		if _, ok := report.Results[number]; !ok {
			report.Results[number] = status.NotFound(number)
		}
	}

	report.FinishedAt = time.Now()
	logger.Info("check run finished",
		logging.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)))
	return report, nil
}

func (r *Runner) runSequential(ctx context.Context, numbers []string, final map[string]status.Record) []SourceSummary {
	summaries := make([]SourceSummary, 0, len(r.sources))
	remaining := numbers

	for i, src := range r.sources {
		if len(remaining) == 0 {
			logging.WithContext(ctx, r.logger).Info("all containers resolved, skipping remaining sources")
			r.closeSkipped(ctx, r.sources[i:])
			break
		}
		summary, records := r.querySource(ctx, src, remaining)
		resolved := reconcile.Merge(final, records, remaining)
		summaries = append(summaries, summary)
		remaining = reconcile.Remaining(remaining, resolved)
	}
	return summaries
}

// closeSkipped releases sessions owned by sources the short-circuit never
// reached.
func (r *Runner) closeSkipped(ctx context.Context, sources []terminal.Source) {
	for _, src := range sources {
		if err := src.Close(); err != nil {
			logging.WithContext(ctx, r.logger).Warn("session close failed",
				logging.String("source", src.Name()), logging.Error(err))
		}
	}
}

func (r *Runner) runParallel(ctx context.Context, numbers []string, final map[string]status.Record) []SourceSummary {
	type output struct {
		summary SourceSummary
		records []status.Record
	}

	results := make(chan output, len(r.sources))
	for _, src := range r.sources {
		go func(src terminal.Source) {
			summary, records := r.querySource(ctx, src, numbers)
			results <- output{summary: summary, records: records}
		}(src)
	}

	// Merges are applied here, single-threaded, in completion order; that
	// serialization is what makes the last-writer-wins tie-break
	// deterministic for a given completion order.
	summaries := make([]SourceSummary, 0, len(r.sources))
	for range r.sources {
		out := <-results
		reconcile.Merge(final, out.records, numbers)
		summaries = append(summaries, out.summary)
	}
	return summaries
}

// querySource runs one source to completion: login when required, per-batch
// querying with challenge handling, and session release on every exit path.
// Failures never propagate; they degrade into sentinel records.
func (r *Runner) querySource(ctx context.Context, src terminal.Source, numbers []string) (SourceSummary, []status.Record) {
	logger := logging.WithContext(ctx, r.logger).With(logging.String("source", src.Name()))
	summary := SourceSummary{Name: src.Name(), Queried: len(numbers)}
	start := time.Now()

	defer func() {
		if err := src.Close(); err != nil {
			logger.Warn("session close failed", logging.Error(err))
		}
	}()

	records := r.query(ctx, src, numbers, logger, &summary)

	summary.Duration = time.Since(start)
	for _, outcome := range reconcile.Classify(numbers, records) {
		switch outcome {
		case reconcile.OutcomeFound:
			summary.Found++
		case reconcile.OutcomeConfirmedAbsent:
			summary.Absent++
		default:
			summary.Unattempted++
		}
	}
	logger.Info("source complete",
		logging.Int("found", summary.Found),
		logging.Int("absent", summary.Absent),
		logging.Int("unattempted", summary.Unattempted),
		logging.Duration("elapsed", summary.Duration))
	return summary, records
}

func (r *Runner) query(ctx context.Context, src terminal.Source, numbers []string, logger *slog.Logger, summary *SourceSummary) []status.Record {
	if ls, ok := src.(terminal.LoginSource); ok {
		authenticated, err := ls.Login(ctx)
		if err != nil {
			summary.Err = err.Error()
			logger.Error("login failed", logging.Error(err))
			return loginFailedAll(numbers)
		}
		if !authenticated {
			summary.Err = terminal.ErrAuthentication.Error()
			logger.Error("login rejected")
			return loginFailedAll(numbers)
		}
	}

	var records []status.Record
	batches := batch.Plan(numbers, src.MaxBatchSize())
	for i, b := range batches {
		logger.Info("querying batch",
			logging.Int("batch", i+1),
			logging.Int("batches", len(batches)),
			logging.Int("containers", len(b)))

		batchRecords, err := src.QueryBatch(ctx, b)
		if err == nil {
			records = append(records, batchRecords...)
			continue
		}

		if errors.Is(err, challenge.ErrTimeout) {
			// Only the in-flight batch fails; later batches are still
			// attempted with a fresh page load.
			logger.Error("challenge timed out, batch marked not found", logging.Error(err))
			if summary.Err == "" {
				summary.Err = err.Error()
			}
			records = append(records, notFoundAll(b)...)
			continue
		}

		logger.Error("source unavailable, remaining batches marked not found", logging.Error(err))
		if summary.Err == "" {
			summary.Err = err.Error()
		}
		for _, rest := range batches[i:] {
			records = append(records, notFoundAll(rest)...)
		}
		break
	}
	return records
}

func notFoundAll(numbers []string) []status.Record {
	records := make([]status.Record, 0, len(numbers))
	for _, number := range numbers {
		records = append(records, status.NotFound(number))
	}
	return records
}

func loginFailedAll(numbers []string) []status.Record {
	records := make([]status.Record, 0, len(numbers))
	for _, number := range numbers {
		records = append(records, status.LoginFailed(number))
	}
	return records
}
