package check_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gatecheck/internal/challenge"
	"gatecheck/internal/check"
	"gatecheck/internal/status"
	"gatecheck/internal/terminal"
)

// stubSource is a scriptable terminal source.
type stubSource struct {
	mu          sync.Mutex
	name        string
	maxBatch    int
	queried     [][]string
	closed      int
	delay       time.Duration
	respond     func(numbers []string) ([]status.Record, error)
	loginResult *bool // nil means the login always succeeds
	loginErr    error
	loginCalled int
}

func (s *stubSource) Name() string      { return s.name }
func (s *stubSource) MaxBatchSize() int { return s.maxBatch }

func (s *stubSource) QueryBatch(_ context.Context, numbers []string) ([]status.Record, error) {
	s.mu.Lock()
	s.queried = append(s.queried, append([]string{}, numbers...))
	s.mu.Unlock()
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.respond == nil {
		return nil, nil
	}
	return s.respond(numbers)
}

func (s *stubSource) ChallengePresent(context.Context) (bool, error) { return false, nil }

func (s *stubSource) Close() error {
	s.mu.Lock()
	s.closed++
	s.mu.Unlock()
	return nil
}

func (s *stubSource) allQueried() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, batch := range s.queried {
		out = append(out, batch...)
	}
	return out
}

// loginStub wraps stubSource with the LoginSource extension.
type loginStub struct {
	*stubSource
}

func (s *loginStub) Login(context.Context) (bool, error) {
	s.mu.Lock()
	s.loginCalled++
	s.mu.Unlock()
	if s.loginErr != nil {
		return false, s.loginErr
	}
	if s.loginResult != nil {
		return *s.loginResult, nil
	}
	return true, nil
}

func found(terminalName string, numbers ...string) func([]string) ([]status.Record, error) {
	return func(queried []string) ([]status.Record, error) {
		want := make(map[string]struct{}, len(numbers))
		for _, n := range numbers {
			want[n] = struct{}{}
		}
		var records []status.Record
		for _, n := range queried {
			if _, ok := want[n]; ok {
				records = append(records, status.Record{ContainerNumber: n, Terminal: terminalName})
			} else {
				records = append(records, status.NotFound(n))
			}
		}
		return records, nil
	}
}

func TestSequentialShortCircuit(t *testing.T) {
	// The worked example: source A resolves ABC1234567, so source B sees
	// only XYZ9999999 and reports it missing.
	sourceA := &stubSource{name: "A", respond: found("A", "ABC1234567")}
	sourceB := &stubSource{name: "B", respond: found("B")}

	runner := check.NewRunner(nil, sourceA, sourceB)
	report, err := runner.Run(context.Background(), []string{"ABC1234567", "xyz9999999 "}, check.ModeSequential)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if got := sourceB.allQueried(); len(got) != 1 || got[0] != "XYZ9999999" {
		t.Fatalf("source B queried %v, want only XYZ9999999", got)
	}
	if report.Results["ABC1234567"].Terminal != "A" {
		t.Fatalf("ABC1234567 = %+v", report.Results["ABC1234567"])
	}
	if report.Results["XYZ9999999"].Terminal != status.TerminalNotFound {
		t.Fatalf("XYZ9999999 = %+v", report.Results["XYZ9999999"])
	}
	if sourceA.closed != 1 || sourceB.closed != 1 {
		t.Fatalf("sessions not closed exactly once: A=%d B=%d", sourceA.closed, sourceB.closed)
	}
}

func TestSequentialStopsWhenWorklistEmpty(t *testing.T) {
	sourceA := &stubSource{name: "A", respond: found("A", "ABC1234567")}
	sourceB := &stubSource{name: "B", respond: found("B")}

	runner := check.NewRunner(nil, sourceA, sourceB)
	if _, err := runner.Run(context.Background(), []string{"ABC1234567"}, check.ModeSequential); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(sourceB.queried) != 0 {
		t.Fatalf("source B should never be queried, got %v", sourceB.queried)
	}
	if sourceB.closed != 1 {
		t.Fatalf("skipped source still owns a session to release, closed=%d", sourceB.closed)
	}
}

func TestParallelFullWorklistAndLastWriterWins(t *testing.T) {
	// Both sources resolve the same container; the slower source finishes
	// last and must win.
	fast := &stubSource{name: "Fast", respond: found("Fast", "ABC1234567")}
	slow := &stubSource{name: "Slow", delay: 30 * time.Millisecond, respond: found("Slow", "ABC1234567")}

	runner := check.NewRunner(nil, fast, slow)
	report, err := runner.Run(context.Background(), []string{"ABC1234567", "XYZ9999999"}, check.ModeParallel)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for _, src := range []*stubSource{fast, slow} {
		if got := src.allQueried(); len(got) != 2 {
			t.Fatalf("source %s queried %v, want the full worklist", src.name, got)
		}
	}
	if report.Results["ABC1234567"].Terminal != "Slow" {
		t.Fatalf("last-finishing source should win, got %+v", report.Results["ABC1234567"])
	}
}

func TestParallelNotFoundNeverOverwrites(t *testing.T) {
	resolver := &stubSource{name: "Resolver", respond: found("Resolver", "ABC1234567")}
	denier := &stubSource{name: "Denier", delay: 30 * time.Millisecond, respond: found("Denier")}

	runner := check.NewRunner(nil, resolver, denier)
	report, err := runner.Run(context.Background(), []string{"ABC1234567"}, check.ModeParallel)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Results["ABC1234567"].Terminal != "Resolver" {
		t.Fatalf("late not-found must not displace substantive record: %+v", report.Results["ABC1234567"])
	}
}

func TestLoginFailureSynthesizesRecords(t *testing.T) {
	rejected := false
	gated := &loginStub{stubSource: &stubSource{name: "Gated", loginResult: &rejected}}

	runner := check.NewRunner(nil, gated)
	report, err := runner.Run(context.Background(), []string{"ABC1234567"}, check.ModeSequential)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if gated.loginCalled != 1 {
		t.Fatalf("login called %d times", gated.loginCalled)
	}
	if len(gated.queried) != 0 {
		t.Fatal("QueryBatch must not run after a rejected login")
	}
	if report.Results["ABC1234567"].Terminal != status.TerminalLoginFailed {
		t.Fatalf("expected LOGIN FAILED record, got %+v", report.Results["ABC1234567"])
	}
}

func TestLoginFailureDoesNotStopOtherSources(t *testing.T) {
	rejected := false
	gated := &loginStub{stubSource: &stubSource{name: "Gated", loginResult: &rejected}}
	open := &stubSource{name: "Open", respond: found("Open", "ABC1234567")}

	runner := check.NewRunner(nil, gated, open)
	report, err := runner.Run(context.Background(), []string{"ABC1234567"}, check.ModeSequential)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Results["ABC1234567"].Terminal != "Open" {
		t.Fatalf("substantive record should displace LOGIN FAILED: %+v", report.Results["ABC1234567"])
	}
}

func TestChallengeTimeoutFailsOnlyInFlightBatch(t *testing.T) {
	var batchIndex int
	source := &stubSource{name: "Trapac", maxBatch: 2}
	source.respond = func(numbers []string) ([]status.Record, error) {
		batchIndex++
		if batchIndex == 1 {
			return nil, challenge.ErrTimeout
		}
		return found("Trapac", numbers...)(numbers)
	}

	runner := check.NewRunner(nil, source)
	report, err := runner.Run(context.Background(),
		[]string{"AAAU1111111", "BBBU2222222", "CCCU3333333"}, check.ModeSequential)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(source.queried) != 2 {
		t.Fatalf("later batches must still run, queried %v", source.queried)
	}
	if report.Results["AAAU1111111"].Terminal != status.TerminalNotFound {
		t.Fatalf("timed-out batch should be NOT FOUND: %+v", report.Results["AAAU1111111"])
	}
	if report.Results["CCCU3333333"].Terminal != "Trapac" {
		t.Fatalf("second batch should succeed: %+v", report.Results["CCCU3333333"])
	}
}

func TestSourceUnavailableAbandonsRemainingBatches(t *testing.T) {
	source := &stubSource{name: "Flaky", maxBatch: 1}
	source.respond = func([]string) ([]status.Record, error) {
		return nil, terminal.Wrap(terminal.ErrUnavailable, "Flaky", "navigate", "", errors.New("connection refused"))
	}

	runner := check.NewRunner(nil, source)
	report, err := runner.Run(context.Background(), []string{"AAAU1111111", "BBBU2222222"}, check.ModeSequential)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(source.queried) != 1 {
		t.Fatalf("expected a single attempted batch, got %v", source.queried)
	}
	for _, number := range report.Numbers {
		if report.Results[number].Terminal != status.TerminalNotFound {
			t.Fatalf("%s should be NOT FOUND, got %+v", number, report.Results[number])
		}
	}
	if report.Sources[0].Err == "" {
		t.Fatal("source summary should record the failure")
	}
}

func TestTotalityAcrossModes(t *testing.T) {
	for _, mode := range []check.Mode{check.ModeSequential, check.ModeParallel} {
		t.Run(string(mode), func(t *testing.T) {
			silent := &stubSource{name: "Silent"} // returns no records at all
			runner := check.NewRunner(nil, silent)

			report, err := runner.Run(context.Background(), []string{"AAAU1111111", "bbbu2222222"}, mode)
			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			if len(report.Results) != 2 {
				t.Fatalf("mapping not total: %v", report.Results)
			}
			for _, number := range []string{"AAAU1111111", "BBBU2222222"} {
				if report.Results[number].Terminal != status.TerminalNotFound {
					t.Fatalf("%s = %+v", number, report.Results[number])
				}
			}
		})
	}
}

func TestRunRejectsEmptyInput(t *testing.T) {
	runner := check.NewRunner(nil)
	if _, err := runner.Run(context.Background(), []string{" ", ""}, check.ModeSequential); !errors.Is(err, check.ErrNoContainers) {
		t.Fatalf("expected ErrNoContainers, got %v", err)
	}
}

func TestSourceSummaryOutcomeCounts(t *testing.T) {
	source := &stubSource{name: "Mixed"}
	source.respond = func(numbers []string) ([]status.Record, error) {
		return []status.Record{
			{ContainerNumber: "AAAU1111111", Terminal: "Mixed"},
			status.NotFound("BBBU2222222"),
			// CCCU3333333 silently dropped
		}, nil
	}

	runner := check.NewRunner(nil, source)
	report, err := runner.Run(context.Background(),
		[]string{"AAAU1111111", "BBBU2222222", "CCCU3333333"}, check.ModeSequential)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	summary := report.Sources[0]
	if summary.Found != 1 || summary.Absent != 1 || summary.Unattempted != 1 {
		t.Fatalf("outcome counts = %+v", summary)
	}
	if report.Results["CCCU3333333"].Terminal != status.TerminalNotFound {
		t.Fatalf("silently dropped number should fall back to NOT FOUND: %+v", report.Results["CCCU3333333"])
	}
}
