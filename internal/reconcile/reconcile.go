// Package reconcile merges per-terminal result sets into one authoritative
// record per container number.
package reconcile

import "gatecheck/internal/status"

// Outcome classifies what a single source determined for one queried number.
type Outcome int

const (
	// OutcomeFound means the source returned a substantive record.
	OutcomeFound Outcome = iota
	// OutcomeConfirmedAbsent means the source explicitly reported the number
	// as unknown (or unqueryable after a login failure).
	OutcomeConfirmedAbsent
	// OutcomeUnattempted means the source silently dropped the number: it was
	// queried but produced no record at all.
	OutcomeUnattempted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFound:
		return "found"
	case OutcomeConfirmedAbsent:
		return "confirmed-absent"
	default:
		return "unattempted"
	}
}

// Classify maps every queried number to the outcome this source produced for
// it. Results for numbers outside the queried set are classified too, so the
// caller sees everything the source volunteered.
func Classify(queried []string, results []status.Record) map[string]Outcome {
	outcomes := make(map[string]Outcome, len(queried))
	for _, number := range queried {
		outcomes[number] = OutcomeUnattempted
	}
	for _, record := range results {
		if record.Found() {
			outcomes[record.ContainerNumber] = OutcomeFound
			continue
		}
		// An explicit sentinel never demotes a substantive result from the
		// same source (duplicate rows happen on multi-page tables).
		if outcomes[record.ContainerNumber] != OutcomeFound {
			outcomes[record.ContainerNumber] = OutcomeConfirmedAbsent
		}
	}
	return outcomes
}

// Merge folds one source's results into the final mapping and returns the set
// of numbers that source resolved substantively.
//
// Substantive records overwrite unconditionally: when merges are applied in
// completion order, the last source to answer wins ties. Sentinel records are
// provisional and only fill gaps; they never replace an existing entry, even
// another sentinel. Queried numbers the source produced no record for behave
// exactly like an explicit not-found, so the fallback fill still runs for
// them. Container numbers must already be normalized.
func Merge(final map[string]status.Record, results []status.Record, queried []string) map[string]struct{} {
	resolved := make(map[string]struct{})

	for _, record := range results {
		if record.ContainerNumber == "" {
			continue
		}
		if record.Found() {
			final[record.ContainerNumber] = record
			resolved[record.ContainerNumber] = struct{}{}
			continue
		}
		if _, exists := final[record.ContainerNumber]; !exists {
			final[record.ContainerNumber] = record
		}
	}

	for _, number := range queried {
		if _, exists := final[number]; !exists {
			final[number] = status.NotFound(number)
		}
	}

	return resolved
}

// Remaining returns queried minus resolved, preserving order. Sequential mode
// feeds the result to the next source as its shrunken worklist.
func Remaining(queried []string, resolved map[string]struct{}) []string {
	if len(resolved) == 0 {
		return queried
	}
	out := make([]string, 0, len(queried))
	for _, number := range queried {
		if _, ok := resolved[number]; !ok {
			out = append(out, number)
		}
	}
	return out
}
