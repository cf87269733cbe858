package status

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Sentinel terminal names for records that carry no substantive data.
const (
	TerminalNotFound    = "NOT FOUND"
	TerminalLoginFailed = "LOGIN FAILED"
)

// Availability values derived from hold and location data.
const (
	AvailabilityAvailable = "Available"
	AvailabilityDelivered = "Delivered"
)

// Record is the canonical per-container result produced by one terminal
// query. A record is immutable once created: it is either promoted into the
// final mapping by the reconciler or discarded.
type Record struct {
	ContainerNumber string `json:"container_number"`
	Terminal        string `json:"terminal"`
	Available       string `json:"available,omitempty"`
	LineOperator    string `json:"line_operator,omitempty"`
	Dimensions      string `json:"dimensions,omitempty"`
	Location        string `json:"location,omitempty"`
	CustomsHold     string `json:"customs_hold,omitempty"`
	LineHold        string `json:"line_hold,omitempty"`
	CBPAHold        string `json:"cbpa_hold,omitempty"`
	TerminalHold    string `json:"terminal_hold,omitempty"`
}

// Found reports whether the record carries substantive terminal data rather
// than a synthesized sentinel.
func (r Record) Found() bool {
	return r.Terminal != "" && r.Terminal != TerminalNotFound && r.Terminal != TerminalLoginFailed
}

// NotFound builds the sentinel record for a container a terminal did not know.
func NotFound(containerNumber string) Record {
	return Record{ContainerNumber: containerNumber, Terminal: TerminalNotFound}
}

// LoginFailed builds the sentinel record for a container that could not be
// queried because the terminal rejected the login.
func LoginFailed(containerNumber string) Record {
	return Record{ContainerNumber: containerNumber, Terminal: TerminalLoginFailed}
}

var upper = cases.Upper(language.Und)

// NormalizeNumber canonicalizes a container number: surrounding whitespace is
// trimmed and the result uppercased. Matching is case-insensitive everywhere
// downstream, so normalization happens once, before any batching.
func NormalizeNumber(number string) string {
	return upper.String(strings.TrimSpace(number))
}

// NormalizeNumbers canonicalizes every number and drops duplicates while
// preserving first-seen order. Empty entries are discarded.
func NormalizeNumbers(numbers []string) []string {
	seen := make(map[string]struct{}, len(numbers))
	out := make([]string, 0, len(numbers))
	for _, number := range numbers {
		normalized := NormalizeNumber(number)
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// DeriveAvailability computes the availability field from location and hold
// data when the terminal does not supply one directly. Delivered containers
// are reported as such; otherwise a container is available only when the
// customs, line, and CBPA holds read empty or "Released" and the terminal
// hold reads empty or "None". The two vocabularies are not interchangeable:
// a "Released" terminal hold still blocks pickup.
func DeriveAvailability(location, customsHold, lineHold, cbpaHold, terminalHold string) string {
	if strings.Contains(location, "Delivered") {
		return AvailabilityDelivered
	}
	if holdReleased(customsHold) && holdReleased(lineHold) && holdReleased(cbpaHold) && holdNone(terminalHold) {
		return AvailabilityAvailable
	}
	return ""
}

func holdReleased(value string) bool {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	return trimmed == "" || trimmed == "released"
}

func holdNone(value string) bool {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	return trimmed == "" || trimmed == "none"
}
