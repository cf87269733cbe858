package terminal

import "strings"

// Holds carries the four independently tracked hold fields a terminal can
// report. Empty means the terminal supplied no data for that hold, which is
// distinct from an explicit "Released".
type Holds struct {
	Customs  string
	Line     string
	CBPA     string
	Terminal string
}

// ParseHoldText decomposes the combined holds cell Tideworks renders. Parts
// are separated by newlines or semicolons and keyed by a label fragment:
// "Cust" (customs), "Line" (carrier line), "Add" (CBPA additional hold),
// "Holds" (terminal operator). Fee totals and satisfied-thru dates are folded
// into the terminal hold so operators see payment state next to the hold.
func ParseHoldText(text string) Holds {
	var holds Holds
	var fees, satisfied string

	for _, part := range splitHoldParts(text) {
		switch {
		case strings.Contains(part, "Total Fees:"):
			fees = part
		case strings.Contains(part, "Satisfied Thru:"):
			satisfied = part
		case strings.Contains(part, "Cust"):
			holds.Customs = holdValue(part)
		case strings.Contains(part, "Line"):
			holds.Line = holdValue(part)
		case strings.Contains(part, "Add"):
			holds.CBPA = holdValue(part)
		case strings.Contains(part, "Holds"):
			holds.Terminal = holdValue(part)
		}
	}

	extras := make([]string, 0, 3)
	if holds.Terminal != "" {
		extras = append(extras, holds.Terminal)
	}
	if fees != "" {
		extras = append(extras, fees)
	}
	if satisfied != "" {
		extras = append(extras, satisfied)
	}
	if len(extras) > 0 {
		holds.Terminal = strings.Join(extras, " | ")
	}
	return holds
}

func splitHoldParts(text string) []string {
	normalized := strings.ReplaceAll(text, "\n", ";")
	raw := strings.Split(normalized, ";")
	parts := make([]string, 0, len(raw))
	for _, p := range raw {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

func holdValue(part string) string {
	if idx := strings.LastIndex(part, ":"); idx >= 0 {
		return strings.TrimSpace(part[idx+1:])
	}
	return part
}

// SplitLocationOperator separates the "location | line operator" cell.
func SplitLocationOperator(text string) (location, operator string) {
	if before, after, found := strings.Cut(text, "|"); found {
		return strings.TrimSpace(before), strings.TrimSpace(after)
	}
	return strings.TrimSpace(text), ""
}

// NumberFromMessage extracts a container number from a not-found message such
// as "No result found for the reference number: ABCU1234567". Falls back to
// the first whitespace-separated token.
func NumberFromMessage(message string) string {
	if _, after, found := strings.Cut(message, ":"); found {
		if number := strings.TrimSpace(after); number != "" {
			return firstToken(number)
		}
	}
	return firstToken(message)
}

func firstToken(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
