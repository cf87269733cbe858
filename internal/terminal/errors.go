package terminal

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnavailable marks a source that could not be reached or whose page
	// layout did not match expectations.
	ErrUnavailable = errors.New("terminal unavailable")
	// ErrAuthentication marks a rejected login.
	ErrAuthentication = errors.New("authentication failed")
	// ErrParse marks a result row that could not be decomposed into a record.
	ErrParse = errors.New("parse anomaly")
)

// Wrap builds an error message that includes source context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above (or challenge.ErrTimeout).
func Wrap(marker error, source, operation, message string, err error) error {
	detail := buildDetail(source, operation, message)
	if marker == nil {
		marker = ErrUnavailable
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(source, operation, message string) string {
	parts := make([]string, 0, 3)
	if source = strings.TrimSpace(source); source != "" {
		parts = append(parts, source)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "source failure"
	}
	return strings.Join(parts, ": ")
}
