package serverlog

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
)

// ErrInvalidSeverity is returned by ParseSeverity for unrecognized names.
var ErrInvalidSeverity = errors.New("invalid severity")

// Severity is the importance of a classified line.
// Values are ordered: Info < Warn < Error < Unknown.
type Severity int

// Severity levels. Unknown ranks highest so unclassified output always passes a filter.
const (
	SeverityInfo Severity = iota
	SeverityWarn
	SeverityError
	SeverityUnknown
)

// String returns the level as it appears in server output.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityWarn:
		return "WARN"
	case SeverityError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// AtLeast reports whether s ranks at or above min.
func (s Severity) AtLeast(minimum Severity) bool {
	return s >= minimum
}

// levelFromServer maps the exact level token of a matched line.
// Matching is case-sensitive; anything else is not a valid server level.
func levelFromServer(level string) (Severity, bool) {
	switch level {
	case "INFO":
		return SeverityInfo, true
	case "WARN":
		return SeverityWarn, true
	case "ERROR":
		return SeverityError, true
	}
	return SeverityUnknown, false
}

// ParseSeverity converts a configuration value to a Severity.
// Unlike server output, configuration is matched case-insensitively.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "info":
		return SeverityInfo, nil
	case "warn", "warning":
		return SeverityWarn, nil
	case "error":
		return SeverityError, nil
	case "unknown":
		return SeverityUnknown, nil
	}
	return SeverityUnknown, fmt.Errorf("%w: %q", ErrInvalidSeverity, s)
}

// Filter holds the minimum severity echoed to the local console.
// It is safe to change while readers are running.
type Filter struct {
	minimum atomic.Int32
}

// NewFilter creates a filter with the given minimum severity.
func NewFilter(minimum Severity) *Filter {
	f := &Filter{}
	f.Set(minimum)
	return f
}

// Set changes the minimum severity.
func (f *Filter) Set(minimum Severity) {
	f.minimum.Store(int32(minimum))
}

// Minimum returns the current minimum severity.
func (f *Filter) Minimum() Severity {
	return Severity(f.minimum.Load())
}

// Allows reports whether a line of the given severity passes the filter.
// A nil filter allows everything.
func (f *Filter) Allows(s Severity) bool {
	if f == nil {
		return true
	}
	return s.AtLeast(f.Minimum())
}
