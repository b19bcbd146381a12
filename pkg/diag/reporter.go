package diag

import (
	"sync"

	"github.com/rs/zerolog"
)

// Severity is the severity of a diagnostic.
type Severity string

const (
	// SeverityError marks conditions that block the current operation.
	SeverityError Severity = "error"

	// SeverityWarning marks advisory conditions that never block a write.
	SeverityWarning Severity = "warning"

	// SeverityInfo marks purely informational diagnostics.
	SeverityInfo Severity = "info"
)

// Diagnostic codes emitted by the merge engine and the generator.
const (
	CodeParseError      = "PARSE_ERROR"
	CodeMergeFailed     = "MERGE_FAILED"
	CodeOrphanedBlocks  = "ORPHANED_BLOCKS"
	CodePolicyViolation = "POLICY_VIOLATION"
)

// Location identifies where a diagnostic applies. It is opaque to every
// consumer in this codebase: rendered, never interpreted.
type Location string

// LocationUnknown is used when the caller did not supply a location.
const LocationUnknown Location = "unknown"

// Diagnostic is one reported anomaly.
type Diagnostic struct {
	// Severity is the diagnostic severity.
	Severity Severity `json:"severity"`

	// Code is a stable machine-readable code (e.g. "ORPHANED_BLOCKS").
	Code string `json:"code"`

	// Message is the human-readable explanation.
	Message string `json:"message"`

	// Location is where the diagnostic applies.
	Location Location `json:"location"`
}

// Reporter is the write-only diagnostic sink capability. Implementations
// must be safe for concurrent use.
type Reporter interface {
	Report(d Diagnostic)
}

// LogReporter forwards diagnostics to a zerolog logger, mapping severities
// to log levels.
type LogReporter struct {
	logger zerolog.Logger
}

// NewLogReporter creates a Reporter backed by the given logger.
func NewLogReporter(logger zerolog.Logger) *LogReporter {
	return &LogReporter{logger: logger}
}

// Report implements Reporter.
func (r *LogReporter) Report(d Diagnostic) {
	var ev *zerolog.Event
	switch d.Severity {
	case SeverityError:
		ev = r.logger.Error()
	case SeverityWarning:
		ev = r.logger.Warn()
	default:
		ev = r.logger.Info()
	}
	ev.Str("code", d.Code).
		Str("location", string(d.Location)).
		Msg(d.Message)
}

// CollectingReporter records every diagnostic in order. Useful in tests and
// for callers that render diagnostics themselves after a run.
type CollectingReporter struct {
	mu          sync.Mutex
	diagnostics []Diagnostic
}

// NewCollectingReporter creates an empty collecting reporter.
func NewCollectingReporter() *CollectingReporter {
	return &CollectingReporter{}
}

// Report implements Reporter.
func (r *CollectingReporter) Report(d Diagnostic) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.diagnostics = append(r.diagnostics, d)
}

// Diagnostics returns a copy of the recorded diagnostics in report order.
func (r *CollectingReporter) Diagnostics() []Diagnostic {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Diagnostic, len(r.diagnostics))
	copy(out, r.diagnostics)
	return out
}

// ErrorCount returns the number of error-severity diagnostics recorded.
func (r *CollectingReporter) ErrorCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, d := range r.diagnostics {
		if d.Severity == SeverityError {
			n++
		}
	}
	return n
}

// Discard is a Reporter that drops every diagnostic.
var Discard Reporter = discardReporter{}

type discardReporter struct{}

func (discardReporter) Report(Diagnostic) {}
