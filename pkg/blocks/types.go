package blocks

import "fmt"

// DefaultNamespace is the marker namespace used when none is configured.
// It yields markers of the form "@hexaglue-custom-start: <id>".
const DefaultNamespace = "hexaglue"

// ParsedBlock is one custom block extracted from a text.
// It is immutable; instances are produced only by the parser.
type ParsedBlock struct {
	// ID is the marker label identifying the block.
	ID string `json:"id" yaml:"id"`

	// Content is every line strictly between the start and end marker
	// lines, joined with "\n". It may be empty.
	Content string `json:"content" yaml:"content"`

	// StartLine is the 1-indexed line number of the start marker in the
	// source text.
	StartLine int `json:"start_line" yaml:"start_line"`

	// EndLine is the 1-indexed line number of the end marker.
	EndLine int `json:"end_line" yaml:"end_line"`
}

// ParseError reports a malformed marker structure. It always carries the
// 1-indexed line the problem was detected on, so callers can point a user at
// the exact offending line.
type ParseError struct {
	// Message is the human-readable explanation.
	Message string `json:"message"`

	// Line is the 1-indexed line number the error was detected on.
	Line int `json:"line"`
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

func newParseError(line int, format string, args ...interface{}) *ParseError {
	return &ParseError{
		Message: fmt.Sprintf(format, args...),
		Line:    line,
	}
}
