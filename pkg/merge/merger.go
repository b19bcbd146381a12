package merge

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/hexaglue/hexaglue/pkg/blocks"
	"github.com/hexaglue/hexaglue/pkg/diag"
)

// Merger orchestrates merge requests: it validates the request, dispatches
// the strategy for the requested mode, performs post-merge custom-block
// bookkeeping (orphan detection) and turns anomalies into diagnostics.
//
// A Merger holds no mutable state and may be shared across any number of
// goroutines; every request is an independent, bounded, CPU-only
// computation.
type Merger struct {
	parser   *blocks.Parser
	reporter diag.Reporter
	validate *validator.Validate
}

// NewMerger creates a Merger using the given block parser and diagnostic
// sink. A nil parser selects the default marker namespace; a nil reporter
// discards diagnostics.
func NewMerger(parser *blocks.Parser, reporter diag.Reporter) *Merger {
	if parser == nil {
		parser = blocks.NewParser(blocks.DefaultNamespace)
	}
	if reporter == nil {
		reporter = diag.Discard
	}
	return &Merger{
		parser:   parser,
		reporter: reporter,
		validate: validator.New(),
	}
}

// Parser returns the block parser this merger uses.
func (m *Merger) Parser() *blocks.Parser {
	return m.parser
}

// Merge executes one merge request.
//
// A non-nil error is returned only for caller-contract violations (empty new
// content, unknown merge mode) and internal invariant violations; those are
// never expressed as diagnostics. Every content-level failure (malformed
// markers in either text, an existing target under fail_if_exists) comes
// back as a Response with ActionError, after an ERROR diagnostic was
// reported at the request's location. Orphaned custom blocks produce a
// single WARNING diagnostic and never block the write.
func (m *Merger) Merge(ctx context.Context, req Request) (*Response, error) {
	if err := m.validateRequest(req); err != nil {
		return nil, err
	}

	out := m.execute(req)

	switch out.action {
	case ActionWrite:
		if req.Mode == ModeMergeCustomBlocks && req.HasExisting {
			m.reportOrphans(req, out)
		}
		return &Response{
			Action:       ActionWrite,
			FinalContent: out.finalContent,
			Message:      out.message,
		}, nil

	case ActionSkip:
		return &Response{
			Action:  ActionSkip,
			Message: out.message,
		}, nil

	case ActionError:
		if out.err == nil {
			return nil, NewInternalError("strategy returned an error outcome without an error", nil)
		}
		if IsInternal(out.err) {
			// Unreachable strategy branches are engine defects, not
			// user-facing diagnostics.
			return nil, out.err
		}
		m.reporter.Report(diag.Diagnostic{
			Severity: diag.SeverityError,
			Code:     diagCode(out.err),
			Message:  out.err.Error(),
			Location: req.Location,
		})
		return &Response{
			Action:  ActionError,
			Message: out.err.Error(),
		}, nil

	default:
		return nil, NewInternalError(fmt.Sprintf("unknown merge action %q", out.action), nil)
	}
}

// CanMerge reports whether the request would merge cleanly. It is
// best-effort: any failure, including ones Merge would return as an error,
// yields false. It never panics and never returns an error to its caller.
func (m *Merger) CanMerge(ctx context.Context, req Request) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	resp, err := m.Merge(ctx, req)
	if err != nil || resp == nil {
		return false
	}
	return resp.Action != ActionError
}

// validateRequest enforces the caller contract: non-empty new content and a
// known merge mode. Violations fail fast and are never turned into
// diagnostics.
func (m *Merger) validateRequest(req Request) error {
	if err := m.validate.Struct(req); err != nil {
		if strings.TrimSpace(req.NewContent) == "" {
			return NewValidationError("new content must not be empty", err)
		}
		if _, modeErr := ParseMode(string(req.Mode)); modeErr != nil {
			return NewValidationError(fmt.Sprintf("unknown merge mode %q", req.Mode), err)
		}
		return NewValidationError("invalid merge request", err)
	}
	return nil
}

// reportOrphans emits one WARNING naming every block id that exists in the
// previous file but is no longer declared by the template. This is advisory
// bookkeeping: the write decision was already made, so a parse failure here
// is reported as an ERROR diagnostic rather than propagated.
func (m *Merger) reportOrphans(req Request, out outcome) {
	oldBlocks, newBlocks := out.oldBlocks, out.newBlocks
	if !out.parsed {
		var err error
		oldBlocks, err = m.parser.Parse(req.ExistingContent)
		if err == nil {
			newBlocks, err = m.parser.Parse(req.NewContent)
		}
		if err != nil {
			m.reporter.Report(diag.Diagnostic{
				Severity: diag.SeverityError,
				Code:     diag.CodeParseError,
				Message:  fmt.Sprintf("orphan analysis failed: %v", err),
				Location: req.Location,
			})
			return
		}
	}

	orphaned := orphanedIDs(oldBlocks, newBlocks)
	if len(orphaned) == 0 {
		return
	}

	m.reporter.Report(diag.Diagnostic{
		Severity: diag.SeverityWarning,
		Code:     diag.CodeOrphanedBlocks,
		Message: fmt.Sprintf(
			"custom block(s) %s existed in the previous file but are no longer declared by the template; their content was not carried over",
			strings.Join(quoteAll(orphaned), ", ")),
		Location: req.Location,
	})
}

// orphanedIDs computes ids(oldBlocks) - ids(newBlocks), sorted for stable
// diagnostics.
func orphanedIDs(oldBlocks, newBlocks []blocks.ParsedBlock) []string {
	declared := make(map[string]bool, len(newBlocks))
	for _, b := range newBlocks {
		declared[b.ID] = true
	}
	var orphaned []string
	for _, b := range oldBlocks {
		if !declared[b.ID] {
			orphaned = append(orphaned, b.ID)
		}
	}
	sort.Strings(orphaned)
	return orphaned
}

func quoteAll(ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = fmt.Sprintf("%q", id)
	}
	return out
}

// diagCode maps a merge error to its diagnostic code.
func diagCode(err *MergeError) string {
	switch err.Class {
	case ErrorClassParse:
		return diag.CodeParseError
	default:
		return diag.CodeMergeFailed
	}
}
