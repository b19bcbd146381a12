package diag

import (
	"testing"
)

func TestCollectingReporter_Order(t *testing.T) {
	r := NewCollectingReporter()
	r.Report(Diagnostic{Severity: SeverityError, Code: CodeParseError, Message: "bad marker", Location: "a.go"})
	r.Report(Diagnostic{Severity: SeverityWarning, Code: CodeOrphanedBlocks, Message: "orphans", Location: "a.go"})

	got := r.Diagnostics()
	if len(got) != 2 {
		t.Fatalf("expected 2 diagnostics, got %d", len(got))
	}
	if got[0].Code != CodeParseError || got[1].Code != CodeOrphanedBlocks {
		t.Errorf("diagnostics out of report order: %v", got)
	}
	if r.ErrorCount() != 1 {
		t.Errorf("ErrorCount() = %d, want 1", r.ErrorCount())
	}
}

func TestCollectingReporter_ReturnsCopy(t *testing.T) {
	r := NewCollectingReporter()
	r.Report(Diagnostic{Severity: SeverityInfo, Message: "one"})

	snapshot := r.Diagnostics()
	r.Report(Diagnostic{Severity: SeverityInfo, Message: "two"})

	if len(snapshot) != 1 {
		t.Errorf("snapshot should not grow, len = %d", len(snapshot))
	}
	if len(r.Diagnostics()) != 2 {
		t.Errorf("reporter should have 2 diagnostics")
	}
}

func TestDiscard(t *testing.T) {
	// Must accept reports without effect.
	Discard.Report(Diagnostic{Severity: SeverityError, Message: "dropped"})
}
