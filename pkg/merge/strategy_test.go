package merge

import (
	"context"
	"strings"
	"testing"

	"github.com/hexaglue/hexaglue/pkg/diag"
)

const simpleTemplate = "package adapters\n\nfunc Generated() {}\n"

func newTestMerger() (*Merger, *diag.CollectingReporter) {
	rep := diag.NewCollectingReporter()
	return NewMerger(nil, rep), rep
}

func TestOverwrite_AlwaysWritesNewContent(t *testing.T) {
	m, _ := newTestMerger()

	tests := []struct {
		name string
		req  Request
	}{
		{"no existing", NewRequest(simpleTemplate, ModeOverwrite)},
		{"with existing", NewRequest(simpleTemplate, ModeOverwrite).WithExisting("old content\n")},
		{"existing equals new", NewRequest(simpleTemplate, ModeOverwrite).WithExisting(simpleTemplate)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := m.Merge(context.Background(), tt.req)
			if err != nil {
				t.Fatalf("Merge() unexpected error: %v", err)
			}
			if resp.Action != ActionWrite {
				t.Fatalf("Action = %q, want %q", resp.Action, ActionWrite)
			}
			if resp.FinalContent != simpleTemplate {
				t.Errorf("FinalContent = %q, want new content unchanged", resp.FinalContent)
			}
		})
	}
}

func TestKeepExisting(t *testing.T) {
	m, _ := newTestMerger()

	// First-time creation writes.
	resp, err := m.Merge(context.Background(), NewRequest(simpleTemplate, ModeKeepExisting))
	if err != nil {
		t.Fatalf("Merge() unexpected error: %v", err)
	}
	if resp.Action != ActionWrite || resp.FinalContent != simpleTemplate {
		t.Errorf("first-time creation: got %q/%q, want write with new content", resp.Action, resp.FinalContent)
	}

	// Any existing content, even empty-looking, is kept.
	resp, err = m.Merge(context.Background(),
		NewRequest(simpleTemplate, ModeKeepExisting).WithExisting("user edited\n"))
	if err != nil {
		t.Fatalf("Merge() unexpected error: %v", err)
	}
	if resp.Action != ActionSkip {
		t.Errorf("Action = %q, want %q", resp.Action, ActionSkip)
	}
	if resp.FinalContent != "" {
		t.Errorf("skip response must carry no content, got %q", resp.FinalContent)
	}
}

func TestFailIfExists(t *testing.T) {
	m, rep := newTestMerger()

	resp, err := m.Merge(context.Background(), NewRequest(simpleTemplate, ModeFailIfExists))
	if err != nil {
		t.Fatalf("Merge() unexpected error: %v", err)
	}
	if resp.Action != ActionWrite {
		t.Errorf("first-time creation: Action = %q, want %q", resp.Action, ActionWrite)
	}

	req := NewRequest(simpleTemplate, ModeFailIfExists).
		WithExisting("anything\n").
		WithLocation("out/conflict.go")
	resp, err = m.Merge(context.Background(), req)
	if err != nil {
		t.Fatalf("Merge() unexpected error: %v", err)
	}
	if resp.Action != ActionError {
		t.Fatalf("Action = %q, want %q", resp.Action, ActionError)
	}
	if !strings.Contains(resp.Message, "out/conflict.go") {
		t.Errorf("error message %q does not name the conflicting target", resp.Message)
	}

	diags := rep.Diagnostics()
	if len(diags) != 1 || diags[0].Severity != diag.SeverityError {
		t.Fatalf("expected exactly one ERROR diagnostic, got %+v", diags)
	}
	if diags[0].Location != "out/conflict.go" {
		t.Errorf("diagnostic location = %q, want request location", diags[0].Location)
	}
}

func TestMergeCustomBlocks_FirstTimeCreation(t *testing.T) {
	m, rep := newTestMerger()

	tpl := "// @hexaglue-custom-start: imports\n// add imports here\n// @hexaglue-custom-end: imports\n"
	resp, err := m.Merge(context.Background(), NewRequest(tpl, ModeMergeCustomBlocks))
	if err != nil {
		t.Fatalf("Merge() unexpected error: %v", err)
	}
	if resp.Action != ActionWrite || resp.FinalContent != tpl {
		t.Errorf("got %q/%q, want write with template defaults", resp.Action, resp.FinalContent)
	}
	if len(rep.Diagnostics()) != 0 {
		t.Errorf("unexpected diagnostics: %+v", rep.Diagnostics())
	}
}

func TestMergeCustomBlocks_PreservesUserContent(t *testing.T) {
	m, _ := newTestMerger()

	existing := "// @hexaglue-custom-start: x\nfoo();\n// @hexaglue-custom-end: x\n"
	updated := "// @hexaglue-custom-start: x\nbar();\n// @hexaglue-custom-end: x\n"

	resp, err := m.Merge(context.Background(),
		NewRequest(updated, ModeMergeCustomBlocks).WithExisting(existing))
	if err != nil {
		t.Fatalf("Merge() unexpected error: %v", err)
	}
	if resp.Action != ActionWrite {
		t.Fatalf("Action = %q, want %q", resp.Action, ActionWrite)
	}
	if resp.FinalContent != existing {
		t.Errorf("FinalContent = %q, want user's content preserved %q", resp.FinalContent, existing)
	}
}

func TestMergeCustomBlocks_RoundTripFixedPoint(t *testing.T) {
	m, _ := newTestMerger()
	ctx := context.Background()

	template := strings.Join([]string{
		"package repo",
		"",
		"// @hexaglue-custom-start: imports",
		"// default imports",
		"// @hexaglue-custom-end: imports",
		"",
		"func Find() {}",
		"",
	}, "\n")

	// Simulate a prior merge where the user replaced the block content.
	userEdited := strings.Replace(template, "// default imports", "import \"time\"\nimport \"context\"", 1)

	resp, err := m.Merge(ctx, NewRequest(template, ModeMergeCustomBlocks).WithExisting(userEdited))
	if err != nil {
		t.Fatalf("Merge() unexpected error: %v", err)
	}
	want := userEdited
	if resp.FinalContent != want {
		t.Fatalf("merge result = %q, want template with user imports %q", resp.FinalContent, want)
	}

	// Merging the result against the same template again changes nothing.
	again, err := m.Merge(ctx, NewRequest(template, ModeMergeCustomBlocks).WithExisting(resp.FinalContent))
	if err != nil {
		t.Fatalf("Merge() unexpected error: %v", err)
	}
	if again.FinalContent != resp.FinalContent {
		t.Errorf("second merge is not a fixed point:\nfirst  %q\nsecond %q", resp.FinalContent, again.FinalContent)
	}
}

func TestMergeCustomBlocks_NewBlockKeepsTemplateDefault(t *testing.T) {
	m, _ := newTestMerger()

	existing := "// @hexaglue-custom-start: a\nuser a\n// @hexaglue-custom-end: a\n"
	template := strings.Join([]string{
		"// @hexaglue-custom-start: a",
		"default a",
		"// @hexaglue-custom-end: a",
		"// @hexaglue-custom-start: b",
		"default b",
		"// @hexaglue-custom-end: b",
		"",
	}, "\n")

	resp, err := m.Merge(context.Background(),
		NewRequest(template, ModeMergeCustomBlocks).WithExisting(existing))
	if err != nil {
		t.Fatalf("Merge() unexpected error: %v", err)
	}
	if !strings.Contains(resp.FinalContent, "user a") {
		t.Error("block a was not preserved from existing content")
	}
	if !strings.Contains(resp.FinalContent, "default b") {
		t.Error("first-appearance block b lost its template default")
	}
}

func TestMergeCustomBlocks_MalformedExisting(t *testing.T) {
	m, rep := newTestMerger()

	existing := "// @hexaglue-custom-start: x\nunclosed\n"
	template := "// @hexaglue-custom-start: x\ndefault\n// @hexaglue-custom-end: x\n"

	resp, err := m.Merge(context.Background(),
		NewRequest(template, ModeMergeCustomBlocks).
			WithExisting(existing).
			WithLocation("out/file.go"))
	if err != nil {
		t.Fatalf("Merge() unexpected error: %v", err)
	}
	if resp.Action != ActionError {
		t.Fatalf("Action = %q, want %q", resp.Action, ActionError)
	}
	if !strings.Contains(resp.Message, "existing content") {
		t.Errorf("message %q should blame the existing content", resp.Message)
	}

	diags := rep.Diagnostics()
	if len(diags) != 1 || diags[0].Code != diag.CodeParseError {
		t.Fatalf("expected one PARSE_ERROR diagnostic, got %+v", diags)
	}
}

func TestMergeCustomBlocks_MalformedTemplate(t *testing.T) {
	m, rep := newTestMerger()

	existing := "// @hexaglue-custom-start: x\nok\n// @hexaglue-custom-end: x\n"
	template := "// @hexaglue-custom-start: x\n// @hexaglue-custom-start: y\n"

	resp, err := m.Merge(context.Background(),
		NewRequest(template, ModeMergeCustomBlocks).WithExisting(existing))
	if err != nil {
		t.Fatalf("Merge() unexpected error: %v", err)
	}
	if resp.Action != ActionError {
		t.Fatalf("Action = %q, want %q", resp.Action, ActionError)
	}
	if !strings.Contains(resp.Message, "newly generated content") {
		t.Errorf("message %q should blame the generated template", resp.Message)
	}
	if rep.ErrorCount() != 1 {
		t.Errorf("expected one ERROR diagnostic, got %+v", rep.Diagnostics())
	}
}

func TestSpliceBlocks_EmptyUserBlock(t *testing.T) {
	m, _ := newTestMerger()

	existing := "// @hexaglue-custom-start: x\n// @hexaglue-custom-end: x\n"
	template := "// @hexaglue-custom-start: x\ndefault line\n// @hexaglue-custom-end: x\n"

	resp, err := m.Merge(context.Background(),
		NewRequest(template, ModeMergeCustomBlocks).WithExisting(existing))
	if err != nil {
		t.Fatalf("Merge() unexpected error: %v", err)
	}
	if resp.FinalContent != existing {
		t.Errorf("FinalContent = %q, want user's emptied block %q", resp.FinalContent, existing)
	}
}
