package policy

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := NewEngine(zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine() error: %v", err)
	}
	return engine
}

func writeInput(mutate func(*WriteInput)) *WriteInput {
	input := &WriteInput{
		Artifact: &ArtifactInfo{
			ID:         "user_repository",
			OutputPath: "internal/adapters/user_repository.go",
			MergeMode:  "merge_custom_blocks",
		},
		File:    &FileInfo{},
		Context: &EvalContext{Workspace: "shop-backend", Operation: "generate"},
	}
	if mutate != nil {
		mutate(input)
	}
	return input
}

func TestEngine_BuiltinPoliciesLoaded(t *testing.T) {
	engine := newTestEngine(t)

	policies := engine.ListPolicies()
	if len(policies) != 4 {
		t.Errorf("expected 4 built-in policies, got %d", len(policies))
	}

	if _, err := engine.GetPolicy("protect-custom-blocks"); err != nil {
		t.Errorf("GetPolicy(protect-custom-blocks) error: %v", err)
	}
	if _, err := engine.GetPolicy("nope"); err == nil {
		t.Error("GetPolicy(nope) should fail")
	}
}

func TestEngine_CleanWriteAllowed(t *testing.T) {
	engine := newTestEngine(t)

	result, err := engine.EvaluateWrite(context.Background(), writeInput(nil))
	if err != nil {
		t.Fatalf("EvaluateWrite() error: %v", err)
	}
	if !result.Allowed {
		t.Errorf("clean write should be allowed, violations: %v", result.Violations)
	}
	if len(result.EvaluatedPolicies) != 4 {
		t.Errorf("expected 4 evaluated policies, got %d", len(result.EvaluatedPolicies))
	}
}

func TestEngine_OverwriteWithCustomBlocksDenied(t *testing.T) {
	engine := newTestEngine(t)

	input := writeInput(func(in *WriteInput) {
		in.Artifact.MergeMode = "overwrite"
		in.File.Exists = true
		in.File.HasCustomBlocks = true
		in.File.CustomBlockIDs = []string{"imports", "methods"}
	})

	result, err := engine.EvaluateWrite(context.Background(), input)
	if err != nil {
		t.Fatalf("EvaluateWrite() error: %v", err)
	}
	if result.Allowed {
		t.Fatal("overwrite of a file with custom blocks should be denied")
	}

	found := false
	for _, v := range result.Violations {
		if v.Policy == "protect-custom-blocks" {
			found = true
			if v.ArtifactID != "user_repository" {
				t.Errorf("violation artifact = %q", v.ArtifactID)
			}
			if v.Severity != SeverityError {
				t.Errorf("violation severity = %q, want error", v.Severity)
			}
		}
	}
	if !found {
		t.Errorf("protect-custom-blocks violation missing: %v", result.Violations)
	}
}

func TestEngine_PathEscapeDenied(t *testing.T) {
	engine := newTestEngine(t)

	tests := []struct {
		name string
		path string
	}{
		{"absolute path", "/etc/passwd"},
		{"parent escape", "../outside/file.go"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := writeInput(func(in *WriteInput) {
				in.Artifact.OutputPath = tt.path
			})
			result, err := engine.EvaluateWrite(context.Background(), input)
			if err != nil {
				t.Fatalf("EvaluateWrite() error: %v", err)
			}
			if result.Allowed {
				t.Errorf("write to %q should be denied", tt.path)
			}
		})
	}
}

func TestEngine_DeclaredBlocksWarningDoesNotBlock(t *testing.T) {
	engine := newTestEngine(t)

	input := writeInput(func(in *WriteInput) {
		in.Artifact.MergeMode = "keep_existing"
		in.Artifact.CustomBlockIDs = []string{"imports"}
	})

	result, err := engine.EvaluateWrite(context.Background(), input)
	if err != nil {
		t.Fatalf("EvaluateWrite() error: %v", err)
	}
	if !result.Allowed {
		t.Errorf("warning-only violation should not block, violations: %v", result.Violations)
	}
	if len(result.Violations) != 1 || result.Violations[0].Policy != "declared-blocks" {
		t.Errorf("expected single declared-blocks warning, got %v", result.Violations)
	}
}

func TestEngine_ProtectedArtifact(t *testing.T) {
	engine := newTestEngine(t)

	input := writeInput(func(in *WriteInput) {
		in.Artifact.Labels = map[string]string{"protected": "true"}
		in.File.Exists = true
	})

	result, err := engine.EvaluateWrite(context.Background(), input)
	if err != nil {
		t.Fatalf("EvaluateWrite() error: %v", err)
	}
	if result.Allowed {
		t.Error("write to protected artifact should be denied")
	}

	// Dry-run is exempt.
	input.Context.DryRun = true
	result, err = engine.EvaluateWrite(context.Background(), input)
	if err != nil {
		t.Fatalf("EvaluateWrite() dry-run error: %v", err)
	}
	if !result.Allowed {
		t.Errorf("dry-run should be exempt, violations: %v", result.Violations)
	}
}

func TestEngine_DisablePolicy(t *testing.T) {
	engine := newTestEngine(t)

	if err := engine.DisablePolicy("protect-custom-blocks"); err != nil {
		t.Fatalf("DisablePolicy() error: %v", err)
	}

	input := writeInput(func(in *WriteInput) {
		in.Artifact.MergeMode = "overwrite"
		in.File.Exists = true
		in.File.HasCustomBlocks = true
	})
	result, err := engine.EvaluateWrite(context.Background(), input)
	if err != nil {
		t.Fatalf("EvaluateWrite() error: %v", err)
	}
	if !result.Allowed {
		t.Errorf("disabled policy should not deny, violations: %v", result.Violations)
	}

	if err := engine.EnablePolicy("protect-custom-blocks"); err != nil {
		t.Fatalf("EnablePolicy() error: %v", err)
	}
	result, err = engine.EvaluateWrite(context.Background(), input)
	if err != nil {
		t.Fatalf("EvaluateWrite() error: %v", err)
	}
	if result.Allowed {
		t.Error("re-enabled policy should deny again")
	}
}

func TestExtractPackageName(t *testing.T) {
	rego := "package hexaglue.policies.custom\n\nderp := 1\n"
	if got := extractPackageName(rego); got != "hexaglue.policies.custom" {
		t.Errorf("extractPackageName() = %q", got)
	}
	if got := extractPackageName("no package here"); got != "hexaglue.policies" {
		t.Errorf("extractPackageName() fallback = %q", got)
	}
}
