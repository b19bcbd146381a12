package policy

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

const testRegoPolicy = `# Denies artifacts without an id
package hexaglue.policies.test

import rego.v1

deny contains violation if {
	input.artifact.id == ""
	violation := {"message": "artifact id is required", "severity": "error"}
}
`

func TestLoader_LoadRegoFile(t *testing.T) {
	loader := NewLoader(zerolog.Nop())
	tmpDir := t.TempDir()

	path := filepath.Join(tmpDir, "require-id.rego")
	if err := os.WriteFile(path, []byte(testRegoPolicy), 0o644); err != nil {
		t.Fatalf("failed to write policy file: %v", err)
	}

	policies, err := loader.LoadFromPaths(context.Background(), []string{path})
	if err != nil {
		t.Fatalf("LoadFromPaths() error: %v", err)
	}
	if len(policies) != 1 {
		t.Fatalf("expected 1 policy, got %d", len(policies))
	}
	if policies[0].Name != "require-id" {
		t.Errorf("policy name = %q, want require-id", policies[0].Name)
	}
	if policies[0].Description == "" {
		t.Error("description should be extracted from leading comment")
	}
	if !policies[0].Enabled {
		t.Error("loaded policy should be enabled by default")
	}
}

func TestLoader_LoadDirectory(t *testing.T) {
	loader := NewLoader(zerolog.Nop())
	tmpDir := t.TempDir()

	if err := os.WriteFile(filepath.Join(tmpDir, "a.rego"), []byte(testRegoPolicy), 0o644); err != nil {
		t.Fatalf("failed to write policy file: %v", err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, "ignored.txt"), []byte("not a policy"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	policies, err := loader.LoadFromPaths(context.Background(), []string{tmpDir})
	if err != nil {
		t.Fatalf("LoadFromPaths() error: %v", err)
	}
	if len(policies) != 1 {
		t.Errorf("expected 1 policy from directory, got %d", len(policies))
	}
}

func TestLoader_LoadedPolicyEvaluates(t *testing.T) {
	engine := newTestEngine(t)
	tmpDir := t.TempDir()

	path := filepath.Join(tmpDir, "require-id.rego")
	if err := os.WriteFile(path, []byte(testRegoPolicy), 0o644); err != nil {
		t.Fatalf("failed to write policy file: %v", err)
	}
	if err := engine.LoadPolicies(context.Background(), []string{path}); err != nil {
		t.Fatalf("LoadPolicies() error: %v", err)
	}

	input := writeInput(func(in *WriteInput) {
		in.Artifact.ID = ""
	})
	result, err := engine.EvaluateWrite(context.Background(), input)
	if err != nil {
		t.Fatalf("EvaluateWrite() error: %v", err)
	}

	found := false
	for _, v := range result.Violations {
		if v.Policy == "require-id" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected require-id violation, got %v", result.Violations)
	}
}
