package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestCUEParser_ParseInline(t *testing.T) {
	parser := NewCUEParser()
	ctx := context.Background()

	tests := []struct {
		name      string
		content   string
		wantErr   bool
		errCount  int
		checkFunc func(*testing.T, *ParsedConfig)
	}{
		{
			name: "valid simple config",
			content: `
workspace: {
	name: "shop-backend"
	version: "1.0"
}

artifacts: {
	user_repository: {
		id: "user_repository"
		template: "templates/repository.go.tmpl"
		output: "internal/adapters/user_repository.go"
		merge_mode: "merge_custom_blocks"
		custom_block_ids: ["imports", "methods"]
	}
}
`,
			wantErr: false,
			checkFunc: func(t *testing.T, pc *ParsedConfig) {
				if pc.Workspace.Name != "shop-backend" {
					t.Errorf("expected workspace name 'shop-backend', got %s", pc.Workspace.Name)
				}
				if len(pc.Artifacts) != 1 {
					t.Fatalf("expected 1 artifact, got %d", len(pc.Artifacts))
				}
				if pc.Artifacts[0].MergeMode != "merge_custom_blocks" {
					t.Errorf("expected merge mode 'merge_custom_blocks', got %s", pc.Artifacts[0].MergeMode)
				}
				if len(pc.Artifacts[0].CustomBlockIDs) != 2 {
					t.Errorf("expected 2 custom block ids, got %d", len(pc.Artifacts[0].CustomBlockIDs))
				}
			},
		},
		{
			name: "artifact id defaults to map key",
			content: `
workspace: name: "demo"

artifacts: {
	ports: {
		template: "templates/ports.go.tmpl"
		output: "internal/ports/ports.go"
		merge_mode: "overwrite"
	}
}
`,
			wantErr: false,
			checkFunc: func(t *testing.T, pc *ParsedConfig) {
				if len(pc.Artifacts) != 1 {
					t.Fatalf("expected 1 artifact, got %d", len(pc.Artifacts))
				}
				if pc.Artifacts[0].ID != "ports" {
					t.Errorf("expected artifact id 'ports', got %q", pc.Artifacts[0].ID)
				}
			},
		},
		{
			name: "invalid CUE syntax",
			content: `
workspace: {
	name: "demo"
	invalid syntax here
}
`,
			wantErr:  true,
			errCount: 1,
		},
		{
			name: "unknown merge mode rejected",
			content: `
workspace: name: "demo"

artifacts: {
	broken: {
		template: "t.tmpl"
		output: "out.go"
		merge_mode: "replace"
	}
}
`,
			wantErr:  true,
			errCount: 1,
		},
		{
			name: "missing required fields",
			content: `
workspace: name: "demo"

artifacts: {
	broken: {
		merge_mode: "overwrite"
	}
}
`,
			wantErr:  true,
			errCount: 1,
		},
		{
			name: "missing workspace section",
			content: `
artifacts: {
	a: {
		template: "t.tmpl"
		output: "out.go"
		merge_mode: "overwrite"
	}
}
`,
			wantErr:  true,
			errCount: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pc, err := parser.ParseInline(ctx, tt.content)

			if tt.wantErr {
				if err == nil && len(pc.Errors) == 0 {
					t.Errorf("expected error, got none")
				}
				if tt.errCount > 0 && len(pc.Errors) != tt.errCount {
					t.Errorf("expected %d errors, got %d: %v", tt.errCount, len(pc.Errors), pc.Errors)
				}
			} else {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				if len(pc.Errors) > 0 {
					t.Errorf("unexpected validation errors: %v", pc.Errors)
				}
				if tt.checkFunc != nil {
					tt.checkFunc(t, pc)
				}
			}
		})
	}
}

func TestCUEParser_DuplicateOutputPath(t *testing.T) {
	parser := NewCUEParser()

	pc, err := parser.ParseInline(context.Background(), `
workspace: name: "demo"

artifacts: [
	{id: "a", template: "a.tmpl", output: "out/shared.go", merge_mode: "overwrite"},
	{id: "b", template: "b.tmpl", output: "out/shared.go", merge_mode: "keep_existing"},
]
`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pc.Errors) != 1 {
		t.Fatalf("expected 1 validation error, got %d: %v", len(pc.Errors), pc.Errors)
	}
	if pc.Errors[0].Path != "artifacts.b" {
		t.Errorf("expected error at artifacts.b, got %q", pc.Errors[0].Path)
	}
}

func TestCUEParser_ParseFile(t *testing.T) {
	parser := NewCUEParser()
	ctx := context.Background()

	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "hexaglue.cue")

	content := `
workspace: {
	name: "filetest"
	version: "1.0"
	markers: namespace: "portgen"
	variables: {module: "github.com/acme/shop"}
	telemetry: {
		log_level: "debug"
		log_format: "json"
	}
}

artifacts: {
	ports: {
		template: "templates/ports.go.tmpl"
		output: "internal/ports/ports.go"
		merge_mode: "overwrite"
	}
}
`
	if err := os.WriteFile(testFile, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	pc, err := parser.Parse(ctx, []string{testFile})
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if len(pc.Errors) > 0 {
		t.Fatalf("unexpected validation errors: %v", pc.Errors)
	}
	if pc.Workspace.Name != "filetest" {
		t.Errorf("expected workspace name 'filetest', got %s", pc.Workspace.Name)
	}
	if pc.Workspace.Namespace() != "portgen" {
		t.Errorf("expected namespace 'portgen', got %s", pc.Workspace.Namespace())
	}
	if len(pc.SourceFiles) != 1 || pc.SourceFiles[0] != testFile {
		t.Errorf("unexpected source files: %v", pc.SourceFiles)
	}
	if pc.Workspace.Telemetry == nil || pc.Workspace.Telemetry.LogLevel != "debug" {
		t.Errorf("telemetry section not decoded: %+v", pc.Workspace.Telemetry)
	}
}

func TestCUEParser_Load(t *testing.T) {
	parser := NewCUEParser()
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "broken.cue")

	if err := os.WriteFile(testFile, []byte(`
workspace: name: "demo"
artifacts: bad: {merge_mode: "overwrite"}
`), 0o644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	if _, err := parser.Load(context.Background(), []string{testFile}); err == nil {
		t.Error("Load() should fail on a config with validation errors")
	}
}

func TestWorkspaceConfig_NamespaceDefault(t *testing.T) {
	wc := WorkspaceConfig{Name: "demo"}
	if got := wc.Namespace(); got != "hexaglue" {
		t.Errorf("Namespace() = %q, want default 'hexaglue'", got)
	}
}

func TestArtifactConfig_Mode(t *testing.T) {
	ac := ArtifactConfig{MergeMode: "fail_if_exists"}
	mode, err := ac.Mode()
	if err != nil {
		t.Fatalf("Mode() error: %v", err)
	}
	if string(mode) != "fail_if_exists" {
		t.Errorf("Mode() = %q", mode)
	}

	ac.MergeMode = "clobber"
	if _, err := ac.Mode(); err == nil {
		t.Error("Mode() should reject unknown merge mode")
	}
}

func TestParsedConfig_ArtifactByID(t *testing.T) {
	pc := &ParsedConfig{Artifacts: []ArtifactConfig{
		{ID: "a"}, {ID: "b"},
	}}
	if got := pc.ArtifactByID("b"); got == nil || got.ID != "b" {
		t.Errorf("ArtifactByID(b) = %v", got)
	}
	if got := pc.ArtifactByID("missing"); got != nil {
		t.Errorf("ArtifactByID(missing) = %v, want nil", got)
	}
}
