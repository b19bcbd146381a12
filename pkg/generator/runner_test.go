package generator

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hexaglue/hexaglue/pkg/config"
	"github.com/hexaglue/hexaglue/pkg/merge"
	"github.com/hexaglue/hexaglue/pkg/stores"
)

// newTestRunner parses the inline CUE config and builds a runner rooted in a
// fresh temp workspace. Template files are written relative to the workspace
// root before the runner is created.
func newTestRunner(t *testing.T, cueConfig string, files map[string]string) (*Runner, string) {
	t.Helper()

	wsDir := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(wsDir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("failed to create dir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", rel, err)
		}
	}

	pc, err := config.NewCUEParser().ParseInline(context.Background(), cueConfig)
	if err != nil {
		t.Fatalf("failed to parse config: %v", err)
	}
	if len(pc.Errors) > 0 {
		t.Fatalf("config validation errors: %v", pc.Errors)
	}

	runner, err := NewRunner(context.Background(), pc, nil, Options{WorkspaceRoot: wsDir})
	if err != nil {
		t.Fatalf("NewRunner() error: %v", err)
	}
	t.Cleanup(func() { _ = runner.Close() })
	return runner, wsDir
}

const simpleConfig = `
workspace: name: "shop-backend"

artifacts: {
	user_repository: {
		template: "templates/repo.go.tmpl"
		output: "internal/adapters/user_repository.go"
		merge_mode: "overwrite"
	}
}
`

func TestRunner_Run_WritesNewFile(t *testing.T) {
	runner, wsDir := newTestRunner(t, simpleConfig, map[string]string{
		"templates/repo.go.tmpl": "package adapters\n\n// {{.workspace}}/{{.artifact}}\n",
	})

	result, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if result.Status != StatusCompleted {
		t.Fatalf("run status = %s, want completed", result.Status)
	}
	if result.Written() != 1 {
		t.Errorf("Written() = %d, want 1", result.Written())
	}

	got, err := os.ReadFile(filepath.Join(wsDir, "internal/adapters/user_repository.go"))
	if err != nil {
		t.Fatalf("output file not written: %v", err)
	}
	if !strings.Contains(string(got), "shop-backend/user_repository") {
		t.Errorf("output missing rendered context: %q", got)
	}
	if result.Artifacts[0].ContentHash == "" {
		t.Error("content hash should be recorded for written artifacts")
	}
}

func TestRunner_Run_MergeCustomBlocksPreservesContent(t *testing.T) {
	cfg := `
workspace: name: "shop-backend"

artifacts: {
	user_repository: {
		template: "templates/repo.go.tmpl"
		output: "out/repo.go"
		merge_mode: "merge_custom_blocks"
		custom_block_ids: ["methods"]
	}
}
`
	tmpl := `package adapters

// @hexaglue-custom-start: methods
// @hexaglue-custom-end: methods
`
	existing := `package adapters

// @hexaglue-custom-start: methods
func (r *Repo) FindByEmail(email string) {}
// @hexaglue-custom-end: methods
`
	runner, wsDir := newTestRunner(t, cfg, map[string]string{
		"templates/repo.go.tmpl": tmpl,
		"out/repo.go":            existing,
	})

	result, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if result.Status != StatusCompleted {
		t.Fatalf("run status = %s: %+v", result.Status, result.Artifacts)
	}

	got, err := os.ReadFile(filepath.Join(wsDir, "out/repo.go"))
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	if !strings.Contains(string(got), "FindByEmail") {
		t.Errorf("custom block content lost across regeneration:\n%s", got)
	}
}

func TestRunner_Run_OrphanedBlocksWarn(t *testing.T) {
	cfg := `
workspace: name: "demo"

artifacts: {
	svc: {
		template: "templates/svc.go.tmpl"
		output: "out/svc.go"
		merge_mode: "merge_custom_blocks"
	}
}
`
	tmpl := "package svc\n"
	existing := `package svc

// @hexaglue-custom-start: helpers
func helper() {}
// @hexaglue-custom-end: helpers
`
	runner, _ := newTestRunner(t, cfg, map[string]string{
		"templates/svc.go.tmpl": tmpl,
		"out/svc.go":            existing,
	})

	result, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if result.Status != StatusCompleted {
		t.Fatalf("orphaned blocks should warn, not fail: %+v", result.Artifacts)
	}
	if result.Artifacts[0].OrphanedBlocks == 0 {
		t.Error("expected an orphaned-block warning")
	}
}

func TestRunner_Run_KeepExistingSkips(t *testing.T) {
	cfg := `
workspace: name: "demo"

artifacts: {
	svc: {
		template: "templates/svc.go.tmpl"
		output: "out/svc.go"
		merge_mode: "keep_existing"
	}
}
`
	runner, wsDir := newTestRunner(t, cfg, map[string]string{
		"templates/svc.go.tmpl": "package generated\n",
		"out/svc.go":            "package handwritten\n",
	})

	result, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if result.Skipped() != 1 {
		t.Errorf("Skipped() = %d, want 1", result.Skipped())
	}

	got, _ := os.ReadFile(filepath.Join(wsDir, "out/svc.go"))
	if string(got) != "package handwritten\n" {
		t.Errorf("keep_existing must not touch the file, got %q", got)
	}
}

func TestRunner_Run_FailIfExistsDoesNotStopRun(t *testing.T) {
	cfg := `
workspace: name: "demo"

artifacts: [
	{id: "blocked", template: "templates/a.tmpl", output: "out/a.go", merge_mode: "fail_if_exists"},
	{id: "fine", template: "templates/b.tmpl", output: "out/b.go", merge_mode: "overwrite"},
]
`
	runner, wsDir := newTestRunner(t, cfg, map[string]string{
		"templates/a.tmpl": "package a\n",
		"templates/b.tmpl": "package b\n",
		"out/a.go":         "package existing\n",
	})

	result, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if result.Status != StatusFailed {
		t.Errorf("run with a failed artifact should be failed, got %s", result.Status)
	}
	if result.Artifacts[0].Action != merge.ActionError {
		t.Errorf("blocked artifact action = %s, want error", result.Artifacts[0].Action)
	}
	if result.Written() != 1 {
		t.Errorf("remaining artifacts should still run, Written() = %d", result.Written())
	}
	if _, err := os.Stat(filepath.Join(wsDir, "out/b.go")); err != nil {
		t.Errorf("second artifact should have been written: %v", err)
	}
}

func TestRunner_Run_DryRun(t *testing.T) {
	wsDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(wsDir, "templates"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(wsDir, "templates/repo.go.tmpl"), []byte("package x\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	pc, err := config.NewCUEParser().ParseInline(context.Background(), simpleConfig)
	if err != nil || len(pc.Errors) > 0 {
		t.Fatalf("failed to parse config: %v %v", err, pc.Errors)
	}
	runner, err := NewRunner(context.Background(), pc, nil, Options{WorkspaceRoot: wsDir, DryRun: true})
	if err != nil {
		t.Fatalf("NewRunner() error: %v", err)
	}
	defer runner.Close()

	result, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if result.Written() != 1 {
		t.Errorf("dry run still reports the write action, Written() = %d", result.Written())
	}
	if _, err := os.Stat(filepath.Join(wsDir, "internal/adapters/user_repository.go")); !os.IsNotExist(err) {
		t.Error("dry run must not create output files")
	}
}

func TestRunner_Plan_ContextScript(t *testing.T) {
	cfg := `
workspace: {
	name: "demo"
	variables: {module: "github.com/acme/shop"}
}

artifacts: {
	user_repository: {
		template: "templates/repo.go.tmpl"
		output: "out/repo.go"
		merge_mode: "overwrite"
		context_script: "scripts/context.star"
		variables: {entity: "User"}
	}
}
`
	runner, _ := newTestRunner(t, cfg, map[string]string{
		"templates/repo.go.tmpl": "package x\n",
		"scripts/context.star":   `table = entity.lower() + "s"` + "\n",
	})

	plan, err := runner.Plan(context.Background())
	if err != nil {
		t.Fatalf("Plan() error: %v", err)
	}
	if len(plan.Artifacts) != 1 {
		t.Fatalf("expected 1 planned artifact, got %d", len(plan.Artifacts))
	}

	ctx := plan.Artifacts[0].Context
	if ctx["table"] != "users" {
		t.Errorf("context script output table = %v, want users", ctx["table"])
	}
	if ctx["module"] != "github.com/acme/shop" {
		t.Errorf("workspace variable missing: %v", ctx["module"])
	}
	if ctx["entity"] != "User" {
		t.Errorf("artifact variable missing: %v", ctx["entity"])
	}
}

func TestRunner_Run_ManifestRecordsRun(t *testing.T) {
	cfg := `
workspace: {
	name: "demo"
	manifest: {
		enabled: true
		path: "state/manifest.db"
	}
}

artifacts: {
	svc: {
		template: "templates/svc.go.tmpl"
		output: "out/svc.go"
		merge_mode: "overwrite"
	}
}
`
	runner, wsDir := newTestRunner(t, cfg, map[string]string{
		"templates/svc.go.tmpl": "package svc\n",
	})

	result, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if err := runner.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	store, err := stores.NewSQLiteStore(stores.Config{Path: filepath.Join(wsDir, "state/manifest.db")})
	if err != nil {
		t.Fatalf("failed to reopen manifest: %v", err)
	}
	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	defer store.Close()

	run, err := store.GetRun(ctx, result.RunID)
	if err != nil {
		t.Fatalf("run not recorded in manifest: %v", err)
	}
	if run.Status != stores.RunStatusCompleted {
		t.Errorf("recorded run status = %s, want completed", run.Status)
	}

	records, err := store.ListArtifactRecordsByRun(ctx, result.RunID)
	if err != nil {
		t.Fatalf("ListArtifactRecordsByRun() error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 artifact record, got %d", len(records))
	}
	if records[0].ContentHash == nil || *records[0].ContentHash != result.Artifacts[0].ContentHash {
		t.Error("artifact record should carry the written content hash")
	}

	state, err := store.GetFileState(ctx, result.Artifacts[0].OutputPath)
	if err != nil {
		t.Fatalf("GetFileState() error: %v", err)
	}
	if state.ContentHash != result.Artifacts[0].ContentHash {
		t.Error("file state hash should match the written content")
	}
}

func TestRunner_Run_PolicyBlocksOverwrite(t *testing.T) {
	cfg := `
workspace: {
	name: "demo"
	policy: {
		enabled: true
		mode: "enforcing"
	}
}

artifacts: {
	svc: {
		template: "templates/svc.go.tmpl"
		output: "out/svc.go"
		merge_mode: "overwrite"
	}
}
`
	existing := `package svc

// @hexaglue-custom-start: helpers
func helper() {}
// @hexaglue-custom-end: helpers
`
	runner, wsDir := newTestRunner(t, cfg, map[string]string{
		"templates/svc.go.tmpl": "package svc\n",
		"out/svc.go":            existing,
	})

	result, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if result.Status != StatusFailed {
		t.Fatalf("overwriting a file with custom blocks should be denied, got %s", result.Status)
	}
	if result.Artifacts[0].Action != merge.ActionError {
		t.Errorf("action = %s, want error", result.Artifacts[0].Action)
	}

	got, _ := os.ReadFile(filepath.Join(wsDir, "out/svc.go"))
	if !strings.Contains(string(got), "helper") {
		t.Error("denied write must leave the existing file untouched")
	}
}

func TestRunner_Run_AdvisoryPolicyWarnsOnly(t *testing.T) {
	cfg := `
workspace: {
	name: "demo"
	policy: {
		enabled: true
		mode: "advisory"
	}
}

artifacts: {
	svc: {
		template: "templates/svc.go.tmpl"
		output: "out/svc.go"
		merge_mode: "overwrite"
	}
}
`
	existing := `package svc

// @hexaglue-custom-start: helpers
func helper() {}
// @hexaglue-custom-end: helpers
`
	runner, wsDir := newTestRunner(t, cfg, map[string]string{
		"templates/svc.go.tmpl": "package svc\n",
		"out/svc.go":            existing,
	})

	result, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if result.Status != StatusCompleted {
		t.Fatalf("advisory policy must not block, got %s: %+v", result.Status, result.Artifacts)
	}
	if len(result.Artifacts[0].Diagnostics) == 0 {
		t.Error("advisory violation should still surface as a diagnostic")
	}

	got, _ := os.ReadFile(filepath.Join(wsDir, "out/svc.go"))
	if string(got) != "package svc\n" {
		t.Errorf("advisory mode should allow the write, got %q", got)
	}
}

func TestNewRunner_RejectsInvalidConfig(t *testing.T) {
	pc := &config.ParsedConfig{
		Errors: []config.ValidationError{{Message: "broken"}},
	}
	if _, err := NewRunner(context.Background(), pc, nil, Options{}); err == nil {
		t.Error("NewRunner() should reject a config with validation errors")
	}
	if _, err := NewRunner(context.Background(), nil, nil, Options{}); err == nil {
		t.Error("NewRunner() should reject a nil config")
	}
}
