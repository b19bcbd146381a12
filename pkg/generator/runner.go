package generator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/hexaglue/hexaglue/pkg/blocks"
	"github.com/hexaglue/hexaglue/pkg/config"
	"github.com/hexaglue/hexaglue/pkg/diag"
	"github.com/hexaglue/hexaglue/pkg/merge"
	"github.com/hexaglue/hexaglue/pkg/policy"
	"github.com/hexaglue/hexaglue/pkg/stores"
	"github.com/hexaglue/hexaglue/pkg/telemetry"
)

// Options controls a Runner.
type Options struct {
	// WorkspaceRoot is the directory config-relative paths (templates,
	// scripts, policies, manifest) are resolved against. Defaults to ".".
	WorkspaceRoot string

	// OutputRoot overrides the workspace's output root. When empty, the
	// workspace configuration (or WorkspaceRoot) is used.
	OutputRoot string

	// DryRun plans and merges but writes nothing: no files, no manifest.
	DryRun bool
}

// Runner executes generation runs: it renders each artifact's template,
// consults the write policies, hands the content to the merge engine, and
// writes the result transactionally. All file writes go through the merge
// engine; the runner never bypasses it.
type Runner struct {
	cfg       *config.ParsedConfig
	opts      Options
	tel       *telemetry.Telemetry
	ownsTel   bool
	log       *telemetry.Logger
	cueParser *config.CUEParser
	parser    *blocks.Parser
	renderer  *Renderer
	writer    *AtomicWriter
	policies  *policy.Engine
	advisory  bool
	store     stores.Store
}

// NewRunner creates a runner for the given parsed configuration. The manifest
// store and policy engine are set up according to the workspace
// configuration.
func NewRunner(ctx context.Context, cfg *config.ParsedConfig, tel *telemetry.Telemetry, opts Options) (*Runner, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if len(cfg.Errors) > 0 {
		return nil, fmt.Errorf("configuration has %d validation error(s)", len(cfg.Errors))
	}
	ownsTel := tel == nil
	if tel == nil {
		var err error
		tel, err = telemetry.NewTelemetry(telemetryConfig(cfg.Workspace.Telemetry))
		if err != nil {
			return nil, fmt.Errorf("failed to set up telemetry: %w", err)
		}
	}
	if opts.WorkspaceRoot == "" {
		opts.WorkspaceRoot = "."
	}
	if opts.OutputRoot == "" {
		if cfg.Workspace.OutputRoot != "" {
			opts.OutputRoot = filepath.Join(opts.WorkspaceRoot, cfg.Workspace.OutputRoot)
		} else {
			opts.OutputRoot = opts.WorkspaceRoot
		}
	}

	r := &Runner{
		cfg:       cfg,
		opts:      opts,
		tel:       tel,
		ownsTel:   ownsTel,
		log:       tel.Logger.NewComponentLogger("generator"),
		cueParser: config.NewCUEParser(),
		parser:    blocks.NewParser(cfg.Workspace.Namespace()),
		renderer:  NewRenderer(),
		writer:    NewAtomicWriter(),
	}

	if pc := cfg.Workspace.Policy; pc != nil && pc.Enabled {
		engine, err := policy.NewEngine(tel.Logger.Zerolog())
		if err != nil {
			return nil, fmt.Errorf("failed to set up policy engine: %w", err)
		}
		if len(pc.Paths) > 0 {
			paths := make([]string, len(pc.Paths))
			for i, p := range pc.Paths {
				paths[i] = filepath.Join(opts.WorkspaceRoot, p)
			}
			if err := engine.LoadPolicies(ctx, paths); err != nil {
				return nil, err
			}
		}
		r.policies = engine
		r.advisory = pc.Mode == "advisory" || pc.OnViolation == "warn"
	}

	if mc := cfg.Workspace.Manifest; mc != nil && mc.Enabled && !opts.DryRun {
		path := mc.Path
		if path == "" {
			path = filepath.Join(".hexaglue", "manifest.db")
		}
		path = filepath.Join(opts.WorkspaceRoot, path)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create manifest directory: %w", err)
		}
		store, err := stores.NewSQLiteStore(stores.Config{Path: path})
		if err != nil {
			return nil, err
		}
		if err := store.Init(ctx); err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, err
		}
		r.store = store
	}

	return r, nil
}

// Close releases the runner's resources. Telemetry is shut down only when
// the runner created it.
func (r *Runner) Close() error {
	var firstErr error
	if r.store != nil {
		if err := r.store.Close(); err != nil {
			firstErr = err
		}
	}
	if r.ownsTel {
		r.tel.Events.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.tel.Tracer.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Plan resolves every artifact: paths made absolute, merge mode parsed, and
// the template context computed (workspace variables, artifact overrides,
// context-script output).
func (r *Runner) Plan(ctx context.Context) (*Plan, error) {
	plan := &Plan{
		Workspace:  r.cfg.Workspace.Name,
		OutputRoot: r.opts.OutputRoot,
	}

	for _, ac := range r.cfg.Artifacts {
		mode, err := ac.Mode()
		if err != nil {
			return nil, fmt.Errorf("artifact %s: %w", ac.ID, err)
		}

		tmplContext, err := r.buildContext(ctx, ac)
		if err != nil {
			return nil, fmt.Errorf("artifact %s: %w", ac.ID, err)
		}

		plan.Artifacts = append(plan.Artifacts, PlannedArtifact{
			Config:       ac,
			Mode:         mode,
			TemplatePath: filepath.Join(r.opts.WorkspaceRoot, ac.Template),
			OutputPath:   filepath.Join(r.opts.OutputRoot, ac.Output),
			Context:      tmplContext,
		})
	}

	return plan, nil
}

// buildContext layers the template context: workspace variables, then
// artifact variables, then context-script output. Later layers win.
func (r *Runner) buildContext(ctx context.Context, ac config.ArtifactConfig) (map[string]interface{}, error) {
	tmplContext := make(map[string]interface{})
	for k, v := range r.cfg.Workspace.Variables {
		tmplContext[k] = v
	}
	for k, v := range ac.Variables {
		tmplContext[k] = v
	}
	tmplContext["workspace"] = r.cfg.Workspace.Name
	tmplContext["artifact"] = ac.ID

	if ac.ContextScript != "" {
		scriptPath := filepath.Join(r.opts.WorkspaceRoot, ac.ContextScript)
		script, err := os.ReadFile(scriptPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read context script: %w", err)
		}
		output, err := r.cueParser.EvaluateContextScript(ctx, string(script), tmplContext)
		if err != nil {
			return nil, err
		}
		for k, v := range output {
			tmplContext[k] = v
		}
	}

	return tmplContext, nil
}

// Run executes a full generation run. Artifacts are processed sequentially
// in declaration order; one artifact failing does not stop the others.
func (r *Runner) Run(ctx context.Context) (*RunResult, error) {
	runID := uuid.New().String()
	result := &RunResult{
		RunID:     runID,
		Workspace: r.cfg.Workspace.Name,
		StartedAt: time.Now(),
	}

	ctx, span := r.tel.Tracer.StartRunSpan(ctx, runID)
	defer span.End()

	log := r.log.WithRunID(runID)
	log.Infof("generation run started: %d artifact(s)", len(r.cfg.Artifacts))
	r.tel.Metrics.RecordRunStarted()
	_ = r.tel.Events.PublishRunStarted(runID, r.cfg.Workspace.Name)

	if r.store != nil {
		now := time.Now().UTC()
		run := &stores.Run{
			ID:         runID,
			Workspace:  r.cfg.Workspace.Name,
			ConfigPath: firstSource(r.cfg.SourceFiles),
			Status:     stores.RunStatusRunning,
			StartedAt:  now,
			Metadata:   "{}",
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := r.store.CreateRun(ctx, run); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}

	plan, err := r.Plan(ctx)
	if err != nil {
		r.finishRun(ctx, result, err)
		telemetry.RecordError(span, err)
		return nil, err
	}

	for i := range plan.Artifacts {
		res := r.generateArtifact(ctx, runID, &plan.Artifacts[i])
		result.Artifacts = append(result.Artifacts, res)
	}

	r.finishRun(ctx, result, nil)
	if result.Status == StatusFailed {
		telemetry.RecordError(span, fmt.Errorf("run %s failed", runID))
	} else {
		telemetry.RecordSuccess(span)
	}
	return result, nil
}

// finishRun settles the run's status and emits the closing telemetry.
func (r *Runner) finishRun(ctx context.Context, result *RunResult, runErr error) {
	result.CompletedAt = time.Now()
	result.Status = StatusCompleted
	if runErr != nil || result.Failed() {
		result.Status = StatusFailed
	}
	duration := result.CompletedAt.Sub(result.StartedAt)

	r.tel.Metrics.RecordRunCompleted(string(result.Status), duration)
	if result.Status == StatusFailed {
		reason := "one or more artifacts failed"
		if runErr != nil {
			reason = runErr.Error()
		}
		_ = r.tel.Events.PublishRunFailed(result.RunID, reason)
	} else {
		_ = r.tel.Events.PublishRunCompleted(result.RunID, string(result.Status), duration)
	}

	if r.store != nil {
		status := stores.RunStatusCompleted
		var errMsg *string
		if result.Status == StatusFailed {
			status = stores.RunStatusFailed
			if runErr != nil {
				s := runErr.Error()
				errMsg = &s
			}
		}
		if err := r.store.UpdateRunStatus(ctx, result.RunID, status, errMsg); err != nil {
			r.log.WithRunID(result.RunID).WithError(err).Warn("failed to update run status in manifest")
		}
	}

	r.log.WithRunID(result.RunID).
		WithField("status", string(result.Status)).
		Infof("generation run finished: %d written, %d skipped", result.Written(), result.Skipped())
}

// generateArtifact renders, merges and writes one artifact.
func (r *Runner) generateArtifact(ctx context.Context, runID string, pa *PlannedArtifact) ArtifactResult {
	started := time.Now()
	res := ArtifactResult{
		ArtifactID: pa.Config.ID,
		OutputPath: pa.OutputPath,
	}

	ctx, span := r.tel.Tracer.StartArtifactSpan(ctx, pa.Config.ID, pa.OutputPath, string(pa.Mode))
	defer span.End()

	log := r.log.WithRunID(runID).
		WithArtifact(pa.Config.ID).
		WithOutputPath(pa.OutputPath).
		WithMergeMode(string(pa.Mode))

	fail := func(err error) ArtifactResult {
		res.Action = merge.ActionError
		res.Message = err.Error()
		res.Err = err
		res.Duration = time.Since(started)
		log.WithError(err).Error("artifact generation failed")
		telemetry.RecordError(span, err)
		_ = r.tel.Events.PublishMergeFailed(runID, pa.Config.ID, pa.OutputPath, err.Error())
		r.recordArtifact(ctx, runID, pa, &res)
		return res
	}

	content, err := r.renderer.RenderFile(pa.TemplatePath, pa.Context)
	if err != nil {
		r.tel.Metrics.RecordError("render")
		return fail(err)
	}

	existing, hasExisting, err := readExisting(pa.OutputPath)
	if err != nil {
		return fail(err)
	}

	if r.policies != nil {
		allowed, err := r.checkPolicies(ctx, runID, pa, existing, hasExisting, &res)
		if err != nil {
			return fail(err)
		}
		if !allowed {
			res.Action = merge.ActionError
			res.Message = "write denied by policy"
			res.Duration = time.Since(started)
			r.recordArtifact(ctx, runID, pa, &res)
			telemetry.RecordError(span, fmt.Errorf("write denied by policy"))
			return res
		}
	}

	reporter := diag.NewCollectingReporter()
	merger := merge.NewMerger(r.parser, reporter)

	req := merge.NewRequest(content, pa.Mode).
		WithLocation(diag.Location(pa.OutputPath)).
		WithCustomBlockIDs(pa.Config.CustomBlockIDs)
	if hasExisting {
		req = req.WithExisting(existing)
	}

	resp, err := merger.Merge(ctx, req)
	if err != nil {
		return fail(err)
	}

	res.Action = resp.Action
	res.Message = resp.Message
	res.Diagnostics = append(res.Diagnostics, reporter.Diagnostics()...)
	for _, d := range res.Diagnostics {
		if d.Code == diag.CodeOrphanedBlocks {
			res.OrphanedBlocks++
		}
		if d.Code == diag.CodeParseError {
			r.tel.Metrics.RecordParseError()
		}
	}
	if res.OrphanedBlocks > 0 {
		r.tel.Metrics.RecordOrphanedBlocks(res.OrphanedBlocks)
		_ = r.tel.Events.PublishBlocksOrphaned(runID, pa.Config.ID, pa.OutputPath, nil)
	}

	switch resp.Action {
	case merge.ActionWrite:
		if !r.opts.DryRun {
			if err := r.writer.Write(pa.OutputPath, []byte(resp.FinalContent)); err != nil {
				return fail(err)
			}
		}
		res.ContentHash = ContentHash([]byte(resp.FinalContent))
		log.Info("artifact written")
		_ = r.tel.Events.PublishArtifactWritten(runID, pa.Config.ID, pa.OutputPath, string(pa.Mode))

	case merge.ActionSkip:
		log.Debug("artifact skipped")
		_ = r.tel.Events.PublishArtifactSkipped(runID, pa.Config.ID, pa.OutputPath, resp.Message)

	case merge.ActionError:
		r.tel.Metrics.RecordError("merge")
		log.Error(resp.Message)
		_ = r.tel.Events.PublishMergeFailed(runID, pa.Config.ID, pa.OutputPath, resp.Message)
	}

	res.Duration = time.Since(started)
	r.tel.Metrics.RecordMerge(string(pa.Mode), string(resp.Action), res.Duration)
	if res.Failed() {
		telemetry.RecordError(span, fmt.Errorf("%s", res.Message))
	} else {
		telemetry.RecordSuccess(span)
	}

	r.recordArtifact(ctx, runID, pa, &res)
	return res
}

// checkPolicies evaluates the write policies for one artifact. In advisory
// mode violations are logged but never block.
func (r *Runner) checkPolicies(ctx context.Context, runID string, pa *PlannedArtifact, existing string, hasExisting bool, res *ArtifactResult) (bool, error) {
	fileInfo := &policy.FileInfo{Exists: hasExisting}
	if hasExisting {
		if parsed, err := r.parser.Parse(existing); err == nil {
			for _, b := range parsed {
				fileInfo.CustomBlockIDs = append(fileInfo.CustomBlockIDs, b.ID)
			}
			fileInfo.HasCustomBlocks = len(parsed) > 0
		}
	}

	input := &policy.WriteInput{
		Artifact: &policy.ArtifactInfo{
			ID:             pa.Config.ID,
			OutputPath:     pa.Config.Output,
			Template:       pa.Config.Template,
			MergeMode:      string(pa.Mode),
			CustomBlockIDs: pa.Config.CustomBlockIDs,
			Labels:         pa.Config.Labels,
		},
		File: fileInfo,
		Context: &policy.EvalContext{
			Workspace: r.cfg.Workspace.Name,
			Operation: "generate",
			DryRun:    r.opts.DryRun,
			Timestamp: time.Now(),
		},
	}

	result, err := r.policies.EvaluateWrite(ctx, input)
	if err != nil {
		return false, err
	}

	for _, v := range result.Violations {
		sev := diag.SeverityWarning
		if v.Severity == policy.SeverityError || v.Severity == policy.SeverityCritical {
			sev = diag.SeverityError
			if r.advisory {
				sev = diag.SeverityWarning
			}
		}
		res.Diagnostics = append(res.Diagnostics, diag.Diagnostic{
			Severity: sev,
			Code:     diag.CodePolicyViolation,
			Message:  v.Message,
			Location: diag.Location(pa.OutputPath),
		})
		r.tel.Metrics.RecordPolicyDenial(v.Policy)
		_ = r.tel.Events.PublishPolicyViolation(runID, pa.Config.ID, v.Policy, v.Message)
	}

	if !result.Allowed && !r.advisory {
		return false, nil
	}
	return true, nil
}

// recordArtifact persists the artifact outcome in the manifest.
func (r *Runner) recordArtifact(ctx context.Context, runID string, pa *PlannedArtifact, res *ArtifactResult) {
	if r.store == nil {
		return
	}

	now := time.Now().UTC()
	record := &stores.ArtifactRecord{
		ID:             uuid.New().String(),
		RunID:          runID,
		ArtifactID:     pa.Config.ID,
		OutputPath:     pa.OutputPath,
		Template:       pa.Config.Template,
		MergeMode:      string(pa.Mode),
		Action:         string(res.Action),
		OrphanedBlocks: res.OrphanedBlocks,
		DurationMs:     res.Duration.Milliseconds(),
		CreatedAt:      now,
		CompletedAt:    &now,
	}
	if res.ContentHash != "" {
		record.ContentHash = &res.ContentHash
	}
	if res.Message != "" {
		record.Message = &res.Message
	}
	if err := r.store.CreateArtifactRecord(ctx, record); err != nil {
		r.log.WithRunID(runID).WithError(err).Warn("failed to record artifact in manifest")
	}

	if res.Action == merge.ActionWrite && res.ContentHash != "" {
		state := &stores.FileState{
			OutputPath:  pa.OutputPath,
			ArtifactID:  pa.Config.ID,
			ContentHash: res.ContentHash,
			LastRunID:   runID,
			LastWritten: now,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := r.store.UpsertFileState(ctx, state); err != nil {
			r.log.WithRunID(runID).WithError(err).Warn("failed to record file state in manifest")
		}
	}
}

// telemetryConfig layers the workspace telemetry section over the defaults.
func telemetryConfig(tc *config.TelemetryConfig) *telemetry.Config {
	cfg := telemetry.DefaultConfig()
	if tc == nil {
		return cfg
	}
	if tc.LogLevel != "" {
		cfg.Logging.Level = tc.LogLevel
	}
	if tc.LogFormat != "" {
		cfg.Logging.Format = tc.LogFormat
	}
	if tc.TraceExporter != "" && tc.TraceExporter != "none" {
		cfg.Tracing.Enabled = true
		cfg.Tracing.Exporter = tc.TraceExporter
		cfg.Tracing.Endpoint = tc.TraceEndpoint
	}
	if tc.MetricsEnabled {
		cfg.Metrics.Enabled = true
		cfg.Metrics.ListenAddress = tc.MetricsAddress
	}
	return cfg
}

// readExisting reads the file at path, distinguishing "absent" from real
// read failures.
func readExisting(path string) (string, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read existing file %s: %w", path, err)
	}
	return string(data), true, nil
}

func firstSource(files []string) string {
	if len(files) == 0 {
		return "inline"
	}
	return files[0]
}
