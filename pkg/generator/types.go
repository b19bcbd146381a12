package generator

import (
	"time"

	"github.com/hexaglue/hexaglue/pkg/config"
	"github.com/hexaglue/hexaglue/pkg/diag"
	"github.com/hexaglue/hexaglue/pkg/merge"
)

// Plan is the resolved set of artifacts a run will generate, in declaration
// order. Execution is sequential and deterministic: same config, same
// templates, same plan, same outcome.
type Plan struct {
	// Workspace is the workspace name.
	Workspace string `json:"workspace"`

	// OutputRoot is the directory output paths were resolved against.
	OutputRoot string `json:"output_root"`

	// Artifacts are the planned artifacts.
	Artifacts []PlannedArtifact `json:"artifacts"`
}

// PlannedArtifact is one artifact with paths resolved and template context
// computed.
type PlannedArtifact struct {
	// Config is the artifact's configuration.
	Config config.ArtifactConfig `json:"config"`

	// Mode is the parsed merge mode.
	Mode merge.Mode `json:"mode"`

	// TemplatePath is the absolute template path.
	TemplatePath string `json:"template_path"`

	// OutputPath is the absolute output path.
	OutputPath string `json:"output_path"`

	// Context is the template context (workspace variables, artifact
	// variables, context-script output).
	Context map[string]interface{} `json:"context,omitempty"`
}

// Status is the overall outcome of a run.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// ArtifactResult is the outcome of generating one artifact.
type ArtifactResult struct {
	// ArtifactID is the artifact id.
	ArtifactID string `json:"artifact_id"`

	// OutputPath is the absolute output path.
	OutputPath string `json:"output_path"`

	// Action is the merge outcome kind.
	Action merge.Action `json:"action"`

	// Message describes the outcome.
	Message string `json:"message"`

	// ContentHash is the SHA-256 of the written content, hex-encoded. Set
	// only when content was written.
	ContentHash string `json:"content_hash,omitempty"`

	// OrphanedBlocks is the number of orphaned-block warnings reported.
	OrphanedBlocks int `json:"orphaned_blocks"`

	// Diagnostics are the diagnostics reported while generating this
	// artifact, in report order.
	Diagnostics []diag.Diagnostic `json:"diagnostics,omitempty"`

	// Duration is how long the artifact took.
	Duration time.Duration `json:"duration"`

	// Err is the terminal failure, if any. A merge that came back as an
	// error action sets Action and Message but not Err; Err is reserved for
	// infrastructure failures (template, filesystem, manifest).
	Err error `json:"-"`
}

// Failed reports whether the artifact ended in an error.
func (ar *ArtifactResult) Failed() bool {
	return ar.Err != nil || ar.Action == merge.ActionError
}

// RunResult is the outcome of a whole generation run.
type RunResult struct {
	// RunID is the unique run identifier.
	RunID string `json:"run_id"`

	// Workspace is the workspace name.
	Workspace string `json:"workspace"`

	// Status is the overall outcome.
	Status Status `json:"status"`

	// StartedAt is when the run started.
	StartedAt time.Time `json:"started_at"`

	// CompletedAt is when the run finished.
	CompletedAt time.Time `json:"completed_at"`

	// Artifacts are the per-artifact outcomes, in plan order.
	Artifacts []ArtifactResult `json:"artifacts"`
}

// Failed reports whether any artifact in the run failed.
func (rr *RunResult) Failed() bool {
	for i := range rr.Artifacts {
		if rr.Artifacts[i].Failed() {
			return true
		}
	}
	return false
}

// Written returns the number of artifacts that were written.
func (rr *RunResult) Written() int {
	n := 0
	for i := range rr.Artifacts {
		if rr.Artifacts[i].Action == merge.ActionWrite {
			n++
		}
	}
	return n
}

// Skipped returns the number of artifacts that were skipped.
func (rr *RunResult) Skipped() int {
	n := 0
	for i := range rr.Artifacts {
		if rr.Artifacts[i].Action == merge.ActionSkip {
			n++
		}
	}
	return n
}
