package policy

import (
	"time"
)

// Severity represents the severity level of a policy violation.
type Severity string

const (
	// SeverityInfo is for informational messages.
	SeverityInfo Severity = "info"

	// SeverityWarning is for warnings that should be reviewed.
	SeverityWarning Severity = "warning"

	// SeverityError is for errors that should block the write.
	SeverityError Severity = "error"

	// SeverityCritical is for critical violations that must be addressed immediately.
	SeverityCritical Severity = "critical"
)

// Policy represents a policy rule with its Rego code.
type Policy struct {
	// Name is the unique name of the policy.
	Name string `json:"name"`

	// Description provides a human-readable description.
	Description string `json:"description"`

	// Rego contains the Rego policy code.
	Rego string `json:"rego"`

	// Severity is the default severity for violations.
	Severity Severity `json:"severity"`

	// Enabled indicates if the policy is active.
	Enabled bool `json:"enabled"`

	// Tags are labels for organizing policies.
	Tags []string `json:"tags,omitempty"`

	// Metadata contains additional policy metadata.
	Metadata map[string]interface{} `json:"metadata,omitempty"`

	// CreatedAt is when the policy was created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the policy was last updated.
	UpdatedAt time.Time `json:"updated_at"`
}

// Violation represents a single policy violation.
type Violation struct {
	// Policy is the name of the policy that was violated.
	Policy string `json:"policy"`

	// ArtifactID is the artifact that violated the policy.
	ArtifactID string `json:"artifact_id,omitempty"`

	// Message is a human-readable violation message.
	Message string `json:"message"`

	// Severity is the violation severity level.
	Severity Severity `json:"severity"`

	// DetectedAt is when the violation was detected.
	DetectedAt time.Time `json:"detected_at"`
}

// Result represents the result of a write-policy evaluation.
type Result struct {
	// Allowed indicates if the write is allowed.
	Allowed bool `json:"allowed"`

	// Violations lists all policy violations.
	Violations []Violation `json:"violations,omitempty"`

	// Warnings lists evaluation problems that did not block the decision.
	Warnings []string `json:"warnings,omitempty"`

	// EvaluatedPolicies lists the names of policies that were evaluated.
	EvaluatedPolicies []string `json:"evaluated_policies"`

	// EvaluatedAt is when the policy was evaluated.
	EvaluatedAt time.Time `json:"evaluated_at"`

	// Duration is how long the evaluation took.
	Duration time.Duration `json:"duration"`
}

// ArtifactInfo describes the artifact whose write is being evaluated.
type ArtifactInfo struct {
	// ID is the artifact id.
	ID string `json:"id"`

	// OutputPath is the target file path.
	OutputPath string `json:"output_path"`

	// Template is the template path.
	Template string `json:"template,omitempty"`

	// MergeMode is the configured merge mode.
	MergeMode string `json:"merge_mode"`

	// CustomBlockIDs lists the block ids the template declares.
	CustomBlockIDs []string `json:"custom_block_ids,omitempty"`

	// Labels are the artifact labels.
	Labels map[string]string `json:"labels,omitempty"`
}

// FileInfo describes the state of the file at the output path.
type FileInfo struct {
	// Exists indicates the output file already exists.
	Exists bool `json:"exists"`

	// HasCustomBlocks indicates the existing file contains custom blocks.
	HasCustomBlocks bool `json:"has_custom_blocks"`

	// CustomBlockIDs lists the block ids found in the existing file.
	CustomBlockIDs []string `json:"custom_block_ids,omitempty"`
}

// WriteInput is the input document for write-policy evaluation.
type WriteInput struct {
	// Artifact describes the artifact being generated.
	Artifact *ArtifactInfo `json:"artifact"`

	// File describes the existing file, if any.
	File *FileInfo `json:"file,omitempty"`

	// Context provides additional evaluation context.
	Context *EvalContext `json:"context"`
}

// EvalContext provides context information for policy evaluation.
type EvalContext struct {
	// Workspace is the workspace name.
	Workspace string `json:"workspace,omitempty"`

	// Environment is the environment (e.g., "production", "staging").
	Environment string `json:"environment,omitempty"`

	// Operation is the operation being performed (e.g., "generate", "merge").
	Operation string `json:"operation,omitempty"`

	// DryRun indicates if this is a dry-run evaluation.
	DryRun bool `json:"dry_run"`

	// Timestamp is when the evaluation is occurring.
	Timestamp time.Time `json:"timestamp"`

	// Metadata contains additional context metadata.
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// PolicyBundle represents a collection of related policies.
type PolicyBundle struct {
	// Name is the unique name of the bundle.
	Name string `json:"name"`

	// Version is the bundle version.
	Version string `json:"version"`

	// Description provides a human-readable description.
	Description string `json:"description"`

	// Policies are the policies in this bundle.
	Policies []Policy `json:"policies"`

	// CreatedAt is when the bundle was created.
	CreatedAt time.Time `json:"created_at"`
}
