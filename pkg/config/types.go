package config

import (
	"time"

	"github.com/hexaglue/hexaglue/pkg/merge"
)

// ArtifactConfig declares one generated file: which template produces it,
// where it lands, and how regeneration treats existing content.
type ArtifactConfig struct {
	// ID is the unique identifier for this artifact (e.g., "user_repository").
	ID string `json:"id" validate:"required"`

	// Template is the path to the template file, relative to the workspace root.
	Template string `json:"template" validate:"required"`

	// Output is the path of the generated file, relative to the output root.
	Output string `json:"output" validate:"required"`

	// MergeMode selects how an existing file at Output is treated.
	MergeMode string `json:"merge_mode" validate:"required,oneof=overwrite merge_custom_blocks keep_existing fail_if_exists"`

	// CustomBlockIDs lists the block ids the template is expected to declare.
	// Used for orphan analysis; empty means "whatever the template declares".
	CustomBlockIDs []string `json:"custom_block_ids,omitempty"`

	// ContextScript is an optional Starlark script computing extra template
	// context from the workspace variables.
	ContextScript string `json:"context_script,omitempty"`

	// Variables are artifact-level variables, overriding workspace variables.
	Variables map[string]interface{} `json:"variables,omitempty"`

	// Labels are key-value pairs for organizing and selecting artifacts.
	Labels map[string]string `json:"labels,omitempty"`
}

// Mode converts the configured merge mode string to a merge.Mode.
func (ac *ArtifactConfig) Mode() (merge.Mode, error) {
	return merge.ParseMode(ac.MergeMode)
}

// MarkersConfig configures the custom-block marker grammar.
type MarkersConfig struct {
	// Namespace is the marker namespace (e.g., "hexaglue" yields
	// "@hexaglue-custom-start:" markers).
	Namespace string `json:"namespace,omitempty" validate:"omitempty,alphanum"`
}

// WorkspaceConfig represents the workspace configuration.
type WorkspaceConfig struct {
	// Name is the workspace name.
	Name string `json:"name" validate:"required"`

	// Version is the configuration version.
	Version string `json:"version,omitempty"`

	// OutputRoot is the directory artifact outputs are resolved against.
	OutputRoot string `json:"output_root,omitempty"`

	// Markers configures the custom-block marker grammar.
	Markers *MarkersConfig `json:"markers,omitempty"`

	// Variables are workspace-level template variables.
	Variables map[string]interface{} `json:"variables,omitempty"`

	// Policy configures write-policy enforcement.
	Policy *PolicyConfig `json:"policy,omitempty"`

	// Manifest configures the generation manifest store.
	Manifest *ManifestConfig `json:"manifest,omitempty"`

	// Telemetry configures logging, tracing and metrics for runs in this
	// workspace.
	Telemetry *TelemetryConfig `json:"telemetry,omitempty"`

	// Metadata contains additional workspace metadata.
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Namespace returns the configured marker namespace, or the default.
func (wc *WorkspaceConfig) Namespace() string {
	if wc.Markers != nil && wc.Markers.Namespace != "" {
		return wc.Markers.Namespace
	}
	return "hexaglue"
}

// ManifestConfig configures the generation manifest store.
type ManifestConfig struct {
	// Enabled indicates if the manifest is recorded.
	Enabled bool `json:"enabled"`

	// Path is the SQLite database path, relative to the workspace root.
	Path string `json:"path,omitempty"`
}

// TelemetryConfig configures the generator's telemetry from the workspace.
// Unset fields fall back to the built-in defaults.
type TelemetryConfig struct {
	// LogLevel sets the minimum log level.
	LogLevel string `json:"log_level,omitempty" validate:"omitempty,oneof=trace debug info warn error fatal"`

	// LogFormat selects the log output format.
	LogFormat string `json:"log_format,omitempty" validate:"omitempty,oneof=console json"`

	// TraceExporter selects the trace exporter.
	TraceExporter string `json:"trace_exporter,omitempty" validate:"omitempty,oneof=otlp stdout none"`

	// TraceEndpoint is the OTLP endpoint when the exporter is otlp.
	TraceEndpoint string `json:"trace_endpoint,omitempty"`

	// MetricsEnabled turns on prometheus metrics collection.
	MetricsEnabled bool `json:"metrics_enabled,omitempty"`

	// MetricsAddress is the listen address for the metrics endpoint, used by
	// long-lived modes.
	MetricsAddress string `json:"metrics_address,omitempty"`
}

// PolicyConfig configures write-policy enforcement.
type PolicyConfig struct {
	// Enabled indicates if policy enforcement is enabled.
	Enabled bool `json:"enabled"`

	// Paths lists policy file paths.
	Paths []string `json:"paths,omitempty"`

	// Mode is the enforcement mode (advisory, enforcing).
	Mode string `json:"mode,omitempty" validate:"omitempty,oneof=advisory enforcing"`

	// OnViolation specifies the action on violation (warn, fail).
	OnViolation string `json:"on_violation,omitempty" validate:"omitempty,oneof=warn fail"`
}

// ParsedConfig represents the fully parsed configuration from CUE.
type ParsedConfig struct {
	// Workspace is the workspace configuration.
	Workspace WorkspaceConfig `json:"workspace"`

	// Artifacts are all artifacts defined in the configuration.
	Artifacts []ArtifactConfig `json:"artifacts"`

	// SourceFiles are the CUE files that were parsed.
	SourceFiles []string `json:"source_files"`

	// ParsedAt is when the configuration was parsed.
	ParsedAt time.Time `json:"parsed_at"`

	// Errors lists any validation errors.
	Errors []ValidationError `json:"errors,omitempty"`
}

// ArtifactByID returns the artifact with the given id, or nil.
func (pc *ParsedConfig) ArtifactByID(id string) *ArtifactConfig {
	for i := range pc.Artifacts {
		if pc.Artifacts[i].ID == id {
			return &pc.Artifacts[i]
		}
	}
	return nil
}

// ValidationError represents a validation error with location information.
type ValidationError struct {
	// File is the source file path.
	File string `json:"file,omitempty"`

	// Line is the line number (1-indexed).
	Line int `json:"line,omitempty"`

	// Column is the column number (1-indexed).
	Column int `json:"column,omitempty"`

	// Path is the CUE path to the error (e.g., "artifacts.user_repository.output").
	Path string `json:"path,omitempty"`

	// Message is the error message.
	Message string `json:"message"`

	// Severity is the error severity (error, warning, info).
	Severity string `json:"severity" validate:"required,oneof=error warning info"`
}

// ConfigSource represents a source of CUE configuration.
type ConfigSource struct {
	// Type is the source type (file, directory, inline).
	Type string `json:"type" validate:"required,oneof=file directory inline"`

	// Path is the file or directory path.
	Path string `json:"path,omitempty"`

	// Content is the inline CUE content.
	Content string `json:"content,omitempty"`
}

// EvaluateOptions controls CUE evaluation behavior.
type EvaluateOptions struct {
	// Package is the CUE package to evaluate.
	Package string `json:"package,omitempty"`

	// Tags are CUE build tags (e.g., "env=prod").
	Tags []string `json:"tags,omitempty"`

	// Concrete requires all values to be concrete (no unresolved references).
	Concrete bool `json:"concrete"`

	// ValidateSchemas enables schema validation during evaluation.
	ValidateSchemas bool `json:"validate_schemas"`

	// AllowStarlark enables Starlark context-script execution.
	AllowStarlark bool `json:"allow_starlark"`

	// StarlarkTimeout is the timeout for Starlark execution.
	StarlarkTimeout time.Duration `json:"starlark_timeout,omitempty"`
}

// StarlarkResult represents the result of a context-script execution.
type StarlarkResult struct {
	// Output is the output data from Starlark.
	Output map[string]interface{} `json:"output,omitempty"`

	// ExecutionTime is how long the script took to execute.
	ExecutionTime time.Duration `json:"execution_time"`

	// Error is any error that occurred.
	Error string `json:"error,omitempty"`
}
