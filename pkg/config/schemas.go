package config

import (
	"context"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// SchemaRegistry manages CUE schemas for validation.
type SchemaRegistry struct {
	ctx     *cue.Context
	schemas map[string]cue.Value
	mu      sync.RWMutex
}

// NewSchemaRegistry creates a new schema registry with built-in schemas.
func NewSchemaRegistry() *SchemaRegistry {
	ctx := cuecontext.New()
	sr := &SchemaRegistry{
		ctx:     ctx,
		schemas: make(map[string]cue.Value),
	}

	sr.registerBuiltInSchemas()

	return sr
}

// registerBuiltInSchemas registers all built-in schemas.
func (sr *SchemaRegistry) registerBuiltInSchemas() {
	sr.RegisterSchema("workspace", builtinWorkspaceSchema)
	sr.RegisterSchema("artifact", builtinArtifactSchema)
	sr.RegisterSchema("policy", builtinPolicySchema)
	sr.RegisterSchema("manifest", builtinManifestSchema)
}

// RegisterSchema registers a CUE schema with the given name.
func (sr *SchemaRegistry) RegisterSchema(name, schema string) error {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	val := sr.ctx.CompileString(schema)
	if err := val.Err(); err != nil {
		return fmt.Errorf("failed to compile schema %s: %w", name, err)
	}

	sr.schemas[name] = val
	return nil
}

// GetSchema retrieves a schema by name.
func (sr *SchemaRegistry) GetSchema(name string) (cue.Value, bool) {
	sr.mu.RLock()
	defer sr.mu.RUnlock()

	val, ok := sr.schemas[name]
	return val, ok
}

// ValidateAgainstSchema validates data against a named schema.
func (sr *SchemaRegistry) ValidateAgainstSchema(ctx context.Context, schemaName string, data interface{}) error {
	schema, ok := sr.GetSchema(schemaName)
	if !ok {
		return fmt.Errorf("schema %s not found", schemaName)
	}

	dataVal := sr.ctx.Encode(data)
	if err := dataVal.Err(); err != nil {
		return fmt.Errorf("failed to encode data: %w", err)
	}

	// Unify with schema (validates)
	unified := schemaValue(schema).Unify(dataVal)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	return nil
}

// schemaValue unwraps a compiled schema: when the source declares a single
// top-level definition (the built-in convention), that definition is the
// constraint to unify with; otherwise the whole value is used.
func schemaValue(schema cue.Value) cue.Value {
	iter, err := schema.Fields(cue.Definitions(true))
	if err != nil {
		return schema
	}
	var def cue.Value
	count := 0
	for iter.Next() {
		if iter.Selector().IsDefinition() {
			def = iter.Value()
			count++
		}
	}
	if count == 1 {
		return def
	}
	return schema
}

// ListSchemas returns all registered schema names.
func (sr *SchemaRegistry) ListSchemas() []string {
	sr.mu.RLock()
	defer sr.mu.RUnlock()

	names := make([]string, 0, len(sr.schemas))
	for name := range sr.schemas {
		names = append(names, name)
	}
	return names
}

// Built-in schema definitions

const builtinWorkspaceSchema = `
// Workspace schema for HexaGlue workspace configuration
#Workspace: {
	// Name is the workspace name
	name: string & =~"^[a-zA-Z0-9_-]+$"

	// Version is the configuration version
	version?: string

	// OutputRoot is the directory artifact outputs are resolved against
	output_root?: string

	// Markers configures the custom-block marker grammar
	markers?: {
		namespace?: string & =~"^[a-zA-Z0-9]+$"
	}

	// Variables are workspace-level template variables
	variables?: {[string]: _}

	// Policy configures write-policy enforcement
	policy?: {
		enabled: bool
		paths?: [...string]
		mode?: "advisory" | "enforcing"
		on_violation?: "warn" | "fail"
	}

	// Manifest configures the generation manifest store
	manifest?: {
		enabled: bool
		path?: string
	}

	// Telemetry configures logging, tracing and metrics
	telemetry?: {
		log_level?: "trace" | "debug" | "info" | "warn" | "error" | "fatal"
		log_format?: "console" | "json"
		trace_exporter?: "otlp" | "stdout" | "none"
		trace_endpoint?: string
		metrics_enabled?: bool
		metrics_address?: string
	}

	// Metadata contains additional workspace metadata
	metadata?: {[string]: _}
}
`

const builtinArtifactSchema = `
// Artifact schema for HexaGlue artifact definitions
#Artifact: {
	// ID is the unique identifier for this artifact
	id: string & =~"^[a-zA-Z0-9_-]+$"

	// Template is the path to the template file
	template: string

	// Output is the path of the generated file
	output: string

	// MergeMode selects how an existing file is treated on regeneration
	merge_mode: "overwrite" | "merge_custom_blocks" | "keep_existing" | "fail_if_exists"

	// CustomBlockIDs lists expected custom block ids
	custom_block_ids?: [...string & =~"^[a-zA-Z0-9_-]+$"]

	// ContextScript computes extra template context
	context_script?: string

	// Variables are artifact-level variables
	variables?: {[string]: _}

	// Labels are key-value pairs for organizing artifacts
	labels?: {[string]: string}
}
`

const builtinPolicySchema = `
// Policy schema for write-policy configuration
#Policy: {
	enabled: bool
	paths?: [...string]
	mode?: "advisory" | "enforcing"
	on_violation?: "warn" | "fail"
}
`

const builtinManifestSchema = `
// Manifest schema for generation manifest configuration
#Manifest: {
	enabled: bool
	path?: string
}
`

// ValidateArtifact validates an artifact configuration against the artifact schema.
func (sr *SchemaRegistry) ValidateArtifact(ctx context.Context, artifact ArtifactConfig) error {
	return sr.ValidateAgainstSchema(ctx, "artifact", artifact)
}

// ValidateWorkspace validates a workspace configuration against the workspace schema.
func (sr *SchemaRegistry) ValidateWorkspace(ctx context.Context, workspace WorkspaceConfig) error {
	return sr.ValidateAgainstSchema(ctx, "workspace", workspace)
}

// ValidatePolicy validates a policy configuration against the policy schema.
func (sr *SchemaRegistry) ValidatePolicy(ctx context.Context, policy PolicyConfig) error {
	return sr.ValidateAgainstSchema(ctx, "policy", policy)
}
