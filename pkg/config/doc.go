// Package config provides CUE configuration parsing and Starlark evaluation
// for HexaGlue workspaces.
//
// # Overview
//
// The config package implements the configuration phase of a generation run:
// parsing workspace CUE files, validating schemas, and executing Starlark
// context scripts that compute extra template context.
//
// # Features
//
//   - CUE configuration parsing from files, directories, and inline content
//   - Schema validation with built-in schemas for workspaces and artifacts
//   - Starlark context-script execution for computed template context
//   - Type-safe configuration structures
//   - Error reporting with file locations and line numbers
//   - Cross-artifact invariants (unique ids, unique output paths)
//
// # Components
//
// CUEParser: Main parser for workspace CUE files.
//
// SchemaRegistry: Manages CUE schemas for validation. Provides built-in
// schemas for workspaces, artifacts, policies and the manifest store, and
// supports custom schema registration.
//
// StarlarkEvaluator: Safe Starlark script execution with timeout enforcement
// and sandboxing. Provides built-in functions and type conversion between Go
// and Starlark.
//
// # Usage Example
//
//	parser := config.NewCUEParser()
//
//	cfg, err := parser.Load(ctx, []string{"hexaglue.cue"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, artifact := range cfg.Artifacts {
//	    mode, _ := artifact.Mode()
//	    ...
//	}
//
// # CUE Configuration Structure
//
// A workspace declares its artifacts, each bound to a template, an output
// path, and a merge mode:
//
//	workspace: {
//	    name: "shop-backend"
//	    markers: namespace: "hexaglue"
//	    variables: {module: "github.com/acme/shop"}
//	}
//
//	artifacts: {
//	    user_repository: {
//	        template:   "templates/repository.go.tmpl"
//	        output:     "internal/adapters/user_repository.go"
//	        merge_mode: "merge_custom_blocks"
//	        custom_block_ids: ["imports", "methods"]
//	    }
//	}
//
// # Starlark Integration
//
// Artifacts can name a context script whose exported globals extend the
// template context:
//
//	# context.star
//	fields = [{"name": f, "column": f.lower()} for f in entity_fields]
//
// # Security
//
// Starlark execution is sandboxed:
//   - No filesystem access
//   - No network access
//   - Timeout enforcement (default 30 seconds)
//   - Print statements suppressed
//   - Only safe built-in functions provided
//
// # Thread Safety
//
// All types in this package are safe for concurrent use.
package config
