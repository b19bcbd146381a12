package policy

import (
	"time"
)

// GetBuiltinPolicies returns all built-in write policies.
func GetBuiltinPolicies() []Policy {
	return []Policy{
		protectCustomBlocksPolicy(),
		outputPathSafetyPolicy(),
		declaredBlocksPolicy(),
		protectedArtifactsPolicy(),
	}
}

// protectCustomBlocksPolicy blocks destructive merge modes on files that
// contain custom blocks.
func protectCustomBlocksPolicy() Policy {
	return Policy{
		Name:        "protect-custom-blocks",
		Description: "Blocks overwrite of existing files that contain custom blocks",
		Severity:    SeverityError,
		Enabled:     true,
		Tags:        []string{"blocks", "safety"},
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
		Rego: `package hexaglue.policies.blocks

import rego.v1

# Overwriting a file that holds custom blocks silently discards user code.
deny contains violation if {
	input.artifact.merge_mode == "overwrite"
	input.file.exists
	input.file.has_custom_blocks

	violation := {
		"message": sprintf("Artifact %s would overwrite %s which contains custom blocks %v", [input.artifact.id, input.artifact.output_path, input.file.custom_block_ids]),
		"severity": "error",
		"artifact": input.artifact.id,
	}
}`,
	}
}

// outputPathSafetyPolicy keeps generated files inside the output root.
func outputPathSafetyPolicy() Policy {
	return Policy{
		Name:        "output-path-safety",
		Description: "Rejects absolute output paths and paths escaping the output root",
		Severity:    SeverityError,
		Enabled:     true,
		Tags:        []string{"paths", "safety"},
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
		Rego: `package hexaglue.policies.paths

import rego.v1

deny contains violation if {
	startswith(input.artifact.output_path, "/")

	violation := {
		"message": sprintf("Artifact %s has absolute output path %s", [input.artifact.id, input.artifact.output_path]),
		"severity": "error",
		"artifact": input.artifact.id,
	}
}

deny contains violation if {
	contains(input.artifact.output_path, "..")

	violation := {
		"message": sprintf("Artifact %s output path %s escapes the output root", [input.artifact.id, input.artifact.output_path]),
		"severity": "error",
		"artifact": input.artifact.id,
	}
}`,
	}
}

// declaredBlocksPolicy flags block declarations that the merge mode ignores.
func declaredBlocksPolicy() Policy {
	return Policy{
		Name:        "declared-blocks",
		Description: "Warns when custom block ids are declared but the merge mode never preserves them",
		Severity:    SeverityWarning,
		Enabled:     true,
		Tags:        []string{"blocks", "configuration"},
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
		Rego: `package hexaglue.policies.declared

import rego.v1

deny contains violation if {
	count(input.artifact.custom_block_ids) > 0
	input.artifact.merge_mode != "merge_custom_blocks"

	violation := {
		"message": sprintf("Artifact %s declares custom block ids but uses merge mode %s", [input.artifact.id, input.artifact.merge_mode]),
		"severity": "warning",
		"artifact": input.artifact.id,
	}
}`,
	}
}

// protectedArtifactsPolicy blocks non-dry-run writes to artifacts labelled
// protected.
func protectedArtifactsPolicy() Policy {
	return Policy{
		Name:        "protected-artifacts",
		Description: "Blocks writes to artifacts labelled protected=true unless dry-run",
		Severity:    SeverityCritical,
		Enabled:     true,
		Tags:        []string{"labels", "safety"},
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
		Rego: `package hexaglue.policies.protected

import rego.v1

deny contains violation if {
	input.artifact.labels.protected == "true"
	input.file.exists
	not input.context.dry_run

	violation := {
		"message": sprintf("Artifact %s is labelled protected and %s already exists", [input.artifact.id, input.artifact.output_path]),
		"severity": "critical",
		"artifact": input.artifact.id,
	}
}`,
	}
}
