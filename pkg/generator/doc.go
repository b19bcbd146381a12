// Package generator orchestrates generation runs. A Runner takes a parsed
// workspace configuration, plans its artifacts (resolving paths, merge
// modes, and template context), then processes them in declaration order:
// render the template, consult the write policies, hand the rendered content
// and the current on-disk file to the merge engine, and write the outcome
// atomically.
//
// Every write goes through the merge engine; the runner never clobbers a
// file directly, so custom blocks survive regeneration regardless of the
// artifact's mode. When the workspace enables the manifest, each run and
// each artifact outcome is recorded in the SQLite store together with the
// content hash of what was written, which later runs use for drift
// detection.
//
// A run never aborts because one artifact failed: failures are captured per
// artifact in the RunResult and the remaining artifacts still execute.
package generator
