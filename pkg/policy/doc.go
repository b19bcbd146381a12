// Package policy provides OPA-based write policies for generated artifacts.
//
// Before an artifact write the generator builds a WriteInput (the artifact's
// merge mode, the state of the existing file, the run context) and asks the
// Engine whether the write is allowed. Policies are Rego modules whose deny
// rules yield violations; a violation with severity error or critical blocks
// the write in enforcing mode.
//
// Built-in policies guard against the classic generator accidents:
//
//   - protect-custom-blocks: overwrite of a file that holds custom blocks
//   - output-path-safety: absolute paths or ".." escaping the output root
//   - declared-blocks: block ids declared under a mode that ignores them
//   - protected-artifacts: writes to artifacts labelled protected=true
//
// Additional .rego or .json policy files are loaded from the workspace's
// policy paths, and the Loader can watch those paths with fsnotify to reload
// on change.
package policy
