// Package merge implements the regeneration-safe merge engine.
//
// A source generator overwrites its artifacts on every run. The merge engine
// decides, per artifact, how newly generated content interacts with whatever
// already exists at the target:
//
//   - ModeOverwrite replaces the target unconditionally.
//   - ModeMergeCustomBlocks re-emits the template but preserves the content
//     of every custom block (see package blocks) the user edited in the
//     previous file.
//   - ModeKeepExisting writes only on first-time creation.
//   - ModeFailIfExists treats an existing target as an error.
//
// The Merger is the single entry point:
//
//	merger := merge.NewMerger(blocks.NewParser("hexaglue"), reporter)
//	resp, err := merger.Merge(ctx, merge.NewRequest(rendered, merge.ModeMergeCustomBlocks).
//		WithExisting(onDisk).
//		WithLocation("internal/adapters/user_repo.go"))
//
// A failed merge never corrupts the target: either resp.FinalContent holds
// the fully merged content (Action == ActionWrite), or nothing may be
// written and a diagnostic explains exactly which line and block id caused
// the failure. Custom blocks that vanish from the template ("orphans") are
// reported as warnings and never block a write.
//
// Everything in this package is pure and stateless; a single Merger may be
// used concurrently from any number of goroutines.
package merge
