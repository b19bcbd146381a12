// Package stores provides the generation manifest: a SQLite-backed record of
// every generation run, the per-artifact outcomes, and the content hash last
// written to each output path.
//
// The manifest serves two purposes. It is an audit trail (which run produced
// which file, with what merge mode and action), and it enables drift
// detection: comparing a file's current hash against file_state reveals
// out-of-band edits to generated regions.
//
// # Usage
//
//	store, err := stores.NewSQLiteStore(stores.Config{Path: ".hexaglue/manifest.db"})
//	if err != nil { ... }
//	if err := store.Init(ctx); err != nil { ... }
//	defer store.Close()
//	if err := store.Migrate(ctx); err != nil { ... }
//
//	run := &stores.Run{ID: runID, Workspace: "shop-backend", ...}
//	if err := store.CreateRun(ctx, run); err != nil { ... }
//
// The store uses modernc.org/sqlite (pure Go, no cgo) with WAL mode and
// foreign keys enabled. Schema migrations are embedded and applied with
// golang-migrate.
package stores
