// Package diag defines the diagnostic reporting capability used across
// HexaGlue. The merge engine and the generator treat a Reporter as a
// write-only sink: anomalies (parse errors, merge failures, orphaned custom
// blocks, policy violations) are reported exactly once, in decreasing order
// of severity, and never interpreted further.
//
// Locations are opaque to consumers: they are rendered in messages and logs
// but never parsed or resolved by this package.
package diag
