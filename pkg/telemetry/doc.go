// Package telemetry provides logging, tracing, metrics and lifecycle events
// for the HexaGlue generator.
//
// The four concerns are bundled behind one Telemetry handle:
//
//	tel, err := telemetry.NewTelemetry(telemetry.DefaultConfig())
//	if err != nil { ... }
//	defer tel.Shutdown(ctx)
//
//	log := tel.Logger.WithRunID(runID).WithArtifact("user-repository")
//	log.Info("artifact written")
//
// Logging is zerolog-based; metrics are Prometheus collectors exposed over
// HTTP only in long-lived modes (watch); tracing is OpenTelemetry with otlp,
// stdout or no exporter; events are an in-process pub/sub of generator
// lifecycle notifications (run started/completed, artifact written/skipped,
// merge failures, orphaned custom blocks, policy violations).
//
// One-shot CLI invocations typically run with tracing and metrics disabled;
// every Record*/Publish* call is then a no-op, so call sites never branch on
// configuration.
package telemetry
