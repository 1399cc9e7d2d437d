// Package diag defines the diagnostic model shared by the generator, the
// project loader and the build pipeline.
//
// # Data model
//
// Diagnostic is the central record:
//
//   - Severity: Info, Warning or Error (severity.go).
//   - Code: compact numeric identifier with a stable string form (codes.go).
//     IR generation uses two distinct codes, IRGenUnimplemented and
//     IRGenFailure, so that pipeline policy can tell them apart.
//   - Message: short, actionable text.
//   - Primary: the source.Span the diagnostic points at, or source.NoSpan.
//   - Notes: optional secondary spans.
//
// # Emitting diagnostics
//
// Producers write through a Reporter and never keep diagnostics themselves.
// BagReporter accumulates into a Bag; callers poll Bag.HasErrors (or
// MaxSeverity) to decide whether to abort before consuming generated output.
// DedupReporter filters repeats, MultiReporter fans out.
//
// # Rendering
//
// FormatShort produces the single-line-per-entry form used by the CLI and in
// tests. Richer rendering is left to callers.
package diag
