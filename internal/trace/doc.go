// Package trace records structured timing events for IR generation.
//
// Events are spans (begin/end pairs) or points, tagged with a Scope that
// says how coarse they are. The Level of a tracer decides which scopes are
// kept:
//
//   - LevelPhase: driver and per-unit spans
//   - LevelDetail: adds finalize steps and other passes
//   - LevelDebug: adds individual emission events
//
// Tracers either stream events to a writer (text or NDJSON), keep the most
// recent ones in a ring buffer, or both. A tracer travels with the context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopeUnit, "unit:core", 0)
//	defer span.End("")
package trace
