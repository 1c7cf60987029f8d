// Package observe provides event emission for pipeline, planner, and
// fallback execution, generalizing the teacher's graph/emit package to
// Virta's step/level vocabulary.
package observe

import "context"

// Emitter receives observability events from a run. Implementations
// should be non-blocking and thread-safe: Emit may be called
// concurrently from every step in a level.
type Emitter interface {
	// Emit sends a single event. Must not block execution or panic.
	Emit(event Event)

	// EmitBatch sends multiple events in one call, preserving order.
	// Returns an error only on catastrophic failure; individual event
	// delivery failures should be swallowed, not returned.
	EmitBatch(ctx context.Context, events []Event) error

	// Flush blocks until any buffered events have been delivered.
	Flush(ctx context.Context) error
}
