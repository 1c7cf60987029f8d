package observe

// Event is an observability event emitted during a pipeline run. The
// core never logs (spec §7: "warnings are caller-visible data"); Event
// is the data shape callers subscribe to instead, mirroring the
// teacher's emit.Event.
type Event struct {
	// RunID identifies the run that produced this event.
	RunID string

	// Level is the 1-indexed level number; zero for run-level events
	// (run_start, run_end).
	Level int

	// Token is the string form of the step token that produced this
	// event; empty for level- or run-level events.
	Token string

	// Msg is a short machine-stable event name: "run_start",
	// "level_start", "step_start", "step_end", "step_error",
	// "level_end", "run_end".
	Msg string

	// Meta carries event-specific structured data, e.g. "duration_ms",
	// "error", "order_key", "attempt".
	Meta map[string]any
}
