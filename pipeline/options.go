package pipeline

import "github.com/Lacoz/virta/observe"

// Option is a functional option for Run, following the teacher's
// graph.Option pattern (graph/options.go): chainable, self-documenting,
// and composable with the RunOptions struct for callers who prefer a
// plain literal.
type Option func(*RunOptions)

// RunOptions configures a single Run call. Zero values are valid.
type RunOptions struct {
	// Hooks are the spec's lifecycle callbacks (§4.2).
	Hooks Hooks

	// Emitter receives structured lifecycle events in addition to Hooks
	// being invoked — ambient observability layered under the spec's
	// hook contract, exactly as the teacher layers emit.Emitter under
	// its own engine callbacks. Defaults to observe.NullEmitter.
	Emitter observe.Emitter

	// Metrics, if set, receives scheduler-level gauges/histograms for
	// this run (see RunnerMetrics).
	Metrics *RunnerMetrics

	// RunID labels every emitted Event; defaults to "" if unset.
	RunID string
}

// WithHooks sets the lifecycle hooks for a run.
func WithHooks(h Hooks) Option {
	return func(o *RunOptions) { o.Hooks = h }
}

// WithEmitter sets the observability emitter for a run.
func WithEmitter(e observe.Emitter) Option {
	return func(o *RunOptions) { o.Emitter = e }
}

// WithMetrics attaches a RunnerMetrics collector to a run.
func WithMetrics(m *RunnerMetrics) Option {
	return func(o *RunOptions) { o.Metrics = m }
}

// WithRunID labels emitted events with the given run identifier.
func WithRunID(id string) Option {
	return func(o *RunOptions) { o.RunID = id }
}

func resolveOptions(opts []Option) RunOptions {
	var o RunOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.Emitter == nil {
		o.Emitter = observe.NewNullEmitter()
	}
	return o
}
