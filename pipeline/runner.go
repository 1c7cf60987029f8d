package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/Lacoz/virta/observe"
)

// Status is the terminal state of a Run, per spec §3/§8.
type Status string

const (
	StatusSuccess Status = "success"
	StatusStopped Status = "stopped"
	StatusError   Status = "error"
)

// Result is the structured, deterministic report a Run produces: the
// terminal status, the shared context as left by the run, any captured
// step failures, the successfully-completed steps in completion order,
// and every level that was fully awaited (including the one that
// produced the terminal condition).
type Result struct {
	Status          Status
	Ctx             *Context
	Errors          []*StepFailure
	Executed        []Token
	CompletedLevels [][]Token
}

// Run executes a Definition against ctx0. The returned error is non-nil
// only for construction-time (leveler) failures — cycle, unknown
// dependency, duplicate registration — matching the spec's split
// between fatal structural errors and execution errors captured in
// Result. When err is non-nil, the returned *Result still carries
// Status: StatusError with no Executed steps, so callers that only
// inspect Result see a consistent shape either way.
func Run(ctx context.Context, def *Definition, ctx0 *Context, opts ...Option) (*Result, error) {
	o := resolveOptions(opts)
	emitter := o.Emitter

	levels, err := buildLevels(def)
	if err != nil {
		res := &Result{Status: StatusError, Ctx: ctx0}
		emitter.Emit(observe.Event{RunID: o.RunID, Msg: "run_end", Meta: map[string]any{"status": string(StatusError), "error": err.Error()}})
		return res, err
	}

	steps := make(map[Token]Step, def.Len())
	for i := range def.entries {
		steps[def.entries[i].token] = def.entries[i].step
	}

	o.Hooks.beforePipeline(ctx, ctx0)
	emitter.Emit(observe.Event{RunID: o.RunID, Msg: "run_start"})

	res := &Result{Ctx: ctx0}

	for levelIdx, level := range levels {
		o.Metrics.setLevelQueue(len(levels) - levelIdx)
		o.Hooks.beforeLevel(ctx, level, ctx0)
		emitter.Emit(observe.Event{RunID: o.RunID, Level: levelIdx + 1, Msg: "level_start", Meta: map[string]any{"size": len(level)}})

		var wg sync.WaitGroup
		var mu sync.Mutex
		var executedThisLevel []Token
		var failuresThisLevel []*StepFailure

		o.Metrics.setActiveSteps(len(level))
		for i, token := range level {
			wg.Add(1)
			go func(token Token, indexInLevel int) {
				defer wg.Done()
				runStep(ctx, steps[token], token, ctx0, o, levelIdx, indexInLevel, &mu, &executedThisLevel, &failuresThisLevel)
			}(token, i)
		}
		wg.Wait()
		o.Metrics.setActiveSteps(0)

		res.CompletedLevels = append(res.CompletedLevels, level)
		res.Executed = append(res.Executed, executedThisLevel...)
		res.Errors = append(res.Errors, failuresThisLevel...)

		o.Hooks.afterLevel(ctx, level, ctx0)
		emitter.Emit(observe.Event{RunID: o.RunID, Level: levelIdx + 1, Msg: "level_end", Meta: map[string]any{"failed": len(failuresThisLevel) > 0}})

		if len(failuresThisLevel) > 0 {
			res.Status = StatusError
			break
		}
		if ctx0.Stopped() {
			res.Status = StatusStopped
			break
		}
		if ctx0.Err() != nil {
			res.Status = StatusError
			break
		}
	}

	if res.Status == "" {
		res.Status = StatusSuccess
	}

	o.Hooks.afterPipeline(ctx, res)
	emitter.Emit(observe.Event{RunID: o.RunID, Msg: "run_end", Meta: map[string]any{"status": string(res.Status)}})

	return res, nil
}

// runStep executes a single step, recording its completion (success or
// failure) into the level-local accumulators under mu, and invoking
// hooks/emitter around the call.
func runStep(
	ctx context.Context,
	step Step,
	token Token,
	c *Context,
	o RunOptions,
	levelIdx, indexInLevel int,
	mu *sync.Mutex,
	executed *[]Token,
	failures *[]*StepFailure,
) {
	o.Hooks.beforeStep(ctx, token, c)
	key := computeOrderKey(levelIdx, indexInLevel)
	o.Emitter.Emit(observe.Event{RunID: o.RunID, Level: levelIdx + 1, Token: tokenLabel(token), Msg: "step_start", Meta: map[string]any{"order_key": key}})

	start := time.Now()
	err := step.Run(ctx, c)
	elapsed := time.Since(start)

	if err != nil {
		c.SetError(err)
		o.Hooks.onStepError(ctx, token, err, c)
		o.Emitter.Emit(observe.Event{RunID: o.RunID, Level: levelIdx + 1, Token: tokenLabel(token), Msg: "step_error", Meta: map[string]any{"error": err.Error()}})
		o.Metrics.observeLatency(o.RunID, "error", float64(elapsed.Milliseconds()))

		mu.Lock()
		*failures = append(*failures, &StepFailure{Token: token, Err: err})
		mu.Unlock()
		return
	}

	o.Hooks.afterStep(ctx, token, c)
	o.Emitter.Emit(observe.Event{RunID: o.RunID, Level: levelIdx + 1, Token: tokenLabel(token), Msg: "step_end", Meta: map[string]any{"duration_ms": elapsed.Milliseconds()}})
	o.Metrics.observeLatency(o.RunID, "success", float64(elapsed.Milliseconds()))

	mu.Lock()
	*executed = append(*executed, token)
	mu.Unlock()
}
