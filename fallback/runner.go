package fallback

import (
	"context"

	"github.com/Lacoz/virta/pipeline"
)

// RunMode selects how UnifiedRunner.Run dispatches a Definition. RunAuto
// is the only mode that walks the fallback chain; the other three are
// explicit choices that bypass it entirely, per §4.7.
type RunMode string

const (
	RunAuto         RunMode = "auto"
	RunInline       RunMode = "inline"
	RunHybrid       RunMode = "hybrid"
	RunOrchestrated RunMode = "orchestrated"
)

// OrchestratedExecutor is the external collaborator a deployment wires
// in to actually hand a Definition to an out-of-process orchestrator.
// This package only specifies the boundary; dispatching to a real
// workflow service is out of scope (see SPEC_FULL.md's Non-goals).
type OrchestratedExecutor interface {
	Run(ctx context.Context, def *pipeline.Definition, c *pipeline.Context) (*pipeline.Result, error)
}

// UnifiedRunner drives a Definition through one RunMode, or — for
// RunAuto — through the inline -> hybrid -> orchestrated chain, advancing
// on a budget-exhausted failure and propagating any other error.
type UnifiedRunner struct {
	Orchestrated    OrchestratedExecutor
	BudgetMs        int64
	WarningFraction float64

	// Metrics and RunID, when both set, record each budget-exhausted
	// transition against RunnerMetrics.IncBudgetExhausted.
	Metrics *pipeline.RunnerMetrics
	RunID   string
}

// HybridSplit is the inline/orchestrated token partition a caller
// computes from a planner.PlanResult (resolving the plan's node ids to tokens
// through a registry) before requesting RunHybrid or RunAuto.
type HybridSplit struct {
	InlineTokens       []pipeline.Token
	OrchestratedTokens []pipeline.Token
}

// Run dispatches def against ctx0 according to mode. split is only
// consulted for RunHybrid and RunAuto; it may be the zero value
// otherwise.
func (r *UnifiedRunner) Run(ctx context.Context, def *pipeline.Definition, ctx0 *pipeline.Context, mode RunMode, split HybridSplit) (*pipeline.Result, error) {
	switch mode {
	case RunInline:
		return r.runInline(ctx, def, ctx0)
	case RunOrchestrated:
		return r.Orchestrated.Run(ctx, def, ctx0)
	case RunHybrid:
		return r.runHybrid(ctx, def, ctx0, split)
	default:
		return r.runAuto(ctx, def, ctx0, split)
	}
}

// runAuto implements the §4.7 fallback chain: inline, then hybrid (if a
// split was supplied), then orchestrated — each stage tried only after
// the previous one fails specifically with budget exhaustion.
func (r *UnifiedRunner) runAuto(ctx context.Context, def *pipeline.Definition, ctx0 *pipeline.Context, split HybridSplit) (*pipeline.Result, error) {
	res, err := r.runInline(ctx, def, ctx0)
	if err == nil || !IsBudgetExhausted(err) {
		return res, err
	}

	if len(split.InlineTokens) > 0 && len(split.OrchestratedTokens) > 0 {
		hres, herr := r.runHybrid(ctx, def, pipeline.NewContext(ctx0.Source, ctx0.Target), split)
		if herr == nil || !IsBudgetExhausted(herr) {
			return hres, herr
		}
	}

	return r.Orchestrated.Run(ctx, def, pipeline.NewContext(ctx0.Source, ctx0.Target))
}

// runInline runs def in-process under a fresh Monitor, returning
// ErrBudgetExhausted alongside a StatusStopped result when the budget
// trips before the pipeline reaches a terminal state on its own.
func (r *UnifiedRunner) runInline(ctx context.Context, def *pipeline.Definition, ctx0 *pipeline.Context) (*pipeline.Result, error) {
	monitor := NewMonitor(r.BudgetMs, r.WarningFraction)
	defer monitor.Stop()

	hooks := pipeline.Hooks{
		BeforeLevel: func(_ context.Context, _ []pipeline.Token, c *pipeline.Context) {
			if monitor.IsExhausted() {
				c.SetError(ErrBudgetExhausted("fallback.UnifiedRunner.runInline"))
				c.Stop()
			}
		},
	}

	res, err := pipeline.Run(ctx, def, ctx0, pipeline.WithHooks(hooks))
	if err != nil {
		return res, err
	}
	if res.Status == pipeline.StatusStopped && IsBudgetExhausted(ctx0.Err()) {
		r.Metrics.IncBudgetExhausted(r.RunID)
		return res, ctx0.Err()
	}
	return res, nil
}

// runHybrid runs the inline-assigned tokens in-process, then hands the
// resulting Target as the orchestrated-assigned tokens' Source, merging
// Executed/CompletedLevels from both stages into a single Result.
func (r *UnifiedRunner) runHybrid(ctx context.Context, def *pipeline.Definition, ctx0 *pipeline.Context, split HybridSplit) (*pipeline.Result, error) {
	prefix := subDefinition(def, split.InlineTokens)
	suffix := subDefinition(def, split.OrchestratedTokens)

	prefixCtx := pipeline.NewContext(ctx0.Source, ctx0.Target)
	prefixRes, err := r.runInline(ctx, prefix, prefixCtx)
	if err != nil {
		return prefixRes, err
	}
	if prefixRes.Status != pipeline.StatusSuccess {
		return prefixRes, nil
	}

	suffixCtx := pipeline.NewContext(prefixCtx.Target, prefixCtx.Target)
	suffixRes, err := r.Orchestrated.Run(ctx, suffix, suffixCtx)
	if err != nil {
		return suffixRes, err
	}

	merged := &pipeline.Result{
		Status:          suffixRes.Status,
		Ctx:             suffixCtx,
		Errors:          append(append([]*pipeline.StepFailure{}, prefixRes.Errors...), suffixRes.Errors...),
		Executed:        append(append([]pipeline.Token{}, prefixRes.Executed...), suffixRes.Executed...),
		CompletedLevels: append(append([][]pipeline.Token{}, prefixRes.CompletedLevels...), suffixRes.CompletedLevels...),
	}
	return merged, nil
}

// subDefinition rebuilds a Definition containing only tokens, dropping
// any dependency edge that crosses the boundary (the hybrid handoff
// carries that data through Context.Target instead).
func subDefinition(def *pipeline.Definition, tokens []pipeline.Token) *pipeline.Definition {
	include := make(map[pipeline.Token]bool, len(tokens))
	for _, t := range tokens {
		include[t] = true
	}

	sub := pipeline.NewDefinition()
	for _, t := range tokens {
		step, ok := def.Step(t)
		if !ok {
			continue
		}
		deps, _ := def.Dependencies(t)
		var kept []pipeline.Token
		for _, d := range deps {
			if include[d] {
				kept = append(kept, d)
			}
		}
		meta, _ := def.Metadata(t)
		sub.Add(t, step, pipeline.DependsOn(kept...), pipeline.WithMetadata(meta))
	}
	return sub
}
