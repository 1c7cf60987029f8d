package fallback

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Lacoz/virta/pipeline"
)

// fakeOrchestrated is a test double standing in for an out-of-process
// orchestrator: it never runs steps for real, it just hands back a
// canned result while recording that it was invoked.
type fakeOrchestrated struct {
	invoked bool
	result  *pipeline.Result
	err     error
}

func (f *fakeOrchestrated) Run(ctx context.Context, def *pipeline.Definition, c *pipeline.Context) (*pipeline.Result, error) {
	f.invoked = true
	if f.result != nil {
		return f.result, f.err
	}
	res, err := pipeline.Run(ctx, def, c)
	return res, err
}

func sleepyStep(d time.Duration) pipeline.Step {
	return pipeline.StepFunc(func(ctx context.Context, c *pipeline.Context) error {
		time.Sleep(d)
		return nil
	})
}

func TestUnifiedRunner_RunInline_Success(t *testing.T) {
	def := pipeline.NewDefinition()
	def.Add("a", pipeline.StepFunc(func(ctx context.Context, c *pipeline.Context) error { return nil }))

	r := &UnifiedRunner{BudgetMs: 5000}
	c0 := pipeline.NewContext(nil, nil)
	res, err := r.Run(context.Background(), def, c0, RunInline, HybridSplit{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != pipeline.StatusSuccess {
		t.Fatalf("expected success, got %v", res.Status)
	}
}

// TestUnifiedRunner_RunAuto_FallsBackToOrchestratedOnBudgetExhausted
// verifies a tiny budget that the inline stage blows through, with no
// hybrid split supplied, routes straight to the orchestrated executor.
// Exhaustion is detected at the second level's boundary, so the
// pipeline needs two levels.
func TestUnifiedRunner_RunAuto_FallsBackToOrchestratedOnBudgetExhausted(t *testing.T) {
	def := pipeline.NewDefinition()
	def.Add("a", sleepyStep(50*time.Millisecond))
	def.Add("b", sleepyStep(0), pipeline.DependsOn("a"))

	orch := &fakeOrchestrated{result: &pipeline.Result{Status: pipeline.StatusSuccess}}
	r := &UnifiedRunner{BudgetMs: 5, Orchestrated: orch}

	c0 := pipeline.NewContext(nil, nil)
	res, err := r.Run(context.Background(), def, c0, RunAuto, HybridSplit{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !orch.invoked {
		t.Fatal("expected orchestrated executor to be invoked after budget exhaustion")
	}
	if res.Status != pipeline.StatusSuccess {
		t.Fatalf("expected success from orchestrated fallback, got %v", res.Status)
	}
}

// TestUnifiedRunner_RunAuto_RecordsBudgetExhaustedMetric verifies a
// budget-exhausted transition increments RunnerMetrics. As above, the
// second level's boundary is where exhaustion is detected.
func TestUnifiedRunner_RunAuto_RecordsBudgetExhaustedMetric(t *testing.T) {
	def := pipeline.NewDefinition()
	def.Add("a", sleepyStep(50*time.Millisecond))
	def.Add("b", sleepyStep(0), pipeline.DependsOn("a"))

	reg := prometheus.NewRegistry()
	metrics := pipeline.NewRunnerMetrics(reg)
	orch := &fakeOrchestrated{result: &pipeline.Result{Status: pipeline.StatusSuccess}}
	r := &UnifiedRunner{BudgetMs: 5, Orchestrated: orch, Metrics: metrics, RunID: "run-1"}

	c0 := pipeline.NewContext(nil, nil)
	if _, err := r.Run(context.Background(), def, c0, RunAuto, HybridSplit{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := testutil.ToFloat64(metrics.BudgetExhaustedCounter("run-1"))
	if got != 1 {
		t.Errorf("expected budget_exhausted_total = 1, got %v", got)
	}
}

// TestUnifiedRunner_RunAuto_PropagatesNonBudgetError verifies a plain
// step failure never advances the fallback chain.
func TestUnifiedRunner_RunAuto_PropagatesNonBudgetError(t *testing.T) {
	boom := errors.New("boom")
	def := pipeline.NewDefinition()
	def.Add("a", pipeline.StepFunc(func(ctx context.Context, c *pipeline.Context) error { return boom }))

	orch := &fakeOrchestrated{}
	r := &UnifiedRunner{BudgetMs: 5000, Orchestrated: orch}

	c0 := pipeline.NewContext(nil, nil)
	res, err := r.Run(context.Background(), def, c0, RunAuto, HybridSplit{})
	if err != nil {
		t.Fatalf("unexpected construction error: %v", err)
	}
	if res.Status != pipeline.StatusError {
		t.Fatalf("expected error status, got %v", res.Status)
	}
	if orch.invoked {
		t.Fatal("expected orchestrated executor to never be invoked for a non-budget failure")
	}
}

// TestUnifiedRunner_RunHybrid_MergesResults verifies the inline prefix
// and orchestrated suffix results are merged into a single Result, and
// that the suffix's Source is seeded from the prefix's Target.
func TestUnifiedRunner_RunHybrid_MergesResults(t *testing.T) {
	def := pipeline.NewDefinition()
	def.Add("a", pipeline.StepFunc(func(ctx context.Context, c *pipeline.Context) error {
		c.Target = "from-a"
		return nil
	}))
	def.Add("b", pipeline.StepFunc(func(ctx context.Context, c *pipeline.Context) error {
		if c.Source != "from-a" {
			t.Errorf("expected suffix Source seeded from prefix Target, got %v", c.Source)
		}
		return nil
	}), pipeline.DependsOn("a"))

	orch := &fakeOrchestrated{}
	r := &UnifiedRunner{BudgetMs: 5000, Orchestrated: orch}

	split := HybridSplit{InlineTokens: []pipeline.Token{"a"}, OrchestratedTokens: []pipeline.Token{"b"}}
	c0 := pipeline.NewContext(nil, nil)
	res, err := r.Run(context.Background(), def, c0, RunHybrid, split)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !orch.invoked {
		t.Fatal("expected orchestrated executor to run the suffix")
	}
	if res.Status != pipeline.StatusSuccess {
		t.Fatalf("expected success, got %v", res.Status)
	}
	if len(res.Executed) != 2 {
		t.Errorf("expected both prefix and suffix executed tokens merged, got %v", res.Executed)
	}
	if len(res.CompletedLevels) != 2 {
		t.Errorf("expected prefix and suffix levels merged, got %v", res.CompletedLevels)
	}
}
