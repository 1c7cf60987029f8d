package planner

import (
	"strings"
	"testing"

	"github.com/Lacoz/virta/pipeline"
)

// TestPlan_OrchestratedWhenOverBudget verifies the literal example from
// the end-to-end scenarios: a 2-node chain whose pessimistic sum
// exceeds the safe budget forces orchestrated, and the reasoning names
// the safe-budget value.
func TestPlan_OrchestratedWhenOverBudget(t *testing.T) {
	g := chain("a", "b")
	meta := MetadataByID{
		"a": pipeline.StepMetadata{Timing: pipeline.Timing{P50Ms: 300000, P99Ms: 600000}},
		"b": pipeline.StepMetadata{Timing: pipeline.Timing{P50Ms: 200000, P99Ms: 400000}},
	}

	plan, err := Plan(g, meta, Config{BudgetMs: 720000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Mode != ModeOrchestrated {
		t.Fatalf("expected ModeOrchestrated, got %v", plan.Mode)
	}

	found := false
	for _, r := range plan.Reasoning {
		if strings.Contains(r, "648000") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected reasoning to mention safe budget 648000, got %v", plan.Reasoning)
	}
}

// TestPlan_NeverInlineWhenNearBudget verifies a 3-node chain near
// budget resolves to hybrid or orchestrated, never inline.
func TestPlan_NeverInlineWhenNearBudget(t *testing.T) {
	g := chain("a", "b", "c")
	meta := MetadataByID{
		"a": pipeline.StepMetadata{Timing: pipeline.Timing{P50Ms: 150000, P99Ms: 300000}},
		"b": pipeline.StepMetadata{Timing: pipeline.Timing{P50Ms: 150000, P99Ms: 300000}},
		"c": pipeline.StepMetadata{Timing: pipeline.Timing{P50Ms: 100000, P99Ms: 200000}},
	}

	plan, err := Plan(g, meta, Config{BudgetMs: 720000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Mode == ModeInline {
		t.Fatalf("expected hybrid or orchestrated, got inline")
	}
	if plan.Mode == ModeHybrid {
		all := append(append([]string(nil), plan.InlineNodes...), plan.OrchestratedNodes...)
		if len(all) != 3 {
			t.Errorf("expected inline+orchestrated to cover all 3 nodes, got %v", all)
		}
	}
}

// TestPlan_InlineWhenWellUnderBudget verifies a trivially cheap chain
// resolves to inline.
func TestPlan_InlineWhenWellUnderBudget(t *testing.T) {
	g := chain("a", "b")
	meta := MetadataByID{
		"a": pipeline.StepMetadata{Timing: pipeline.Timing{P50Ms: 10, P99Ms: 20}},
		"b": pipeline.StepMetadata{Timing: pipeline.Timing{P50Ms: 10, P99Ms: 20}},
	}

	plan, err := Plan(g, meta, Config{BudgetMs: 720000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Mode != ModeInline {
		t.Fatalf("expected ModeInline, got %v", plan.Mode)
	}
}

// TestPlan_OrchestratedOnlyPlacementForcesOrchestrated verifies rule 1:
// any orchestrated-only node forces orchestrated regardless of timing.
func TestPlan_OrchestratedOnlyPlacementForcesOrchestrated(t *testing.T) {
	g := chain("a", "b")
	meta := MetadataByID{
		"a": pipeline.StepMetadata{Placement: pipeline.PlacementOrchestratedOnly, Timing: pipeline.Timing{P50Ms: 1, P99Ms: 2}},
		"b": pipeline.StepMetadata{Timing: pipeline.Timing{P50Ms: 1, P99Ms: 2}},
	}

	plan, err := Plan(g, meta, Config{BudgetMs: 720000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Mode != ModeOrchestrated {
		t.Fatalf("expected ModeOrchestrated, got %v", plan.Mode)
	}
}

// TestPlan_Deterministic verifies identical inputs produce identical
// mode and reasoning, per §8's determinism property.
func TestPlan_Deterministic(t *testing.T) {
	g := chain("a", "b", "c")
	meta := MetadataByID{
		"a": pipeline.StepMetadata{Timing: pipeline.Timing{P50Ms: 150000, P99Ms: 300000}},
		"b": pipeline.StepMetadata{Timing: pipeline.Timing{P50Ms: 150000, P99Ms: 300000}},
		"c": pipeline.StepMetadata{Timing: pipeline.Timing{P50Ms: 100000, P99Ms: 200000}},
	}
	cfg := Config{BudgetMs: 720000}

	p1, err := Plan(g, meta, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p2, err := Plan(g, meta, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p1.Mode != p2.Mode || len(p1.Reasoning) != len(p2.Reasoning) {
		t.Errorf("expected identical plans, got %v and %v", p1, p2)
	}
}

