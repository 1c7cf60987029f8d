package planner

import (
	"testing"

	"github.com/Lacoz/virta/model"
	"github.com/Lacoz/virta/pipeline"
)

func chain(ids ...string) *model.Graph {
	nodes := make([]model.Node, 0, len(ids))
	for i, id := range ids {
		n := model.Node{ID: id, Kind: model.KindTask}
		if i > 0 {
			n.DependsOn = []string{ids[i-1]}
		}
		nodes = append(nodes, n)
	}
	return &model.Graph{Nodes: nodes}
}

func timingMeta(p99 ...int64) MetadataByID {
	m := make(MetadataByID)
	ids := []string{"a", "b", "c"}
	for i, v := range p99 {
		if i >= len(ids) {
			break
		}
		m[ids[i]] = pipeline.StepMetadata{Timing: pipeline.Timing{P50Ms: v / 2, P99Ms: v}}
	}
	return m
}

// TestCompute_LinearChainSumsAllNodes verifies the critical path of a
// linear chain is the whole chain, summing every node's pessimistic
// time.
func TestCompute_LinearChainSumsAllNodes(t *testing.T) {
	g := chain("a", "b", "c")
	meta := timingMeta(100, 200, 300)

	cp, err := Compute(g, meta)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cp.PessimisticMs != 600 {
		t.Errorf("expected pessimistic sum 600, got %d", cp.PessimisticMs)
	}
	if len(cp.NodeIDs) != 3 || cp.NodeIDs[0] != "a" || cp.NodeIDs[2] != "c" {
		t.Errorf("expected path [a b c], got %v", cp.NodeIDs)
	}
}

// TestCompute_ChoosesLongerBranch verifies a fan-in node's critical
// path follows the predecessor with the larger pessimistic time.
func TestCompute_ChoosesLongerBranch(t *testing.T) {
	g := &model.Graph{Nodes: []model.Node{
		{ID: "root", Kind: model.KindTask},
		{ID: "short", Kind: model.KindTask, DependsOn: []string{"root"}},
		{ID: "long", Kind: model.KindTask, DependsOn: []string{"root"}},
		{ID: "sink", Kind: model.KindTask, DependsOn: []string{"short", "long"}},
	}}
	meta := MetadataByID{
		"root":  pipeline.StepMetadata{Timing: pipeline.Timing{P50Ms: 50, P99Ms: 100}},
		"short": pipeline.StepMetadata{Timing: pipeline.Timing{P50Ms: 25, P99Ms: 50}},
		"long":  pipeline.StepMetadata{Timing: pipeline.Timing{P50Ms: 150, P99Ms: 300}},
		"sink":  pipeline.StepMetadata{Timing: pipeline.Timing{P50Ms: 25, P99Ms: 50}},
	}

	cp, err := Compute(g, meta)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cp.PessimisticMs != 450 {
		t.Errorf("expected pessimistic sum 450 (via long branch), got %d", cp.PessimisticMs)
	}
	found := false
	for _, id := range cp.NodeIDs {
		if id == "long" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected critical path to include 'long', got %v", cp.NodeIDs)
	}
}

// TestCompute_NoEntries verifies an all-dependent graph (a cycle, in
// practice) fails with no-entries.
func TestCompute_NoEntries(t *testing.T) {
	g := &model.Graph{Nodes: []model.Node{
		{ID: "a", DependsOn: []string{"b"}},
		{ID: "b", DependsOn: []string{"a"}},
	}}
	_, err := Compute(g, MetadataByID{})
	if err == nil {
		t.Fatal("expected no-entries error, got nil")
	}
}
