package planner

import (
	"fmt"

	"github.com/Lacoz/virta/adapter"
	"github.com/Lacoz/virta/model"
	"github.com/Lacoz/virta/pipeline"
)

// Mode is the execution environment the planner selects.
type Mode string

const (
	ModeInline       Mode = "inline"
	ModeOrchestrated Mode = "orchestrated"
	ModeHybrid       Mode = "hybrid"
)

// DefaultSafetyMargin is applied when Config.SafetyMargin is zero.
const DefaultSafetyMargin = 0.1

// Config configures Plan, per §4.6's cfg = {budgetMs, defaultMode?,
// safetyMargin?=0.1}.
type Config struct {
	BudgetMs     int64
	DefaultMode  Mode
	SafetyMargin float64
}

func (c Config) resolved() Config {
	out := c
	if out.SafetyMargin == 0 {
		out.SafetyMargin = DefaultSafetyMargin
	}
	return out
}

// PlanResult is the planner's output. Neither it nor CriticalPath carries
// JSON tags: encoding/json emits the Go field names, and the critical
// path's OptimisticMs/PessimisticMs sit beside NodeIDs rather than in a
// nested timing object.
type PlanResult struct {
	Mode              Mode
	CriticalPath      *CriticalPath
	InlineNodes       []string
	OrchestratedNodes []string
	Reasoning         []string
}

// Plan implements §4.6: applies the four ordered rules to decide among
// inline, orchestrated, and hybrid execution.
func Plan(g *model.Graph, meta MetadataByID, cfg Config) (*PlanResult, error) {
	cfg = cfg.resolved()

	cp, err := Compute(g, meta)
	if err != nil {
		return nil, err
	}

	var reasoning []string

	// Rule 1: any orchestrated-only node forces orchestrated.
	for _, n := range g.Nodes {
		if meta.resolve(n.ID).Placement == pipeline.PlacementOrchestratedOnly {
			reasoning = append(reasoning, fmt.Sprintf("node %q requires orchestrated-only placement", n.ID))
			return &PlanResult{Mode: ModeOrchestrated, CriticalPath: cp, Reasoning: reasoning}, nil
		}
	}

	safeBudget := int64(float64(cfg.BudgetMs) * (1 - cfg.SafetyMargin))
	reasoning = append(reasoning, fmt.Sprintf("safeBudget = budgetMs*(1-safetyMargin) = %d", safeBudget))

	// Rule 2: critical path alone exceeds the safe budget.
	if cp.PessimisticMs >= safeBudget {
		reasoning = append(reasoning, fmt.Sprintf("critical path pessimistic time %d >= safeBudget %d", cp.PessimisticMs, safeBudget))
		return &PlanResult{Mode: ModeOrchestrated, CriticalPath: cp, Reasoning: reasoning}, nil
	}

	// Rule 3: close enough to the budget to attempt a hybrid cut.
	hybridThreshold := int64(0.8 * float64(safeBudget))
	if cp.PessimisticMs >= hybridThreshold {
		reasoning = append(reasoning, fmt.Sprintf("critical path pessimistic time %d >= 0.8*safeBudget %d, attempting hybrid cut", cp.PessimisticMs, hybridThreshold))
		inline, orchestrated, cutReasoning, ok := hybridCut(g, meta, cp, safeBudget)
		reasoning = append(reasoning, cutReasoning...)
		if ok {
			return &PlanResult{
				Mode:              ModeHybrid,
				CriticalPath:      cp,
				InlineNodes:       inline,
				OrchestratedNodes: orchestrated,
				Reasoning:         reasoning,
			}, nil
		}
		reasoning = append(reasoning, "no valid hybrid cut found, falling back to orchestrated")
		return &PlanResult{Mode: ModeOrchestrated, CriticalPath: cp, Reasoning: reasoning}, nil
	}

	// Rule 4: default.
	reasoning = append(reasoning, fmt.Sprintf("critical path pessimistic time %d below hybrid threshold %d", cp.PessimisticMs, hybridThreshold))
	return &PlanResult{Mode: ModeInline, CriticalPath: cp, Reasoning: reasoning}, nil
}

// hybridCut implements §4.6's hybrid cut algorithm: walk the critical
// path accumulating pess, placing each node into the inline prefix
// while prefix+node.pess <= 0.7*safeBudget, then assign every off-path
// node by dependency (Open Question (b): dependencies only, ignoring
// placement hints).
func hybridCut(g *model.Graph, meta MetadataByID, cp *CriticalPath, safeBudget int64) (inline, orchestrated []string, reasoning []string, ok bool) {
	cutBudget := int64(0.7 * float64(safeBudget))
	reasoning = append(reasoning, fmt.Sprintf("cutBudget = 0.7*safeBudget = %d", cutBudget))

	inlineSet := make(map[string]bool)
	orchestratedFixed := make(map[string]bool)
	var prefixSum int64
	cutIdx := len(cp.NodeIDs)
	for i, id := range cp.NodeIDs {
		timing := meta.resolve(id).Timing
		if prefixSum+timing.P99Ms > cutBudget {
			cutIdx = i
			break
		}
		prefixSum += timing.P99Ms
		inlineSet[id] = true
	}
	for _, id := range cp.NodeIDs[cutIdx:] {
		orchestratedFixed[id] = true
	}

	if cutIdx == 0 || cutIdx == len(cp.NodeIDs) {
		return nil, nil, reasoning, false
	}

	byID := g.ByID()
	order, err := adapter.TopoSort(g)
	if err != nil {
		return nil, nil, reasoning, false
	}
	// Off-path nodes only: on-path nodes are fixed by the cut above and
	// never reassigned, even if their dependencies later end up inline.
	for _, id := range order {
		if inlineSet[id] || orchestratedFixed[id] {
			continue
		}
		n := byID[id]
		allInline := true
		for _, dep := range n.DependsOn {
			if !inlineSet[dep] {
				allInline = false
				break
			}
		}
		if allInline {
			inlineSet[id] = true
		}
	}

	var inlineNodes, orchestratedNodes []string
	for _, id := range order {
		if inlineSet[id] {
			inlineNodes = append(inlineNodes, id)
		} else {
			orchestratedNodes = append(orchestratedNodes, id)
		}
	}
	if len(inlineNodes) == 0 || len(orchestratedNodes) == 0 {
		return nil, nil, reasoning, false
	}

	reasoning = append(reasoning, fmt.Sprintf("cut at index %d of critical path: %d inline nodes, %d orchestrated nodes", cutIdx, len(inlineNodes), len(orchestratedNodes)))
	return inlineNodes, orchestratedNodes, reasoning, true
}
