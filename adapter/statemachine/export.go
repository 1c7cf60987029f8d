package statemachine

import (
	"encoding/json"
	"sort"

	"github.com/Lacoz/virta/adapter"
	"github.com/Lacoz/virta/model"
	"github.com/Lacoz/virta/verr"
)

// Export renders g as a state-machine JSON document, per §4.4.1's
// export rules: StartAt comes from g's first entry, edges become Next
// for task/pass states, and a task/pass node with more than one
// successor is promoted into a synthetic Parallel state whose branches
// each start at one successor (Open Question (a): treated as the
// specification, not the source's lossy Next/End behavior).
func Export(g *model.Graph) ([]byte, []model.Warning, error) {
	entries := g.Entries()
	if len(entries) == 0 {
		return nil, nil, verr.New(verr.KindSchemaViolation, "graph has no entry nodes", "")
	}
	startAt := entries[0]

	order, err := adapter.TopoSort(g)
	if err != nil {
		return nil, nil, err
	}

	successors := make(map[string][]string, len(g.Nodes))
	for _, n := range g.Nodes {
		for _, dep := range n.DependsOn {
			successors[dep] = append(successors[dep], n.ID)
		}
	}
	for id := range successors {
		sort.Strings(successors[id])
	}

	byID := g.ByID()
	states := make(map[string]json.RawMessage, len(order))
	var warnings []model.Warning

	for _, id := range order {
		n := byID[id]
		state, err := exportState(n, successors[id])
		if err != nil {
			return nil, nil, err
		}
		raw, err := json.Marshal(state)
		if err != nil {
			return nil, nil, verr.Wrap(verr.KindInvalidDialect, "failed to marshal state", id, err)
		}
		states[id] = raw
	}

	doc := document{StartAt: startAt, States: states}
	blob, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, nil, verr.Wrap(verr.KindInvalidDialect, "failed to marshal document", "", err)
	}
	return blob, warnings, nil
}

// exportState builds the JSON-ready map for a single node, given its
// successor ids in id-sorted order.
func exportState(n *model.Node, succ []string) (map[string]any, error) {
	switch n.Kind {
	case model.KindChoice:
		out := cloneConfig(n.Config)
		out["Type"] = "Choice"
		return out, nil
	case model.KindParallel:
		out := cloneConfig(n.Config)
		out["Type"] = "Parallel"
		return out, nil
	default:
		if len(succ) > 1 {
			return promoteToParallel(succ), nil
		}
		out := cloneConfig(n.Config)
		typ := "Task"
		if n.Kind == model.KindPass {
			typ = "Pass"
		}
		out["Type"] = typ
		delete(out, "Next")
		delete(out, "End")
		if len(succ) == 1 {
			out["Next"] = succ[0]
		} else {
			out["End"] = true
		}
		return out, nil
	}
}

// promoteToParallel builds a fresh synthetic Parallel state for a
// task/pass node with multiple successors. Its original config is not
// re-emitted: the host kind changed, so per the schema-ignore-list
// discipline the old fields no longer apply.
func promoteToParallel(succ []string) map[string]any {
	branches := make([]map[string]any, 0, len(succ))
	for _, s := range succ {
		branches = append(branches, map[string]any{"StartAt": s})
	}
	return map[string]any{
		"Type":     "Parallel",
		"Branches": branches,
	}
}

func cloneConfig(cfg map[string]any) map[string]any {
	out := make(map[string]any, len(cfg))
	for k, v := range cfg {
		out[k] = v
	}
	return out
}
