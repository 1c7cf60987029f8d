// Package adapter holds the helper shared by the dialect adapters
// (statemachine, scenario, processxml): deterministic topological node
// ordering. Adapters return warnings as model.Warning and failures as
// *verr.Error; neither type lives here.
package adapter

import (
	"sort"

	"github.com/Lacoz/virta/model"
	"github.com/Lacoz/virta/verr"
)

// TopoSort returns g's node ids in a topological order with a
// lexicographic tie-break among nodes that become ready simultaneously,
// matching the "deterministic ordering" discipline every adapter export
// follows: exported blobs are byte-stable given equal input.
func TopoSort(g *model.Graph) ([]string, error) {
	indegree := make(map[string]int, len(g.Nodes))
	dependents := make(map[string][]string, len(g.Nodes))
	for _, n := range g.Nodes {
		if _, ok := indegree[n.ID]; !ok {
			indegree[n.ID] = 0
		}
		for _, dep := range n.DependsOn {
			indegree[n.ID]++
			dependents[dep] = append(dependents[dep], n.ID)
		}
	}

	var ready []string
	for id, deg := range indegree {
		if deg == 0 {
			ready = append(ready, id)
		}
	}
	sort.Strings(ready)

	order := make([]string, 0, len(g.Nodes))
	for len(ready) > 0 {
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)

		var freed []string
		for _, dep := range dependents[next] {
			indegree[dep]--
			if indegree[dep] == 0 {
				freed = append(freed, dep)
			}
		}
		sort.Strings(freed)
		ready = mergeSorted(ready, freed)
	}

	if len(order) != len(g.Nodes) {
		return nil, verr.New(verr.KindCycle, "neutral model graph contains a cycle", "")
	}
	return order, nil
}

// mergeSorted merges two already-sorted string slices into one sorted
// slice, keeping TopoSort's ready queue ordered without a full re-sort
// on every iteration.
func mergeSorted(a, b []string) []string {
	if len(b) == 0 {
		return a
	}
	out := make([]string, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i] <= b[j] {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}
