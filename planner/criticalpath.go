// Package planner implements the execution planner (C10, C11):
// critical-path analysis over the neutral model under per-node timing
// metadata, and a mode selector that chooses among inline,
// orchestrated, and hybrid execution.
package planner

import (
	"sort"

	"github.com/Lacoz/virta/adapter"
	"github.com/Lacoz/virta/model"
	"github.com/Lacoz/virta/pipeline"
	"github.com/Lacoz/virta/verr"
)

// MetadataByID supplies per-node StepMetadata keyed by node id. A node
// absent from the map uses pipeline.StepMetadata{}.Resolved()'s
// defaults.
type MetadataByID map[string]pipeline.StepMetadata

func (m MetadataByID) resolve(id string) pipeline.StepMetadata {
	if meta, ok := m[id]; ok {
		return meta.Resolved()
	}
	return pipeline.StepMetadata{}.Resolved()
}

// CriticalPath is the longest (pessimistic) root-to-sink path through
// N, per §3's P = (ids, (opt, pess)).
type CriticalPath struct {
	NodeIDs      []string
	OptimisticMs int64
	PessimisticMs int64
}

// distance is the per-node longest-path state tracked during the
// forward pass: the best (opt, pess) reaching this node, and the
// predecessor id that produced the chosen pess (for backtracking).
type distance struct {
	opt, pess int64
	pred      string
	hasPred   bool
}

// Compute implements §4.5: augments N with per-node timing, computes
// the longest-distance pair for every node in topological order, and
// reconstructs the path by backtracking from the sink with maximum
// pess (ties: maximum opt; further ties: smallest id).
func Compute(g *model.Graph, meta MetadataByID) (*CriticalPath, error) {
	if len(g.Entries()) == 0 {
		return nil, verr.New(verr.KindNoEntries, "graph has no node without predecessors", "")
	}

	order, err := adapter.TopoSort(g)
	if err != nil {
		return nil, err
	}
	byID := g.ByID()

	dist := make(map[string]distance, len(order))
	for _, id := range order {
		n := byID[id]
		timing := meta.resolve(id).Timing

		if len(n.DependsOn) == 0 {
			dist[id] = distance{opt: timing.P50Ms, pess: timing.P99Ms}
			continue
		}

		deps := append([]string(nil), n.DependsOn...)
		sort.Strings(deps)

		var best distance
		haveBest := false
		for _, dep := range deps {
			d := dist[dep]
			if !haveBest || d.pess > best.pess || (d.pess == best.pess && d.opt > best.opt) {
				best = d
				haveBest = true
				best.pred = dep
				best.hasPred = true
			}
		}

		dist[id] = distance{
			opt:     best.opt + timing.P50Ms,
			pess:    best.pess + timing.P99Ms,
			pred:    best.pred,
			hasPred: best.hasPred,
		}
	}

	sinkIDs := append([]string(nil), order...)
	sort.Strings(sinkIDs)

	var sink string
	var sinkDist distance
	haveSink := false
	for _, id := range sinkIDs {
		d := dist[id]
		if !haveSink || d.pess > sinkDist.pess || (d.pess == sinkDist.pess && d.opt > sinkDist.opt) {
			sink = id
			sinkDist = d
			haveSink = true
		}
	}

	var path []string
	cur := sink
	for {
		path = append([]string{cur}, path...)
		d := dist[cur]
		if !d.hasPred {
			break
		}
		cur = d.pred
	}

	return &CriticalPath{
		NodeIDs:       path,
		OptimisticMs:  sinkDist.opt,
		PessimisticMs: sinkDist.pess,
	}, nil
}
