package model

import (
	"github.com/Lacoz/virta/pipeline"
	"github.com/Lacoz/virta/registry"
	"github.com/Lacoz/virta/verr"
)

// metadataKey is the conventional Config location StepMetadata is read
// from and written to, per spec §4.4 ("a conventional n.config.metadata
// location").
const metadataKey = "metadata"

// ToDefinition converts a neutral Graph into a pipeline.Definition,
// resolving each node's StepRef against reg to obtain the token the
// pipeline scheduler runs. Steps themselves are supplied by steps,
// since the model/registry layer knows tokens and names but not step
// bodies.
//
// Failures: a node with no StepRef, or one reg does not recognize,
// fails with verr.KindUnknownStep. A dependency referencing an id not
// present in g fails with verr.KindUnknownDependency.
func ToDefinition(g *Graph, reg *registry.Registry, steps map[string]pipeline.Step) (*pipeline.Definition, error) {
	byID := g.ByID()
	tokenByID := make(map[string]pipeline.Token, len(g.Nodes))

	for _, n := range g.Nodes {
		if n.StepRef == "" {
			return nil, verr.New(verr.KindUnknownStep, "node has no stepRef", n.ID)
		}
		token, err := reg.Resolve(n.StepRef)
		if err != nil {
			return nil, verr.Wrap(verr.KindUnknownStep, "stepRef not registered", n.ID, err)
		}
		tokenByID[n.ID] = token
	}

	def := pipeline.NewDefinition()
	for _, n := range g.Nodes {
		token := tokenByID[n.ID]

		deps := make([]pipeline.Token, 0, len(n.DependsOn))
		for _, depID := range n.DependsOn {
			if _, ok := byID[depID]; !ok {
				return nil, verr.New(verr.KindUnknownDependency, "dependsOn references an unknown node id", depID)
			}
			deps = append(deps, tokenByID[depID])
		}

		step, ok := steps[n.StepRef]
		if !ok {
			return nil, verr.New(verr.KindUnknownStep, "no step body supplied for stepRef", n.StepRef)
		}

		opts := []pipeline.EntryOption{pipeline.DependsOn(deps...)}
		if meta, ok := readMetadata(n.Config); ok {
			opts = append(opts, pipeline.WithMetadata(meta))
		}
		def.Add(token, step, opts...)
	}

	return def, nil
}

// FromDefinition converts a pipeline.Definition back into a neutral
// Graph, looking up each token's registered name via reg. Every token
// in def must have been registered (fail: verr.KindUnregisteredToken).
// Dependency edges are lifted from tokens to id references; entryIds is
// populated with the ids of tokens that have no predecessors.
func FromDefinition(def *pipeline.Definition, reg *registry.Registry) (*Graph, error) {
	tokens := def.Tokens()
	nameByToken := make(map[pipeline.Token]string, len(tokens))

	for _, t := range tokens {
		name, err := reg.Name(t)
		if err != nil {
			return nil, verr.Wrap(verr.KindUnregisteredToken, "token has no registered name", tokenLabel(t), err)
		}
		nameByToken[t] = name
	}

	g := &Graph{Nodes: make([]Node, 0, len(tokens))}
	var entries []string

	for _, t := range tokens {
		name := nameByToken[t]
		deps, _ := def.Dependencies(t)

		depIDs := make([]string, 0, len(deps))
		for _, d := range deps {
			depIDs = append(depIDs, nameByToken[d])
		}

		n := Node{
			ID:        name,
			Kind:      KindTask,
			DependsOn: depIDs,
			StepRef:   name,
		}

		if meta, ok := def.Metadata(t); ok {
			n.Config = writeMetadata(meta)
		}

		if len(depIDs) == 0 {
			entries = append(entries, name)
		}

		g.Nodes = append(g.Nodes, n)
	}

	g.EntryIDs = entries
	return g, nil
}

func readMetadata(config map[string]any) (pipeline.StepMetadata, bool) {
	raw, ok := config[metadataKey]
	if !ok {
		return pipeline.StepMetadata{}, false
	}
	fields, ok := raw.(map[string]any)
	if !ok {
		return pipeline.StepMetadata{}, false
	}

	var meta pipeline.StepMetadata
	if placement, ok := fields["placement"].(string); ok {
		meta.Placement = pipeline.Placement(placement)
	}
	meta.Timing.P50Ms = asInt64(fields["p50Ms"])
	meta.Timing.P99Ms = asInt64(fields["p99Ms"])
	return meta, true
}

// asInt64 accepts both int64 (set programmatically) and float64 (the
// concrete type encoding/json produces for a bare JSON number), since
// Config may originate from either path.
func asInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case float64:
		return int64(n)
	default:
		return 0
	}
}

func writeMetadata(meta pipeline.StepMetadata) map[string]any {
	return map[string]any{
		metadataKey: map[string]any{
			"placement": string(meta.Placement),
			"p50Ms":     meta.Timing.P50Ms,
			"p99Ms":     meta.Timing.P99Ms,
		},
	}
}

func tokenLabel(t pipeline.Token) string {
	if s, ok := t.(string); ok {
		return s
	}
	return ""
}
