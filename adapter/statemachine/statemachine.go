// Package statemachine implements adapter A (C7): bidirectional
// import/export between the neutral model and a state-machine JSON
// dialect shaped like {StartAt, States: {name -> State}}, where each
// State routes to its successor(s) via Next/Choices/Default/Branches/
// Catch rather than an explicit dependsOn list.
package statemachine

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/Lacoz/virta/model"
	"github.com/Lacoz/virta/verr"
)

// document is the top-level state-machine JSON shape (external
// interface §6).
type document struct {
	StartAt        string                     `json:"StartAt"`
	States         map[string]json.RawMessage `json:"States"`
	Comment        string                     `json:"Comment,omitempty"`
	Version        string                     `json:"Version,omitempty"`
	TimeoutSeconds int                        `json:"TimeoutSeconds,omitempty"`
}

// Import parses blob into a neutral Graph, inferring dependsOn edges
// from each state's Next/Choices/Default/Branches/Catch pointers, per
// §4.4.1. Unrecognized state fields are preserved verbatim in
// Node.Config. Non-mappable constructs are not dropped at the state
// level (every recognized state type maps to a kind), so no warnings
// normally arise from import; a state referencing a target with no
// corresponding entry in States yields invalid-dialect.
func Import(blob []byte) (*model.Graph, []model.Warning, error) {
	var doc document
	if err := json.Unmarshal(blob, &doc); err != nil {
		return nil, nil, verr.Wrap(verr.KindInvalidDialect, "malformed state-machine document", "", err)
	}
	if doc.StartAt == "" {
		return nil, nil, verr.New(verr.KindInvalidDialect, "StartAt is required", "")
	}

	names := make([]string, 0, len(doc.States))
	parsed := make(map[string]map[string]any, len(doc.States))
	for name, raw := range doc.States {
		var fields map[string]any
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, nil, verr.Wrap(verr.KindInvalidDialect, "malformed state body", name, err)
		}
		parsed[name] = fields
		names = append(names, name)
	}
	sort.Strings(names)

	dependsOn := make(map[string]map[string]bool, len(names))
	for _, n := range names {
		dependsOn[n] = make(map[string]bool)
	}
	addEdge := func(from, to string) error {
		if _, ok := parsed[to]; !ok {
			return verr.New(verr.KindInvalidDialect, "state routes to an undefined target", from)
		}
		dependsOn[to][from] = true
		return nil
	}

	var warnings []model.Warning
	kinds := make(map[string]model.Kind, len(names))

	for _, name := range names {
		fields := parsed[name]
		typ, _ := fields["Type"].(string)
		kind, ok := mapType(typ)
		if !ok {
			warnings = append(warnings, model.Warning{ElementID: name, Kind: typ, Reason: "unrecognized state Type downgraded to task"})
			kind = model.KindTask
		}
		kinds[name] = kind

		if next, ok := fields["Next"].(string); ok && next != "" {
			if err := addEdge(name, next); err != nil {
				return nil, nil, err
			}
		}
		if def, ok := fields["Default"].(string); ok && def != "" {
			if err := addEdge(name, def); err != nil {
				return nil, nil, err
			}
		}
		for _, c := range asSlice(fields["Choices"]) {
			if next, ok := asMap(c)["Next"].(string); ok && next != "" {
				if err := addEdge(name, next); err != nil {
					return nil, nil, err
				}
			}
		}
		for _, b := range asSlice(fields["Branches"]) {
			if startAt, ok := asMap(b)["StartAt"].(string); ok && startAt != "" {
				if err := addEdge(name, startAt); err != nil {
					return nil, nil, err
				}
			}
		}
		for _, c := range asSlice(fields["Catch"]) {
			if next, ok := asMap(c)["Next"].(string); ok && next != "" {
				if err := addEdge(name, next); err != nil {
					return nil, nil, err
				}
			}
		}
	}

	nodes := make([]model.Node, 0, len(names))
	for _, name := range names {
		fields := parsed[name]
		deps := make([]string, 0, len(dependsOn[name]))
		for d := range dependsOn[name] {
			deps = append(deps, d)
		}
		sort.Strings(deps)

		cfg := make(map[string]any, len(fields))
		for k, v := range fields {
			if k == "Type" {
				continue
			}
			cfg[k] = v
		}

		nodes = append(nodes, model.Node{
			ID:        name,
			Kind:      kinds[name],
			DependsOn: deps,
			StepRef:   stepRefFromResource(name, fields),
			Config:    cfg,
		})
	}

	g := &model.Graph{Nodes: nodes, EntryIDs: computeEntries(names, doc.StartAt, dependsOn)}
	return g, warnings, nil
}

// computeEntries returns StartAt plus every other node with no inferred
// predecessor, per §4.4.1 ("The StartAt root is always an entry; other
// entries are inferred from nodes with no predecessors.").
func computeEntries(names []string, startAt string, dependsOn map[string]map[string]bool) []string {
	seen := map[string]bool{startAt: true}
	entries := []string{startAt}
	for _, n := range names {
		if n == startAt {
			continue
		}
		if len(dependsOn[n]) == 0 && !seen[n] {
			seen[n] = true
			entries = append(entries, n)
		}
	}
	return entries
}

// mapType implements the external-type → internal-kind table in
// §4.4.1.
func mapType(typ string) (model.Kind, bool) {
	switch typ {
	case "Task":
		return model.KindTask, true
	case "Pass":
		return model.KindPass, true
	case "Choice":
		return model.KindChoice, true
	case "Parallel":
		return model.KindParallel, true
	case "Map", "Wait", "Succeed", "Fail":
		return model.KindTask, true
	default:
		return model.KindTask, false
	}
}

// stepRefFromResource extracts a stepRef per §4.4.1: ARN-shaped
// resources of form "...:function:NAME" or "...:activity:NAME" yield
// NAME; other non-empty strings are used literally; absent Resource
// falls back to the state name.
func stepRefFromResource(stateName string, fields map[string]any) string {
	resource, _ := fields["Resource"].(string)
	if resource == "" {
		return stateName
	}
	if idx := strings.LastIndex(resource, ":function:"); idx >= 0 {
		return resource[idx+len(":function:"):]
	}
	if idx := strings.LastIndex(resource, ":activity:"); idx >= 0 {
		return resource[idx+len(":activity:"):]
	}
	return resource
}

func asSlice(v any) []any {
	s, _ := v.([]any)
	return s
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}
