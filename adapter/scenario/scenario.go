// Package scenario implements adapter B (C8): bidirectional
// import/export between the neutral model and a scenario-based JSON
// dialect with explicit runAfter dependencies, grounded on the
// Arazzo/OpenAPI-workflow family of document shapes.
package scenario

import (
	"encoding/json"
	"sort"

	"github.com/Lacoz/virta/adapter"
	"github.com/Lacoz/virta/model"
	"github.com/Lacoz/virta/verr"
)

// document is the top-level scenario JSON shape (external interface
// §6). Arazzo, Info, OpenAPI are not interpreted. Import discards them
// and Export writes them only from its Options, so they are not carried
// from an imported document into an exported one.
type document struct {
	Arazzo    string                     `json:"arazzo,omitempty"`
	Info      json.RawMessage            `json:"info,omitempty"`
	OpenAPI   json.RawMessage            `json:"openapi,omitempty"`
	Scenarios map[string]scenarioPayload `json:"scenarios"`
}

type scenarioPayload struct {
	Description string          `json:"description,omitempty"`
	Steps       []stepPayload   `json:"steps"`
}

type stepPayload struct {
	ID          string   `json:"id"`
	Type        string   `json:"type,omitempty"`
	OperationID string   `json:"operationId,omitempty"`
	RunAfter    []string `json:"runAfter,omitempty"`

	extra map[string]any `json:"-"`
}

// MarshalJSON re-emits the known fields plus any extra fields captured
// at unmarshal time, matching the schema-ignore-list discipline.
func (s stepPayload) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(s.extra)+4)
	for k, v := range s.extra {
		out[k] = v
	}
	out["id"] = s.ID
	if s.Type != "" {
		out["type"] = s.Type
	}
	if s.OperationID != "" {
		out["operationId"] = s.OperationID
	}
	if len(s.RunAfter) > 0 {
		out["runAfter"] = s.RunAfter
	}
	return json.Marshal(out)
}

// UnmarshalJSON captures known fields plus every other key verbatim.
func (s *stepPayload) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.extra = make(map[string]any, len(raw))
	for k, v := range raw {
		switch k {
		case "id":
			s.ID, _ = v.(string)
		case "type":
			s.Type, _ = v.(string)
		case "operationId":
			s.OperationID, _ = v.(string)
		case "runAfter":
			for _, a := range asSlice(v) {
				if str, ok := a.(string); ok {
					s.RunAfter = append(s.RunAfter, str)
				}
			}
		default:
			s.extra[k] = v
		}
	}
	return nil
}

func asSlice(v any) []any {
	s, _ := v.([]any)
	return s
}

// Import parses blob and extracts the scenario named scenarioName,
// converting its steps into a neutral Graph. Fails with
// scenario-not-found if scenarioName is absent.
func Import(blob []byte, scenarioName string) (*model.Graph, []model.Warning, error) {
	var doc document
	if err := json.Unmarshal(blob, &doc); err != nil {
		return nil, nil, verr.Wrap(verr.KindInvalidDialect, "malformed scenario document", "", err)
	}

	scn, ok := doc.Scenarios[scenarioName]
	if !ok {
		return nil, nil, verr.New(verr.KindScenarioNotFound, "scenario not present in document", scenarioName)
	}

	ids := make(map[string]bool, len(scn.Steps))
	for _, s := range scn.Steps {
		ids[s.ID] = true
	}

	nodes := make([]model.Node, 0, len(scn.Steps))
	var warnings []model.Warning

	for _, s := range scn.Steps {
		kind, warn := mapStepType(s.Type)
		if warn {
			warnings = append(warnings, model.Warning{ElementID: s.ID, Kind: s.Type, Reason: "loop/sleep step downgraded to task"})
		}

		for _, dep := range s.RunAfter {
			if !ids[dep] {
				return nil, nil, verr.New(verr.KindInvalidDialect, "runAfter references an unknown step id", s.ID)
			}
		}

		stepRef := s.OperationID
		if stepRef == "" {
			stepRef = s.ID
		}

		deps := append([]string(nil), s.RunAfter...)
		sort.Strings(deps)

		cfg := make(map[string]any, len(s.extra))
		for k, v := range s.extra {
			cfg[k] = v
		}

		nodes = append(nodes, model.Node{
			ID:        s.ID,
			Kind:      kind,
			DependsOn: deps,
			StepRef:   stepRef,
			Config:    cfg,
		})
	}

	return &model.Graph{Nodes: nodes}, warnings, nil
}

// mapStepType implements §4.4.2's kind table: operation -> task,
// pass -> pass, switch -> choice, parallel -> parallel, loop/sleep ->
// task (with warning).
func mapStepType(typ string) (model.Kind, bool) {
	switch typ {
	case "pass":
		return model.KindPass, false
	case "switch":
		return model.KindChoice, false
	case "parallel":
		return model.KindParallel, false
	case "loop", "sleep":
		return model.KindTask, true
	default:
		return model.KindTask, false
	}
}

// Export renders g as a single named scenario within a document.
// opts, when non-nil, is merged in as the document's arazzo/info/openapi
// envelope fields; a nil opts produces a bare {"scenarios": ...}
// document.
func Export(g *model.Graph, scenarioName string, opts *Options) ([]byte, []model.Warning, error) {
	order, err := adapter.TopoSort(g)
	if err != nil {
		return nil, nil, err
	}
	byID := g.ByID()

	steps := make([]stepPayload, 0, len(order))
	for _, id := range order {
		n := byID[id]
		typ := typeForKind(n.Kind)

		sp := stepPayload{
			ID:       n.ID,
			Type:     typ,
			RunAfter: append([]string(nil), n.DependsOn...),
			extra:    cloneConfig(n.Config),
		}
		sort.Strings(sp.RunAfter)
		if n.StepRef != n.ID {
			sp.OperationID = n.StepRef
		}
		steps = append(steps, sp)
	}

	doc := document{Scenarios: map[string]scenarioPayload{
		scenarioName: {Steps: steps},
	}}
	if opts != nil {
		doc.Arazzo = opts.Arazzo
		doc.Info = opts.Info
		doc.OpenAPI = opts.OpenAPI
	}

	blob, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, nil, verr.Wrap(verr.KindInvalidDialect, "failed to marshal scenario document", "", err)
	}
	return blob, nil, nil
}

// Options carries the optional document-level envelope fields an
// Export call should re-attach.
type Options struct {
	Arazzo  string
	Info    json.RawMessage
	OpenAPI json.RawMessage
}

func typeForKind(k model.Kind) string {
	switch k {
	case model.KindPass:
		return "pass"
	case model.KindChoice:
		return "switch"
	case model.KindParallel:
		return "parallel"
	default:
		return "operation"
	}
}

func cloneConfig(cfg map[string]any) map[string]any {
	out := make(map[string]any, len(cfg))
	for k, v := range cfg {
		out[k] = v
	}
	return out
}
