// Package processxml implements adapter C (C9): bidirectional
// import/export between the neutral model and a BPMN-2.0-shaped XML
// dialect, with tasks, gateways, events, and sequence flows.
package processxml

import (
	"encoding/xml"
	"sort"
	"strconv"
	"strings"

	"github.com/Lacoz/virta/adapter"
	"github.com/Lacoz/virta/model"
	"github.com/Lacoz/virta/verr"
)

// xmlProcess mirrors a single BPMN <process> element. Namespaces on
// the document root are preserved via xmlDocument.Attrs and
// model.Graph.Attrs on import/export rather than modeled explicitly,
// matching "Namespaces: preserved on round-trip" (external interface
// §6).
type xmlProcess struct {
	XMLName        xml.Name        `xml:"process"`
	ID             string          `xml:"id,attr"`
	Tasks          []xmlFlowNode   `xml:"task"`
	ServiceTasks   []xmlFlowNode   `xml:"serviceTask"`
	UserTasks      []xmlFlowNode   `xml:"userTask"`
	ScriptTasks    []xmlFlowNode   `xml:"scriptTask"`
	ExclusiveGWs   []xmlFlowNode   `xml:"exclusiveGateway"`
	ParallelGWs    []xmlFlowNode   `xml:"parallelGateway"`
	InclusiveGWs   []xmlFlowNode   `xml:"inclusiveGateway"`
	StartEvents    []xmlFlowNode   `xml:"startEvent"`
	EndEvents      []xmlFlowNode   `xml:"endEvent"`
	SequenceFlows  []xmlSequence   `xml:"sequenceFlow"`
}

type xmlFlowNode struct {
	ID    string     `xml:"id,attr"`
	Name  string     `xml:"name,attr,omitempty"`
	Attrs []xml.Attr `xml:",any,attr"`
}

type xmlSequence struct {
	ID        string `xml:"id,attr"`
	SourceRef string `xml:"sourceRef,attr"`
	TargetRef string `xml:"targetRef,attr"`
}

// xmlDocument is the envelope around <process>, preserving the root
// element's namespace declarations verbatim.
type xmlDocument struct {
	XMLName xml.Name   `xml:"definitions"`
	Attrs   []xml.Attr `xml:",any,attr"`
	Process xmlProcess `xml:"process"`
}

// qualifiedAttrName reconstructs the wire-form name of a root-level
// attribute from encoding/xml's split Space/Local representation, the
// inverse of parseAttrName. encoding/xml represents `xmlns:p="uri"` as
// Name{Space:"xmlns", Local:"p"} and the bare default-namespace
// `xmlns="uri"` as Name{Space:"", Local:"xmlns"}.
func qualifiedAttrName(n xml.Name) string {
	if n.Space == "xmlns" {
		return "xmlns:" + n.Local
	}
	if n.Space != "" {
		return n.Space + ":" + n.Local
	}
	return n.Local
}

// parseAttrName turns a wire-form attribute name back into the Name
// encoding/xml marshals, undoing qualifiedAttrName. A namespace
// declaration (`xmlns:p`) is kept whole in Local: marshaling
// Name{Space:"xmlns", Local:"p"} would emit an extra generated
// `xmlns:_xmlns` declaration and write the attribute as `_xmlns:p`.
func parseAttrName(name string) xml.Name {
	prefix, local, ok := strings.Cut(name, ":")
	if !ok {
		return xml.Name{Local: name}
	}
	if prefix == "xmlns" {
		return xml.Name{Local: name}
	}
	return xml.Name{Space: prefix, Local: local}
}

// Import parses blob into a neutral Graph. Task-family elements map to
// task; ExclusiveGateway to choice; ParallelGateway to parallel;
// InclusiveGateway to parallel with a downgrade warning.
// StartEvent/EndEvent never become nodes: SequenceFlows out of a
// StartEvent only mark their target as an entry, and flows into an
// EndEvent are dropped (not turned into dependencies on anything).
func Import(blob []byte) (*model.Graph, []model.Warning, error) {
	var doc xmlDocument
	if err := xml.Unmarshal(blob, &doc); err != nil {
		return nil, nil, verr.Wrap(verr.KindInvalidDialect, "malformed process XML document", "", err)
	}

	kindByID := make(map[string]model.Kind)
	attrsByID := make(map[string][]xml.Attr)
	var warnings []model.Warning

	register := func(nodes []xmlFlowNode, kind model.Kind) {
		for _, n := range nodes {
			kindByID[n.ID] = kind
			attrsByID[n.ID] = n.Attrs
		}
	}
	register(doc.Process.Tasks, model.KindTask)
	register(doc.Process.ServiceTasks, model.KindTask)
	register(doc.Process.UserTasks, model.KindTask)
	register(doc.Process.ScriptTasks, model.KindTask)
	register(doc.Process.ExclusiveGWs, model.KindChoice)
	register(doc.Process.ParallelGWs, model.KindParallel)

	for _, n := range doc.Process.InclusiveGWs {
		kindByID[n.ID] = model.KindParallel
		attrsByID[n.ID] = n.Attrs
		warnings = append(warnings, model.Warning{ElementID: n.ID, Kind: "InclusiveGateway", Reason: "inclusive gateway downgraded to parallel"})
	}

	startEventIDs := make(map[string]bool, len(doc.Process.StartEvents))
	for _, e := range doc.Process.StartEvents {
		startEventIDs[e.ID] = true
	}
	endEventIDs := make(map[string]bool, len(doc.Process.EndEvents))
	for _, e := range doc.Process.EndEvents {
		endEventIDs[e.ID] = true
	}

	dependsOn := make(map[string]map[string]bool)
	entrySet := make(map[string]bool)
	for id := range kindByID {
		dependsOn[id] = make(map[string]bool)
	}

	for _, flow := range doc.Process.SequenceFlows {
		switch {
		case startEventIDs[flow.SourceRef]:
			if _, ok := kindByID[flow.TargetRef]; !ok {
				return nil, nil, verr.New(verr.KindInvalidDialect, "sequenceFlow targets an unknown element", flow.ID)
			}
			entrySet[flow.TargetRef] = true
		case endEventIDs[flow.TargetRef]:
			// flows into the end event anchor exit, not a dependency edge.
		default:
			if _, ok := kindByID[flow.SourceRef]; !ok {
				return nil, nil, verr.New(verr.KindInvalidDialect, "sequenceFlow sources an unknown element", flow.ID)
			}
			if _, ok := kindByID[flow.TargetRef]; !ok {
				return nil, nil, verr.New(verr.KindInvalidDialect, "sequenceFlow targets an unknown element", flow.ID)
			}
			dependsOn[flow.TargetRef][flow.SourceRef] = true
		}
	}

	ids := make([]string, 0, len(kindByID))
	for id := range kindByID {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	nodes := make([]model.Node, 0, len(ids))
	for _, id := range ids {
		deps := make([]string, 0, len(dependsOn[id]))
		for d := range dependsOn[id] {
			deps = append(deps, d)
		}
		sort.Strings(deps)

		cfg := make(map[string]any, len(attrsByID[id]))
		for _, a := range attrsByID[id] {
			cfg[a.Name.Local] = a.Value
		}

		nodes = append(nodes, model.Node{
			ID:        id,
			Kind:      kindByID[id],
			DependsOn: deps,
			StepRef:   id,
			Config:    cfg,
		})
	}

	var entries []string
	for id := range entrySet {
		entries = append(entries, id)
	}
	sort.Strings(entries)
	if len(entries) == 0 {
		for _, id := range ids {
			if len(dependsOn[id]) == 0 {
				entries = append(entries, id)
			}
		}
	}

	var docAttrs []model.Attr
	for _, a := range doc.Attrs {
		docAttrs = append(docAttrs, model.Attr{Name: qualifiedAttrName(a.Name), Value: a.Value})
	}

	return &model.Graph{Nodes: nodes, EntryIDs: entries, Attrs: docAttrs}, warnings, nil
}

// Export renders g as BPMN-2.0-shaped XML: one synthetic StartEvent,
// one EndEvent, and a SequenceFlow per edge, with flows from the start
// event to every entry node and from every sink node to the end event.
func Export(g *model.Graph) ([]byte, []model.Warning, error) {
	order, err := adapter.TopoSort(g)
	if err != nil {
		return nil, nil, err
	}
	byID := g.ByID()
	entries := make(map[string]bool)
	for _, e := range g.Entries() {
		entries[e] = true
	}

	hasSuccessor := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		for _, dep := range n.DependsOn {
			hasSuccessor[dep] = true
		}
	}

	proc := xmlProcess{ID: "process-1"}
	proc.StartEvents = []xmlFlowNode{{ID: "start"}}
	proc.EndEvents = []xmlFlowNode{{ID: "end"}}

	var flows []xmlSequence
	flowIdx := 0
	nextFlowID := func() string {
		flowIdx++
		return "flow-" + strconv.Itoa(flowIdx)
	}

	for _, id := range order {
		n := byID[id]
		attrs := make([]xml.Attr, 0, len(n.Config))
		for k, v := range n.Config {
			attrs = append(attrs, xml.Attr{Name: xml.Name{Local: k}, Value: toString(v)})
		}
		sort.Slice(attrs, func(i, j int) bool { return attrs[i].Name.Local < attrs[j].Name.Local })
		node := xmlFlowNode{ID: n.ID, Attrs: attrs}

		switch n.Kind {
		case model.KindChoice:
			proc.ExclusiveGWs = append(proc.ExclusiveGWs, node)
		case model.KindParallel:
			proc.ParallelGWs = append(proc.ParallelGWs, node)
		default:
			proc.Tasks = append(proc.Tasks, node)
		}

		if entries[id] {
			flows = append(flows, xmlSequence{ID: nextFlowID(), SourceRef: "start", TargetRef: id})
		}
		for _, dep := range n.DependsOn {
			flows = append(flows, xmlSequence{ID: nextFlowID(), SourceRef: dep, TargetRef: id})
		}
		if !hasSuccessor[id] {
			flows = append(flows, xmlSequence{ID: nextFlowID(), SourceRef: id, TargetRef: "end"})
		}
	}
	proc.SequenceFlows = flows

	docAttrs := make([]xml.Attr, 0, len(g.Attrs))
	for _, a := range g.Attrs {
		docAttrs = append(docAttrs, xml.Attr{Name: parseAttrName(a.Name), Value: a.Value})
	}

	doc := xmlDocument{Attrs: docAttrs, Process: proc}
	blob, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, nil, verr.Wrap(verr.KindInvalidDialect, "failed to marshal process XML", "", err)
	}
	return append([]byte(xml.Header), blob...), nil, nil
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

