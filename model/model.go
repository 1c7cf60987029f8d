// Package model implements the neutral intermediate workflow model (C5):
// a DAG of nodes carrying opaque, dialect-specific config, independent of
// any external dialect or of the pipeline package's step/token identity.
// Adapters (see the adapter/... packages) translate between this model
// and their dialects; ToDefinition and FromDefinition (convert.go), with
// a registry, translate between this model and a pipeline.Definition.
package model

// Kind classifies a node's execution semantics in dialect-neutral terms.
type Kind string

const (
	KindTask     Kind = "task"
	KindPass     Kind = "pass"
	KindChoice   Kind = "choice"
	KindParallel Kind = "parallel"
)

// Node is one vertex of the neutral model. Config is preserved verbatim
// across import/export round-trips for fields the adapter doesn't
// understand (the "schema ignore list" discipline, spec §4.4).
type Node struct {
	ID        string
	Kind      Kind
	DependsOn []string
	StepRef   string
	Config    map[string]any
}

// Attr is a dialect-neutral document-level attribute: metadata that
// belongs to the document as a whole rather than to any single Node,
// such as an XML root element's namespace declarations. Name carries
// any dialect-specific qualification (e.g. "xmlns:xsi") verbatim; the
// model package does not interpret it.
type Attr struct {
	Name  string
	Value string
}

// Graph is the neutral model proper: a node set plus an optional
// explicit entry-id override. When EntryIDs is nil, entries are the
// nodes with no DependsOn, computed on demand by Entries().
type Graph struct {
	Nodes    []Node
	EntryIDs []string

	// Attrs carries document-level metadata an adapter's Import captured
	// from outside any single node (e.g. the root element's namespace
	// declarations) so a corresponding Export can reproduce it.
	Attrs []Attr
}

// ByID indexes Nodes by id. Callers should treat the result as
// read-only; Graph does not defend against external mutation of the
// returned map's Node values since Node.Config is a shared map.
func (g *Graph) ByID() map[string]*Node {
	idx := make(map[string]*Node, len(g.Nodes))
	for i := range g.Nodes {
		idx[g.Nodes[i].ID] = &g.Nodes[i]
	}
	return idx
}

// Entries returns g.EntryIDs if set, else every node with an empty
// DependsOn, in Nodes order.
func (g *Graph) Entries() []string {
	if g.EntryIDs != nil {
		return g.EntryIDs
	}
	var out []string
	for _, n := range g.Nodes {
		if len(n.DependsOn) == 0 {
			out = append(out, n.ID)
		}
	}
	return out
}

// Warning is the structured, non-fatal diagnostic every adapter returns
// alongside its model or blob for dropped or downgraded dialect
// constructs, per the error taxonomy's "adapter warnings are non-fatal"
// rule: the core never logs, so this struct is the only channel a
// caller has into what an adapter silently changed.
type Warning struct {
	ElementID string
	Kind      string
	Reason    string
}
