// Package conformance implements the shared round-trip harness (C13):
// fixtures and invariants exercised by every dialect adapter, per
// spec §4.8. It holds no *testing.T dependency itself so adapter
// packages can drive it from their own table-driven tests; see
// conformance_test.go for the harness wired against all three
// adapters.
package conformance

import (
	"sort"

	"github.com/Lacoz/virta/model"
)

// Importer and Exporter abstract an adapter's two directions so the
// harness can be run against any of them.
type Importer func(blob []byte) (*model.Graph, []model.Warning, error)
type Exporter func(g *model.Graph) ([]byte, []model.Warning, error)

// Fixture is one shared input exercised against an adapter. Lossless
// labels a fixture whose export(import(blob)) is byte-for-byte equal to
// blob, and DowngradeKinds lists the downgrade kinds a non-lossless
// fixture may show. No function in this package reads either field:
// CheckImportExportIdentity compares imported graphs, not bytes or
// warnings.
type Fixture struct {
	Name          string
	Blob          []byte
	Lossless      bool
	DowngradeKinds []string
}

// CheckImportExportIdentity verifies A.import(A.export(N)) equals N
// modulo level-local reordering, per §4.8's first invariant. It
// imports blob, exports the result, re-imports that, and compares the
// two graphs structurally.
func CheckImportExportIdentity(imp Importer, exp Exporter, blob []byte) (bool, []string, error) {
	g1, _, err := imp(blob)
	if err != nil {
		return false, nil, err
	}
	reexported, _, err := exp(g1)
	if err != nil {
		return false, nil, err
	}
	g2, _, err := imp(reexported)
	if err != nil {
		return false, nil, err
	}
	equal, diffs := GraphsEquivalent(g1, g2)
	return equal, diffs, nil
}

// GraphsEquivalent compares two graphs up to node/dependency-set
// equality (order-independent), ignoring Config, which adapters are
// permitted to normalize across a round trip.
func GraphsEquivalent(a, b *model.Graph) (bool, []string) {
	var diffs []string

	aByID := a.ByID()
	bByID := b.ByID()

	if len(aByID) != len(bByID) {
		diffs = append(diffs, "node count differs")
	}

	for id, an := range aByID {
		bn, ok := bByID[id]
		if !ok {
			diffs = append(diffs, "missing node: "+id)
			continue
		}
		if an.Kind != bn.Kind {
			diffs = append(diffs, "kind differs for "+id)
		}
		if an.StepRef != bn.StepRef {
			diffs = append(diffs, "stepRef differs for "+id)
		}
		if !sameSet(an.DependsOn, bn.DependsOn) {
			diffs = append(diffs, "dependsOn differs for "+id)
		}
	}
	for id := range bByID {
		if _, ok := aByID[id]; !ok {
			diffs = append(diffs, "unexpected node: "+id)
		}
	}

	if !sameSet(a.Entries(), b.Entries()) {
		diffs = append(diffs, "entries differ")
	}

	if !sameAttrSet(a.Attrs, b.Attrs) {
		diffs = append(diffs, "document attrs differ")
	}

	return len(diffs) == 0, diffs
}

// sameAttrSet compares two Attr slices as order-independent name/value
// sets, since an adapter's Import is free to walk an element's
// attribute list in whatever order the dialect's parser yields it.
func sameAttrSet(a, b []model.Attr) bool {
	if len(a) != len(b) {
		return false
	}
	toPairs := func(attrs []model.Attr) []string {
		pairs := make([]string, len(attrs))
		for i, at := range attrs {
			pairs[i] = at.Name + "=" + at.Value
		}
		sort.Strings(pairs)
		return pairs
	}
	pa, pb := toPairs(a), toPairs(b)
	for i := range pa {
		if pa[i] != pb[i] {
			return false
		}
	}
	return true
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	sa := append([]string(nil), a...)
	sb := append([]string(nil), b...)
	sort.Strings(sa)
	sort.Strings(sb)
	for i := range sa {
		if sa[i] != sb[i] {
			return false
		}
	}
	return true
}
