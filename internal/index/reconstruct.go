package index

import "github.com/rsdocs/docseek/internal/itemtype"

// reconstruct turns a column-oriented rawCrate into one full record per
// item and synthesizes the crate's URL mapping.
//
// The raw columns delta-encode the module path: an entry exists only at
// positions where the path changes, and every other position inherits the
// previous value (carry-forward). Parent references use a 1-based sentinel
// scheme where 0 means "no parent".
func reconstruct(rc *rawCrate) (*Crate, error) {
	parents := make([]Parent, len(rc.parentTab))
	for i, p := range rc.parentTab {
		kind, err := itemtype.FromCode(p.code)
		if err != nil {
			return nil, err
		}
		parents[i] = Parent{Kind: kind, Name: p.name}
	}

	n := len(rc.types)
	for _, l := range []int{len(rc.names), len(rc.descs), len(rc.parents)} {
		if l < n {
			n = l
		}
	}

	items := make([]Item, 0, n)
	path := ""
	for pos := 0; pos < n; pos++ {
		if p, ok := rc.pathDeltas[pos]; ok {
			path = p
		}

		kind, err := itemtype.FromCode(rc.types[pos])
		if err != nil {
			return nil, err
		}

		parent := -1
		if ref := rc.parents[pos]; ref > 0 {
			if ref-1 >= len(parents) {
				return nil, shapeErrf("item %d: parent reference %d outside parent table of length %d", pos, ref, len(parents))
			}
			parent = ref - 1
		}

		items = append(items, Item{
			Kind:        kind,
			Name:        rc.names[pos],
			Path:        path,
			Description: rc.descs[pos],
			Parent:      parent,
		})
	}

	return &Crate{
		Doc:     rc.doc,
		Items:   items,
		Parents: parents,
		URLs:    buildURLs(items, parents),
	}, nil
}
