// Package index decodes rustdoc search indexes and derives, for every
// documented item, the stable relative URL of its documentation page.
//
// The index has shipped in three incompatible encodings over rustdoc's
// lifetime. Decode sniffs the epoch from fixed envelope markers, runs the
// matching decoder to a common column-oriented record, reconstructs full
// per-item records, and synthesizes a path → URL mapping per crate.
package index

import (
	"sort"
	"sync"

	"github.com/rsdocs/docseek/internal/itemtype"
	"golang.org/x/sync/errgroup"
)

// rawCrate is the decoder-agnostic, column-oriented record for one crate.
// All columns are indexed by item position; pathDeltas holds only the
// positions where the module path changes.
type rawCrate struct {
	doc        string
	types      []uint8
	names      []string
	pathDeltas map[int]string
	descs      []string
	parents    []int
	parentTab  []rawParent
}

type rawParent struct {
	code uint8
	name string
}

// Parent is a resolved parent-table entry: the container an anchored item
// (method, variant, field, ...) belongs to.
type Parent struct {
	Kind itemtype.ItemType
	Name string
}

// Item is one fully reconstructed index entry.
type Item struct {
	Kind        itemtype.ItemType
	Name        string
	Path        string // fully resolved module path, never a delta marker
	Description string // short summary, may contain HTML; carried through unmodified
	Parent      int    // index into Crate.Parents, -1 when the item has no parent
}

// Crate is the reconstructed index for a single crate.
type Crate struct {
	Doc     string
	Items   []Item
	Parents []Parent
	// URLs maps a fully-qualified item path such as "serde::de::Visitor"
	// to a documentation URL relative to the crate's docs root.
	URLs map[string]string
}

// Index is a fully decoded search index. An index usually holds a single
// crate; the stdlib index holds several (std, core, alloc, ...).
type Index struct {
	Epoch  Epoch
	Crates map[string]*Crate
	// Errors records crates that failed to decode. A malformed crate does
	// not abort its siblings; callers decide whether partial results are
	// acceptable.
	Errors map[string]error
}

// Decode parses raw search index text of any supported epoch.
//
// It returns an error only for document-level failures (unrecognized
// envelope, unparseable document body). Failures scoped to a single crate
// are reported through Index.Errors instead.
func Decode(raw string) (*Index, error) {
	var (
		crates map[string]*rawCrate
		failed map[string]error
		err    error
	)

	epoch := DetectEpoch(raw)
	switch epoch {
	case Epoch1:
		crates, failed, err = decodeLegacy(raw)
	case Epoch2:
		crates, failed, err = decodeTuple(raw)
	case Epoch3:
		crates, failed, err = decodeColumnar(raw)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}

	ix := &Index{
		Epoch:  epoch,
		Crates: make(map[string]*Crate, len(crates)),
		Errors: failed,
	}
	if ix.Errors == nil {
		ix.Errors = make(map[string]error)
	}

	// Crates are independent of each other, so reconstruction fans out.
	var mu sync.Mutex
	var g errgroup.Group
	for name, rc := range crates {
		g.Go(func() error {
			crate, err := reconstruct(rc)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				ix.Errors[name] = err
				return nil
			}
			ix.Crates[name] = crate
			return nil
		})
	}
	g.Wait()

	return ix, nil
}

// Crate returns the decoded data for a single crate by name.
func (ix *Index) Crate(name string) (*Crate, error) {
	if err, ok := ix.Errors[name]; ok {
		return nil, err
	}
	crate, ok := ix.Crates[name]
	if !ok {
		return nil, &MissingCrateError{Name: name}
	}
	return crate, nil
}

// Names lists the decoded crate names in sorted order.
func (ix *Index) Names() []string {
	names := make([]string, 0, len(ix.Crates))
	for name := range ix.Crates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
