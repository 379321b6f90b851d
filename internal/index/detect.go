package index

import "strings"

// Epoch identifies one of the three historical index encodings.
type Epoch int

const (
	EpochUnknown Epoch = iota
	Epoch1            // JS object literals with back-references
	Epoch2            // per-item tuples inside escaped JSON lines
	Epoch3            // columnar per-crate objects inside escaped JSON lines
)

func (e Epoch) String() string {
	switch e {
	case Epoch1:
		return "epoch 1"
	case Epoch2:
		return "epoch 2"
	case Epoch3:
		return "epoch 3"
	}
	return "unknown"
}

// Envelope markers written by the generator. The body grammar differs per
// epoch and may not be scannable generically, so detection looks only at
// these fixed strings.
const (
	epoch1Prologue = `var N=null,E="",T="t",U="u",searchIndex={};`
	epoch2Trailer  = `addSearchOptions(searchIndex);initSearch(searchIndex);`
	epoch3Browser  = `if (window.initSearch) {window.initSearch(searchIndex)};`
	epoch3Exports  = `if (typeof exports !== 'undefined') {exports.searchIndex = searchIndex};`
)

// DetectEpoch inspects the raw index text for the envelope markers of each
// epoch. It returns EpochUnknown when no marker matches.
func DetectEpoch(raw string) Epoch {
	if strings.HasPrefix(raw, epoch1Prologue) {
		return Epoch1
	}
	if strings.HasSuffix(raw, epoch2Trailer) {
		return Epoch2
	}
	if strings.HasSuffix(raw, epoch3Browser) ||
		strings.HasSuffix(strings.TrimRight(raw, " \t\r\n"), epoch3Exports) {
		return Epoch3
	}
	return EpochUnknown
}
