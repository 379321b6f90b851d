package index

import (
	"encoding/json"
	"fmt"
)

// decodeColumnar handles the epoch-3 encoding: one JSON object per crate
// with parallel columns t/n/q/d/i and a parent table p. The t and q columns
// each come in two historical shapes, both accepted here.
func decodeColumnar(raw string) (map[string]*rawCrate, map[string]error, error) {
	var crates map[string]json.RawMessage
	if err := json.Unmarshal([]byte(assembleDocument(raw)), &crates); err != nil {
		return nil, nil, fmt.Errorf("parsing assembled index document: %w", err)
	}

	out := make(map[string]*rawCrate, len(crates))
	failed := make(map[string]error)
	for name, body := range crates {
		rc, err := decodeColumnarCrate(body)
		if err != nil {
			failed[name] = err
			continue
		}
		out[name] = rc
	}
	return out, failed, nil
}

func decodeColumnarCrate(body json.RawMessage) (*rawCrate, error) {
	var fields struct {
		Doc string            `json:"doc"`
		T   json.RawMessage   `json:"t"`
		N   []string          `json:"n"`
		Q   []json.RawMessage `json:"q"`
		D   []string          `json:"d"`
		I   []int             `json:"i"`
		P   []json.RawMessage `json:"p"`
		// f carries search-type metadata; tolerated, never interpreted.
		F json.RawMessage `json:"f"`
	}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, shapeErrf("crate record: %v", err)
	}

	types, err := decodeTypeCodes(fields.T)
	if err != nil {
		return nil, err
	}

	deltas, err := decodePathColumn(fields.Q)
	if err != nil {
		return nil, err
	}

	parentTab, err := decodeParentTable(fields.P)
	if err != nil {
		return nil, err
	}

	return &rawCrate{
		doc:        fields.Doc,
		types:      types,
		names:      fields.N,
		pathDeltas: deltas,
		descs:      fields.D,
		parents:    fields.I,
		parentTab:  parentTab,
	}, nil
}

// decodeTypeCodes accepts the t column as either an array of small integers
// or a packed string where each uppercase ASCII letter encodes `letter - 'A'`.
func decodeTypeCodes(raw json.RawMessage) ([]uint8, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	if raw[0] == '"' {
		var packed string
		if err := json.Unmarshal(raw, &packed); err != nil {
			return nil, shapeErrf("type column: %v", err)
		}
		codes := make([]uint8, len(packed))
		for i := 0; i < len(packed); i++ {
			c := packed[i]
			if c < 'A' || c > 'Z' {
				return nil, shapeErrf("type column: invalid packed character %q", c)
			}
			codes[i] = c - 'A'
		}
		return codes, nil
	}

	var ints []int
	if err := json.Unmarshal(raw, &ints); err != nil {
		return nil, shapeErrf("type column: %v", err)
	}
	codes := make([]uint8, len(ints))
	for i, v := range ints {
		if v < 0 || v > 255 {
			return nil, shapeErrf("type column: code %d out of byte range", v)
		}
		codes[i] = uint8(v)
	}
	return codes, nil
}

// decodePathColumn normalizes the q column to a sparse position → path map.
// The dense form lists one string per item where "" means "same as the
// previous item"; the sparse form lists (position, path) pairs directly.
func decodePathColumn(entries []json.RawMessage) (map[int]string, error) {
	deltas := make(map[int]string, len(entries))
	position := 0
	for _, entry := range entries {
		if len(entry) == 0 {
			return nil, shapeErrf("path column: empty entry")
		}
		switch entry[0] {
		case '"':
			var path string
			if err := json.Unmarshal(entry, &path); err != nil {
				return nil, shapeErrf("path column: %v", err)
			}
			if path != "" {
				deltas[position] = path
			}
		case '[':
			var pair []json.RawMessage
			if err := json.Unmarshal(entry, &pair); err != nil || len(pair) != 2 {
				return nil, shapeErrf("path column: malformed (position, path) pair")
			}
			var pos int
			var path string
			if err := json.Unmarshal(pair[0], &pos); err != nil {
				return nil, shapeErrf("path column: pair position: %v", err)
			}
			if err := json.Unmarshal(pair[1], &path); err != nil {
				return nil, shapeErrf("path column: pair path: %v", err)
			}
			deltas[pos] = path
		default:
			return nil, shapeErrf("path column: entry is neither string nor pair")
		}
		position++
	}
	return deltas, nil
}

// decodeParentTable decodes the p column: an array of (kind, name) pairs.
func decodeParentTable(entries []json.RawMessage) ([]rawParent, error) {
	table := make([]rawParent, 0, len(entries))
	for i, entry := range entries {
		var pair []json.RawMessage
		if err := json.Unmarshal(entry, &pair); err != nil || len(pair) != 2 {
			return nil, shapeErrf("parent table entry %d: expected (kind, name) pair", i)
		}
		var code int
		if err := json.Unmarshal(pair[0], &code); err != nil {
			return nil, shapeErrf("parent table entry %d: kind: %v", i, err)
		}
		if code < 0 || code > 255 {
			return nil, shapeErrf("parent table entry %d: kind %d out of byte range", i, code)
		}
		var name string
		if err := json.Unmarshal(pair[1], &name); err != nil {
			return nil, shapeErrf("parent table entry %d: name: %v", i, err)
		}
		table = append(table, rawParent{code: uint8(code), name: name})
	}
	return table, nil
}
