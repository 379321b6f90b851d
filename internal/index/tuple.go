package index

import (
	"encoding/json"
	"fmt"
)

// decodeTuple handles the epoch-2 encoding: the same line assembly as
// epoch 3, but each crate stores one fixed-position 6-tuple per item under
// `i` instead of parallel columns:
//
//	[kind, name, path, description, parent-ref, search-type]
//
// Optional fields arrive as null and default to the sentinel values the
// other epochs use (empty string, parent-ref 0).
func decodeTuple(raw string) (map[string]*rawCrate, map[string]error, error) {
	var crates map[string]json.RawMessage
	if err := json.Unmarshal([]byte(assembleDocument(raw)), &crates); err != nil {
		return nil, nil, fmt.Errorf("parsing assembled index document: %w", err)
	}

	out := make(map[string]*rawCrate, len(crates))
	failed := make(map[string]error)
	for name, body := range crates {
		rc, err := decodeTupleCrate(body)
		if err != nil {
			failed[name] = err
			continue
		}
		out[name] = rc
	}
	return out, failed, nil
}

func decodeTupleCrate(body json.RawMessage) (*rawCrate, error) {
	var fields struct {
		Doc string            `json:"doc"`
		I   []json.RawMessage `json:"i"`
		P   []json.RawMessage `json:"p"`
	}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, shapeErrf("crate record: %v", err)
	}

	parentTab, err := decodeParentTable(fields.P)
	if err != nil {
		return nil, err
	}

	rc := &rawCrate{
		doc:        fields.Doc,
		types:      make([]uint8, 0, len(fields.I)),
		names:      make([]string, 0, len(fields.I)),
		pathDeltas: make(map[int]string),
		descs:      make([]string, 0, len(fields.I)),
		parents:    make([]int, 0, len(fields.I)),
		parentTab:  parentTab,
	}

	for pos, entry := range fields.I {
		var tuple []json.RawMessage
		if err := json.Unmarshal(entry, &tuple); err != nil {
			return nil, shapeErrf("item %d: %v", pos, err)
		}
		if len(tuple) != 6 {
			return nil, shapeErrf("item %d: expected 6-tuple, got %d elements", pos, len(tuple))
		}

		var code int
		if err := json.Unmarshal(tuple[0], &code); err != nil {
			return nil, shapeErrf("item %d: kind: %v", pos, err)
		}
		if code < 0 || code > 255 {
			return nil, shapeErrf("item %d: kind %d out of byte range", pos, code)
		}

		name, err := optionalString(tuple[1])
		if err != nil {
			return nil, shapeErrf("item %d: name: %v", pos, err)
		}
		path, err := optionalString(tuple[2])
		if err != nil {
			return nil, shapeErrf("item %d: path: %v", pos, err)
		}
		desc, err := optionalString(tuple[3])
		if err != nil {
			return nil, shapeErrf("item %d: description: %v", pos, err)
		}
		ref, err := optionalInt(tuple[4])
		if err != nil {
			return nil, shapeErrf("item %d: parent reference: %v", pos, err)
		}
		// tuple[5] is search-type metadata; ignored.

		rc.types = append(rc.types, uint8(code))
		rc.names = append(rc.names, name)
		if path != "" {
			rc.pathDeltas[pos] = path
		}
		rc.descs = append(rc.descs, desc)
		rc.parents = append(rc.parents, ref)
	}

	return rc, nil
}

func optionalString(raw json.RawMessage) (string, error) {
	if isJSONNull(raw) {
		return "", nil
	}
	var s string
	err := json.Unmarshal(raw, &s)
	return s, err
}

func optionalInt(raw json.RawMessage) (int, error) {
	if isJSONNull(raw) {
		return 0, nil
	}
	var v int
	err := json.Unmarshal(raw, &v)
	return v, err
}

func isJSONNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
