package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	referencePrefix = "var R="
	cratePrefix     = `searchIndex["`
	crateInfix      = `"]=`
)

// decodeLegacy handles the epoch-1 encoding. The document holds one
// assignment statement per crate:
//
//	searchIndex["name"]=<restricted JS literal>;
//
// plus a `var R=[...];` line carrying the reference table that R[n]
// back-references resolve against. A crate whose literal cannot be parsed
// or coerced fails alone; its siblings still decode.
func decodeLegacy(raw string) (map[string]*rawCrate, map[string]error, error) {
	refs, err := referenceTable(raw)
	if err != nil {
		return nil, nil, err
	}

	out := make(map[string]*rawCrate)
	failed := make(map[string]error)
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSuffix(line, "\r")
		rest, ok := strings.CutPrefix(line, cratePrefix)
		if !ok {
			continue
		}
		rest, ok = strings.CutSuffix(rest, ";")
		if !ok {
			continue
		}
		name, value, ok := strings.Cut(rest, crateInfix)
		if !ok {
			continue
		}

		p := &literalParser{src: value, refs: refs}
		v, err := p.parse()
		if err != nil {
			failed[name] = err
			continue
		}
		rc, err := coerceCrate(v)
		if err != nil {
			failed[name] = err
			continue
		}
		out[name] = rc
	}

	return out, failed, nil
}

// referenceTable extracts and parses the `var R=[...];` line. The table
// itself is ordinary JSON.
func referenceTable(raw string) ([]string, error) {
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSuffix(line, "\r")
		rest, ok := strings.CutPrefix(line, referencePrefix)
		if !ok {
			continue
		}
		rest, ok = strings.CutSuffix(rest, ";")
		if !ok {
			continue
		}
		var refs []string
		if err := json.Unmarshal([]byte(rest), &refs); err != nil {
			return nil, fmt.Errorf("parsing reference table: %w", err)
		}
		return refs, nil
	}
	return nil, &MalformedLiteralError{Label: "reference-table", Span: "", Pos: 0}
}

// coerceCrate converts a parsed literal tree into the common raw shape:
// an object with keys doc, i (array of 6-tuples) and p (parent table).
// Any surviving invalid-element marker fails the crate here, carrying the
// span recorded during resynchronization.
func coerceCrate(v jsValue) (*rawCrate, error) {
	obj, err := asObject(v)
	if err != nil {
		return nil, err
	}

	docV, ok := obj["doc"]
	if !ok {
		return nil, shapeErrf("crate record missing doc")
	}
	doc, err := asString(docV)
	if err != nil {
		return nil, fieldErr(err, "doc")
	}

	items, err := asArray(obj["i"])
	if err != nil {
		return nil, fieldErr(err, "items")
	}

	rc := &rawCrate{
		doc:        doc,
		types:      make([]uint8, 0, len(items)),
		names:      make([]string, 0, len(items)),
		pathDeltas: make(map[int]string),
		descs:      make([]string, 0, len(items)),
		parents:    make([]int, 0, len(items)),
	}

	for pos, entry := range items {
		tuple, err := asArray(entry)
		if err != nil {
			return nil, fieldErr(err, "item %d", pos)
		}
		if len(tuple) != 6 {
			return nil, shapeErrf("item %d: expected 6-tuple, got %d elements", pos, len(tuple))
		}

		code, err := asCode(tuple[0])
		if err != nil {
			return nil, fieldErr(err, "item %d: kind", pos)
		}
		name, err := asOptString(tuple[1])
		if err != nil {
			return nil, fieldErr(err, "item %d: name", pos)
		}
		path, err := asOptString(tuple[2])
		if err != nil {
			return nil, fieldErr(err, "item %d: path", pos)
		}
		desc, err := asOptString(tuple[3])
		if err != nil {
			return nil, fieldErr(err, "item %d: description", pos)
		}
		ref, err := asOptNum(tuple[4])
		if err != nil {
			return nil, fieldErr(err, "item %d: parent reference", pos)
		}
		// tuple[5] is search-type metadata; ignored, but a marker there
		// still means the element never parsed.
		if inv, ok := tuple[5].(*jsInvalid); ok {
			return nil, inv.err()
		}

		rc.types = append(rc.types, code)
		rc.names = append(rc.names, name)
		if path != "" {
			rc.pathDeltas[pos] = path
		}
		rc.descs = append(rc.descs, desc)
		rc.parents = append(rc.parents, ref)
	}

	parentsV, err := asArray(obj["p"])
	if err != nil {
		return nil, fieldErr(err, "parent table")
	}
	for i, entry := range parentsV {
		pair, err := asArray(entry)
		if err != nil {
			return nil, fieldErr(err, "parent table entry %d", i)
		}
		if len(pair) != 2 {
			return nil, shapeErrf("parent table entry %d: expected (kind, name) pair", i)
		}
		code, err := asCode(pair[0])
		if err != nil {
			return nil, fieldErr(err, "parent table entry %d: kind", i)
		}
		name, err := asString(pair[1])
		if err != nil {
			return nil, fieldErr(err, "parent table entry %d: name", i)
		}
		rc.parentTab = append(rc.parentTab, rawParent{code: code, name: name})
	}

	return rc, nil
}

// fieldErr adds field context to a coercion failure. An invalid-element
// marker recorded during resynchronization passes through unchanged so the
// original span and position survive to the caller.
func fieldErr(err error, format string, args ...any) error {
	var ml *MalformedLiteralError
	if errors.As(err, &ml) {
		return ml
	}
	return shapeErrf("%s: %v", fmt.Sprintf(format, args...), err)
}

func asObject(v jsValue) (jsObj, error) {
	switch v := v.(type) {
	case jsObj:
		return v, nil
	case *jsInvalid:
		return nil, v.err()
	default:
		return nil, fmt.Errorf("expected object, got %T", v)
	}
}

func asArray(v jsValue) (jsArr, error) {
	switch v := v.(type) {
	case jsArr:
		return v, nil
	case nil:
		return nil, fmt.Errorf("expected array, got nothing")
	case *jsInvalid:
		return nil, v.err()
	default:
		return nil, fmt.Errorf("expected array, got %T", v)
	}
}

func asString(v jsValue) (string, error) {
	switch v := v.(type) {
	case jsStr:
		return string(v), nil
	case *jsInvalid:
		return "", v.err()
	default:
		return "", fmt.Errorf("expected string, got %T", v)
	}
}

// asOptString treats null as the empty string, matching the optional-field
// semantics of the other epochs.
func asOptString(v jsValue) (string, error) {
	if _, ok := v.(jsNull); ok {
		return "", nil
	}
	return asString(v)
}

// asOptNum treats null as 0, the no-parent sentinel.
func asOptNum(v jsValue) (int, error) {
	switch v := v.(type) {
	case jsNum:
		return int(v), nil
	case jsNull:
		return 0, nil
	case *jsInvalid:
		return 0, v.err()
	default:
		return 0, fmt.Errorf("expected number, got %T", v)
	}
}

func asCode(v jsValue) (uint8, error) {
	n, err := asOptNum(v)
	if err != nil {
		return 0, err
	}
	if n < 0 || n > 255 {
		return 0, fmt.Errorf("code %d out of byte range", n)
	}
	return uint8(n), nil
}
