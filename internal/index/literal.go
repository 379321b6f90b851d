package index

import (
	"errors"
	"strconv"
	"unicode/utf8"
)

// The epoch-1 index stores each crate's data as a restricted JavaScript
// object literal rather than JSON:
//
//	value := null | number | string | array | object | sentinel | reference
//
// Four single-letter sentinels abbreviate common values (N → null, E → "",
// T → "t", U → "u"), and R[n] dereferences string n from a shared reference
// table. This is a data literal language only; nothing is evaluated.

// maxLiteralDepth bounds recursion so a corrupted or hostile document with
// pathological nesting fails with MalformedLiteral instead of exhausting
// the stack.
const maxLiteralDepth = 128

// jsValue is one of jsNull, jsStr, jsNum, jsArr, jsObj or *jsInvalid.
type jsValue any

type (
	jsNull struct{}
	jsStr  string
	jsNum  int
	jsArr  []jsValue
	jsObj  map[string]jsValue
)

// jsInvalid marks an element that failed to parse and was skipped during
// resynchronization. It survives until coercion, which fails the crate
// with the recorded span and label.
type jsInvalid struct {
	label string
	span  string
	pos   int
}

func (inv *jsInvalid) err() error {
	return &MalformedLiteralError{Label: inv.label, Span: inv.span, Pos: inv.pos}
}

// literalParser is a recursive-descent parser over a single crate's value
// text. refs is the document's reference table, read-only for the duration
// of the parse.
type literalParser struct {
	src  string
	pos  int
	refs []string
}

// parse consumes the entire input as one value.
func (p *literalParser) parse() (jsValue, error) {
	p.skipWS()
	v, err := p.parseValue(0)
	if err != nil {
		return nil, err
	}
	p.skipWS()
	if p.pos != len(p.src) {
		return nil, p.malformed("value")
	}
	return v, nil
}

func (p *literalParser) parseValue(depth int) (jsValue, error) {
	if depth > maxLiteralDepth {
		return nil, p.malformed("nesting")
	}
	p.skipWS()
	if p.pos >= len(p.src) {
		return nil, p.malformed("value")
	}

	switch c := p.src[p.pos]; {
	case c == 'n':
		return p.parseNull()
	case c >= '0' && c <= '9':
		return p.parseNumber()
	case c == '"':
		return p.parseString()
	case c == '[':
		return p.parseArray(depth)
	case c == '{':
		return p.parseObject(depth)
	case c == 'N':
		p.pos++
		return jsNull{}, nil
	case c == 'E':
		p.pos++
		return jsStr(""), nil
	case c == 'T':
		p.pos++
		return jsStr("t"), nil
	case c == 'U':
		p.pos++
		return jsStr("u"), nil
	case c == 'R':
		return p.parseReference()
	default:
		return nil, p.malformed("value")
	}
}

func (p *literalParser) parseNull() (jsValue, error) {
	if !p.consume("null") {
		return nil, p.malformed("null")
	}
	return jsNull{}, nil
}

func (p *literalParser) parseNumber() (jsValue, error) {
	start := p.pos
	for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
		p.pos++
	}
	n, err := strconv.Atoi(p.src[start:p.pos])
	if err != nil {
		p.pos = start
		return nil, p.malformed("number")
	}
	return jsNum(n), nil
}

func (p *literalParser) parseString() (jsValue, error) {
	s, err := p.parseStringRaw()
	if err != nil {
		return nil, err
	}
	return jsStr(s), nil
}

func (p *literalParser) parseStringRaw() (string, error) {
	start := p.pos
	p.pos++ // opening quote
	var b []byte
	for {
		if p.pos >= len(p.src) {
			p.pos = start
			return "", p.malformed("string")
		}
		c := p.src[p.pos]
		switch {
		case c == '"':
			p.pos++
			return string(b), nil
		case c == '\\':
			p.pos++
			r, err := p.parseEscape()
			if err != nil {
				p.pos = start
				return "", err
			}
			b = utf8.AppendRune(b, r)
		default:
			r, size := utf8.DecodeRuneInString(p.src[p.pos:])
			p.pos += size
			b = utf8.AppendRune(b, r)
		}
	}
}

func (p *literalParser) parseEscape() (rune, error) {
	if p.pos >= len(p.src) {
		return 0, p.malformed("string")
	}
	c := p.src[p.pos]
	p.pos++
	switch c {
	case '"':
		return '"', nil
	case '\\':
		return '\\', nil
	case '/':
		return '/', nil
	case 'b':
		return '\b', nil
	case 'f':
		return '\f', nil
	case 'n':
		return '\n', nil
	case 'r':
		return '\r', nil
	case 't':
		return '\t', nil
	case 'u':
		return p.parseUnicodeEscape()
	default:
		p.pos--
		return 0, p.malformed("string")
	}
}

// parseUnicodeEscape reads the four characters after `\u`. A run that is
// not valid hex, or that names an unpaired surrogate, yields the Unicode
// replacement character rather than failing the document.
func (p *literalParser) parseUnicodeEscape() (rune, error) {
	if p.pos+4 > len(p.src) {
		return 0, p.malformed("string")
	}
	hex := p.src[p.pos : p.pos+4]
	p.pos += 4

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return utf8.RuneError, nil
	}
	r := rune(v)
	if r >= 0xD800 && r <= 0xDFFF {
		return utf8.RuneError, nil
	}
	return r, nil
}

func (p *literalParser) parseArray(depth int) (jsValue, error) {
	p.pos++ // '['
	arr := jsArr{}
	p.skipWS()
	if p.consume("]") {
		return arr, nil
	}

	for {
		v, err := p.parseElement(depth)
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)

		p.skipWS()
		switch {
		case p.consume(","):
			p.skipWS()
			if p.consume("]") { // trailing comma
				return arr, nil
			}
		case p.consume("]"):
			return arr, nil
		default:
			return nil, p.malformed("array")
		}
	}
}

func (p *literalParser) parseObject(depth int) (jsValue, error) {
	p.pos++ // '{'
	obj := jsObj{}
	p.skipWS()
	if p.consume("}") {
		return obj, nil
	}

	for {
		p.skipWS()
		if p.pos >= len(p.src) || p.src[p.pos] != '"' {
			return nil, p.malformed("object")
		}
		key, err := p.parseStringRaw()
		if err != nil {
			return nil, err
		}
		p.skipWS()
		if !p.consume(":") {
			return nil, p.malformed("object")
		}

		v, err := p.parseElement(depth)
		if err != nil {
			return nil, err
		}
		obj[key] = v

		p.skipWS()
		switch {
		case p.consume(","):
			p.skipWS()
			if p.consume("}") { // trailing comma
				return obj, nil
			}
		case p.consume("}"):
			return obj, nil
		default:
			return nil, p.malformed("object")
		}
	}
}

// parseElement parses one array element or object value, recovering from
// grammar errors where structurally possible: the malformed element is
// skipped up to the nearest unmatched bracket or separator and replaced by
// an invalid-element marker. Reference errors are never recovered; a bad
// back-reference fails the crate outright.
func (p *literalParser) parseElement(depth int) (jsValue, error) {
	p.skipWS()
	start := p.pos

	v, err := p.parseValue(depth + 1)
	if err == nil {
		return v, nil
	}

	var ml *MalformedLiteralError
	if !errors.As(err, &ml) {
		return nil, err
	}

	end, ok := p.resync(start)
	if !ok {
		return nil, err
	}
	return &jsInvalid{label: ml.Label, span: snippet(p.src[start:end]), pos: start}, nil
}

// resync advances from start to the next element boundary: a comma or an
// unmatched closing bracket at the current nesting level. Strings are
// skipped whole so separators inside them don't end the scan. Reports
// failure when the input ends first.
func (p *literalParser) resync(start int) (int, bool) {
	p.pos = start
	level := 0
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case '"':
			if !p.skipStringRaw() {
				return 0, false
			}
			continue
		case '[', '{':
			level++
		case ']', '}':
			if level == 0 {
				return p.pos, true
			}
			level--
		case ',':
			if level == 0 {
				return p.pos, true
			}
		}
		p.pos++
	}
	return 0, false
}

// skipStringRaw advances past a double-quoted string without interpreting
// escapes beyond `\"` and `\\`.
func (p *literalParser) skipStringRaw() bool {
	p.pos++ // opening quote
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case '\\':
			p.pos += 2
		case '"':
			p.pos++
			return true
		default:
			p.pos++
		}
	}
	return false
}

func (p *literalParser) parseReference() (jsValue, error) {
	start := p.pos
	if !p.consume("R[") {
		return nil, p.malformed("reference")
	}

	digits := p.pos
	for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
		p.pos++
	}
	idx, err := strconv.Atoi(p.src[digits:p.pos])
	if err != nil {
		p.pos = start
		return nil, p.malformed("reference")
	}
	if !p.consume("]") {
		p.pos = start
		return nil, p.malformed("reference")
	}

	if idx >= len(p.refs) {
		return nil, &UnresolvedReferenceError{Index: idx}
	}
	return jsStr(p.refs[idx]), nil
}

func (p *literalParser) consume(s string) bool {
	if len(p.src)-p.pos < len(s) || p.src[p.pos:p.pos+len(s)] != s {
		return false
	}
	p.pos += len(s)
	return true
}

func (p *literalParser) skipWS() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\r', '\n':
			p.pos++
		default:
			return
		}
	}
}

func (p *literalParser) malformed(label string) error {
	return &MalformedLiteralError{Label: label, Span: snippet(p.src[p.pos:]), Pos: p.pos}
}

func snippet(s string) string {
	const max = 24
	if len(s) > max {
		return s[:max]
	}
	return s
}
