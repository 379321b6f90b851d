// Package simplepath parses Rust simple paths such as "std::vec::Vec",
// "anyhow::Result" or a bare crate name like "thiserror".
package simplepath

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// stdCrates are the crates documented together under the stdlib docs rather
// than on docs.rs.
var stdCrates = []string{"std", "core", "alloc", "proc_macro", "test"}

// Path is a validated simple path. The zero value is not valid; use Parse.
type Path struct {
	raw   string
	crate int // byte length of the leading crate name
}

// InvalidPathError reports a path that is empty or contains a segment that
// is not a valid Rust identifier.
type InvalidPathError struct {
	Raw    string
	Reason string
}

func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("invalid path %q: %s", e.Raw, e.Reason)
}

// Parse validates a `::`-separated simple path. Every segment must be an
// identifier: either a non-keyword identifier or a raw `r#` identifier.
func Parse(s string) (Path, error) {
	if s == "" {
		return Path{}, &InvalidPathError{Raw: s, Reason: "empty"}
	}
	for _, segment := range strings.Split(s, "::") {
		if !isIdentifier(segment) {
			return Path{}, &InvalidPathError{Raw: s, Reason: fmt.Sprintf("segment %q is not an identifier", segment)}
		}
	}

	crate := len(s)
	if i := strings.Index(s, "::"); i >= 0 {
		crate = i
	}
	return Path{raw: s, crate: crate}, nil
}

func (p Path) String() string { return p.raw }

// CrateName returns the leading crate name segment.
func (p Path) CrateName() string { return p.raw[:p.crate] }

// IsCrateOnly reports whether the path names a crate with no item part.
func (p Path) IsCrateOnly() bool { return len(p.raw) == p.crate }

// IsStd reports whether the path belongs to the standard library docs.
func (p Path) IsStd() bool {
	return IsStdCrate(p.CrateName())
}

// IsStdCrate reports whether name is one of the stdlib crates.
func IsStdCrate(name string) bool {
	for _, c := range stdCrates {
		if name == c {
			return true
		}
	}
	return false
}

var strictKeywords = map[string]bool{
	"as": true, "break": true, "const": true, "continue": true,
	"crate": true, "else": true, "enum": true, "extern": true,
	"false": true, "fn": true, "for": true, "if": true, "impl": true,
	"in": true, "let": true, "loop": true, "match": true, "mod": true,
	"move": true, "mut": true, "pub": true, "ref": true, "return": true,
	"self": true, "Self": true, "static": true, "struct": true,
	"super": true, "trait": true, "true": true, "type": true,
	"unsafe": true, "use": true, "where": true, "while": true,
	"async": true, "await": true, "dyn": true,
}

var reservedKeywords = map[string]bool{
	"abstract": true, "become": true, "box": true, "do": true,
	"final": true, "macro": true, "override": true, "priv": true,
	"typeof": true, "unsized": true, "virtual": true, "yield": true,
}

// rawForbidden are the keywords that stay forbidden even in `r#` form.
var rawForbidden = map[string]bool{
	"crate": true, "self": true, "super": true, "Self": true,
}

// isIdentifier accepts non-keyword identifiers and raw identifiers.
func isIdentifier(s string) bool {
	if rest, ok := strings.CutPrefix(s, "r#"); ok {
		return isIdentifierOrKeyword(rest) && !rawForbidden[rest]
	}
	return isIdentifierOrKeyword(s) && !strictKeywords[s] && !reservedKeywords[s]
}

// isIdentifierOrKeyword checks the Unicode identifier form: an XID_Start
// character (or `_`) followed by XID_Continue characters. A lone `_` is not
// an identifier.
func isIdentifierOrKeyword(s string) bool {
	if s == "" {
		return false
	}
	first, size := utf8.DecodeRuneInString(s)
	rest := s[size:]
	if first == '_' && rest == "" {
		return false
	}
	if first != '_' && !isXIDStart(first) {
		return false
	}
	for _, r := range rest {
		if !isXIDContinue(r) {
			return false
		}
	}
	return true
}

// isXIDStart approximates the Unicode XID_Start class with the property
// tables the unicode package ships.
func isXIDStart(r rune) bool {
	return unicode.IsLetter(r) || unicode.Is(unicode.Other_ID_Start, r)
}

func isXIDContinue(r rune) bool {
	return isXIDStart(r) ||
		unicode.IsDigit(r) ||
		unicode.Is(unicode.Mn, r) ||
		unicode.Is(unicode.Mc, r) ||
		unicode.Is(unicode.Pc, r) ||
		unicode.Is(unicode.Other_ID_Continue, r)
}
