// Package itemtype defines the rustdoc item kinds that appear in search
// indexes and the URL path segments used for each kind.
package itemtype

import "fmt"

// ItemType identifies the kind of a documented item. The numeric values
// match the codes used by every search index epoch.
type ItemType uint8

const (
	Module ItemType = iota
	ExternCrate
	Import
	Struct
	Enum
	Function
	Typedef
	Static
	Trait
	Impl
	TyMethod
	Method
	StructField
	Variant
	Macro
	Primitive
	AssocType
	Constant
	AssocConst
	Union
	ForeignType
	Keyword
	OpaqueTy
	ProcAttribute
	ProcDerive
	TraitAlias

	numTypes = iota
)

var segments = [numTypes]string{
	Module:        "mod",
	ExternCrate:   "externcrate",
	Import:        "import",
	Struct:        "struct",
	Enum:          "enum",
	Function:      "fn",
	Typedef:       "type",
	Static:        "static",
	Trait:         "trait",
	Impl:          "impl",
	TyMethod:      "tymethod",
	Method:        "method",
	StructField:   "structfield",
	Variant:       "variant",
	Macro:         "macro",
	Primitive:     "primitive",
	AssocType:     "associatedtype",
	Constant:      "constant",
	AssocConst:    "associatedconstant",
	Union:         "union",
	ForeignType:   "foreigntype",
	Keyword:       "keyword",
	OpaqueTy:      "opaque",
	ProcAttribute: "attr",
	ProcDerive:    "derive",
	TraitAlias:    "traitalias",
}

// UnknownCodeError reports an item type code outside the defined range.
// Guessing a default kind would silently corrupt every synthesized URL, so
// an unknown code always fails the decode.
type UnknownCodeError struct {
	Code uint8
}

func (e *UnknownCodeError) Error() string {
	return fmt.Sprintf("unknown item type code %d", e.Code)
}

// FromCode maps a raw type code to its ItemType.
func FromCode(code uint8) (ItemType, error) {
	if code >= numTypes {
		return 0, &UnknownCodeError{Code: code}
	}
	return ItemType(code), nil
}

// Segment returns the URL path segment for the item type, e.g. "struct" in
// "foo/struct.Bar.html".
func (t ItemType) Segment() string {
	if t >= numTypes {
		return "unknown"
	}
	return segments[t]
}

// FromSegment is the reverse of Segment.
func FromSegment(segment string) (ItemType, bool) {
	for t, s := range segments {
		if s == segment {
			return ItemType(t), true
		}
	}
	return 0, false
}
