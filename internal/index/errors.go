package index

import "fmt"

// ErrUnsupportedFormat is returned when the raw index text matches none of
// the known envelope markers. No partial result is produced.
var ErrUnsupportedFormat = fmt.Errorf("unsupported search index format")

// MalformedLiteralError reports a spot in an epoch-1 document that the
// grammar could not parse or recover from.
type MalformedLiteralError struct {
	Label string // grammar production, e.g. "string", "array", "reference"
	Span  string // offending text, truncated for display
	Pos   int    // byte offset within the crate's value text
}

func (e *MalformedLiteralError) Error() string {
	if e.Span == "" {
		return fmt.Sprintf("malformed %s at offset %d", e.Label, e.Pos)
	}
	return fmt.Sprintf("malformed %s at offset %d near %q", e.Label, e.Pos, e.Span)
}

// UnresolvedReferenceError reports an epoch-1 back-reference R[n] whose
// index is outside the document's reference table.
type UnresolvedReferenceError struct {
	Index int
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("back-reference R[%d] outside reference table", e.Index)
}

// ShapeMismatchError reports decoded data that does not match the expected
// record shape, e.g. a wrong tuple arity or a parent reference pointing
// outside the parent table.
type ShapeMismatchError struct {
	Detail string
}

func (e *ShapeMismatchError) Error() string {
	return "shape mismatch: " + e.Detail
}

func shapeErrf(format string, args ...any) *ShapeMismatchError {
	return &ShapeMismatchError{Detail: fmt.Sprintf(format, args...)}
}

// MissingCrateError reports a crate name absent from a decoded index.
type MissingCrateError struct {
	Name string
}

func (e *MissingCrateError) Error() string {
	return fmt.Sprintf("index contains no crate %q", e.Name)
}
