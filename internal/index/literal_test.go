package index

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func parseLiteral(t *testing.T, src string, refs []string) (jsValue, error) {
	t.Helper()
	p := &literalParser{src: src, refs: refs}
	return p.parse()
}

func TestLiteralValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want jsValue
	}{
		{"null_keyword", `null`, jsNull{}},
		{"sentinel_N", `N`, jsNull{}},
		{"sentinel_E", `E`, jsStr("")},
		{"sentinel_T", `T`, jsStr("t")},
		{"sentinel_U", `U`, jsStr("u")},
		{"number", `42`, jsNum(42)},
		{"zero", `0`, jsNum(0)},
		{"plain_string", `"hello"`, jsStr("hello")},
		{"string_escapes", `"a\nb\t\"c\\"`, jsStr("a\nb\t\"c\\")},
		{"unicode_escape", `"\u0041"`, jsStr("A")},
		{"invalid_unicode_escape", `"\uZZZZ"`, jsStr("�")},
		{"unpaired_surrogate", `"\uD800"`, jsStr("�")},
		{"empty_array", `[]`, jsArr{}},
		{"array", `[1,"x",N]`, jsArr{jsNum(1), jsStr("x"), jsNull{}}},
		{"array_trailing_comma", `[1,2,]`, jsArr{jsNum(1), jsNum(2)}},
		{"nested_array", `[[1],[2,3]]`, jsArr{jsArr{jsNum(1)}, jsArr{jsNum(2), jsNum(3)}}},
		{"empty_object", `{}`, jsObj{}},
		{"object", `{"a":1,"b":E}`, jsObj{"a": jsNum(1), "b": jsStr("")}},
		{"object_trailing_comma", `{"a":1,}`, jsObj{"a": jsNum(1)}},
		{"whitespace", ` [ 1 , 2 ] `, jsArr{jsNum(1), jsNum(2)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseLiteral(t, tt.src, nil)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("value mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLiteralReferences(t *testing.T) {
	t.Parallel()
	refs := []string{"first", "second"}

	got, err := parseLiteral(t, `[R[0],R[1],R[0]]`, refs)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := jsArr{jsStr("first"), jsStr("second"), jsStr("first")}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("value mismatch (-want +got):\n%s", diff)
	}
}

func TestLiteralUnresolvedReference(t *testing.T) {
	t.Parallel()

	_, err := parseLiteral(t, `[R[7]]`, []string{"only"})
	var ref *UnresolvedReferenceError
	if !errors.As(err, &ref) {
		t.Fatalf("got %v, want UnresolvedReferenceError", err)
	}
	if ref.Index != 7 {
		t.Errorf("got index %d, want 7", ref.Index)
	}
}

func TestLiteralMalformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
	}{
		{"empty", ``},
		{"bare_garbage", `@`},
		{"unterminated_string", `"abc`},
		{"bad_escape", `"\q"`},
		{"truncated_unicode", `"\u00`},
		{"unterminated_array", `[1,2`},
		{"object_without_key", `{1:2}`},
		{"object_missing_colon", `{"a" 1}`},
		{"trailing_input", `1 2`},
		{"reference_without_index", `R[]`},
		{"lowercase_sentinel", `e`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseLiteral(t, tt.src, nil)
			var ml *MalformedLiteralError
			if !errors.As(err, &ml) {
				t.Errorf("got %v, want MalformedLiteralError", err)
			}
		})
	}
}

// A malformed element inside an array or object is skipped up to the next
// separator and recorded as an invalid marker; siblings still parse.
func TestLiteralRecovery(t *testing.T) {
	t.Parallel()

	t.Run("array_element", func(t *testing.T) {
		got, err := parseLiteral(t, `[1,@,3]`, nil)
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		arr, ok := got.(jsArr)
		if !ok || len(arr) != 3 {
			t.Fatalf("got %#v, want 3-element array", got)
		}
		if arr[0] != jsNum(1) || arr[2] != jsNum(3) {
			t.Errorf("siblings not preserved: %#v", arr)
		}
		inv, ok := arr[1].(*jsInvalid)
		if !ok {
			t.Fatalf("got %#v, want invalid marker", arr[1])
		}
		var ml *MalformedLiteralError
		if !errors.As(inv.err(), &ml) {
			t.Errorf("marker error is %v, want MalformedLiteralError", inv.err())
		}
	})

	t.Run("object_value", func(t *testing.T) {
		got, err := parseLiteral(t, `{"a":@,"b":2}`, nil)
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		obj, ok := got.(jsObj)
		if !ok {
			t.Fatalf("got %#v, want object", got)
		}
		if _, ok := obj["a"].(*jsInvalid); !ok {
			t.Errorf("got %#v for a, want invalid marker", obj["a"])
		}
		if obj["b"] != jsNum(2) {
			t.Errorf("got %#v for b, want 2", obj["b"])
		}
	})

	t.Run("separator_inside_string_does_not_end_skip", func(t *testing.T) {
		got, err := parseLiteral(t, `[@"a,b"@,2]`, nil)
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		arr, ok := got.(jsArr)
		if !ok || len(arr) != 2 {
			t.Fatalf("got %#v, want 2-element array", got)
		}
		if arr[1] != jsNum(2) {
			t.Errorf("got %#v, want 2", arr[1])
		}
	})

	t.Run("unrecoverable_at_top_level", func(t *testing.T) {
		if _, err := parseLiteral(t, `@`, nil); err == nil {
			t.Error("expected error for bare malformed value")
		}
	})
}

// Nesting beyond the depth bound fails the innermost element. The enclosing
// arrays recover, so the guard surfaces as an invalid marker that later
// fails coercion rather than as a stack overflow.
func TestLiteralDepthGuard(t *testing.T) {
	t.Parallel()

	deep := strings.Repeat("[", maxLiteralDepth+2) + strings.Repeat("]", maxLiteralDepth+2)
	got, err := parseLiteral(t, deep, nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	v := got
	for {
		arr, ok := v.(jsArr)
		if !ok {
			break
		}
		if len(arr) != 1 {
			t.Fatalf("got %d elements, want 1", len(arr))
		}
		v = arr[0]
	}

	inv, ok := v.(*jsInvalid)
	if !ok {
		t.Fatalf("got %#v, want invalid marker", v)
	}
	if inv.label != "nesting" {
		t.Errorf("got label %q, want nesting", inv.label)
	}
}
