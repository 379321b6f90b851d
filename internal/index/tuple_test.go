package index

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDecodeTupleCrate(t *testing.T) {
	t.Parallel()

	body := `{"doc":"A demo crate","i":[
		[0,"demo","","The crate root",null,null],
		[3,"Foo","demo","A struct",null,null],
		[11,"bar",null,null,1,null]
	],"p":[[3,"Foo"]]}`

	rc, err := decodeTupleCrate(json.RawMessage(body))
	if err != nil {
		t.Fatalf("decodeTupleCrate: %v", err)
	}

	if rc.doc != "A demo crate" {
		t.Errorf("got doc %q, want %q", rc.doc, "A demo crate")
	}
	if diff := cmp.Diff([]uint8{0, 3, 11}, rc.types); diff != "" {
		t.Errorf("types mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"demo", "Foo", "bar"}, rc.names); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[int]string{1: "demo"}, rc.pathDeltas); diff != "" {
		t.Errorf("path deltas mismatch (-want +got):\n%s", diff)
	}
	// Nulls default to the no-value sentinels.
	if diff := cmp.Diff([]string{"The crate root", "A struct", ""}, rc.descs); diff != "" {
		t.Errorf("descriptions mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{0, 0, 1}, rc.parents); diff != "" {
		t.Errorf("parent refs mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeTupleCrateShapes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{"item_not_a_tuple", `{"doc":"","i":[3],"p":[]}`},
		{"short_tuple", `{"doc":"","i":[[3,"Foo"]],"p":[]}`},
		{"long_tuple", `{"doc":"","i":[[3,"Foo","","",null,null,null]],"p":[]}`},
		{"kind_not_a_number", `{"doc":"","i":[["x","Foo","","",null,null]],"p":[]}`},
		{"kind_out_of_byte_range", `{"doc":"","i":[[300,"Foo","","",null,null]],"p":[]}`},
		{"name_not_a_string", `{"doc":"","i":[[3,7,"","",null,null]],"p":[]}`},
		{"parent_ref_not_a_number", `{"doc":"","i":[[3,"Foo","","","x",null]],"p":[]}`},
		{"parent_entry_not_a_pair", `{"doc":"","i":[],"p":[[3]]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeTupleCrate(json.RawMessage(tt.body))
			var sm *ShapeMismatchError
			if !errors.As(err, &sm) {
				t.Errorf("got %v, want ShapeMismatchError", err)
			}
		})
	}
}
