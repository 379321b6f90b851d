package simplepath

import (
	"errors"
	"testing"
)

func TestParseValid(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"anyhow",
		"anyhow::Result",
		"std::vec::Vec",
		"special::__",
		"__",
		"r#unsafe",
		"serde::r#type",
		"tokio::sync::mpsc",
	}
	for _, input := range inputs {
		if _, err := Parse(input); err != nil {
			t.Errorf("Parse(%q): %v", input, err)
		}
	}
}

func TestParseInvalid(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"",
		"a::::b",
		"::",
		"_",
		"a::_::b",
		"unsafe",
		"yield",
		"Self",
		"r#Self",
		"r#crate",
		"1abc",
		"foo bar",
		"foo::1bar",
	}
	for _, input := range inputs {
		_, err := Parse(input)
		var inv *InvalidPathError
		if !errors.As(err, &inv) {
			t.Errorf("Parse(%q): got %v, want InvalidPathError", input, err)
		}
	}
}

func TestCrateName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     string
		crate     string
		crateOnly bool
	}{
		{"crate_only", "anyhow", "anyhow", true},
		{"with_item", "anyhow::Result", "anyhow", false},
		{"nested", "std::vec::Vec", "std", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if got := p.CrateName(); got != tt.crate {
				t.Errorf("got crate %q, want %q", got, tt.crate)
			}
			if got := p.IsCrateOnly(); got != tt.crateOnly {
				t.Errorf("got crate-only %v, want %v", got, tt.crateOnly)
			}
			if got := p.String(); got != tt.input {
				t.Errorf("got %q, want %q", got, tt.input)
			}
		})
	}
}

func TestIsStd(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  bool
	}{
		{"std::vec::Vec", true},
		{"core::option::Option", true},
		{"alloc", true},
		{"proc_macro", true},
		{"test", true},
		{"anyhow::Result", false},
		{"stdx", false},
	}

	for _, tt := range tests {
		p, err := Parse(tt.input)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tt.input, err)
		}
		if got := p.IsStd(); got != tt.want {
			t.Errorf("IsStd(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
