package itemtype

import (
	"errors"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	for code := uint8(0); code < numTypes; code++ {
		ty, err := FromCode(code)
		if err != nil {
			t.Fatalf("FromCode(%d): %v", code, err)
		}
		seg := ty.Segment()
		if seg == "" || seg == "unknown" {
			t.Errorf("code %d has no segment", code)
		}
		back, ok := FromSegment(seg)
		if !ok || back != ty {
			t.Errorf("FromSegment(%q) = %v, %v; want %v", seg, back, ok, ty)
		}
	}
}

func TestUnknownCodes(t *testing.T) {
	t.Parallel()

	for _, code := range []uint8{26, 27, 100, 255} {
		_, err := FromCode(code)
		var unknown *UnknownCodeError
		if !errors.As(err, &unknown) {
			t.Errorf("FromCode(%d) = %v, want UnknownCodeError", code, err)
			continue
		}
		if unknown.Code != code {
			t.Errorf("UnknownCodeError.Code = %d, want %d", unknown.Code, code)
		}
	}
}

func TestSegments(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ty   ItemType
		want string
	}{
		{Module, "mod"},
		{Struct, "struct"},
		{Function, "fn"},
		{Method, "method"},
		{AssocConst, "associatedconstant"},
		{TraitAlias, "traitalias"},
	}

	for _, tt := range tests {
		if got := tt.ty.Segment(); got != tt.want {
			t.Errorf("%d.Segment() = %q, want %q", tt.ty, got, tt.want)
		}
	}
}
