package index

import (
	"errors"
	"testing"
)

func TestDetectEpoch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want Epoch
	}{
		{
			"epoch1_prologue",
			`var N=null,E="",T="t",U="u",searchIndex={};` + "\n" + `var R=[];`,
			Epoch1,
		},
		{
			"epoch2_trailer",
			`var searchIndex = JSON.parse('{}');` + "\n" + `addSearchOptions(searchIndex);initSearch(searchIndex);`,
			Epoch2,
		},
		{
			"epoch3_browser_trailer",
			`var searchIndex = JSON.parse('{}');` + "\n" + `if (window.initSearch) {window.initSearch(searchIndex)};`,
			Epoch3,
		},
		{
			"epoch3_exports_trailer",
			`var searchIndex = JSON.parse('{}');` + "\n" + `if (typeof exports !== 'undefined') {exports.searchIndex = searchIndex};`,
			Epoch3,
		},
		{
			"epoch3_exports_trailing_newline",
			`var searchIndex = JSON.parse('{}');` + "\n" + `if (typeof exports !== 'undefined') {exports.searchIndex = searchIndex};` + "\n",
			Epoch3,
		},
		{
			"marker_in_middle_is_not_enough",
			`x addSearchOptions(searchIndex);initSearch(searchIndex); y`,
			EpochUnknown,
		},
		{
			"empty",
			"",
			EpochUnknown,
		},
		{
			"unrelated_js",
			`console.log("hello");`,
			EpochUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectEpoch(tt.raw)
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDecodeUnknownFormat(t *testing.T) {
	t.Parallel()

	_, err := Decode(`console.log("hello");`)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("got %v, want ErrUnsupportedFormat", err)
	}
}
