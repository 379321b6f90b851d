package docsrs

import "testing"

func TestFindIndexPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want string
	}{
		{
			"script_src",
			`<html><head><script src="../search-index-20210331-1.53.0-nightly.js"></script></head></html>`,
			"search-index-20210331-1.53.0-nightly.js",
		},
		{
			"data_search_index_js",
			`<div id="rustdoc-vars" data-root-path="../" data-search-index-js="../search-index1.56.0.js"></div>`,
			"search-index1.56.0.js",
		},
		{
			"data_resource_suffix",
			`<div id="rustdoc-vars" data-root-path="../" data-resource-suffix="1.70.0" data-search-js="search.js"></div>`,
			"search-index1.70.0.js",
		},
		{
			"resource_suffix_wins_over_older_mechanisms",
			`<script src="../search-index-old.js"></script><div data-resource-suffix="-20180529"></div>`,
			"search-index-20180529.js",
		},
		{
			"last_occurrence_wins",
			`<div data-resource-suffix="a"></div><div data-resource-suffix="b"></div>`,
			"search-indexb.js",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := findIndexPath(tt.body)
			if !ok {
				t.Fatal("no index path found")
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFindIndexPathAbsent(t *testing.T) {
	t.Parallel()

	if _, ok := findIndexPath(`<html><body>nothing here</body></html>`); ok {
		t.Error("expected no index path")
	}
}

func TestVersionFromURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		path    string
		want    string
		wantErr bool
	}{
		{"docsrs_path", "/serde/1.0.210/serde/", "1.0.210", false},
		{"no_trailing_slash", "/anyhow/1.0.86/anyhow", "1.0.86", false},
		{"too_short", "/serde", "", true},
		{"non_semver_segment", "/serde/not-a-version/serde/", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := versionFromURL(tt.path)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("versionFromURL: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestVersionFromIndexPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		path    string
		want    string
		wantErr bool
	}{
		{"plain", "search-index1.70.0.js", "1.70.0", false},
		{"dash_separated", "search-index-1.53.0.js", "1.53.0", false},
		{"wrong_prefix", "index-1.70.0.js", "", true},
		{"wrong_suffix", "search-index1.70.0.json", "", true},
		{"empty_version", "search-index.js", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := versionFromIndexPath(tt.path)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("versionFromIndexPath: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizeVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"empty_is_latest", "", Latest, false},
		{"latest", "latest", Latest, false},
		{"semver", "1.0.210", "1.0.210", false},
		{"prerelease", "2.0.0-beta.1", "2.0.0-beta.1", false},
		{"garbage", "not-a-version", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeVersion(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeVersion: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
