package rpc

// AddCratesRequest is the request body for POST /add-crates.
type AddCratesRequest struct {
	Crates []CrateSpec `json:"crates"`
}

type CrateSpec struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// CrateResult is the outcome of indexing one crate.
type CrateResult struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Epoch   string `json:"epoch,omitempty"`
	Items   int    `json:"items"`
	Error   string `json:"error,omitempty"`
}

// AddCratesResponse collects the per-crate results a client assembled from
// the NDJSON stream.
type AddCratesResponse struct {
	Results []CrateResult `json:"results"`
}

// ProgressLine is a single line of NDJSON streamed from the add-crates endpoint.
type ProgressLine struct {
	Type    string       `json:"type"` // "progress" or "result"
	Message string       `json:"message,omitempty"`
	Result  *CrateResult `json:"result,omitempty"`
}

// ResolveRequest is the request body for POST /resolve. Path is a full
// simple path such as "serde::de::Visitor"; the crate name is its first
// segment.
type ResolveRequest struct {
	Path    string `json:"path"`
	Version string `json:"version,omitempty"`
}

// ResolvedItem is one documented item with its URLs.
type ResolvedItem struct {
	Path        string `json:"path"`
	URL         string `json:"url"`       // relative to the crate's docs root
	Permalink   string `json:"permalink"` // absolute URL
	Kind        string `json:"kind"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ResolveResponse is the response body for POST /resolve. Item is set on an
// exact match; Alternatives carries near misses when the exact path is not
// in the index.
type ResolveResponse struct {
	Crate        string         `json:"crate"`
	Version      string         `json:"version"`
	Item         *ResolvedItem  `json:"item,omitempty"`
	Alternatives []ResolvedItem `json:"alternatives,omitempty"`
}

// SearchCratesRequest is the request body for POST /search-crates.
type SearchCratesRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// SearchCratesResponse is the response body for POST /search-crates.
type SearchCratesResponse struct {
	Results []CrateSearchResult `json:"results"`
}

type CrateSearchResult struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	MaxVersion     string `json:"max_version"`
	Downloads      int    `json:"downloads"`
	IndexedVersion string `json:"indexed_version,omitempty"`
}

// StatusResponse is the response body for GET /status.
type StatusResponse struct {
	Crates []CrateStatus `json:"crates"`
}

type CrateStatus struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Epoch   string `json:"epoch,omitempty"`
	Items   int    `json:"items"`
	Indexed bool   `json:"indexed"`
}
