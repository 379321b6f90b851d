// Package docsrs retrieves raw search index text from docs.rs and the
// stdlib docs site. It performs no decoding; callers feed the fetched text
// to the index package.
package docsrs

import (
	"fmt"
	"net/http"
	"time"
)

// Defaults used when a field is left empty.
const (
	DefaultDocsBase   = "https://docs.rs"
	DefaultStdlibBase = "https://doc.rust-lang.org/nightly"

	userAgent = "docseek/0.1.0"
)

// ErrIndexNotFound is returned when a docs page contains no recognizable
// search index reference.
var ErrIndexNotFound = fmt.Errorf("search index path not found in page")

// Client fetches docs pages and search indexes.
type Client struct {
	HTTP       *http.Client
	DocsBase   string // docs.rs base URL
	StdlibBase string // stdlib docs base URL
}

// NewClient builds a client with the default base URLs and the given HTTP
// timeout. Redirects are followed up to the net/http default of 10, which
// is how "latest" versions resolve on docs.rs.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		HTTP:       &http.Client{Timeout: timeout},
		DocsBase:   DefaultDocsBase,
		StdlibBase: DefaultStdlibBase,
	}
}

func (c *Client) get(url string) (*http.Response, error) {
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	return resp, nil
}
