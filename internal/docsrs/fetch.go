package docsrs

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
)

// FetchResult is a downloaded search index plus the concrete version it
// documents.
type FetchResult struct {
	Version string // never "latest"
	Index   string // raw search index text
}

// FetchCrate downloads the search index for one crate from docs.rs.
//
// When version is "latest", docs.rs redirects the docs page to the concrete
// version; that version is read back from the final URL, whose path has the
// form /<crate>/<version>/<crate>/.
func (c *Client) FetchCrate(name, version string) (*FetchResult, error) {
	if version == "" {
		version = Latest
	}

	pageURL := fmt.Sprintf("%s/%s/%s/%s/", c.DocsBase, name, version, name)
	log.Printf("fetching docs page %s", pageURL)

	resp, err := c.get(pageURL)
	if err != nil {
		return nil, err
	}
	body, err := readOK(resp, name, version)
	if err != nil {
		return nil, err
	}

	resolved := version
	if resolved == Latest {
		resolved, err = versionFromURL(resp.Request.URL.Path)
		if err != nil {
			return nil, err
		}
	}

	indexPath, ok := findIndexPath(body)
	if !ok {
		return nil, ErrIndexNotFound
	}
	indexURL := fmt.Sprintf("%s/%s/%s/%s", c.DocsBase, name, resolved, indexPath)
	log.Printf("fetching search index %s", indexURL)

	resp, err = c.get(indexURL)
	if err != nil {
		return nil, err
	}
	index, err := readOK(resp, name, resolved)
	if err != nil {
		return nil, err
	}

	return &FetchResult{Version: resolved, Index: index}, nil
}

// FetchStd downloads the search index for the standard library. The stdlib
// docs carry no version in their URLs; it is read from the index file name,
// which has the form search-index<version>.js.
func (c *Client) FetchStd() (*FetchResult, error) {
	pageURL := c.StdlibBase + "/std/index.html"
	log.Printf("fetching stdlib docs page %s", pageURL)

	resp, err := c.get(pageURL)
	if err != nil {
		return nil, err
	}
	body, err := readOK(resp, "std", "")
	if err != nil {
		return nil, err
	}

	indexPath, ok := findIndexPath(body)
	if !ok {
		return nil, ErrIndexNotFound
	}

	version, err := versionFromIndexPath(indexPath)
	if err != nil {
		return nil, err
	}

	indexURL := c.StdlibBase + "/" + indexPath
	log.Printf("fetching stdlib search index %s", indexURL)

	resp, err = c.get(indexURL)
	if err != nil {
		return nil, err
	}
	index, err := readOK(resp, "std", version)
	if err != nil {
		return nil, err
	}

	return &FetchResult{Version: version, Index: index}, nil
}

// readOK drains a response, enforcing a 200 status.
func readOK(resp *http.Response, name, version string) (string, error) {
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("docs host returned %d for %s/%s: %s",
			resp.StatusCode, name, version, string(snippet))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	return string(body), nil
}

// versionFromURL extracts the version segment from a docs.rs docs path of
// the form /<crate>/<version>/<crate>/.
func versionFromURL(path string) (string, error) {
	segments := strings.FieldsFunc(path, func(r rune) bool { return r == '/' })
	if len(segments) < 2 {
		return "", fmt.Errorf("no version segment in URL path %q", path)
	}
	version, err := NormalizeVersion(segments[1])
	if err != nil {
		return "", fmt.Errorf("version segment in URL path %q: %w", path, err)
	}
	if version == Latest {
		return "", fmt.Errorf("URL path %q did not resolve to a concrete version", path)
	}
	return version, nil
}

// versionFromIndexPath extracts the stdlib version from a file name of the
// form search-index<version>.js.
func versionFromIndexPath(indexPath string) (string, error) {
	rest, ok := strings.CutPrefix(indexPath, "search-index")
	if !ok {
		return "", fmt.Errorf("index path %q not in search-index<version>.js format", indexPath)
	}
	rest, ok = strings.CutSuffix(rest, ".js")
	if !ok {
		return "", fmt.Errorf("index path %q not in search-index<version>.js format", indexPath)
	}
	version := strings.TrimPrefix(rest, "-")
	if _, err := NormalizeVersion(version); err != nil || version == "" {
		return "", fmt.Errorf("index path %q carries no usable version", indexPath)
	}
	return version, nil
}
