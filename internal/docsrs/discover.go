package docsrs

import "strings"

// findIndexPath locates the search index file referenced by a docs HTML
// page. Three generator mechanisms have existed, tried newest first:
//
//   - a div attribute `data-resource-suffix="..."`, combined into
//     `search-index<suffix>.js`
//   - a div attribute `data-search-index-js="../<path>"`
//   - a script tag `src="../search-index-<hash>.js"`
//
// The reference is unique within a page, so plain string extraction is
// enough and no HTML parsing is needed.
func findIndexPath(body string) (string, bool) {
	if after, ok := cutLast(body, `data-resource-suffix="`); ok {
		if suffix, _, ok := strings.Cut(after, `"`); ok {
			return "search-index" + suffix + ".js", true
		}
	}

	if after, ok := cutLast(body, `data-search-index-js="../`); ok {
		if path, _, ok := strings.Cut(after, `"`); ok {
			return path, true
		}
	}

	if i := strings.LastIndex(body, `src="../search-index-`); i >= 0 {
		after := body[i+len(`src="../`):]
		if path, _, ok := strings.Cut(after, `"`); ok {
			return path, true
		}
	}

	return "", false
}

// cutLast returns the text after the last occurrence of sep.
func cutLast(s, sep string) (string, bool) {
	i := strings.LastIndex(s, sep)
	if i < 0 {
		return "", false
	}
	return s[i+len(sep):], true
}
