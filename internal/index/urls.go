package index

import (
	"fmt"
	"strings"
)

// Entry pairs an item's fully-qualified path with its documentation URL,
// relative to the crate's docs root.
type Entry struct {
	Path        string
	URL         string
	Kind        string
	Name        string
	Description string
}

// Entries lists every item with its fully-qualified path and URL.
func (c *Crate) Entries() []Entry {
	return buildEntries(c.Items, c.Parents)
}

// buildEntries derives each item's path and URL.
//
// A top-level item has its own page:
//
//	bar::foo → bar/fn.foo.html
//
// An item with a parent (a method, field, variant, ...) is rendered as an
// anchor on the parent's page instead:
//
//	bar::Bar::baz → bar/struct.Bar.html#method.baz
func buildEntries(items []Item, parents []Parent) []Entry {
	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		dir := strings.ReplaceAll(item.Path, "::", "/")

		var fullPath, url string
		if item.Parent >= 0 {
			parent := parents[item.Parent]
			fullPath = fmt.Sprintf("%s::%s::%s", item.Path, parent.Name, item.Name)
			url = fmt.Sprintf("%s/%s.%s.html#%s.%s",
				dir, parent.Kind.Segment(), parent.Name, item.Kind.Segment(), item.Name)
		} else {
			fullPath = fmt.Sprintf("%s::%s", item.Path, item.Name)
			url = fmt.Sprintf("%s/%s.%s.html", dir, item.Kind.Segment(), item.Name)
		}

		entries = append(entries, Entry{
			Path:        fullPath,
			URL:         url,
			Kind:        item.Kind.Segment(),
			Name:        item.Name,
			Description: item.Description,
		})
	}
	return entries
}

// buildURLs maps each item's fully-qualified path to its URL.
func buildURLs(items []Item, parents []Parent) map[string]string {
	entries := buildEntries(items, parents)
	urls := make(map[string]string, len(entries))
	for _, e := range entries {
		urls[e.Path] = e.URL
	}
	return urls
}
