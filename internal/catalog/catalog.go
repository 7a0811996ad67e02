// Package catalog reads the per-category news documents a batch runs over.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// NewsItem is one entry of a catalog document.
type NewsItem struct {
	Keyword string `json:"keyword"`
	Title   string `json:"title"`
	Body    string `json:"body"`
}

// Catalog is every item of one category, in document order.
type Catalog struct {
	Path     string
	Category string
	Items    []NewsItem
}

// FormatError reports a catalog document that cannot be used at all.
type FormatError struct {
	Path   string
	Index  int // -1 when the document itself is malformed
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	msg := fmt.Sprintf("catalog %s", e.Path)
	if e.Index >= 0 {
		msg += fmt.Sprintf(" item %d", e.Index)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FormatError) Unwrap() error { return e.Err }

var requiredFields = []string{"keyword", "title", "body"}

// CategoryOf is the catalog file's base name without its .json extension.
func CategoryOf(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Load reads and validates one catalog document. The document must be a JSON
// array whose elements carry string keyword, title and body fields, with a
// non-empty keyword.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &FormatError{Path: path, Index: -1, Reason: "unreadable", Err: err}
	}
	return Parse(path, data)
}

// Parse validates data as the catalog stored at path.
func Parse(path string, data []byte) (*Catalog, error) {
	var raw []map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &FormatError{Path: path, Index: -1, Reason: "not a list of objects", Err: err}
	}
	if raw == nil {
		return nil, &FormatError{Path: path, Index: -1, Reason: "not a list of objects"}
	}

	c := &Catalog{
		Path:     path,
		Category: CategoryOf(path),
		Items:    make([]NewsItem, 0, len(raw)),
	}
	for i, obj := range raw {
		if obj == nil {
			return nil, &FormatError{Path: path, Index: i, Reason: "item is null"}
		}
		values := make(map[string]string, len(requiredFields))
		for _, field := range requiredFields {
			v, ok := obj[field]
			if !ok {
				return nil, &FormatError{Path: path, Index: i, Reason: fmt.Sprintf("missing %q", field)}
			}
			var s string
			if err := json.Unmarshal(v, &s); err != nil {
				return nil, &FormatError{Path: path, Index: i, Reason: fmt.Sprintf("%q is not a string", field)}
			}
			values[field] = s
		}
		if strings.TrimSpace(values["keyword"]) == "" {
			return nil, &FormatError{Path: path, Index: i, Reason: "empty keyword"}
		}
		c.Items = append(c.Items, NewsItem{
			Keyword: values["keyword"],
			Title:   values["title"],
			Body:    values["body"],
		})
	}
	return c, nil
}

// List returns the catalog documents directly under dir, sorted by name.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "read news directory %s", dir)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}
