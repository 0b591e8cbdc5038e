// Package content reads and writes the site's navigation JSON documents.
//
// Documents are kept as raw text. Reads go through gjson paths and edits
// through sjson, so key order and display order survive every rewrite.
package content

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fulmenhq/navkit/pkg/format"
	"github.com/fulmenhq/navkit/pkg/safeio"
	"github.com/tidwall/gjson"
)

// Resource is one linkable entry inside a content document.
type Resource struct {
	Name         string
	URL          string
	OfficialSite string
	Icon         string
	// Path addresses the resource object for gjson/sjson, e.g.
	// "categories.0.tabs.1.list.3".
	Path string
}

// SourceURL is the address the resource links to: url, else official_site.
func (r Resource) SourceURL() string {
	if r.URL != "" {
		return r.URL
	}
	return r.OfficialSite
}

// IconPath is the sjson path of the resource's icon field.
func (r Resource) IconPath() string {
	return r.Path + ".icon"
}

// List returns the files directly inside dir matching any of patterns, sorted.
// Subdirectories are not descended into unless a pattern asks for it.
func List(dir string, patterns ...string) ([]string, error) {
	if len(patterns) == 0 {
		patterns = []string{"*.json"}
	}
	fsys := os.DirFS(dir)
	seen := make(map[string]bool)
	var out []string
	for _, pattern := range patterns {
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("match %q in %s: %w", pattern, dir, err)
		}
		for _, m := range matches {
			if seen[m] {
				continue
			}
			seen[m] = true
			out = append(out, m)
		}
	}
	sort.Strings(out)
	for i, m := range out {
		out[i] = filepath.Join(dir, filepath.FromSlash(m))
	}
	return out, nil
}

// ListJSON returns the *.json files directly inside dir, sorted.
func ListJSON(dir string) ([]string, error) {
	return List(dir, "*.json")
}

// Read loads a document and strips any leading byte order mark.
func Read(path string) ([]byte, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- paths come from configured content dirs
	if err != nil {
		return nil, err
	}
	return format.StripBOM(data), nil
}

// ReadValid loads a document and rejects text that is not valid JSON.
func ReadValid(path string) ([]byte, error) {
	data, err := Read(path)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%s: invalid JSON", path)
	}
	return data, nil
}

// Write re-indents doc with two spaces and atomically replaces path.
func Write(path string, doc []byte) error {
	out, _, err := format.PrettifyJSON(doc, format.Indent)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return safeio.WriteFilePreservePerms(path, out)
}

// Resources finds every resource in doc. Three layouts are recognized:
// a top-level "resources" list, "categories[].resources" and
// "categories[].tabs[].list". Results follow document order.
func Resources(doc []byte) []Resource {
	root := gjson.ParseBytes(doc)
	var out []Resource

	collect := func(list gjson.Result, base string) {
		if !list.IsArray() {
			return
		}
		for i, item := range list.Array() {
			if !item.IsObject() {
				continue
			}
			out = append(out, Resource{
				Name:         item.Get("name").String(),
				URL:          item.Get("url").String(),
				OfficialSite: item.Get("official_site").String(),
				Icon:         item.Get("icon").String(),
				Path:         base + "." + strconv.Itoa(i),
			})
		}
	}

	collect(root.Get("resources"), "resources")

	categories := root.Get("categories")
	if categories.IsArray() {
		for ci, cat := range categories.Array() {
			catPath := "categories." + strconv.Itoa(ci)
			collect(cat.Get("resources"), catPath+".resources")

			tabs := cat.Get("tabs")
			if !tabs.IsArray() {
				continue
			}
			for ti, tab := range tabs.Array() {
				collect(tab.Get("list"), catPath+".tabs."+strconv.Itoa(ti)+".list")
			}
		}
	}
	return out
}

// Dirs returns the immediate subdirectories of dir, sorted by name.
func Dirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}
