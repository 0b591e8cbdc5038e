package icons

import (
	"path/filepath"
	"regexp"
	"sort"

	"github.com/fulmenhq/navkit/internal/content"
	"github.com/fulmenhq/navkit/pkg/logger"
)

// Reference is one icon string literal found in a content document.
type Reference struct {
	// Source is the document's filename.
	Source string `json:"source"`
	// Path is the matched value verbatim, query string included.
	Path string `json:"path"`
}

// References maps an icon filename to every place it is used.
type References map[string][]Reference

// Count is the number of references to name.
func (r References) Count(name string) int {
	return len(r[name])
}

// Names lists the referenced filenames, sorted.
func (r References) Names() []string {
	out := make([]string, 0, len(r))
	for name := range r {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ReferencePattern matches `"icon": "<prefix>/<file>[?query]"` in raw JSON
// text. Group 1 is the whole path, group 2 the filename.
func ReferencePattern(prefix string) *regexp.Regexp {
	return regexp.MustCompile(`"icon":\s*"(` + regexp.QuoteMeta(prefix) + `/([^"?]+)[^"]*)"`)
}

// ScanText adds the references in one document's text to refs.
func ScanText(refs References, source string, text []byte, pattern *regexp.Regexp) {
	for _, m := range pattern.FindAllSubmatch(text, -1) {
		name := string(m[2])
		refs[name] = append(refs[name], Reference{Source: source, Path: string(m[1])})
	}
}

// ScanReferences reads every *.json file directly inside dir as plain text.
// Nesting shape does not matter. Unreadable files are logged and skipped.
func ScanReferences(dir, prefix string) (References, error) {
	files, err := content.ListJSON(dir)
	if err != nil {
		return nil, err
	}
	pattern := ReferencePattern(prefix)
	refs := make(References)
	for _, path := range files {
		text, err := content.Read(path)
		if err != nil {
			logger.Warn("Skipping unreadable document", logger.String("file", path), logger.Err(err))
			continue
		}
		ScanText(refs, filepath.Base(path), text, pattern)
	}
	return refs, nil
}
