// Package restructure converts monolithic navigation pages into the split
// layout the CMS edits: <page-id>/meta.json plus one groups/NN_<name>.json
// per group.
package restructure

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fulmenhq/navkit/internal/assets"
	"github.com/fulmenhq/navkit/internal/content"
	"github.com/fulmenhq/navkit/internal/schema"
	"github.com/fulmenhq/navkit/pkg/logger"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const (
	// MetaFile holds a page's id, name, icon and sortOrder.
	MetaFile = "meta.json"
	// GroupsDir holds one file per group.
	GroupsDir = "groups"
	// DefaultSortOrder applies when a page has no sortOrder.
	DefaultSortOrder = 99
)

// ErrSourceMissing marks a listed page file that does not exist.
var ErrSourceMissing = errors.New("source file not found")

// Options selects the pages to split.
type Options struct {
	SourceDir string
	TargetDir string
	Files     []string
}

// Collision records two groups whose names sanitize to the same segment.
type Collision struct {
	Sanitized string
	First     string
	Second    string
}

// Page describes one split page.
type Page struct {
	Source     string
	ID         string
	Dir        string
	Groups     []string
	Collisions []Collision
}

// Result aggregates a split run.
type Result struct {
	Pages   []Page
	Skipped []string
	Failed  map[string]error
}

// Split converts each listed file. Missing files are skipped and malformed
// ones recorded in Failed; neither stops the run.
func Split(opts Options) *Result {
	res := &Result{Failed: make(map[string]error)}
	for _, name := range opts.Files {
		src := filepath.Join(opts.SourceDir, name)
		page, err := SplitFile(src, opts.TargetDir)
		switch {
		case errors.Is(err, ErrSourceMissing):
			logger.Warn("Skipping missing page file", logger.String("file", src))
			res.Skipped = append(res.Skipped, name)
		case err != nil:
			logger.Error("Failed to split page", logger.String("file", src), logger.Err(err))
			res.Failed[name] = err
		default:
			logger.Info("Split page",
				logger.String("page", page.ID),
				logger.Int("groups", len(page.Groups)),
				logger.String("dir", page.Dir))
			res.Pages = append(res.Pages, *page)
		}
	}
	return res
}

// SplitFile writes the split layout for one page document into targetDir.
// An existing page directory is removed and rebuilt from scratch.
func SplitFile(src, targetDir string) (*Page, error) {
	if _, err := os.Stat(src); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", src, ErrSourceMissing)
	}
	doc, err := content.ReadValid(src)
	if err != nil {
		return nil, err
	}
	res, err := schema.ValidateJSON(doc, assets.PageSchema)
	if err != nil {
		return nil, err
	}
	if !res.Valid {
		return nil, fmt.Errorf("%s: not a page document: %s", src, res.Summary())
	}

	root := gjson.ParseBytes(doc)
	id := root.Get("id").String()
	if id == "" {
		id = strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	}
	if err := checkPageID(id); err != nil {
		return nil, fmt.Errorf("%s: %w", src, err)
	}

	meta, err := buildMeta(id, root)
	if err != nil {
		return nil, err
	}

	page := &Page{Source: src, ID: id, Dir: filepath.Join(targetDir, id)}
	groups := root.Get("groups").Array()

	seen := make(map[string]string, len(groups))
	for i, g := range groups {
		name := g.Get("name").String()
		label := name
		if label == "" {
			label = fallbackName(i)
		}
		seg := segment(i, name)
		if first, ok := seen[seg]; ok {
			page.Collisions = append(page.Collisions, Collision{Sanitized: seg, First: first, Second: label})
			logger.Warn("Group names collide after sanitizing",
				logger.String("page", id),
				logger.String("first", first),
				logger.String("second", label),
				logger.String("sanitized", seg))
		} else {
			seen[seg] = label
		}
		page.Groups = append(page.Groups, GroupFilename(i, name))
	}

	if err := os.RemoveAll(page.Dir); err != nil {
		return nil, fmt.Errorf("reset %s: %w", page.Dir, err)
	}
	groupsDir := filepath.Join(page.Dir, GroupsDir)
	if err := os.MkdirAll(groupsDir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", groupsDir, err)
	}
	if err := content.Write(filepath.Join(page.Dir, MetaFile), meta); err != nil {
		return nil, err
	}
	for i, g := range groups {
		if err := content.Write(filepath.Join(groupsDir, page.Groups[i]), []byte(g.Raw)); err != nil {
			return nil, err
		}
		logger.Debug("Wrote group", logger.String("file", page.Groups[i]))
	}
	return page, nil
}

func checkPageID(id string) error {
	if id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("page id %q cannot be used as a directory name", id)
	}
	return nil
}

// buildMeta keeps name, icon and sortOrder exactly as written in the source.
func buildMeta(id string, root gjson.Result) ([]byte, error) {
	meta := []byte(`{}`)
	var err error
	if meta, err = sjson.SetBytes(meta, "id", id); err != nil {
		return nil, err
	}
	for _, key := range []string{"name", "icon", "sortOrder"} {
		raw := `""`
		if v := root.Get(key); v.Exists() {
			raw = v.Raw
		} else if key == "sortOrder" {
			raw = strconv.Itoa(DefaultSortOrder)
		}
		if meta, err = sjson.SetRawBytes(meta, key, []byte(raw)); err != nil {
			return nil, err
		}
	}
	return meta, nil
}
