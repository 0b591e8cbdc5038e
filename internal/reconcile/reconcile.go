// Package reconcile makes every split group file carry the id of the page
// directory it lives in.
package reconcile

import (
	"fmt"
	"path/filepath"

	"github.com/fulmenhq/navkit/internal/content"
	"github.com/fulmenhq/navkit/pkg/logger"
	"github.com/fulmenhq/navkit/pkg/safeio"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// PageField is the group field that names the owning page.
const PageField = "page"

// Options for a reconcile run.
type Options struct {
	BaseDir string
	DryRun  bool
}

// Fix is one group file whose page field was (or would be) corrected.
type Fix struct {
	File string
	Page string
	Was  string
}

// Result aggregates a reconcile run.
type Result struct {
	Checked int
	Fixed   []Fix
	Failed  map[string]error
}

// Run walks <base>/<page>/groups/*.json. Files that already name the right
// page are left byte-for-byte alone.
func Run(opts Options) (*Result, error) {
	pages, err := content.Dirs(opts.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("list pages in %s: %w", opts.BaseDir, err)
	}

	res := &Result{Failed: make(map[string]error)}
	for _, pageID := range pages {
		groupsDir := filepath.Join(opts.BaseDir, pageID, "groups")
		if !safeio.IsDir(groupsDir) {
			continue
		}
		logger.Debug("Reconciling page", logger.String("page", pageID))

		files, err := content.ListJSON(groupsDir)
		if err != nil {
			res.Failed[groupsDir] = err
			logger.Error("Failed to list groups", logger.String("dir", groupsDir), logger.Err(err))
			continue
		}
		for _, file := range files {
			res.Checked++
			fix, err := reconcileFile(file, pageID, opts.DryRun)
			if err != nil {
				res.Failed[file] = err
				logger.Error("Failed to reconcile group", logger.String("file", file), logger.Err(err))
				continue
			}
			if fix != nil {
				res.Fixed = append(res.Fixed, *fix)
				logger.Info("Fixed page field",
					logger.String("file", file),
					logger.String("page", pageID),
					logger.String("was", fix.Was))
			}
		}
	}
	return res, nil
}

func reconcileFile(path, pageID string, dryRun bool) (*Fix, error) {
	doc, err := content.ReadValid(path)
	if err != nil {
		return nil, err
	}
	current := gjson.GetBytes(doc, PageField)
	if current.Type == gjson.String && current.Str == pageID {
		return nil, nil
	}

	fix := &Fix{File: path, Page: pageID, Was: current.Raw}
	if dryRun {
		return fix, nil
	}
	updated, err := sjson.SetBytes(doc, PageField, pageID)
	if err != nil {
		return nil, fmt.Errorf("set %s: %w", PageField, err)
	}
	if err := content.Write(path, updated); err != nil {
		return nil, err
	}
	return fix, nil
}
