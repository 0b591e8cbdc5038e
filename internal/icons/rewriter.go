package icons

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/fulmenhq/navkit/internal/content"
	"github.com/fulmenhq/navkit/pkg/logger"
	"github.com/fulmenhq/navkit/pkg/safeio"
)

// FileRewrite is the outcome for one content document.
type FileRewrite struct {
	File         string `json:"file"`
	Replacements int    `json:"replacements"`
}

// RewriteResult aggregates a rewrite pass.
type RewriteResult struct {
	Files        []FileRewrite
	Replacements int
	Failed       map[string]error
}

// FilesUpdated is the number of documents that changed (or would change).
func (r *RewriteResult) FilesUpdated() int { return len(r.Files) }

// RewriteText applies replacements to one document. Only whole quoted tokens
// are replaced: `"<prefix>/<old>"` and `"<prefix>/<old>?t=`. Pairs apply in
// sorted key order.
func RewriteText(text []byte, prefix string, replacements map[string]string) ([]byte, int) {
	olds := make([]string, 0, len(replacements))
	for old, canonical := range replacements {
		if old != canonical {
			olds = append(olds, old)
		}
	}
	sort.Strings(olds)

	total := 0
	for _, old := range olds {
		canonical := replacements[old]
		for _, form := range [][2]string{
			{`"` + prefix + "/" + old + `"`, `"` + prefix + "/" + canonical + `"`},
			{`"` + prefix + "/" + old + "?t=", `"` + prefix + "/" + canonical + "?t="},
		} {
			from := []byte(form[0])
			if n := bytes.Count(text, from); n > 0 {
				total += n
				text = bytes.ReplaceAll(text, from, []byte(form[1]))
			}
		}
	}
	return text, total
}

// Rewrite applies replacements to every *.json file directly inside dir.
// In dry-run mode counts are computed and nothing is written. A result that
// is no longer valid JSON is reported as a failure and the file left as is.
func Rewrite(dir, prefix string, replacements map[string]string, dryRun bool) (*RewriteResult, error) {
	res := &RewriteResult{Files: []FileRewrite{}, Failed: make(map[string]error)}
	if len(replacements) == 0 {
		return res, nil
	}
	files, err := content.ListJSON(dir)
	if err != nil {
		return nil, err
	}

	for _, path := range files {
		text, err := content.Read(path)
		if err != nil {
			res.Failed[path] = err
			logger.Error("Failed to read document", logger.String("file", path), logger.Err(err))
			continue
		}
		updated, n := RewriteText(text, prefix, replacements)
		if n == 0 {
			continue
		}
		if !json.Valid(updated) {
			res.Failed[path] = fmt.Errorf("%s: rewrite produced invalid JSON", path)
			logger.Error("Rewrite produced invalid JSON, file left unchanged", logger.String("file", path))
			continue
		}
		if !dryRun {
			if err := safeio.WriteFilePreservePerms(path, updated); err != nil {
				res.Failed[path] = err
				logger.Error("Failed to write document", logger.String("file", path), logger.Err(err))
				continue
			}
		}
		res.Files = append(res.Files, FileRewrite{File: filepath.Base(path), Replacements: n})
		res.Replacements += n
		logger.Info("Updated icon references",
			logger.String("file", filepath.Base(path)),
			logger.Int("replacements", n))
	}
	return res, nil
}
