package icons

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/fulmenhq/navkit/pkg/config"
	"github.com/fulmenhq/navkit/pkg/logger"
	"github.com/fulmenhq/navkit/pkg/safeio"
)

// DeleteResult aggregates a deletion pass.
type DeleteResult struct {
	Deleted []string
	Missing []string
	Failed  map[string]error
}

// Delete removes names from dir. Files already gone are noted and skipped.
// In dry-run mode present files are reported as deleted but left on disk.
func Delete(dir string, names []string, dryRun bool) *DeleteResult {
	res := &DeleteResult{Deleted: []string{}, Failed: make(map[string]error)}
	for _, name := range names {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			res.Missing = append(res.Missing, name)
			continue
		}
		if !dryRun {
			if err := os.Remove(path); err != nil {
				res.Failed[name] = err
				logger.Error("Failed to delete icon", logger.String("file", name), logger.Err(err))
				continue
			}
		}
		res.Deleted = append(res.Deleted, name)
		logger.Debug("Deleted duplicate icon", logger.String("file", name))
	}
	return res
}

// Orphans lists files that nothing references once replacements are
// applied, excluding deleted files and generic icons. Sorted.
func Orphans(all []string, refs References, replacements map[string]string, deleted, generic []string) []string {
	keep := make(map[string]bool)
	for name := range refs {
		keep[name] = true
		if canonical, ok := replacements[name]; ok {
			keep[canonical] = true
		}
	}
	for _, name := range deleted {
		keep[name] = true
	}
	for _, name := range generic {
		keep[name] = true
	}

	out := []string{}
	for _, name := range all {
		if !keep[name] {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// EnsureGeneric copies source to the generic icon's filename when that file
// does not exist yet. It reports whether a copy was (or, in dry-run mode,
// would be) made.
func EnsureGeneric(dir string, icon config.GenericIcon, source string, dryRun bool) (bool, error) {
	target := filepath.Join(dir, icon.Filename)
	if _, err := os.Stat(target); err == nil {
		logger.Info("Generic icon already present", logger.String("file", icon.Filename))
		return false, nil
	}
	src := filepath.Join(dir, source)
	if _, err := os.Stat(src); err != nil {
		return false, fmt.Errorf("generic icon %s: source %s: %w", icon.Key, source, err)
	}
	if dryRun {
		return true, nil
	}
	if err := safeio.CopyFile(src, target); err != nil {
		return false, fmt.Errorf("generic icon %s: %w", icon.Key, err)
	}
	logger.Info("Created generic icon", logger.String("file", icon.Filename), logger.String("source", source))
	return true, nil
}
