// Package prune strips legacy fields from content documents at any depth.
package prune

import (
	"fmt"
	"strconv"

	"github.com/fulmenhq/navkit/internal/content"
	"github.com/fulmenhq/navkit/pkg/logger"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Options for a prune run.
type Options struct {
	Dir    string
	Fields []string
	DryRun bool
}

// Result aggregates a prune run. Removed maps each touched file to the
// number of fields taken out of it.
type Result struct {
	Checked int
	Removed map[string]int
	Failed  map[string]error
}

// Total is the number of fields removed across all files.
func (r *Result) Total() int {
	n := 0
	for _, c := range r.Removed {
		n += c
	}
	return n
}

// Run prunes every *.json file directly inside opts.Dir.
func Run(opts Options) (*Result, error) {
	if len(opts.Fields) == 0 {
		return nil, fmt.Errorf("no fields to prune")
	}
	files, err := content.ListJSON(opts.Dir)
	if err != nil {
		return nil, err
	}

	res := &Result{Removed: make(map[string]int), Failed: make(map[string]error)}
	for _, file := range files {
		res.Checked++
		n, err := pruneFile(file, opts.Fields, opts.DryRun)
		if err != nil {
			res.Failed[file] = err
			logger.Error("Failed to prune document", logger.String("file", file), logger.Err(err))
			continue
		}
		if n > 0 {
			res.Removed[file] = n
			logger.Info("Pruned fields", logger.String("file", file), logger.Int("removed", n))
		}
	}
	return res, nil
}

func pruneFile(path string, fields []string, dryRun bool) (int, error) {
	doc, err := content.ReadValid(path)
	if err != nil {
		return 0, err
	}
	out, n, err := Document(doc, fields)
	if err != nil || n == 0 || dryRun {
		return n, err
	}
	return n, content.Write(path, out)
}

// Document removes every object member named in fields, wherever it occurs,
// and reports how many were removed. Everything else keeps its order.
func Document(doc []byte, fields []string) ([]byte, int, error) {
	drop := make(map[string]bool, len(fields))
	for _, f := range fields {
		drop[f] = true
	}

	var paths []string
	collect(gjson.ParseBytes(doc), "", drop, &paths)

	var err error
	for _, p := range paths {
		if doc, err = sjson.DeleteBytes(doc, p); err != nil {
			return nil, 0, fmt.Errorf("delete %s: %w", p, err)
		}
	}
	return doc, len(paths), nil
}

func collect(v gjson.Result, prefix string, drop map[string]bool, out *[]string) {
	switch {
	case v.IsObject():
		v.ForEach(func(key, val gjson.Result) bool {
			p := join(prefix, gjson.Escape(key.String()))
			if drop[key.String()] {
				*out = append(*out, p)
				return true
			}
			collect(val, p, drop, out)
			return true
		})
	case v.IsArray():
		i := 0
		v.ForEach(func(_, val gjson.Result) bool {
			collect(val, join(prefix, strconv.Itoa(i)), drop, out)
			i++
			return true
		})
	}
}

func join(prefix, part string) string {
	if prefix == "" {
		return part
	}
	return prefix + "." + part
}
