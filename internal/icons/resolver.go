package icons

import (
	"sort"
	"strings"
)

// Group is one set of byte-identical files and the file chosen to keep.
type Group struct {
	Hash      string
	Files     []string
	Canonical string
}

// Plan is the outcome of resolving every duplicate group.
type Plan struct {
	Groups []Group
	// Replacements maps each superseded file to its canonical file.
	Replacements map[string]string
	// Deletions lists the superseded files, sorted.
	Deletions []string
}

// Resolver picks canonical files.
type Resolver struct {
	// Marker flags generic icons by case-insensitive substring.
	Marker string
	// Generic names configured fallback icons, which are never superseded.
	Generic []string
}

// IsGeneric reports whether name is a generic fallback icon.
func (r Resolver) IsGeneric(name string) bool {
	for _, g := range r.Generic {
		if g == name {
			return true
		}
	}
	return r.Marker != "" && strings.Contains(strings.ToLower(name), strings.ToLower(r.Marker))
}

// Canonical chooses the file to keep from one duplicate group: the smallest
// generic name if any, else the most referenced file, ties going to the
// smallest name.
func (r Resolver) Canonical(files []string, refs References) string {
	sorted := append([]string(nil), files...)
	sort.Strings(sorted)

	for _, f := range sorted {
		if r.IsGeneric(f) {
			return f
		}
	}

	best := sorted[0]
	for _, f := range sorted[1:] {
		if refs.Count(f) > refs.Count(best) {
			best = f
		}
	}
	return best
}

// Resolve builds the plan for every group of size > 1, visiting groups in
// hash order. Generic files other than the canonical one stay as they are.
func (r Resolver) Resolve(inv *Inventory, refs References) *Plan {
	dups := inv.Duplicates()
	hashes := make([]string, 0, len(dups))
	for h := range dups {
		hashes = append(hashes, h)
	}
	sort.Strings(hashes)

	plan := &Plan{Replacements: make(map[string]string), Deletions: []string{}}
	for _, h := range hashes {
		files := dups[h]
		canonical := r.Canonical(files, refs)
		plan.Groups = append(plan.Groups, Group{Hash: h, Files: files, Canonical: canonical})
		for _, f := range files {
			if f == canonical || r.IsGeneric(f) {
				continue
			}
			plan.Replacements[f] = canonical
			plan.Deletions = append(plan.Deletions, f)
		}
	}
	sort.Strings(plan.Deletions)
	return plan
}
