package icons

import (
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/fulmenhq/navkit/pkg/config"
	"github.com/fulmenhq/navkit/pkg/logger"
)

// Options configures one dedupe run.
type Options struct {
	IconsDir   string
	ContentDir string
	BackupRoot string
	ReportPath string

	Prefix   string
	Patterns []string
	Marker   string
	Generic  []config.GenericIcon

	// EnsureGeneric maps a generic icon key to the existing icon copied into
	// place when the generic file is missing.
	EnsureGeneric map[string]string

	DryRun   bool
	NoReport bool

	// Now defaults to time.Now.
	Now func() time.Time
}

// OptionsFromConfig fills the path and icon settings from cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		IconsDir:   cfg.Paths.Icons,
		ContentDir: cfg.Paths.Content,
		BackupRoot: cfg.Paths.Backup,
		ReportPath: cfg.Paths.Report,
		Prefix:     cfg.Icons.Prefix,
		Patterns:   cfg.Icons.Patterns,
		Marker:     cfg.Icons.GenericMarker,
		Generic:    cfg.Icons.Generic,
	}
}

// Outcome is everything a dedupe run produced.
type Outcome struct {
	Inventory  *Inventory
	References References
	Plan       *Plan
	Rewrite    *RewriteResult
	Deletion   *DeleteResult
	Report     *Report
	BackupDir  string
	// Failures counts per-item errors (documents or files) that were skipped.
	Failures int
}

// Run executes the pipeline: inventory, reference scan, resolve, backup,
// rewrite, delete, orphan scan, report. Deletion never runs without a
// successful backup, and never after a failed rewrite. Per-item failures are
// counted in Outcome.Failures; only precondition, backup and report errors
// are returned.
func Run(opts Options) (*Outcome, error) {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	if err := config.RequireDir("icons directory", opts.IconsDir); err != nil {
		return nil, err
	}
	if err := config.RequireDir("content directory", opts.ContentDir); err != nil {
		return nil, err
	}
	for key := range opts.EnsureGeneric {
		if _, ok := findGeneric(opts.Generic, key); !ok {
			return nil, fmt.Errorf("unknown generic icon %q", key)
		}
	}

	genericNames := make([]string, 0, len(opts.Generic))
	for _, g := range opts.Generic {
		genericNames = append(genericNames, g.Filename)
	}

	inv, err := BuildInventory(opts.IconsDir, opts.Patterns)
	if err != nil {
		return nil, err
	}
	out := &Outcome{Inventory: inv}
	logger.Info("Scanned icons",
		logger.Int("total", len(inv.ByFile)),
		logger.Int("unique_hashes", len(inv.ByHash)))

	existed := make(map[string]bool, len(genericNames))
	for _, name := range genericNames {
		_, existed[name] = inv.ByFile[name]
	}
	// Generic icons about to be created join the inventory up front so a
	// dry run plans exactly what the real run will do.
	pending := planGenerics(opts, inv)

	refs, err := ScanReferences(opts.ContentDir, opts.Prefix)
	if err != nil {
		return nil, err
	}
	out.References = refs
	logger.Info("Scanned references", logger.Int("referenced_icons", len(refs)))

	resolver := Resolver{Marker: opts.Marker, Generic: genericNames}
	plan := resolver.Resolve(inv, refs)
	out.Plan = plan
	logger.Info("Resolved duplicates",
		logger.Int("groups", len(plan.Groups)),
		logger.Int("replacements", len(plan.Replacements)),
		logger.Int("deletions", len(plan.Deletions)))

	if !opts.DryRun && (len(plan.Deletions) > 0 || len(pending) > 0) {
		dir, err := Backup(opts.BackupRoot, now(), opts.IconsDir, opts.ContentDir)
		if err != nil {
			return out, err
		}
		out.BackupDir = dir
		logger.Info("Backed up icons and content", logger.String("dir", dir))
	}

	created := make(map[string]bool)
	for _, key := range sortedKeys(pending) {
		icon, _ := findGeneric(opts.Generic, key)
		ok, err := EnsureGeneric(opts.IconsDir, icon, pending[key], opts.DryRun)
		if err != nil {
			out.Failures++
			logger.Error("Failed to create generic icon", logger.String("key", key), logger.Err(err))
			continue
		}
		created[key] = ok
	}

	rw, err := Rewrite(opts.ContentDir, opts.Prefix, plan.Replacements, opts.DryRun)
	if err != nil {
		return out, err
	}
	out.Rewrite = rw
	out.Failures += len(rw.Failed)

	if len(rw.Failed) > 0 {
		logger.Error("Some documents were not rewritten, skipping deletion",
			logger.Int("failed", len(rw.Failed)))
		out.Deletion = &DeleteResult{Deleted: []string{}, Failed: map[string]error{}}
	} else {
		out.Deletion = Delete(opts.IconsDir, plan.Deletions, opts.DryRun)
		out.Failures += len(out.Deletion.Failed)
	}

	orphans := Orphans(inv.Files(), refs, plan.Replacements, out.Deletion.Deleted, genericNames)
	out.Report = buildReport(opts, now(), inv, plan, rw, out.Deletion, orphans, existed, created)
	out.Report.BackupDir = out.BackupDir

	if !opts.NoReport && opts.ReportPath != "" {
		if err := WriteReport(opts.ReportPath, out.Report); err != nil {
			return out, fmt.Errorf("write report: %w", err)
		}
		logger.Info("Wrote report", logger.String("path", opts.ReportPath))
	}
	return out, nil
}

// planGenerics returns the ensure-generic requests that will create a file,
// adding each future file to inv under its source's hash.
func planGenerics(opts Options, inv *Inventory) map[string]string {
	pending := make(map[string]string)
	for key, source := range opts.EnsureGeneric {
		icon, _ := findGeneric(opts.Generic, key)
		if _, exists := inv.ByFile[icon.Filename]; exists {
			continue
		}
		pending[key] = source
		if sum, ok := inv.ByFile[source]; ok {
			inv.Add(icon.Filename, sum)
		}
	}
	return pending
}

func buildReport(opts Options, at time.Time, inv *Inventory, plan *Plan, rw *RewriteResult, del *DeleteResult, orphans []string, existed, created map[string]bool) *Report {
	deleted := del.Deleted

	r := &Report{
		Timestamp:      at.Format(time.RFC3339),
		DryRun:         opts.DryRun,
		Duplicates:     inv.Duplicates(),
		Replacements:   plan.Replacements,
		FilesDeleted:   deleted,
		Unreferenced:   orphans,
		GenericIcons:   []GenericStatus{},
		ReferenceScope: filepath.ToSlash(opts.ContentDir),
		Summary: Summary{
			OriginalCount:     len(inv.ByFile),
			UniqueHashes:      len(inv.ByHash),
			DuplicateGroups:   len(plan.Groups),
			DuplicatesDeleted: len(deleted),
			UnreferencedCount: len(orphans),
			FinalCount:        len(inv.ByFile) - len(deleted),
			ReferencesUpdated: rw.Replacements,
			FilesUpdated:      rw.FilesUpdated(),
		},
	}
	for _, g := range opts.Generic {
		r.GenericIcons = append(r.GenericIcons, GenericStatus{
			Key:         g.Key,
			Filename:    g.Filename,
			Description: g.Description,
			Present:     existed[g.Filename] || created[g.Key],
			Created:     created[g.Key],
		})
	}
	return r
}

func findGeneric(list []config.GenericIcon, key string) (config.GenericIcon, bool) {
	ic := config.IconsConfig{Generic: list}
	return ic.FindGeneric(key)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
