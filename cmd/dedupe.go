/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fulmenhq/navkit/internal/gitctx"
	"github.com/fulmenhq/navkit/internal/icons"
	"github.com/fulmenhq/navkit/pkg/ascii"
	"github.com/fulmenhq/navkit/pkg/config"
	"github.com/fulmenhq/navkit/pkg/logger"
	"github.com/spf13/cobra"
)

func newDedupeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dedupe",
		Short: "Remove duplicate icon files and repoint references to the survivor",
		Long: `Dedupe hashes every icon, picks one canonical file per group of identical
icons (generic fallbacks first, then the most referenced), rewrites content
references, deletes the superseded files and writes a JSON report.

A real run backs up the icon and content directories first and never deletes
without a successful backup. A dry run changes nothing but still writes the
report as a preview.

Examples:
   navkit dedupe --dry-run
   navkit dedupe --require-clean
   navkit dedupe --ensure-generic github=octocat.webp`,
		Args: cobra.NoArgs,
		RunE: runDedupe,
	}
	cmd.Flags().String("icons", "", "Icon directory (default paths.icons)")
	cmd.Flags().String("content", "", "Content directory holding icon references (default paths.content)")
	cmd.Flags().String("backup", "", "Backup root directory (default paths.backup)")
	cmd.Flags().String("report", "", "Report file (default paths.report)")
	cmd.Flags().Bool("dry-run", false, "Plan and report without touching any file")
	cmd.Flags().Bool("no-report", false, "Do not write the JSON report")
	cmd.Flags().StringArray("ensure-generic", nil, "Create a missing generic icon by copying SOURCE (KEY=SOURCE, repeatable)")
	cmd.Flags().Bool("require-clean", false, "Refuse to run when the icon or content directory has uncommitted changes")
	return cmd
}

func runDedupe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd, map[string]string{
		"paths.icons":   "icons",
		"paths.content": "content",
		"paths.backup":  "backup",
		"paths.report":  "report",
	})
	if err != nil {
		return err
	}
	dryRun := setDryRun(cmd)
	noReport, _ := cmd.Flags().GetBool("no-report")
	requireClean, _ := cmd.Flags().GetBool("require-clean")
	ensure, _ := cmd.Flags().GetStringArray("ensure-generic")

	opts := icons.OptionsFromConfig(cfg)
	opts.DryRun = dryRun
	opts.NoReport = noReport
	if opts.EnsureGeneric, err = parseEnsureGeneric(ensure); err != nil {
		return err
	}

	if err := checkWorktree(cfg, requireClean && !dryRun); err != nil {
		return err
	}

	outcome, err := icons.Run(opts)
	if err != nil {
		if icons.IsBackupError(err) {
			logger.Error("Backup failed, nothing was rewritten or deleted")
		}
		return err
	}
	printDedupe(cmd, outcome, opts)
	return nil
}

// parseEnsureGeneric turns KEY=SOURCE pairs into a map.
func parseEnsureGeneric(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		key, source, ok := strings.Cut(p, "=")
		key, source = strings.TrimSpace(key), strings.TrimSpace(source)
		if !ok || key == "" || source == "" {
			return nil, fmt.Errorf("invalid --ensure-generic %q: want KEY=SOURCE", p)
		}
		out[key] = source
	}
	return out, nil
}

// checkWorktree warns about uncommitted changes under the icon and content
// directories, or fails when strict is set.
func checkWorktree(cfg *config.Config, strict bool) error {
	changes, err := gitctx.Dirty(cfg.Paths.Icons, cfg.Paths.Icons, cfg.Paths.Content)
	if err != nil {
		logger.Warn("Could not read git status", logger.Err(err))
		return nil
	}
	if len(changes) == 0 {
		return nil
	}
	paths := make([]string, 0, len(changes))
	for _, c := range changes {
		paths = append(paths, c.Path)
	}
	if strict {
		return &config.PreconditionError{
			What: "clean worktree",
			Path: cfg.Paths.Icons,
			Err:  fmt.Errorf("%d uncommitted change(s): %s", len(paths), strings.Join(paths, ", ")),
		}
	}
	logger.Warn("Icon or content directory has uncommitted changes",
		logger.Int("count", len(paths)),
		logger.Strings("paths", paths))
	return nil
}

func printDedupe(cmd *cobra.Command, o *icons.Outcome, opts icons.Options) {
	out := cmd.OutOrStdout()
	r := o.Report

	if len(r.Replacements) > 0 {
		old := make([]string, 0, len(r.Replacements))
		for k := range r.Replacements {
			old = append(old, k)
		}
		sort.Strings(old)
		rows := make([][]string, 0, len(old))
		for _, k := range old {
			rows = append(rows, []string{k, r.Replacements[k], fmt.Sprint(o.References.Count(k))})
		}
		_, _ = fmt.Fprint(out, ascii.Table([]string{"DUPLICATE", "CANONICAL", "REFS"}, rows, 48))
	}

	title := "Icon dedupe complete"
	if opts.DryRun {
		title = "Icon dedupe preview (dry run)"
	}
	lines := []string{
		title,
		fmt.Sprintf("Icons scanned: %d", r.Summary.OriginalCount),
		fmt.Sprintf("Unique contents: %d", r.Summary.UniqueHashes),
		fmt.Sprintf("Duplicate groups: %d", r.Summary.DuplicateGroups),
		fmt.Sprintf("Duplicates deleted: %d", r.Summary.DuplicatesDeleted),
		fmt.Sprintf("References updated: %d in %d file(s)", r.Summary.ReferencesUpdated, r.Summary.FilesUpdated),
		fmt.Sprintf("Unreferenced icons: %d", r.Summary.UnreferencedCount),
		fmt.Sprintf("Icons remaining: %d", r.Summary.FinalCount),
	}
	if o.BackupDir != "" {
		lines = append(lines, "Backup: "+o.BackupDir)
	}
	if !opts.NoReport && opts.ReportPath != "" {
		lines = append(lines, "Report: "+opts.ReportPath)
	}
	if o.Failures > 0 {
		lines = append(lines, fmt.Sprintf("Failures: %d (see log)", o.Failures))
	}
	ascii.Fprint(out, lines)

	for _, g := range r.GenericIcons {
		if !g.Present {
			_, _ = fmt.Fprintf(out, "missing generic icon: %s (%s)\n", g.Filename, g.Key)
		}
	}
}
