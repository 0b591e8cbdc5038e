/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/fulmenhq/navkit/internal/prune"
	"github.com/fulmenhq/navkit/pkg/ascii"
	"github.com/fulmenhq/navkit/pkg/config"
	"github.com/spf13/cobra"
)

func newPruneCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove legacy fields from content documents",
		Long: `Prune deletes every occurrence of the named fields (default prune.fields,
i.e. badge_list) at any depth of each *.json document in the content directory.
Key order and array order of everything else is kept.

Examples:
   navkit prune --dry-run
   navkit prune --field badge_list --field legacy_tags`,
		Args: cobra.NoArgs,
		RunE: runPrune,
	}
	cmd.Flags().String("dir", "", "Content directory (default paths.content)")
	cmd.Flags().StringSlice("field", nil, "Field name to remove (repeatable)")
	cmd.Flags().Bool("dry-run", false, "Report what would be removed without writing")
	return cmd
}

func runPrune(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd, map[string]string{
		"paths.content": "dir",
		"prune.fields":  "field",
	})
	if err != nil {
		return err
	}
	dryRun := setDryRun(cmd)
	if err := config.RequireDir("content directory", cfg.Paths.Content); err != nil {
		return err
	}

	res, err := prune.Run(prune.Options{Dir: cfg.Paths.Content, Fields: cfg.Prune.Fields, DryRun: dryRun})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	files := make([]string, 0, len(res.Removed))
	for f := range res.Removed {
		files = append(files, f)
	}
	sort.Strings(files)
	if len(files) > 0 {
		rows := make([][]string, 0, len(files))
		for _, f := range files {
			rows = append(rows, []string{filepath.ToSlash(f), strconv.Itoa(res.Removed[f])})
		}
		_, _ = fmt.Fprint(out, ascii.Table([]string{"FILE", "REMOVED"}, rows, 60))
	}
	ascii.Fprint(out, []string{
		fmt.Sprintf("Fields: %s", strings.Join(cfg.Prune.Fields, ", ")),
		fmt.Sprintf("Documents checked: %d", res.Checked),
		fmt.Sprintf("Documents changed: %d", len(res.Removed)),
		fmt.Sprintf("Fields removed: %d", res.Total()),
		fmt.Sprintf("Failed: %d", len(res.Failed)),
	})
	return nil
}
