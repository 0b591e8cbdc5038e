/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/fulmenhq/navkit/internal/restructure"
	"github.com/fulmenhq/navkit/pkg/ascii"
	"github.com/fulmenhq/navkit/pkg/config"
	"github.com/fulmenhq/navkit/pkg/logger"
	"github.com/spf13/cobra"
)

func newSplitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "split [files...]",
		Short: "Split page documents into meta.json plus one file per group",
		Long: `Split converts each page document (default: split.files) in the source
directory into <target>/<page>/meta.json and <target>/<page>/groups/NN_<name>.json.
An existing page directory in the target is replaced.

Examples:
   navkit split
   navkit split --verify home.json
   navkit split --source data/nav --target data/nav_split`,
		RunE: runSplit,
	}
	cmd.Flags().String("source", "", "Directory holding the page documents (default paths.split_source)")
	cmd.Flags().String("target", "", "Directory receiving the split layout (default paths.split_target)")
	cmd.Flags().Bool("verify", false, "Reassemble each split page and compare it with its source")
	return cmd
}

func runSplit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, map[string]string{
		"paths.split_source": "source",
		"paths.split_target": "target",
	})
	if err != nil {
		return err
	}
	if err := config.RequireDir("source directory", cfg.Paths.SplitSource); err != nil {
		return err
	}

	files := cfg.Split.Files
	if len(args) > 0 {
		files = args
	}
	res := restructure.Split(restructure.Options{
		SourceDir: cfg.Paths.SplitSource,
		TargetDir: cfg.Paths.SplitTarget,
		Files:     files,
	})

	out := cmd.OutOrStdout()
	rows := make([][]string, 0, len(res.Pages))
	for _, p := range res.Pages {
		rows = append(rows, []string{p.ID, strconv.Itoa(len(p.Groups)), filepath.ToSlash(p.Dir)})
	}
	if len(rows) > 0 {
		_, _ = fmt.Fprint(out, ascii.Table([]string{"PAGE", "GROUPS", "DIRECTORY"}, rows, 60))
	}
	for _, p := range res.Pages {
		for _, c := range p.Collisions {
			_, _ = fmt.Fprintf(out, "warning: %s: groups %q and %q share the name segment %q\n", p.ID, c.First, c.Second, c.Sanitized)
		}
	}
	ascii.Fprint(out, []string{
		fmt.Sprintf("Pages split: %d", len(res.Pages)),
		fmt.Sprintf("Skipped (missing): %d", len(res.Skipped)),
		fmt.Sprintf("Failed: %d", len(res.Failed)),
	})

	verify, _ := cmd.Flags().GetBool("verify")
	if !verify {
		return nil
	}
	var mismatched []string
	for _, p := range res.Pages {
		if err := restructure.Verify(p.Source, p.Dir); err != nil {
			logger.Error("Split verification failed", logger.String("page", p.ID), logger.Err(err))
			mismatched = append(mismatched, p.ID)
			continue
		}
		logger.Info("Split verified", logger.String("page", p.ID))
	}
	if len(mismatched) > 0 {
		sort.Strings(mismatched)
		return fmt.Errorf("split verification failed for %d page(s): %v", len(mismatched), mismatched)
	}
	return nil
}
