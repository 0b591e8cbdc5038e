/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/fulmenhq/navkit/internal/reconcile"
	"github.com/fulmenhq/navkit/pkg/ascii"
	"github.com/fulmenhq/navkit/pkg/config"
	"github.com/spf13/cobra"
)

func newReconcileCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Set each group file's page field to its page directory",
		Long: `Reconcile walks <dir>/<page>/groups/*.json and sets the "page" field of every
group to the name of the directory it lives in. Correct files are not rewritten.`,
		Args: cobra.NoArgs,
		RunE: runReconcile,
	}
	cmd.Flags().String("dir", "", "Split navigation directory (default paths.nav)")
	cmd.Flags().Bool("dry-run", false, "Report wrong page fields without writing")
	return cmd
}

func runReconcile(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd, map[string]string{"paths.nav": "dir"})
	if err != nil {
		return err
	}
	dryRun := setDryRun(cmd)
	if err := config.RequireDir("navigation directory", cfg.Paths.Nav); err != nil {
		return err
	}

	res, err := reconcile.Run(reconcile.Options{BaseDir: cfg.Paths.Nav, DryRun: dryRun})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(res.Fixed) > 0 {
		rows := make([][]string, 0, len(res.Fixed))
		for _, f := range res.Fixed {
			was := f.Was
			if was == "" {
				was = "(missing)"
			}
			rows = append(rows, []string{filepath.ToSlash(f.File), was, f.Page})
		}
		_, _ = fmt.Fprint(out, ascii.Table([]string{"FILE", "WAS", "PAGE"}, rows, 60))
	}
	verb := "Fixed"
	if dryRun {
		verb = "Would fix"
	}
	ascii.Fprint(out, []string{
		fmt.Sprintf("Group files checked: %d", res.Checked),
		fmt.Sprintf("%s: %d", verb, len(res.Fixed)),
		fmt.Sprintf("Failed: %d", len(res.Failed)),
	})
	return nil
}
