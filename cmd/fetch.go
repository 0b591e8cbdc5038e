/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/fulmenhq/navkit/internal/fetch"
	"github.com/fulmenhq/navkit/pkg/ascii"
	"github.com/fulmenhq/navkit/pkg/config"
	"github.com/fulmenhq/navkit/pkg/logger"
	"github.com/spf13/cobra"
)

func newFetchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Resolve missing resource icons through the site's icon endpoint",
		Long: `Fetch finds resources whose icon is empty or not a local icon path, asks the
running site's icon-resolve endpoint for one, and writes accepted icons back.
Each document is written once, after all of its resources were resolved.

Examples:
   navkit fetch --dry-run
   navkit fetch --workers 1
   navkit fetch --base-url http://localhost:4321 --timeout 10s`,
		Args: cobra.NoArgs,
		RunE: runFetch,
	}
	cmd.Flags().String("dir", "", "Content directory (default paths.content)")
	cmd.Flags().Int("workers", 0, "Concurrent endpoint calls; 1 runs sequentially (default fetch.workers)")
	cmd.Flags().Bool("dry-run", false, "List candidates without calling the endpoint")
	cmd.Flags().String("base-url", "", "Site base URL (default fetch.base_url)")
	cmd.Flags().Duration("timeout", 0, "Per-call timeout (default fetch.timeout)")
	return cmd
}

func runFetch(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd, map[string]string{
		"paths.content":  "dir",
		"fetch.workers":  "workers",
		"fetch.base_url": "base-url",
		"fetch.timeout":  "timeout",
	})
	if err != nil {
		return err
	}
	dryRun := setDryRun(cmd)
	if err := config.RequireDir("content directory", cfg.Paths.Content); err != nil {
		return err
	}

	client := fetch.NewClient(cfg.Fetch, cfg.Icons.Prefix, nil)
	ctx := cmd.Context()
	if !dryRun {
		if err := client.Preflight(ctx, cfg.Fetch.PreflightTimeout); err != nil {
			return err
		}
		logger.Debug("Icon endpoint is reachable", logger.String("base_url", cfg.Fetch.BaseURL))
	}

	res, err := fetch.NewRunner(client).Run(ctx, fetch.Options{
		Dir:     cfg.Paths.Content,
		Prefix:  cfg.Icons.Prefix,
		Workers: cfg.Fetch.Workers,
		DryRun:  dryRun,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if dryRun {
		rows := make([][]string, 0, len(res.Tasks))
		for _, t := range res.Tasks {
			rows = append(rows, []string{filepath.Base(t.File), t.Resource.Name, t.Resource.SourceURL()})
		}
		if len(rows) > 0 {
			_, _ = fmt.Fprint(out, ascii.Table([]string{"FILE", "RESOURCE", "URL"}, rows, 48))
		}
		ascii.Fprint(out, []string{
			fmt.Sprintf("Documents: %d", res.Files),
			fmt.Sprintf("Candidates: %d", len(res.Tasks)),
			fmt.Sprintf("Unreadable documents: %d", len(res.Failed)),
		})
		return nil
	}

	var failedRows [][]string
	for _, tr := range res.Results {
		if tr.Outcome == fetch.OutcomeFailed {
			reason := "no local icon"
			if tr.Err != nil {
				reason = tr.Err.Error()
			}
			failedRows = append(failedRows, []string{tr.Task.Resource.Name, reason})
		}
	}
	if len(failedRows) > 0 {
		_, _ = fmt.Fprint(out, ascii.Table([]string{"RESOURCE", "REASON"}, failedRows, 60))
	}
	ascii.Fprint(out, []string{
		fmt.Sprintf("Documents: %d", res.Files),
		fmt.Sprintf("Candidates: %d", len(res.Tasks)),
		fmt.Sprintf("Resolved: %d", res.Count(fetch.OutcomeSuccess)),
		fmt.Sprintf("Failed: %d", res.Count(fetch.OutcomeFailed)),
		fmt.Sprintf("Skipped (no url): %d", res.Count(fetch.OutcomeSkipped)),
		fmt.Sprintf("Documents written: %d", len(res.Written)),
		fmt.Sprintf("Document errors: %d", len(res.Failed)),
	})
	return nil
}
