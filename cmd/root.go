/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"os"

	"github.com/fulmenhq/navkit/internal/ops"
	"github.com/fulmenhq/navkit/pkg/buildinfo"
	"github.com/fulmenhq/navkit/pkg/config"
	"github.com/fulmenhq/navkit/pkg/exitcode"
	"github.com/fulmenhq/navkit/pkg/logger"
	"github.com/spf13/cobra"
)

// newRootCommand creates a fresh root command instance.
// This factory pattern allows tests to create isolated command trees without shared state.
func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "navkit",
		Short: "Maintenance jobs for the site's navigation content and icons",
		Long: `navkit keeps the navigation data of the site tidy: it splits page documents
into per-group files, repairs page fields, prunes legacy fields, removes
duplicate icon files and resolves missing icons through the site's API.

Examples:
   navkit split --verify          # Split src/data/nav pages into src/data/nav_new
   navkit reconcile --dry-run     # Show group files whose page field is wrong
   navkit dedupe --dry-run        # Preview icon deduplication and write the report
   navkit fetch --workers 8       # Resolve missing icons with 8 parallel calls`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			initializeLogger(cmd)
		},
	}

	// Add global flags
	cmd.PersistentFlags().String("config", "", "Config file (default: ./navkit.yaml or ~/.navkit/navkit.yaml)")
	cmd.PersistentFlags().String("log-level", "info", "Set log level (trace|debug|info|warn|error)")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Shorthand for --log-level debug")
	cmd.PersistentFlags().Bool("json", false, "Output logs (and version info) in JSON format")
	cmd.PersistentFlags().Bool("no-color", false, "Disable colored output")

	cmd.Version = buildinfo.BinaryVersion
	cmd.SetVersionTemplate("navkit {{.Version}}\n")

	return cmd
}

// registerSubcommands adds all subcommands to the root command, grouped for help output.
func registerSubcommands(cmd *cobra.Command) *ops.Registry {
	reg := ops.NewRegistry()
	ops.AddGroups(cmd)

	for _, c := range []struct {
		group       ops.CommandGroup
		cmd         *cobra.Command
		destructive bool
	}{
		{ops.GroupContent, newSplitCommand(), true},
		{ops.GroupContent, newReconcileCommand(), true},
		{ops.GroupContent, newPruneCommand(), true},
		{ops.GroupIcons, newDedupeCommand(), true},
		{ops.GroupIcons, newFetchCommand(), true},
		{ops.GroupSupport, newVersionCommand(), false},
	} {
		if err := reg.Register(c.group, c.cmd, c.destructive); err != nil {
			panic(err)
		}
		cmd.AddCommand(c.cmd)
	}
	return reg
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCommand()

func init() {
	registerSubcommands(rootCmd)
}

// Execute runs the command tree and exits with 0 on success and 1 on any
// returned error. It is called by main.main().
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		logger.Error("Command execution failed", logger.Err(err))
	}
	os.Exit(exitcode.FromError(err))
}

// initializeLogger sets up the logger based on command flags
func initializeLogger(cmd *cobra.Command) {
	logLevelStr, _ := cmd.Flags().GetString("log-level")
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonLogs, _ := cmd.Flags().GetBool("json")
	noColor, _ := cmd.Flags().GetBool("no-color")

	level := logger.ParseLevel(logLevelStr)
	if verbose && level > logger.DebugLevel {
		level = logger.DebugLevel
	}

	_ = logger.Initialize(logger.Config{
		Level:     level,
		UseColor:  !noColor && isTerminal(cmd),
		JSON:      jsonLogs,
		Component: "navkit",
		Output:    cmd.ErrOrStderr(),
	})
}

// isTerminal reports whether the command writes logs to a character device.
func isTerminal(cmd *cobra.Command) bool {
	f, ok := cmd.ErrOrStderr().(*os.File)
	if !ok {
		return false
	}
	st, err := f.Stat()
	return err == nil && st.Mode()&os.ModeCharDevice != 0
}

// loadConfig builds the effective configuration for cmd: defaults, config
// file, NAVKIT_* environment, then the flags named in bindings.
func loadConfig(cmd *cobra.Command, bindings map[string]string) (*config.Config, error) {
	v := config.NewViper()
	if err := config.BindFlags(v, cmd.Flags(), bindings); err != nil {
		return nil, err
	}
	file, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(v, file)
	if err != nil {
		return nil, err
	}
	if src := v.ConfigFileUsed(); src != "" {
		logger.Debug("Loaded config file", logger.String("path", src))
	}
	return cfg, nil
}

// setDryRun reads --dry-run and marks log lines accordingly.
func setDryRun(cmd *cobra.Command) bool {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	logger.SetDryRun(dryRun)
	return dryRun
}
