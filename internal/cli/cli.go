// Package cli implements the raglite command line: indexing, searching, and
// inspecting a project's semantic index.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/raglite/raglite/internal/config"
	"github.com/raglite/raglite/internal/logger"
	"github.com/raglite/raglite/internal/manager"
)

var (
	cfgFile string
	verbose bool

	projectRoot string
)

// Execute runs the root command. Returned errors have already been printed.
func Execute(version string) error {
	root := newRootCmd(version)
	return root.Execute()
}

func newRootCmd(version string) *cobra.Command {
	root := &cobra.Command{
		Use:     "raglite",
		Short:   "Semantic code and documentation search for a project",
		Long:    "raglite indexes a project's files into a local vector store and answers natural-language queries over them.",
		Version: version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.SetVerbose(verbose)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./raglite.yaml)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging to stderr")
	root.PersistentFlags().StringVar(&projectRoot, "root", "", "project root (default from config)")

	root.AddCommand(
		newIndexCmd(),
		newSearchCmd(),
		newStatusCmd(),
		newClearCmd(),
		newWatchCmd(),
	)
	return root
}

// loadManager builds a Manager from config plus flag overrides.
func loadManager() (*manager.Manager, *config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	if projectRoot != "" {
		cfg.ProjectRoot = projectRoot
	}
	return manager.New(cfg), cfg, nil
}

func newIndexCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Index the project (incremental by default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, _, err := loadManager()
			if err != nil {
				return err
			}
			defer func() { _ = m.Close() }()

			stats, err := m.IndexProject(cmd.Context(), force)
			if err != nil {
				return err
			}
			printStats(cmd.OutOrStdout(), stats)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "rebuild the whole index")
	return cmd
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show index status",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, _, err := loadManager()
			if err != nil {
				return err
			}
			defer func() { _ = m.Close() }()

			status, err := m.Status(cmd.Context())
			if err != nil {
				return err
			}
			printStatus(cmd.OutOrStdout(), status)
			return nil
		},
	}
}

func newClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete the index and its state",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, _, err := loadManager()
			if err != nil {
				return err
			}
			defer func() { _ = m.Close() }()

			if err := m.ClearIndex(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "index cleared")
			return nil
		},
	}
}

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Index the project, then keep the index current as files change",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, _, err := loadManager()
			if err != nil {
				return err
			}
			defer func() { _ = m.Close() }()

			if _, err := m.IndexProject(cmd.Context(), false); err != nil {
				return err
			}
			return m.Watch(cmd.Context())
		},
	}
}

// exitError prints an error the way the CLI wants it shown and returns the
// process exit code.
func exitError(err error) int {
	if err == nil {
		return 0
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	return 1
}

// Main is the shared entrypoint body for cmd/raglite.
func Main(version string) {
	os.Exit(exitError(Execute(version)))
}
