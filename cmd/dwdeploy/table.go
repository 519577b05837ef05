package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/modaops/dwdeploy/internal/maxcompute"
)

var (
	tableProjectDir string
	cleanDays       int
	cleanExecute    bool
	cleanKeep       []string
)

func init() {
	tableCmd.AddCommand(tableCreateCmd)
	tableCmd.AddCommand(tableCleanCmd)

	tableCreateCmd.Flags().StringVar(&tableProjectDir, "project-dir", "", "Project directory containing create-table.sql (required)")
	_ = tableCreateCmd.MarkFlagRequired("project-dir")

	tableCleanCmd.Flags().IntVar(&cleanDays, "days", 30, "Drop tables older than this many days")
	tableCleanCmd.Flags().BoolVar(&cleanExecute, "execute", false, "Actually drop tables (default: dry run)")
	tableCleanCmd.Flags().StringSliceVar(&cleanKeep, "keep", nil, "Additional table names to protect from cleanup")
}

var tableCmd = &cobra.Command{
	Use:   "table",
	Short: "Manage MaxCompute tables",
	Long: `Run the MaxCompute table operations: create a project's target table
from its DDL file, or clean up old tables.

These commands additionally require MAXCOMPUTE_PROJECT and
MAXCOMPUTE_ENDPOINT in the environment.`,
}

var tableCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create the target table from the project's create-table.sql",
	Long: `Execute <project-dir>/create-table.sql against the MaxCompute
project. The DDL should use IF NOT EXISTS so reruns are idempotent.

Example:
  dwdeploy table create --project-dir projects/Gucci`,
	Args: cobra.NoArgs,
	RunE: runTableCreate,
}

var tableCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Drop old MaxCompute tables (dry run by default)",
	Long: `Drop tables whose creation time is older than the threshold,
skipping the built-in whitelist and any --keep names. Without
--execute it only reports what would be dropped.

Examples:
  # Preview what a 30-day cleanup would drop
  dwdeploy table clean

  # Actually drop tables older than 60 days
  dwdeploy table clean --days 60 --execute`,
	Args: cobra.NoArgs,
	RunE: runTableClean,
}

func runTableCreate(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	store, err := newStore(logger)
	if err != nil {
		return err
	}
	return maxcompute.CreateTable(cmd.Context(), store, tableProjectDir, logger.Named("table"))
}

func runTableClean(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	store, err := newStore(logger)
	if err != nil {
		return err
	}

	whitelist := maxcompute.DefaultWhitelist
	whitelist = append(whitelist[:len(whitelist):len(whitelist)], cleanKeep...)

	result, err := maxcompute.CleanTables(cmd.Context(), store, maxcompute.CleanOptions{
		MaxAge:    time.Duration(cleanDays) * 24 * time.Hour,
		Execute:   cleanExecute,
		Whitelist: whitelist,
	}, logger.Named("clean"))
	if err != nil {
		return err
	}

	mode := "dry run"
	if cleanExecute {
		mode = "executed"
	}
	fmt.Printf("Clean %s: %s\n", mode, result)
	return nil
}
