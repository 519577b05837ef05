package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/modaops/dwdeploy/internal/config"
)

var checkProjectDir string

func init() {
	checkCmd.AddCommand(checkDatasourcesCmd)
	checkDatasourcesCmd.Flags().StringVar(&checkProjectDir, "project-dir", "", "Project directory containing config.json (required)")
	_ = checkDatasourcesCmd.MarkFlagRequired("project-dir")
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify API connectivity and list resource groups",
	Long: `Verify that the configured credentials can reach the DataWorks API
and list the data-integration resource groups they can see.

Examples:
  # Verify connectivity
  dwdeploy check

  # Check a project's datasources
  dwdeploy check datasources --project-dir projects/Gucci`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

var checkDatasourcesCmd = &cobra.Command{
	Use:   "datasources",
	Short: "Report whether a project's datasources exist",
	Args:  cobra.NoArgs,
	RunE:  runCheckDatasources,
}

func runCheck(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	client, creds, err := newClient(logger)
	if err != nil {
		return err
	}

	groups, err := client.ListResourceGroups(cmd.Context())
	if err != nil {
		return fmt.Errorf("connectivity check failed: %w", err)
	}

	fmt.Printf("Connection OK (workspace %d): %d resource group(s) found.\n", creds.ProjectID, len(groups))
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "IDENTIFIER\tSTATUS")
	for _, g := range groups {
		fmt.Fprintf(w, "%s\t%s\n", g.Identifier, g.Status)
	}
	return w.Flush()
}

func runCheckDatasources(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	project, err := config.LoadProject(checkProjectDir)
	if err != nil {
		return err
	}

	client, _, err := newClient(logger)
	if err != nil {
		return err
	}

	report := func(kind, name string) error {
		exists, err := client.DataSourceExists(cmd.Context(), name)
		if err != nil {
			return err
		}
		status := "NOT FOUND"
		if exists {
			status = "EXISTS"
		}
		fmt.Printf("%-11s %-30q %s\n", kind, name, status)
		return nil
	}

	if err := report("OSS", project.OSS.DataSourceName); err != nil {
		return err
	}
	return report("MaxCompute", project.MaxCompute.DataSourceName)
}
