package main

import (
	"github.com/spf13/cobra"

	"github.com/modaops/dwdeploy/internal/deploy"
)

var deployProjects string

func init() {
	deployCmd.Flags().StringVar(&deployProjects, "projects", "", "Comma-separated project names (default: all)")
}

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Deploy sync jobs for all or selected projects",
	Long: `Deploy data-integration sync jobs for every table of every project.

Existing nodes are skipped, so reruns are safe. A table failure is
logged and counted; the run continues and exits nonzero at the end.

Examples:
  # Deploy all projects under ./projects
  dwdeploy deploy

  # Deploy selected brands
  dwdeploy deploy --projects Gucci,Balenciaga

  # Deploy from a different root
  dwdeploy deploy --projects-dir /srv/brand-configs`,
	Args: cobra.NoArgs,
	RunE: runDeploy,
}

func runDeploy(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck // stdout sync errors are harmless

	client, _, err := newClient(logger)
	if err != nil {
		return err
	}

	runner := deploy.NewRunner(client, logger.Named("deploy"))
	return runner.DeployAll(cmd.Context(), projectsDir, splitProjects(deployProjects))
}
