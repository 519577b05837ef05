package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/modaops/dwdeploy/internal/config"
	"github.com/modaops/dwdeploy/internal/dataworks"
)

var datasourceProjectDir string

func init() {
	datasourceCmd.AddCommand(datasourceCreateOSSCmd)
	datasourceCmd.AddCommand(datasourceCreateODPSCmd)
	datasourceCmd.PersistentFlags().StringVar(&datasourceProjectDir, "project-dir", "", "Project directory containing config.json (required)")
	_ = datasourceCmd.MarkPersistentFlagRequired("project-dir")
}

var datasourceCmd = &cobra.Command{
	Use:   "datasource",
	Short: "Manage workspace datasources",
	Long: `Create the OSS and MaxCompute datasources a project's sync jobs
reference. Creation is idempotent: existing datasources are left alone.

Examples:
  dwdeploy datasource create-oss  --project-dir projects/Gucci
  dwdeploy datasource create-odps --project-dir projects/Gucci`,
}

var datasourceCreateOSSCmd = &cobra.Command{
	Use:   "create-oss",
	Short: "Ensure the project's OSS datasource exists",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEnsureDatasource(cmd, dataworks.EnsureOSSDataSource)
	},
}

var datasourceCreateODPSCmd = &cobra.Command{
	Use:   "create-odps",
	Short: "Ensure the project's MaxCompute datasource exists",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEnsureDatasource(cmd, dataworks.EnsureODPSDataSource)
	},
}

type ensureFunc = func(ctx context.Context, api dataworks.API, p *config.Project, log *zap.Logger) error

func runEnsureDatasource(cmd *cobra.Command, ensure ensureFunc) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	project, err := config.LoadProject(datasourceProjectDir)
	if err != nil {
		return err
	}

	client, _, err := newClient(logger)
	if err != nil {
		return err
	}
	return ensure(cmd.Context(), client, project, logger.Named("datasource"))
}
