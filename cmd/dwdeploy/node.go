package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/modaops/dwdeploy/internal/config"
	"github.com/modaops/dwdeploy/internal/dataworks"
	"github.com/modaops/dwdeploy/internal/deploy"
)

var (
	nodeProjectDir string
	nodeTable      string
)

func init() {
	nodeCmd.AddCommand(nodeCreateCmd)
	nodeCreateCmd.Flags().StringVar(&nodeProjectDir, "project-dir", "", "Project directory containing config.json (required)")
	nodeCreateCmd.Flags().StringVar(&nodeTable, "table", "", "Table name (default: first table in config)")
	_ = nodeCreateCmd.MarkFlagRequired("project-dir")
}

var nodeCmd = &cobra.Command{
	Use:   "node",
	Short: "Manage individual sync nodes",
}

var nodeCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create, submit and deploy a single table's sync node",
	Long: `Create the sync node for one table of a project, print the task
content it was built from, then submit and deploy it. Useful for
verifying a new table before a full deploy.

When GITHUB_OUTPUT is set, the created file ID is appended as node_id.

Examples:
  dwdeploy node create --project-dir projects/Gucci
  dwdeploy node create --project-dir projects/Gucci --table customers`,
	Args: cobra.NoArgs,
	RunE: runNodeCreate,
}

func runNodeCreate(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	project, err := config.LoadProject(nodeProjectDir)
	if err != nil {
		return err
	}

	tableIdx := 0
	if nodeTable != "" {
		tableIdx = -1
		for i := range project.Tables {
			if project.Tables[i].Name == nodeTable {
				tableIdx = i
				break
			}
		}
		if tableIdx < 0 {
			return fmt.Errorf("table %q not found in %s", nodeTable, nodeProjectDir)
		}
	}
	nodeName := project.NodeName(&project.Tables[tableIdx])

	content, err := dataworks.BuildTaskContent(project, tableIdx)
	if err != nil {
		return err
	}
	pretty, err := content.IndentedJSON()
	if err != nil {
		return err
	}
	fmt.Printf("Task content for %s:\n%s\n", nodeName, pretty)

	client, _, err := newClient(logger)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	fileID, err := client.CreateSyncTask(ctx, &dataworks.CreateSyncTaskRequest{
		Name:          nodeName,
		Content:       content,
		ResourceGroup: project.ResourceGroupIdentifier,
	})
	if err != nil {
		return err
	}
	if err := client.SubmitFile(ctx, fileID); err != nil {
		return err
	}
	if err := client.DeployFile(ctx, fileID); err != nil {
		return err
	}

	logger.Info("node created and deployed",
		zap.String("node", nodeName), zap.Int64("file_id", fileID))
	fmt.Printf("Node %s deployed (FileId: %d)\n", nodeName, fileID)

	return deploy.AppendGitHubOutput("node_id", fmt.Sprintf("%d", fileID))
}
