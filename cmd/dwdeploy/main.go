// Package main implements the dwdeploy CLI, which provisions DataWorks
// data-integration jobs (OSS to MaxCompute) from per-brand JSON
// configuration directories.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/modaops/dwdeploy/internal/config"
	"github.com/modaops/dwdeploy/internal/dataworks"
	"github.com/modaops/dwdeploy/internal/logging"
	"github.com/modaops/dwdeploy/internal/maxcompute"
)

// Version information (set via ldflags during build)
var version = "dev"

var (
	// global flags
	projectsDir string
	logLevel    string
	logFormat   string
)

var rootCmd = &cobra.Command{
	Use:   "dwdeploy",
	Short: "Provision DataWorks data-integration jobs from project configs",
	Long: `dwdeploy reads per-brand project directories (config.json plus an
optional global.json overlay) and idempotently provisions the matching
OSS-to-MaxCompute sync jobs in Aliyun DataWorks.

Credentials come from the environment:
  ALIBABA_CLOUD_ACCESS_KEY_ID      Aliyun AccessKey ID
  ALIBABA_CLOUD_ACCESS_KEY_SECRET  Aliyun AccessKey Secret
  ALIYUN_REGION                    Region, e.g. cn-shanghai
  DATAWORKS_PROJECT_ID             DataWorks workspace ID
  MAXCOMPUTE_PROJECT               MaxCompute project (table commands)
  MAXCOMPUTE_ENDPOINT              MaxCompute endpoint (table commands)`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&projectsDir, "projects-dir", "projects", "Projects root directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "Log format: console or json")

	rootCmd.AddCommand(deployCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(datasourceCmd)
	rootCmd.AddCommand(nodeCmd)
	rootCmd.AddCommand(tableCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the dwdeploy version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("dwdeploy %s\n", version)
	},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newLogger builds the logger from the global flags.
func newLogger() (*zap.Logger, error) {
	return logging.New(&logging.Config{Level: logLevel, Format: logFormat})
}

// newClient loads credentials from the environment and connects the
// DataWorks client.
func newClient(logger *zap.Logger) (*dataworks.Client, *config.Credentials, error) {
	creds, err := config.LoadCredentials()
	if err != nil {
		return nil, nil, err
	}
	client, err := dataworks.NewClient(creds, logger.Named("dataworks"))
	if err != nil {
		return nil, nil, err
	}
	return client, creds, nil
}

// newStore loads credentials and connects the MaxCompute store.
func newStore(logger *zap.Logger) (maxcompute.Store, error) {
	creds, err := config.LoadCredentials()
	if err != nil {
		return nil, err
	}
	return maxcompute.NewStore(creds, logger.Named("maxcompute"))
}

// splitProjects parses a comma-separated project list, dropping empty
// entries.
func splitProjects(raw string) []string {
	var names []string
	for _, part := range strings.Split(raw, ",") {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}
