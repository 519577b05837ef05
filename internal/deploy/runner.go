// Package deploy orchestrates per-project provisioning of DataWorks
// sync jobs: existence check, task creation, submit, deploy.
package deploy

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/modaops/dwdeploy/internal/config"
	"github.com/modaops/dwdeploy/internal/dataworks"
)

// ErrDeployFailed is returned by DeployAll when at least one project
// had failures, so main can exit nonzero while every project still got
// its chance to deploy.
var ErrDeployFailed = errors.New("deployment finished with failures")

// Stats counts per-project table outcomes.
type Stats struct {
	Created int
	Skipped int
	Failed  int
}

// Add accumulates other into s.
func (s *Stats) Add(other Stats) {
	s.Created += other.Created
	s.Skipped += other.Skipped
	s.Failed += other.Failed
}

// Runner drives the deployment pipeline. It is strictly sequential: a
// failing table is logged and counted, never fatal to the run.
type Runner struct {
	api dataworks.API
	log *zap.Logger
}

// NewRunner creates a runner over the given API.
func NewRunner(api dataworks.API, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{api: api, log: logger}
}

// ProcessProject deploys every table of one project directory.
//
// For each table in order: skip when a node with the same name already
// exists, otherwise create the sync task, submit it and deploy it to
// production. dataworks.ErrAlreadyExists counts as skipped; any other
// error counts as failed and processing continues with the next table.
// The returned error aggregates the table failures and is nil when
// Stats.Failed is zero.
func (r *Runner) ProcessProject(ctx context.Context, dir string) (Stats, error) {
	project, err := config.LoadProject(dir)
	if err != nil {
		r.log.Error("failed to load project", zap.String("dir", dir), zap.Error(err))
		return Stats{Failed: 1}, err
	}

	log := r.log.With(zap.String("project", project.ProjectName))
	log.Info("processing project", zap.Int("tables", len(project.Tables)))

	var (
		stats  Stats
		result *multierror.Error
	)
	for i := range project.Tables {
		table := &project.Tables[i]
		nodeName := project.NodeName(table)
		tlog := log.With(zap.String("node", nodeName))
		tlog.Info("deploying table",
			zap.Int("index", i+1), zap.Int("total", len(project.Tables)))

		switch err := r.deployTable(ctx, project, i, nodeName, tlog); {
		case err == nil:
			stats.Created++
		case errors.Is(err, dataworks.ErrAlreadyExists):
			tlog.Warn("node already exists, skipping")
			stats.Skipped++
		case errors.Is(err, errJobExists):
			tlog.Info("node already registered, skipping")
			stats.Skipped++
		default:
			tlog.Error("table deployment failed", zap.Error(err))
			stats.Failed++
			result = multierror.Append(result, fmt.Errorf("%s: %w", nodeName, err))
		}
	}

	log.Info("project done",
		zap.Int("created", stats.Created),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed))
	return stats, result.ErrorOrNil()
}

// errJobExists separates the pre-check skip from creation errors.
var errJobExists = errors.New("job exists")

// deployTable runs the create -> submit -> deploy sequence for one table.
func (r *Runner) deployTable(ctx context.Context, project *config.Project, tableIdx int, nodeName string, log *zap.Logger) error {
	exists, err := r.api.JobExists(ctx, nodeName)
	if err != nil {
		return fmt.Errorf("failed to check job existence: %w", err)
	}
	if exists {
		return errJobExists
	}

	content, err := dataworks.BuildTaskContent(project, tableIdx)
	if err != nil {
		return err
	}

	fileID, err := r.api.CreateSyncTask(ctx, &dataworks.CreateSyncTaskRequest{
		Name:          nodeName,
		Content:       content,
		ResourceGroup: project.ResourceGroupIdentifier,
	})
	if err != nil {
		return err
	}
	log.Info("task created", zap.Int64("file_id", fileID))

	if err := r.api.SubmitFile(ctx, fileID); err != nil {
		return err
	}
	if err := r.api.DeployFile(ctx, fileID); err != nil {
		return err
	}

	if err := AppendGitHubOutput("node_id", fmt.Sprintf("%d", fileID)); err != nil {
		// Output plumbing must not fail a successful deploy.
		log.Warn("failed to write GitHub output", zap.Error(err))
	}
	return nil
}

// DeployAll discovers the project directories under rootDir (all of
// them, or only the named ones) and processes each sequentially.
// Returns ErrDeployFailed when any project had failures.
func (r *Runner) DeployAll(ctx context.Context, rootDir string, names []string) error {
	dirs, err := config.DiscoverProjects(rootDir, names)
	if err != nil {
		return err
	}
	r.log.Info("starting deployment",
		zap.String("projects_dir", rootDir), zap.Int("projects", len(dirs)))

	var (
		total            Stats
		okProjects       int
		failedProjects   int
		aggregatedErrors *multierror.Error
	)
	for _, dir := range dirs {
		stats, err := r.ProcessProject(ctx, dir)
		total.Add(stats)
		if stats.Failed > 0 {
			failedProjects++
			aggregatedErrors = multierror.Append(aggregatedErrors, err)
		} else {
			okProjects++
		}
	}

	r.log.Info("deployment complete",
		zap.Int("projects_ok", okProjects),
		zap.Int("projects_failed", failedProjects),
		zap.Int("created", total.Created),
		zap.Int("skipped", total.Skipped),
		zap.Int("failed", total.Failed))

	if failedProjects > 0 {
		return fmt.Errorf("%w: %d of %d projects failed: %v",
			ErrDeployFailed, failedProjects, len(dirs), aggregatedErrors.ErrorOrNil())
	}
	return nil
}
