// Package dataworks wraps the DataWorks OpenAPI operations the deploy
// pipeline drives: file lookup, datasource management, sync-task
// creation, submit and deploy.
package dataworks

import (
	"context"
	"encoding/json"
	"fmt"

	openapi "github.com/alibabacloud-go/darabonba-openapi/client"
	dw "github.com/alibabacloud-go/dataworks-public-20200518/v4/client"
	"github.com/alibabacloud-go/tea/tea"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/modaops/dwdeploy/internal/config"
)

const (
	taskTypeDIOffline = "DI_OFFLINE"

	// DataSourceTypeOSS and DataSourceTypeODPS are the vendor type
	// discriminators for CreateDataSource.
	DataSourceTypeOSS  = "oss"
	DataSourceTypeODPS = "odps"

	// resourceGroupTypeDI selects data-integration resource groups in
	// ListResourceGroups.
	resourceGroupTypeDI = 4

	// envTypeProdCode is the CreateDataSource environment discriminator
	// for the production environment.
	envTypeProdCode = 1

	listPageSize = 100
	maxRetries   = 4
)

// API is the narrow surface of DataWorks the deploy pipeline needs.
// The SDK-backed Client implements it; tests substitute fakes.
type API interface {
	// JobExists reports whether a file with exactly this name is
	// already registered in the workspace.
	JobExists(ctx context.Context, name string) (bool, error)

	// DataSourceExists reports whether a datasource with exactly this
	// name exists.
	DataSourceExists(ctx context.Context, name string) (bool, error)

	// CreateDataSource registers a datasource.
	CreateDataSource(ctx context.Context, req *CreateDataSourceRequest) error

	// CreateSyncTask creates a DI_OFFLINE sync task and returns its
	// file ID. Duplicate names yield ErrAlreadyExists.
	CreateSyncTask(ctx context.Context, req *CreateSyncTaskRequest) (int64, error)

	// SubmitFile submits a created file to the scheduling system.
	SubmitFile(ctx context.Context, fileID int64) error

	// DeployFile publishes a submitted file to production.
	DeployFile(ctx context.Context, fileID int64) error

	// ListResourceGroups lists the data-integration resource groups
	// visible to the credentials.
	ListResourceGroups(ctx context.Context) ([]ResourceGroup, error)
}

// CreateDataSourceRequest describes a datasource to register.
type CreateDataSourceRequest struct {
	Name string
	Type string
	// ConnectionProperties is the vendor JSON payload for the
	// datasource type.
	ConnectionProperties string
}

// CreateSyncTaskRequest describes a sync task to create.
type CreateSyncTaskRequest struct {
	Name          string
	Content       *TaskContent
	ResourceGroup string
}

// ResourceGroup is a data-integration resource group summary.
type ResourceGroup struct {
	Identifier string
	Status     string
}

// Client implements API against the DataWorks OpenAPI. Transient
// vendor errors (throttling, 5xx) are retried with exponential
// backoff; business rejections are not.
type Client struct {
	sdk       *dw.Client
	projectID int64
	log       *zap.Logger
}

var _ API = (*Client)(nil)

// NewClient builds an SDK client for the workspace identified by the
// credentials.
func NewClient(creds *config.Credentials, logger *zap.Logger) (*Client, error) {
	if creds == nil {
		return nil, fmt.Errorf("credentials are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	sdk, err := dw.NewClient(&openapi.Config{
		AccessKeyId:     tea.String(creds.AccessKeyID),
		AccessKeySecret: tea.String(creds.AccessKeySecret.Value()),
		RegionId:        tea.String(creds.Region),
		Endpoint:        tea.String(creds.DataWorksEndpoint()),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize DataWorks client: %w", err)
	}

	logger.Debug("dataworks client initialized",
		zap.String("region", creds.Region),
		zap.Int64("project_id", creds.ProjectID))

	return &Client{
		sdk:       sdk,
		projectID: creds.ProjectID,
		log:       logger,
	}, nil
}

// JobExists searches files by keyword and matches the name exactly.
// API errors degrade to "not found" with a warning: a broken listing
// must not block creation, the create call itself reports duplicates.
func (c *Client) JobExists(ctx context.Context, name string) (bool, error) {
	var found bool
	err := c.withRetry(ctx, "ListFiles", func() error {
		resp, err := c.sdk.ListFiles(&dw.ListFilesRequest{
			ProjectId:  tea.Int64(c.projectID),
			Keyword:    tea.String(name),
			PageSize:   tea.Int32(listPageSize),
			PageNumber: tea.Int32(1),
		})
		if err != nil {
			return err
		}
		found = false
		if resp.Body != nil && resp.Body.Data != nil {
			for _, f := range resp.Body.Data.Files {
				if tea.StringValue(f.FileName) == name {
					found = true
					break
				}
			}
		}
		return nil
	})
	if err != nil {
		c.log.Warn("ListFiles failed, treating job as not found",
			zap.String("job", name), zap.Error(err))
		return false, nil
	}
	return found, nil
}

// DataSourceExists lists datasources by name and matches exactly, with
// the same degrade-to-not-found semantics as JobExists.
func (c *Client) DataSourceExists(ctx context.Context, name string) (bool, error) {
	var found bool
	err := c.withRetry(ctx, "ListDataSources", func() error {
		resp, err := c.sdk.ListDataSources(&dw.ListDataSourcesRequest{
			ProjectId:  tea.Int64(c.projectID),
			Name:       tea.String(name),
			PageSize:   tea.Int32(20),
			PageNumber: tea.Int32(1),
		})
		if err != nil {
			return err
		}
		found = false
		if resp.Body != nil && resp.Body.Data != nil {
			for _, ds := range resp.Body.Data.DataSources {
				if tea.StringValue(ds.Name) == name {
					found = true
					break
				}
			}
		}
		return nil
	})
	if err != nil {
		c.log.Warn("ListDataSources failed, treating datasource as not found",
			zap.String("datasource", name), zap.Error(err))
		return false, nil
	}
	return found, nil
}

// CreateDataSource registers a datasource in the workspace.
func (c *Client) CreateDataSource(ctx context.Context, req *CreateDataSourceRequest) error {
	err := c.withRetry(ctx, "CreateDataSource", func() error {
		_, err := c.sdk.CreateDataSource(&dw.CreateDataSourceRequest{
			ProjectId:      tea.Int64(c.projectID),
			Name:           tea.String(req.Name),
			DataSourceType: tea.String(req.Type),
			EnvType:        tea.Int32(envTypeProdCode),
			Content:        tea.String(req.ConnectionProperties),
		})
		return err
	})
	if err != nil {
		return wrapAPIError("CreateDataSource", err)
	}
	c.log.Info("datasource created",
		zap.String("datasource", req.Name), zap.String("type", req.Type))
	return nil
}

// taskParam is the CreateDISyncTask placement payload.
type taskParam struct {
	FileFolderPath string `json:"FileFolderPath"`
	ResourceGroup  string `json:"ResourceGroup"`
}

// CreateSyncTask creates the DI_OFFLINE task and returns its file ID.
func (c *Client) CreateSyncTask(ctx context.Context, req *CreateSyncTaskRequest) (int64, error) {
	content, err := req.Content.JSON()
	if err != nil {
		return 0, err
	}
	param, err := json.Marshal(taskParam{
		FileFolderPath: "/",
		ResourceGroup:  req.ResourceGroup,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to marshal task param: %w", err)
	}

	var fileID int64
	err = c.withRetry(ctx, "CreateDISyncTask", func() error {
		resp, err := c.sdk.CreateDISyncTask(&dw.CreateDISyncTaskRequest{
			ProjectId:   tea.Int64(c.projectID),
			TaskType:    tea.String(taskTypeDIOffline),
			TaskName:    tea.String(req.Name),
			TaskParam:   tea.String(string(param)),
			TaskContent: tea.String(content),
		})
		if err != nil {
			return err
		}
		data := resp.Body.Data
		if data == nil || tea.StringValue(data.Status) != "success" {
			msg := "unknown error"
			if data != nil {
				msg = tea.StringValue(data.Message)
			}
			return fmt.Errorf("task creation rejected: %s", msg)
		}
		fileID = tea.Int64Value(data.FileId)
		return nil
	})
	if err != nil {
		return 0, wrapAPIError("CreateDISyncTask", err)
	}

	c.log.Info("sync task created",
		zap.String("task", req.Name), zap.Int64("file_id", fileID))
	return fileID, nil
}

// SubmitFile submits the file to the scheduling system.
func (c *Client) SubmitFile(ctx context.Context, fileID int64) error {
	err := c.withRetry(ctx, "SubmitFile", func() error {
		resp, err := c.sdk.SubmitFile(&dw.SubmitFileRequest{
			ProjectId: tea.Int64(c.projectID),
			FileId:    tea.Int64(fileID),
		})
		if err != nil {
			return err
		}
		if !tea.BoolValue(resp.Body.Success) {
			return fmt.Errorf("submit rejected: %s", tea.StringValue(resp.Body.ErrorMessage))
		}
		return nil
	})
	if err != nil {
		return wrapAPIError("SubmitFile", err)
	}
	c.log.Info("file submitted", zap.Int64("file_id", fileID))
	return nil
}

// DeployFile publishes the file to the production environment.
func (c *Client) DeployFile(ctx context.Context, fileID int64) error {
	err := c.withRetry(ctx, "DeployFile", func() error {
		resp, err := c.sdk.DeployFile(&dw.DeployFileRequest{
			ProjectId: tea.Int64(c.projectID),
			FileId:    tea.Int64(fileID),
		})
		if err != nil {
			return err
		}
		if !tea.BoolValue(resp.Body.Success) {
			return fmt.Errorf("deploy rejected: %s", tea.StringValue(resp.Body.ErrorMessage))
		}
		return nil
	})
	if err != nil {
		return wrapAPIError("DeployFile", err)
	}
	c.log.Info("file deployed to production", zap.Int64("file_id", fileID))
	return nil
}

// ListResourceGroups lists data-integration resource groups.
func (c *Client) ListResourceGroups(ctx context.Context) ([]ResourceGroup, error) {
	var groups []ResourceGroup
	err := c.withRetry(ctx, "ListResourceGroups", func() error {
		resp, err := c.sdk.ListResourceGroups(&dw.ListResourceGroupsRequest{
			ResourceGroupType: tea.Int32(resourceGroupTypeDI),
		})
		if err != nil {
			return err
		}
		groups = groups[:0]
		for _, g := range resp.Body.Data {
			groups = append(groups, ResourceGroup{
				Identifier: tea.StringValue(g.Identifier),
				Status:     resourceGroupStatus(tea.Int32Value(g.Status)),
			})
		}
		return nil
	})
	if err != nil {
		return nil, wrapAPIError("ListResourceGroups", err)
	}
	return groups, nil
}

// resourceGroupStatus maps the vendor status code to a readable label.
func resourceGroupStatus(code int32) string {
	switch code {
	case 0:
		return "normal"
	case 1:
		return "stopped"
	case 2:
		return "deleted"
	default:
		return fmt.Sprintf("status(%d)", code)
	}
}

// withRetry runs fn with bounded exponential backoff on retryable
// errors. The context cancels waits between attempts.
func (c *Client) withRetry(ctx context.Context, op string, fn func() error) error {
	attempt := 0
	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetries), ctx)
	return backoff.Retry(func() error {
		attempt++
		err := fn()
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return backoff.Permanent(err)
		}
		c.log.Warn("retrying transient API error",
			zap.String("op", op), zap.Int("attempt", attempt), zap.Error(err))
		return err
	}, bo)
}
