package dataworks

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/modaops/dwdeploy/internal/config"
)

// ossConnectionProperties is the CreateDataSource payload for OSS.
type ossConnectionProperties struct {
	EnvType  string `json:"envType"`
	Endpoint string `json:"endpoint"`
	Bucket   string `json:"bucket"`
}

// odpsConnectionProperties is the CreateDataSource payload for
// MaxCompute.
type odpsConnectionProperties struct {
	EnvType     string `json:"envType"`
	ProjectName string `json:"projectName"`
	Endpoint    string `json:"endpoint"`
}

const envTypeProd = "Prod"

// EnsureOSSDataSource creates the project's OSS datasource unless it
// already exists.
func EnsureOSSDataSource(ctx context.Context, api API, p *config.Project, log *zap.Logger) error {
	name := p.OSS.DataSourceName
	exists, err := api.DataSourceExists(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to check OSS datasource %q: %w", name, err)
	}
	if exists {
		log.Info("OSS datasource exists, skipping", zap.String("datasource", name))
		return nil
	}

	props, err := json.Marshal(ossConnectionProperties{
		EnvType:  envTypeProd,
		Endpoint: p.OSS.Endpoint,
		Bucket:   p.OSS.Bucket,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal OSS connection properties: %w", err)
	}

	if err := api.CreateDataSource(ctx, &CreateDataSourceRequest{
		Name:                 name,
		Type:                 DataSourceTypeOSS,
		ConnectionProperties: string(props),
	}); err != nil {
		return fmt.Errorf("failed to create OSS datasource %q: %w", name, err)
	}
	return nil
}

// EnsureODPSDataSource creates the project's MaxCompute datasource
// unless it already exists.
func EnsureODPSDataSource(ctx context.Context, api API, p *config.Project, log *zap.Logger) error {
	name := p.MaxCompute.DataSourceName
	exists, err := api.DataSourceExists(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to check MaxCompute datasource %q: %w", name, err)
	}
	if exists {
		log.Info("MaxCompute datasource exists, skipping", zap.String("datasource", name))
		return nil
	}

	props, err := json.Marshal(odpsConnectionProperties{
		EnvType:     envTypeProd,
		ProjectName: p.MaxCompute.ProjectName,
		Endpoint:    p.MaxCompute.Endpoint,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal MaxCompute connection properties: %w", err)
	}

	if err := api.CreateDataSource(ctx, &CreateDataSourceRequest{
		Name:                 name,
		Type:                 DataSourceTypeODPS,
		ConnectionProperties: string(props),
	}); err != nil {
		return fmt.Errorf("failed to create MaxCompute datasource %q: %w", name, err)
	}
	return nil
}
