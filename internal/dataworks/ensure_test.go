package dataworks

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeAPI implements API for tests.
type fakeAPI struct {
	existingDataSources map[string]bool
	existsErr           error
	createErr           error

	created []*CreateDataSourceRequest
}

func (f *fakeAPI) JobExists(ctx context.Context, name string) (bool, error) {
	return false, nil
}

func (f *fakeAPI) DataSourceExists(ctx context.Context, name string) (bool, error) {
	if f.existsErr != nil {
		return false, f.existsErr
	}
	return f.existingDataSources[name], nil
}

func (f *fakeAPI) CreateDataSource(ctx context.Context, req *CreateDataSourceRequest) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, req)
	return nil
}

func (f *fakeAPI) CreateSyncTask(ctx context.Context, req *CreateSyncTaskRequest) (int64, error) {
	return 0, errors.New("not implemented")
}

func (f *fakeAPI) SubmitFile(ctx context.Context, fileID int64) error { return nil }

func (f *fakeAPI) DeployFile(ctx context.Context, fileID int64) error { return nil }

func (f *fakeAPI) ListResourceGroups(ctx context.Context) ([]ResourceGroup, error) {
	return nil, nil
}

func TestEnsureOSSDataSource_Creates(t *testing.T) {
	api := &fakeAPI{existingDataSources: map[string]bool{}}

	err := EnsureOSSDataSource(context.Background(), api, testProject(), zap.NewNop())
	require.NoError(t, err)

	require.Len(t, api.created, 1)
	req := api.created[0]
	assert.Equal(t, "oss_gucci", req.Name)
	assert.Equal(t, DataSourceTypeOSS, req.Type)
	assert.JSONEq(t, `{
		"envType": "Prod",
		"endpoint": "oss-cn-shanghai-internal.aliyuncs.com",
		"bucket": "gucci-landing"
	}`, req.ConnectionProperties)
}

func TestEnsureOSSDataSource_SkipsExisting(t *testing.T) {
	api := &fakeAPI{existingDataSources: map[string]bool{"oss_gucci": true}}

	err := EnsureOSSDataSource(context.Background(), api, testProject(), zap.NewNop())
	require.NoError(t, err)
	assert.Empty(t, api.created)
}

func TestEnsureODPSDataSource_Creates(t *testing.T) {
	api := &fakeAPI{existingDataSources: map[string]bool{}}

	err := EnsureODPSDataSource(context.Background(), api, testProject(), zap.NewNop())
	require.NoError(t, err)

	require.Len(t, api.created, 1)
	req := api.created[0]
	assert.Equal(t, "odps_gucci", req.Name)
	assert.Equal(t, DataSourceTypeODPS, req.Type)
	assert.JSONEq(t, `{
		"envType": "Prod",
		"projectName": "gucci_dw",
		"endpoint": "http://service.cn-shanghai.maxcompute.aliyun.com/api"
	}`, req.ConnectionProperties)
}

func TestEnsureODPSDataSource_SkipsExisting(t *testing.T) {
	api := &fakeAPI{existingDataSources: map[string]bool{"odps_gucci": true}}

	err := EnsureODPSDataSource(context.Background(), api, testProject(), zap.NewNop())
	require.NoError(t, err)
	assert.Empty(t, api.created)
}

func TestEnsureDataSource_CreateError(t *testing.T) {
	api := &fakeAPI{
		existingDataSources: map[string]bool{},
		createErr:           errors.New("quota exceeded"),
	}

	err := EnsureOSSDataSource(context.Background(), api, testProject(), zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oss_gucci")
	assert.Contains(t, err.Error(), "quota exceeded")
}
