package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfig = `{
  "ProjectName": "Gucci",
  "OSS": {
    "DataSourceName": "oss_gucci",
    "Endpoint": "oss-cn-shanghai-internal.aliyuncs.com",
    "Bucket": "gucci-landing",
    "BasePath": "exports/"
  },
  "MaxCompute": {
    "DataSourceName": "odps_gucci",
    "ProjectName": "gucci_dw",
    "Endpoint": "http://service.cn-shanghai.maxcompute.aliyun.com/api"
  },
  "ResourceGroupIdentifier": "S_res_group_1",
  "Schedule": {
    "CronExpress": "0 2 * * *",
    "CycleType": "DAY",
    "Timezone": "Asia/Shanghai"
  },
  "Tables": [
    {
      "Name": "orders",
      "OSS_Object": "orders/orders.parquet",
      "FileFormat": "parquet",
      "Columns": [
        {"name": "order_id", "type": "string"},
        {"name": "amount", "type": "double"}
      ]
    },
    {
      "Name": "customers",
      "OSS_Object": "customers/customers.csv",
      "FileFormat": "csv",
      "Partition": "ds",
      "Columns": [
        {"name": "customer_id", "type": "string"}
      ]
    }
  ]
}`

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}
	return dir
}

func TestLoadProject(t *testing.T) {
	dir := writeProject(t, map[string]string{ConfigFileName: validConfig})

	p, err := LoadProject(dir)
	require.NoError(t, err)

	assert.Equal(t, "Gucci", p.ProjectName)
	assert.Equal(t, "oss_gucci", p.OSS.DataSourceName)
	assert.Equal(t, "exports/", p.OSS.BasePath)
	assert.Equal(t, "S_res_group_1", p.ResourceGroupIdentifier)
	require.Len(t, p.Tables, 2)

	orders := p.Tables[0]
	assert.Equal(t, "orders", orders.Name)
	assert.Equal(t, "orders/orders.parquet", orders.OSSObject)
	assert.Equal(t, FormatParquet, orders.FileFormat)
	// Parquet tables get no delimited-format defaults.
	assert.Empty(t, orders.FieldDelimiter)
	assert.Empty(t, orders.Encoding)

	customers := p.Tables[1]
	assert.Equal(t, DefaultFieldDelimiter, customers.FieldDelimiter)
	assert.Equal(t, DefaultEncoding, customers.Encoding)
	assert.Equal(t, "ds", customers.Partition)
}

func TestLoadProject_MissingConfig(t *testing.T) {
	_, err := LoadProject(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read project config")
}

func TestLoadProject_GlobalOverlay(t *testing.T) {
	dir := writeProject(t, map[string]string{
		ConfigFileName: validConfig,
		GlobalFileName: `{
  "ResourceGroupIdentifier": "S_res_group_prod",
  "OSS": {"DataSourceName": "oss_gucci_prod"}
}`,
	})

	p, err := LoadProject(dir)
	require.NoError(t, err)

	assert.Equal(t, "S_res_group_prod", p.ResourceGroupIdentifier)
	assert.Equal(t, "oss_gucci_prod", p.OSS.DataSourceName)
	// Keys absent from the overlay keep their config.json values.
	assert.Equal(t, "gucci-landing", p.OSS.Bucket)
	assert.Equal(t, "Gucci", p.ProjectName)
}

func TestLoadProject_MalformedGlobalOverlay(t *testing.T) {
	dir := writeProject(t, map[string]string{
		ConfigFileName: validConfig,
		GlobalFileName: `{"ResourceGroupIdentifier": `,
	})

	_, err := LoadProject(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), GlobalFileName)
}

func TestLoadProject_UnreadableGlobalOverlay(t *testing.T) {
	// An overlay that exists but cannot be read must fail the load, not
	// fall back to config.json values.
	overlay := `{"ResourceGroupIdentifier": "S_res_group_prod"`
	padding := make([]byte, maxConfigFileSize+1-len(overlay)-1)
	for i := range padding {
		padding[i] = ' '
	}
	dir := writeProject(t, map[string]string{
		ConfigFileName: validConfig,
		GlobalFileName: overlay + string(padding) + "}",
	})

	p, err := LoadProject(dir)
	require.Error(t, err)
	assert.Nil(t, p)
	assert.Contains(t, err.Error(), GlobalFileName)
	assert.Contains(t, err.Error(), "too large")
}

func TestLoadProject_MalformedJSON(t *testing.T) {
	dir := writeProject(t, map[string]string{ConfigFileName: `{"ProjectName": `})

	_, err := LoadProject(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse")
}

func TestValidate(t *testing.T) {
	base := func() *Project {
		return &Project{
			ProjectName:             "Brand",
			OSS:                     OSSSource{DataSourceName: "oss_ds"},
			MaxCompute:              ODPSSource{DataSourceName: "odps_ds"},
			ResourceGroupIdentifier: "rg",
			Tables: []Table{{
				Name:       "t1",
				OSSObject:  "t1.parquet",
				FileFormat: FormatParquet,
				Columns:    []Column{{Name: "c", Type: "string"}},
			}},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Project)
		wantErr string
	}{
		{"valid", func(p *Project) {}, ""},
		{"missing project name", func(p *Project) { p.ProjectName = "" }, "ProjectName is required"},
		{"missing oss datasource", func(p *Project) { p.OSS.DataSourceName = "" }, "OSS.DataSourceName"},
		{"missing odps datasource", func(p *Project) { p.MaxCompute.DataSourceName = "" }, "MaxCompute.DataSourceName"},
		{"missing resource group", func(p *Project) { p.ResourceGroupIdentifier = "" }, "ResourceGroupIdentifier"},
		{"no tables", func(p *Project) { p.Tables = nil }, "at least one table"},
		{"duplicate table", func(p *Project) {
			p.Tables = append(p.Tables, p.Tables[0])
		}, "duplicate table name"},
		{"missing oss object", func(p *Project) { p.Tables[0].OSSObject = "" }, "OSS_Object is required"},
		{"bad format", func(p *Project) { p.Tables[0].FileFormat = "avro" }, "unsupported FileFormat"},
		{"no columns", func(p *Project) { p.Tables[0].Columns = nil }, "at least one column"},
		{"unnamed column", func(p *Project) { p.Tables[0].Columns[0].Name = "" }, "needs both name and type"},
		{"bad cron", func(p *Project) { p.Schedule.CronExpress = "not a cron" }, "invalid Schedule.CronExpress"},
		{"valid cron", func(p *Project) { p.Schedule.CronExpress = "30 1 * * *" }, ""},
		{"cron descriptor", func(p *Project) { p.Schedule.CronExpress = "@daily" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := base()
			tt.mutate(p)
			err := p.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestNodeName(t *testing.T) {
	p := &Project{ProjectName: "Gucci", Tables: []Table{{Name: "orders"}}}
	assert.Equal(t, "Gucci_orders", p.NodeName(&p.Tables[0]))
}
