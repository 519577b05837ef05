// Package config loads and validates per-brand project configuration
// for DataWorks data-integration deployments.
package config

// Supported table file formats.
const (
	FormatParquet = "parquet"
	FormatCSV     = "csv"
	FormatText    = "text"
)

// Defaults applied to table entries that omit optional fields.
const (
	DefaultFieldDelimiter = ","
	DefaultEncoding       = "UTF-8"
)

// Project is the root of a brand's config.json. JSON tags follow the
// vendor-facing schema and are case-sensitive.
type Project struct {
	ProjectName             string     `json:"ProjectName" koanf:"ProjectName"`
	OSS                     OSSSource  `json:"OSS" koanf:"OSS"`
	MaxCompute              ODPSSource `json:"MaxCompute" koanf:"MaxCompute"`
	Tables                  []Table    `json:"Tables" koanf:"Tables"`
	ResourceGroupIdentifier string     `json:"ResourceGroupIdentifier" koanf:"ResourceGroupIdentifier"`
	Schedule                Schedule   `json:"Schedule" koanf:"Schedule"`
}

// OSSSource describes the OSS datasource the sync jobs read from.
type OSSSource struct {
	DataSourceName string `json:"DataSourceName" koanf:"DataSourceName"`
	Endpoint       string `json:"Endpoint" koanf:"Endpoint"`
	Bucket         string `json:"Bucket" koanf:"Bucket"`
	// BasePath is prepended to every table's OSS_Object.
	BasePath string `json:"BasePath" koanf:"BasePath"`
}

// ODPSSource describes the MaxCompute datasource the sync jobs write to.
type ODPSSource struct {
	DataSourceName string `json:"DataSourceName" koanf:"DataSourceName"`
	ProjectName    string `json:"ProjectName" koanf:"ProjectName"`
	Endpoint       string `json:"Endpoint" koanf:"Endpoint"`
}

// Table describes one OSS object to MaxCompute table sync.
type Table struct {
	Name           string   `json:"Name" koanf:"Name"`
	OSSObject      string   `json:"OSS_Object" koanf:"OSS_Object"`
	FileFormat     string   `json:"FileFormat" koanf:"FileFormat"`
	FieldDelimiter string   `json:"FieldDelimiter" koanf:"FieldDelimiter"`
	Encoding       string   `json:"Encoding" koanf:"Encoding"`
	// Partition names the partition column. Empty means unpartitioned.
	Partition string   `json:"Partition" koanf:"Partition"`
	Columns   []Column `json:"Columns" koanf:"Columns"`
}

// Column is a name/type pair shared by reader and writer column mappings.
type Column struct {
	Name string `json:"name" koanf:"name"`
	Type string `json:"type" koanf:"type"`
}

// Schedule carries the node scheduling properties.
type Schedule struct {
	CronExpress string `json:"CronExpress" koanf:"CronExpress"`
	CycleType   string `json:"CycleType" koanf:"CycleType"`
	Timezone    string `json:"Timezone" koanf:"Timezone"`
}

// NodeName returns the scheduling node name for a table,
// "<ProjectName>_<TableName>".
func (p *Project) NodeName(t *Table) string {
	return p.ProjectName + "_" + t.Name
}
