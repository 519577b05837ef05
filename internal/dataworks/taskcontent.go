package dataworks

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/modaops/dwdeploy/internal/config"
)

// TaskContent is the data-integration job document CreateDISyncTask
// accepts: one OSS reader step wired to one MaxCompute writer step.
// Field names are the vendor wire contract and must not change.
type TaskContent struct {
	Type    string  `json:"type"`
	Version string  `json:"version"`
	Steps   []Step  `json:"steps"`
	Setting Setting `json:"setting"`
	Order   Order   `json:"order"`
}

// Step is a reader or writer stage of the job.
type Step struct {
	StepType  string `json:"stepType"`
	Parameter any    `json:"parameter"`
	Name      string `json:"name"`
	Category  string `json:"category"`
}

// ReaderParameter configures the OSS reader step.
type ReaderParameter struct {
	Datasource     string          `json:"datasource"`
	Object         []string        `json:"object"`
	Column         []ColumnMapping `json:"column"`
	FieldDelimiter string          `json:"fieldDelimiter,omitempty"`
	Encoding       string          `json:"encoding,omitempty"`
	FileFormat     string          `json:"fileFormat"`
}

// ColumnMapping maps a source column into the pipeline. For parquet
// Value is the column name; for delimited formats it is the field index.
type ColumnMapping struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// WriterParameter configures the MaxCompute writer step.
type WriterParameter struct {
	Datasource string   `json:"datasource"`
	Table      string   `json:"table"`
	Column     []string `json:"column"`
	Truncate   bool     `json:"truncate"`
	Partition  string   `json:"partition,omitempty"`
}

// Setting carries the job-level execution limits.
type Setting struct {
	Speed      Speed      `json:"speed"`
	ErrorLimit ErrorLimit `json:"errorLimit"`
}

// Speed limits job parallelism. Sync jobs run a single channel,
// unthrottled.
type Speed struct {
	Channel  int  `json:"channel"`
	Throttle bool `json:"throttle"`
}

// ErrorLimit is the dirty-record tolerance; zero aborts on the first
// bad record.
type ErrorLimit struct {
	Record int `json:"record"`
}

// Order declares the step graph.
type Order struct {
	Hops []Hop `json:"hops"`
}

// Hop is a directed edge between steps.
type Hop struct {
	From string `json:"from"`
	To   string `json:"to"`
}

const (
	stepReaderName = "Reader"
	stepWriterName = "Writer"
)

// BuildTaskContent assembles the job document for one table of a
// project.
//
// Parquet objects carry their own schema, so reader columns map by
// name. Delimited formats map by zero-based field index and need the
// delimiter and encoding on the wire.
func BuildTaskContent(p *config.Project, tableIdx int) (*TaskContent, error) {
	if tableIdx < 0 || tableIdx >= len(p.Tables) {
		return nil, fmt.Errorf("table index %d out of range (project has %d tables)", tableIdx, len(p.Tables))
	}
	table := &p.Tables[tableIdx]

	reader := ReaderParameter{
		Datasource: p.OSS.DataSourceName,
		Object:     []string{p.OSS.BasePath + table.OSSObject},
		FileFormat: table.FileFormat,
	}
	if table.FileFormat == config.FormatParquet {
		for _, col := range table.Columns {
			reader.Column = append(reader.Column, ColumnMapping{Type: col.Type, Value: col.Name})
		}
	} else {
		for i, col := range table.Columns {
			reader.Column = append(reader.Column, ColumnMapping{Type: col.Type, Value: strconv.Itoa(i)})
		}
		reader.FieldDelimiter = table.FieldDelimiter
		if reader.FieldDelimiter == "" {
			reader.FieldDelimiter = config.DefaultFieldDelimiter
		}
		reader.Encoding = table.Encoding
		if reader.Encoding == "" {
			reader.Encoding = config.DefaultEncoding
		}
	}

	writer := WriterParameter{
		Datasource: p.MaxCompute.DataSourceName,
		Table:      table.Name,
		Column:     make([]string, 0, len(table.Columns)),
		Truncate:   true,
	}
	for _, col := range table.Columns {
		writer.Column = append(writer.Column, col.Name)
	}
	if table.Partition != "" {
		writer.Partition = fmt.Sprintf("%s=${bizdate}", table.Partition)
	}

	return &TaskContent{
		Type:    "job",
		Version: "2.0",
		Steps: []Step{
			{StepType: "oss", Parameter: reader, Name: stepReaderName, Category: "reader"},
			{StepType: "odps", Parameter: writer, Name: stepWriterName, Category: "writer"},
		},
		Setting: Setting{
			Speed:      Speed{Channel: 1, Throttle: false},
			ErrorLimit: ErrorLimit{Record: 0},
		},
		Order: Order{
			Hops: []Hop{{From: stepReaderName, To: stepWriterName}},
		},
	}, nil
}

// JSON serializes the task content for the API call.
func (tc *TaskContent) JSON() (string, error) {
	data, err := json.Marshal(tc)
	if err != nil {
		return "", fmt.Errorf("failed to marshal task content: %w", err)
	}
	return string(data), nil
}

// IndentedJSON serializes the task content for human inspection.
func (tc *TaskContent) IndentedJSON() (string, error) {
	data, err := json.MarshalIndent(tc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal task content: %w", err)
	}
	return string(data), nil
}
