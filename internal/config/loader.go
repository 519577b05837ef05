package config

import (
	"fmt"
	"os"
	"path/filepath"

	kjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"github.com/robfig/cron/v3"
)

const (
	// ConfigFileName is the required per-project config file.
	ConfigFileName = "config.json"
	// GlobalFileName is the optional overlay file. Values in it win
	// over config.json.
	GlobalFileName = "global.json"

	maxConfigFileSize = 1024 * 1024 // 1MB
)

// LoadProject reads <dir>/config.json, overlays <dir>/global.json when
// present, applies defaults and validates the result.
//
// Precedence (highest to lowest):
//  1. global.json overlay
//  2. config.json
//  3. Defaults (FieldDelimiter ",", Encoding "UTF-8")
//
// A missing global.json is not an error; a present but malformed or
// unreadable one is, because silently ignoring an overlay could deploy
// against the wrong datasources.
func LoadProject(dir string) (*Project, error) {
	k := koanf.New(".")

	base, err := readBoundedFile(filepath.Join(dir, ConfigFileName))
	if err != nil {
		return nil, fmt.Errorf("failed to read project config: %w", err)
	}
	if err := k.Load(rawbytes.Provider(base), kjson.Parser()); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", ConfigFileName, err)
	}

	overlay, err := readBoundedFile(filepath.Join(dir, GlobalFileName))
	switch {
	case err == nil:
		if err := k.Load(rawbytes.Provider(overlay), kjson.Parser()); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", GlobalFileName, err)
		}
	case os.IsNotExist(err):
		// No overlay for this project.
	default:
		return nil, fmt.Errorf("failed to read %s: %w", GlobalFileName, err)
	}

	var p Project
	if err := k.Unmarshal("", &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal project config: %w", err)
	}

	applyDefaults(&p)

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid project config in %s: %w", dir, err)
	}
	return &p, nil
}

// readBoundedFile reads a file, rejecting anything over maxConfigFileSize.
func readBoundedFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}
	return os.ReadFile(path)
}

// applyDefaults fills optional table fields that delimited formats need.
func applyDefaults(p *Project) {
	for i := range p.Tables {
		t := &p.Tables[i]
		if t.FileFormat == FormatParquet {
			continue
		}
		if t.FieldDelimiter == "" {
			t.FieldDelimiter = DefaultFieldDelimiter
		}
		if t.Encoding == "" {
			t.Encoding = DefaultEncoding
		}
	}
}

// cronParser accepts the standard five-field cron syntax plus
// descriptors like @daily, which DataWorks scheduling understands.
var cronParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Validate checks the project for the mistakes that would otherwise
// surface as opaque vendor API errors mid-deploy.
func (p *Project) Validate() error {
	if p.ProjectName == "" {
		return fmt.Errorf("ProjectName is required")
	}
	if p.OSS.DataSourceName == "" {
		return fmt.Errorf("OSS.DataSourceName is required")
	}
	if p.MaxCompute.DataSourceName == "" {
		return fmt.Errorf("MaxCompute.DataSourceName is required")
	}
	if p.ResourceGroupIdentifier == "" {
		return fmt.Errorf("ResourceGroupIdentifier is required")
	}
	if len(p.Tables) == 0 {
		return fmt.Errorf("at least one table is required")
	}

	seen := make(map[string]struct{}, len(p.Tables))
	for i := range p.Tables {
		t := &p.Tables[i]
		if t.Name == "" {
			return fmt.Errorf("table %d: Name is required", i)
		}
		if _, dup := seen[t.Name]; dup {
			return fmt.Errorf("duplicate table name %q", t.Name)
		}
		seen[t.Name] = struct{}{}

		if t.OSSObject == "" {
			return fmt.Errorf("table %q: OSS_Object is required", t.Name)
		}
		switch t.FileFormat {
		case FormatParquet, FormatCSV, FormatText:
		default:
			return fmt.Errorf("table %q: unsupported FileFormat %q", t.Name, t.FileFormat)
		}
		if len(t.Columns) == 0 {
			return fmt.Errorf("table %q: at least one column is required", t.Name)
		}
		for j, c := range t.Columns {
			if c.Name == "" || c.Type == "" {
				return fmt.Errorf("table %q: column %d needs both name and type", t.Name, j)
			}
		}
	}

	if p.Schedule.CronExpress != "" {
		if _, err := cronParser.Parse(p.Schedule.CronExpress); err != nil {
			return fmt.Errorf("invalid Schedule.CronExpress %q: %w", p.Schedule.CronExpress, err)
		}
	}
	return nil
}
