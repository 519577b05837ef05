package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Environment variables supplying credentials and workspace identity.
// Credentials never appear in project config files.
const (
	EnvAccessKeyID        = "ALIBABA_CLOUD_ACCESS_KEY_ID"
	EnvAccessKeySecret    = "ALIBABA_CLOUD_ACCESS_KEY_SECRET"
	EnvRegion             = "ALIYUN_REGION"
	EnvDataWorksProjectID = "DATAWORKS_PROJECT_ID"
	EnvMaxComputeProject  = "MAXCOMPUTE_PROJECT"
	EnvMaxComputeEndpoint = "MAXCOMPUTE_ENDPOINT"
)

// Credentials carries the Aliyun access identity and target workspace.
type Credentials struct {
	AccessKeyID     string
	AccessKeySecret Secret
	Region          string
	// ProjectID is the DataWorks workspace ID.
	ProjectID int64

	// MaxCompute connection for DDL operations. Only required by the
	// table subcommands.
	MaxComputeProject  string
	MaxComputeEndpoint string
}

// LoadCredentials reads credentials from the environment. The DataWorks
// fields are mandatory; MaxCompute fields are validated by the
// operations that need them.
func LoadCredentials() (*Credentials, error) {
	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", strings.ToLower), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	get := func(name string) string {
		return strings.TrimSpace(k.String(strings.ToLower(name)))
	}

	c := &Credentials{
		AccessKeyID:        get(EnvAccessKeyID),
		AccessKeySecret:    Secret(get(EnvAccessKeySecret)),
		Region:             get(EnvRegion),
		MaxComputeProject:  get(EnvMaxComputeProject),
		MaxComputeEndpoint: get(EnvMaxComputeEndpoint),
	}

	for name, val := range map[string]string{
		EnvAccessKeyID:     c.AccessKeyID,
		EnvAccessKeySecret: c.AccessKeySecret.Value(),
		EnvRegion:          c.Region,
	} {
		if val == "" {
			return nil, fmt.Errorf("environment variable %s is required", name)
		}
	}

	rawID := get(EnvDataWorksProjectID)
	if rawID == "" {
		return nil, fmt.Errorf("environment variable %s is required", EnvDataWorksProjectID)
	}
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%s must be an integer workspace ID: %w", EnvDataWorksProjectID, err)
	}
	c.ProjectID = id

	return c, nil
}

// ValidateMaxCompute checks the fields the ODPS operations need.
func (c *Credentials) ValidateMaxCompute() error {
	if c.MaxComputeProject == "" {
		return fmt.Errorf("environment variable %s is required", EnvMaxComputeProject)
	}
	if c.MaxComputeEndpoint == "" {
		return fmt.Errorf("environment variable %s is required", EnvMaxComputeEndpoint)
	}
	return nil
}

// DataWorksEndpoint returns the regional DataWorks API endpoint.
func (c *Credentials) DataWorksEndpoint() string {
	return fmt.Sprintf("dataworks.%s.aliyuncs.com", c.Region)
}
