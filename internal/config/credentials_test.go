package config

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setCredentialEnv(t *testing.T) {
	t.Helper()
	t.Setenv(EnvAccessKeyID, "LTAI_test_key")
	t.Setenv(EnvAccessKeySecret, "super-secret")
	t.Setenv(EnvRegion, "cn-shanghai")
	t.Setenv(EnvDataWorksProjectID, "12345")
	t.Setenv(EnvMaxComputeProject, "brand_dw")
	t.Setenv(EnvMaxComputeEndpoint, "http://service.cn-shanghai.maxcompute.aliyun.com/api")
}

func TestLoadCredentials(t *testing.T) {
	setCredentialEnv(t)

	c, err := LoadCredentials()
	require.NoError(t, err)

	assert.Equal(t, "LTAI_test_key", c.AccessKeyID)
	assert.Equal(t, "super-secret", c.AccessKeySecret.Value())
	assert.Equal(t, "cn-shanghai", c.Region)
	assert.Equal(t, int64(12345), c.ProjectID)
	assert.Equal(t, "brand_dw", c.MaxComputeProject)
	assert.NoError(t, c.ValidateMaxCompute())
	assert.Equal(t, "dataworks.cn-shanghai.aliyuncs.com", c.DataWorksEndpoint())
}

func TestLoadCredentials_MissingRequired(t *testing.T) {
	for _, missing := range []string{EnvAccessKeyID, EnvAccessKeySecret, EnvRegion, EnvDataWorksProjectID} {
		t.Run(missing, func(t *testing.T) {
			setCredentialEnv(t)
			t.Setenv(missing, "")

			_, err := LoadCredentials()
			require.Error(t, err)
			assert.Contains(t, err.Error(), missing)
		})
	}
}

func TestLoadCredentials_BadProjectID(t *testing.T) {
	setCredentialEnv(t)
	t.Setenv(EnvDataWorksProjectID, "not-a-number")

	_, err := LoadCredentials()
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvDataWorksProjectID)
}

func TestLoadCredentials_MaxComputeOptional(t *testing.T) {
	setCredentialEnv(t)
	t.Setenv(EnvMaxComputeProject, "")

	c, err := LoadCredentials()
	require.NoError(t, err)

	err = c.ValidateMaxCompute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvMaxComputeProject)
}

func TestSecretRedaction(t *testing.T) {
	s := Secret("akid-secret-value")

	assert.Equal(t, "[REDACTED]", s.String())
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%v", s))
	assert.Equal(t, "Secret([REDACTED])", fmt.Sprintf("%#v", s))
	assert.Equal(t, "akid-secret-value", s.Value())
	assert.True(t, s.IsSet())

	data, err := json.Marshal(struct {
		Key Secret `json:"key"`
	}{Key: s})
	require.NoError(t, err)
	assert.JSONEq(t, `{"key":"[REDACTED]"}`, string(data))

	var empty Secret
	assert.Equal(t, "", empty.String())
	assert.False(t, empty.IsSet())
}
