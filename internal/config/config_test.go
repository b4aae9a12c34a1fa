package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromEnv_Defaults(t *testing.T) {
	t.Setenv("PROVIDER_KIND", "mock")

	cfg, err := NewFromEnv("")
	require.NoError(t, err)

	assert.Equal(t, "mock", cfg.Provider.Kind)
	assert.Equal(t, 60, cfg.Provider.TimeoutSeconds)
	assert.Equal(t, "auto", cfg.Summary.Language)
	assert.Equal(t, "./cache", cfg.Cache.Dir)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 2, cfg.Server.Workers)
	assert.Equal(t, "*/10 * * * *", cfg.Watch.CronExpr)
}

func TestNewFromEnv_EnvOverrides(t *testing.T) {
	t.Setenv("PROVIDER_KIND", "openai")
	t.Setenv("PROVIDER_API_KEY", "sk-test")
	t.Setenv("VLM_MODEL", "my-vlm")
	t.Setenv("SUMMARY_LANGUAGE", "zh")
	t.Setenv("SUMMARY_MAX_FRAMES", "40")
	t.Setenv("CACHE_READONLY", "true")

	cfg, err := NewFromEnv("")
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Provider.Kind)
	assert.Equal(t, "sk-test", cfg.Provider.APIKey)
	assert.Equal(t, "my-vlm", cfg.Provider.VLMModel)
	assert.Equal(t, "zh", cfg.Summary.Language)
	assert.Equal(t, 40, cfg.Summary.MaxFrames)
	assert.True(t, cfg.Cache.Readonly)
}

func TestNewFromEnv_MissingAPIKey(t *testing.T) {
	t.Setenv("PROVIDER_KIND", "openrouter")
	t.Setenv("PROVIDER_API_KEY", "")

	_, err := NewFromEnv("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PROVIDER_API_KEY")
}

func TestNewFromEnv_MockNeedsNoKey(t *testing.T) {
	t.Setenv("PROVIDER_KIND", "mock")
	t.Setenv("PROVIDER_API_KEY", "")

	_, err := NewFromEnv("")
	assert.NoError(t, err)
}

func TestNewFromEnv_YAMLFileThenEnvWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vidsum.yaml")
	content := `provider:
  kind: mock
  vlm_model: yaml-vlm
  llm_model: yaml-llm
cache:
  dir: /data/cache
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("LLM_MODEL", "env-llm")

	cfg, err := NewFromEnv(path)
	require.NoError(t, err)

	assert.Equal(t, "yaml-vlm", cfg.Provider.VLMModel)
	assert.Equal(t, "env-llm", cfg.Provider.LLMModel)
	assert.Equal(t, "/data/cache", cfg.Cache.Dir)
}

func TestNewFromEnv_MissingConfigFile(t *testing.T) {
	_, err := NewFromEnv("/does/not/exist.yaml")
	assert.Error(t, err)
}

func TestNormalizeLanguage(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", "auto", false},
		{"auto", "auto", false},
		{"zh", "zh", false},
		{"zh-Hans", "zh", false},
		{"en-US", "en", false},
		{"ja", "", true},
		{"not a tag", "", true},
	}
	for _, tt := range tests {
		got, err := normalizeLanguage(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestNewFromEnv_Options(t *testing.T) {
	t.Setenv("PROVIDER_KIND", "mock")

	cfg, err := NewFromEnv("", func(c *Config) { c.Server.Workers = 8 })
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Server.Workers)
}
