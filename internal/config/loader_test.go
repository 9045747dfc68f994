package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unalkalkan/PaperSlides/pkg/types"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "test.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))
	return configPath
}

func TestLoad(t *testing.T) {
	configPath := writeConfig(t, `
server:
  host: "localhost"
  port: 9090

storage:
  adapter: "local"
  local:
    base_path: "/tmp/test"

providers:
  llm:
    - name: "openai"
      enabled: true
      endpoint: "https://api.openai.com/v1"
      model: "gpt-4o-mini"
      rate_limit_qps: 0.5
      options:
        temperature: "0.2"

pipeline:
  analyzer: "openai"
  figure_matching: "pattern+fuzzy"
  include_technical_details: true
  figures:
    min_width: 150

logging:
  level: "debug"
  format: "json"
`)

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/tmp/test", cfg.Storage.Local.BasePath)

	require.Len(t, cfg.Providers.LLM, 1, "file providers replace the default stub")
	assert.Equal(t, "openai", cfg.Providers.LLM[0].Name)
	assert.Equal(t, 0.5, cfg.Providers.LLM[0].RateLimitQPS)
	assert.Equal(t, "0.2", cfg.Providers.LLM[0].Options["temperature"])

	assert.Equal(t, "openai", cfg.Pipeline.Analyzer)
	assert.Equal(t, MatchingPatternOrFuzzy, cfg.Pipeline.FigureMatching)
	assert.True(t, cfg.Pipeline.IncludeTechnicalDetails)
	assert.Equal(t, 150, cfg.Pipeline.Figures.MinWidth)
	assert.Equal(t, 100, cfg.Pipeline.Figures.MinHeight, "unset thresholds keep defaults")
	assert.Equal(t, 245.0, cfg.Pipeline.Figures.MaxBrightness)
	assert.Equal(t, "decks", cfg.Pipeline.OutputPrefix)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Storage.Adapter)
	require.Len(t, cfg.Providers.LLM, 1)
	assert.Equal(t, "stub", cfg.Providers.LLM[0].Name)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*types.Config)
		wantErr bool
	}{
		{
			name:   "valid config",
			modify: func(c *types.Config) {},
		},
		{
			name: "invalid port",
			modify: func(c *types.Config) {
				c.Server.Port = 0
			},
			wantErr: true,
		},
		{
			name: "invalid storage adapter",
			modify: func(c *types.Config) {
				c.Storage.Adapter = "invalid"
			},
			wantErr: true,
		},
		{
			name: "missing local base path",
			modify: func(c *types.Config) {
				c.Storage.Local.BasePath = ""
			},
			wantErr: true,
		},
		{
			name: "relative local base path",
			modify: func(c *types.Config) {
				c.Storage.Local.BasePath = "storage"
			},
			wantErr: true,
		},
		{
			name: "missing s3 bucket",
			modify: func(c *types.Config) {
				c.Storage.Adapter = "s3"
				c.Storage.S3.Region = "eu-west-1"
			},
			wantErr: true,
		},
		{
			name: "valid azblob",
			modify: func(c *types.Config) {
				c.Storage.Adapter = "azblob"
				c.Storage.AzBlob.AccountName = "papers"
				c.Storage.AzBlob.Container = "decks"
			},
		},
		{
			name: "azblob without container",
			modify: func(c *types.Config) {
				c.Storage.Adapter = "azblob"
				c.Storage.AzBlob.AccountName = "papers"
			},
			wantErr: true,
		},
		{
			name: "duplicate provider",
			modify: func(c *types.Config) {
				c.Providers.LLM = append(c.Providers.LLM, types.LLMProviderConfig{Name: "stub"})
			},
			wantErr: true,
		},
		{
			name: "unknown analyzer",
			modify: func(c *types.Config) {
				c.Pipeline.Analyzer = "claude"
			},
			wantErr: true,
		},
		{
			name: "unknown figure matching",
			modify: func(c *types.Config) {
				c.Pipeline.FigureMatching = "exact"
			},
			wantErr: true,
		},
		{
			name: "inverted brightness range",
			modify: func(c *types.Config) {
				c.Pipeline.Figures.MinBrightness = 200
				c.Pipeline.Figures.MaxBrightness = 100
			},
			wantErr: true,
		},
		{
			name: "invalid log format",
			modify: func(c *types.Config) {
				c.Logging.Format = "xml"
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefault()
			tt.modify(cfg)
			err := Validate(cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateFillsDefaults(t *testing.T) {
	cfg := GetDefault()
	cfg.Pipeline.FigureMatching = ""
	cfg.Pipeline.OutputPrefix = ""
	cfg.Logging.Format = ""

	require.NoError(t, Validate(cfg))
	assert.Equal(t, MatchingPattern, cfg.Pipeline.FigureMatching)
	assert.Equal(t, "decks", cfg.Pipeline.OutputPrefix)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestEnvOverrides(t *testing.T) {
	configPath := writeConfig(t, `
server:
  port: 8080
storage:
  adapter: "local"
  local:
    base_path: "/tmp/test"
providers:
  llm:
    - name: "open-ai"
      enabled: true
`)

	t.Setenv("PS_SERVER_PORT", "9999")
	t.Setenv("PS_STORAGE_LOCAL_BASE_PATH", "/tmp/override")
	t.Setenv("PS_LLM_OPEN_AI_API_KEY", "sk-test")
	t.Setenv("PS_LLM_OPEN_AI_MODEL", "gpt-4o")
	t.Setenv("PS_PIPELINE_FIGURE_MATCHING", "fuzzy")
	t.Setenv("PS_LOG_LEVEL", "warn")

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "/tmp/override", cfg.Storage.Local.BasePath)
	assert.Equal(t, "sk-test", cfg.Providers.LLM[0].APIKey)
	assert.Equal(t, "gpt-4o", cfg.Providers.LLM[0].Model)
	assert.Equal(t, MatchingFuzzy, cfg.Pipeline.FigureMatching)
	assert.Equal(t, "warn", cfg.Logging.Level)
}
