package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/unalkalkan/PaperSlides/pkg/types"
)

// Figure matching strategies accepted in pipeline.figure_matching
const (
	MatchingPattern        = "pattern"
	MatchingFuzzy          = "fuzzy"
	MatchingPatternOrFuzzy = "pattern+fuzzy"
)

// Load reads and parses the configuration file.
// An empty path starts from GetDefault. Environment variables with the PS_
// prefix override file values.
func Load(configPath string) (*types.Config, error) {
	cfg := GetDefault()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid and fills unset defaults
func Validate(cfg *types.Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", cfg.Server.Port)
	}
	if cfg.Server.MaxUploadSize <= 0 {
		cfg.Server.MaxUploadSize = 100 << 20
	}

	switch cfg.Storage.Adapter {
	case "local":
		if cfg.Storage.Local.BasePath == "" {
			return fmt.Errorf("local storage base_path is required")
		}
		if !filepath.IsAbs(cfg.Storage.Local.BasePath) {
			return fmt.Errorf("local storage base_path must be absolute: %s", cfg.Storage.Local.BasePath)
		}
	case "s3":
		if cfg.Storage.S3.Bucket == "" {
			return fmt.Errorf("s3 bucket is required")
		}
		if cfg.Storage.S3.Region == "" {
			return fmt.Errorf("s3 region is required")
		}
	case "azblob":
		if cfg.Storage.AzBlob.AccountName == "" && cfg.Storage.AzBlob.ServiceURL == "" {
			return fmt.Errorf("azblob account_name or service_url is required")
		}
		if cfg.Storage.AzBlob.Container == "" {
			return fmt.Errorf("azblob container is required")
		}
	default:
		return fmt.Errorf("invalid storage adapter: %s (must be 'local', 's3' or 'azblob')", cfg.Storage.Adapter)
	}

	names := make(map[string]bool)
	for _, llm := range cfg.Providers.LLM {
		if llm.Name == "" {
			return fmt.Errorf("llm provider name is required")
		}
		if names[llm.Name] {
			return fmt.Errorf("duplicate llm provider: %s", llm.Name)
		}
		names[llm.Name] = true
		if llm.RateLimitQPS < 0 {
			return fmt.Errorf("llm provider %s: rate_limit_qps must not be negative", llm.Name)
		}
	}
	if cfg.Pipeline.Analyzer != "" && !names[cfg.Pipeline.Analyzer] {
		return fmt.Errorf("pipeline analyzer %q is not a configured llm provider", cfg.Pipeline.Analyzer)
	}

	switch cfg.Pipeline.FigureMatching {
	case "":
		cfg.Pipeline.FigureMatching = MatchingPattern
	case MatchingPattern, MatchingFuzzy, MatchingPatternOrFuzzy:
	default:
		return fmt.Errorf("invalid figure_matching: %s (must be 'pattern', 'fuzzy' or 'pattern+fuzzy')", cfg.Pipeline.FigureMatching)
	}

	if cfg.Pipeline.WorkDir == "" {
		cfg.Pipeline.WorkDir = filepath.Join(os.TempDir(), "paperslides")
	}
	if cfg.Pipeline.OutputPrefix == "" {
		cfg.Pipeline.OutputPrefix = "decks"
	}
	if cfg.Pipeline.DownloadTimeout <= 0 {
		cfg.Pipeline.DownloadTimeout = 60
	}

	f := &cfg.Pipeline.Figures
	if f.MinWidth <= 0 {
		f.MinWidth = 100
	}
	if f.MinHeight <= 0 {
		f.MinHeight = 100
	}
	if f.MaxBrightness == 0 {
		f.MaxBrightness = 245
	}
	if f.MinBrightness < 0 || f.MaxBrightness > 255 || f.MinBrightness >= f.MaxBrightness {
		return fmt.Errorf("invalid figure brightness range: [%.1f, %.1f]", f.MinBrightness, f.MaxBrightness)
	}

	switch strings.ToLower(cfg.Logging.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid logging level: %s", cfg.Logging.Level)
	}
	switch strings.ToLower(cfg.Logging.Format) {
	case "":
		cfg.Logging.Format = "text"
	case "text", "json":
	default:
		return fmt.Errorf("invalid logging format: %s (must be 'text' or 'json')", cfg.Logging.Format)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
// Environment variables are prefixed with PS_ (PaperSlides).
func applyEnvOverrides(cfg *types.Config) {
	// Server overrides
	if val := os.Getenv("PS_SERVER_HOST"); val != "" {
		cfg.Server.Host = val
	}
	if val := os.Getenv("PS_SERVER_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			cfg.Server.Port = port
		}
	}

	// Storage overrides
	if val := os.Getenv("PS_STORAGE_ADAPTER"); val != "" {
		cfg.Storage.Adapter = val
	}
	if val := os.Getenv("PS_STORAGE_LOCAL_BASE_PATH"); val != "" {
		cfg.Storage.Local.BasePath = val
	}
	if val := os.Getenv("PS_STORAGE_S3_BUCKET"); val != "" {
		cfg.Storage.S3.Bucket = val
	}
	if val := os.Getenv("PS_STORAGE_S3_REGION"); val != "" {
		cfg.Storage.S3.Region = val
	}
	if val := os.Getenv("PS_STORAGE_S3_ENDPOINT"); val != "" {
		cfg.Storage.S3.Endpoint = val
	}
	if val := os.Getenv("PS_STORAGE_S3_ACCESS_KEY_ID"); val != "" {
		cfg.Storage.S3.AccessKeyID = val
	}
	if val := os.Getenv("PS_STORAGE_S3_SECRET_ACCESS_KEY"); val != "" {
		cfg.Storage.S3.SecretAccessKey = val
	}
	if val := os.Getenv("PS_STORAGE_AZBLOB_ACCOUNT_NAME"); val != "" {
		cfg.Storage.AzBlob.AccountName = val
	}
	if val := os.Getenv("PS_STORAGE_AZBLOB_ACCOUNT_KEY"); val != "" {
		cfg.Storage.AzBlob.AccountKey = val
	}
	if val := os.Getenv("PS_STORAGE_AZBLOB_CONTAINER"); val != "" {
		cfg.Storage.AzBlob.Container = val
	}

	// Pipeline overrides
	if val := os.Getenv("PS_PIPELINE_ANALYZER"); val != "" {
		cfg.Pipeline.Analyzer = val
	}
	if val := os.Getenv("PS_PIPELINE_WORK_DIR"); val != "" {
		cfg.Pipeline.WorkDir = val
	}
	if val := os.Getenv("PS_PIPELINE_OUTPUT_PREFIX"); val != "" {
		cfg.Pipeline.OutputPrefix = val
	}
	if val := os.Getenv("PS_PIPELINE_FIGURE_MATCHING"); val != "" {
		cfg.Pipeline.FigureMatching = val
	}

	// Logging overrides
	if val := os.Getenv("PS_LOG_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}
	if val := os.Getenv("PS_LOG_FORMAT"); val != "" {
		cfg.Logging.Format = val
	}

	applyProviderEnvOverrides(cfg)
}

// applyProviderEnvOverrides applies provider-specific env vars
func applyProviderEnvOverrides(cfg *types.Config) {
	for i := range cfg.Providers.LLM {
		prefix := fmt.Sprintf("PS_LLM_%s_", envName(cfg.Providers.LLM[i].Name))
		if val := os.Getenv(prefix + "API_KEY"); val != "" {
			cfg.Providers.LLM[i].APIKey = val
		}
		if val := os.Getenv(prefix + "ENDPOINT"); val != "" {
			cfg.Providers.LLM[i].Endpoint = val
		}
		if val := os.Getenv(prefix + "MODEL"); val != "" {
			cfg.Providers.LLM[i].Model = val
		}
	}
}

// envName upper-cases a provider name and maps dashes to underscores
func envName(name string) string {
	return strings.ReplaceAll(strings.ToUpper(name), "-", "_")
}

// GetDefault returns a default configuration.
// It carries a single stub analyzer so conversions work offline.
func GetDefault() *types.Config {
	return &types.Config{
		Server: types.ServerConfig{
			Host:          "0.0.0.0",
			Port:          8080,
			ReadTimeout:   15,
			WriteTimeout:  300,
			MaxUploadSize: 100 << 20,
		},
		Storage: types.StorageConfig{
			Adapter: "local",
			Local: types.LocalStorageOpts{
				BasePath: filepath.Join(os.TempDir(), "paperslides", "storage"),
			},
		},
		Providers: types.ProvidersConfig{
			LLM: []types.LLMProviderConfig{
				{Name: "stub", Enabled: true},
			},
		},
		Pipeline: types.PipelineConfig{
			WorkDir:         filepath.Join(os.TempDir(), "paperslides", "work"),
			OutputPrefix:    "decks",
			FigureMatching:  MatchingPattern,
			DownloadTimeout: 60,
			Figures: types.FigureFilterConfig{
				MinWidth:      100,
				MinHeight:     100,
				MinBrightness: 10,
				MaxBrightness: 245,
			},
		},
		Logging: types.LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
