package types

// Config represents the overall application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" json:"server"`
	Storage   StorageConfig   `yaml:"storage" json:"storage"`
	Providers ProvidersConfig `yaml:"providers" json:"providers"`
	Pipeline  PipelineConfig  `yaml:"pipeline" json:"pipeline"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
}

// ServerConfig holds HTTP server settings for serve mode
type ServerConfig struct {
	Host          string `yaml:"host" json:"host"`
	Port          int    `yaml:"port" json:"port"`
	ReadTimeout   int    `yaml:"read_timeout" json:"read_timeout"`   // seconds
	WriteTimeout  int    `yaml:"write_timeout" json:"write_timeout"` // seconds

	// MaxUploadSize caps multipart uploads, in bytes
	MaxUploadSize int64 `yaml:"max_upload_size" json:"max_upload_size"`
}

// StorageConfig defines storage adapter settings
type StorageConfig struct {
	Adapter string            `yaml:"adapter" json:"adapter"` // "local", "s3" or "azblob"
	Local   LocalStorageOpts  `yaml:"local" json:"local"`
	S3      S3StorageOpts     `yaml:"s3" json:"s3"`
	AzBlob  AzBlobStorageOpts `yaml:"azblob" json:"azblob"`
}

// LocalStorageOpts configures the local filesystem adapter
type LocalStorageOpts struct {
	BasePath string `yaml:"base_path" json:"base_path"`
}

// S3StorageOpts configures the S3-compatible adapter
type S3StorageOpts struct {
	Endpoint        string `yaml:"endpoint" json:"endpoint"`
	Region          string `yaml:"region" json:"region"`
	Bucket          string `yaml:"bucket" json:"bucket"`
	AccessKeyID     string `yaml:"access_key_id" json:"-"`
	SecretAccessKey string `yaml:"secret_access_key" json:"-"`
}

// AzBlobStorageOpts configures the Azure Blob Storage adapter
type AzBlobStorageOpts struct {
	AccountName        string `yaml:"account_name" json:"account_name"`
	AccountKey         string `yaml:"account_key" json:"-"`
	Container          string `yaml:"container" json:"container"`
	ServiceURL         string `yaml:"service_url" json:"service_url"` // overrides https://<account>.blob.core.windows.net/, e.g. for Azurite
	UseManagedIdentity bool   `yaml:"use_managed_identity" json:"use_managed_identity"`
}

// ProvidersConfig holds all provider configurations
type ProvidersConfig struct {
	LLM []LLMProviderConfig `yaml:"llm" json:"llm"`
}

// LLMProviderConfig configures a content analyzer backed by an LLM.
// Providers without an endpoint and model run the offline stub analyzer.
type LLMProviderConfig struct {
	Name         string            `yaml:"name" json:"name"`
	Enabled      bool              `yaml:"enabled" json:"enabled"`
	Endpoint     string            `yaml:"endpoint" json:"endpoint"`
	APIKey       string            `yaml:"api_key" json:"-"`
	Model        string            `yaml:"model" json:"model"`
	RateLimitQPS float64           `yaml:"rate_limit_qps" json:"rate_limit_qps"`
	Options      map[string]string `yaml:"options" json:"options"` // timeout, temperature, max_tokens
}

// PipelineConfig holds conversion settings
type PipelineConfig struct {
	// Analyzer names the LLM provider to use; the first enabled one if empty
	Analyzer string `yaml:"analyzer" json:"analyzer"`

	// WorkDir holds the per-run figure directories
	WorkDir string `yaml:"work_dir" json:"work_dir"`

	// OutputPrefix is the storage prefix decks are written under
	OutputPrefix string `yaml:"output_prefix" json:"output_prefix"`

	// FigureMatching is "pattern", "fuzzy" or "pattern+fuzzy"
	FigureMatching          string `yaml:"figure_matching" json:"figure_matching"`
	IncludeTechnicalDetails bool   `yaml:"include_technical_details" json:"include_technical_details"`

	// DownloadTimeout bounds URL locator downloads, in seconds
	DownloadTimeout int                `yaml:"download_timeout" json:"download_timeout"`
	Figures         FigureFilterConfig `yaml:"figures" json:"figures"`
}

// FigureFilterConfig holds the thresholds an extracted image must pass to count as a figure
type FigureFilterConfig struct {
	MinWidth      int     `yaml:"min_width" json:"min_width"`
	MinHeight     int     `yaml:"min_height" json:"min_height"`
	MinBrightness float64 `yaml:"min_brightness" json:"min_brightness"`
	MaxBrightness float64 `yaml:"max_brightness" json:"max_brightness"`
}

// LoggingConfig configures the logger
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`   // debug, info, warn, error
	Format string `yaml:"format" json:"format"` // text or json
}
