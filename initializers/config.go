package initializers

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

// Config holds all configuration for the DocLens server and console
type Config struct {
	HTTP      HTTPConfig      `mapstructure:"http"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Search    SearchConfig    `mapstructure:"search"`
	Analysis  AnalysisConfig  `mapstructure:"analysis"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	Port            int           `mapstructure:"port" envconfig:"HTTP_PORT"`
	MaxUploadBytes  int64         `mapstructure:"max_upload_bytes" envconfig:"UPLOAD_MAX_BYTES"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" envconfig:"HTTP_SHUTDOWN_TIMEOUT"`
}

// StorageConfig holds the S3 compatible blob store settings
type StorageConfig struct {
	Region     string        `mapstructure:"region" envconfig:"SUPABASE_REGION"`
	Endpoint   string        `mapstructure:"endpoint" envconfig:"SUPABASE_S3_ENDPOINT"`
	AccessKey  string        `mapstructure:"access_key" envconfig:"SUPABASE_ACCESS_KEY"`
	SecretKey  string        `mapstructure:"secret_key" envconfig:"SUPABASE_SECRET_KEY"`
	Bucket     string        `mapstructure:"bucket" envconfig:"SUPABASE_BUCKET"`
	PublicURL  string        `mapstructure:"public_url" envconfig:"SUPABASE_S3_URL"`
	PublicRead bool          `mapstructure:"public_read" envconfig:"STORAGE_PUBLIC_READ"`
	PresignTTL time.Duration `mapstructure:"presign_ttl" envconfig:"STORAGE_PRESIGN_TTL"`
}

// SearchConfig holds the Elasticsearch connection and index settings
type SearchConfig struct {
	URL             string `mapstructure:"url" envconfig:"ELASTICSEARCH_URL"`
	Username        string `mapstructure:"username" envconfig:"ELASTICSEARCH_USERNAME"`
	Password        string `mapstructure:"password" envconfig:"ELASTICSEARCH_PASSWORD"`
	APIKey          string `mapstructure:"api_key" envconfig:"ELASTICSEARCH_API_KEY"`
	IndexName       string `mapstructure:"index_name" envconfig:"SEARCH_INDEX_NAME"`
	Analyzer        string `mapstructure:"analyzer" envconfig:"SEARCH_ANALYZER"`
	InferenceID     string `mapstructure:"inference_id" envconfig:"SEARCH_INFERENCE_ID"`
	MaxPageSize     int    `mapstructure:"max_page_size" envconfig:"SEARCH_MAX_PAGE_SIZE"`
	MaxResultWindow int    `mapstructure:"max_result_window" envconfig:"SEARCH_MAX_RESULT_WINDOW"`
}

// AnalysisConfig selects and configures the text extraction provider
type AnalysisConfig struct {
	Provider         string        `mapstructure:"provider" envconfig:"ANALYSIS_PROVIDER"`
	OCRSpaceKey      string        `mapstructure:"ocr_space_key" envconfig:"OCR_SPACE_API_KEY"`
	OCRSpaceEndpoint string        `mapstructure:"ocr_space_endpoint" envconfig:"OCR_SPACE_ENDPOINT"`
	DocIntelEndpoint string        `mapstructure:"docintel_endpoint" envconfig:"DOCINTEL_ENDPOINT"`
	DocIntelKey      string        `mapstructure:"docintel_key" envconfig:"DOCINTEL_KEY"`
	DocIntelModel    string        `mapstructure:"docintel_model" envconfig:"DOCINTEL_MODEL"`
	PollInterval     time.Duration `mapstructure:"poll_interval" envconfig:"ANALYSIS_POLL_INTERVAL"`
	Timeout          time.Duration `mapstructure:"timeout" envconfig:"ANALYSIS_TIMEOUT"`
	Concurrency      int           `mapstructure:"concurrency" envconfig:"ANALYSIS_CONCURRENCY"`
}

// DatabaseConfig holds the ingestion ledger connection. An empty URL disables the ledger.
type DatabaseConfig struct {
	URL            string `mapstructure:"url" envconfig:"DIRECT_URL"`
	Debug          bool   `mapstructure:"debug" envconfig:"DB_DEBUG"`
	MigrationsPath string `mapstructure:"migrations_path" envconfig:"DB_MIGRATIONS_PATH"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level  string `mapstructure:"level" envconfig:"LOG_LEVEL"`
	Format string `mapstructure:"format" envconfig:"LOG_FORMAT"`
}

// RateLimitConfig holds the per-client request budgets
type RateLimitConfig struct {
	Global int           `mapstructure:"global" envconfig:"RATE_LIMIT_GLOBAL"`
	Strict int           `mapstructure:"strict" envconfig:"RATE_LIMIT_STRICT"`
	Window time.Duration `mapstructure:"window" envconfig:"RATE_LIMIT_WINDOW"`
}

const (
	ProviderDocIntel = "docintel"
	ProviderOCRSpace = "ocrspace"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.max_upload_bytes", 50<<20)
	v.SetDefault("http.shutdown_timeout", "10s")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.bucket", "pdf-documents")
	v.SetDefault("storage.presign_ttl", "1h")
	v.SetDefault("search.index_name", "pdf-index")
	v.SetDefault("search.analyzer", "standard")
	v.SetDefault("search.max_page_size", 100)
	v.SetDefault("search.max_result_window", 10000)
	v.SetDefault("analysis.provider", ProviderOCRSpace)
	v.SetDefault("analysis.docintel_model", "prebuilt-layout")
	v.SetDefault("analysis.poll_interval", "2s")
	v.SetDefault("analysis.timeout", "5m")
	v.SetDefault("analysis.concurrency", 4)
	v.SetDefault("database.migrations_path", "file://db/migrations")
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("rate_limit.global", 100)
	v.SetDefault("rate_limit.strict", 10)
	v.SetDefault("rate_limit.window", "1m")
}

// LoadConfig reads config.yaml from path when present, then overlays the environment.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env vars: %w", err)
	}

	cfg.Analysis.Provider = strings.ToLower(strings.TrimSpace(cfg.Analysis.Provider))
	return &cfg, nil
}

// Validate reports every missing setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Storage.Endpoint == "" {
		errs = append(errs, errors.New("SUPABASE_S3_ENDPOINT is required"))
	}
	if c.Storage.AccessKey == "" || c.Storage.SecretKey == "" {
		errs = append(errs, errors.New("SUPABASE_ACCESS_KEY and SUPABASE_SECRET_KEY are required"))
	}
	if c.Storage.Bucket == "" {
		errs = append(errs, errors.New("SUPABASE_BUCKET is required"))
	}
	if c.Search.URL == "" {
		errs = append(errs, errors.New("ELASTICSEARCH_URL is required"))
	}
	if c.Search.IndexName == "" {
		errs = append(errs, errors.New("SEARCH_INDEX_NAME must not be empty"))
	}
	switch c.Analysis.Provider {
	case ProviderOCRSpace:
		if c.Analysis.OCRSpaceKey == "" {
			errs = append(errs, errors.New("OCR_SPACE_API_KEY is required for the ocrspace provider"))
		}
	case ProviderDocIntel:
		if c.Analysis.DocIntelEndpoint == "" || c.Analysis.DocIntelKey == "" {
			errs = append(errs, errors.New("DOCINTEL_ENDPOINT and DOCINTEL_KEY are required for the docintel provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown ANALYSIS_PROVIDER %q", c.Analysis.Provider))
	}
	return errors.Join(errs...)
}
