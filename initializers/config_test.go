package initializers

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, int64(50<<20), cfg.HTTP.MaxUploadBytes)
	assert.Equal(t, "pdf-index", cfg.Search.IndexName)
	assert.Equal(t, "standard", cfg.Search.Analyzer)
	assert.Equal(t, 100, cfg.Search.MaxPageSize)
	assert.Equal(t, 10000, cfg.Search.MaxResultWindow)
	assert.Equal(t, ProviderOCRSpace, cfg.Analysis.Provider)
	assert.Equal(t, "prebuilt-layout", cfg.Analysis.DocIntelModel)
	assert.Equal(t, 2*time.Second, cfg.Analysis.PollInterval)
	assert.Equal(t, time.Hour, cfg.Storage.PresignTTL)
	assert.Equal(t, 100, cfg.RateLimit.Global)
	assert.Equal(t, 10, cfg.RateLimit.Strict)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
}

func TestLoadConfigFileAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte(`
http:
  port: 9000
search:
  index_name: from-file
  max_page_size: 25
analysis:
  provider: DocIntel
  poll_interval: 500ms
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o600))

	t.Setenv("SEARCH_INDEX_NAME", "from-env")
	t.Setenv("SUPABASE_BUCKET", "docs")
	t.Setenv("ELASTICSEARCH_URL", "http://es:9200")
	t.Setenv("STORAGE_PRESIGN_TTL", "15m")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.HTTP.Port)
	assert.Equal(t, "from-env", cfg.Search.IndexName)
	assert.Equal(t, 25, cfg.Search.MaxPageSize)
	assert.Equal(t, ProviderDocIntel, cfg.Analysis.Provider)
	assert.Equal(t, 500*time.Millisecond, cfg.Analysis.PollInterval)
	assert.Equal(t, "docs", cfg.Storage.Bucket)
	assert.Equal(t, "http://es:9200", cfg.Search.URL)
	assert.Equal(t, 15*time.Minute, cfg.Storage.PresignTTL)
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Storage:  StorageConfig{Endpoint: "https://s3.test", AccessKey: "a", SecretKey: "s", Bucket: "docs"},
			Search:   SearchConfig{URL: "http://es:9200", IndexName: "pdf-index"},
			Analysis: AnalysisConfig{Provider: ProviderOCRSpace, OCRSpaceKey: "K1234567890"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr []string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{
			name:    "missing storage",
			mutate:  func(c *Config) { c.Storage = StorageConfig{} },
			wantErr: []string{"SUPABASE_S3_ENDPOINT", "SUPABASE_ACCESS_KEY", "SUPABASE_BUCKET"},
		},
		{
			name:    "missing search url",
			mutate:  func(c *Config) { c.Search.URL = "" },
			wantErr: []string{"ELASTICSEARCH_URL"},
		},
		{
			name:    "docintel without credentials",
			mutate:  func(c *Config) { c.Analysis.Provider = ProviderDocIntel },
			wantErr: []string{"DOCINTEL_ENDPOINT"},
		},
		{
			name:    "unknown provider",
			mutate:  func(c *Config) { c.Analysis.Provider = "tesseract" },
			wantErr: []string{`unknown ANALYSIS_PROVIDER "tesseract"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if len(tt.wantErr) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, want := range tt.wantErr {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(LoggerConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, logger)

	_, err = NewLogger(LoggerConfig{Level: "loud"})
	assert.Error(t, err)
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("DOCLENS_TEST_VALUE=from-dotenv\n"), 0o600))
	t.Setenv("DOCLENS_TEST_VALUE", "")
	require.NoError(t, os.Unsetenv("DOCLENS_TEST_VALUE"))

	require.NoError(t, LoadEnv(path))
	assert.Equal(t, "from-dotenv", os.Getenv("DOCLENS_TEST_VALUE"))

	assert.NoError(t, LoadEnv(filepath.Join(dir, "missing.env")))
}
