package initializers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/elastic/go-elasticsearch/v8"
	"go.uber.org/zap"

	service "github.com/Itish41/DocLens/service"
)

// NewS3Client opens a path-style S3 session against the Supabase storage endpoint.
func NewS3Client(cfg StorageConfig) (*s3.S3, error) {
	sess, err := session.NewSession(&aws.Config{
		Region:           aws.String(cfg.Region),
		Endpoint:         aws.String(cfg.Endpoint),
		Credentials:      credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, ""),
		S3ForcePathStyle: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	return s3.New(sess), nil
}

// NewElasticClient builds the Elasticsearch client. API key auth wins over basic auth.
func NewElasticClient(cfg SearchConfig) (*elasticsearch.Client, error) {
	esConfig := elasticsearch.Config{
		Addresses: []string{cfg.URL},
	}
	if cfg.APIKey != "" {
		esConfig.APIKey = cfg.APIKey
	} else {
		esConfig.Username = cfg.Username
		esConfig.Password = cfg.Password
	}

	es, err := elasticsearch.NewClient(esConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}
	return es, nil
}

// NewAnalyzer returns the analysis gateway selected by cfg.Provider.
func NewAnalyzer(cfg AnalysisConfig, logger *zap.Logger) (service.Analyzer, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	client := &http.Client{Timeout: timeout}
	switch cfg.Provider {
	case ProviderDocIntel:
		return service.NewDocIntelAnalyzer(cfg.DocIntelEndpoint, cfg.DocIntelKey, cfg.DocIntelModel,
			cfg.PollInterval, client, logger.Named("docintel")), nil
	case ProviderOCRSpace:
		return service.NewOCRSpaceAnalyzer(cfg.OCRSpaceKey, cfg.OCRSpaceEndpoint, "eng",
			client, logger.Named("ocrspace")), nil
	default:
		return nil, fmt.Errorf("unknown analysis provider %q", cfg.Provider)
	}
}
