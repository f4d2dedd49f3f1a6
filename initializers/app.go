package initializers

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	model "github.com/Itish41/DocLens/models"
	service "github.com/Itish41/DocLens/service"
)

// App is the assembled service graph shared by the HTTP server and the console.
type App struct {
	Config    *Config
	Logger    *zap.Logger
	Registry  *prometheus.Registry
	Storage   *service.S3Storage
	Index     *service.ElasticIndex
	Schema    *service.SchemaManager
	Documents *service.DocumentService
	Search    *service.SearchService
}

// BuildApp connects every gateway described by cfg. The ledger database is
// optional; without DIRECT_URL ingestion history is not recorded.
func BuildApp(ctx context.Context, cfg *Config, logger *zap.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := service.NewMetrics("doclens", registry)

	s3Client, err := NewS3Client(cfg.Storage)
	if err != nil {
		return nil, err
	}
	storage := service.NewS3Storage(s3Client, service.S3Options{
		Bucket:        cfg.Storage.Bucket,
		PublicBaseURL: cfg.Storage.PublicURL,
		PresignTTL:    cfg.Storage.PresignTTL,
		PublicRead:    cfg.Storage.PublicRead,
	}, logger.Named("storage"))
	if err := storage.EnsureBucket(ctx); err != nil {
		return nil, err
	}

	es, err := NewElasticClient(cfg.Search)
	if err != nil {
		return nil, err
	}
	schema := model.CanonicalSchema(cfg.Search.IndexName, cfg.Search.Analyzer).WithSemantic(cfg.Search.InferenceID)
	index := service.NewElasticIndex(es, schema, logger.Named("index"))
	schemaManager := service.NewSchemaManager(index, schema, logger.Named("schema"), metrics)

	analyzer, err := NewAnalyzer(cfg.Analysis, logger)
	if err != nil {
		return nil, err
	}

	var ledger service.Ledger = service.NopLedger{}
	if cfg.Database.URL != "" {
		if err := ConnectDB(cfg.Database, logger); err != nil {
			return nil, err
		}
		if err := Migrate(cfg.Database.MigrationsPath, logger); err != nil {
			return nil, err
		}
		ledger = service.NewGormLedger(DB)
	} else {
		logger.Warn("DIRECT_URL not set, ingestion history is disabled")
	}

	return &App{
		Config:    cfg,
		Logger:    logger,
		Registry:  registry,
		Storage:   storage,
		Index:     index,
		Schema:    schemaManager,
		Documents: service.NewDocumentService(storage, analyzer, index, schemaManager, ledger, logger.Named("documents"), metrics),
		Search:    service.NewSearchService(index, schemaManager, logger.Named("search"), metrics, cfg.Search.MaxPageSize, cfg.Search.MaxResultWindow),
	}, nil
}
