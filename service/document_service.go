package services

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/url"
	"path"
	"strings"
	"time"

	model "github.com/Itish41/DocLens/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const pdfContentType = "application/pdf"

var (
	newUploadSuffix = func() string { return uuid.NewString() }
	nowUTC          = func() time.Time { return time.Now().UTC() }
)

// DocumentService handles the upload, analysis and indexing of documents
type DocumentService struct {
	storage  Storage
	analyzer Analyzer
	index    SearchIndex
	schema   *SchemaManager
	ledger   Ledger
	logger   *zap.Logger
	metrics  *Metrics
}

// NewDocumentService wires the pipeline. A nil ledger disables ingestion tracking.
func NewDocumentService(storage Storage, analyzer Analyzer, index SearchIndex, schema *SchemaManager, ledger Ledger, logger *zap.Logger, metrics *Metrics) *DocumentService {
	if ledger == nil {
		ledger = NopLedger{}
	}
	return &DocumentService{
		storage:  storage,
		analyzer: analyzer,
		index:    index,
		schema:   schema,
		ledger:   ledger,
		logger:   logger,
		metrics:  metrics,
	}
}

// Upload validates a PDF and stores it under a collision-resistant name.
// It does not index the document.
func (s *DocumentService) Upload(ctx context.Context, req model.UploadRequest) (model.UploadOutcome, error) {
	if len(req.Data) == 0 {
		s.metrics.observeUpload(false)
		return model.UploadOutcome{Message: "no file or empty file"},
			fmt.Errorf("%w: no file or empty file", ErrValidation)
	}
	if !isPDF(req.ContentType) {
		s.metrics.observeUpload(false)
		return model.UploadOutcome{FileName: req.FileName, Message: "file must be a PDF"},
			fmt.Errorf("%w: unsupported content type %q", ErrValidation, req.ContentType)
	}

	name := uniqueFileName(req.FileName)
	locator, err := s.storage.Put(ctx, name, req.Data, pdfContentType)
	if err != nil {
		s.metrics.observeUpload(false)
		s.logger.Error("failed to store upload", zap.String("file_name", name), zap.Error(err))
		return model.UploadOutcome{FileName: name, Message: fmt.Sprintf("failed to store file: %v", err)},
			fmt.Errorf("failed to store file: %w", err)
	}
	s.metrics.observeUpload(true)

	if err := s.ledger.RecordUpload(ctx, name, locator); err != nil {
		s.logger.Warn("failed to record upload", zap.String("file_name", name), zap.Error(err))
	}
	s.logger.Info("document uploaded",
		zap.String("file_name", name),
		zap.String("original_name", req.FileName),
		zap.Int("size", len(req.Data)),
	)

	return model.UploadOutcome{
		FileName: name,
		FileURL:  locator,
		Success:  true,
		Message:  "file uploaded successfully",
	}, nil
}

// AnalyzeStored locates fileName in storage and then analyzes and indexes it.
// A missing document yields ErrDocumentNotFound and no index write; a storage
// failure yields ErrStorageUnavailable.
func (s *DocumentService) AnalyzeStored(ctx context.Context, fileName string) (model.AnalysisOutcome, error) {
	outcome := model.AnalysisOutcome{FileName: fileName}
	if strings.TrimSpace(fileName) == "" {
		outcome.Message = "file name is required"
		return outcome, fmt.Errorf("%w: file name is required", ErrValidation)
	}

	locator, err := s.storage.Locate(ctx, fileName)
	if errors.Is(err, ErrDocumentNotFound) {
		outcome.Message = "document not found"
		return outcome, err
	}
	if err != nil {
		outcome.Message = fmt.Sprintf("failed to locate document: %v", err)
		s.logger.Error("failed to locate document", zap.String("file_name", fileName), zap.Error(err))
		return outcome, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	return s.AnalyzeAndIndex(ctx, fileName, locator)
}

// AnalyzeAndIndex waits for the analysis of the document at locator and
// upserts the resulting record under fileName. Re-running it for the same
// file replaces the previous record. Nothing is retried here.
func (s *DocumentService) AnalyzeAndIndex(ctx context.Context, fileName, locator string) (model.AnalysisOutcome, error) {
	started := time.Now()
	outcome := model.AnalysisOutcome{FileName: fileName}

	if strings.TrimSpace(fileName) == "" {
		outcome.Message = "file name is required"
		return outcome, fmt.Errorf("%w: file name is required", ErrValidation)
	}
	if err := validateLocator(locator); err != nil {
		outcome.Message = "invalid document locator"
		return outcome, err
	}

	s.logger.Info("analyzing document", zap.String("file_name", fileName))
	result, err := s.analyzer.Analyze(ctx, locator)
	if err != nil {
		return s.fail(ctx, outcome, locator, started, "analysis failed", err)
	}

	record := model.DocumentRecord{
		ID:         fileName,
		FileName:   fileName,
		FileURL:    locator,
		Content:    result.Text,
		UploadDate: nowUTC(),
	}

	if _, err := s.schema.EnsureIndexReady(ctx); err != nil {
		return s.fail(ctx, outcome, locator, started, "search index unavailable", err)
	}
	if err := s.index.Upsert(ctx, record); err != nil {
		return s.fail(ctx, outcome, locator, started, "indexing failed", err)
	}

	outcome.Success = true
	outcome.Message = "document analyzed successfully"
	outcome.Document = &record
	s.metrics.observeAnalysis(true, started)

	details := map[string]interface{}{"pages": result.Pages, "model": result.Model}
	if err := s.ledger.RecordAnalysis(ctx, outcome, locator, details); err != nil {
		s.logger.Warn("failed to record analysis", zap.String("file_name", fileName), zap.Error(err))
	}
	s.logger.Info("document indexed",
		zap.String("file_name", fileName),
		zap.Int("content_length", len(record.Content)),
		zap.Duration("elapsed", time.Since(started)),
	)
	return outcome, nil
}

func (s *DocumentService) fail(ctx context.Context, outcome model.AnalysisOutcome, locator string, started time.Time, stage string, err error) (model.AnalysisOutcome, error) {
	outcome.Success = false
	outcome.Message = fmt.Sprintf("%s: %v", stage, err)
	s.metrics.observeAnalysis(false, started)
	s.logger.Error(stage, zap.String("file_name", outcome.FileName), zap.Error(err))
	if lerr := s.ledger.RecordAnalysis(ctx, outcome, locator, nil); lerr != nil {
		s.logger.Warn("failed to record analysis", zap.String("file_name", outcome.FileName), zap.Error(lerr))
	}
	return outcome, fmt.Errorf("%s: %w", stage, err)
}

// ListDocuments returns every stored document.
func (s *DocumentService) ListDocuments(ctx context.Context) ([]model.DocumentMetadata, error) {
	docs, err := s.storage.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return docs, nil
}

// AnalyzeAll analyzes and indexes every stored document, at most concurrency
// at a time. A failing document does not stop the others; its outcome carries
// the failure.
func (s *DocumentService) AnalyzeAll(ctx context.Context, concurrency int) ([]model.AnalysisOutcome, error) {
	docs, err := s.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	outcomes := make([]model.AnalysisOutcome, len(docs))
	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, doc := range docs {
		g.Go(func() error {
			outcomes[i], _ = s.AnalyzeAndIndex(ctx, doc.Name, doc.URL)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes, nil
}

// IngestionHistory returns the most recent ledger rows.
func (s *DocumentService) IngestionHistory(ctx context.Context, limit int) ([]model.IngestionRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.ledger.Recent(ctx, limit)
}

func isPDF(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == pdfContentType
}

// uniqueFileName keeps the original base name and appends a random suffix.
func uniqueFileName(original string) string {
	base := path.Base(strings.ReplaceAll(original, "\\", "/"))
	stem := strings.TrimSpace(strings.TrimSuffix(base, path.Ext(base)))
	if stem == "" || stem == "." || stem == "/" {
		stem = "document"
	}
	return fmt.Sprintf("%s-%s.pdf", stem, newUploadSuffix())
}

func validateLocator(locator string) error {
	u, err := url.ParseRequestURI(locator)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: locator %q is not a dereferenceable URL", ErrValidation, locator)
	}
	return nil
}
