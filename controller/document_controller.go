package controller

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	model "github.com/Itish41/DocLens/models"
	service "github.com/Itish41/DocLens/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DocumentService is the ingestion pipeline behind the document routes.
type DocumentService interface {
	Upload(ctx context.Context, req model.UploadRequest) (model.UploadOutcome, error)
	AnalyzeStored(ctx context.Context, fileName string) (model.AnalysisOutcome, error)
	AnalyzeAll(ctx context.Context, concurrency int) ([]model.AnalysisOutcome, error)
	ListDocuments(ctx context.Context) ([]model.DocumentMetadata, error)
	IngestionHistory(ctx context.Context, limit int) ([]model.IngestionRecord, error)
}

// DocumentController manages HTTP requests for document uploads and analysis
type DocumentController struct {
	service        DocumentService
	logger         *zap.Logger
	maxUploadBytes int64
	concurrency    int
}

// NewDocumentController initializes the controller with the service
func NewDocumentController(service DocumentService, logger *zap.Logger, maxUploadBytes int64, concurrency int) *DocumentController {
	return &DocumentController{
		service:        service,
		logger:         logger,
		maxUploadBytes: maxUploadBytes,
		concurrency:    concurrency,
	}
}

// UploadDocument stores the multipart "file" field. It does not analyze it.
func (dc *DocumentController) UploadDocument(c *gin.Context) {
	if dc.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, dc.maxUploadBytes)
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, model.UploadOutcome{Message: "file is too large"})
			return
		}
		c.JSON(http.StatusBadRequest, model.UploadOutcome{Message: "no file or empty file"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		dc.logger.Error("failed to read upload", zap.String("file_name", header.Filename), zap.Error(err))
		c.JSON(http.StatusBadRequest, model.UploadOutcome{FileName: header.Filename, Message: "failed to read file"})
		return
	}

	outcome, err := dc.service.Upload(c.Request.Context(), model.UploadRequest{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		c.JSON(statusFor(err), outcome)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

// GetAllDocuments lists every stored document
func (dc *DocumentController) GetAllDocuments(c *gin.Context) {
	docs, err := dc.service.ListDocuments(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to retrieve documents",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"documents": docs,
		"total":     len(docs),
	})
}

// AnalyzeDocument analyzes and indexes a previously uploaded document.
func (dc *DocumentController) AnalyzeDocument(c *gin.Context) {
	outcome, err := dc.service.AnalyzeStored(c.Request.Context(), c.Param("fileName"))
	if err != nil {
		status := http.StatusBadRequest
		switch {
		case errors.Is(err, service.ErrDocumentNotFound):
			status = http.StatusNotFound
		case errors.Is(err, service.ErrQuotaExceeded):
			status = http.StatusTooManyRequests
		case errors.Is(err, service.ErrStorageUnavailable):
			status = http.StatusInternalServerError
		}
		c.JSON(status, outcome)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

// AnalyzeAllDocuments analyzes every stored document and reports each outcome.
func (dc *DocumentController) AnalyzeAllDocuments(c *gin.Context) {
	outcomes, err := dc.service.AnalyzeAll(c.Request.Context(), dc.concurrency)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	succeeded := 0
	for _, o := range outcomes {
		if o.Success {
			succeeded++
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"results":   outcomes,
		"total":     len(outcomes),
		"succeeded": succeeded,
		"failed":    len(outcomes) - succeeded,
	})
}

// GetIngestions returns the most recent ingestion ledger rows.
func (dc *DocumentController) GetIngestions(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	records, err := dc.service.IngestionHistory(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ingestions": records, "total": len(records)})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrDocumentNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrQuotaExceeded):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
