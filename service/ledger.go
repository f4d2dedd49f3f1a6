package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	model "github.com/Itish41/DocLens/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Ledger keeps an audit row per file name describing how far ingestion got.
// It is never consulted by the pipeline; failures to record are only logged.
type Ledger interface {
	RecordUpload(ctx context.Context, fileName, fileURL string) error
	RecordAnalysis(ctx context.Context, outcome model.AnalysisOutcome, fileURL string, details map[string]interface{}) error
	Recent(ctx context.Context, limit int) ([]model.IngestionRecord, error)
}

// GormLedger stores ingestion rows in Postgres.
type GormLedger struct {
	db *gorm.DB
}

func NewGormLedger(db *gorm.DB) *GormLedger {
	return &GormLedger{db: db}
}

func (l *GormLedger) RecordUpload(ctx context.Context, fileName, fileURL string) error {
	return l.save(ctx, &model.IngestionRecord{
		FileName: fileName,
		FileURL:  fileURL,
		Status:   model.IngestionUploaded,
		Message:  "uploaded",
	})
}

func (l *GormLedger) RecordAnalysis(ctx context.Context, outcome model.AnalysisOutcome, fileURL string, details map[string]interface{}) error {
	rec := &model.IngestionRecord{
		FileName: outcome.FileName,
		FileURL:  fileURL,
		Status:   model.IngestionFailed,
		Message:  outcome.Message,
	}
	if outcome.Success {
		rec.Status = model.IngestionIndexed
	}
	if outcome.Document != nil {
		rec.ContentLength = len(outcome.Document.Content)
	}
	if len(details) > 0 {
		raw, err := json.Marshal(details)
		if err != nil {
			return fmt.Errorf("failed to marshal ingestion details: %w", err)
		}
		rec.Details = datatypes.JSON(raw)
	}
	return l.save(ctx, rec)
}

func (l *GormLedger) save(ctx context.Context, rec *model.IngestionRecord) error {
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	// Rows without details (uploads, failed analyses) keep what the last
	// successful analysis recorded.
	columns := []string{"file_url", "status", "message", "updated_at"}
	if rec.Details != nil {
		columns = append(columns, "content_length", "details")
	}
	err := l.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "file_name"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(rec).Error
	if err != nil {
		return fmt.Errorf("failed to save ingestion record: %w", err)
	}
	return nil
}

// Recent returns the most recently updated rows first.
func (l *GormLedger) Recent(ctx context.Context, limit int) ([]model.IngestionRecord, error) {
	var records []model.IngestionRecord
	result := l.db.WithContext(ctx).Order("updated_at desc").Limit(limit).Find(&records)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to fetch ingestion records: %w", result.Error)
	}
	return records, nil
}

// NopLedger is used when no database is configured.
type NopLedger struct{}

func (NopLedger) RecordUpload(context.Context, string, string) error { return nil }

func (NopLedger) RecordAnalysis(context.Context, model.AnalysisOutcome, string, map[string]interface{}) error {
	return nil
}

func (NopLedger) Recent(context.Context, int) ([]model.IngestionRecord, error) {
	return []model.IngestionRecord{}, nil
}
