package services

import (
	"context"
	"testing"

	model "github.com/Itish41/DocLens/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type capturedStatement struct {
	SQL  string
	Vars []interface{}
}

// dryRunDB builds statements without a database and records each one.
func dryRunDB(t *testing.T) (*gorm.DB, *[]capturedStatement) {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  "host=localhost user=doclens dbname=doclens sslmode=disable",
		PreferSimpleProtocol: true,
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	require.NoError(t, err)

	var captured []capturedStatement
	capture := func(tx *gorm.DB) {
		captured = append(captured, capturedStatement{SQL: tx.Statement.SQL.String(), Vars: tx.Statement.Vars})
	}
	require.NoError(t, db.Callback().Create().After("gorm:create").Register("test:capture_create", capture))
	require.NoError(t, db.Callback().Query().After("gorm:query").Register("test:capture_query", capture))
	return db, &captured
}

func TestGormLedger_RecordAnalysisUpsertsByFileName(t *testing.T) {
	db, captured := dryRunDB(t)
	ledger := NewGormLedger(db)

	err := ledger.RecordAnalysis(context.Background(), model.AnalysisOutcome{
		FileName: "report.pdf",
		Success:  true,
		Message:  "document analyzed successfully",
		Document: &model.DocumentRecord{Content: "twelve chars"},
	}, "https://blob.test/report.pdf", map[string]interface{}{"pages": 3})
	require.NoError(t, err)

	require.Len(t, *captured, 1)
	stmt := (*captured)[0]
	assert.Contains(t, stmt.SQL, `INSERT INTO "ingestion_records"`)
	assert.Contains(t, stmt.SQL, `ON CONFLICT ("file_name") DO UPDATE SET`)
	assert.Contains(t, stmt.SQL, `"status"="excluded"."status"`)
	assert.Contains(t, stmt.SQL, `"details"="excluded"."details"`)
	assert.Contains(t, stmt.SQL, `"content_length"="excluded"."content_length"`)
	assert.NotContains(t, stmt.SQL, `"created_at"="excluded"."created_at"`)
	assert.Contains(t, stmt.Vars, "report.pdf")
	assert.Contains(t, stmt.Vars, model.IngestionIndexed)
	assert.Contains(t, stmt.Vars, 12)
}

func TestGormLedger_RecordUploadAndFailure(t *testing.T) {
	db, captured := dryRunDB(t)
	ledger := NewGormLedger(db)
	ctx := context.Background()

	require.NoError(t, ledger.RecordUpload(ctx, "a.pdf", "https://blob.test/a.pdf"))
	require.NoError(t, ledger.RecordAnalysis(ctx, model.AnalysisOutcome{FileName: "a.pdf", Message: "analysis failed: boom"}, "https://blob.test/a.pdf", nil))

	require.Len(t, *captured, 2)
	assert.Contains(t, (*captured)[0].Vars, model.IngestionUploaded)
	assert.Contains(t, (*captured)[1].Vars, model.IngestionFailed)
	assert.Contains(t, (*captured)[1].Vars, "analysis failed: boom")
}

func TestGormLedger_FailureKeepsPreviousDetails(t *testing.T) {
	db, captured := dryRunDB(t)
	ledger := NewGormLedger(db)

	err := ledger.RecordAnalysis(context.Background(), model.AnalysisOutcome{
		FileName: "a.pdf",
		Message:  "analysis failed: boom",
	}, "https://blob.test/a.pdf", nil)
	require.NoError(t, err)

	require.Len(t, *captured, 1)
	stmt := (*captured)[0].SQL
	assert.Contains(t, stmt, `ON CONFLICT ("file_name") DO UPDATE SET`)
	assert.Contains(t, stmt, `"status"="excluded"."status"`)
	assert.Contains(t, stmt, `"message"="excluded"."message"`)
	assert.NotContains(t, stmt, `"details"="excluded"."details"`)
	assert.NotContains(t, stmt, `"content_length"="excluded"."content_length"`)
}

func TestGormLedger_Recent(t *testing.T) {
	db, captured := dryRunDB(t)
	ledger := NewGormLedger(db)

	records, err := ledger.Recent(context.Background(), 25)
	require.NoError(t, err)
	assert.Empty(t, records)

	require.Len(t, *captured, 1)
	assert.Contains(t, (*captured)[0].SQL, `FROM "ingestion_records"`)
	assert.Contains(t, (*captured)[0].SQL, "ORDER BY updated_at desc")
	assert.Contains(t, (*captured)[0].SQL, "LIMIT")
}

func TestNopLedger(t *testing.T) {
	var l Ledger = NopLedger{}
	assert.NoError(t, l.RecordUpload(context.Background(), "a.pdf", ""))
	records, err := l.Recent(context.Background(), 10)
	assert.NoError(t, err)
	assert.NotNil(t, records)
}
