package services

import (
	"context"

	model "github.com/Itish41/DocLens/models"
)

// Storage is the blob store holding uploaded documents.
type Storage interface {
	Put(ctx context.Context, name string, data []byte, contentType string) (string, error)
	Exists(ctx context.Context, name string) (bool, error)
	// Locate returns the locator of a stored object or ErrDocumentNotFound.
	Locate(ctx context.Context, name string) (string, error)
	ListAll(ctx context.Context) ([]model.DocumentMetadata, error)
}

// AnalysisResult is the text extracted from one document.
type AnalysisResult struct {
	Text  string
	Pages int
	Model string
}

// Analyzer extracts text from a stored document. Implementations block until
// the remote analysis completes or fails.
type Analyzer interface {
	Analyze(ctx context.Context, locator string) (*AnalysisResult, error)
}

// IndexSearchRequest is a query as sent to the search index.
type IndexSearchRequest struct {
	Text                  string
	Ranking               model.RankingMode
	SemanticConfiguration string
	Skip                  int
	Size                  int
}

// IndexHit is a single match returned by the search index.
type IndexHit struct {
	Document model.DocumentRecord
	Score    *float64
	Captions []string
}

// IndexSearchResponse is one page of matches.
type IndexSearchResponse struct {
	TotalCount int64
	Hits       []IndexHit
}

// SearchIndex is the managed search engine holding document records.
type SearchIndex interface {
	// GetSchema returns ErrIndexNotFound when the index is absent.
	GetSchema(ctx context.Context) (*model.IndexSchema, error)
	// CreateIndex returns ErrIndexAlreadyExists or ErrCapabilityUnsupported
	// for the recoverable rejections.
	CreateIndex(ctx context.Context, schema model.IndexSchema) error
	// Upsert inserts or replaces the record with the same ID.
	Upsert(ctx context.Context, doc model.DocumentRecord) error
	// Search returns ErrCapabilityUnsupported when the ranking mode is rejected.
	Search(ctx context.Context, req IndexSearchRequest) (*IndexSearchResponse, error)
}
