package services

import (
	"context"
	"errors"
	"fmt"

	model "github.com/Itish41/DocLens/models"

	"go.uber.org/zap"
)

// SearchService executes paginated queries against the document index.
type SearchService struct {
	index       SearchIndex
	schema      *SchemaManager
	logger      *zap.Logger
	metrics     *Metrics
	maxPageSize int
	maxWindow   int
}

// DefaultMaxResultWindow matches the engine's default index.max_result_window.
const DefaultMaxResultWindow = 10000

// NewSearchService creates the query engine. maxPageSize <= 0 means no cap.
// Pages ending past maxResultWindow are rejected; <= 0 uses DefaultMaxResultWindow.
func NewSearchService(index SearchIndex, schema *SchemaManager, logger *zap.Logger, metrics *Metrics, maxPageSize, maxResultWindow int) *SearchService {
	if maxResultWindow <= 0 {
		maxResultWindow = DefaultMaxResultWindow
	}
	return &SearchService{
		index:       index,
		schema:      schema,
		logger:      logger,
		metrics:     metrics,
		maxPageSize: maxPageSize,
		maxWindow:   maxResultWindow,
	}
}

// Search runs q with semantic ranking, retrying once with lexical ranking if
// the engine rejects semantic ranking. Captions are only kept for semantic results.
func (s *SearchService) Search(ctx context.Context, q model.SearchQuery) (*model.SearchOutcome, error) {
	q = q.Normalized()
	if q.Query == "" {
		return nil, fmt.Errorf("%w: search query must not be empty", ErrValidation)
	}
	if q.PageNumber < 0 {
		return nil, fmt.Errorf("%w: page number must not be negative", ErrValidation)
	}
	if s.maxPageSize > 0 && q.PageSize > s.maxPageSize {
		return nil, fmt.Errorf("%w: page size must not exceed %d", ErrValidation, s.maxPageSize)
	}
	// skip+size must stay inside the result window; divide first so skip cannot overflow.
	if q.PageSize > s.maxWindow || q.PageNumber > (s.maxWindow-q.PageSize)/q.PageSize {
		return nil, fmt.Errorf("%w: results past the first %d matches cannot be paged to", ErrValidation, s.maxWindow)
	}

	if _, err := s.schema.EnsureIndexReady(ctx); err != nil {
		return nil, err
	}

	req := IndexSearchRequest{
		Text:                  q.Query,
		Ranking:               model.RankingSemantic,
		SemanticConfiguration: model.DefaultSemanticConfiguration,
		Skip:                  q.Skip(),
		Size:                  q.PageSize,
	}

	fellBack := false
	res, err := s.index.Search(ctx, req)
	if errors.Is(err, ErrCapabilityUnsupported) {
		s.logger.Warn("semantic ranking rejected, retrying with lexical ranking",
			zap.String("query", q.Query),
			zap.Error(err),
		)
		fellBack = true
		req.Ranking = model.RankingLexical
		req.SemanticConfiguration = ""
		res, err = s.index.Search(ctx, req)
	}
	if err != nil {
		s.logger.Error("search failed",
			zap.String("query", q.Query),
			zap.String("ranking", string(req.Ranking)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("search failed: %w", err)
	}
	s.metrics.observeSearch(req.Ranking, fellBack)

	outcome := &model.SearchOutcome{
		TotalCount: res.TotalCount,
		Results:    make([]model.SearchResult, 0, len(res.Hits)),
		Ranking:    req.Ranking,
	}
	for _, hit := range res.Hits {
		r := model.SearchResult{Document: hit.Document}
		if hit.Score != nil {
			r.Score = *hit.Score
		}
		if req.Ranking == model.RankingSemantic && len(hit.Captions) > 0 {
			caption := hit.Captions[0]
			r.Caption = &caption
		}
		outcome.Results = append(outcome.Results, r)
	}

	s.logger.Info("search completed",
		zap.String("query", q.Query),
		zap.String("ranking", string(req.Ranking)),
		zap.Int64("total", outcome.TotalCount),
		zap.Int("returned", len(outcome.Results)),
	)
	return outcome, nil
}
