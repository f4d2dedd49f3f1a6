package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	model "github.com/Itish41/DocLens/models"

	"go.uber.org/zap"
)

// SchemaManager makes sure the search index exists before documents are
// written or queried. Creation is not serialized: concurrent callers may both
// try to create the index and the loser treats "already exists" as success.
type SchemaManager struct {
	index   SearchIndex
	schema  model.IndexSchema
	logger  *zap.Logger
	metrics *Metrics

	state atomic.Value // model.IndexState once resolved
}

// NewSchemaManager returns a manager for schema. If schema carries a semantic
// configuration, creation is attempted with it first.
func NewSchemaManager(index SearchIndex, schema model.IndexSchema, logger *zap.Logger, metrics *Metrics) *SchemaManager {
	return &SchemaManager{index: index, schema: schema, logger: logger, metrics: metrics}
}

// State returns the resolved state, or "" before the first successful check.
func (m *SchemaManager) State() model.IndexState {
	if st, ok := m.state.Load().(model.IndexState); ok {
		return st
	}
	return ""
}

// EnsureIndexReady returns IndexReady when the index exists or was created
// with its semantic configuration, and IndexDegraded when the engine rejected
// the semantic configuration and the index was created without it.
func (m *SchemaManager) EnsureIndexReady(ctx context.Context) (model.IndexState, error) {
	if st := m.State(); st != "" {
		return st, nil
	}

	_, err := m.index.GetSchema(ctx)
	switch {
	case err == nil:
		return m.resolve(model.IndexReady), nil
	case !errors.Is(err, ErrIndexNotFound):
		return "", fmt.Errorf("failed to fetch index schema: %w", err)
	}

	m.logger.Info("search index missing, creating it", zap.String("index", m.schema.Name))

	if m.schema.Semantic != nil {
		err = m.index.CreateIndex(ctx, m.schema)
		switch {
		case err == nil, errors.Is(err, ErrIndexAlreadyExists):
			return m.resolve(model.IndexReady), nil
		case !errors.Is(err, ErrCapabilityUnsupported):
			return "", fmt.Errorf("failed to create search index: %w", err)
		}
		m.logger.Warn("semantic configuration rejected, creating index without it",
			zap.String("index", m.schema.Name),
			zap.Error(err),
		)
	}

	err = m.index.CreateIndex(ctx, m.schema.WithoutSemantic())
	if err != nil && !errors.Is(err, ErrIndexAlreadyExists) {
		return "", fmt.Errorf("failed to create search index: %w", err)
	}
	if m.schema.Semantic == nil {
		return m.resolve(model.IndexReady), nil
	}
	return m.resolve(model.IndexDegraded), nil
}

func (m *SchemaManager) resolve(st model.IndexState) model.IndexState {
	m.state.Store(st)
	m.metrics.setIndexState(st)
	return st
}
