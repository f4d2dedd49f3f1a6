package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	model "github.com/Itish41/DocLens/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"
)

const (
	semanticUnknown int32 = iota
	semanticEnabled
	semanticDisabled
)

// ElasticIndex stores document records in an Elasticsearch index.
type ElasticIndex struct {
	es     *elasticsearch.Client
	schema model.IndexSchema
	logger *zap.Logger

	// semantic tracks whether the live index carries a semantic configuration,
	// as learned from GetSchema and CreateIndex.
	semantic atomic.Int32
}

// NewElasticIndex binds the client to the index described by schema. The
// schema's semantic configuration is used to build semantic queries.
func NewElasticIndex(es *elasticsearch.Client, schema model.IndexSchema, logger *zap.Logger) *ElasticIndex {
	return &ElasticIndex{es: es, schema: schema, logger: logger}
}

// Name returns the index name.
func (x *ElasticIndex) Name() string {
	return x.schema.Name
}

type indexMeta struct {
	Fields   []model.FieldSpec     `json:"fields"`
	Semantic *model.SemanticConfig `json:"semantic,omitempty"`
}

// GetSchema fetches the index mapping and rebuilds the schema recorded in its _meta.
func (x *ElasticIndex) GetSchema(ctx context.Context) (*model.IndexSchema, error) {
	res, err := x.es.Indices.Get(
		[]string{x.schema.Name},
		x.es.Indices.Get.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("get index request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == 404 {
		return nil, ErrIndexNotFound
	}
	if res.IsError() {
		return nil, decodeElasticError(res)
	}

	var body map[string]struct {
		Mappings struct {
			Meta *indexMeta `json:"_meta"`
		} `json:"mappings"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode index definition: %w", err)
	}

	schema := &model.IndexSchema{Name: x.schema.Name}
	for _, def := range body {
		if def.Mappings.Meta != nil {
			schema.Fields = def.Mappings.Meta.Fields
			schema.Semantic = def.Mappings.Meta.Semantic
		}
	}
	x.rememberSemantic(schema.Semantic != nil)
	return schema, nil
}

// CreateIndex creates the index with the mapping derived from schema.
func (x *ElasticIndex) CreateIndex(ctx context.Context, schema model.IndexSchema) error {
	body, err := json.Marshal(buildIndexDefinition(schema))
	if err != nil {
		return fmt.Errorf("failed to marshal index definition: %w", err)
	}

	res, err := x.es.Indices.Create(
		schema.Name,
		x.es.Indices.Create.WithBody(bytes.NewReader(body)),
		x.es.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("create index request failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return decodeElasticError(res)
	}
	x.rememberSemantic(schema.Semantic != nil)
	x.logger.Info("search index created",
		zap.String("index", schema.Name),
		zap.Bool("semantic", schema.Semantic != nil),
	)
	return nil
}

// Upsert writes the record under its ID, replacing any previous version.
func (x *ElasticIndex) Upsert(ctx context.Context, doc model.DocumentRecord) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document for indexing: %w", err)
	}

	res, err := x.es.Index(
		x.schema.Name,
		bytes.NewReader(body),
		x.es.Index.WithDocumentID(doc.ID),
		x.es.Index.WithRefresh("wait_for"),
		x.es.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("index request failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return decodeElasticError(res)
	}
	return nil
}

// Search runs one page of a semantic or lexical query.
func (x *ElasticIndex) Search(ctx context.Context, req IndexSearchRequest) (*IndexSearchResponse, error) {
	var query map[string]interface{}
	switch req.Ranking {
	case model.RankingSemantic:
		q, err := x.semanticQuery(req)
		if err != nil {
			return nil, err
		}
		query = q
	default:
		query = x.lexicalQuery(req)
	}

	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search query: %w", err)
	}

	res, err := x.es.Search(
		x.es.Search.WithContext(ctx),
		x.es.Search.WithIndex(x.schema.Name),
		x.es.Search.WithBody(bytes.NewReader(body)),
		x.es.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, decodeElasticError(res)
	}

	var result struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Score     *float64             `json:"_score"`
				Source    model.DocumentRecord `json:"_source"`
				Highlight map[string][]string  `json:"highlight"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	out := &IndexSearchResponse{
		TotalCount: result.Hits.Total.Value,
		Hits:       make([]IndexHit, 0, len(result.Hits.Hits)),
	}
	semanticField := ""
	if x.schema.Semantic != nil {
		semanticField = semanticFieldName(*x.schema.Semantic)
	}
	for _, hit := range result.Hits.Hits {
		h := IndexHit{Document: hit.Source, Score: hit.Score}
		if req.Ranking == model.RankingSemantic && semanticField != "" {
			h.Captions = hit.Highlight[semanticField]
		}
		out.Hits = append(out.Hits, h)
	}
	return out, nil
}

func (x *ElasticIndex) semanticQuery(req IndexSearchRequest) (map[string]interface{}, error) {
	cfg := x.schema.Semantic
	if cfg == nil || (req.SemanticConfiguration != "" && req.SemanticConfiguration != cfg.Name) {
		return nil, fmt.Errorf("semantic configuration %q is not registered: %w", req.SemanticConfiguration, ErrCapabilityUnsupported)
	}
	if x.semantic.Load() == semanticDisabled {
		return nil, fmt.Errorf("index %s has no semantic configuration: %w", x.schema.Name, ErrCapabilityUnsupported)
	}

	field := semanticFieldName(*cfg)
	should := []interface{}{
		map[string]interface{}{
			"semantic": map[string]interface{}{"field": field, "query": req.Text},
		},
	}
	if cfg.TitleField != "" {
		should = append(should, map[string]interface{}{
			"match": map[string]interface{}{
				cfg.TitleField: map[string]interface{}{"query": req.Text, "boost": 2},
			},
		})
	}

	return map[string]interface{}{
		"from":    req.Skip,
		"size":    req.Size,
		"_source": map[string]interface{}{"excludes": []string{field}},
		"query": map[string]interface{}{
			"bool": map[string]interface{}{"should": should},
		},
		"highlight": map[string]interface{}{
			"fields": map[string]interface{}{
				field: map[string]interface{}{
					"type":                "semantic",
					"number_of_fragments": 1,
					"order":               "score",
				},
			},
		},
	}, nil
}

func (x *ElasticIndex) lexicalQuery(req IndexSearchRequest) map[string]interface{} {
	var fields []string
	for _, name := range x.schema.SearchableFields() {
		if x.schema.Semantic != nil && name == x.schema.Semantic.TitleField {
			name += "^2"
		}
		fields = append(fields, name)
	}
	query := map[string]interface{}{
		"from": req.Skip,
		"size": req.Size,
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  req.Text,
				"fields": fields,
			},
		},
	}
	if x.schema.Semantic != nil {
		query["_source"] = map[string]interface{}{"excludes": []string{semanticFieldName(*x.schema.Semantic)}}
	}
	return query
}

func (x *ElasticIndex) rememberSemantic(enabled bool) {
	if enabled {
		x.semantic.Store(semanticEnabled)
	} else {
		x.semantic.Store(semanticDisabled)
	}
}

func semanticFieldName(cfg model.SemanticConfig) string {
	return "semantic_" + cfg.Name
}

// buildIndexDefinition translates a schema into an index creation body.
func buildIndexDefinition(schema model.IndexSchema) map[string]interface{} {
	copyTo := map[string]string{}
	if schema.Semantic != nil {
		for _, f := range schema.Semantic.ContentFields {
			copyTo[f] = semanticFieldName(*schema.Semantic)
		}
	}

	properties := make(map[string]interface{}, len(schema.Fields)+1)
	for _, f := range schema.Fields {
		properties[f.Name] = fieldMapping(f, copyTo[f.Name])
	}

	meta := indexMeta{Fields: schema.Fields}
	if schema.Semantic != nil {
		semantic := map[string]interface{}{"type": "semantic_text"}
		if schema.Semantic.InferenceID != "" {
			semantic["inference_id"] = schema.Semantic.InferenceID
		}
		properties[semanticFieldName(*schema.Semantic)] = semantic
		meta.Semantic = schema.Semantic
	}

	return map[string]interface{}{
		"mappings": map[string]interface{}{
			"_meta":      meta,
			"properties": properties,
		},
	}
}

func fieldMapping(f model.FieldSpec, copyTo string) map[string]interface{} {
	var m map[string]interface{}
	switch {
	case f.Type == model.FieldTimestamp:
		m = map[string]interface{}{
			"type":       "date",
			"index":      f.Filterable,
			"doc_values": f.Filterable || f.Sortable,
		}
	case f.Searchable:
		m = map[string]interface{}{"type": "text"}
		if f.Analyzer != "" {
			m["analyzer"] = f.Analyzer
		}
		if f.Filterable || f.Sortable {
			m["fields"] = map[string]interface{}{
				"raw": map[string]interface{}{"type": "keyword", "ignore_above": 256},
			}
		}
	default:
		m = map[string]interface{}{
			"type":       "keyword",
			"index":      f.Key || f.Filterable,
			"doc_values": f.Filterable || f.Sortable,
		}
	}
	if copyTo != "" {
		m["copy_to"] = copyTo
	}
	return m
}

// elasticError is the error body returned by Elasticsearch.
type elasticError struct {
	Status   int
	Type     string         `json:"type"`
	Reason   string         `json:"reason"`
	Causes   []elasticCause `json:"root_cause"`
	CausedBy *elasticCause  `json:"caused_by"`
}

type elasticCause struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

func (e *elasticError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("elasticsearch returned status %d", e.Status)
	}
	return fmt.Sprintf("elasticsearch returned status %d: %s: %s", e.Status, e.Type, e.Reason)
}

func (e *elasticError) mentions(markers ...string) bool {
	texts := []string{e.Type + " " + e.Reason}
	for _, c := range e.Causes {
		texts = append(texts, c.Type+" "+c.Reason)
	}
	if e.CausedBy != nil {
		texts = append(texts, e.CausedBy.Type+" "+e.CausedBy.Reason)
	}
	for _, t := range texts {
		t = strings.ToLower(t)
		for _, m := range markers {
			if strings.Contains(t, m) {
				return true
			}
		}
	}
	return false
}

// decodeElasticError reads an error response and maps the recoverable kinds
// onto sentinel errors.
func decodeElasticError(res *esapi.Response) error {
	e := &elasticError{Status: res.StatusCode}
	raw, _ := io.ReadAll(res.Body)
	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if json.Unmarshal(raw, &envelope) == nil && len(envelope.Error) > 0 {
		if json.Unmarshal(envelope.Error, e) != nil {
			// Some endpoints report the error as a plain string.
			var reason string
			_ = json.Unmarshal(envelope.Error, &reason)
			e.Reason = reason
		}
	}

	switch {
	case e.Type == "resource_already_exists_exception":
		return fmt.Errorf("%w: %v", ErrIndexAlreadyExists, e)
	case e.Type == "index_not_found_exception":
		return fmt.Errorf("%w: %v", ErrIndexNotFound, e)
	case (e.Status == 400 || e.Status == 403 || e.Status == 404) &&
		e.mentions("semantic", "inference", "license", "unknown query", "no handler for type"):
		return fmt.Errorf("%w: %v", ErrCapabilityUnsupported, e)
	}
	return e
}
