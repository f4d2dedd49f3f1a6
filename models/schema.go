package models

// FieldType is the storage type of an index field.
type FieldType string

const (
	FieldString    FieldType = "string"
	FieldTimestamp FieldType = "timestamp"
)

// FieldSpec declares one index field and its capabilities.
type FieldSpec struct {
	Name       string    `json:"name"`
	Type       FieldType `json:"type"`
	Key        bool      `json:"key,omitempty"`
	Filterable bool      `json:"filterable,omitempty"`
	Sortable   bool      `json:"sortable,omitempty"`
	Searchable bool      `json:"searchable,omitempty"`
	Analyzer   string    `json:"analyzer,omitempty"`
}

// SemanticConfig names the fields used by semantic ranking.
type SemanticConfig struct {
	Name          string   `json:"name"`
	TitleField    string   `json:"titleField"`
	ContentFields []string `json:"contentFields"`
	// InferenceID is the engine-side model endpoint backing the configuration.
	InferenceID string `json:"inferenceId,omitempty"`
}

// IndexSchema is the field set and capability configuration of the index.
type IndexSchema struct {
	Name     string
	Fields   []FieldSpec
	Semantic *SemanticConfig
}

// IndexState is the resolved readiness of the index.
type IndexState string

const (
	// IndexReady means the index exists; semantic ranking may be attempted.
	IndexReady IndexState = "ready"
	// IndexDegraded means the index was created without semantic configuration.
	IndexDegraded IndexState = "degraded"
)

const DefaultSemanticConfiguration = "default"

// CanonicalSchema returns the document index field set.
func CanonicalSchema(name, analyzer string) IndexSchema {
	if analyzer == "" {
		analyzer = "standard"
	}
	return IndexSchema{
		Name: name,
		Fields: []FieldSpec{
			{Name: "id", Type: FieldString, Key: true, Filterable: true},
			{Name: "fileName", Type: FieldString, Sortable: true, Searchable: true, Analyzer: analyzer},
			{Name: "fileUrl", Type: FieldString},
			{Name: "content", Type: FieldString, Filterable: true, Searchable: true, Analyzer: analyzer},
			{Name: "entities", Type: FieldString, Filterable: true, Searchable: true, Analyzer: analyzer},
			{Name: "keyPhrases", Type: FieldString, Filterable: true, Searchable: true, Analyzer: analyzer},
			{Name: "uploadDate", Type: FieldTimestamp, Filterable: true, Sortable: true},
		},
	}
}

// WithSemantic returns a copy of the schema carrying the default semantic
// configuration: title fileName, content [content].
func (s IndexSchema) WithSemantic(inferenceID string) IndexSchema {
	s.Semantic = &SemanticConfig{
		Name:          DefaultSemanticConfiguration,
		TitleField:    "fileName",
		ContentFields: []string{"content"},
		InferenceID:   inferenceID,
	}
	return s
}

// WithoutSemantic returns a copy of the schema with no semantic configuration.
func (s IndexSchema) WithoutSemantic() IndexSchema {
	s.Semantic = nil
	return s
}

// Field looks up a field by name.
func (s IndexSchema) Field(name string) (FieldSpec, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// SearchableFields lists the names of full-text searchable fields.
func (s IndexSchema) SearchableFields() []string {
	var names []string
	for _, f := range s.Fields {
		if f.Searchable {
			names = append(names, f.Name)
		}
	}
	return names
}
