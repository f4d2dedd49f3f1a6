package models

import (
	"time"

	"gorm.io/datatypes"
)

// DocumentRecord is the unit stored in the search index. ID is derived from the
// stored file name, so re-indexing the same file replaces the previous record.
type DocumentRecord struct {
	ID         string    `json:"id"`
	FileName   string    `json:"fileName"`
	FileURL    string    `json:"fileUrl"`
	Content    string    `json:"content"`
	Entities   string    `json:"entities"`
	KeyPhrases string    `json:"keyPhrases"`
	UploadDate time.Time `json:"uploadDate"`
}

// DocumentMetadata describes an object held by the storage gateway.
type DocumentMetadata struct {
	Name         string     `json:"name"`
	URL          string     `json:"url"`
	Size         int64      `json:"size"`
	LastModified *time.Time `json:"lastModified"`
}

// Ingestion statuses tracked by the ledger.
const (
	IngestionUploaded = "uploaded"
	IngestionIndexed  = "indexed"
	IngestionFailed   = "failed"
)

// IngestionRecord is one row of the ingestion ledger, keyed by file name.
type IngestionRecord struct {
	// ID is a database generated UUID; FileName is the natural key.
	ID            string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	FileName      string         `gorm:"uniqueIndex;not null" json:"fileName"`
	FileURL       string         `json:"fileUrl"`
	Status        string         `gorm:"not null" json:"status"`
	Message       string         `json:"message"`
	ContentLength int            `json:"contentLength"`
	Details       datatypes.JSON `json:"details,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}
