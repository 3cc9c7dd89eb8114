package models

import (
	"time"

	"github.com/google/uuid"
)

// DataKind discriminates the two ingested data shapes.
type DataKind string

const (
	// KindRow is raw lead/company data ("row" in the upload form).
	KindRow DataKind = "row"
	// KindEnriched is post-processing contact data keyed by FME.
	KindEnriched DataKind = "enriched"
)

// Valid reports whether k is one of the two known kinds.
func (k DataKind) Valid() bool {
	return k == KindRow || k == KindEnriched
}

// Upload statuses.
const (
	UploadStatusSuccess = "success"
	UploadStatusFailed  = "failed"
)

// Upload is one audited ingestion attempt. Exactly one Upload row exists per
// attempt regardless of outcome; failed attempts carry the parsed row count
// and a bounded error message.
type Upload struct {
	ID               uuid.UUID `json:"id"`
	ClientID         uuid.UUID `json:"client_id"`
	NicheID          uuid.UUID `json:"niche_id"`
	UploaderID       uuid.UUID `json:"uploader_id"`
	DataKind         DataKind  `json:"data_kind"`
	UploadDate       time.Time `json:"upload_date"`
	OriginalFilename string    `json:"original_filename"`
	RowCount         int       `json:"row_count"`
	Status           string    `json:"status"`
	ErrorMessage     *string   `json:"error_message,omitempty"`
	CreatedAt        time.Time `json:"created_at"`

	// Joined names, populated by listing queries only.
	NicheName    string `json:"niche_name,omitempty"`
	UploaderName string `json:"uploader_name,omitempty"`
}
