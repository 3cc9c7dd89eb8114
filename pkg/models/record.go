package models

import (
	"time"

	"github.com/google/uuid"
)

// RawRecord is one raw ("row" kind) lead record. All CSV-sourced fields are
// opaque text; the pipeline validates schema shape, not value content.
// NormalizedWebsite is the dedup key: at most one record per
// (client, normalized website) where the key is non-null.
type RawRecord struct {
	ID                uuid.UUID `json:"id"`
	ClientID          uuid.UUID `json:"client_id"`
	UploadID          uuid.UUID `json:"upload_id"`
	CompanyName       *string   `json:"company_name"`
	Website           *string   `json:"website"`
	NormalizedWebsite *string   `json:"normalized_website"`
	Category          *string   `json:"category"`
	Review            *string   `json:"review"`
	Rating            *string   `json:"rating"`
	Address           *string   `json:"address"`
	Street            *string   `json:"street"`
	City              *string   `json:"city"`
	State             *string   `json:"state"`
	Country           *string   `json:"country"`
	GoogleURL         *string   `json:"google_url"`
	PhoneNumber       *string   `json:"phone_number"`
	CreatedAt         time.Time `json:"created_at"`

	// Joined upload context, populated by listing queries only.
	NicheName    string     `json:"niche_name,omitempty"`
	UploaderName string     `json:"uploader_name,omitempty"`
	UploadDate   *time.Time `json:"upload_date,omitempty"`
}

// EnrichedRecord is one enriched contact record. FME is the dedup key: at
// most one record per (client, FME) where FME is non-null.
type EnrichedRecord struct {
	ID                uuid.UUID `json:"id"`
	ClientID          uuid.UUID `json:"client_id"`
	UploadID          uuid.UUID `json:"upload_id"`
	BusinessName      *string   `json:"business_name"`
	NormalizedWebsite *string   `json:"normalized_website"`
	CompanyLinkedIn   *string   `json:"company_linkedin"`
	FullName          *string   `json:"full_name"`
	FirstName         *string   `json:"first_name"`
	JobTitle          *string   `json:"job_title"`
	PersonLinkedIn    *string   `json:"person_linkedin"`
	FME               *string   `json:"fme"`
	E1                *string   `json:"e1"`
	E2                *string   `json:"e2"`
	E3                *string   `json:"e3"`
	E4                *string   `json:"e4"`
	Sub1              *string   `json:"sub1"`
	Sub2              *string   `json:"sub2"`
	Sub3              *string   `json:"sub3"`
	Sub4              *string   `json:"sub4"`
	CreatedAt         time.Time `json:"created_at"`

	// Joined upload context, populated by listing queries only.
	NicheName    string     `json:"niche_name,omitempty"`
	UploaderName string     `json:"uploader_name,omitempty"`
	UploadDate   *time.Time `json:"upload_date,omitempty"`
}
