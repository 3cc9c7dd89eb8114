package models

import (
	"time"

	"github.com/google/uuid"
)

// Niche is a named category assignable to clients. Global, unique by
// case-insensitive name.
type Niche struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Uploader is the named identity attributed to an upload. Global, unique by name.
type Uploader struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
