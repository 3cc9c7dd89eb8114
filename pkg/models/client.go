// Package models contains domain types for leadvault-engine.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Client is a tenant whose outbound data is segregated from other tenants.
// Deleting a client cascades to its uploads, records, and niche assignments.
type Client struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
