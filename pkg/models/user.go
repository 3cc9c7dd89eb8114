package models

import (
	"time"

	"github.com/google/uuid"
)

// Admin is a back-office operator with full access.
type Admin struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// User is an end user with scoped read access: either all clients
// (AccessAllClients) or exactly one client (ClientID).
type User struct {
	ID               uuid.UUID  `json:"id"`
	Username         string     `json:"username"`
	PasswordHash     string     `json:"-"`
	AccessAllClients bool       `json:"access_all_clients"`
	ClientID         *uuid.UUID `json:"client_id,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`

	// Joined client name, populated by listing queries only.
	ClientName string `json:"client_name,omitempty"`
}

// CanAccessClient reports whether the user may view data for the given client.
func (u *User) CanAccessClient(clientID uuid.UUID) bool {
	if u.AccessAllClients {
		return true
	}
	return u.ClientID != nil && *u.ClientID == clientID
}
