// Package models contains shared data models used across the riskdocs codebase.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Tenant is a customer organization with its own isolated database and
// storage root. DatabaseURL is the opaque connection reference handed to
// the tenant registry; it never leaves the server.
type Tenant struct {
	ID          uuid.UUID `db:"id"           json:"id"`
	Name        string    `db:"name"         json:"name"`
	DatabaseURL string    `db:"database_url" json:"-"`
	StorageRoot string    `db:"storage_root" json:"storage_root"`
	CreatedAt   time.Time `db:"created_at"   json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"   json:"updated_at"`
}
