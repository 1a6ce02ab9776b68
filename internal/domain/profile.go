package domain

import "github.com/google/uuid"

// Profile is the display identity owned by the identity provider. The
// ledger only reads it.
type Profile struct {
	UserID uuid.UUID
	Name   string
	Email  string
}
