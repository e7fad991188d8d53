package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is a registered account.
type User struct {
	ID           uuid.UUID
	Email        string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RefreshToken is a stored refresh token. The raw token is only ever sent to
// the client; the database holds its SHA-256 hex digest.
type RefreshToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}

// Valid reports whether the token can still be exchanged.
func (t *RefreshToken) Valid(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}

// Device is a single app install tied to a user. Each user has at most one
// device row; uploading from a new phone updates the existing row.
type Device struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	DeviceUUID *string
	Name       string
	Platform   string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// DeviceMeta is the optional device metadata attached to an ingest batch.
type DeviceMeta struct {
	UUID     *string
	Name     *string
	Platform *string
}
