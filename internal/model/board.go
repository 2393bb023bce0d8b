package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Board maps one task file in the vault to a set of persisted cards.
// FilePath is relative to the vault root; Columns is the client-facing
// column ordering and has no effect on reconciliation.
type Board struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Name      string         `gorm:"not null"`
	FilePath  string         `gorm:"not null;uniqueIndex"`
	Columns   pq.StringArray `gorm:"type:text[]"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
