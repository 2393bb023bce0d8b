package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Card is the durable projection of one task line. Its ID is derived from
// the normalized title, the owning board and a collision index, so it stays
// stable across reconciliation passes (see internal/reconcile).
type Card struct {
	ID                string         `gorm:"primaryKey"`
	BoardID           uuid.UUID      `gorm:"type:uuid;not null;index"`
	ColumnName        string         `gorm:"not null"`
	Position          int            `gorm:"not null"`
	Title             string         `gorm:"not null"`
	RawLine           string
	LineNumber        int
	IsDone            bool
	Priority          string
	SubItems          pq.StringArray `gorm:"type:text[]"`
	SourceFingerprint string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
