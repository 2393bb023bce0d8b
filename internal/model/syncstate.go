package model

import "time"

// SyncState records the content hash of the last successfully reconciled
// version of one board file. A matching hash lets the reconciler skip the
// whole pass without parsing.
type SyncState struct {
	FilePath   string `gorm:"primaryKey"`
	FileHash   string `gorm:"not null"`
	LastSynced time.Time
}

func (SyncState) TableName() string {
	return "sync_state"
}
