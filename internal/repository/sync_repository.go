package repository

import (
	"context"
	"errors"

	"vaultboard/internal/model"
	"vaultboard/internal/reconcile"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Upserts deliberately leave position and created_at alone: manual ordering
// is assigned on first insert and only the move API may change it.
const upsertCardSQL = `
INSERT INTO cards (id, board_id, column_name, position, title, raw_line, line_number, is_done, priority, sub_items, source_fingerprint, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
	column_name = EXCLUDED.column_name,
	title = EXCLUDED.title,
	raw_line = EXCLUDED.raw_line,
	line_number = EXCLUDED.line_number,
	is_done = EXCLUDED.is_done,
	priority = EXCLUDED.priority,
	sub_items = EXCLUDED.sub_items,
	source_fingerprint = EXCLUDED.source_fingerprint,
	updated_at = EXCLUDED.updated_at`

const replaceSyncStateSQL = `
INSERT INTO sync_state (file_path, file_hash, last_synced)
VALUES (?, ?, ?)
ON CONFLICT (file_path) DO UPDATE SET
	file_hash = EXCLUDED.file_hash,
	last_synced = EXCLUDED.last_synced`

// SyncRepository is the persistence facade of the reconciler. It satisfies
// reconcile.Storage.
type SyncRepository struct {
	db *gorm.DB
}

func NewSyncRepository(db *gorm.DB) *SyncRepository {
	return &SyncRepository{db: db}
}

// CardsByBoard loads the full card snapshot the reconciler diffs against.
func (r *SyncRepository) CardsByBoard(ctx context.Context, boardID uuid.UUID) ([]model.Card, error) {
	var cards []model.Card
	if err := r.db.WithContext(ctx).Where("board_id = ?", boardID).Find(&cards).Error; err != nil {
		return nil, err
	}
	return cards, nil
}

// SyncStateFor returns nil, nil when the path has never been synced.
func (r *SyncRepository) SyncStateFor(ctx context.Context, filePath string) (*model.SyncState, error) {
	var state model.SyncState
	if err := r.db.WithContext(ctx).First(&state, "file_path = ?", filePath).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &state, nil
}

// Forget drops the sync checkpoint for a path so the next pass cannot
// short-circuit on the stored hash. Used by forced syncs.
func (r *SyncRepository) Forget(ctx context.Context, filePath string) error {
	return r.db.WithContext(ctx).Exec("DELETE FROM sync_state WHERE file_path = ?", filePath).Error
}

// ApplyBatch commits one reconciliation pass atomically: every card upsert,
// every delete and the sync-state replace land together or not at all.
func (r *SyncRepository) ApplyBatch(ctx context.Context, batch reconcile.Batch) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, card := range batch.Upserts {
			if card.SubItems == nil {
				card.SubItems = pq.StringArray{}
			}
			if err := tx.Exec(upsertCardSQL,
				card.ID, card.BoardID, card.ColumnName, card.Position, card.Title,
				card.RawLine, card.LineNumber, card.IsDone, card.Priority,
				card.SubItems, card.SourceFingerprint, card.CreatedAt, card.UpdatedAt,
			).Error; err != nil {
				return err
			}
		}
		for _, id := range batch.DeleteIDs {
			if err := tx.Exec("DELETE FROM cards WHERE id = ? AND board_id = ?", id, batch.BoardID).Error; err != nil {
				return err
			}
		}
		return tx.Exec(replaceSyncStateSQL,
			batch.State.FilePath, batch.State.FileHash, batch.State.LastSynced,
		).Error
	})
}
