package reconcile

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	log "github.com/sirupsen/logrus"

	"vaultboard/internal/model"
	"vaultboard/internal/parser"
)

// Column names with reconciliation semantics. Every other column value is an
// opaque user-assigned label and is never touched by a sync.
const (
	ColumnBacklog = "Backlog"
	ColumnDone    = "Done"
)

// Result reports the card-level effect of one reconciliation pass.
type Result struct {
	BoardID uuid.UUID `json:"board_id"`
	Added   int       `json:"added"`
	Removed int       `json:"removed"`
	Updated int       `json:"updated"`
}

// Changed reports whether the pass touched any card.
func (r Result) Changed() bool {
	return r.Added+r.Removed+r.Updated > 0
}

// ParseFunc turns file content into an ordered task list.
type ParseFunc func(content string) ([]parser.Task, error)

// Batch is one board's complete set of storage mutations for a pass.
// Storage implementations must apply it atomically: every upsert, delete and
// the sync-state replace commit together or not at all.
type Batch struct {
	BoardID   uuid.UUID
	Upserts   []model.Card
	DeleteIDs []string
	State     model.SyncState
}

// Storage is the slice of the persistence layer the reconciler consumes.
type Storage interface {
	CardsByBoard(ctx context.Context, boardID uuid.UUID) ([]model.Card, error)
	// SyncStateFor returns nil, nil when no state is recorded for the path.
	SyncStateFor(ctx context.Context, filePath string) (*model.SyncState, error)
	ApplyBatch(ctx context.Context, batch Batch) error
}

// Reconciler diffs a board's parsed source file against its persisted cards
// and applies the difference in one atomic batch. User-assigned state that
// has no representation in the file (manual column placement outside the
// done-state edges, manual ordering) survives every pass.
type Reconciler struct {
	store     Storage
	parse     ParseFunc
	vaultRoot string
	logger    *log.Logger
}

func NewReconciler(store Storage, vaultRoot string, logger *log.Logger) *Reconciler {
	return &Reconciler{
		store:     store,
		parse:     parser.Parse,
		vaultRoot: vaultRoot,
		logger:    logger,
	}
}

// Reconcile runs one pass for the board and returns the applied diff.
// An unreadable source file is a soft failure: it logs a warning and yields
// a zero diff so other boards and the watch loop keep going. Parse and
// storage failures propagate; nothing is committed in that case.
func (r *Reconciler) Reconcile(ctx context.Context, board model.Board) (Result, error) {
	res := Result{BoardID: board.ID}

	path := BoardFilePath(r.vaultRoot, board)
	content, err := os.ReadFile(path)
	if err != nil {
		r.logger.WithFields(log.Fields{"board": board.Name, "path": path}).
			WithError(err).Warn("board file unreadable, skipping sync")
		return res, nil
	}

	hash := hashBytes(content)
	state, err := r.store.SyncStateFor(ctx, board.FilePath)
	if err != nil {
		return res, fmt.Errorf("load sync state for %s: %w", board.FilePath, err)
	}
	if state != nil && state.FileHash == hash {
		// Unchanged since the last successful pass; skip without parsing.
		return res, nil
	}

	tasks, err := r.parse(string(content))
	if err != nil {
		return res, fmt.Errorf("parse %s: %w", board.FilePath, err)
	}

	existing, err := r.store.CardsByBoard(ctx, board.ID)
	if err != nil {
		return res, fmt.Errorf("load cards for board %s: %w", board.ID, err)
	}
	byID := make(map[string]model.Card, len(existing))
	for _, c := range existing {
		byID[c.ID] = c
	}

	now := time.Now().UTC()
	batch := Batch{
		BoardID: board.ID,
		State:   model.SyncState{FilePath: board.FilePath, FileHash: hash, LastSynced: now},
	}
	seen := make(map[string]struct{}, len(tasks))
	occurrences := make(map[string]int)

	for i, task := range tasks {
		key := NormalizeTitle(task.Title)
		id := CardID(board.ID, key, occurrences[key])
		occurrences[key]++
		seen[id] = struct{}{}

		if current, ok := byID[id]; ok {
			updated := current
			updated.Title = task.Title
			updated.RawLine = task.RawLine
			updated.LineNumber = task.LineNumber
			updated.IsDone = task.Done
			updated.Priority = task.Priority
			updated.SubItems = pq.StringArray(task.SubItems)
			updated.SourceFingerprint = Fingerprint(task.RawLine)
			updated.ColumnName = nextColumn(current, task.Done)
			updated.UpdatedAt = now
			batch.Upserts = append(batch.Upserts, updated)
			res.Updated++
			continue
		}

		column := ColumnBacklog
		if task.Done {
			column = ColumnDone
		}
		batch.Upserts = append(batch.Upserts, model.Card{
			ID:                id,
			BoardID:           board.ID,
			ColumnName:        column,
			Position:          i,
			Title:             task.Title,
			RawLine:           task.RawLine,
			LineNumber:        task.LineNumber,
			IsDone:            task.Done,
			Priority:          task.Priority,
			SubItems:          pq.StringArray(task.SubItems),
			SourceFingerprint: Fingerprint(task.RawLine),
			CreatedAt:         now,
			UpdatedAt:         now,
		})
		res.Added++
	}

	for id := range byID {
		if _, ok := seen[id]; !ok {
			batch.DeleteIDs = append(batch.DeleteIDs, id)
		}
	}
	res.Removed = len(batch.DeleteIDs)

	if err := r.store.ApplyBatch(ctx, batch); err != nil {
		return Result{BoardID: board.ID}, fmt.Errorf("apply sync batch for board %s: %w", board.ID, err)
	}
	return res, nil
}

// nextColumn applies the column-transition policy to an existing card.
// Automatic movement happens only on the two done-state edges; a card a
// human filed into a custom column stays put.
func nextColumn(current model.Card, done bool) string {
	switch {
	case done && !current.IsDone:
		return ColumnDone
	case !done && current.IsDone && current.ColumnName == ColumnDone:
		return ColumnBacklog
	default:
		return current.ColumnName
	}
}

// BoardFilePath resolves a board's source file under the vault root.
func BoardFilePath(vaultRoot string, board model.Board) string {
	return filepath.Join(vaultRoot, filepath.FromSlash(board.FilePath))
}

func hashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
