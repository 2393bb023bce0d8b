package handler

import (
	"context"

	"github.com/google/uuid"

	"vaultboard/internal/model"
	"vaultboard/internal/reconcile"
)

// DefaultColumns is the column layout a board gets when the request does not
// specify one.
var DefaultColumns = []string{"Backlog", "In Progress", "Done"}

// BoardRepository is the board storage surface the handlers depend on.
type BoardRepository interface {
	Create(ctx context.Context, board *model.Board) error
	GetAll(ctx context.Context) ([]model.Board, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Board, error)
	GetByFilePath(ctx context.Context, filePath string) (*model.Board, error)
	Update(ctx context.Context, board *model.Board) error
	Delete(ctx context.Context, board *model.Board) error
}

// CardRepository is the card storage surface the handlers depend on.
type CardRepository interface {
	GetByID(ctx context.Context, id string) (*model.Card, error)
	ListByBoard(ctx context.Context, boardID uuid.UUID) ([]model.Card, error)
	Move(ctx context.Context, cardID string, columnName string, newPosition int) (*model.Card, error)
}

// BoardFileWriter mutates board markdown files on behalf of the API.
type BoardFileWriter interface {
	EnsureFile(board model.Board) error
	AppendTask(board model.Board, title, priority string) (int, error)
	UpdateTask(board model.Board, card model.Card, title, priority string) error
	SetDone(board model.Board, card model.Card, done bool) error
	RemoveTask(board model.Board, card model.Card) error
}

// Syncer runs one reconciliation pass for a board.
type Syncer interface {
	Reconcile(ctx context.Context, board model.Board) (reconcile.Result, error)
}

// SyncStore clears recorded sync state so the next pass cannot short-circuit
// on an unchanged file hash.
type SyncStore interface {
	Forget(ctx context.Context, filePath string) error
}

// Notifier pushes board-changed events to connected clients.
type Notifier interface {
	BoardUpdated(boardID uuid.UUID)
}

// Rebinder swaps the set of watched board files.
type Rebinder interface {
	Rebind(boards []model.Board) error
}
