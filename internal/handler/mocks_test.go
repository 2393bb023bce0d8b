package handler_test

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"vaultboard/internal/model"
	"vaultboard/internal/reconcile"
)

// Мок репозитория досок
type MockBoardRepository struct {
	mock.Mock
}

func (m *MockBoardRepository) Create(ctx context.Context, board *model.Board) error {
	args := m.Called(ctx, board)
	return args.Error(0)
}

func (m *MockBoardRepository) GetAll(ctx context.Context) ([]model.Board, error) {
	args := m.Called(ctx)
	boards := args.Get(0)
	if boards == nil {
		return nil, args.Error(1)
	}
	return boards.([]model.Board), args.Error(1)
}

func (m *MockBoardRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Board, error) {
	args := m.Called(ctx, id)
	board := args.Get(0)
	if board == nil {
		return nil, args.Error(1)
	}
	return board.(*model.Board), args.Error(1)
}

func (m *MockBoardRepository) GetByFilePath(ctx context.Context, filePath string) (*model.Board, error) {
	args := m.Called(ctx, filePath)
	board := args.Get(0)
	if board == nil {
		return nil, args.Error(1)
	}
	return board.(*model.Board), args.Error(1)
}

func (m *MockBoardRepository) Update(ctx context.Context, board *model.Board) error {
	args := m.Called(ctx, board)
	return args.Error(0)
}

func (m *MockBoardRepository) Delete(ctx context.Context, board *model.Board) error {
	args := m.Called(ctx, board)
	return args.Error(0)
}

// Мок репозитория карточек
type MockCardRepository struct {
	mock.Mock
}

func (m *MockCardRepository) GetByID(ctx context.Context, id string) (*model.Card, error) {
	args := m.Called(ctx, id)
	card := args.Get(0)
	if card == nil {
		return nil, args.Error(1)
	}
	return card.(*model.Card), args.Error(1)
}

func (m *MockCardRepository) ListByBoard(ctx context.Context, boardID uuid.UUID) ([]model.Card, error) {
	args := m.Called(ctx, boardID)
	cards := args.Get(0)
	if cards == nil {
		return nil, args.Error(1)
	}
	return cards.([]model.Card), args.Error(1)
}

func (m *MockCardRepository) Move(ctx context.Context, cardID string, columnName string, newPosition int) (*model.Card, error) {
	args := m.Called(ctx, cardID, columnName, newPosition)
	card := args.Get(0)
	if card == nil {
		return nil, args.Error(1)
	}
	return card.(*model.Card), args.Error(1)
}

// Мок файлового писателя
type MockFileWriter struct {
	mock.Mock
}

func (m *MockFileWriter) EnsureFile(board model.Board) error {
	args := m.Called(board)
	return args.Error(0)
}

func (m *MockFileWriter) AppendTask(board model.Board, title, priority string) (int, error) {
	args := m.Called(board, title, priority)
	return args.Int(0), args.Error(1)
}

func (m *MockFileWriter) UpdateTask(board model.Board, card model.Card, title, priority string) error {
	args := m.Called(board, card, title, priority)
	return args.Error(0)
}

func (m *MockFileWriter) SetDone(board model.Board, card model.Card, done bool) error {
	args := m.Called(board, card, done)
	return args.Error(0)
}

func (m *MockFileWriter) RemoveTask(board model.Board, card model.Card) error {
	args := m.Called(board, card)
	return args.Error(0)
}

// Мок движка синхронизации
type MockSyncer struct {
	mock.Mock
}

func (m *MockSyncer) Reconcile(ctx context.Context, board model.Board) (reconcile.Result, error) {
	args := m.Called(ctx, board)
	return args.Get(0).(reconcile.Result), args.Error(1)
}

type MockSyncStore struct {
	mock.Mock
}

func (m *MockSyncStore) Forget(ctx context.Context, filePath string) error {
	args := m.Called(ctx, filePath)
	return args.Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) BoardUpdated(boardID uuid.UUID) {
	m.Called(boardID)
}

type MockRebinder struct {
	mock.Mock
}

func (m *MockRebinder) Rebind(boards []model.Board) error {
	args := m.Called(boards)
	return args.Error(0)
}
