package repository_test

import (
	"context"
	"testing"

	"vaultboard/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func cardRow(id string, boardID uuid.UUID, column string, position int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "board_id", "column_name", "position", "title", "raw_line", "line_number", "is_done", "priority", "sub_items", "source_fingerprint"}).
		AddRow(id, boardID.String(), column, position, "Ship release", "- [ ] Ship release", 1, false, "", "{}", "abcdefabcdef")
}

func TestCardRepository_GetByID_NotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	cardRepo := repository.NewCardRepository(gormDB)

	mock.ExpectQuery(`SELECT .* FROM "cards" WHERE id = .* LIMIT 1`).
		WithArgs("ffffffffffffffff").
		WillReturnError(gorm.ErrRecordNotFound)

	card, err := cardRepo.GetByID(context.Background(), "ffffffffffffffff")

	assert.ErrorIs(t, err, repository.ErrCardNotFound)
	assert.Nil(t, card)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCardRepository_ListByBoard(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	cardRepo := repository.NewCardRepository(gormDB)
	boardID := uuid.New()

	mock.ExpectQuery(`SELECT .* FROM "cards" WHERE board_id = .* ORDER BY column_name`).
		WithArgs(boardID).
		WillReturnRows(cardRow("aaaa111122223333", boardID, "Backlog", 0))

	cards, err := cardRepo.ListByBoard(context.Background(), boardID)

	assert.NoError(t, err)
	assert.Len(t, cards, 1)
	assert.Equal(t, "Ship release", cards[0].Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCardRepository_Move_AcrossColumns(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	cardRepo := repository.NewCardRepository(gormDB)
	boardID := uuid.New()
	cardID := "aaaa111122223333"

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM "cards" WHERE id = .* LIMIT 1`).
		WithArgs(cardID).
		WillReturnRows(cardRow(cardID, boardID, "Backlog", 2))
	// Close the gap in Backlog, make space in InProgress, then save the card.
	mock.ExpectExec(`UPDATE "cards" SET`).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`UPDATE "cards" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "cards" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// Act
	moved, err := cardRepo.Move(context.Background(), cardID, "InProgress", 0)

	// Assert
	assert.NoError(t, err)
	assert.NotNil(t, moved)
	assert.Equal(t, "InProgress", moved.ColumnName)
	assert.Equal(t, 0, moved.Position)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCardRepository_Move_WithinColumn(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	cardRepo := repository.NewCardRepository(gormDB)
	boardID := uuid.New()
	cardID := "aaaa111122223333"

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM "cards" WHERE id = .* LIMIT 1`).
		WithArgs(cardID).
		WillReturnRows(cardRow(cardID, boardID, "Backlog", 0))
	// Moving down within Backlog shifts the cards in between up once.
	mock.ExpectExec(`UPDATE "cards" SET`).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`UPDATE "cards" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	moved, err := cardRepo.Move(context.Background(), cardID, "Backlog", 2)

	assert.NoError(t, err)
	assert.Equal(t, 2, moved.Position)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCardRepository_Move_NotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	cardRepo := repository.NewCardRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM "cards" WHERE id = .* LIMIT 1`).
		WithArgs("missing").
		WillReturnError(gorm.ErrRecordNotFound)
	mock.ExpectRollback()

	moved, err := cardRepo.Move(context.Background(), "missing", "Done", 0)

	assert.ErrorIs(t, err, repository.ErrCardNotFound)
	assert.Nil(t, moved)
	assert.NoError(t, mock.ExpectationsWereMet())
}
