package repository

import (
	"context"
	"errors"

	"vaultboard/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CardRepository struct {
	db *gorm.DB
}

func NewCardRepository(db *gorm.DB) *CardRepository {
	return &CardRepository{db: db}
}

// GetByID retrieves a card by its derived identifier
func (r *CardRepository) GetByID(ctx context.Context, id string) (*model.Card, error) {
	var card model.Card
	result := r.db.WithContext(ctx).First(&card, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrCardNotFound
		}
		return nil, result.Error
	}
	return &card, nil
}

// ListByBoard retrieves all cards of a board ordered for display
func (r *CardRepository) ListByBoard(ctx context.Context, boardID uuid.UUID) ([]model.Card, error) {
	var cards []model.Card
	result := r.db.WithContext(ctx).
		Where("board_id = ?", boardID).
		Order("column_name").
		Order("position").
		Order("line_number").
		Find(&cards)
	if result.Error != nil {
		return nil, result.Error
	}
	return cards, nil
}

// Move updates the column and/or position of a card, shifting neighbors so
// positions stay dense in both the old and the new column
func (r *CardRepository) Move(ctx context.Context, cardID string, columnName string, newPosition int) (*model.Card, error) {
	var moved model.Card
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Get the card
		var card model.Card
		if err := tx.First(&card, "id = ?", cardID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCardNotFound
			}
			return err
		}

		oldColumn := card.ColumnName
		oldPosition := card.Position

		if oldColumn != columnName {
			// Close the gap in the old column
			if err := tx.Model(&model.Card{}).
				Where("board_id = ? AND column_name = ? AND position > ?", card.BoardID, oldColumn, oldPosition).
				Update("position", gorm.Expr("position - 1")).Error; err != nil {
				return err
			}

			// Make space in the new column
			if err := tx.Model(&model.Card{}).
				Where("board_id = ? AND column_name = ? AND position >= ?", card.BoardID, columnName, newPosition).
				Update("position", gorm.Expr("position + 1")).Error; err != nil {
				return err
			}

			card.ColumnName = columnName
			card.Position = newPosition
		} else if oldPosition != newPosition {
			if oldPosition < newPosition {
				// Moving down: pull the cards in between up
				if err := tx.Model(&model.Card{}).
					Where("board_id = ? AND column_name = ? AND position > ? AND position <= ?", card.BoardID, columnName, oldPosition, newPosition).
					Update("position", gorm.Expr("position - 1")).Error; err != nil {
					return err
				}
			} else {
				// Moving up: push the cards in between down
				if err := tx.Model(&model.Card{}).
					Where("board_id = ? AND column_name = ? AND position >= ? AND position < ?", card.BoardID, columnName, newPosition, oldPosition).
					Update("position", gorm.Expr("position + 1")).Error; err != nil {
					return err
				}
			}

			card.Position = newPosition
		}

		if err := tx.Save(&card).Error; err != nil {
			return err
		}
		moved = card
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &moved, nil
}
