package handler

import (
	"errors"
	"net/http"

	"vaultboard/internal/model"
	"vaultboard/internal/parser"
	"vaultboard/internal/reconcile"
	"vaultboard/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CardHandler struct {
	cardRepo  CardRepository
	boardRepo BoardRepository
	writer    BoardFileWriter
	sync      Syncer
	notify    Notifier
}

func NewCardHandler(
	cardRepo CardRepository,
	boardRepo BoardRepository,
	writer BoardFileWriter,
	sync Syncer,
	notify Notifier,
) *CardHandler {
	return &CardHandler{
		cardRepo:  cardRepo,
		boardRepo: boardRepo,
		writer:    writer,
		sync:      sync,
		notify:    notify,
	}
}

// CardRequest представляет запрос на создание или обновление карточки
type CardRequest struct {
	Title    string `json:"title" binding:"required"`
	Priority string `json:"priority"`
}

// CardMoveRequest представляет запрос на перемещение карточки
type CardMoveRequest struct {
	ColumnName string `json:"column_name" binding:"required"`
	Position   int    `json:"position" binding:"min=0"`
}

// CardResponse представляет ответ с данными карточки
type CardResponse struct {
	ID         string   `json:"id"`
	BoardID    string   `json:"board_id"`
	ColumnName string   `json:"column_name"`
	Position   int      `json:"position"`
	Title      string   `json:"title"`
	IsDone     bool     `json:"is_done"`
	Priority   string   `json:"priority,omitempty"`
	SubItems   []string `json:"sub_items,omitempty"`
	LineNumber int      `json:"line_number"`
}

func cardResponse(card *model.Card) CardResponse {
	return CardResponse{
		ID:         card.ID,
		BoardID:    card.BoardID.String(),
		ColumnName: card.ColumnName,
		Position:   card.Position,
		Title:      card.Title,
		IsDone:     card.IsDone,
		Priority:   card.Priority,
		SubItems:   card.SubItems,
		LineNumber: card.LineNumber,
	}
}

func validPriority(priority string) bool {
	switch priority {
	case "", parser.PriorityLow, parser.PriorityMedium, parser.PriorityHigh:
		return true
	}
	return false
}

// Create добавляет задачу в конец файла доски и возвращает карточку,
// созданную следующим проходом синхронизации
func (h *CardHandler) Create(c *gin.Context) {
	// Находим доску
	boardID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid board ID format"})
		return
	}

	board, err := h.boardRepo.GetByID(c.Request.Context(), boardID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve board"})
		return
	}
	if board == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Board not found"})
		return
	}

	// Парсим запрос
	var req CardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if !validPriority(req.Priority) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid priority value"})
		return
	}

	// Дописываем строку задачи в файл
	lineNumber, err := h.writer.AppendTask(*board, req.Title, req.Priority)
	if err != nil {
		if errors.Is(err, reconcile.ErrInvalidTitle) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid title"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write board file"})
		}
		return
	}

	// Синхронизируем файл с базой
	card, ok := h.syncAndLocate(c, *board, lineNumber)
	if !ok {
		return
	}

	c.JSON(http.StatusCreated, cardResponse(card))
}

// GetByBoardID возвращает все карточки доски в порядке колонок и позиций
func (h *CardHandler) GetByBoardID(c *gin.Context) {
	boardID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid board ID format"})
		return
	}

	board, err := h.boardRepo.GetByID(c.Request.Context(), boardID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve board"})
		return
	}
	if board == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Board not found"})
		return
	}

	cards, err := h.cardRepo.ListByBoard(c.Request.Context(), boardID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve cards"})
		return
	}

	response := make([]CardResponse, len(cards))
	for i := range cards {
		response[i] = cardResponse(&cards[i])
	}

	c.JSON(http.StatusOK, response)
}

// Update переписывает строку задачи в файле доски
func (h *CardHandler) Update(c *gin.Context) {
	card, board, ok := h.loadCard(c)
	if !ok {
		return
	}

	// Парсим запрос
	var req CardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if !validPriority(req.Priority) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid priority value"})
		return
	}

	// Переписываем строку в файле
	if err := h.writer.UpdateTask(*board, *card, req.Title, req.Priority); err != nil {
		h.writeError(c, err)
		return
	}

	// Синхронизируем файл с базой; смена заголовка меняет идентичность
	// карточки, поэтому ищем её по номеру строки
	updated, ok := h.syncAndLocate(c, *board, card.LineNumber)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, cardResponse(updated))
}

// Move перемещает карточку между колонками или меняет её позицию
func (h *CardHandler) Move(c *gin.Context) {
	card, board, ok := h.loadCard(c)
	if !ok {
		return
	}

	// Парсим запрос
	var req CardMoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	// Проверяем, что колонка существует на доске
	known := false
	for _, col := range board.Columns {
		if col == req.ColumnName {
			known = true
			break
		}
	}
	if !known {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown column"})
		return
	}

	moved, err := h.cardRepo.Move(c.Request.Context(), card.ID, req.ColumnName, req.Position)
	if err != nil {
		if err == repository.ErrCardNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Card not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to move card"})
		}
		return
	}

	// Пересечение границы колонки Done отражаем в файле через чекбокс
	if req.ColumnName == reconcile.ColumnDone && !card.IsDone {
		err = h.writer.SetDone(*board, *card, true)
	} else if card.ColumnName == reconcile.ColumnDone && req.ColumnName != reconcile.ColumnDone && card.IsDone {
		err = h.writer.SetDone(*board, *card, false)
	}
	if err != nil {
		h.writeError(c, err)
		return
	}

	// Синхронизируем файл с базой
	res, err := h.sync.Reconcile(c.Request.Context(), *board)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sync board"})
		return
	}
	if res.Changed() {
		h.notify.BoardUpdated(board.ID)
	}

	// Перечитываем карточку после синхронизации
	fresh, err := h.cardRepo.GetByID(c.Request.Context(), moved.ID)
	if err != nil || fresh == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve card"})
		return
	}

	c.JSON(http.StatusOK, cardResponse(fresh))
}

// Delete удаляет строку задачи из файла доски вместе с её подпунктами
func (h *CardHandler) Delete(c *gin.Context) {
	card, board, ok := h.loadCard(c)
	if !ok {
		return
	}

	if err := h.writer.RemoveTask(*board, *card); err != nil {
		h.writeError(c, err)
		return
	}

	// Синхронизируем файл с базой
	res, err := h.sync.Reconcile(c.Request.Context(), *board)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sync board"})
		return
	}
	if res.Changed() {
		h.notify.BoardUpdated(board.ID)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Card deleted successfully"})
}

// loadCard достаёт карточку и её доску по ID из URL
func (h *CardHandler) loadCard(c *gin.Context) (*model.Card, *model.Board, bool) {
	card, err := h.cardRepo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if err == repository.ErrCardNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Card not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve card"})
		}
		return nil, nil, false
	}

	board, err := h.boardRepo.GetByID(c.Request.Context(), card.BoardID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve board"})
		return nil, nil, false
	}
	if board == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Board not found"})
		return nil, nil, false
	}

	return card, board, true
}

// syncAndLocate запускает синхронизацию и находит карточку по номеру строки
func (h *CardHandler) syncAndLocate(c *gin.Context, board model.Board, lineNumber int) (*model.Card, bool) {
	res, err := h.sync.Reconcile(c.Request.Context(), board)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sync board"})
		return nil, false
	}
	if res.Changed() {
		h.notify.BoardUpdated(board.ID)
	}

	cards, err := h.cardRepo.ListByBoard(c.Request.Context(), board.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve cards"})
		return nil, false
	}
	for i := range cards {
		if cards[i].LineNumber == lineNumber {
			return &cards[i], true
		}
	}

	c.JSON(http.StatusInternalServerError, gin.H{"error": "Card not found after sync"})
	return nil, false
}

func (h *CardHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, reconcile.ErrInvalidTitle):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid title"})
	case errors.Is(err, reconcile.ErrStaleCard):
		c.JSON(http.StatusConflict, gin.H{"error": "Card is out of sync with the board file"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write board file"})
	}
}
