package handler

import (
	"net/http"
	"path/filepath"
	"strings"

	"vaultboard/internal/model"
	"vaultboard/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type BoardHandler struct {
	boardRepo BoardRepository
	writer    BoardFileWriter
	sync      Syncer
	syncStore SyncStore
	watcher   Rebinder
	notify    Notifier
}

func NewBoardHandler(
	boardRepo BoardRepository,
	writer BoardFileWriter,
	sync Syncer,
	syncStore SyncStore,
	watcher Rebinder,
	notify Notifier,
) *BoardHandler {
	return &BoardHandler{
		boardRepo: boardRepo,
		writer:    writer,
		sync:      sync,
		syncStore: syncStore,
		watcher:   watcher,
		notify:    notify,
	}
}

type CreateBoardRequest struct {
	Name     string   `json:"name" binding:"required"`
	FilePath string   `json:"file_path" binding:"required"`
	Columns  []string `json:"columns"`
}

type UpdateBoardRequest struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
}

type BoardResponse struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	FilePath  string   `json:"file_path"`
	Columns   []string `json:"columns"`
	CreatedAt string   `json:"created_at"`
}

type SyncResponse struct {
	BoardID string `json:"board_id"`
	Added   int    `json:"added"`
	Removed int    `json:"removed"`
	Updated int    `json:"updated"`
}

func boardResponse(board *model.Board) BoardResponse {
	return BoardResponse{
		ID:        board.ID.String(),
		Name:      board.Name,
		FilePath:  board.FilePath,
		Columns:   board.Columns,
		CreatedAt: board.CreatedAt.Format(http.TimeFormat),
	}
}

// normalizeFilePath cleans a vault-relative markdown path and rejects
// anything that would escape the vault.
func normalizeFilePath(raw string) (string, bool) {
	cleaned := filepath.ToSlash(filepath.Clean(filepath.FromSlash(raw)))
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", false
	}
	if filepath.IsAbs(cleaned) {
		return "", false
	}
	if !strings.HasSuffix(cleaned, ".md") {
		return "", false
	}
	return cleaned, true
}

// Create registers a board bound to a vault file, creating the file if it
// does not exist yet and importing its tasks if it does.
func (h *BoardHandler) Create(c *gin.Context) {
	// Parse request body
	var req CreateBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	filePath, ok := normalizeFilePath(req.FilePath)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File path must be a relative .md path inside the vault"})
		return
	}

	// Check the file is not already bound to another board
	existing, err := h.boardRepo.GetByFilePath(c.Request.Context(), filePath)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check file path"})
		return
	}
	if existing != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Board with this file path already exists"})
		return
	}

	columns := req.Columns
	if len(columns) == 0 {
		columns = DefaultColumns
	}

	// Create new board
	board := &model.Board{
		Name:     req.Name,
		FilePath: filePath,
		Columns:  pq.StringArray(columns),
	}

	if err := h.boardRepo.Create(c.Request.Context(), board); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create board"})
		return
	}

	if err := h.writer.EnsureFile(*board); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create board file"})
		return
	}

	if err := h.rebindAll(c); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start watching board file"})
		return
	}

	// Import tasks the file may already contain
	res, err := h.sync.Reconcile(c.Request.Context(), *board)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sync board"})
		return
	}
	if res.Changed() {
		h.notify.BoardUpdated(board.ID)
	}

	c.JSON(http.StatusCreated, boardResponse(board))
}

func (h *BoardHandler) GetAll(c *gin.Context) {
	boards, err := h.boardRepo.GetAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve boards"})
		return
	}

	response := make([]BoardResponse, len(boards))
	for i := range boards {
		response[i] = boardResponse(&boards[i])
	}

	c.JSON(http.StatusOK, response)
}

func (h *BoardHandler) GetByID(c *gin.Context) {
	board, ok := h.loadBoard(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, boardResponse(board))
}

func (h *BoardHandler) Update(c *gin.Context) {
	board, ok := h.loadBoard(c)
	if !ok {
		return
	}

	// Parse request body
	var req UpdateBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	// Update board fields if provided; the file binding itself is immutable
	if req.Name != "" {
		board.Name = req.Name
	}
	if req.Columns != nil {
		board.Columns = pq.StringArray(req.Columns)
	}

	if err := h.boardRepo.Update(c.Request.Context(), board); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update board"})
		return
	}

	c.JSON(http.StatusOK, boardResponse(board))
}

// Delete removes the board, its cards and its sync state. The markdown file
// stays on disk; the vault remains the user's data.
func (h *BoardHandler) Delete(c *gin.Context) {
	board, ok := h.loadBoard(c)
	if !ok {
		return
	}

	if err := h.boardRepo.Delete(c.Request.Context(), board); err != nil {
		if err == repository.ErrBoardNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Board not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete board"})
		}
		return
	}

	if err := h.rebindAll(c); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to stop watching board file"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Board deleted successfully"})
}

// Sync reconciles the board file into the database on demand. With ?force=1
// the recorded file hash is discarded first, so the pass cannot short-circuit
// even if the file looks unchanged.
func (h *BoardHandler) Sync(c *gin.Context) {
	board, ok := h.loadBoard(c)
	if !ok {
		return
	}

	if c.Query("force") == "1" {
		if err := h.syncStore.Forget(c.Request.Context(), board.FilePath); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset sync state"})
			return
		}
	}

	res, err := h.sync.Reconcile(c.Request.Context(), *board)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sync board"})
		return
	}
	if res.Changed() {
		h.notify.BoardUpdated(board.ID)
	}

	c.JSON(http.StatusOK, SyncResponse{
		BoardID: board.ID.String(),
		Added:   res.Added,
		Removed: res.Removed,
		Updated: res.Updated,
	})
}

// loadBoard parses the board ID from the URL and fetches the board,
// answering the request itself when either step fails.
func (h *BoardHandler) loadBoard(c *gin.Context) (*model.Board, bool) {
	boardID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid board ID format"})
		return nil, false
	}

	board, err := h.boardRepo.GetByID(c.Request.Context(), boardID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve board"})
		return nil, false
	}
	if board == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Board not found"})
		return nil, false
	}

	return board, true
}

func (h *BoardHandler) rebindAll(c *gin.Context) error {
	boards, err := h.boardRepo.GetAll(c.Request.Context())
	if err != nil {
		return err
	}
	return h.watcher.Rebind(boards)
}
