package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"kanban-auth/internal/app"
	"kanban-auth/internal/model"
	"kanban-auth/internal/transport/http/response"
)

type BoardHandler struct {
	boardService *app.BoardService
	logger       *slog.Logger
}

// CreateBoardRequest and UpdateBoardRequest accept an empty body.
type CreateBoardRequest struct {
	Name    string        `json:"name"`
	Columns model.Columns `json:"columns"`
}

type UpdateBoardRequest struct {
	Name    *string        `json:"name"`
	Columns *model.Columns `json:"columns"`
}

type UpdateColumnsRequest struct {
	Columns *model.Columns `json:"columns"`
}

func NewBoardHandler(boardService *app.BoardService, logger *slog.Logger) *BoardHandler {
	return &BoardHandler{boardService: boardService, logger: logger}
}

func (h *BoardHandler) ListBoards(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	boards, err := h.boardService.ListBoards(c.Request.Context(), userID)
	if err != nil {
		writeError(c, h.logger, err, "list boards failed")
		return
	}
	response.JSON(c, http.StatusOK, boards)
}

func (h *BoardHandler) GetBoard(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	boardID, ok := boardIDParam(c)
	if !ok {
		return
	}

	board, err := h.boardService.GetBoard(c.Request.Context(), userID, boardID)
	if err != nil {
		writeError(c, h.logger, err, "get board failed")
		return
	}
	response.JSON(c, http.StatusOK, board)
}

func (h *BoardHandler) CreateBoard(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req CreateBoardRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	board, err := h.boardService.CreateBoard(c.Request.Context(), app.CreateBoardInput{
		UserID:  userID,
		Name:    req.Name,
		Columns: req.Columns,
	})
	if err != nil {
		writeError(c, h.logger, err, "create board failed")
		return
	}
	response.JSON(c, http.StatusCreated, board)
}

func (h *BoardHandler) UpdateBoard(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	boardID, ok := boardIDParam(c)
	if !ok {
		return
	}

	var req UpdateBoardRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	board, err := h.boardService.UpdateBoard(c.Request.Context(), app.UpdateBoardInput{
		UserID:  userID,
		BoardID: boardID,
		Name:    req.Name,
		Columns: req.Columns,
	})
	if err != nil {
		writeError(c, h.logger, err, "update board failed")
		return
	}
	response.JSON(c, http.StatusOK, board)
}

func (h *BoardHandler) UpdateColumns(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	boardID, ok := boardIDParam(c)
	if !ok {
		return
	}

	var req UpdateColumnsRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Columns == nil {
		response.Error(c, http.StatusBadRequest, "columns are required")
		return
	}

	if err := h.boardService.UpdateColumns(c.Request.Context(), userID, boardID, *req.Columns); err != nil {
		writeError(c, h.logger, err, "update board columns failed")
		return
	}
	response.Message(c, http.StatusOK, "columns updated successfully")
}

func (h *BoardHandler) DeleteBoard(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	boardID, ok := boardIDParam(c)
	if !ok {
		return
	}

	if err := h.boardService.DeleteBoard(c.Request.Context(), userID, boardID); err != nil {
		writeError(c, h.logger, err, "delete board failed")
		return
	}
	response.Message(c, http.StatusOK, "board deleted successfully")
}

// boardIDParam answers 404 for ids that cannot name a row.
func boardIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		response.Error(c, http.StatusNotFound, app.ErrBoardNotFound.Error())
		return 0, false
	}
	return uint(id), true
}

func bindOptionalJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, http.StatusBadRequest, "invalid request payload")
		return false
	}
	return true
}
