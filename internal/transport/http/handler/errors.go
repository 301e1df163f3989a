package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"kanban-auth/internal/app"
	"kanban-auth/internal/transport/http/middleware"
	"kanban-auth/internal/transport/http/response"
)

// writeError maps a service error to its status and {msg} body. Unknown
// errors are logged and answered with fallback.
func writeError(c *gin.Context, logger *slog.Logger, err error, fallback string) {
	switch {
	case errors.Is(err, app.ErrInvalidInput),
		errors.Is(err, app.ErrPasswordMismatch),
		errors.Is(err, app.ErrPasswordTooShort),
		errors.Is(err, app.ErrEmailMismatch):
		response.Error(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrEmailExists):
		response.Error(c, http.StatusConflict, err.Error())
	case errors.Is(err, app.ErrInvalidCredential):
		response.Error(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, app.ErrUserNotFound),
		errors.Is(err, app.ErrBoardNotFound):
		response.Error(c, http.StatusNotFound, err.Error())
	default:
		logger.ErrorContext(c.Request.Context(), fallback,
			"error", err,
			"request_id", middleware.RequestIDFrom(c),
		)
		response.Error(c, http.StatusInternalServerError, fallback)
	}
}

func currentUserID(c *gin.Context) (uint, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "invalid token payload")
	}
	return userID, ok
}
