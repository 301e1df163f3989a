package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"kanban-auth/internal/app"
	"kanban-auth/internal/transport/http/response"
)

type AuthHandler struct {
	authService *app.AuthService
	logger      *slog.Logger
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type ChangePasswordRequest struct {
	NewPassword     string `json:"new_password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

type DeleteAccountRequest struct {
	Email string `json:"email" binding:"required"`
}

func NewAuthHandler(authService *app.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, logger: logger}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "email and password are required")
		return
	}

	if _, err := h.authService.Register(c.Request.Context(), app.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
	}); err != nil {
		writeError(c, h.logger, err, "register failed")
		return
	}

	response.Message(c, http.StatusCreated, "user registered successfully")
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "email and password are required")
		return
	}

	result, err := h.authService.Login(c.Request.Context(), app.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(c, h.logger, err, "login failed")
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"access_token": result.Token})
}

func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	user, err := h.authService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		writeError(c, h.logger, err, "fetch current user failed")
		return
	}

	response.JSON(c, http.StatusOK, gin.H{
		"id":    user.ID,
		"email": user.Email,
	})
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "new_password and confirm_password are required")
		return
	}

	if err := h.authService.ChangePassword(c.Request.Context(), userID, req.NewPassword, req.ConfirmPassword); err != nil {
		writeError(c, h.logger, err, "change password failed")
		return
	}

	response.Message(c, http.StatusOK, "password updated successfully")
}

func (h *AuthHandler) DeleteAccount(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req DeleteAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "email is required")
		return
	}

	if err := h.authService.DeleteAccount(c.Request.Context(), userID, req.Email); err != nil {
		writeError(c, h.logger, err, "delete account failed")
		return
	}

	response.Message(c, http.StatusOK, "account deleted successfully")
}
