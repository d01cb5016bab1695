package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-task-manager/internal/models"
	"go-task-manager/internal/services"
)

// UserHandler はユーザー関連のハンドラーを管理します。
type UserHandler struct {
	userService *services.UserService
	log         *zap.Logger
}

// NewUserHandler は新しいUserHandlerを作成します。
func NewUserHandler(userService *services.UserService, log *zap.Logger) *UserHandler {
	return &UserHandler{userService: userService, log: log}
}

// ListUsersHandler はすべてのユーザーを取得します。
func (h *UserHandler) ListUsersHandler(c *gin.Context) {
	users, err := h.userService.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err, "Failed to retrieve users")
		return
	}
	c.JSON(http.StatusOK, users)
}

// SearchUsersHandler は名前でユーザーを検索します。
func (h *UserHandler) SearchUsersHandler(c *gin.Context) {
	name, ok := c.GetQuery("name")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name query parameter is required"})
		return
	}
	users, err := h.userService.SearchUsers(c.Request.Context(), name)
	if err != nil {
		respondError(c, h.log, err, "Failed to search users")
		return
	}
	c.JSON(http.StatusOK, users)
}

// CountUsersHandler は登録ユーザー数を返します。
func (h *UserHandler) CountUsersHandler(c *gin.Context) {
	n, err := h.userService.CountUsers(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err, "Failed to count users")
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}

// ProfileHandler はログインユーザー自身の情報を返します。
func (h *UserHandler) ProfileHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	user, err := h.userService.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err, "Failed to retrieve profile")
		return
	}
	c.JSON(http.StatusOK, user)
}

// GetUserHandler は指定IDのユーザーを取得します。
func (h *UserHandler) GetUserHandler(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	user, err := h.userService.GetUser(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err, "Failed to retrieve user")
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateUserHandler はユーザー情報を更新します。本人のみ可能です。
func (h *UserHandler) UpdateUserHandler(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req models.UserUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	user, err := h.userService.UpdateUser(c.Request.Context(), userID, id, req)
	if err != nil {
		respondError(c, h.log, err, "Failed to update user")
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdatePasswordHandler はパスワードを変更します。本人のみ可能です。
func (h *UserHandler) UpdatePasswordHandler(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req models.PasswordUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.userService.UpdatePassword(c.Request.Context(), userID, id, req.NewPassword); err != nil {
		respondError(c, h.log, err, "Failed to update password")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully"})
}

// DeleteUserHandler はユーザーを削除します。本人のみ可能です。
func (h *UserHandler) DeleteUserHandler(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.userService.DeleteUser(c.Request.Context(), userID, id); err != nil {
		respondError(c, h.log, err, "Failed to delete user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}
