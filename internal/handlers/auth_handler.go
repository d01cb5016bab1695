package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-task-manager/internal/models"
	"go-task-manager/internal/services"
)

const bearerPrefix = "Bearer "

var (
	ErrMissingAuthHeader = errors.New("authorization header required")
	ErrInvalidAuthFormat = errors.New("invalid token format")
)

// ExtractBearerToken は Authorization ヘッダーからトークンを取り出します。
// プレフィックス "Bearer " は大文字小文字を区別します。
func ExtractBearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrMissingAuthHeader
	}
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", ErrInvalidAuthFormat
	}
	return header[len(bearerPrefix):], nil
}

// AuthHandler は登録・ログインなど認証関連のハンドラーを管理します。
type AuthHandler struct {
	userService *services.UserService
	jwtService  *services.JWTService
	log         *zap.Logger
}

// NewAuthHandler は新しいAuthHandlerを作成します。
func NewAuthHandler(userService *services.UserService, jwtService *services.JWTService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{userService: userService, jwtService: jwtService, log: log}
}

// RegisterHandler はユーザー登録を処理し、トークンを発行します。
func (h *AuthHandler) RegisterHandler(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	user, err := h.userService.RegisterUser(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.log, err, "Failed to register user")
		return
	}

	token, err := h.jwtService.GenerateToken(user)
	if err != nil {
		respondError(c, h.log, err, "Failed to generate token")
		return
	}
	h.log.Info("user registered", zap.Int64("user_id", user.ID))

	c.JSON(http.StatusCreated, models.AuthResponse{
		Token:     token,
		Type:      "Bearer",
		ExpiresIn: int64(h.jwtService.Expiration().Seconds()),
		User:      user,
		Message:   "User registered successfully",
	})
}

// LoginHandler はユーザーログインを処理します。
func (h *AuthHandler) LoginHandler(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	user, err := h.userService.AuthenticateUser(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.log, err, "Failed to process login")
		return
	}

	token, err := h.jwtService.GenerateToken(user)
	if err != nil {
		respondError(c, h.log, err, "Failed to generate token")
		return
	}

	c.JSON(http.StatusOK, models.AuthResponse{
		Token:     token,
		Type:      "Bearer",
		ExpiresIn: int64(h.jwtService.Expiration().Seconds()),
		User:      user,
		Message:   "Login successful",
	})
}

// ValidateHandler は Authorization ヘッダーのトークンを検証します。
// 認可ゲートの外にあり、失敗時も {"valid": false} を返します。
func (h *AuthHandler) ValidateHandler(c *gin.Context) {
	token, err := ExtractBearerToken(c.GetHeader("Authorization"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"valid": false, "message": "Invalid or expired token"})
		return
	}

	claims, err := h.jwtService.ValidateToken(token)
	if err != nil {
		h.log.Debug("token validation failed", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"valid": false, "message": "Invalid or expired token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valid":      true,
		"user_id":    claims.UserID,
		"email":      claims.Email,
		"name":       claims.Name,
		"expires_at": claims.ExpiresAt,
	})
}

// LogoutHandler はログアウトを処理します。トークンはサーバー側で保持しないため何もしません。
func (h *AuthHandler) LogoutHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Logout successful"})
}
