package routes

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"go-task-manager/internal/handlers"
	"go-task-manager/internal/services"
)

const requestIDHeader = "X-Request-ID"

// AuthMiddleware はJWTトークンを検証し、クレームをリクエストコンテキストに結び付けるミドルウェアです。
// ストアには問い合わせず、トークンのクレームだけで本人を確定します。
func AuthMiddleware(jwtService *services.JWTService, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := handlers.ExtractBearerToken(c.GetHeader("Authorization"))
		if errors.Is(err, handlers.ErrMissingAuthHeader) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token format"})
			return
		}

		claims, err := jwtService.ValidateToken(tokenString)
		if err != nil {
			// 理由はクライアントに返さない
			log.Debug("token rejected", zap.Error(err), zap.String("path", c.Request.URL.Path))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Request = c.Request.WithContext(services.WithIdentity(c.Request.Context(), claims))
		c.Next()
	}
}

// RequestLogger はリクエストIDを付与し、zapでアクセスログを出力します。
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Header(requestIDHeader, requestID)
		c.Set("request_id", requestID)

		c.Next()

		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if claims, ok := services.IdentityFrom(c.Request.Context()); ok {
			fields = append(fields, zap.Int64("user_id", claims.UserID))
		}
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			log.Error("request", fields...)
		case c.Writer.Status() >= http.StatusBadRequest:
			log.Warn("request", fields...)
		default:
			log.Info("request", fields...)
		}
	}
}
