package ratelimit

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Option はミドルウェアの挙動を変更します。
type Option func(*options)

type options struct {
	resetOnSuccess bool
}

// ResetOnSuccess はハンドラーが2xxを返したときにカウンターを消します。
// ログインでは失敗した試行だけが数えられます。
func ResetOnSuccess() Option {
	return func(o *options) { o.resetOnSuccess = true }
}

// Middleware はクライアントIPごとにリクエストを制限するginミドルウェアを返します。
// scope はキーの名前空間で、エンドポイントごとに別のカウンターにします。
// Limiter のエラー時はリクエストを通します。
func Middleware(limiter Limiter, scope string, log *zap.Logger, opts ...Option) gin.HandlerFunc {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return func(c *gin.Context) {
		key := scope + ":" + c.ClientIP()
		res, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			log.Warn("rate limiter unavailable, allowing request",
				zap.String("key", key),
				zap.Error(err),
			)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		if !res.Allowed {
			retryAfter := int(math.Ceil(res.RetryAfter.Seconds()))
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Too many requests",
				"retry_after": retryAfter,
			})
			return
		}
		c.Next()

		if o.resetOnSuccess && c.Writer.Status() >= http.StatusOK && c.Writer.Status() < http.StatusMultipleChoices {
			if err := limiter.Reset(c.Request.Context(), key); err != nil {
				log.Warn("failed to reset rate limit counter", zap.String("key", key), zap.Error(err))
			}
		}
	}
}
