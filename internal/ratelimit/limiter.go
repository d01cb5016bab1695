// Package ratelimit はRedisを使った固定ウィンドウ方式のレート制限を提供します。
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Result はレート制限の判定結果です。
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter はキーごとのリクエスト数を制限します。
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
	Reset(ctx context.Context, key string) error
}

// RedisLimiter は INCR と PEXPIRE による固定ウィンドウのレート制限です。
type RedisLimiter struct {
	client    *redis.Client
	keyPrefix string
	limit     int
	window    time.Duration
}

// NewRedisLimiter は新しいRedisLimiterを作成します。
func NewRedisLimiter(client *redis.Client, keyPrefix string, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client:    client,
		keyPrefix: keyPrefix,
		limit:     limit,
		window:    window,
	}
}

// Allow はリクエストを1件数え、ウィンドウ内の上限を超えていないかを返します。
func (l *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	redisKey := l.keyPrefix + key

	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		ttl = pipe.PTTL(ctx, redisKey)
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("redis pipeline error: %w", err)
	}

	count := int(incr.Val())
	retryAfter := ttl.Val()
	if retryAfter <= 0 {
		// 期限が無いのはウィンドウ最初のリクエスト (またはPEXPIRE前に中断されたキー)
		if err := l.client.PExpire(ctx, redisKey, l.window).Err(); err != nil {
			return Result{}, fmt.Errorf("redis pexpire error: %w", err)
		}
		retryAfter = l.window
	}

	remaining := l.limit - count
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:    count <= l.limit,
		Limit:      l.limit,
		Remaining:  remaining,
		RetryAfter: retryAfter,
	}, nil
}

// Reset はキーのカウンターを削除します。
func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	return l.client.Del(ctx, l.keyPrefix+key).Err()
}
