// Package ratelimit ограничивает частоту запросов скользящим окном в Redis.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Скрипт атомарно чистит окно, считает запросы и добавляет текущий.
// Уникальность членов sorted set обеспечивает счетчик INCR.
var slidingWindow = redis.NewScript(`
	local key = KEYS[1]
	local counter_key = KEYS[2]
	local now = tonumber(ARGV[1])
	local window_start = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local window_ms = tonumber(ARGV[4])

	redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)

	local current = redis.call('ZCARD', key)

	if current < limit then
		local counter = redis.call('INCR', counter_key)
		redis.call('ZADD', key, now, now .. ':' .. counter)
		local expire_seconds = math.ceil(window_ms / 1000)
		redis.call('EXPIRE', key, expire_seconds)
		redis.call('EXPIRE', counter_key, expire_seconds)
		return {1, limit - current - 1, 0}
	end

	local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
	local reset_at = 0
	if oldest and #oldest >= 2 then
		reset_at = tonumber(oldest[2]) + window_ms
	end
	return {0, 0, reset_at}
`)

type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
	Limit     int
}

type Limiter struct {
	client    redis.Scripter
	keyPrefix string
	now       func() time.Time
}

func NewLimiter(client redis.Scripter, keyPrefix string) *Limiter {
	return &Limiter{
		client:    client,
		keyPrefix: keyPrefix,
		now:       time.Now,
	}
}

// Allow регистрирует запрос под ключом key и сообщает, укладывается ли он в лимит
func (l *Limiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (*Result, error) {
	now := l.now()
	windowStart := now.Add(-window)

	raw, err := slidingWindow.Run(ctx, l.client, windowKeys(l.keyPrefix+key),
		now.UnixMilli(), windowStart.UnixMilli(), limit, window.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("redis script error: %w", err)
	}

	return parseResult(raw, now, limit, window)
}

// windowKeys - окно и его счетчик. Hash tag держит оба ключа в одном слоте Redis Cluster.
func windowKeys(key string) []string {
	tagged := "{" + key + "}"
	return []string{tagged, tagged + ":counter"}
}

func parseResult(raw []int64, now time.Time, limit int, window time.Duration) (*Result, error) {
	if len(raw) != 3 {
		return nil, fmt.Errorf("unexpected redis response length: %d", len(raw))
	}

	resetAt := now.Add(window)
	if raw[2] > 0 {
		resetAt = time.UnixMilli(raw[2])
	}

	return &Result{
		Allowed:   raw[0] == 1,
		Remaining: int(raw[1]),
		ResetAt:   resetAt,
		Limit:     limit,
	}, nil
}
