package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter caps how many events one client may submit per window
//
// HOW IT WORKS (fixed window counter):
// 1. The first request from a client creates a counter that expires after the window
// 2. Each further request increments it while it is below the limit
// 3. Once the limit is reached, requests are rejected until the key expires
//
// The counter lives in Redis so every API instance shares it, and the whole
// read-check-increment runs as one Lua script so concurrent requests can't race
type Limiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
}

// Result is the outcome of one Allow call
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

var allowScript = redis.NewScript(`
	local key = KEYS[1]
	local limit = tonumber(ARGV[1])
	local window = tonumber(ARGV[2])
	local now = tonumber(ARGV[3])

	local current = redis.call('GET', key)

	if current == false then
		redis.call('SET', key, 1, 'EX', window)
		return {1, limit - 1, now + window}
	end

	current = tonumber(current)
	local ttl = redis.call('TTL', key)
	if ttl < 0 then
		redis.call('EXPIRE', key, window)
		ttl = window
	end

	if current < limit then
		redis.call('INCR', key)
		return {1, limit - current - 1, now + ttl}
	end
	return {0, 0, now + ttl}
`)

// NewLimiter creates a limiter allowing limit requests per window
// Example: NewLimiter(client, 100, time.Minute) allows 100 tracked events per minute per client
func NewLimiter(client *redis.Client, limit int, window time.Duration) *Limiter {
	return &Limiter{
		client: client,
		limit:  limit,
		window: window,
		prefix: "linkpro:ratelimit:",
	}
}

// Allow records one request for key and reports whether it is within the limit
func (l *Limiter) Allow(ctx context.Context, key string) (Result, error) {
	now := time.Now()
	windowSeconds := int(l.window.Seconds())
	if windowSeconds < 1 {
		windowSeconds = 1
	}

	raw, err := allowScript.Run(ctx, l.client, []string{l.prefix + key}, l.limit, windowSeconds, now.Unix()).Result()
	if err != nil {
		return Result{}, fmt.Errorf("rate limit check failed: %w", err)
	}

	values, ok := raw.([]interface{})
	if !ok || len(values) != 3 {
		return Result{}, fmt.Errorf("unexpected rate limit result: %v", raw)
	}

	allowed, _ := values[0].(int64)
	remaining, _ := values[1].(int64)
	reset, _ := values[2].(int64)

	return Result{
		Allowed:   allowed == 1,
		Remaining: int(remaining),
		ResetAt:   time.Unix(reset, 0),
	}, nil
}

// Reset clears the counter for a key
func (l *Limiter) Reset(ctx context.Context, key string) error {
	return l.client.Del(ctx, l.prefix+key).Err()
}

// Limit returns the maximum number of requests allowed per window
func (l *Limiter) Limit() int {
	return l.limit
}
