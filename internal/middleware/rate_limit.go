package middleware

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"go-inventory-ledger/pkg/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// slidingWindow trims the window, counts it and admits the request only
// when under the limit. Returns {allowed, remaining, retry_after_ms}.
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)
if count < limit then
	redis.call('ZADD', key, now, member)
	redis.call('PEXPIRE', key, window)
	return {1, limit - count - 1, 0}
end

local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
local retry = 0
if #oldest >= 2 then
	retry = tonumber(oldest[2]) + window - now
end
return {0, 0, retry}
`)

// RateLimiter is a Redis sliding-window limiter keyed by user id, or by
// client ip for anonymous requests.
type RateLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
	logger *zap.Logger
	seq    atomic.Uint64
}

func NewRateLimiter(client *redis.Client, limit int, window time.Duration, logger *zap.Logger) *RateLimiter {
	return &RateLimiter{client: client, limit: limit, window: window, prefix: "ratelimit:", logger: logger}
}

type limitResult struct {
	allowed    bool
	remaining  int
	retryAfter time.Duration
}

func (l *RateLimiter) allow(ctx context.Context, key string) (*limitResult, error) {
	now := time.Now()
	member := fmt.Sprintf("%d:%d", now.UnixNano(), l.seq.Add(1))

	res, err := slidingWindow.Run(ctx, l.client, []string{l.prefix + key},
		now.UnixMilli(), l.window.Milliseconds(), l.limit, member).Int64Slice()
	if err != nil {
		return nil, err
	}
	if len(res) != 3 {
		return nil, fmt.Errorf("unexpected rate limit reply of length %d", len(res))
	}
	return &limitResult{
		allowed:    res[0] == 1,
		remaining:  int(res[1]),
		retryAfter: time.Duration(res[2]) * time.Millisecond,
	}, nil
}

// Handler fails open: when Redis errors, the request proceeds.
func (l *RateLimiter) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := "ip:" + c.IP()
		if uid, ok := c.Locals("user_id").(string); ok && uid != "" {
			key = "user:" + uid
		}

		res, err := l.allow(c.UserContext(), key)
		if err != nil {
			l.logger.Warn("rate limiter unavailable", zap.Error(err))
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(l.limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(res.remaining))
		if !res.allowed {
			retry := int(res.retryAfter.Seconds())
			if retry < 1 {
				retry = 1
			}
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retry))
			return c.Status(fiber.StatusTooManyRequests).JSON(apperror.New("RATE_LIMITED",
				"too many requests", fmt.Sprintf("limit %d per %s", l.limit, l.window)))
		}
		return c.Next()
	}
}

// Mutations limits only state-changing methods.
func (l *RateLimiter) Mutations() fiber.Handler {
	limit := l.Handler()
	return func(c *fiber.Ctx) error {
		switch c.Method() {
		case fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions:
			return c.Next()
		}
		return limit(c)
	}
}
