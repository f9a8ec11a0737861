package middleware

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/freelance/backend/internal/infrastructure/logger"
	"github.com/freelance/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimitKeyPrefix namespaces rate limit counters in Redis
const RateLimitKeyPrefix = "ratelimit:"

// Quota is the outcome of one rate limit check
type Quota struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Limiter counts requests per key in fixed windows
type Limiter interface {
	Allow(ctx context.Context, key string) (Quota, error)
}

// RateLimiter is a fixed window limiter for a single process
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   int
	period  time.Duration
	nowFunc func() time.Time
	stop    chan struct{}
	once    sync.Once
}

type window struct {
	count   int
	resetAt time.Time
}

// NewRateLimiter creates a limiter and starts its cleanup loop. Call Stop
// to end the loop.
func NewRateLimiter(limit int, period time.Duration) *RateLimiter {
	rl := &RateLimiter{
		windows: make(map[string]*window),
		limit:   limit,
		period:  period,
		nowFunc: time.Now,
		stop:    make(chan struct{}),
	}
	go rl.cleanup(period * 2)
	return rl
}

func (rl *RateLimiter) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.evictExpired()
		}
	}
}

func (rl *RateLimiter) evictExpired() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.nowFunc()
	for key, w := range rl.windows {
		if !now.Before(w.resetAt) {
			delete(rl.windows, key)
		}
	}
}

// Stop ends the cleanup loop
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stop) })
}

// Allow counts one request for key
func (rl *RateLimiter) Allow(_ context.Context, key string) (Quota, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.nowFunc()
	w, ok := rl.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(rl.period)}
		rl.windows[key] = w
	}
	w.count++
	return quota(rl.limit, w.count, w.resetAt), nil
}

func quota(limit, count int, resetAt time.Time) Quota {
	return Quota{
		Allowed:   count <= limit,
		Limit:     limit,
		Remaining: max(limit-count, 0),
		ResetAt:   resetAt,
	}
}

// RedisRateLimiter shares fixed window counters across instances
type RedisRateLimiter struct {
	client redis.UniversalClient
	limit  int
	period time.Duration
	prefix string
}

// NewRedisRateLimiter creates a limiter whose keys start with prefix
func NewRedisRateLimiter(client redis.UniversalClient, limit int, period time.Duration, prefix string) *RedisRateLimiter {
	return &RedisRateLimiter{client: client, limit: limit, period: period, prefix: RateLimitKeyPrefix + prefix}
}

// Allow increments the counter and starts its expiry on the first hit
func (rl *RedisRateLimiter) Allow(ctx context.Context, key string) (Quota, error) {
	k := rl.prefix + key
	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := rl.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		pipe.ExpireNX(ctx, k, rl.period)
		ttl = pipe.PTTL(ctx, k)
		return nil
	})
	if err != nil {
		return Quota{}, fmt.Errorf("rate limit %s: %w", k, err)
	}
	remaining := ttl.Val()
	if remaining <= 0 {
		remaining = rl.period
	}
	return quota(rl.limit, int(incr.Val()), time.Now().Add(remaining)), nil
}

var (
	_ Limiter = (*RateLimiter)(nil)
	_ Limiter = (*RedisRateLimiter)(nil)
)

// KeyFunc picks the rate limit bucket of a request
type KeyFunc func(c *gin.Context) string

// ByClientIP buckets by the client address
func ByClientIP(c *gin.Context) string {
	return "ip:" + c.ClientIP()
}

// ByUserOrIP buckets authenticated requests by user and the rest by address
func ByUserOrIP(c *gin.Context) string {
	if id, ok := GetUserID(c); ok {
		return "user:" + id.String()
	}
	return ByClientIP(c)
}

// RateLimit rejects requests over the limiter's quota with 429. Limiter
// errors let the request through.
func RateLimit(limiter Limiter, key KeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		q, err := limiter.Allow(c.Request.Context(), key(c))
		if err != nil {
			logger.L(c.Request.Context()).Warn("rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}

		h := c.Writer.Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(q.Limit))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(q.Remaining))
		h.Set("X-RateLimit-Reset", strconv.FormatInt(q.ResetAt.Unix(), 10))
		if !q.Allowed {
			retry := int(time.Until(q.ResetAt).Seconds()) + 1
			h.Set("Retry-After", strconv.Itoa(max(retry, 1)))
			abortWithError(c, dto.ErrCodeRateLimited, "Too many requests, please try again later")
			return
		}
		c.Next()
	}
}
