package mw

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	defaultLimit  = 60
	defaultWindow = time.Minute
)

// Limiter decides whether the request identified by key may proceed within
// the current window. retryAfter is meaningful only when allowed is false.
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, err error)
}

// fixedWindowScript counts a hit and stamps the window TTL atomically, so two
// instances sharing the same Redis never double-start a window.
var fixedWindowScript = redis.NewScript(`
local hits = redis.call("INCR", KEYS[1])
if hits == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {hits, redis.call("PTTL", KEYS[1])}
`)

// RedisLimiter is a fixed-window counter shared across instances.
type RedisLimiter struct {
	rdb    *redis.Client
	limit  int64
	window time.Duration
}

func NewRedisLimiter(rdb *redis.Client, limit int, window time.Duration) *RedisLimiter {
	if limit <= 0 {
		limit = defaultLimit
	}
	if window <= 0 {
		window = defaultWindow
	}
	return &RedisLimiter{rdb: rdb, limit: int64(limit), window: window}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	res, err := fixedWindowScript.Run(ctx, l.rdb,
		[]string{"ratelimit:" + key}, l.window.Milliseconds()).Int64Slice()
	if err != nil {
		return false, 0, err
	}
	hits, ttl := res[0], res[1]
	if hits > l.limit {
		return false, time.Duration(ttl) * time.Millisecond, nil
	}
	return true, 0, nil
}

type memoryWindow struct {
	hits  int
	reset time.Time
}

// MemoryLimiter is the in-process fixed-window counter used when no Redis is
// configured. Windows are per instance and lost on restart.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*memoryWindow
	limit   int
	window  time.Duration
}

func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	if limit <= 0 {
		limit = defaultLimit
	}
	if window <= 0 {
		window = defaultWindow
	}
	return &MemoryLimiter{
		windows: make(map[string]*memoryWindow),
		limit:   limit,
		window:  window,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || now.After(w.reset) {
		l.windows[key] = &memoryWindow{hits: 1, reset: now.Add(l.window)}
		return true, 0, nil
	}
	w.hits++
	if w.hits > l.limit {
		return false, time.Until(w.reset), nil
	}
	return true, 0, nil
}

// RateLimit rejects requests over the per-IP budget with 429 and a
// Retry-After header. A limiter outage fails open, the API stays up.
func RateLimit(l Limiter, log *slog.Logger) gin.HandlerFunc {
	if log == nil {
		log = slog.Default()
	}
	return func(c *gin.Context) {
		allowed, retryAfter, err := l.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			log.Warn("rate limiter unavailable", slog.Any("error", err))
			c.Next()
			return
		}
		if !allowed {
			secs := int64(retryAfter / time.Second)
			if retryAfter%time.Second > 0 {
				secs++
			}
			c.Header("Retry-After", strconv.FormatInt(secs, 10))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
