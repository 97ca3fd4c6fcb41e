package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gogotex/appcatalog/pkg/metrics"
	"github.com/redis/go-redis/v9"
)

// RedisRateLimiter is a fixed-window limiter shared by every instance using
// the same Redis. Each client may make floor(rps*window)+burst requests per
// window.
type RedisRateLimiter struct {
	client  *redis.Client
	prefix  string
	window  int64
	allowed int64
	now     func() time.Time
}

func NewRedisRateLimiter(client *redis.Client, rps float64, burst int, window time.Duration) *RedisRateLimiter {
	seconds := int64(window.Seconds())
	if seconds <= 0 {
		seconds = 1
	}
	return &RedisRateLimiter{
		client:  client,
		prefix:  "rl:",
		window:  seconds,
		allowed: int64(rps*float64(seconds)) + int64(burst),
		now:     time.Now,
	}
}

func (l *RedisRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		bucket := l.now().Unix() / l.window
		key := fmt.Sprintf("%s%s:%d", l.prefix, clientKey(c), bucket)

		cnt, err := l.client.Incr(c.Request.Context(), key).Result()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Rate limit check failed"})
			return
		}
		if cnt == 1 {
			_ = l.client.Expire(c.Request.Context(), key, time.Duration(l.window+1)*time.Second).Err()
		}
		if cnt > l.allowed {
			c.Header("Retry-After", fmt.Sprintf("%d", l.window))
			metrics.RateLimitRejected.WithLabelValues("redis").Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}
		metrics.RateLimitAllowed.WithLabelValues("redis").Inc()
		c.Next()
	}
}
