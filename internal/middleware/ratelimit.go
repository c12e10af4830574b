package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// Counter counts hits on a key within a window.
type Counter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, error)
}

type RedisCounter struct {
	client *redis.Client
}

func NewRedisCounter(client *redis.Client) *RedisCounter {
	return &RedisCounter{client: client}
}

// Hit increments key and refreshes its expiry in one pipeline.
func (r *RedisCounter) Hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	pipe := r.client.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Result()
}

// RateLimit allows max requests per client IP within window. prefix keeps
// separate budgets for separate routes.
func RateLimit(counter Counter, prefix string, max int, window time.Duration) gin.HandlerFunc {
	if counter == nil {
		panic("counter cannot be nil for RateLimit middleware")
	}
	if max <= 0 || window <= 0 {
		panic("RateLimit needs a positive max and window")
	}

	return func(c *gin.Context) {
		key := "ratelimit:" + prefix + ":" + c.ClientIP()

		count, err := counter.Hit(c.Request.Context(), key, window)
		if err != nil {
			// fail open
			logrus.WithError(err).Error("rate limit counter failed")
			c.Next()
			return
		}

		if count > int64(max) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			return
		}
		c.Next()
	}
}
