package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/snapgram/backend/internal/cache"
	apierrors "github.com/snapgram/backend/internal/errors"
	"github.com/snapgram/backend/internal/logger"
	"github.com/snapgram/backend/internal/util"
	"go.uber.org/zap"
)

// RedisRateLimitMiddleware enforces a fixed-window per-IP request limit
// shared across instances through Redis. When Redis is not configured the
// limiter is a no-op.
func RedisRateLimitMiddleware(scope string, maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		redisClient := cache.GetRedisClient()
		if redisClient == nil {
			c.Next()
			return
		}

		clientIP := c.ClientIP()
		key := fmt.Sprintf("rate_limit:%s:%s", scope, clientIP)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		val, err := redisClient.GetInt(ctx, key)
		if err != nil && err.Error() != "redis: nil" {
			// A broken limiter must not open the API up; reject instead.
			logger.Log.Error("rate limit check failed",
				zap.String("client_ip", clientIP),
				zap.Error(err))
			util.RespondWithAPIError(c, apierrors.Unavailable(""))
			c.Abort()
			return
		}

		if val >= int64(maxRequests) {
			logger.Log.Warn("rate limit exceeded",
				logger.WithIP(clientIP),
				zap.String("scope", scope),
				zap.Int("max_requests", maxRequests))
			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			util.RespondWithAPIError(c, apierrors.RateLimited(""))
			c.Abort()
			return
		}

		newVal, err := redisClient.IncrBy(ctx, key, 1)
		if err != nil {
			logger.Log.Error("rate limit increment failed",
				zap.String("client_ip", clientIP),
				zap.Error(err))
			util.RespondWithAPIError(c, apierrors.Unavailable(""))
			c.Abort()
			return
		}

		// First request in this window starts the clock.
		if newVal == 1 {
			if err := redisClient.Expire(ctx, key, window); err != nil {
				logger.Log.Warn("failed to set rate limit expiration",
					zap.String("client_ip", clientIP),
					zap.Error(err))
			}
		}

		c.Next()
	}
}
