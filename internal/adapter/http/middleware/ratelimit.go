package middleware

import (
	"fmt"
	"strconv"
	"time"

	redisStore "rwa-signing-gateway/internal/adapter/storage/redis"
	"rwa-signing-gateway/pkg/apperror"
	"rwa-signing-gateway/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RateLimitRule defines a rate limit for an endpoint group.
type RateLimitRule struct {
	Limit  int64
	Window time.Duration
}

// DefaultRateLimitRules derives per-group HTTP budgets from the configured base.
// Signing has its own per-wallet policy limit on top of this.
func DefaultRateLimitRules(base int64, window time.Duration) map[string]RateLimitRule {
	if base < 1 {
		base = 1
	}
	return map[string]RateLimitRule{
		"signing": {Limit: base, Window: window},
		"batches": {Limit: max(base/8, 1), Window: window},
		"admin":   {Limit: max(base/2, 1), Window: window},
		"read":    {Limit: base, Window: window},
	}
}

// RateLimiter creates a rate-limiting middleware for a given endpoint group.
func RateLimiter(store *redisStore.RateLimitStore, group string, rule RateLimitRule, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("%s:%s", extractIdentifier(c), group)

		result, err := store.Allow(c.Request.Context(), key, rule.Limit, rule.Window)
		if err != nil {
			log.Warn().Err(err).Str("group", group).Msg("rate limit check failed, allowing request (degraded mode)")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(result.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt, 10))

		if !result.Allowed {
			retryAfter := result.ResetAt - time.Now().Unix()
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.FormatInt(retryAfter, 10))
			response.Error(c, apperror.ErrTooManyRequests())
			c.Abort()
			return
		}

		c.Next()
	}
}

// extractIdentifier keys the budget by authenticated user, falling back to client IP.
func extractIdentifier(c *gin.Context) string {
	if identity, ok := IdentityFrom(c); ok && identity.UserID != "" {
		return "user:" + identity.UserID
	}
	return "ip:" + c.ClientIP()
}
