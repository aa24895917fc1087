package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/cashflow/pkg/ratelimit"
)

// RateLimit 基于客户端 IP 的限流中间件，限流器缺失或故障时放行
func RateLimit(limiter ratelimit.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		v, err := limiter.Allow(c.Request.Context(), "ratelimit:"+c.ClientIP())
		if err != nil {
			c.Next()
			return
		}

		c.Header("X-RateLimit-Remaining", strconv.Itoa(v.Remaining))
		if !v.Allowed {
			c.Header("Retry-After", strconv.FormatInt(int64(v.RetryAfter/time.Second), 10))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "too many requests",
				"retry_after": v.RetryAfter.String(),
			})
			return
		}

		c.Next()
	}
}
