package middleware

import (
	"github.com/gin-gonic/gin"

	"bibliolab/internal/core/apperror"
	appctx "bibliolab/internal/core/context"
)

// Limiter decides whether a keyed request may proceed.
type Limiter interface {
	Allow(key string) bool
}

// RateLimit throttles anonymous callers by client IP and authenticated
// callers by user id. It must run after Authenticate.
func RateLimit(anonymous, users Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		var allowed bool
		if user := appctx.GetUser(c.Request.Context()); user != nil {
			allowed = users.Allow("user:" + user.UserID)
		} else {
			allowed = anonymous.Allow("ip:" + c.ClientIP())
		}

		if !allowed {
			c.Header("Retry-After", "3600")
			_ = c.Error(apperror.NewRateLimited())
			c.Abort()
			return
		}
		c.Next()
	}
}
