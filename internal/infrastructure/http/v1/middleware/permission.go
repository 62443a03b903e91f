package middleware

import (
	"github.com/gin-gonic/gin"

	"bibliolab/internal/core/apperror"
	appctx "bibliolab/internal/core/context"
)

// RequireAdmin middleware lets only administrators through.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := appctx.GetUser(c.Request.Context())
		if user == nil {
			_ = c.Error(apperror.NewUnauthorized("authentication required"))
			c.Abort()
			return
		}
		if !user.IsAdmin {
			_ = c.Error(apperror.NewForbidden("administrator role required"))
			c.Abort()
			return
		}
		c.Next()
	}
}
