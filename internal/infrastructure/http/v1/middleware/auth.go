package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"bibliolab/internal/core/apperror"
	appctx "bibliolab/internal/core/context"
)

// JWTValidator interface for token validation.
type JWTValidator interface {
	ValidateToken(tokenString string) (*appctx.UserContext, error)
}

const authErrorKey = "auth_error"

// Authenticate validates a bearer token when one is sent and populates the
// user context. Requests without a token pass through anonymously; a
// malformed or invalid token is remembered for RequireAuth.
func Authenticate(validator JWTValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			c.Set(authErrorKey, "invalid authorization header format")
			c.Next()
			return
		}

		user, err := validator.ValidateToken(strings.TrimSpace(parts[1]))
		if err != nil || user == nil {
			c.Set(authErrorKey, "invalid token")
			c.Next()
			return
		}

		ctx := appctx.WithUser(c.Request.Context(), user)
		c.Request = c.Request.WithContext(ctx)
		c.Set("user_id", user.UserID)

		c.Next()
	}
}

// RequireAuth rejects requests that Authenticate did not resolve to a user.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if appctx.GetUser(c.Request.Context()) != nil {
			c.Next()
			return
		}
		if msg := c.GetString(authErrorKey); msg != "" {
			abortUnauthorized(c, msg)
			return
		}
		abortUnauthorized(c, "missing authorization header")
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	_ = c.Error(apperror.NewUnauthorized(message))
	c.Abort()
}
