// Package context provides request-scoped values extraction.
package context

import (
	"context"

	"bibliolab/internal/core/id"
)

// RoleAdmin is the elevated role allowed to mutate any record and hard delete.
const RoleAdmin = "admin"

// UserContext contains authenticated user information.
type UserContext struct {
	UserID    string
	Username  string
	Email     string
	Roles     []string
	IsAdmin   bool
	SessionID string
}

// ID parses UserID; it returns the nil ID when the value is malformed.
func (u *UserContext) ID() id.ID {
	parsed, err := id.Parse(u.UserID)
	if err != nil {
		return id.Nil()
	}
	return parsed
}

type userContextKey struct{}

// WithUser adds UserContext to context.
func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// GetUser returns UserContext from context.
func GetUser(ctx context.Context) *UserContext {
	if v, ok := ctx.Value(userContextKey{}).(*UserContext); ok {
		return v
	}
	return nil
}

// GetUserID returns user ID from context or empty string.
func GetUserID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.UserID
	}
	return ""
}

// IsAdmin reports whether the request is made by an administrator.
func IsAdmin(ctx context.Context) bool {
	u := GetUser(ctx)
	return u != nil && u.IsAdmin
}

// HasRole checks if user has specific role.
func HasRole(ctx context.Context, role string) bool {
	u := GetUser(ctx)
	if u == nil {
		return false
	}
	if role == RoleAdmin && u.IsAdmin {
		return true
	}
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}
