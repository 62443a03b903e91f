package auth

import (
	"context"
	"time"

	"bibliolab/internal/core/id"
	"bibliolab/internal/domain"
)

// UserRepository defines user storage operations.
//
// List searches username and email and orders by username and created_at.
type UserRepository interface {
	domain.Repository[*User]

	// GetByUsername retrieves an active user by username.
	GetByUsername(ctx context.Context, username string) (*User, error)

	// GetByEmail retrieves an active user by email.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Exists reports whether username or email is taken by any record.
	Exists(ctx context.Context, username, email string) (bool, error)

	// RecordLogin writes the login bookkeeping columns without touching updated_at.
	RecordLogin(ctx context.Context, user *User) error
}

// TokenRepository defines token storage operations.
type TokenRepository interface {
	// SaveRefreshToken saves a refresh token.
	SaveRefreshToken(ctx context.Context, token *RefreshToken) error

	// GetRefreshToken retrieves refresh token by hash.
	GetRefreshToken(ctx context.Context, tokenHash string) (*RefreshToken, error)

	// RevokeRefreshToken revokes a refresh token.
	RevokeRefreshToken(ctx context.Context, tokenID id.ID, reason string, at time.Time) error

	// RevokeAllUserTokens revokes all tokens for a user.
	RevokeAllUserTokens(ctx context.Context, userID id.ID, reason string, at time.Time) error

	// CleanupExpiredTokens removes tokens that expired before cutoff.
	CleanupExpiredTokens(ctx context.Context, cutoff time.Time) (int64, error)
}
