// Package auth provides user accounts, credentials and token issuance.
package auth

import (
	"context"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"bibliolab/internal/core/apperror"
	"bibliolab/internal/core/entity"
	"bibliolab/internal/core/id"
)

var (
	usernameRE = regexp.MustCompile(`^[\w.@+-]+$`)
	emailRE    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

// Username length bounds.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 150
)

// User represents an account. The owner of a user record is the user itself.
type User struct {
	entity.BaseEntity

	Username            string     `db:"username"`
	Email               string     `db:"email"`
	PasswordHash        string     `db:"password_hash" json:"-"`
	ProfileImage        *string    `db:"profile_image"`
	IsActive            bool       `db:"is_active"`
	IsAdmin             bool       `db:"is_admin"`
	LastLoginAt         *time.Time `db:"last_login_at"`
	FailedLoginAttempts int        `db:"failed_login_attempts" json:"-"`
	LockedUntil         *time.Time `db:"locked_until" json:"-"`
}

// NewUser creates an active user stamped at now.
func NewUser(username, email, passwordHash string, now time.Time) *User {
	return &User{
		BaseEntity:   entity.NewBaseEntity(now),
		Username:     strings.TrimSpace(username),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: passwordHash,
		IsActive:     true,
	}
}

// OwnerID implements entity.HasLifecycle.
func (u *User) OwnerID() id.ID {
	return u.ID
}

// Validate validates user data.
func (u *User) Validate(_ context.Context) error {
	n := utf8.RuneCountInString(u.Username)
	if n < MinUsernameLength || n > MaxUsernameLength {
		return apperror.NewFieldValidation("username", "username must be between 3 and 150 characters")
	}
	if !usernameRE.MatchString(u.Username) {
		return apperror.NewFieldValidation("username",
			"username may contain only letters, digits and @/./+/-/_ characters")
	}
	if !emailRE.MatchString(u.Email) {
		return apperror.NewFieldValidation("email", "Enter a valid email address.")
	}
	if u.PasswordHash == "" {
		return apperror.NewFieldValidation("password", "password is required")
	}
	return u.CheckInvariant()
}

// IsLocked reports whether the account is temporarily locked at now.
func (u *User) IsLocked(now time.Time) bool {
	return u.LockedUntil != nil && now.Before(*u.LockedUntil)
}

// CanLogin checks if the user may authenticate at now.
func (u *User) CanLogin(now time.Time) error {
	if u.IsDeleted() || !u.IsActive {
		return apperror.NewForbidden("account is disabled")
	}
	if u.IsLocked(now) {
		return apperror.NewForbidden("account is temporarily locked")
	}
	return nil
}

// RecordFailedLogin increments the failed login counter and locks the account
// once maxAttempts is reached.
func (u *User) RecordFailedLogin(now time.Time, maxAttempts int, lockDuration time.Duration) {
	u.FailedLoginAttempts++
	if u.FailedLoginAttempts >= maxAttempts {
		lockUntil := now.Add(lockDuration)
		u.LockedUntil = &lockUntil
	}
}

// RecordSuccessfulLogin resets the failed login counter.
func (u *User) RecordSuccessfulLogin(now time.Time) {
	u.FailedLoginAttempts = 0
	u.LockedUntil = nil
	now = now.UTC()
	u.LastLoginAt = &now
}

// Roles returns the role names carried in tokens.
func (u *User) Roles() []string {
	if u.IsAdmin {
		return []string{"admin", "user"}
	}
	return []string{"user"}
}

// RefreshToken is a stored refresh credential. Only the SHA-256 of the
// opaque token is persisted.
type RefreshToken struct {
	ID            id.ID      `db:"id"`
	UserID        id.ID      `db:"user_id"`
	TokenHash     string     `db:"token_hash"`
	ExpiresAt     time.Time  `db:"expires_at"`
	CreatedAt     time.Time  `db:"created_at"`
	RevokedAt     *time.Time `db:"revoked_at"`
	RevokedReason string     `db:"revoked_reason"`
	UserAgent     string     `db:"user_agent"`
	IPAddress     string     `db:"ip_address"`
}

// IsValid checks if the refresh token is usable at now.
func (t *RefreshToken) IsValid(now time.Time) bool {
	if t.RevokedAt != nil {
		return false
	}
	return now.Before(t.ExpiresAt)
}

// TokenPair contains access and refresh tokens.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	TokenType    string    `json:"token_type"`
}

// Credentials for login. Login accepts a username or an email address.
type Credentials struct {
	Login     string
	Password  string
	UserAgent string
	IPAddress string
}

// RegisterRequest for user registration.
type RegisterRequest struct {
	Username string
	Email    string
	Password string
}

// UserPatch carries the attributes a user may change on their account.
type UserPatch struct {
	Email        *string
	ProfileImage *string
}
