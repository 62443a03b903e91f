package dto

import (
	"time"

	"bibliolab/internal/domain/auth"
)

// --- Request DTOs ---

// RegisterRequest for user registration.
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=150"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// ToAuthRequest converts to domain request.
func (r *RegisterRequest) ToAuthRequest() auth.RegisterRequest {
	return auth.RegisterRequest{
		Username: r.Username,
		Email:    r.Email,
		Password: r.Password,
	}
}

// LoginRequest accepts a username or an email in Login.
type LoginRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ToCredentials converts to domain credentials.
func (r *LoginRequest) ToCredentials(userAgent, ip string) auth.Credentials {
	return auth.Credentials{
		Login:     r.Login,
		Password:  r.Password,
		UserAgent: userAgent,
		IPAddress: ip,
	}
}

// RefreshTokenRequest for token refresh.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// VerifyTokenRequest carries an access token to check.
type VerifyTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// UpdateUserRequest is the body of PATCH /users/:id.
type UpdateUserRequest struct {
	Email        *string `json:"email" binding:"omitempty,email"`
	ProfileImage *string `json:"profile_image" binding:"omitempty,max=255"`
}

// ToPatch converts to the domain patch.
func (r *UpdateUserRequest) ToPatch() auth.UserPatch {
	return auth.UserPatch{Email: r.Email, ProfileImage: r.ProfileImage}
}

// --- Response DTOs ---

// UserFields is the field table of users. The password hash is never listed.
var UserFields = WithLifecycle(Fields[*auth.User]{
	"username":      func(u *auth.User, _ RenderContext) any { return u.Username },
	"email":         func(u *auth.User, _ RenderContext) any { return u.Email },
	"profile_image": func(u *auth.User, _ RenderContext) any { return u.ProfileImage },
	"is_active":     func(u *auth.User, _ RenderContext) any { return u.IsActive },
	"is_admin":      func(u *auth.User, _ RenderContext) any { return u.IsAdmin },
	"last_login_at": func(u *auth.User, _ RenderContext) any { return u.LastLoginAt },
})

// LoginResponse is the body of a successful login.
type LoginResponse struct {
	*auth.TokenPair
	User map[string]any `json:"user"`
}

// ClaimsResponse describes a verified access token.
type ClaimsResponse struct {
	Valid     bool      `json:"valid"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Roles     []string  `json:"roles"`
	IsAdmin   bool      `json:"is_admin"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewClaimsResponse converts verified claims.
func NewClaimsResponse(c *auth.Claims) ClaimsResponse {
	out := ClaimsResponse{
		Valid:    true,
		UserID:   c.UserID,
		Username: c.Username,
		Email:    c.Email,
		Roles:    c.Roles,
		IsAdmin:  c.IsAdmin,
	}
	if c.ExpiresAt != nil {
		out.ExpiresAt = c.ExpiresAt.Time
	}
	return out
}
