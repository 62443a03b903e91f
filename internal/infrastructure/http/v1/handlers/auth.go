package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"bibliolab/internal/core/apperror"
	"bibliolab/internal/core/id"
	"bibliolab/internal/domain/auth"
	"bibliolab/internal/infrastructure/http/v1/dto"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	*BaseHandler
	service *auth.Service
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(base *BaseHandler, service *auth.Service) *AuthHandler {
	return &AuthHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	h.Accessed(c, "auth.register")

	var req dto.RegisterRequest
	if !h.BindJSON(c, &req) {
		return
	}

	user, err := h.service.Register(c.Request.Context(), req.ToAuthRequest())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.UserFields.Render(user, nil, h.RenderContext()))
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	h.Accessed(c, "auth.login")

	var req dto.LoginRequest
	if !h.BindJSON(c, &req) {
		return
	}

	tokens, user, err := h.service.Login(c.Request.Context(), req.ToCredentials(c.Request.UserAgent(), c.ClientIP()))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.LoginResponse{
		TokenPair: tokens,
		User:      dto.UserFields.Render(user, nil, h.RenderContext()),
	})
}

// Refresh handles POST /auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	h.Accessed(c, "auth.refresh")

	var req dto.RefreshTokenRequest
	if !h.BindJSON(c, &req) {
		return
	}

	tokens, err := h.service.RefreshToken(c.Request.Context(), req.RefreshToken, c.Request.UserAgent(), c.ClientIP())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, tokens)
}

// Verify handles POST /auth/verify
func (h *AuthHandler) Verify(c *gin.Context) {
	h.Accessed(c, "auth.verify")

	var req dto.VerifyTokenRequest
	if !h.BindJSON(c, &req) {
		return
	}

	claims, err := h.service.Verify(c.Request.Context(), req.Token)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewClaimsResponse(claims))
}

// Logout handles POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	h.Accessed(c, "auth.logout")

	userID, ok := h.requireUser(c)
	if !ok {
		return
	}
	if err := h.service.Logout(c.Request.Context(), userID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	h.Accessed(c, "auth.me")

	userID, ok := h.requireUser(c)
	if !ok {
		return
	}
	user, err := h.service.Me(c.Request.Context(), userID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.UserFields.Render(user, nil, h.RenderContext()))
}

func (h *AuthHandler) requireUser(c *gin.Context) (id.ID, bool) {
	userID := h.CurrentUserID(c)
	if id.IsNil(userID) {
		h.Error(c, apperror.NewUnauthorized("Authentication credentials were not provided."))
		return userID, false
	}
	return userID, true
}

// --- Users ---

// UserHandler serves account administration. Accounts are created through
// registration, so there is no create route.
type UserHandler struct {
	*LifecycleHandler[*auth.User, struct{}, dto.UpdateUserRequest]
}

// NewUserHandler creates a new user handler.
func NewUserHandler(base *BaseHandler, service *auth.UserService) *UserHandler {
	lh := NewLifecycleHandler(base, LifecycleHandlerConfig[*auth.User, struct{}, dto.UpdateUserRequest]{
		Service:    service,
		EntityName: "user",
		Fields:     dto.UserFields,
		Update: func(ctx context.Context, userID id.ID, req *dto.UpdateUserRequest) (*auth.User, error) {
			return service.Patch(ctx, userID, req.ToPatch())
		},
	})
	return &UserHandler{LifecycleHandler: lh}
}
