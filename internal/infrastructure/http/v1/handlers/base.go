// Package handlers provides HTTP request handlers.
package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"bibliolab/internal/core/apperror"
	appctx "bibliolab/internal/core/context"
	"bibliolab/internal/core/id"
	"bibliolab/internal/infrastructure/http/v1/dto"
	"bibliolab/pkg/logger"
)

// BaseHandler provides common handler utilities.
type BaseHandler struct {
	clock func() time.Time
}

// NewBaseHandler creates a new base handler. clock may be nil.
func NewBaseHandler(clock func() time.Time) *BaseHandler {
	if clock == nil {
		clock = time.Now
	}
	return &BaseHandler{clock: clock}
}

// RenderContext returns the render clock for computed fields.
func (h *BaseHandler) RenderContext() dto.RenderContext {
	return dto.RenderContext{Now: h.clock().UTC()}
}

// BindJSON binds and validates JSON request body.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.Error(c, dto.BindingError(err))
		return false
	}
	return true
}

// Error registers error on Gin context and aborts request.
// Actual JSON response is produced by middleware.ErrorHandler (single source of truth).
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// Accessed writes the per-action access line.
func (h *BaseHandler) Accessed(c *gin.Context, action string) {
	logger.Info(c.Request.Context(), "accessed", "action", action, "url", c.Request.URL.String())
}

// ParseID parses the :id path parameter (or another named parameter).
func (h *BaseHandler) ParseID(c *gin.Context, param string) (id.ID, bool) {
	v, err := dto.ParseID(param, c.Param(param))
	if err != nil {
		h.Error(c, err)
		return v, false
	}
	return v, true
}

// QueryFloat parses a float query parameter. Missing gives def; malformed is a ValidationError.
func (h *BaseHandler) QueryFloat(c *gin.Context, key string, def float64) (float64, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return def, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		h.Error(c, apperror.NewFieldValidation(key, "Invalid "+key+" value. Must be a number."))
		return 0, false
	}
	return v, true
}

// QueryInt parses an integer query parameter. Missing gives def; malformed is a ValidationError.
func (h *BaseHandler) QueryInt(c *gin.Context, key string, def int) (int, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		h.Error(c, apperror.NewFieldValidation(key, "Invalid "+key+" value. Must be an integer."))
		return 0, false
	}
	return v, true
}

// RequiredQuery returns a non-empty query parameter or registers a ValidationError.
func (h *BaseHandler) RequiredQuery(c *gin.Context, keys ...string) ([]string, bool) {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = strings.TrimSpace(c.Query(k))
		if out[i] == "" {
			h.Error(c, apperror.NewValidation("Both "+strings.Join(keys, " and ")+" are required.").
				WithDetail("field", k))
			return nil, false
		}
	}
	return out, true
}

// CurrentUserID returns the authenticated user id.
func (h *BaseHandler) CurrentUserID(c *gin.Context) id.ID {
	user := appctx.GetUser(c.Request.Context())
	if user == nil {
		return id.Nil()
	}
	return user.ID()
}

// Created sends 201 response.
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// OK sends 200 response with data.
func (h *BaseHandler) OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// NoContent sends 204 response.
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
