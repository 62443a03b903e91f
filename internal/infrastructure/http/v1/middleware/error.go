package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bibliolab/internal/core/apperror"
	"bibliolab/pkg/logger"
)

// ErrorBody is the envelope written for every failed request.
type ErrorBody struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	StatusCode int            `json:"status_code"`
	Details    map[string]any `json:"details"`
}

// ErrorHandler middleware transforms errors into consistent JSON responses.
// Hides internal errors from clients while logging full details.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err

		// If response already written by handler, do not override it.
		if c.Writer.Written() {
			return
		}

		status, body := errorBody(c, err)
		c.JSON(status, body)
	}
}

func errorBody(c *gin.Context, err error) (int, ErrorBody) {
	if appErr, ok := apperror.AsAppError(err); ok {
		if appErr.Err != nil {
			logger.Error(c.Request.Context(), "request error",
				"code", appErr.Code,
				"cause", appErr.Err,
			)
		}
		details := appErr.Details
		if details == nil {
			details = map[string]any{}
		}
		return appErr.HTTPStatus, ErrorBody{
			Code:       appErr.Code,
			Message:    appErr.Message,
			StatusCode: appErr.HTTPStatus,
			Details:    details,
		}
	}

	logger.Error(c.Request.Context(), "unhandled error", "error", err)

	return http.StatusInternalServerError, ErrorBody{
		Code:       apperror.CodeInternal,
		Message:    "Internal server error",
		StatusCode: http.StatusInternalServerError,
		Details: map[string]any{
			"request_id": c.GetString("request_id"),
		},
	}
}

// NoRoute answers unknown paths with the error envelope.
func NoRoute() gin.HandlerFunc {
	return func(c *gin.Context) {
		_ = c.Error(apperror.NewNoResults("resource not found").WithDetail("path", c.Request.URL.Path))
		c.Abort()
	}
}
