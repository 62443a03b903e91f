package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bibliolab/internal/core/apperror"
	appctx "bibliolab/internal/core/context"
)

type recordingLimiter struct {
	keys  []string
	allow bool
}

func (l *recordingLimiter) Allow(key string) bool {
	l.keys = append(l.keys, key)
	return l.allow
}

type staticValidator map[string]*appctx.UserContext

func (v staticValidator) ValidateToken(token string) (*appctx.UserContext, error) {
	if u, ok := v[token]; ok {
		return u, nil
	}
	return nil, errors.New("invalid")
}

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorHandler())
	r.Use(Authenticate(staticValidator{
		"member": {UserID: "u-1"},
		"admin":  {UserID: "u-2", IsAdmin: true},
	}))
	r.Use(handlers...)
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func serve(t *testing.T, r *gin.Engine, token string) (int, ErrorBody) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.10:5000"
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var body ErrorBody
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	}
	return w.Code, body
}

func TestRateLimit_KeysByIdentity(t *testing.T) {
	anon := &recordingLimiter{allow: true}
	users := &recordingLimiter{allow: true}
	r := newEngine(RateLimit(anon, users))

	status, _ := serve(t, r, "")
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = serve(t, r, "member")
	assert.Equal(t, http.StatusNoContent, status)

	assert.Equal(t, []string{"ip:192.0.2.10"}, anon.keys)
	assert.Equal(t, []string{"user:u-1"}, users.keys)
}

func TestRateLimit_ThrottledEnvelope(t *testing.T) {
	r := newEngine(RateLimit(&recordingLimiter{}, &recordingLimiter{}))

	status, body := serve(t, r, "")
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, apperror.CodeRateLimited, body.Code)
	assert.Equal(t, http.StatusTooManyRequests, body.StatusCode)
}

func TestRequireAdmin(t *testing.T) {
	r := newEngine(RequireAdmin())

	tests := []struct {
		token  string
		status int
		code   string
	}{
		{"", http.StatusUnauthorized, apperror.CodeUnauthorized},
		{"member", http.StatusForbidden, apperror.CodeForbidden},
		{"admin", http.StatusNoContent, ""},
	}
	for _, tt := range tests {
		status, body := serve(t, r, tt.token)
		assert.Equal(t, tt.status, status, tt.token)
		assert.Equal(t, tt.code, body.Code, tt.token)
	}
}

func TestErrorHandler_HidesInternalCause(t *testing.T) {
	r := newEngine(func(c *gin.Context) {
		_ = c.Error(apperror.NewInternal(errors.New("pq: password authentication failed")))
		c.Abort()
	})

	status, body := serve(t, r, "")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, apperror.CodeInternal, body.Code)
	assert.NotContains(t, body.Message, "password")
	assert.NotNil(t, body.Details)
}
