package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bibliolab/internal/domain/domaintest"
)

func TestJWTService_RoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := NewJWTService(DefaultJWTConfig("secret"))
	svc.clock = domaintest.FixedClock(now)

	user := NewUser("reader", "reader@example.com", "hash", now)
	user.IsAdmin = true

	token, expiresAt, err := svc.GenerateAccessToken(user, "session-1")
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), expiresAt)

	uc, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), uc.UserID)
	assert.True(t, uc.IsAdmin)
	assert.Equal(t, "session-1", uc.SessionID)
	assert.Equal(t, []string{"admin", "user"}, uc.Roles)
}

func TestJWTService_Rejects(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	user := NewUser("reader", "reader@example.com", "hash", now)

	issuer := NewJWTService(DefaultJWTConfig("secret"))
	issuer.clock = domaintest.FixedClock(now)
	token, _, err := issuer.GenerateAccessToken(user, "")
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTService(DefaultJWTConfig("other"))
		other.clock = issuer.clock
		_, err := other.ParseToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		cfg := DefaultJWTConfig("secret")
		cfg.Issuer = "someone-else"
		other := NewJWTService(cfg)
		other.clock = issuer.clock
		_, err := other.ParseToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		later := NewJWTService(DefaultJWTConfig("secret"))
		later.clock = domaintest.FixedClock(now.Add(61 * time.Minute))
		_, err := later.ParseToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := issuer.ParseToken("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
