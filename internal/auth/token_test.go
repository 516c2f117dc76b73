package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("test_secret", time.Hour)
	id := uuid.New()

	token, err := tm.Generate(id, "pm@example.com", "Pat")
	require.NoError(t, err)

	claims, err := tm.Validate(token)
	require.NoError(t, err)
	got, err := claims.UserUUID()
	require.NoError(t, err)
	assert.Equal(t, id, got)
	assert.Equal(t, "pm@example.com", claims.Email)
	assert.Equal(t, "Pat", claims.Name)
	assert.Equal(t, "agiletrack", claims.Issuer)
}

func TestTokenRejections(t *testing.T) {
	tm := NewTokenManager("test_secret", time.Hour)
	token, err := tm.Generate(uuid.New(), "a@example.com", "")
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		_, err := NewTokenManager("other", time.Hour).Validate(token)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		late := NewTokenManager("test_secret", time.Hour)
		late.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := late.Validate(token)
		assert.Error(t, err)
	})

	t.Run("non uuid subject", func(t *testing.T) {
		claims := Claims{
			UserID: "not-a-uuid",
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test_secret"))
		require.NoError(t, err)
		_, err = tm.Validate(raw)
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := tm.Validate("abc.def.ghi")
		assert.Error(t, err)
	})
}
