package jwt

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_GenerateAndValidate(t *testing.T) {
	s := NewService("test-secret", time.Hour)

	token, expiresAt, err := s.GenerateToken(42)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := s.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, Issuer, claims.Issuer)
}

func TestService_TwoTokensSameUser(t *testing.T) {
	s := NewService("test-secret", time.Hour)

	// первый вход двумя секундами раньше, чтобы iat отличался
	s.now = func() time.Time { return time.Now().Add(-2 * time.Second) }
	tokenA, _, err := s.GenerateToken(7)
	require.NoError(t, err)

	s.now = time.Now
	tokenB, _, err := s.GenerateToken(7)
	require.NoError(t, err)
	assert.NotEqual(t, tokenA, tokenB)

	// оба токена действуют, пока не истекли
	for _, tok := range []string{tokenA, tokenB} {
		claims, err := s.ValidateToken(tok)
		require.NoError(t, err)
		assert.Equal(t, int64(7), claims.UserID)
	}
}

func TestService_ValidateToken_Errors(t *testing.T) {
	s := NewService("test-secret", time.Hour)
	valid, _, err := s.GenerateToken(1)
	require.NoError(t, err)

	expiredService := NewService("test-secret", time.Hour)
	expiredService.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, _, err := expiredService.GenerateToken(1)
	require.NoError(t, err)

	otherSecret, _, err := NewService("other-secret", time.Hour).GenerateToken(1)
	require.NoError(t, err)

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			Issuer:    Issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not.a.token"},
		{"tampered signature", valid[:strings.LastIndex(valid, ".")+1] + "AAAA"},
		{"expired", expired},
		{"wrong secret", otherSecret},
		{"alg none", noneToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := s.ValidateToken(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
			assert.Nil(t, claims)
		})
	}
}
