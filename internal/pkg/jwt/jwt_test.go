package jwt

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessToken(t *testing.T) {
	token, err := SignAccess("u1", "s1", true, time.Minute)
	require.NoError(t, err)

	claims, err := ParseAccess(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "s1", claims.SessionID)
	assert.True(t, claims.IsAdmin)

	_, err = ParseRefresh(token)
	assert.ErrorIs(t, err, ErrWrongType)
}

func TestRefreshToken(t *testing.T) {
	token, jti, err := SignRefresh("u1", "s1", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, jti)

	claims, err := ParseRefresh(token)
	require.NoError(t, err)
	assert.Equal(t, jti, claims.ID)
	assert.False(t, claims.IsAdmin)

	_, err = ParseAccess(token)
	assert.ErrorIs(t, err, ErrWrongType)
}

func TestExpiredToken(t *testing.T) {
	token, err := SignAccess("u1", "s1", false, -time.Second)
	require.NoError(t, err)

	_, err = Parse(token)
	assert.ErrorIs(t, err, jwtlib.ErrTokenExpired)
}

func TestForeignSecret(t *testing.T) {
	token, err := SignAccess("u1", "s1", false, time.Minute)
	require.NoError(t, err)

	prev := secret
	SetSecret("another-secret")
	t.Cleanup(func() { secret = prev })

	_, err = Parse(token)
	assert.Error(t, err)
}
