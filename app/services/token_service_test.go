package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecretKey = "test-secret-key-at-least-32-characters-long"

func newTestTokenService(t *testing.T, accessTTL, refreshTTL time.Duration) TokenService {
	t.Helper()
	svc, err := NewTokenService(accessTTL, refreshTTL, "fieldops", "fieldops-api", false, "", "", testSecretKey, nil)
	require.NoError(t, err)
	return svc
}

func TestNewTokenServiceRequiresSecret(t *testing.T) {
	_, err := NewTokenService(time.Hour, 24*time.Hour, "fieldops", "fieldops-api", false, "", "", "", nil)
	assert.Error(t, err)
}

func TestGenerateAndValidateTokens(t *testing.T) {
	svc := newTestTokenService(t, time.Hour, 24*time.Hour)

	accessToken, refreshToken, err := svc.GenerateTokens(42, "dispatcher")
	require.NoError(t, err)
	require.NotEmpty(t, accessToken)
	require.NotEmpty(t, refreshToken)
	assert.NotEqual(t, accessToken, refreshToken)

	claims, err := svc.ValidateToken(accessToken)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "dispatcher", claims.Role)
	assert.Equal(t, "access", claims.TokenType)
	assert.NotEmpty(t, claims.TokenID)

	refreshClaims, err := svc.ValidateToken(refreshToken)
	require.NoError(t, err)
	assert.Equal(t, "refresh", refreshClaims.TokenType)
	assert.NotEqual(t, claims.TokenID, refreshClaims.TokenID)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := newTestTokenService(t, time.Hour, 24*time.Hour)

	_, err := svc.ValidateToken("not-a-jwt")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	svc := newTestTokenService(t, time.Hour, 24*time.Hour)

	other, err := NewTokenService(time.Hour, 24*time.Hour, "fieldops", "fieldops-api", false, "", "", "a-different-secret-also-32-chars-long!!", nil)
	require.NoError(t, err)

	accessToken, _, err := other.GenerateTokens(1, "admin")
	require.NoError(t, err)

	_, err = svc.ValidateToken(accessToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	svc := newTestTokenService(t, -time.Minute, 24*time.Hour)

	accessToken, _, err := svc.GenerateTokens(7, "technician")
	require.NoError(t, err)

	_, err = svc.ValidateToken(accessToken)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestRefreshToken(t *testing.T) {
	svc := newTestTokenService(t, time.Hour, 24*time.Hour)

	_, refreshToken, err := svc.GenerateTokens(42, "dispatcher")
	require.NoError(t, err)

	newAccess, newRefresh, err := svc.RefreshToken(refreshToken)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(newAccess)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "dispatcher", claims.Role)
	assert.Equal(t, "access", claims.TokenType)

	refreshClaims, err := svc.ValidateToken(newRefresh)
	require.NoError(t, err)
	assert.Equal(t, "refresh", refreshClaims.TokenType)
}

func TestRefreshTokenRejectsAccessToken(t *testing.T) {
	svc := newTestTokenService(t, time.Hour, 24*time.Hour)

	accessToken, _, err := svc.GenerateTokens(42, "dispatcher")
	require.NoError(t, err)

	_, _, err = svc.RefreshToken(accessToken)
	assert.Error(t, err)
}

func TestRevocationWithoutRedis(t *testing.T) {
	svc := newTestTokenService(t, time.Hour, 24*time.Hour)

	accessToken, _, err := svc.GenerateTokens(42, "dispatcher")
	require.NoError(t, err)

	// Without a revocation store RevokeToken is a no-op and the token stays
	// valid until its TTL runs out.
	require.NoError(t, svc.RevokeToken(accessToken))
	assert.False(t, svc.IsTokenRevoked("any-token-id"))

	_, err = svc.ValidateToken(accessToken)
	assert.NoError(t, err)
}
