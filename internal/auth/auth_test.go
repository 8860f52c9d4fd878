package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"banas-client/internal/config"
)

func testManager() *JWTManager {
	cfg := &config.Config{}
	cfg.DevServer.JWTSecret = "test-secret"
	cfg.DevServer.AccessMinutes = 5
	cfg.DevServer.RefreshHours = 1
	return NewJWTManager(cfg)
}

func TestJWTManager_RoundTrip(t *testing.T) {
	j := testManager()

	access, err := j.GenerateAccessToken(7, "ravi")
	require.NoError(t, err)

	claims, err := j.ValidateToken(access, KindAccess)
	require.NoError(t, err)
	assert.Equal(t, 7, claims.UserID)
	assert.Equal(t, "ravi", claims.Username)
	assert.Equal(t, "7", claims.Subject)
}

func TestJWTManager_KindsAreNotInterchangeable(t *testing.T) {
	j := testManager()

	refresh, err := j.GenerateRefreshToken(7, "ravi")
	require.NoError(t, err)

	_, err = j.ValidateToken(refresh, KindAccess)
	assert.ErrorIs(t, err, ErrWrongKind)

	_, err = j.ValidateToken(refresh, KindRefresh)
	assert.NoError(t, err)
}

func TestJWTManager_Expired(t *testing.T) {
	j := testManager()
	issued := time.Now().Add(-time.Hour)
	j.now = func() time.Time { return issued }
	token, err := j.GenerateAccessToken(1, "ravi")
	require.NoError(t, err)

	j.now = time.Now
	_, err = j.ValidateToken(token, KindAccess)
	assert.Error(t, err)
}

func TestJWTManager_WrongSecret(t *testing.T) {
	token, err := testManager().GenerateAccessToken(1, "ravi")
	require.NoError(t, err)

	other := testManager()
	other.secret = []byte("other")
	_, err = other.ValidateToken(token, KindAccess)
	assert.Error(t, err)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("banas123")
	require.NoError(t, err)

	assert.True(t, VerifyPassword(hash, "banas123"))
	assert.False(t, VerifyPassword(hash, "wrong"))
	assert.False(t, VerifyPassword("not-a-hash", "banas123"))
}
