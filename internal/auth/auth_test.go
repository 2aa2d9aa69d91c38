package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/bodega/pkg/types"
)

func TestGenerateAndValidateToken(t *testing.T) {
	now := time.Now()
	token, claims, err := GenerateToken("test-secret-key", now, 0)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Len(t, claims.ID, 32)
	assert.WithinDuration(t, now.Add(TokenExpiry), claims.ExpiresAt.Time, time.Second)

	got, err := ValidateToken("test-secret-key", token)
	require.NoError(t, err)
	assert.Equal(t, claims.ID, got.ID)
}

func TestValidateTokenRejects(t *testing.T) {
	token, _, err := GenerateToken("secret1", time.Now(), time.Hour)
	require.NoError(t, err)

	_, err = ValidateToken("secret2", token)
	assert.Error(t, err, "wrong secret")

	expired, _, err := GenerateToken("secret1", time.Now().Add(-2*time.Hour), time.Hour)
	require.NoError(t, err)
	_, err = ValidateToken("secret1", expired)
	assert.Error(t, err, "expired token")

	_, err = ValidateToken("secret1", "not-a-token")
	assert.Error(t, err)
}

func TestTokensAreUnique(t *testing.T) {
	_, a, err := GenerateToken("s", time.Now(), time.Hour)
	require.NoError(t, err)
	_, b, err := GenerateToken("s", time.Now(), time.Hour)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("HEMORE2026")
	require.NoError(t, err)
	assert.NotEqual(t, "HEMORE2026", hash)

	assert.NoError(t, CheckPassword(hash, "HEMORE2026"))
	assert.ErrorIs(t, CheckPassword(hash, "hemore2026"), types.ErrUnauthorized)
	assert.ErrorIs(t, CheckPassword("", "anything"), types.ErrUnauthorized)

	_, err = HashPassword("")
	assert.Error(t, err)
}

func TestGeneratePassword(t *testing.T) {
	a, err := GeneratePassword(16)
	require.NoError(t, err)
	b, err := GeneratePassword(16)
	require.NoError(t, err)
	assert.Len(t, a, 16)
	assert.NotEqual(t, a, b)
}

func TestGenerateSecret(t *testing.T) {
	a, err := GenerateSecret()
	require.NoError(t, err)
	b, err := GenerateSecret()
	require.NoError(t, err)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}
