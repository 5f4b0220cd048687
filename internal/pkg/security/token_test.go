package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthTokenRoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "unit-test-secret")

	token, err := GenerateAuthToken(42, "user@example.com", "user")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := VerifyAuthToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.Equal(t, "user", claims.Role)
	assert.NotNil(t, claims.ExpiresAt)
}

func TestVerifyAuthTokenRejectsTampering(t *testing.T) {
	t.Setenv("JWT_SECRET", "unit-test-secret")

	token, err := GenerateAuthToken(42, "user@example.com", "user")
	require.NoError(t, err)

	_, err = VerifyAuthToken(token + "x")
	assert.Error(t, err)

	_, err = VerifyAuthToken("not.a.token")
	assert.Error(t, err)
}

func TestVerifyAuthTokenRejectsWrongSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "first-secret")
	token, err := GenerateAuthToken(1, "user@example.com", "user")
	require.NoError(t, err)

	t.Setenv("JWT_SECRET", "second-secret")
	_, err = VerifyAuthToken(token)
	assert.Error(t, err)
}

func TestGenerateAuthTokenWithoutSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := GenerateAuthToken(1, "user@example.com", "user")
	assert.Error(t, err)
}
