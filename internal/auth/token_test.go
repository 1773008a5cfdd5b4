package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenService_RoundTrip(t *testing.T) {
	tokens := NewTokenService("secret", 2*time.Hour)

	signed, err := tokens.Issue("user-1", "9876543210")
	require.NoError(t, err)

	claims, err := tokens.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "9876543210", claims.Phone)
}

func TestTokenService_RejectsExpired(t *testing.T) {
	tokens := NewTokenService("secret", 2*time.Hour)
	tokens.now = func() time.Time { return time.Now().Add(-3 * time.Hour) }

	signed, err := tokens.Issue("user-1", "9876543210")
	require.NoError(t, err)

	_, err = tokens.Verify(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_RejectsWrongSecret(t *testing.T) {
	signed, err := NewTokenService("other", time.Hour).Issue("user-1", "9876543210")
	require.NoError(t, err)

	_, err = NewTokenService("secret", time.Hour).Verify(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_RejectsUnsignedAndGarbage(t *testing.T) {
	tokens := NewTokenService("secret", time.Hour)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "user-1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for _, tok := range []string{unsigned, "", "not.a.token"} {
		_, err := tokens.Verify(tok)
		assert.ErrorIs(t, err, ErrInvalidToken)
	}
}
