package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSigner_RoundTrip(t *testing.T) {
	signer, err := NewSigner("test-secret", time.Hour)
	require.NoError(t, err)

	token, err := signer.GenerateToken("user-42", "ops@example.com", "Ops", []string{"inventory:view"})
	require.NoError(t, err)

	claims, err := signer.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", claims.Subject)
	assert.Equal(t, "ops@example.com", claims.Email)
	assert.True(t, claims.Has("inventory:view"))
	assert.False(t, claims.Has("inventory:adjust"))
}

func TestSigner_RejectsForeignSecret(t *testing.T) {
	a, _ := NewSigner("secret-a", time.Hour)
	b, _ := NewSigner("secret-b", time.Hour)

	token, err := a.GenerateToken("user-1", "", "", nil)
	require.NoError(t, err)

	_, err = b.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSigner_RejectsExpired(t *testing.T) {
	signer, _ := NewSigner("secret", time.Hour)
	signer.ttl = -time.Minute

	token, err := signer.GenerateToken("user-1", "", "", nil)
	require.NoError(t, err)

	_, err = signer.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewSigner_RequiresSecret(t *testing.T) {
	_, err := NewSigner("", time.Hour)
	assert.ErrorIs(t, err, ErrNoSecret)
}
