package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginAndTokenRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "alice", false)
	svc := NewAuthService(env.userRepo, "test-signing-key")

	token, loggedIn, err := svc.Login("alice@example.com", "test-password")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.False(t, claims.IsSuperuser)

	resolved, err := svc.ResolveUser(claims)
	require.NoError(t, err)
	assert.Equal(t, user.Email, resolved.Email)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "alice", false)
	svc := NewAuthService(env.userRepo, "test-signing-key")

	_, _, err := svc.Login("alice@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login("nobody@example.com", "test-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestValidateTokenRejectsForeignSignature(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "alice", false)

	issuer := NewAuthService(env.userRepo, "key-one")
	verifier := NewAuthService(env.userRepo, "key-two")

	token, err := issuer.GenerateToken(user)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.Error(t, err)
}
