package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTokenService_EmptySecret(t *testing.T) {
	_, err := NewTokenService("", time.Hour)
	require.Error(t, err)
}

func TestToken_GenerateAndParse(t *testing.T) {
	t.Parallel()

	s, err := NewTokenService("super-secret", time.Hour)
	require.NoError(t, err)

	tok, exp, err := s.NewToken("alice", "user")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	session, err := s.ParseToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "alice", session.Username)
	assert.Equal(t, "user", session.Role)
	assert.WithinDuration(t, exp, session.ExpiresAt, time.Second)
}

func TestToken_Expired(t *testing.T) {
	t.Parallel()

	s, err := NewTokenService("secret", -time.Minute)
	require.NoError(t, err)

	tok, _, err := s.NewToken("alice", "user")
	require.NoError(t, err)

	_, err = s.ParseToken(tok)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestToken_WrongSecret(t *testing.T) {
	t.Parallel()

	signer, err := NewTokenService("right-secret", time.Hour)
	require.NoError(t, err)
	verifier, err := NewTokenService("wrong-secret", time.Hour)
	require.NoError(t, err)

	tok, _, err := signer.NewToken("bob", "admin")
	require.NoError(t, err)

	_, err = verifier.ParseToken(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
