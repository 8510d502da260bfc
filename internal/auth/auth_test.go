package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestTokenManager(t *testing.T) {
	manager, err := NewTokenManager("test-secret", WithExpiry(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, manager.Expiry())

	t.Run("Generate and parse", func(t *testing.T) {
		token, expiresAt, err := manager.Generate("user-1", "alice")
		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.WithinDuration(t, time.Now().Add(2*time.Hour), expiresAt, time.Minute)

		claims, err := manager.Parse(token)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.UserID)
		assert.Equal(t, "alice", claims.Username)
		assert.Equal(t, DefaultIssuer, claims.Issuer)
	})

	t.Run("Empty token", func(t *testing.T) {
		_, err := manager.Parse("")
		assert.ErrorIs(t, err, ErrEmptyToken)
	})

	t.Run("Tampered token", func(t *testing.T) {
		token, _, err := manager.Generate("user-1", "alice")
		require.NoError(t, err)

		_, err = manager.Parse(token + "x")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Wrong secret", func(t *testing.T) {
		other, err := NewTokenManager("other-secret")
		require.NoError(t, err)
		token, _, err := other.Generate("user-1", "alice")
		require.NoError(t, err)

		_, err = manager.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Expired token", func(t *testing.T) {
		past := time.Now().Add(-48 * time.Hour)
		old, err := NewTokenManager("test-secret", WithClock(func() time.Time { return past }))
		require.NoError(t, err)
		token, _, err := old.Generate("user-1", "alice")
		require.NoError(t, err)

		_, err = manager.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Issuer mismatch", func(t *testing.T) {
		other, err := NewTokenManager("test-secret", WithIssuer("someone-else"))
		require.NoError(t, err)
		token, _, err := other.Generate("user-1", "alice")
		require.NoError(t, err)

		_, err = manager.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestNewTokenManagerRequiresSecret(t *testing.T) {
	_, err := NewTokenManager("")
	assert.ErrorIs(t, err, ErrEmptySecret)
}

func TestHasher(t *testing.T) {
	hasher := NewHasher(bcrypt.MinCost)

	hash, err := hasher.Hash("correct-horse")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$2a$"))
	assert.True(t, hasher.Verify("correct-horse", hash))
	assert.False(t, hasher.Verify("wrong-horse", hash))

	_, err = hasher.Hash("short")
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestNewHasherCostFallback(t *testing.T) {
	hasher := NewHasher(100)
	assert.Equal(t, bcrypt.DefaultCost, hasher.cost)
}
