package auth

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "argon2id$"))

	assert.True(t, VerifyPassword("correct horse battery staple", hash))
	assert.False(t, VerifyPassword("wrong password", hash))
	assert.False(t, VerifyPassword("correct horse battery staple", "garbage"))
}

func TestHashPassword_EmptyRejected(t *testing.T) {
	_, err := HashPassword("")
	assert.Error(t, err)
}

func TestHashPassword_UniqueSalt(t *testing.T) {
	first, err := HashPassword("same password")
	require.NoError(t, err)
	second, err := HashPassword("same password")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestTokenRoundtrip(t *testing.T) {
	svc, err := NewTokenService("test-secret", 30*time.Minute)
	require.NoError(t, err)

	token, err := svc.Generate("alice", "finance")
	require.NoError(t, err)

	identity, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", identity.Username)
	assert.Equal(t, "finance", identity.Role)
}

func TestVerify_RejectsBadTokens(t *testing.T) {
	svc, err := NewTokenService("test-secret", 30*time.Minute)
	require.NoError(t, err)

	_, err = svc.Verify("not.a.token")
	assert.Error(t, err)

	other, err := NewTokenService("different-secret", 30*time.Minute)
	require.NoError(t, err)
	token, err := other.Generate("alice", "finance")
	require.NoError(t, err)
	_, err = svc.Verify(token)
	assert.Error(t, err)
}

func TestVerify_RejectsExpiredToken(t *testing.T) {
	svc, err := NewTokenService("test-secret", -time.Minute)
	require.NoError(t, err)

	token, err := svc.Generate("alice", "finance")
	require.NoError(t, err)
	_, err = svc.Verify(token)
	assert.Error(t, err)
}

func TestNewTokenService_RequiresSecret(t *testing.T) {
	_, err := NewTokenService("", time.Minute)
	assert.Error(t, err)
}

func TestExtractToken(t *testing.T) {
	token, err := ExtractToken("Bearer abc123")
	require.NoError(t, err)
	assert.Equal(t, "abc123", token)

	token, err = ExtractToken("bearer abc123")
	require.NoError(t, err)
	assert.Equal(t, "abc123", token)

	_, err = ExtractToken("")
	assert.Error(t, err)
	_, err = ExtractToken("abc123")
	assert.Error(t, err)
	_, err = ExtractToken("Basic abc123")
	assert.Error(t, err)
}

func TestUserStore_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	store, err := OpenUserStore(filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	defer store.Close()

	hash, err := HashPassword("secret password")
	require.NoError(t, err)
	require.NoError(t, store.Create(ctx, User{Username: "alice", PasswordHash: hash, Role: "finance"}))

	got, err := store.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, "finance", got.Role)
	assert.True(t, VerifyPassword("secret password", got.PasswordHash))
	assert.False(t, got.CreatedAt.IsZero())
}

func TestUserStore_DuplicateUsername(t *testing.T) {
	ctx := context.Background()
	store, err := OpenUserStore(filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Create(ctx, User{Username: "alice", PasswordHash: "h", Role: "finance"}))
	err = store.Create(ctx, User{Username: "alice", PasswordHash: "h2", Role: "hr"})
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestUserStore_UnknownUser(t *testing.T) {
	ctx := context.Background()
	store, err := OpenUserStore(filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Get(ctx, "nobody")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "users.db")

	store, err := OpenUserStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Create(ctx, User{Username: "alice", PasswordHash: "h", Role: "finance"}))
	require.NoError(t, store.Close())

	reopened, err := OpenUserStore(path)
	require.NoError(t, err)
	defer reopened.Close()
	got, err := reopened.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "finance", got.Role)
}
