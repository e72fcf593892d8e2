package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/lessonloop/gateway/internal/domain/auth"
	autherrors "github.com/lessonloop/gateway/internal/errors"
	"github.com/lessonloop/gateway/internal/testutil"
)

// setupTestRedis creates a Redis client for testing.
// Tests will be skipped if Redis is not available.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	return testutil.SetupTestRedis(t)
}

func testSession(id string) domainauth.Session {
	return domainauth.Session{
		ID:             id,
		UserID:         "user-123",
		Email:          "jane@example.com",
		Role:           domainauth.RoleTutor,
		AccessToken:    "header.payload.sig",
		RefreshToken:   "refresh-1",
		TokenExpiresAt: time.Now().Add(10 * time.Minute),
		ExpiresAt:      time.Now().Add(30 * time.Minute),
	}
}

func TestSessionStore_SaveAndGet(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStore(client)
	ctx := context.Background()

	session := testSession("sess-1")
	require.NoError(t, store.Save(ctx, session))

	retrieved, err := store.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, session.UserID, retrieved.UserID)
	assert.Equal(t, session.Role, retrieved.Role)
	assert.Equal(t, session.AccessToken, retrieved.AccessToken)
	assert.WithinDuration(t, session.ExpiresAt, retrieved.ExpiresAt, time.Second)
}

func TestSessionStore_GetNonExistent(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStore(client)
	_, err := store.Get(context.Background(), "non-existent")
	assert.Equal(t, ErrNotFound, err)
}

func TestSessionStore_SaveExpiredRejected(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStore(client)
	sess := testSession("sess-expired")
	sess.ExpiresAt = time.Now().Add(-time.Minute)

	assert.Error(t, store.Save(context.Background(), sess))
}

func TestSessionStore_Delete(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStore(client)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testSession("sess-del")))
	require.NoError(t, store.Delete(ctx, "sess-del"))

	_, err := store.Get(ctx, "sess-del")
	assert.Equal(t, ErrNotFound, err)

	// Deleting a missing or empty ID is a no-op.
	assert.NoError(t, store.Delete(ctx, "sess-del"))
	assert.NoError(t, store.Delete(ctx, ""))
}

func TestSessionStore_ExchangeFailureMarker(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStore(client)
	ctx := context.Background()

	require.NoError(t, store.MarkExchangeFailed(ctx, "sess-exchange", "invalid_grant"))

	_, err := store.Get(ctx, "sess-exchange")
	require.Error(t, err)
	assert.True(t, autherrors.IsExchangeFailure(err))
}

func TestSessionStore_CustomPrefixIsolation(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	ctx := context.Background()
	a := NewSessionStoreWithPrefix(client, "a:")
	b := NewSessionStoreWithPrefix(client, "b:")

	require.NoError(t, a.Save(ctx, testSession("shared-id")))

	_, err := b.Get(ctx, "shared-id")
	assert.Equal(t, ErrNotFound, err)
}
