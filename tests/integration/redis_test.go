package integration

import (
	"context"
	"testing"
	"time"

	"github.com/freelance/backend/internal/infrastructure/auth"
	"github.com/freelance/backend/internal/infrastructure/cache"
	"github.com/freelance/backend/internal/interfaces/http/middleware"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisBackedStores(t *testing.T) {
	client := NewRedis(t)
	ctx := context.Background()

	t.Run("idempotency store claims a key once", func(t *testing.T) {
		store := cache.NewRedisIdempotencyStore(client, "test:idem:")
		key := uuid.NewString()

		first, err := store.MarkProcessed(ctx, key, time.Minute)
		require.NoError(t, err)
		assert.True(t, first)

		again, err := store.MarkProcessed(ctx, key, time.Minute)
		require.NoError(t, err)
		assert.False(t, again)

		seen, err := store.IsProcessed(ctx, key)
		require.NoError(t, err)
		assert.True(t, seen)

		require.NoError(t, store.Forget(ctx, key))
		reclaimed, err := store.MarkProcessed(ctx, key, time.Minute)
		require.NoError(t, err)
		assert.True(t, reclaimed)

		require.NoError(t, store.Close())
		require.NoError(t, client.Ping(ctx).Err(), "closing the store must leave the client usable")
	})

	t.Run("token blacklist", func(t *testing.T) {
		blacklist := auth.NewRedisTokenBlacklist(client)
		jti := uuid.NewString()

		revoked, err := blacklist.IsRevoked(ctx, jti)
		require.NoError(t, err)
		assert.False(t, revoked)

		require.NoError(t, blacklist.Revoke(ctx, jti, time.Minute))
		revoked, err = blacklist.IsRevoked(ctx, jti)
		require.NoError(t, err)
		assert.True(t, revoked)

		userID := uuid.NewString()
		issued := time.Now().Add(-time.Minute)
		require.NoError(t, blacklist.RevokeUser(ctx, userID, time.Hour))

		old, err := blacklist.IsUserRevoked(ctx, userID, issued)
		require.NoError(t, err)
		assert.True(t, old)

		fresh, err := blacklist.IsUserRevoked(ctx, userID, time.Now().Add(time.Minute))
		require.NoError(t, err)
		assert.False(t, fresh)
	})

	t.Run("rate limiter shares one window", func(t *testing.T) {
		a := middleware.NewRedisRateLimiter(client, 2, time.Minute, "it:")
		b := middleware.NewRedisRateLimiter(client, 2, time.Minute, "it:")
		key := "ip:" + uuid.NewString()

		q, err := a.Allow(ctx, key)
		require.NoError(t, err)
		assert.True(t, q.Allowed)
		assert.Equal(t, 1, q.Remaining)

		q, err = b.Allow(ctx, key)
		require.NoError(t, err)
		assert.True(t, q.Allowed)

		q, err = a.Allow(ctx, key)
		require.NoError(t, err)
		assert.False(t, q.Allowed)
		assert.Equal(t, 0, q.Remaining)
		assert.True(t, q.ResetAt.After(time.Now()))
	})
}
