//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/model"
	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/testutil"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	redisURL := testutil.RequireEnv(t, "REDIS_URL")

	ctx := context.Background()
	c, err := New(ctx, redisURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	require.NoError(t, testutil.FlushRedis(ctx, c.Client()))
	return c
}

func TestPrincipalCache_RoundTrip(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	p := &model.Principal{
		UserID:        3,
		Email:         "cgaucho@ucsb.edu",
		Roles:         []string{model.RoleUser, model.RoleAdmin},
		RateLimitTier: model.TierPro,
		Source:        model.SourceAPIKey,
		KeyID:         "01HXKEY",
		KeyPrefix:     "a1b2c3",
	}

	got, err := c.GetPrincipal(ctx, "hash-1")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, c.SetPrincipal(ctx, "hash-1", p))
	got, err = c.GetPrincipal(ctx, "hash-1")
	require.NoError(t, err)
	assert.Equal(t, p, got)

	ttl, err := c.Client().TTL(ctx, principalPrefix+"hash-1").Result()
	require.NoError(t, err)
	assert.LessOrEqual(t, ttl, PrincipalTTL)
}

func TestPrincipalCache_InvalidateAPIKey(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	p := &model.Principal{UserID: 1, Roles: []string{model.RoleUser}, KeyID: "01HXA"}
	other := &model.Principal{UserID: 1, Roles: []string{model.RoleUser}, KeyID: "01HXB"}
	require.NoError(t, c.SetPrincipal(ctx, "h1", p))
	require.NoError(t, c.SetPrincipal(ctx, "h2", p))
	require.NoError(t, c.SetPrincipal(ctx, "h3", other))

	require.NoError(t, c.InvalidateAPIKey(ctx, "01HXA"))

	for _, key := range []string{"h1", "h2"} {
		got, err := c.GetPrincipal(ctx, key)
		require.NoError(t, err)
		assert.Nil(t, got, key)
	}
	got, err := c.GetPrincipal(ctx, "h3")
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestSessionRevocation(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	revoked, err := c.IsSessionRevoked(ctx, "sess-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, c.RevokeSession(ctx, "sess-1", time.Now().Add(time.Minute)))
	revoked, err = c.IsSessionRevoked(ctx, "sess-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	// Already expired sessions need no marker.
	require.NoError(t, c.RevokeSession(ctx, "sess-2", time.Now().Add(-time.Minute)))
	revoked, err = c.IsSessionRevoked(ctx, "sess-2")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestPrincipalRateLimit(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	limit := model.RateLimitConfig{RequestsPerMinute: 6, Burst: 3}

	for i := 0; i < 3; i++ {
		res, err := c.CheckPrincipalRateLimit(ctx, "key:burst", limit)
		require.NoError(t, err)
		assert.True(t, res.Allowed, "request %d", i)
	}
	res, err := c.CheckPrincipalRateLimit(ctx, "key:burst", limit)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Greater(t, res.RetryAfter, time.Duration(0))

	unlimited, err := c.CheckPrincipalRateLimit(ctx, "key:burst", model.TierConfigs[model.TierUnlimited])
	require.NoError(t, err)
	assert.True(t, unlimited.Allowed)
}
