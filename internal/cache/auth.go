package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/model"
)

const (
	principalPrefix = "auth:ctx:"
	keyIndexPrefix  = "auth:key:"

	// PrincipalTTL bounds how long a verified API key skips argon2.
	PrincipalTTL = 5 * time.Minute
)

type cachedPrincipal struct {
	UserID        int64    `json:"user_id"`
	Email         string   `json:"email"`
	Roles         []string `json:"roles"`
	RateLimitTier string   `json:"rate_limit_tier"`
	KeyID         string   `json:"key_id"`
	KeyPrefix     string   `json:"key_prefix"`
}

// GetPrincipal returns the principal cached under cacheKey, or nil on a miss.
// Unreadable entries count as misses.
func (c *Cache) GetPrincipal(ctx context.Context, cacheKey string) (*model.Principal, error) {
	data, err := c.client.Get(ctx, principalPrefix+cacheKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get principal: %w", err)
	}

	var cached cachedPrincipal
	if err := gojson.Unmarshal(data, &cached); err != nil {
		return nil, nil //nolint:nilerr
	}

	return &model.Principal{
		UserID:        cached.UserID,
		Email:         cached.Email,
		Roles:         cached.Roles,
		RateLimitTier: cached.RateLimitTier,
		Source:        model.SourceAPIKey,
		KeyID:         cached.KeyID,
		KeyPrefix:     cached.KeyPrefix,
	}, nil
}

// SetPrincipal caches an API key principal and indexes the entry under its
// key id so InvalidateAPIKey can find it.
func (c *Cache) SetPrincipal(ctx context.Context, cacheKey string, p *model.Principal) error {
	data, err := gojson.Marshal(cachedPrincipal{
		UserID:        p.UserID,
		Email:         p.Email,
		Roles:         p.Roles,
		RateLimitTier: p.RateLimitTier,
		KeyID:         p.KeyID,
		KeyPrefix:     p.KeyPrefix,
	})
	if err != nil {
		return fmt.Errorf("marshal principal: %w", err)
	}

	indexKey := keyIndexPrefix + p.KeyID
	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, principalPrefix+cacheKey, data, PrincipalTTL)
		pipe.SAdd(ctx, indexKey, cacheKey)
		pipe.Expire(ctx, indexKey, PrincipalTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("set principal: %w", err)
	}
	return nil
}

// InvalidateAPIKey drops every cached principal of keyID.
func (c *Cache) InvalidateAPIKey(ctx context.Context, keyID string) error {
	indexKey := keyIndexPrefix + keyID
	members, err := c.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return fmt.Errorf("list cached principals: %w", err)
	}

	keys := make([]string, 0, len(members)+1)
	for _, m := range members {
		keys = append(keys, principalPrefix+m)
	}
	keys = append(keys, indexKey)

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete cached principals: %w", err)
	}
	return nil
}
