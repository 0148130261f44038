package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/model"
)

const (
	rateLimitPrincipalPrefix = "ratelimit:principal:"
	rateLimitLoginPrefix     = "ratelimit:login:"
	rateLimitPrincipalTTL    = 120 * time.Second
	rateLimitLoginTTL        = 10 * time.Second
)

// RateLimitResult contains the result of a rate limit check.
type RateLimitResult struct {
	Allowed    bool
	Remaining  int64
	ResetAt    time.Time
	RetryAfter time.Duration
}

// tokenBucketScript refills and consumes one token atomically.
var tokenBucketScript = redis.NewScript(`
	local key = KEYS[1]
	local rate = tonumber(ARGV[1])
	local burst = tonumber(ARGV[2])
	local now = tonumber(ARGV[3])
	local ttl = tonumber(ARGV[4])

	local data = redis.call('HMGET', key, 'tokens', 'last_update')
	local tokens = tonumber(data[1]) or burst
	local last_update = tonumber(data[2]) or now

	local elapsed = now - last_update
	tokens = math.min(burst, tokens + (elapsed * rate))

	local allowed = 0
	local retry_after = 0

	if tokens >= 1 then
		tokens = tokens - 1
		allowed = 1
	else
		retry_after = math.ceil((1 - tokens) / rate)
	end

	redis.call('HMSET', key, 'tokens', tokens, 'last_update', now)
	redis.call('EXPIRE', key, ttl)

	return {allowed, retry_after, math.floor(tokens)}
`)

// CheckPrincipalRateLimit spends one token from the bucket identified by
// key (see model.Principal.RateLimitKey). A zero rate means unlimited.
func (c *Cache) CheckPrincipalRateLimit(ctx context.Context, key string, limit model.RateLimitConfig) (*RateLimitResult, error) {
	if limit.RequestsPerMinute == 0 {
		return &RateLimitResult{
			Allowed:   true,
			Remaining: int64(limit.Burst),
			ResetAt:   time.Now().Add(time.Minute),
		}, nil
	}

	ratePerSecond := float64(limit.RequestsPerMinute) / 60.0
	return c.checkRateLimit(ctx, rateLimitPrincipalPrefix+key, ratePerSecond, limit.Burst, int(rateLimitPrincipalTTL.Seconds()))
}

// CheckLoginRateLimit throttles login attempts per client IP. The IP is
// hashed before it is used as a key.
func (c *Cache) CheckLoginRateLimit(ctx context.Context, ip string, ratePerSecond, burst int) (*RateLimitResult, error) {
	key := rateLimitLoginPrefix + hashIP(ip)
	return c.checkRateLimit(ctx, key, float64(ratePerSecond), burst, int(rateLimitLoginTTL.Seconds()))
}

// checkRateLimit runs the token bucket for key.
func (c *Cache) checkRateLimit(ctx context.Context, key string, rate float64, burst, ttl int) (*RateLimitResult, error) {
	now := time.Now().Unix()

	result, err := tokenBucketScript.Run(ctx, c.client,
		[]string{key},
		rate, burst, now, ttl,
	).Int64Slice()

	if err != nil {
		// Fail open.
		return &RateLimitResult{
			Allowed:   true,
			Remaining: int64(burst),
			ResetAt:   time.Now().Add(time.Minute),
		}, nil
	}

	allowed := result[0] == 1
	retryAfterSec := result[1]
	remaining := result[2]

	return &RateLimitResult{
		Allowed:    allowed,
		Remaining:  remaining,
		ResetAt:    time.Now().Add(time.Duration(float64(time.Second) / rate)),
		RetryAfter: time.Duration(retryAfterSec) * time.Second,
	}, nil
}

// hashIP returns the first 8 bytes of the SHA-256 of ip, hex encoded.
func hashIP(ip string) string {
	hash := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(hash[:8]) // 16 hex chars
}
