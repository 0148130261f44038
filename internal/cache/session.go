package cache

import (
	"context"
	"fmt"
	"time"
)

const revokedSessionPrefix = "session:revoked:"

// RevokeSession marks a session id as logged out until it would have expired.
func (c *Cache) RevokeSession(ctx context.Context, sessionID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := c.client.Set(ctx, revokedSessionPrefix+sessionID, "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// IsSessionRevoked reports whether RevokeSession was called for sessionID.
func (c *Cache) IsSessionRevoked(ctx context.Context, sessionID string) (bool, error) {
	n, err := c.client.Exists(ctx, revokedSessionPrefix+sessionID).Result()
	if err != nil {
		return false, fmt.Errorf("check session: %w", err)
	}
	return n > 0, nil
}
