package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"
	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/model"
)

// ErrAPIKeyNotFound is returned for unknown ids and for revoking a key twice.
var ErrAPIKeyNotFound = errors.New("API key not found")

const apiKeyColumns = `id, user_id, key_hash, key_prefix, roles, rate_limit_tier, name, revoked_at, last_used_at, created_at`

// CreateAPIKey stores a freshly issued key. Only the hash of the secret
// reaches the database.
func (r *Repository) CreateAPIKey(ctx context.Context, key *model.APIKey) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO api_keys (id, user_id, key_hash, key_prefix, roles, rate_limit_tier, name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		key.ID, key.UserID, key.KeyHash, key.KeyPrefix,
		pq.Array(key.Roles), key.RateLimitTier, key.Name, key.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create API key: %w", err)
	}
	return nil
}

// GetAPIKeyByID returns the key with id, revoked or not.
func (r *Repository) GetAPIKeyByID(ctx context.Context, id string) (*model.APIKey, error) {
	keys, err := r.queryAPIKeys(ctx, `SELECT `+apiKeyColumns+` FROM api_keys WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, ErrAPIKeyNotFound
	}
	return keys[0], nil
}

// GetAPIKeysByPrefix returns the unrevoked keys sharing prefix. The
// authenticator verifies the secret against each candidate.
func (r *Repository) GetAPIKeysByPrefix(ctx context.Context, prefix string) ([]*model.APIKey, error) {
	return r.queryAPIKeys(ctx,
		`SELECT `+apiKeyColumns+` FROM api_keys WHERE key_prefix = $1 AND revoked_at IS NULL`,
		prefix)
}

// ListAPIKeysByUserID returns every key of userID for the key management
// page. Usable keys come first, most recently used on top; keys that were
// never used follow in creation order, newest first. Revoked keys close
// the list, latest revocation first.
func (r *Repository) ListAPIKeysByUserID(ctx context.Context, userID int64) ([]*model.APIKey, error) {
	return r.queryAPIKeys(ctx, `
		SELECT `+apiKeyColumns+`
		FROM api_keys
		WHERE user_id = $1
		ORDER BY revoked_at IS NOT NULL,
		         revoked_at DESC,
		         last_used_at DESC NULLS LAST,
		         created_at DESC,
		         id DESC`,
		userID)
}

// ActiveAPIKeyIDsByEmail returns the ids of the unrevoked keys owned by
// the user with email. A key's effective roles depend on its owner, so
// these are the keys whose cached principals go stale when the owner's
// admin flag changes.
func (r *Repository) ActiveAPIKeyIDsByEmail(ctx context.Context, email string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT k.id
		FROM api_keys k
		JOIN users u ON u.id = k.user_id
		WHERE u.email = $1 AND k.revoked_at IS NULL
		ORDER BY k.id`,
		email)
	if err != nil {
		return nil, fmt.Errorf("failed to list active API keys: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan API key id: %w", err)
	}
	return ids, nil
}

// RevokeAPIKey marks the key revoked. Revoking an unknown or already
// revoked key returns ErrAPIKeyNotFound.
func (r *Repository) RevokeAPIKey(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE api_keys SET revoked_at = $2 WHERE id = $1 AND revoked_at IS NULL`,
		id, time.Now())
	if err != nil {
		return fmt.Errorf("failed to revoke API key: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrAPIKeyNotFound
	}
	return nil
}

// UpdateAPIKeyLastUsed stamps the key as used now. The authenticator
// calls it off the request path.
func (r *Repository) UpdateAPIKeyLastUsed(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, `UPDATE api_keys SET last_used_at = $2 WHERE id = $1`, id, time.Now()); err != nil {
		return fmt.Errorf("failed to update API key last used: %w", err)
	}
	return nil
}

func (r *Repository) queryAPIKeys(ctx context.Context, query string, args ...any) ([]*model.APIKey, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query API keys: %w", err)
	}
	keys, err := pgx.CollectRows(rows, rowToAPIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to scan API key: %w", err)
	}
	return keys, nil
}

// rowToAPIKey reads the roles TEXT[] through lib/pq's array scanner.
func rowToAPIKey(row pgx.CollectableRow) (*model.APIKey, error) {
	var key model.APIKey
	err := row.Scan(
		&key.ID,
		&key.UserID,
		&key.KeyHash,
		&key.KeyPrefix,
		pq.Array(&key.Roles),
		&key.RateLimitTier,
		&key.Name,
		&key.RevokedAt,
		&key.LastUsedAt,
		&key.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &key, nil
}
