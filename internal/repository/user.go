package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/model"
)

// Common errors for user repository operations.
var (
	ErrUserNotFound = errors.New("user not found")
)

const userColumns = `id, email, google_sub, picture_url, full_name, given_name, family_name,
	email_verified, locale, hosted_domain, admin, created_at`

// UpsertUser inserts a user or refreshes the profile of the user with the
// same email. The admin flag is never cleared by a login.
func (r *Repository) UpsertUser(ctx context.Context, user *model.User) (*model.User, error) {
	query := `
		INSERT INTO users (email, google_sub, picture_url, full_name, given_name, family_name,
			email_verified, locale, hosted_domain, admin)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (email) DO UPDATE SET
			google_sub = EXCLUDED.google_sub,
			picture_url = EXCLUDED.picture_url,
			full_name = EXCLUDED.full_name,
			given_name = EXCLUDED.given_name,
			family_name = EXCLUDED.family_name,
			email_verified = EXCLUDED.email_verified,
			locale = EXCLUDED.locale,
			hosted_domain = EXCLUDED.hosted_domain,
			admin = users.admin OR EXCLUDED.admin
		RETURNING ` + userColumns

	rows, err := r.pool.Query(ctx, query,
		user.Email,
		user.GoogleSub,
		user.PictureURL,
		user.FullName,
		user.GivenName,
		user.FamilyName,
		user.EmailVerified,
		user.Locale,
		user.HostedDomain,
		user.Admin,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}
	return collectUser(rows)
}

// GetUserByID retrieves a user by their ID.
func (r *Repository) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}
	return collectUser(rows)
}

// GetUserByEmail retrieves a user by their email address.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return collectUser(rows)
}

// ListUsers returns all users in id order.
func (r *Repository) ListUsers(ctx context.Context) ([]*model.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[model.User])
	if err != nil {
		return nil, fmt.Errorf("failed to scan users: %w", err)
	}
	return users, nil
}

// SetUserAdmin grants or removes the admin flag for the user with email.
func (r *Repository) SetUserAdmin(ctx context.Context, email string, admin bool) error {
	result, err := r.pool.Exec(ctx, `UPDATE users SET admin = $2 WHERE email = $1`, email, admin)
	if err != nil {
		return fmt.Errorf("failed to update user admin flag: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func collectUser(rows pgx.Rows) (*model.User, error) {
	user, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[model.User])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return user, nil
}
