package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/auth"
	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/metrics"
	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/model"
	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/repository"
)

// Account errors.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrKeyNotFound  = errors.New("API key not found or already revoked")
	ErrInvalidRole  = errors.New("invalid role")
	ErrRoleNotHeld  = errors.New("cannot grant a role the caller does not hold")
)

// UserStore persists users.
type UserStore interface {
	UpsertUser(ctx context.Context, user *model.User) (*model.User, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	ListUsers(ctx context.Context) ([]*model.User, error)
	SetUserAdmin(ctx context.Context, email string, admin bool) error
}

// KeyStore persists API keys.
type KeyStore interface {
	CreateAPIKey(ctx context.Context, key *model.APIKey) error
	GetAPIKeyByID(ctx context.Context, id string) (*model.APIKey, error)
	ListAPIKeysByUserID(ctx context.Context, userID int64) ([]*model.APIKey, error)
	RevokeAPIKey(ctx context.Context, id string) error
	ActiveAPIKeyIDsByEmail(ctx context.Context, email string) ([]string, error)
}

// KeyCache drops cached credentials of revoked keys and of keys whose
// owner changed roles.
type KeyCache interface {
	InvalidateAPIKey(ctx context.Context, keyID string) error
}

// AccountsConfig configures Accounts.
type AccountsConfig struct {
	Users    UserStore
	Keys     KeyStore
	Cache    KeyCache
	Recorder metrics.Recorder
	Logger   *slog.Logger
	// IsAdminEmail grants ROLE_ADMIN at login.
	IsAdminEmail func(email string) bool
	// KeyEnv is auth.EnvLive or auth.EnvTest.
	KeyEnv string
}

// Accounts manages users and their API keys.
type Accounts struct {
	cfg AccountsConfig
	now func() time.Time
}

// NewAccounts creates an Accounts service.
func NewAccounts(cfg AccountsConfig) *Accounts {
	if cfg.Recorder == nil {
		cfg.Recorder = metrics.NewNoop()
	}
	if cfg.IsAdminEmail == nil {
		cfg.IsAdminEmail = func(string) bool { return false }
	}
	if cfg.KeyEnv == "" {
		cfg.KeyEnv = auth.EnvLive
	}
	return &Accounts{cfg: cfg, now: time.Now}
}

// Login records a successful Google login and returns the stored user.
// Admin emails are promoted; existing admins stay admins.
func (a *Accounts) Login(ctx context.Context, profile *model.User) (*model.User, error) {
	profile.Email = strings.ToLower(strings.TrimSpace(profile.Email))
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	profile.Admin = a.cfg.IsAdminEmail(profile.Email)

	user, err := a.cfg.Users.UpsertUser(ctx, profile)
	if err != nil {
		a.cfg.Recorder.IncLogin(metrics.LoginFailed)
		return nil, fmt.Errorf("upsert user: %w", err)
	}

	a.cfg.Recorder.IncLogin(metrics.LoginSucceeded)
	a.cfg.Logger.Info("user_logged_in",
		slog.Int64("user_id", user.ID),
		slog.Bool("admin", user.Admin),
	)
	return user, nil
}

// User returns the user with id.
func (a *Accounts) User(ctx context.Context, id int64) (*model.User, error) {
	user, err := a.cfg.Users.GetUserByID(ctx, id)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// Users returns every user ordered by id.
func (a *Accounts) Users(ctx context.Context) ([]*model.User, error) {
	users, err := a.cfg.Users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// SetAdmin grants or removes ROLE_ADMIN for the user with email. Cached
// principals of the user's keys are dropped so the change applies to
// the next request rather than after the cache entry expires.
func (a *Accounts) SetAdmin(ctx context.Context, email string, admin bool) error {
	email = strings.ToLower(strings.TrimSpace(email))
	err := a.cfg.Users.SetUserAdmin(ctx, email, admin)
	if errors.Is(err, repository.ErrUserNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("set admin: %w", err)
	}
	a.cfg.Logger.Info("user_admin_changed", slog.Bool("admin", admin))

	if a.cfg.Cache == nil {
		return nil
	}
	ids, err := a.cfg.Keys.ActiveAPIKeyIDsByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("list keys to invalidate: %w", err)
	}
	for _, id := range ids {
		if err := a.cfg.Cache.InvalidateAPIKey(ctx, id); err != nil {
			return fmt.Errorf("invalidate cached key %s: %w", id, err)
		}
	}
	return nil
}

// CreateAPIKey issues a key for the caller. Requested roles default to
// ROLE_USER and may not exceed the caller's own.
func (a *Accounts) CreateAPIKey(ctx context.Context, caller *model.Principal, req model.APIKeyCreateRequest) (*model.APIKeyCreateResponse, error) {
	roles := req.Roles
	if len(roles) == 0 {
		roles = []string{model.RoleUser}
	}
	for _, role := range roles {
		if !slices.Contains(model.ValidRoles, role) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidRole, role)
		}
		if !caller.HasRole(role) {
			return nil, fmt.Errorf("%w: %s", ErrRoleNotHeld, role)
		}
	}

	key, plaintext, err := a.issue(ctx, caller.UserID, model.NormalizeRoles(roles), model.TierFree, req.Name)
	if err != nil {
		return nil, err
	}

	a.cfg.Logger.Info("api_key_created",
		slog.String("key_id", key.ID),
		slog.String("key_prefix", key.KeyPrefix),
		slog.Int64("user_id", key.UserID),
	)
	return createResponse(key, plaintext), nil
}

// ListAPIKeys returns the keys of userID without secrets.
func (a *Accounts) ListAPIKeys(ctx context.Context, userID int64) ([]model.APIKeyResponse, error) {
	keys, err := a.cfg.Keys.ListAPIKeysByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list API keys: %w", err)
	}
	out := make([]model.APIKeyResponse, 0, len(keys))
	for _, k := range keys {
		out = append(out, k.ToResponse())
	}
	return out, nil
}

// RevokeAPIKey revokes a key owned by userID. Keys of other users are
// reported as not found.
func (a *Accounts) RevokeAPIKey(ctx context.Context, userID int64, keyID string) error {
	if _, err := a.ownedActiveKey(ctx, userID, keyID); err != nil {
		return err
	}
	if err := a.revoke(ctx, keyID); err != nil {
		return err
	}
	a.cfg.Logger.Info("api_key_revoked", slog.String("key_id", keyID), slog.Int64("user_id", userID))
	return nil
}

// RotateAPIKey issues a replacement with the same roles, tier and name
// and revokes the old key.
func (a *Accounts) RotateAPIKey(ctx context.Context, userID int64, keyID string) (*model.APIKeyRotateResponse, error) {
	old, err := a.ownedActiveKey(ctx, userID, keyID)
	if err != nil {
		return nil, err
	}

	key, plaintext, err := a.issue(ctx, old.UserID, old.Roles, old.RateLimitTier, old.Name)
	if err != nil {
		return nil, err
	}
	// The new key exists; a failed revoke leaves both usable and is
	// reported to the caller.
	if err := a.revoke(ctx, old.ID); err != nil {
		return nil, err
	}

	a.cfg.Logger.Info("api_key_rotated",
		slog.String("old_key_id", old.ID),
		slog.String("new_key_id", key.ID),
		slog.Int64("user_id", userID),
	)
	return &model.APIKeyRotateResponse{
		OldKeyID:        old.ID,
		OldKeyRevokedAt: a.now(),
		NewKey:          *createResponse(key, plaintext),
	}, nil
}

func (a *Accounts) issue(ctx context.Context, userID int64, roles []string, tier, name string) (*model.APIKey, string, error) {
	generated, err := auth.GenerateAPIKey(a.cfg.KeyEnv)
	if err != nil {
		return nil, "", fmt.Errorf("generate API key: %w", err)
	}

	key := &model.APIKey{
		ID:            ulid.Make().String(),
		UserID:        userID,
		KeyHash:       generated.Hash,
		KeyPrefix:     generated.Prefix,
		Roles:         roles,
		RateLimitTier: tier,
		Name:          name,
		CreatedAt:     a.now().UTC(),
	}
	if err := a.cfg.Keys.CreateAPIKey(ctx, key); err != nil {
		return nil, "", fmt.Errorf("store API key: %w", err)
	}
	a.cfg.Recorder.IncAPIKeyIssued()
	return key, generated.Plaintext, nil
}

func (a *Accounts) ownedActiveKey(ctx context.Context, userID int64, keyID string) (*model.APIKey, error) {
	key, err := a.cfg.Keys.GetAPIKeyByID(ctx, keyID)
	if errors.Is(err, repository.ErrAPIKeyNotFound) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get API key: %w", err)
	}
	if key.UserID != userID || key.IsRevoked() {
		return nil, ErrKeyNotFound
	}
	return key, nil
}

func (a *Accounts) revoke(ctx context.Context, keyID string) error {
	err := a.cfg.Keys.RevokeAPIKey(ctx, keyID)
	if errors.Is(err, repository.ErrAPIKeyNotFound) {
		return ErrKeyNotFound
	}
	if err != nil {
		return fmt.Errorf("revoke API key: %w", err)
	}
	if a.cfg.Cache != nil {
		if err := a.cfg.Cache.InvalidateAPIKey(ctx, keyID); err != nil {
			a.cfg.Logger.Warn("api_key_cache_invalidation_failed",
				slog.String("key_id", keyID),
				slog.String("error", err.Error()),
			)
		}
	}
	return nil
}

func createResponse(key *model.APIKey, plaintext string) *model.APIKeyCreateResponse {
	return &model.APIKeyCreateResponse{
		ID:            key.ID,
		Key:           plaintext,
		Name:          key.Name,
		KeyPrefix:     key.KeyPrefix,
		Roles:         key.Roles,
		RateLimitTier: key.RateLimitTier,
		CreatedAt:     key.CreatedAt,
	}
}
