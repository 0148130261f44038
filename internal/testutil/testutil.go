// Package testutil holds helpers shared by integration tests.
package testutil

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/model"
	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/migrations"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 420420

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// ResetSchema reverts every embedded migration, newest first, then applies
// them all again, leaving empty tables and a clean schema_migrations.
func ResetSchema(ctx context.Context, pool *pgxpool.Pool) error {
	ups, err := fs.Glob(migrations.FS, "*.up.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	slices.Sort(ups)

	for i := len(ups) - 1; i >= 0; i-- {
		name := strings.TrimSuffix(ups[i], ".up.sql")
		if err := execFile(ctx, pool, name+".down.sql"); err != nil {
			return err
		}
	}
	if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS schema_migrations"); err != nil {
		return fmt.Errorf("drop schema_migrations: %w", err)
	}
	for _, up := range ups {
		if err := execFile(ctx, pool, up); err != nil {
			return err
		}
	}
	return nil
}

// ResetTable reverts and reapplies a single migration, e.g. "000003_majors".
func ResetTable(ctx context.Context, pool *pgxpool.Pool, migration string) error {
	if err := execFile(ctx, pool, migration+".down.sql"); err != nil {
		return err
	}
	return execFile(ctx, pool, migration+".up.sql")
}

func execFile(ctx context.Context, pool *pgxpool.Pool, name string) error {
	sql, err := fs.ReadFile(migrations.FS, name)
	if err != nil {
		return fmt.Errorf("read migration %s: %w", name, err)
	}
	if _, err := pool.Exec(ctx, string(sql)); err != nil {
		return fmt.Errorf("apply migration %s: %w", name, err)
	}
	return nil
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ProjectRoot returns the project root directory.
func ProjectRoot() (string, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to resolve testutil path")
	}
	root := filepath.Clean(filepath.Join(filepath.Dir(filename), "..", ".."))
	return root, nil
}

// ============================================================================
// Test Data Factories
// ============================================================================

var seq atomic.Int64

// UniqueID generates a unique ID for tests.
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d-%d", prefix, time.Now().UnixNano(), seq.Add(1))
}

// UniqueEmail generates a unique ucsb.edu address for tests.
func UniqueEmail(prefix string) string {
	return UniqueID(prefix) + "@ucsb.edu"
}

// NewTestUser creates a test user with sensible defaults.
func NewTestUser(t testing.TB, email string) *model.User {
	t.Helper()
	return &model.User{
		Email:         email,
		GoogleSub:     UniqueID("sub"),
		FullName:      "Chris Gaucho",
		GivenName:     "Chris",
		FamilyName:    "Gaucho",
		EmailVerified: true,
		Locale:        "en",
		HostedDomain:  "ucsb.edu",
	}
}

// NewTestAPIKey creates a test API key with sensible defaults.
func NewTestAPIKey(t testing.TB, userID int64) *model.APIKey {
	t.Helper()
	return &model.APIKey{
		ID:            ulid.Make().String(),
		UserID:        userID,
		KeyHash:       UniqueID("hash"),
		KeyPrefix:     "a1b2c3",
		Roles:         []string{model.RoleUser},
		RateLimitTier: model.TierFree,
		Name:          "Test Key",
		CreatedAt:     time.Now().UTC(),
	}
}

// NewTestAPIKeyWithTier creates a test API key with a specific tier.
func NewTestAPIKeyWithTier(t testing.TB, userID int64, tier string) *model.APIKey {
	t.Helper()
	key := NewTestAPIKey(t, userID)
	key.RateLimitTier = tier
	return key
}

// NewTestMajor creates a valid major.
func NewTestMajor(t testing.TB, department string) *model.Major {
	t.Helper()
	return &model.Major{
		Name:          UniqueID("major"),
		Department:    department,
		DegreePursued: "BS",
	}
}

// NewTestPark creates a valid park.
func NewTestPark(t testing.TB, state string) *model.Park {
	t.Helper()
	return &model.Park{
		Name:  UniqueID("park"),
		City:  "Santa Barbara",
		State: state,
		Acres: decimal.RequireFromString("12.50"),
	}
}

// NewTestUCSBDate creates a valid date in quarter.
func NewTestUCSBDate(t testing.TB, quarter string) *model.UCSBDate {
	t.Helper()
	return &model.UCSBDate{
		QuarterYYYYQ:  quarter,
		Name:          UniqueID("date"),
		LocalDateTime: model.NewLocalDateTime(time.Date(2022, time.January, 3, 0, 0, 0, 0, time.UTC)),
	}
}

// NewTestDiningCommons creates a valid dining commons with code.
func NewTestDiningCommons(t testing.TB, code string) *model.UCSBDiningCommons {
	t.Helper()
	return &model.UCSBDiningCommons{
		Code:        code,
		Name:        strings.ToUpper(code[:1]) + code[1:],
		HasSackMeal: true,
		Latitude:    34.409953,
		Longitude:   -119.85277,
	}
}
