//go:build integration

package repository

import (
	"errors"
	"testing"

	"github.com/ucsb-cs156-s23/team02-s23-7pm-1/internal/testutil"
)

func TestIntegrationUserRepository_UpsertUser(t *testing.T) {
	ctx, repo := newStoreTestEnv(t)

	email := testutil.UniqueEmail("gaucho")
	first, err := repo.UpsertUser(ctx, testutil.NewTestUser(t, email))
	if err != nil {
		t.Fatalf("UpsertUser failed: %v", err)
	}
	if first.ID == 0 || first.CreatedAt.IsZero() {
		t.Errorf("UpsertUser should assign id and created_at, got %+v", first)
	}

	again := testutil.NewTestUser(t, email)
	again.FullName = "Christina Gaucho"
	second, err := repo.UpsertUser(ctx, again)
	if err != nil {
		t.Fatalf("UpsertUser (again) failed: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("UpsertUser should keep id %d, got %d", first.ID, second.ID)
	}
	if second.FullName != "Christina Gaucho" {
		t.Errorf("FullName = %q, want refreshed profile", second.FullName)
	}
}

func TestIntegrationUserRepository_AdminIsSticky(t *testing.T) {
	ctx, repo := newStoreTestEnv(t)

	email := testutil.UniqueEmail("admin")
	if _, err := repo.UpsertUser(ctx, testutil.NewTestUser(t, email)); err != nil {
		t.Fatalf("UpsertUser failed: %v", err)
	}
	if err := repo.SetUserAdmin(ctx, email, true); err != nil {
		t.Fatalf("SetUserAdmin failed: %v", err)
	}

	user, err := repo.UpsertUser(ctx, testutil.NewTestUser(t, email))
	if err != nil {
		t.Fatalf("UpsertUser failed: %v", err)
	}
	if !user.Admin {
		t.Error("login should not clear the admin flag")
	}
}

func TestIntegrationUserRepository_NotFound(t *testing.T) {
	ctx, repo := newStoreTestEnv(t)

	if _, err := repo.GetUserByID(ctx, 424242); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetUserByID: expected ErrUserNotFound, got %v", err)
	}
	if err := repo.SetUserAdmin(ctx, "nobody@ucsb.edu", true); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("SetUserAdmin: expected ErrUserNotFound, got %v", err)
	}
}

func TestIntegrationUserRepository_ListUsers(t *testing.T) {
	ctx, repo := newStoreTestEnv(t)

	for i := 0; i < 2; i++ {
		if _, err := repo.UpsertUser(ctx, testutil.NewTestUser(t, testutil.UniqueEmail("list"))); err != nil {
			t.Fatalf("UpsertUser failed: %v", err)
		}
	}

	users, err := repo.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	if len(users) != 2 {
		t.Errorf("Expected 2 users, got %d", len(users))
	}
}
