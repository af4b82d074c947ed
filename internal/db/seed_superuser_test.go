package db

import (
	"context"
	"testing"

	"github.com/geocoder89/accounts/internal/accounts"
	"github.com/geocoder89/accounts/internal/repo/memory"
	"github.com/geocoder89/accounts/internal/security"
	"golang.org/x/crypto/bcrypt"
)

func TestEnsureSuperuser(t *testing.T) {
	ctx := context.Background()
	store := accounts.NewUserStore(memory.NewUsersRepo(), security.NewHasher(bcrypt.MinCost))

	if err := EnsureSuperuser(ctx, store, "", "", quietLog()); err != nil {
		t.Fatalf("disabled seeding should be a no-op: %v", err)
	}

	if err := EnsureSuperuser(ctx, store, "Admin@Gmail.com", "password123", quietLog()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	// second run is idempotent
	if err := EnsureSuperuser(ctx, store, "admin@gmail.com", "password123", quietLog()); err != nil {
		t.Fatalf("reseed: %v", err)
	}

	u, err := store.FindByEmail(ctx, "admin@gmail.com")
	if err != nil {
		t.Fatalf("find: %v", err)
	}

	if !u.IsSuperuser || !u.IsStaff {
		t.Fatalf("seeded user is not a superuser: %+v", u)
	}
}
