package postgres_test

import (
	"context"
	"errors"
	"os"
	"strconv"
	"testing"

	"github.com/geocoder89/accounts/internal/db"
	"github.com/geocoder89/accounts/internal/domain/token"
	"github.com/geocoder89/accounts/internal/domain/user"
	"github.com/geocoder89/accounts/internal/observability"
	"github.com/geocoder89/accounts/internal/repo/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"golang.org/x/sync/errgroup"
)

// setupPool needs TEST_DB_DSN pointing at a disposable database.
func setupPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}

	ctx := context.Background()

	pool, err := db.NewPool(ctx, dsn, 8)
	if err != nil {
		t.Fatalf("Failed to create pgx pool: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := db.Migrate(ctx, pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	if _, err := pool.Exec(ctx, `TRUNCATE auth_tokens, users CASCADE`); err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}

	return pool
}

func newUser(email string) user.User {
	return user.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: user.UnusablePassword,
		IsActive:     true,
	}
}

func TestUsersRepo_CreateAndGet(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()
	r := postgres.NewUsersRepo(pool, nil)

	created, err := r.Create(ctx, newUser("u@x.com"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.CreatedAt.IsZero() {
		t.Fatalf("created_at not returned")
	}

	byEmail, err := r.GetByEmail(ctx, "u@x.com")
	if err != nil || byEmail.ID != created.ID {
		t.Fatalf("get by email: %+v, %v", byEmail, err)
	}

	byID, err := r.GetByID(ctx, created.ID)
	if err != nil || byID.Email != "u@x.com" {
		t.Fatalf("get by id: %+v, %v", byID, err)
	}

	if _, err := r.Create(ctx, newUser("u@x.com")); !errors.Is(err, user.ErrEmailTaken) {
		t.Fatalf("duplicate: got %v, want ErrEmailTaken", err)
	}
}

func TestUsersRepo_NotFound(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()
	r := postgres.NewUsersRepo(pool, nil)

	tests := []struct {
		name string
		call func() error
	}{
		{name: "unknown email", call: func() error { _, err := r.GetByEmail(ctx, "none@x.com"); return err }},
		{name: "unknown id", call: func() error { _, err := r.GetByID(ctx, uuid.NewString()); return err }},
		{name: "malformed id", call: func() error { _, err := r.GetByID(ctx, "not-a-uuid"); return err }},
		{name: "update unknown", call: func() error { _, err := r.Update(ctx, newUser("z@x.com")); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, user.ErrNotFound) {
				t.Fatalf("got %v, want ErrNotFound", err)
			}
		})
	}
}

func TestUsersRepo_Update(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()
	r := postgres.NewUsersRepo(pool, nil)

	a, _ := r.Create(ctx, newUser("a@x.com"))
	if _, err := r.Create(ctx, newUser("b@x.com")); err != nil {
		t.Fatalf("create b: %v", err)
	}

	a.Name = "Alice"
	updated, err := r.Update(ctx, a)
	if err != nil || updated.Name != "Alice" {
		t.Fatalf("update: %+v, %v", updated, err)
	}

	a.Email = "b@x.com"
	if _, err := r.Update(ctx, a); !errors.Is(err, user.ErrEmailTaken) {
		t.Fatalf("got %v, want ErrEmailTaken", err)
	}
}

func TestTokensRepo_ConcurrentGetOrCreate(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()

	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)

	users := postgres.NewUsersRepo(pool, prom)
	tokens := postgres.NewTokensRepo(pool, prom)

	u, err := users.Create(ctx, newUser("t@x.com"))
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	keys := make([]string, 16)
	var g errgroup.Group
	for i := range keys {
		g.Go(func() error {
			tok, err := tokens.GetOrCreate(ctx, u.ID, "candidate-"+strconv.Itoa(i))
			keys[i] = tok.Key
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("get or create: %v", err)
	}

	for _, k := range keys {
		if k != keys[0] {
			t.Fatalf("callers saw different keys: %v", keys)
		}
	}

	var n int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM auth_tokens WHERE user_id = $1`, u.ID).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("stored %d tokens, want 1", n)
	}

	got, err := tokens.GetByKey(ctx, keys[0])
	if err != nil || got.UserID != u.ID {
		t.Fatalf("get by key: %+v, %v", got, err)
	}

	if _, err := tokens.GetByKey(ctx, "missing"); !errors.Is(err, token.ErrNotFound) {
		t.Fatalf("got %v, want token.ErrNotFound", err)
	}

	if got := testutil.CollectAndCount(prom.DbQueryDuration); got == 0 {
		t.Fatalf("expected db query observations")
	}
}
