package memory_test

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/geocoder89/accounts/internal/domain/token"
	"github.com/geocoder89/accounts/internal/domain/user"
	"github.com/geocoder89/accounts/internal/repo/memory"
)

func TestUsersRepo_CreateRejectsDuplicateEmail(t *testing.T) {
	r := memory.NewUsersRepo()
	ctx := context.Background()

	if _, err := r.Create(ctx, user.User{ID: "1", Email: "a@b.com"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err := r.Create(ctx, user.User{ID: "2", Email: "a@b.com"})
	if !errors.Is(err, user.ErrEmailTaken) {
		t.Fatalf("got %v, want ErrEmailTaken", err)
	}
}

func TestUsersRepo_ConcurrentCreateSameEmail(t *testing.T) {
	r := memory.NewUsersRepo()
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := r.Create(ctx, user.User{ID: strconv.Itoa(i), Email: "race@x.com"})
			if err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	if created != 1 {
		t.Fatalf("got %d successful creates, want 1", created)
	}
}

func TestUsersRepo_UpdateMovesEmailIndex(t *testing.T) {
	r := memory.NewUsersRepo()
	ctx := context.Background()

	u, err := r.Create(ctx, user.User{ID: "1", Email: "old@x.com"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := r.Create(ctx, user.User{ID: "2", Email: "other@x.com"}); err != nil {
		t.Fatalf("create other: %v", err)
	}

	u.Email = "other@x.com"
	if _, err := r.Update(ctx, u); !errors.Is(err, user.ErrEmailTaken) {
		t.Fatalf("got %v, want ErrEmailTaken", err)
	}

	u.Email = "new@x.com"
	if _, err := r.Update(ctx, u); err != nil {
		t.Fatalf("update: %v", err)
	}

	if _, err := r.GetByEmail(ctx, "old@x.com"); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("old email still indexed: %v", err)
	}

	got, err := r.GetByEmail(ctx, "new@x.com")
	if err != nil || got.ID != "1" {
		t.Fatalf("lookup by new email: %+v %v", got, err)
	}
}

func TestUsersRepo_UpdateUnknownID(t *testing.T) {
	r := memory.NewUsersRepo()

	_, err := r.Update(context.Background(), user.User{ID: "missing", Email: "x@y.com"})
	if !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestTokensRepo_GetOrCreateKeepsFirstKey(t *testing.T) {
	r := memory.NewTokensRepo()
	ctx := context.Background()

	first, err := r.GetOrCreate(ctx, "u1", "key-1")
	if err != nil {
		t.Fatalf("first: %v", err)
	}

	second, err := r.GetOrCreate(ctx, "u1", "key-2")
	if err != nil {
		t.Fatalf("second: %v", err)
	}

	if first.Key != "key-1" || second.Key != "key-1" {
		t.Fatalf("got keys %q and %q, want key-1 twice", first.Key, second.Key)
	}

	if _, err := r.GetByKey(ctx, "key-2"); !errors.Is(err, token.ErrNotFound) {
		t.Fatalf("candidate key should not be stored: %v", err)
	}

	if r.Count() != 1 {
		t.Fatalf("got %d tokens, want 1", r.Count())
	}
}
