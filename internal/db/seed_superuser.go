package db

import (
	"context"
	"errors"
	"log/slog"

	"github.com/geocoder89/accounts/internal/accounts"
)

// EnsureSuperuser creates the configured superuser unless that email is
// already registered. Empty email or password disables seeding.
func EnsureSuperuser(ctx context.Context, store *accounts.UserStore, email, password string, log *slog.Logger) error {
	if email == "" || password == "" {
		return nil
	}

	// check if the user exists

	_, err := store.FindByEmail(ctx, email)

	if err == nil {
		return nil
	}

	if !errors.Is(err, accounts.ErrNotFound) {
		return err
	}

	u, err := store.CreateSuperuser(ctx, email, password)

	if err != nil {
		var vErr *accounts.ValidationError
		// lost a race with another replica seeding the same account
		if errors.As(err, &vErr) {
			return nil
		}
		return err
	}

	log.InfoContext(ctx, "superuser created", "user_id", u.ID, "email", u.Email)

	return nil
}
