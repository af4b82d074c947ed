package accounts

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/geocoder89/accounts/internal/domain/user"
	"github.com/geocoder89/accounts/internal/observability"
)

type EmailFinder interface {
	FindByEmail(ctx context.Context, email string) (user.User, error)
}

// Authenticator checks email/password credentials. It keeps no state between
// calls apart from a lazily built dummy hash.
type Authenticator struct {
	users  EmailFinder
	hasher PasswordHasher
	prom   *observability.Prom

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthenticator(users EmailFinder, hasher PasswordHasher, prom *observability.Prom) *Authenticator {
	return &Authenticator{users: users, hasher: hasher, prom: prom}
}

// Authenticate returns the active user owning email and password. Unknown
// email, wrong password and inactive account all yield ErrAuthFailed.
func (a *Authenticator) Authenticate(ctx context.Context, email, password string) (user.User, error) {
	ctx, span := tracer.Start(ctx, "accounts.Authenticate")
	defer span.End()

	u, err := a.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			// spend the same bcrypt time as a real check
			a.hasher.Verify(password, a.dummy())
			a.prom.ObserveLogin(false)
			return user.User{}, ErrAuthFailed
		}
		return user.User{}, fmt.Errorf("find user: %w", err)
	}

	if !a.hasher.Verify(password, u.PasswordHash) || !u.IsActive {
		a.prom.ObserveLogin(false)
		return user.User{}, ErrAuthFailed
	}

	a.prom.ObserveLogin(true)
	return u, nil
}

func (a *Authenticator) dummy() string {
	a.dummyOnce.Do(func() {
		a.dummyHash, _ = a.hasher.Hash("timing-equalizer")
	})
	return a.dummyHash
}
