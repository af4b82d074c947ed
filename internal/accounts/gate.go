package accounts

import (
	"context"
	"errors"

	"github.com/geocoder89/accounts/internal/domain/user"
)

type TokenResolver interface {
	Resolve(ctx context.Context, key string) (user.User, error)
}

// Gate maps a presented bearer key to an authenticated user.
type Gate struct {
	tokens TokenResolver
}

func NewGate(tokens TokenResolver) *Gate {
	return &Gate{tokens: tokens}
}

// AuthenticateRequest is read-only. Unknown keys and inactive users are both
// ErrUnauthenticated; storage failures are returned as is.
func (g *Gate) AuthenticateRequest(ctx context.Context, key string) (user.User, error) {
	u, err := g.tokens.Resolve(ctx, key)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			return user.User{}, ErrUnauthenticated
		}
		return user.User{}, err
	}

	if !u.IsActive {
		return user.User{}, ErrUnauthenticated
	}

	return u, nil
}
