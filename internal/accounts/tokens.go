package accounts

import (
	"context"
	"errors"
	"log/slog"

	"github.com/geocoder89/accounts/internal/domain/token"
	"github.com/geocoder89/accounts/internal/domain/user"
	"github.com/geocoder89/accounts/internal/observability"
	"golang.org/x/sync/singleflight"
)

type TokenRepository interface {
	// GetOrCreate stores candidateKey for userID unless the user already has
	// a token, and returns the stored token either way.
	GetOrCreate(ctx context.Context, userID, candidateKey string) (token.Token, error)
	GetByKey(ctx context.Context, key string) (token.Token, error)
}

// TokenCache remembers which user a token key belongs to. Bindings never
// change, so entries only need a TTL for memory bounds.
type TokenCache interface {
	GetUserID(ctx context.Context, key string) (string, bool, error)
	SetUserID(ctx context.Context, key, userID string) error
}

type TokenIssuer struct {
	tokens TokenRepository
	users  UserRepository
	cache  TokenCache
	log    *slog.Logger
	prom   *observability.Prom
	group  singleflight.Group
	newKey func() (string, error)
}

// NewTokenIssuer builds a TokenIssuer. cache, log and prom may be nil.
func NewTokenIssuer(tokens TokenRepository, users UserRepository, cache TokenCache, log *slog.Logger, prom *observability.Prom) *TokenIssuer {
	if log == nil {
		log = slog.Default()
	}

	return &TokenIssuer{
		tokens: tokens,
		users:  users,
		cache:  cache,
		log:    log,
		prom:   prom,
		newKey: token.NewKey,
	}
}

// IssueOrReuse returns the user's existing token or creates one. At most one
// token per user is ever stored.
func (i *TokenIssuer) IssueOrReuse(ctx context.Context, u user.User) (token.Token, error) {
	ctx, span := tracer.Start(ctx, "accounts.IssueOrReuse")
	defer span.End()

	candidate, err := i.newKey()
	if err != nil {
		return token.Token{}, err
	}

	t, err := i.tokens.GetOrCreate(ctx, u.ID, candidate)
	if err != nil {
		return token.Token{}, err
	}

	i.prom.ObserveTokenIssue(t.Key == candidate)
	i.remember(ctx, t.Key, t.UserID)

	return t, nil
}

// Resolve returns the user bound to key. The user row is always re-read so
// that deactivation takes effect on the next request.
func (i *TokenIssuer) Resolve(ctx context.Context, key string) (user.User, error) {
	ctx, span := tracer.Start(ctx, "accounts.Resolve")
	defer span.End()

	if key == "" {
		return user.User{}, ErrInvalidToken
	}

	userID, ok := i.cachedUserID(ctx, key)

	if !ok {
		v, err, _ := i.group.Do(key, func() (any, error) {
			t, err := i.tokens.GetByKey(ctx, key)
			if err != nil {
				return "", err
			}

			i.remember(ctx, t.Key, t.UserID)
			return t.UserID, nil
		})

		if err != nil {
			if errors.Is(err, token.ErrNotFound) {
				return user.User{}, ErrInvalidToken
			}
			return user.User{}, err
		}

		userID = v.(string)
	}

	u, err := i.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, ErrInvalidToken
		}
		return user.User{}, err
	}

	return u, nil
}

func (i *TokenIssuer) cachedUserID(ctx context.Context, key string) (string, bool) {
	if i.cache == nil {
		return "", false
	}

	userID, ok, err := i.cache.GetUserID(ctx, key)
	if err != nil {
		// a broken cache degrades to database lookups
		i.prom.ObserveTokenCache("error")
		i.log.WarnContext(ctx, "token cache get failed", "err", err)
		return "", false
	}

	if !ok {
		i.prom.ObserveTokenCache("miss")
		return "", false
	}

	i.prom.ObserveTokenCache("hit")
	return userID, true
}

func (i *TokenIssuer) remember(ctx context.Context, key, userID string) {
	if i.cache == nil {
		return
	}

	if err := i.cache.SetUserID(ctx, key, userID); err != nil {
		i.log.WarnContext(ctx, "token cache set failed", "err", err)
	}
}
