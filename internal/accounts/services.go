package accounts

import (
	"log/slog"

	"github.com/geocoder89/accounts/internal/observability"
)

// Services bundles the account components the HTTP layer depends on.
type Services struct {
	Users    *UserStore
	Authn    *Authenticator
	Tokens   *TokenIssuer
	Gate     *Gate
	Profiles *ProfileService
}

// NewServices wires the account components over one pair of repositories.
// cache, log and prom may be nil.
func NewServices(users UserRepository, tokens TokenRepository, cache TokenCache, hasher PasswordHasher, log *slog.Logger, prom *observability.Prom) *Services {
	store := NewUserStore(users, hasher)
	issuer := NewTokenIssuer(tokens, users, cache, log, prom)

	return &Services{
		Users:    store,
		Authn:    NewAuthenticator(store, hasher, prom),
		Tokens:   issuer,
		Gate:     NewGate(issuer),
		Profiles: NewProfileService(store),
	}
}
