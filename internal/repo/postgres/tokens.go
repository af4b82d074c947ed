package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/accounts/internal/domain/token"
	"github.com/geocoder89/accounts/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TokensRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewTokensRepo(pool *pgxpool.Pool, prom *observability.Prom) *TokensRepo {
	return &TokensRepo{pool: pool, prom: prom}
}

// GetOrCreate inserts candidateKey for the user unless a token already exists
// and returns whichever row won. auth_tokens.user_id is UNIQUE, so concurrent
// callers for the same user converge on a single row.
func (r *TokensRepo) GetOrCreate(ctx context.Context, userID, candidateKey string) (token.Token, error) {
	var t token.Token

	err := r.prom.ObserveDB("tokens.get_or_create", func() error {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO auth_tokens (key, user_id, created_at)
			VALUES ($1, $2, NOW())
			ON CONFLICT (user_id) DO NOTHING
		`, candidateKey, userID)

		if err != nil {
			return err
		}

		// read committed: this statement sees the row of a concurrent winner
		return r.pool.QueryRow(ctx, `
			SELECT key, user_id, created_at
			FROM auth_tokens
			WHERE user_id = $1
		`, userID).Scan(&t.Key, &t.UserID, &t.CreatedAt)
	})

	if err != nil {
		return token.Token{}, fmt.Errorf("get or create token: %w", err)
	}

	return t, nil
}

func (r *TokensRepo) GetByKey(ctx context.Context, key string) (token.Token, error) {
	var t token.Token

	err := r.prom.ObserveDB("tokens.get_by_key", func() error {
		return r.pool.QueryRow(ctx, `
			SELECT key, user_id, created_at
			FROM auth_tokens
			WHERE key = $1
		`, key).Scan(&t.Key, &t.UserID, &t.CreatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return token.Token{}, token.ErrNotFound
		}

		return token.Token{}, fmt.Errorf("get token by key: %w", err)
	}

	return t, nil
}
