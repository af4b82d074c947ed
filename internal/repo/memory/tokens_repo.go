package memory

import (
	"context"
	"sync"
	"time"

	"github.com/geocoder89/accounts/internal/domain/token"
)

type TokensRepo struct {
	mu     sync.RWMutex
	byKey  map[string]token.Token
	byUser map[string]string // {"userID": key}
}

func NewTokensRepo() *TokensRepo {
	return &TokensRepo{
		byKey:  make(map[string]token.Token),
		byUser: make(map[string]string),
	}
}

// GetOrCreate returns the user's token, storing candidateKey only if the user
// has none yet.
func (r *TokensRepo) GetOrCreate(ctx context.Context, userID, candidateKey string) (token.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if key, ok := r.byUser[userID]; ok {
		return r.byKey[key], nil
	}

	t := token.Token{
		Key:       candidateKey,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}

	r.byKey[t.Key] = t
	r.byUser[userID] = t.Key

	return t, nil
}

func (r *TokensRepo) GetByKey(ctx context.Context, key string) (token.Token, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.byKey[key]
	if !ok {
		return token.Token{}, token.ErrNotFound
	}

	return t, nil
}

// Count returns the number of stored tokens.
func (r *TokensRepo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.byKey)
}
