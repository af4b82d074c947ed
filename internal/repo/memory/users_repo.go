package memory

import (
	"context"
	"sync"
	"time"

	"github.com/geocoder89/accounts/internal/domain/user"
)

// UsersRepo keeps users in memory. The email index is updated under the same
// lock as the record so uniqueness holds under concurrent writers.
type UsersRepo struct {
	mu      sync.RWMutex
	items   map[string]user.User // {"id": user}
	byEmail map[string]string    // {"email": id}
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{
		items:   make(map[string]user.User),
		byEmail: make(map[string]string),
	}
}

func (r *UsersRepo) Create(ctx context.Context, u user.User) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byEmail[u.Email]; taken {
		return user.User{}, user.ErrEmailTaken
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	r.items[u.ID] = u
	r.byEmail[u.Email] = u.ID

	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	return r.items[id], nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.items[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	return u, nil
}

func (r *UsersRepo) Update(ctx context.Context, u user.User) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.items[u.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	if u.Email != existing.Email {
		if _, taken := r.byEmail[u.Email]; taken {
			return user.User{}, user.ErrEmailTaken
		}
		delete(r.byEmail, existing.Email)
		r.byEmail[u.Email] = u.ID
	}

	u.CreatedAt = existing.CreatedAt
	u.UpdatedAt = time.Now().UTC()
	r.items[u.ID] = u

	return u, nil
}
