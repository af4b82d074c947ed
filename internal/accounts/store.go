// Package accounts holds the user-account rules: identity by normalized email,
// password hashing, bearer token issuance and resolution, and profile updates.
package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/accounts/internal/domain/user"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("github.com/geocoder89/accounts/internal/accounts")

type UserRepository interface {
	Create(ctx context.Context, u user.User) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	Update(ctx context.Context, u user.User) (user.User, error)
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

// Extra carries the optional attributes of a new user. A nil IsActive means
// active.
type Extra struct {
	Name        string
	IsActive    *bool
	IsStaff     bool
	IsSuperuser bool
}

// UserStore owns the user lifecycle. Email uniqueness is enforced by the
// repository (unique index or locked insert), not by a read-then-write here.
type UserStore struct {
	repo   UserRepository
	hasher PasswordHasher
}

func NewUserStore(repo UserRepository, hasher PasswordHasher) *UserStore {
	return &UserStore{repo: repo, hasher: hasher}
}

func (s *UserStore) CreateUser(ctx context.Context, email, password string, extra Extra) (user.User, error) {
	ctx, span := tracer.Start(ctx, "accounts.CreateUser")
	defer span.End()

	email = user.NormalizeEmail(email)
	if email == "" {
		return user.User{}, errEmailRequired()
	}

	hash, err := s.hashOrUnusable(password)
	if err != nil {
		return user.User{}, err
	}

	active := true
	if extra.IsActive != nil {
		active = *extra.IsActive
	}

	u := user.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Name:         extra.Name,
		IsActive:     active,
		IsStaff:      extra.IsStaff || extra.IsSuperuser,
		IsSuperuser:  extra.IsSuperuser,
	}

	created, err := s.repo.Create(ctx, u)
	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			return user.User{}, errEmailTaken()
		}
		return user.User{}, err
	}

	return created, nil
}

func (s *UserStore) CreateSuperuser(ctx context.Context, email, password string) (user.User, error) {
	return s.CreateUser(ctx, email, password, Extra{IsStaff: true, IsSuperuser: true})
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (user.User, error) {
	email = user.NormalizeEmail(email)
	if email == "" {
		return user.User{}, ErrNotFound
	}

	return s.repo.GetByEmail(ctx, email)
}

func (s *UserStore) FindByID(ctx context.Context, id string) (user.User, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateUser applies a partial update. A non-empty password is hashed; an
// empty one is ignored. A new email is normalized and must still be unique.
func (s *UserStore) UpdateUser(ctx context.Context, id string, fields user.Fields) (user.User, error) {
	ctx, span := tracer.Start(ctx, "accounts.UpdateUser")
	defer span.End()

	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return user.User{}, err
	}

	if fields.Email != nil {
		email := user.NormalizeEmail(*fields.Email)
		if email == "" {
			return user.User{}, errEmailRequired()
		}
		u.Email = email
	}

	if fields.Name != nil {
		u.Name = *fields.Name
	}
	if fields.IsActive != nil {
		u.IsActive = *fields.IsActive
	}
	if fields.IsStaff != nil {
		u.IsStaff = *fields.IsStaff
	}
	if fields.IsSuperuser != nil {
		u.IsSuperuser = *fields.IsSuperuser
	}
	if u.IsSuperuser {
		u.IsStaff = true
	}

	if fields.Password != nil && *fields.Password != "" {
		hash, err := s.hasher.Hash(*fields.Password)
		if err != nil {
			return user.User{}, fmt.Errorf("hash password: %w", err)
		}
		u.PasswordHash = hash
	}

	updated, err := s.repo.Update(ctx, u)
	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			return user.User{}, errEmailTaken()
		}
		return user.User{}, err
	}

	return updated, nil
}

func (s *UserStore) hashOrUnusable(password string) (string, error) {
	if password == "" {
		return user.UnusablePassword, nil
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	return hash, nil
}
