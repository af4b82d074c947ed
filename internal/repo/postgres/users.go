package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/accounts/internal/domain/user"
	"github.com/geocoder89/accounts/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	uniqueViolation           = "23505"
	invalidTextRepresentation = "22P02" // e.g. an id that is not a uuid
)

const userColumns = `id, email, password_hash, name, is_active, is_staff, is_superuser, created_at, updated_at`

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

func (r *UsersRepo) Create(ctx context.Context, u user.User) (user.User, error) {
	var out user.User

	err := r.prom.ObserveDB("users.create", func() error {
		return scanUser(r.pool.QueryRow(
			ctx,
			`INSERT INTO users (id, email, password_hash, name, is_active, is_staff, is_superuser, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
			RETURNING `+userColumns,
			u.ID, u.Email, u.PasswordHash, u.Name, u.IsActive, u.IsStaff, u.IsSuperuser,
		), &out)
	})

	if err != nil {
		if hasCode(err, uniqueViolation) {
			return user.User{}, user.ErrEmailTaken
		}

		return user.User{}, fmt.Errorf("insert user: %w", err)
	}

	return out, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User

	err := r.prom.ObserveDB("users.get_by_email", func() error {
		return scanUser(r.pool.QueryRow(
			ctx,
			`SELECT `+userColumns+`
			FROM users
			WHERE email = $1`,
			email,
		), &u)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	var u user.User

	err := r.prom.ObserveDB("users.get_by_id", func() error {
		return scanUser(r.pool.QueryRow(
			ctx,
			`SELECT `+userColumns+`
			FROM users
			WHERE id = $1`,
			id,
		), &u)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || hasCode(err, invalidTextRepresentation) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, fmt.Errorf("get user by id: %w", err)
	}
	return u, nil
}

// Update overwrites every mutable column of the row identified by u.ID.
func (r *UsersRepo) Update(ctx context.Context, u user.User) (user.User, error) {
	var out user.User

	err := r.prom.ObserveDB("users.update", func() error {
		return scanUser(r.pool.QueryRow(
			ctx,
			`UPDATE users
			SET email = $2,
				password_hash = $3,
				name = $4,
				is_active = $5,
				is_staff = $6,
				is_superuser = $7,
				updated_at = NOW()
			WHERE id = $1
			RETURNING `+userColumns,
			u.ID, u.Email, u.PasswordHash, u.Name, u.IsActive, u.IsStaff, u.IsSuperuser,
		), &out)
	})

	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows), hasCode(err, invalidTextRepresentation):
			return user.User{}, user.ErrNotFound
		case hasCode(err, uniqueViolation):
			return user.User{}, user.ErrEmailTaken
		}

		return user.User{}, fmt.Errorf("update user: %w", err)
	}

	return out, nil
}

func scanUser(row pgx.Row, u *user.User) error {
	return row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.Name,
		&u.IsActive,
		&u.IsStaff,
		&u.IsSuperuser,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
}

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError

	return errors.As(err, &pgErr) && pgErr.Code == code
}
