package accounts

import (
	"context"

	"github.com/geocoder89/accounts/internal/domain/user"
)

type UserUpdater interface {
	UpdateUser(ctx context.Context, id string, fields user.Fields) (user.User, error)
}

// ProfileUpdate is the subset of fields a user may change on their own record.
type ProfileUpdate struct {
	Email    *string
	Name     *string
	Password *string
}

type ProfileService struct {
	users UserUpdater
}

func NewProfileService(users UserUpdater) *ProfileService {
	return &ProfileService{users: users}
}

func (s *ProfileService) GetProfile(u user.User) user.Profile {
	return u.Profile()
}

// UpdateProfile always targets the id of the authenticated user passed in,
// never an id supplied by the client.
func (s *ProfileService) UpdateProfile(ctx context.Context, u user.User, upd ProfileUpdate) (user.User, error) {
	return s.users.UpdateUser(ctx, u.ID, user.Fields{
		Email:    upd.Email,
		Name:     upd.Name,
		Password: upd.Password,
	})
}
