package user

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already registered")
)

// UnusablePassword is stored for accounts created without a password.
// It is not a valid bcrypt hash, so it never verifies.
const UnusablePassword = "!"

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	Name         string    `json:"name"`
	IsActive     bool      `json:"isActive"`
	IsStaff      bool      `json:"isStaff"`
	IsSuperuser  bool      `json:"isSuperuser"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Profile is the public view of a user returned by the profile endpoints.
type Profile struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (u User) Profile() Profile {
	return Profile{Email: u.Email, Name: u.Name}
}

// HasAdminCapability reports whether u may use administrative features.
// Superusers are always staff.
func HasAdminCapability(u User) bool {
	return u.IsStaff || u.IsSuperuser
}

// NormalizeEmail trims surrounding whitespace and lower-cases the address so
// that uniqueness checks are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Fields is a partial update of a user. Nil pointers leave the field unchanged.
type Fields struct {
	Email       *string
	Name        *string
	Password    *string
	IsActive    *bool
	IsStaff     *bool
	IsSuperuser *bool
}
