package entity

import (
	"time"
)

// User is the aggregate root for the account domain.
// Password holds a bcrypt hash and never leaves the service layer.
// ProfileImage is the object key of the avatar, empty when none is set.
type User struct {
	ID           string
	Email        string
	Password     string
	FullName     string
	ProfileImage string
	Role         Role
	Active       bool
	Verified     bool
	LastLogin    time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity is the value the token issuer signs. It is derived from a User
// and carried in access token claims.
type Identity struct {
	UserID   string
	Email    string
	Role     Role
	Verified bool
}

func (u *User) Identity() Identity {
	return Identity{UserID: u.ID, Email: u.Email, Role: u.Role, Verified: u.Verified}
}
