package domain

import (
	"slices"
	"time"
)

type Role string

const (
	RoleUser       Role = "USER"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPER_ADMIN"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// Staff reports whether the role may enter the back-office.
func (r Role) Staff() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

func (u User) Principal() Principal {
	return Principal{UserID: u.ID, Email: u.Email, Role: u.Role}
}

// Principal is the authenticated caller of an operation. The zero value is
// an anonymous shopper.
type Principal struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
}

func (p Principal) Authenticated() bool {
	return p.UserID != ""
}

func (p Principal) HasRole(roles ...Role) bool {
	return p.Authenticated() && slices.Contains(roles, p.Role)
}
