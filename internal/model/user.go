package model

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is an account that can log in. Identity is an email or a phone number.
type User struct {
	ID           int       `json:"id" db:"id"`
	Identity     string    `json:"identity" db:"identity"`
	PasswordHash string    `json:"-" db:"password_hash"` // Never rendered
	Role         string    `json:"role" db:"role"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// IsAdmin reports whether the user carries the admin role
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// ValidRole reports whether role is one of the known roles
func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}
