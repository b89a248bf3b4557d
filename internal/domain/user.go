package domain

import "time"

type Role string

const (
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
)

// User represents an operator account of the ordering system.
type User struct {
	ID                  int64
	Username            string
	Email               string
	PasswordHash        string
	Role                Role
	IsActive            bool
	FailedLoginAttempts int
	LockUntil           *time.Time
	LastLogin           *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// IsLocked reports whether the account is currently locked out.
// A lock deadline in the future locks the account regardless of the
// failed attempt counter.
func (u *User) IsLocked(now time.Time) bool {
	return u.LockUntil != nil && now.Before(*u.LockUntil)
}
