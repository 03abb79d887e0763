package core

import (
	"context"
	"time"
)

// Roles a user can hold. Admins may change company settings and lock periods.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// User is an authenticated account scoped to one company.
type User struct {
	ID           int       `json:"id"`
	CompanyID    int       `json:"company_id"`
	CompanyCode  string    `json:"company_code"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// NewUser holds the fields for creating an account. PasswordHash must already
// be hashed; the service never sees plaintext.
type NewUser struct {
	CompanyID    int
	Username     string
	Email        string
	PasswordHash string
	Role         string
}

// UserService provides user lookup operations.
type UserService interface {
	// GetByUsername finds an active user by username. Usernames are global.
	GetByUsername(ctx context.Context, username string) (*User, error)

	// GetByID returns a user by primary key.
	GetByID(ctx context.Context, userID int) (*User, error)

	// CreateUser inserts an active account.
	CreateUser(ctx context.Context, input NewUser) (*User, error)
}
