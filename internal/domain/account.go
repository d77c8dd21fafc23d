package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role is the capability level of an account.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Account represents an accounts row.
type Account struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Caller is the authenticated identity an operation runs on behalf of.
// The zero value is an anonymous caller.
type Caller struct {
	AccountID uuid.UUID
	Role      Role
}

// Authenticated reports whether the caller carries an account identity.
func (c Caller) Authenticated() bool {
	return c.AccountID != uuid.Nil && c.Role.Valid()
}

// IsAdmin reports whether the caller holds the administrator role.
func (c Caller) IsAdmin() bool {
	return c.Authenticated() && c.Role == RoleAdmin
}
