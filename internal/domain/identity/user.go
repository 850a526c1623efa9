package identity

import (
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/mayavriksh/backend/internal/domain/shared"
)

// Role is the actor role carried in access tokens
type Role string

const (
	RoleAdmin            Role = "ADMIN"
	RoleWarehouseManager Role = "WAREHOUSE_MANAGER"
	RoleSupplier         Role = "SUPPLIER"
)

// IsValid checks if the role is known
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleWarehouseManager, RoleSupplier:
		return true
	}
	return false
}

// String returns the string representation of Role
func (r Role) String() string {
	return string(r)
}

// ParseRole parses a role name, accepting any letter case
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", shared.NewDomainError(shared.CodeValidation, "Unknown role: "+s)
	}
	return r, nil
}

// User is a marketplace account. Suppliers, warehouse managers and admins are
// all users distinguished by Role.
type User struct {
	shared.BaseEntity
	Name     string
	Email    string
	Role     Role
	IsActive bool
}

// NewUser creates an active user
func NewUser(name, email string, role Role) (*User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "User name cannot be empty")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, shared.NewDomainError(shared.CodeValidation, "Invalid email address")
	}
	if !role.IsValid() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Invalid role")
	}
	return &User{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
		Email:      strings.ToLower(email),
		Role:       role,
		IsActive:   true,
	}, nil
}

// IsSupplier returns true for active supplier accounts
func (u *User) IsSupplier() bool {
	return u.Role == RoleSupplier && u.IsActive
}

// Deactivate disables the account
func (u *User) Deactivate() {
	u.IsActive = false
}

// Actor is the authenticated caller of an application operation
type Actor struct {
	UserID uuid.UUID
	Role   Role
}

// IsAdmin reports whether the actor is an administrator
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
