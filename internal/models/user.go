package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleTenant    UserRole = "TENANT"
	RoleCollector UserRole = "COLLECTOR"
	RoleManager   UserRole = "MANAGER"
	RoleAdmin     UserRole = "ADMIN"
)

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleTenant, RoleCollector, RoleManager, RoleAdmin:
		return true
	}
	return false
}

// User represents an account that can authenticate against the API.
type User struct {
	ID           string     `db:"id" json:"id" yaml:"id"`
	Email        string     `db:"email" json:"email" yaml:"email"`
	PasswordHash string     `db:"password_hash" json:"-" yaml:"passwordHash"`
	FullName     string     `db:"full_name" json:"fullName" yaml:"fullName"`
	Role         UserRole   `db:"role" json:"role" yaml:"role"`
	Active       bool       `db:"active" json:"active" yaml:"active"`
	LastLogin    *time.Time `db:"last_login" json:"lastLogin,omitempty" yaml:"-"`
}

// Actor identifies who invokes a workflow operation.
type Actor struct {
	UserID string
	Role   UserRole
}

// HasRole reports whether the actor holds any of the given roles.
func (a Actor) HasRole(roles ...UserRole) bool {
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}
