package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleSuperuser UserRole = "SUPERUSER"
	RoleTeacher   UserRole = "TEACHER"
	RoleInspector UserRole = "INSPECTOR"
)

// Valid reports whether the role is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleSuperuser, RoleTeacher, RoleInspector:
		return true
	default:
		return false
	}
}

// RoleAllowed reports whether role satisfies any of the required roles.
// Superusers pass every check. An empty required set only admits known roles.
func RoleAllowed(role UserRole, required ...UserRole) bool {
	if !role.Valid() {
		return false
	}
	if role == RoleSuperuser || len(required) == 0 {
		return true
	}
	for _, r := range required {
		if r == role {
			return true
		}
	}
	return false
}

// User represents an application user stored in the users table.
type User struct {
	ID           string     `db:"id" json:"id"`
	Username     string     `db:"username" json:"username"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Role         UserRole   `db:"role" json:"role"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// UserFilter captures filtering options for listing users.
type UserFilter struct {
	Role     UserRole
	Search   string
	Active   *bool
	Page     int
	PageSize int
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// Actor identifies the authenticated caller of a service operation.
type Actor struct {
	UserID string
	Role   UserRole
}
