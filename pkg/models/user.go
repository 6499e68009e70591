package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleManager UserRole = "manager"
	RoleTutor   UserRole = "tutor"
	RoleStudent UserRole = "student"
)

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleTutor, RoleStudent:
		return true
	}
	return false
}

// IsStaff reports whether the role may perform administrative actions.
func (r UserRole) IsStaff() bool {
	return r == RoleAdmin || r == RoleManager
}

// User is the read-only view of an account needed to address notifications.
type User struct {
	ID        string    `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	FullName  string    `db:"full_name" json:"full_name"`
	Role      UserRole  `db:"role" json:"role"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
