package models

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleStudent UserRole = "Student"
	RoleCoach   UserRole = "Coach"
	RoleAdmin   UserRole = "Admin"
)

// IsValid reports whether the role is one of the known roles.
func (r UserRole) IsValid() bool {
	switch r {
	case RoleStudent, RoleCoach, RoleAdmin:
		return true
	}
	return false
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
