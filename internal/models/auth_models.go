package models

import "time"

// Employee roles
const (
	RoleEmployer = "employer"
	RoleManager  = "manager"
	RoleEmployee = "employee"
)

// Employee account statuses
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Employee is a user of the dashboard. The phone number doubles as the login name.
type Employee struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	Phone        string    `json:"phone"`
	Status       string    `json:"status"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsActive reports whether the employee may log in and act.
func (e *Employee) IsActive() bool {
	return e.Status == StatusActive
}

// IsAdmin reports whether the employee is an employer or a manager.
func (e *Employee) IsAdmin() bool {
	return IsAdminRole(e.Role)
}

// IsAdminRole reports whether role grants back-office access.
func IsAdminRole(role string) bool {
	return role == RoleEmployer || role == RoleManager
}

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	switch role {
	case RoleEmployer, RoleManager, RoleEmployee:
		return true
	}
	return false
}

// ValidStatus reports whether status is one of the known account statuses.
func ValidStatus(status string) bool {
	return status == StatusActive || status == StatusInactive
}

// EmployeeFilters narrows employee listings.
type EmployeeFilters struct {
	Role     *string
	Status   *string
	Search   *string
	Page     int
	PageSize int
}

// Credentials for the JSON login request
type Credentials struct {
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse is returned by both login endpoints.
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	Employee    *Employee `json:"employee,omitempty"`
}
