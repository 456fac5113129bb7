package models

import (
	"strings"
	"time"
)

// User roles. Role is immutable after registration except through the
// admin role-change endpoint.
const (
	RoleAdmin    = "admin"
	RoleLecturer = "lecturer"
	RoleStudent  = "student"
)

// User represents an account that can authenticate against the API.
type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Email        string     `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"size:255;not null" json:"-"`
	Role         string     `gorm:"size:32;not null;default:student" json:"role"`
	FirstName    string     `gorm:"size:150;not null" json:"first_name"`
	LastName     string     `gorm:"size:150;not null" json:"last_name"`
	PhoneNumber  string     `gorm:"size:32" json:"phone_number"`
	Bio          string     `gorm:"type:text" json:"bio"`
	Active       bool       `gorm:"not null;default:true" json:"active"`
	LastLoginAt  *time.Time `json:"last_login_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// FullName joins first and last name for display purposes.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// IsLecturer reports whether the user holds the lecturer role.
func (u User) IsLecturer() bool { return u.Role == RoleLecturer }

// IsStudent reports whether the user holds the student role.
func (u User) IsStudent() bool { return u.Role == RoleStudent }

// CanOwnCourses reports whether the user may be assigned as a course lecturer.
func (u User) CanOwnCourses() bool {
	return u.Role == RoleLecturer || u.Role == RoleAdmin
}

// ValidRole reports whether the given string is a known role.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleLecturer, RoleStudent:
		return true
	}
	return false
}
