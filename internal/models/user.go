// Package models contains data structures for the forum's domain models.
package models

import (
	"strings"
	"time"
)

// Role is the coarse permission level of a user.
type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleProfessor Role = "PROFESSOR"
	RoleStudent   Role = "STUDENT"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleProfessor, RoleStudent:
		return true
	}
	return false
}

// IsModerator reports whether r may moderate content.
func (r Role) IsModerator() bool {
	return r == RoleAdmin || r == RoleProfessor
}

// User represents a forum account.
type User struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Email          string    `gorm:"size:254;uniqueIndex;not null" json:"email"`
	Password       string    `gorm:"not null" json:"-"`
	FirstName      string    `gorm:"size:150;not null" json:"first_name"`
	LastName       string    `gorm:"size:150;not null" json:"last_name"`
	Role           Role      `gorm:"size:20;not null;default:'STUDENT'" json:"role"`
	ProfilePicture string    `gorm:"size:500" json:"profile_picture,omitempty"`
	IsActive       bool      `gorm:"not null;default:true" json:"is_active"`
	DateJoined     time.Time `gorm:"not null;autoCreateTime" json:"date_joined"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// FullName joins the display name pair, falling back to the email.
func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

// UserSummary is the compact author/reporter view embedded in other payloads.
type UserSummary struct {
	ID       uint   `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     Role   `json:"role"`
}

// Summary returns the compact view of u.
func (u *User) Summary() *UserSummary {
	if u == nil || u.ID == 0 {
		return nil
	}
	return &UserSummary{ID: u.ID, Email: u.Email, FullName: u.FullName(), Role: u.Role}
}
