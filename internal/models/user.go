// Package models contains data models for the booking service.
package models

import "time"

// Role values stored on User.Role.
const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

// User represents a registered account.
type User struct {
	ID           int64     `gorm:"primaryKey"`
	Username     string    `gorm:"uniqueIndex;not null"`
	PasswordHash string    `gorm:"column:password;not null"`
	FullName     string    `gorm:"column:full_name"`
	Role         string    `gorm:"type:varchar(16);not null;default:USER"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName returns the database table name for the User model.
func (User) TableName() string {
	return "users"
}

// IsAdmin reports whether the user carries the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
