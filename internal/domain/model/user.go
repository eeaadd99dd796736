package model

import "time"

// User is an authenticated account. PasswordHash is a bcrypt hash and never
// leaves the domain boundary.
type User struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string
	FullName     string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastLogin    *time.Time
}
