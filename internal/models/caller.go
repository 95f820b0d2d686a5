package models

import (
	"time"
)

// Role is the portal role attached to an authenticated caller
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleCoordinator Role = "coordinator"
	RolePresenter   Role = "presenter"
	RoleReviewer    Role = "reviewer"
	RoleGuest       Role = "guest"
)

// IsStaff returns true for roles that manage the review workflow
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleCoordinator
}

// Caller represents an authenticated API caller
type Caller struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	ApiKey     string     `json:"-"` // Never serialize
	Role       Role       `json:"role"`
	IsActive   bool       `json:"is_active"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

// MaskedApiKey returns first 8 characters of the API key for logging
func (c *Caller) MaskedApiKey() string {
	if len(c.ApiKey) < 8 {
		return "***"
	}
	return c.ApiKey[:8] + "..."
}
