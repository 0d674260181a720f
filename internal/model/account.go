package model

import "time"

// Account represents an API operator (separate from platform users).
// The chat-platform gateway logs in with a gateway account and acts on
// behalf of users.
type Account struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	CreatedAt    time.Time  `json:"created_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// Roles.
const (
	RoleAdmin    = "admin"
	RoleGateway  = "gateway"
	RoleReadonly = "readonly"
)

// RoleAtLeast checks if role meets or exceeds the minimum required role.
func RoleAtLeast(role, minimum string) bool {
	levels := map[string]int{
		RoleAdmin:    3,
		RoleGateway:  2,
		RoleReadonly: 1,
	}
	return levels[role] >= levels[minimum]
}
