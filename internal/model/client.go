package model

import (
	"fmt"
	"time"
)

// APIClient is a machine or operator credential for the write API.
type APIClient struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	SecretHash string     `json:"-"`
	Role       string     `json:"role"`
	CreatedAt  time.Time  `json:"created_at"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`
}

// Roles.
const (
	RoleAdmin  = "admin"
	RoleAuthor = "author"
	RoleReader = "reader"
)

// RoleAtLeast checks if role meets or exceeds the minimum required role.
func RoleAtLeast(role, minimum string) bool {
	levels := map[string]int{
		RoleAdmin:  3,
		RoleAuthor: 2,
		RoleReader: 1,
	}
	return levels[role] >= levels[minimum] && levels[minimum] > 0
}

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleAuthor || role == RoleReader
}

// MinSecretLength is the shortest accepted client secret.
const MinSecretLength = 16

// ValidateSecret checks that a client secret is acceptable.
func ValidateSecret(secret string) error {
	if len(secret) < MinSecretLength {
		return fmt.Errorf("secret must be at least %d characters", MinSecretLength)
	}
	return nil
}
