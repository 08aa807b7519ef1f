package model

import (
	"fmt"
	"time"
)

// User represents a staff account (manufacturer or dealer side).
type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	DealerID     *int64     `json:"dealer_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// Roles.
const (
	RoleAdmin       = "admin"
	RoleEVMStaff    = "evm_staff"
	RoleDealerStaff = "dealer_staff"
)

// ValidRole reports whether s is a known role.
func ValidRole(s string) bool {
	switch s {
	case RoleAdmin, RoleEVMStaff, RoleDealerStaff:
		return true
	}
	return false
}

// RoleAtLeast checks if role meets or exceeds the minimum required role.
// Unknown roles on either side fail closed.
func RoleAtLeast(role, minimum string) bool {
	levels := map[string]int{
		RoleAdmin:       3,
		RoleEVMStaff:    2,
		RoleDealerStaff: 1,
	}
	have, ok := levels[role]
	if !ok {
		return false
	}
	need, ok := levels[minimum]
	if !ok {
		return false
	}
	return have >= need
}

// ValidatePassword enforces the minimum password policy.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	return nil
}
