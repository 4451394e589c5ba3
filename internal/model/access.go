package model

import "time"

// AccessLevel is a user's permission on an inventory. Levels are ordered:
// read < write < owner.
type AccessLevel string

const (
	AccessRead  AccessLevel = "read"
	AccessWrite AccessLevel = "write"
	AccessOwner AccessLevel = "owner"
)

// IsValid checks whether the access level is a known value.
func (l AccessLevel) IsValid() bool {
	return l.Rank() > 0
}

// Rank orders access levels; unknown levels rank 0.
func (l AccessLevel) Rank() int {
	switch l {
	case AccessRead:
		return 1
	case AccessWrite:
		return 2
	case AccessOwner:
		return 3
	}
	return 0
}

// Allows reports whether l grants at least the required level.
func (l AccessLevel) Allows(required AccessLevel) bool {
	return l.Rank() >= required.Rank() && l.Rank() > 0
}

// Access grants a user a level on an inventory.
type Access struct {
	InventoryID string      `json:"inventory_id"`
	UserID      string      `json:"user_id"`
	Level       AccessLevel `json:"level"`
	GrantedBy   string      `json:"granted_by,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}
