package model

import (
	"time"
)

const (
	RoleMember  = "member"
	RoleManager = "manager"
	RoleAdmin   = "admin"
)

type Space struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Slug      string    `db:"slug"`
	CreatedBy string    `db:"created_by"`
	CreatedAt time.Time `db:"created_at"`
}

type SpaceMember struct {
	SpaceID   string    `db:"space_id"`
	UserID    string    `db:"user_id"`
	Role      string    `db:"role"`
	CreatedAt time.Time `db:"created_at"`

	// Joined from users (not in space_members)
	Email string `db:"email"`
	Name  string `db:"name"`
}

// IsAdmin reports whether the member administrates or manages the space
func (m *SpaceMember) IsAdmin() bool {
	if m == nil {
		return false
	}
	return m.Role == RoleAdmin || m.Role == RoleManager
}

func ValidRole(role string) bool {
	switch role {
	case RoleMember, RoleManager, RoleAdmin:
		return true
	}
	return false
}
